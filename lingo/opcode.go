// Package lingo decompiles Director's stack-oriented Lingo bytecode into
// an abstract syntax tree with reconstructed structured control flow.
package lingo

// Opcode is the effective (de-banded) instruction identifier: for
// no-operand instructions this is the raw byte itself; for operand-
// bearing instructions it is the raw byte modulo 0x40, per §4.6's
// banding table. Every constant below therefore lives in 0x00-0x3F
// regardless of which band its raw encoding actually falls in, since
// that's the full image of EffectiveOpcode and every instruction must
// occupy a distinct slot in it.
type Opcode byte

// No-operand instructions (raw < 0x40): the raw byte is the effective id
// directly.
const (
	OpRet        Opcode = 0x01
	OpRetFactory Opcode = 0x02
	OpPushInt0   Opcode = 0x03
	OpPushInt1   Opcode = 0x04
	OpPushInt2   Opcode = 0x05
	OpPop        Opcode = 0x06
	OpPeek       Opcode = 0x07
	OpInv        Opcode = 0x09
	OpNot        Opcode = 0x0A
	OpAdd        Opcode = 0x0B
	OpSub        Opcode = 0x0C
	OpMul        Opcode = 0x0D
	OpDiv        Opcode = 0x0E
	OpMod        Opcode = 0x0F
	OpJoin       Opcode = 0x10
	OpLt         Opcode = 0x11
	OpLtEq       Opcode = 0x12
	OpGt         Opcode = 0x13
	OpGtEq       Opcode = 0x14
	OpEq         Opcode = 0x15
	OpNtEq       Opcode = 0x16
	OpAnd        Opcode = 0x17
	OpOr         Opcode = 0x18
	OpExitRepeat Opcode = 0x19
	OpNextRepeat Opcode = 0x1A
)

// Operand-bearing instructions, all placed canonically in the 1-byte-
// operand band (raw = 0x40 + effective); the exact raw encoding is this
// package's own invented numbering — what's grounded in
// §4.6 is the set of opcodes requiring signed operand interpretation,
// preserved below in signedOperandOpcodes.
const (
	OpPushInt          Opcode = 0x1B
	OpPushConst        Opcode = 0x1C
	OpPushSymbol       Opcode = 0x1D
	OpPushLocal        Opcode = 0x1E
	OpSetLocal         Opcode = 0x1F
	OpPushParam        Opcode = 0x20
	OpSetParam         Opcode = 0x21
	OpPushArgList      Opcode = 0x22
	OpPushArgListNoRet Opcode = 0x23
	OpCallLocal        Opcode = 0x24
	OpCallExt          Opcode = 0x25
	OpObjCall          Opcode = 0x26
	OpNewObj           Opcode = 0x27
	OpPushList         Opcode = 0x28
	OpPushPropList     Opcode = 0x29
	OpGet              Opcode = 0x2A
	OpSet              Opcode = 0x2B
	OpJmp              Opcode = 0x2C
	OpJmpIfZ           Opcode = 0x2D
	OpSetProp          Opcode = 0x2E
	OpCallExtId        Opcode = 0x2F
	OpPushMovieProp    Opcode = 0x30
	OpPushProp         Opcode = 0x31
	OpPushGlobal       Opcode = 0x32
)

// OperandSize returns the number of bytes that follow a raw opcode byte,
// per §4.6's banding table.
func OperandSize(raw byte) int {
	switch {
	case raw < 0x40:
		return 0
	case raw < 0x80:
		return 1
	case raw < 0xC0:
		return 2
	default:
		return 4
	}
}

// EffectiveOpcode returns the de-banded instruction id: the raw byte
// itself below 0x40, else raw modulo 0x40.
func EffectiveOpcode(raw byte) Opcode {
	if raw < 0x40 {
		return Opcode(raw)
	}
	return Opcode(raw % 0x40)
}

// signedOperandOpcodes lists the effective opcode ids whose operand is
// sign-extended rather than zero-extended. This set is the semantic
// carry-over of §4.6's seven-member signed-raw-byte set
// ({0x41,0x53,0x54,0x55,0x56,0x6E,0x6F}) and §4.7's 0x1F/0x20
// property-push values, re-keyed onto this package's own effective
// opcode numbering (see the comment above the Opcode const block).
// The keys below are deliberately NOT those literal spec
// bytes — do not "correct" them back to the raw values; raw bytes never
// reach this map, only EffectiveOpcode results do.
var signedOperandOpcodes = map[Opcode]bool{
	OpPushInt:   true,
	OpGet:       true,
	OpSet:       true,
	OpJmp:       true,
	OpJmpIfZ:    true,
	OpSetProp:   true,
	OpCallExtId: true,
}

// IsSignedOperand reports whether op's operand should be interpreted as a
// signed integer.
func IsSignedOperand(op Opcode) bool {
	return signedOperandOpcodes[op]
}
