package lingo

import (
	"encoding/binary"
	"math"
)

// LiteralKind discriminates a Literal's payload, per §3's literal table
// entry.
type LiteralKind int

// Recognized literal kinds. The concrete numeric type-code values stored
// in a LIT descriptor are this package's own invented encoding, since
// spec.md names the kinds but not their on-disk
// discriminator values.
const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitSymbol
	LitList
)

// Literal is one resolved entry from the literal table.
type Literal struct {
	Kind   LiteralKind
	Int    int32
	Float  float64
	String string
	Symbol string
	List   []Literal
}

// literalDescriptor is one (type, offset) pair read from the LIT
// segment.
type literalDescriptor struct {
	kind   uint32
	offset uint32
}

// parseLiteralDescriptors reads the LIT segment's u32 count followed by
// that many (type:u32, offset:u32) pairs.
func parseLiteralDescriptors(lit []byte, order binary.ByteOrder) []literalDescriptor {
	if len(lit) < 4 {
		return nil
	}
	count := order.Uint32(lit[:4])
	descs := make([]literalDescriptor, 0, count)
	pos := 4
	for i := uint32(0); i < count && pos+8 <= len(lit); i++ {
		descs = append(descs, literalDescriptor{
			kind:   order.Uint32(lit[pos : pos+4]),
			offset: order.Uint32(lit[pos+4 : pos+8]),
		})
		pos += 8
	}
	return descs
}

// parseLiterals materializes every literal named in lit's descriptor
// table from the ltd data blob, resolving symbol literals through
// resolveName, per §4.7's "literals parsed before any handler is walked"
// ordering law.
func parseLiterals(lit, ltd []byte, order binary.ByteOrder, resolveName func(id uint32) string) []Literal {
	descs := parseLiteralDescriptors(lit, order)
	out := make([]Literal, 0, len(descs))
	for _, d := range descs {
		out = append(out, decodeLiteral(d, ltd, order, resolveName))
	}
	return out
}

func decodeLiteral(d literalDescriptor, ltd []byte, order binary.ByteOrder, resolveName func(id uint32) string) Literal {
	off := int(d.offset)
	switch LiteralKind(d.kind) {
	case LitInt:
		if off+4 > len(ltd) {
			return Literal{Kind: LitInt}
		}
		return Literal{Kind: LitInt, Int: int32(order.Uint32(ltd[off : off+4]))}

	case LitFloat:
		if off+12 > len(ltd) {
			return Literal{Kind: LitFloat}
		}
		bits := order.Uint64(ltd[off+4 : off+12])
		return Literal{Kind: LitFloat, Float: math.Float64frombits(bits)}

	case LitSymbol:
		if off+4 > len(ltd) {
			return Literal{Kind: LitSymbol}
		}
		id := order.Uint32(ltd[off : off+4])
		return Literal{Kind: LitSymbol, Symbol: resolveName(id)}

	case LitList:
		if off+4 > len(ltd) {
			return Literal{Kind: LitList}
		}
		n := order.Uint32(ltd[off : off+4])
		entries := make([]Literal, 0, n)
		pos := off + 4
		for i := uint32(0); i < n && pos+8 <= len(ltd); i++ {
			sub := literalDescriptor{
				kind:   order.Uint32(ltd[pos : pos+4]),
				offset: order.Uint32(ltd[pos+4 : pos+8]),
			}
			entries = append(entries, decodeLiteral(sub, ltd, order, resolveName))
			pos += 8
		}
		return Literal{Kind: LitList, List: entries}

	default: // LitString and any unrecognized kind fall back to counted string.
		if off+4 > len(ltd) {
			return Literal{Kind: LitString}
		}
		n := int(order.Uint32(ltd[off : off+4]))
		start := off + 4
		if start+n > len(ltd) || n < 0 {
			return Literal{Kind: LitString}
		}
		return Literal{Kind: LitString, String: string(ltd[start : start+n])}
	}
}
