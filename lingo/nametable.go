package lingo

// NamePool is the minimal view of a name pool the decompiler needs:
// zero-indexed lookup plus length. resource.NamePool already satisfies
// this.
type NamePool interface {
	Get(i int) string
	Len() int
}

// shiftSet holds the three independently-calibrated name-table shifts
// from §4.7.
type shiftSet struct {
	handler int
	global  int
	movie   int
}

// indexOf returns the first index of name in pool, or -1.
func indexOf(pool NamePool, name string) int {
	for i := 0; i < pool.Len(); i++ {
		if pool.Get(i) == name {
			return i
		}
	}
	return -1
}

// calibrateShifts learns the three shifts from the first handler's
// name_id and bytecode, per §4.7. Unresolved shifts default to the
// handler shift, matching the spec's explicit fallback.
func calibrateShifts(pool NamePool, firstHandlerNameID uint32, firstHandlerOps []Operation) shiftSet {
	handlerShift := calibrateHandlerShift(pool, firstHandlerNameID)
	shifts := shiftSet{handler: handlerShift, global: handlerShift, movie: handlerShift}

	if shift, ok := calibrateOperandShift(pool, firstHandlerOps, OpPushGlobal, "traceScript"); ok {
		shifts.global = shift
	}
	if shift, ok := calibrateMovieShift(pool, firstHandlerOps); ok {
		shifts.movie = shift
	}
	return shifts
}

func calibrateHandlerShift(pool NamePool, firstID uint32) int {
	newIdx := indexOf(pool, "new")
	constructIdx := indexOf(pool, "construct")
	if int(firstID) == newIdx || int(firstID) == constructIdx {
		return 0
	}
	if newIdx < 0 {
		return 0
	}
	n := pool.Len()
	if n == 0 {
		return 0
	}
	return mod(int(firstID)-newIdx, n)
}

// calibrateOperandShift scans ops for the first instruction matching op
// and aligns its operand to indexOf(pool, target).
func calibrateOperandShift(pool NamePool, ops []Operation, op Opcode, target string) (int, bool) {
	targetIdx := indexOf(pool, target)
	if targetIdx < 0 {
		return 0, false
	}
	for _, instr := range ops {
		if instr.OpcodeID == op {
			return int(instr.Operand) - targetIdx, true
		}
	}
	return 0, false
}

// calibrateMovieShift is calibrateOperandShift over either of the two
// movie-property opcodes named in §4.7.
func calibrateMovieShift(pool NamePool, ops []Operation) (int, bool) {
	if shift, ok := calibrateOperandShift(pool, ops, OpPushMovieProp, "traceScript"); ok {
		return shift, true
	}
	return calibrateOperandShift(pool, ops, OpPushProp, "traceScript")
}

// resolveName resolves a possibly-shifted id to a name-pool entry, per
// §4.7's "name[(id - shift) mod N], with N*50 added before mod to guard
// negatives" rule. Hard-coded overrides take precedence for the sentinel
// ids §4.7 calls out by name.
func resolveName(pool NamePool, id uint32, shift int) string {
	if name, ok := hardNameOverride(id); ok {
		return name
	}
	n := pool.Len()
	if n == 0 {
		return placeholderName(id)
	}
	idx := mod(int(id)-shift+n*50, n)
	name := pool.Get(idx)
	if name == "" {
		return placeholderName(id)
	}
	return name
}

func mod(a, n int) int {
	if n == 0 {
		return 0
	}
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}

func placeholderName(id uint32) string {
	return "n_" + itoaLingo(id)
}

// hardNameOverride covers the one sentinel id §4.7 calls out with a
// concrete numeric value: call_ext's 0xFFFF "external call" marker
// (§4.7's "trace-script, player, movie, type" overrides are named but no
// concrete id is given anywhere retrievable for this package, so those
// resolve through the calibrated shift like any other name).
func hardNameOverride(id uint32) (string, bool) {
	switch id {
	case 0xFFFF:
		return "<external-call>", true
	default:
		return "", false
	}
}

func itoaLingo(id uint32) string {
	if id == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for id > 0 {
		i--
		buf[i] = byte('0' + id%10)
		id /= 10
	}
	return string(buf[i:])
}
