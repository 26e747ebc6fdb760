package lingo

// binaryOpSymbols maps the arithmetic/relational opcodes to their printed
// operator, per §4.7's operation-to-AST table.
var binaryOpSymbols = map[Opcode]string{
	OpAdd:  "+",
	OpSub:  "-",
	OpMul:  "*",
	OpDiv:  "/",
	OpMod:  "mod",
	OpJoin: "&",
	OpLt:   "<",
	OpLtEq: "<=",
	OpGt:   ">",
	OpGtEq: ">=",
	OpEq:   "=",
	OpNtEq: "<>",
}

// buildCtx is the shared, read-only context a handler's bytecode is
// interpreted against.
type buildCtx struct {
	h        *Handler
	lits     []Literal
	pool     NamePool
	shifts   shiftSet
	propName func(id uint32) string
}

// builder walks a flat operation list maintaining one shared value stack,
// per the stack-machine reconstruction in §4.8. posIdx maps an absolute
// code position to its operation index so jump operands can be resolved
// to a range boundary.
type builder struct {
	ctx   *buildCtx
	ops   []Operation
	posIdx map[int64]int
	stack []Node
}

func newBuilder(ctx *buildCtx, ops []Operation) *builder {
	b := &builder{ctx: ctx, ops: ops, posIdx: make(map[int64]int, len(ops))}
	for i, op := range ops {
		b.posIdx[op.Position] = i
	}
	return b
}

func (b *builder) push(n Node) { b.stack = append(b.stack, n) }

func (b *builder) pop() Node {
	if len(b.stack) == 0 {
		return &ErrorNode{Opcode: "stack-underflow"}
	}
	n := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return n
}

func (b *builder) popN(n int) []Node {
	out := make([]Node, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = b.pop()
	}
	return out
}

func (b *builder) peek() Node {
	if len(b.stack) == 0 {
		return &ErrorNode{Opcode: "stack-underflow"}
	}
	return b.stack[len(b.stack)-1]
}

func (b *builder) literalNode(idx int64) Node {
	if idx < 0 || int(idx) >= len(b.ctx.lits) {
		return &ErrorNode{Opcode: "bad-literal-index"}
	}
	return literalToNode(b.ctx.lits[idx])
}

func literalToNode(l Literal) Node {
	switch l.Kind {
	case LitInt:
		return &IntLiteral{Value: l.Int}
	case LitFloat:
		return &FloatLiteral{Value: l.Float}
	case LitSymbol:
		return &SymbolLiteral{Value: l.Symbol}
	case LitList:
		items := make([]Node, len(l.List))
		for i, e := range l.List {
			items[i] = literalToNode(e)
		}
		return &ListLiteral{Items: items}
	default:
		return &StringLiteral{Value: l.String}
	}
}

func (b *builder) localRef(idx int64) Node {
	if idx < 0 || int(idx) >= len(b.ctx.h.Locals) {
		return &LocalRef{Name: placeholderName(uint32(idx))}
	}
	return &LocalRef{Name: b.ctx.h.Locals[idx]}
}

func (b *builder) paramRef(idx int64) Node {
	if idx < 0 || int(idx) >= len(b.ctx.h.Args) {
		return &ParamRef{Name: placeholderName(uint32(idx))}
	}
	return &ParamRef{Name: b.ctx.h.Args[idx]}
}

// Build reconstructs a handler's body from its flat operation list,
// starting from the whole range and recursing into nested ranges for
// structured control flow.
func (ctx *buildCtx) Build() *Block {
	b := newBuilder(ctx, ctx.h.Ops)
	return b.run(0, len(b.ops))
}

// run interprets ops[from:to], emitting completed statements into the
// returned block while sharing the builder's value stack across the
// whole handler, per the stack-machine model in §4.8.
func (b *builder) run(from, to int) *Block {
	blk := &Block{}
	i := from
	for i < to {
		op := b.ops[i]

		if op.OpcodeID == OpJmpIfZ {
			next, consumed := b.tryControlStructure(i, to)
			if consumed {
				if stmt, ok := next.stmt, next.ok; ok {
					blk.Stmts = append(blk.Stmts, stmt)
				}
				i = next.resume
				continue
			}
		}

		if op.OpcodeID == OpPeek {
			if c, ok := b.tryCase(i, to); ok {
				blk.Stmts = append(blk.Stmts, c.node)
				i = c.resume
				continue
			}
		}

		stmt, advance := b.step(i)
		if stmt != nil {
			blk.Stmts = append(blk.Stmts, stmt)
		}
		i += advance
	}
	return blk
}

// step executes exactly one instruction, returning a completed statement
// (or nil if the instruction only affected the value stack) and how many
// operation slots it consumed (always 1, except where noted).
func (b *builder) step(i int) (Node, int) {
	op := b.ops[i]
	switch op.OpcodeID {
	case OpRet, OpRetFactory:
		if len(b.stack) > 0 {
			return &Return{Value: b.pop()}, 1
		}
		return &Return{}, 1

	case OpPushInt0:
		b.push(&IntLiteral{Value: 0})
	case OpPushInt1:
		b.push(&IntLiteral{Value: 1})
	case OpPushInt2:
		b.push(&IntLiteral{Value: 2})
	case OpPushInt:
		b.push(&IntLiteral{Value: int32(op.Operand)})
	case OpPushConst:
		b.push(b.literalNode(op.Operand))
	case OpPushSymbol:
		b.push(&SymbolLiteral{Value: resolveName(b.ctx.pool, uint32(op.Operand), b.ctx.shifts.global)})

	case OpPushLocal:
		b.push(b.localRef(op.Operand))
	case OpSetLocal:
		v := b.pop()
		return &Assignment{Target: b.localRef(op.Operand), Value: v}, 1
	case OpPushParam:
		b.push(b.paramRef(op.Operand))
	case OpSetParam:
		v := b.pop()
		return &Assignment{Target: b.paramRef(op.Operand), Value: v}, 1

	case OpPushGlobal:
		b.push(&VarRef{Name: resolveName(b.ctx.pool, uint32(op.Operand), b.ctx.shifts.global)})
	case OpPushProp:
		b.push(&PropRef{Name: b.ctx.propName(uint32(op.Operand))})
	case OpPushMovieProp:
		b.push(&PropRef{Name: resolveName(b.ctx.pool, uint32(op.Operand), b.ctx.shifts.movie)})
	case OpSetProp:
		v := b.pop()
		return &Assignment{Target: &PropRef{Name: resolveName(b.ctx.pool, uint32(op.Operand), b.ctx.shifts.handler)}, Value: v}, 1
	case OpGet:
		obj := b.pop()
		b.push(&PropRef{Name: obj.String() + "." + resolveName(b.ctx.pool, uint32(op.Operand), b.ctx.shifts.handler)})
	case OpSet:
		v := b.pop()
		obj := b.pop()
		return &Assignment{Target: &PropRef{Name: obj.String() + "." + resolveName(b.ctx.pool, uint32(op.Operand), b.ctx.shifts.handler)}, Value: v}, 1

	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpJoin, OpLt, OpLtEq, OpGt, OpGtEq, OpEq, OpNtEq:
		right := b.pop()
		left := b.pop()
		b.push(&BinaryOp{Op: binaryOpSymbols[op.OpcodeID], Left: left, Right: right})
	case OpAnd:
		right := b.pop()
		left := b.pop()
		b.push(&LogicalOp{Op: "and", Left: left, Right: right})
	case OpOr:
		right := b.pop()
		left := b.pop()
		b.push(&LogicalOp{Op: "or", Left: left, Right: right})
	case OpNot:
		b.push(&NotOp{X: b.pop()})
	case OpInv:
		b.push(&NegOp{X: b.pop()})

	case OpPeek:
		b.push(b.peek())
	case OpPop:
		v := b.pop()
		if isCallLike(v) {
			return v, 1
		}

	case OpPushArgList, OpPushArgListNoRet:
		args := b.popN(int(op.Operand))
		b.push(&ArgList{Args: args, NoReturn: op.OpcodeID == OpPushArgListNoRet})
	case OpCallLocal:
		args := b.argListFromStack()
		call := &Call{Name: resolveName(b.ctx.pool, uint32(op.Operand), b.ctx.shifts.handler), Args: args}
		if args.NoReturn {
			return call, 1
		}
		b.push(call)
	case OpCallExt, OpCallExtId:
		args := b.argListFromStack()
		call := &Call{Name: resolveName(b.ctx.pool, uint32(op.Operand), b.ctx.shifts.global), Args: args}
		if args.NoReturn {
			return call, 1
		}
		b.push(call)
	case OpObjCall:
		args := b.argListFromStack()
		target := b.pop()
		call := &ObjCall{Target: target, Method: resolveName(b.ctx.pool, uint32(op.Operand), b.ctx.shifts.handler), Args: args}
		if args.NoReturn {
			return call, 1
		}
		b.push(call)
	case OpNewObj:
		args := b.argListFromStack()
		b.push(&Call{Name: "new " + resolveName(b.ctx.pool, uint32(op.Operand), b.ctx.shifts.handler), Args: args})

	case OpPushList:
		items := b.popN(int(op.Operand))
		b.push(&ListLiteral{Items: items})
	case OpPushPropList:
		n := int(op.Operand)
		pairs := make([]PropPair, n)
		for k := n - 1; k >= 0; k-- {
			v := b.pop()
			key := b.pop()
			pairs[k] = PropPair{Key: key, Value: v}
		}
		b.push(&PropListLiteral{Pairs: pairs})

	case OpExitRepeat:
		return &Exit{Kind: "repeat"}, 1
	case OpNextRepeat:
		return &Exit{Kind: "next"}, 1

	case OpJmp, OpJmpIfZ:
		// Reaching either here (outside tryControlStructure/tryCase)
		// means the jump didn't match a recognized pattern.
		return &ErrorNode{Opcode: "unrecognized jump"}, 1
	}
	return nil, 1
}

// argListFromStack pops the ArgList most recently pushed by
// push_arg_list; if the popped value is not an ArgList (a malformed or
// not-yet-understood call sequence), it is wrapped as a one-argument list.
func (b *builder) argListFromStack() *ArgList {
	v := b.pop()
	if al, ok := v.(*ArgList); ok {
		return al
	}
	return &ArgList{Args: []Node{v}}
}

func isCallLike(n Node) bool {
	switch n.(type) {
	case *Call, *ObjCall:
		return true
	default:
		return false
	}
}

type resumeResult struct {
	stmt   Node
	ok     bool
	resume int
}

// tryControlStructure recognizes the if/if-else/repeat-while family, all
// rooted at a forward jmp_if_z: the condition is already on the stack,
// and the jump skips past a "then" region whose last instruction may be
// an unconditional jmp marking an else clause (forward target) or a loop
// back-edge (backward target).
func (b *builder) tryControlStructure(i, limit int) (resumeResult, bool) {
	op := b.ops[i]
	targetIdx, ok := b.posIdx[op.Operand]
	if !ok || targetIdx <= i || targetIdx > limit {
		return resumeResult{}, false
	}
	cond := b.pop()

	bodyEnd := targetIdx
	var trailing *Operation
	if bodyEnd-1 >= i+1 && b.ops[bodyEnd-1].OpcodeID == OpJmp {
		t := b.ops[bodyEnd-1]
		trailing = &t
	}

	if trailing != nil {
		trailIdx, trailOK := b.posIdx[trailing.Position]
		_ = trailIdx
		if trailOK {
			if trailing.Operand <= trailing.Position {
				// Backward unconditional jump: the "then" region is a
				// loop body, and this whole construct is repeat-while.
				body := b.run(i+1, bodyEnd-1)
				stmt := postProcessLoop(cond, body)
				return resumeResult{stmt: stmt, ok: true, resume: targetIdx}, true
			}
			if elseEnd, elseOK := b.posIdx[trailing.Operand]; elseOK && elseEnd >= targetIdx {
				thenBlk := b.run(i+1, bodyEnd-1)
				elseBlk := b.run(targetIdx, elseEnd)
				return resumeResult{stmt: &If{Cond: cond, Then: thenBlk, Else: elseBlk}, ok: true, resume: elseEnd}, true
			}
		}
	}

	thenBlk := b.run(i+1, bodyEnd)
	return resumeResult{stmt: &If{Cond: cond, Then: thenBlk}, ok: true, resume: targetIdx}, true
}

// postProcessLoop turns a generic repeat-while into a repeat-with when
// the body's own structure makes the counter idiom unambiguous: the
// condition compares a local to a bound, and the body's final statement
// increments or decrements that same local by exactly one.
func postProcessLoop(cond Node, body *Block) Node {
	cmp, ok := cond.(*BinaryOp)
	if !ok || len(body.Stmts) == 0 {
		return &RepeatWhile{Cond: cond, Body: body}
	}
	loopVar, ok := cmp.Left.(*LocalRef)
	if !ok {
		return &RepeatWhile{Cond: cond, Body: body}
	}
	last, ok := body.Stmts[len(body.Stmts)-1].(*Assignment)
	if !ok {
		return &RepeatWhile{Cond: cond, Body: body}
	}
	target, ok := last.Target.(*LocalRef)
	if !ok || target.Name != loopVar.Name {
		return &RepeatWhile{Cond: cond, Body: body}
	}
	step, down, ok := incrementDirection(last.Value, loopVar.Name)
	if !ok || step != 1 {
		return &RepeatWhile{Cond: cond, Body: body}
	}
	return &RepeatWith{
		Var:  loopVar.Name,
		From: &LocalRef{Name: loopVar.Name},
		To:   cmp.Right,
		Down: down,
		Body: &Block{Stmts: body.Stmts[:len(body.Stmts)-1]},
	}
}

func incrementDirection(v Node, varName string) (step int32, down bool, ok bool) {
	bin, isBin := v.(*BinaryOp)
	if !isBin {
		return 0, false, false
	}
	ref, isRef := bin.Left.(*LocalRef)
	lit, isLit := bin.Right.(*IntLiteral)
	if !isRef || !isLit || ref.Name != varName {
		return 0, false, false
	}
	switch bin.Op {
	case "+":
		return lit.Value, false, true
	case "-":
		return lit.Value, true, true
	default:
		return 0, false, false
	}
}

type caseResult struct {
	node   Node
	resume int
}

// tryCase recognizes a case-of chain: repeated peek / <candidate expr> /
// eq / jmp_if_z sequences sharing one scrutinee, per §4.8. The scrutinee
// is left on the stack by the time peek is reached and is popped once
// the whole chain is consumed.
func (b *builder) tryCase(i, limit int) (caseResult, bool) {
	if len(b.stack) == 0 {
		return caseResult{}, false
	}
	scrutinee := b.peek()
	var branches []*CaseBranch
	pos := i
	resumeAfterBranch := -1
	for pos < limit && b.ops[pos].OpcodeID == OpPeek {
		eqIdx := -1
		for k := pos + 1; k < limit; k++ {
			if b.ops[k].OpcodeID == OpEq {
				eqIdx = k
				break
			}
		}
		if eqIdx < 0 || eqIdx+1 >= limit || b.ops[eqIdx+1].OpcodeID != OpJmpIfZ {
			break
		}
		jz := b.ops[eqIdx+1]
		nextIdx, ok := b.posIdx[jz.Operand]
		if !ok || nextIdx <= eqIdx {
			break
		}

		sub := newBuilder(b.ctx, b.ops)
		sub.stack = append([]Node{}, b.stack...)
		candBlk := sub.run(pos+1, eqIdx)
		var candidate Node = &ErrorNode{Opcode: "case-label"}
		if len(sub.stack) > len(b.stack) {
			candidate = sub.stack[len(sub.stack)-1]
		}

		bodyEnd := nextIdx
		branchEnd := nextIdx
		if bodyEnd-1 >= eqIdx+2 && b.ops[bodyEnd-1].OpcodeID == OpJmp {
			if endIdx, ok := b.posIdx[b.ops[bodyEnd-1].Operand]; ok {
				bodyEnd--
				branchEnd = endIdx
			}
		}
		// A later branch's overshoot target marks where the whole case
		// construct ends; the furthest one observed wins.
		if branchEnd > resumeAfterBranch {
			resumeAfterBranch = branchEnd
		}
		body := b.run(eqIdx+2, bodyEnd)
		branches = append(branches, &CaseBranch{Value: candidate, Body: body})
		pos = nextIdx
	}
	if len(branches) == 0 {
		return caseResult{}, false
	}
	b.pop() // consume the scrutinee the chain was testing against

	resume := pos
	if resumeAfterBranch > pos {
		// The chain's last jmp_if_z target (pos) is only the start of the
		// otherwise region; resumeAfterBranch is where it actually ends.
		otherwiseBody := b.run(pos, resumeAfterBranch)
		branches = append(branches, &CaseBranch{Otherwise: true, Body: otherwiseBody})
		resume = resumeAfterBranch
	}
	return caseResult{node: &Case{Expr: scrutinee, Branches: branches}, resume: resume}, true
}
