package lingo

import "testing"

func TestHandlerNodeStringNoArgsEmptyBody(t *testing.T) {
	h := &HandlerNode{Name: "startMovie", Body: &Block{}}
	want := "on startMovie\nend"
	if got := h.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHandlerNodeStringWithArgsAndBody(t *testing.T) {
	h := &HandlerNode{
		Name: "setValue",
		Args: []string{"me", "v"},
		Body: &Block{Stmts: []Node{
			&Assignment{Target: &PropRef{Name: "pValue"}, Value: &ParamRef{Name: "v"}},
		}},
	}
	want := "on setValue me, v\n  pValue = v\nend"
	if got := h.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

// TestBinaryOpParenthesizesNestedOps covers §4.9's rule that binary
// operators parenthesize an operand that is itself a binary or logical
// operator.
func TestBinaryOpParenthesizesNestedOps(t *testing.T) {
	inner := &BinaryOp{Op: "+", Left: &IntLiteral{Value: 1}, Right: &IntLiteral{Value: 2}}
	outer := &BinaryOp{Op: "*", Left: inner, Right: &IntLiteral{Value: 3}}
	want := "(1 + 2) * 3"
	if got := outer.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLogicalOpParenthesizesBinaryOperand(t *testing.T) {
	cmp := &BinaryOp{Op: "<", Left: &LocalRef{Name: "x"}, Right: &IntLiteral{Value: 1}}
	logical := &LogicalOp{Op: "and", Left: cmp, Right: &LocalRef{Name: "flag"}}
	want := "(x < 1) and flag"
	if got := logical.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBinaryOpLeavesPlainOperandsBare(t *testing.T) {
	bin := &BinaryOp{Op: "+", Left: &LocalRef{Name: "a"}, Right: &LocalRef{Name: "b"}}
	want := "a + b"
	if got := bin.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestObjCallDotHasNoSpaces(t *testing.T) {
	call := &ObjCall{
		Target: &LocalRef{Name: "sprite"},
		Method: "setProp",
		Args:   &ArgList{Args: []Node{&IntLiteral{Value: 1}}},
	}
	want := "sprite.setProp(1)"
	if got := call.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPropListLiteralEmptyPrintsColonOnly(t *testing.T) {
	var lit PropListLiteral
	if got := lit.String(); got != "[:]" {
		t.Errorf("got %q, want [:]", got)
	}
}

func TestPropListLiteralWithPairs(t *testing.T) {
	lit := &PropListLiteral{Pairs: []PropPair{
		{Key: &SymbolLiteral{Value: "a"}, Value: &IntLiteral{Value: 1}},
		{Key: &SymbolLiteral{Value: "b"}, Value: &IntLiteral{Value: 2}},
	}}
	want := "[#a: 1, #b: 2]"
	if got := lit.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestListLiteralEmpty(t *testing.T) {
	var lit ListLiteral
	if got := lit.String(); got != "[]" {
		t.Errorf("got %q, want []", got)
	}
}

func TestStringLiteralEscaping(t *testing.T) {
	lit := &StringLiteral{Value: "say \"hi\\bye\"\nnext"}
	want := "\"say \\\"hi\\\\bye\\\"\rnext\""
	if got := lit.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReturnWithAndWithoutValue(t *testing.T) {
	if got := (&Return{}).String(); got != "return" {
		t.Errorf("got %q, want return", got)
	}
	if got := (&Return{Value: &IntLiteral{Value: 0}}).String(); got != "return 0" {
		t.Errorf("got %q, want return 0", got)
	}
}

func TestExitKinds(t *testing.T) {
	cases := []struct {
		kind string
		want string
	}{
		{"", "exit"},
		{"repeat", "exit repeat"},
		{"next", "next repeat"},
	}
	for _, c := range cases {
		if got := (&Exit{Kind: c.kind}).String(); got != c.want {
			t.Errorf("Exit{%q} = %q, want %q", c.kind, got, c.want)
		}
	}
}

func TestErrorNodeString(t *testing.T) {
	want := "-- error decompiling opcode bad-jump"
	if got := (&ErrorNode{Opcode: "bad-jump"}).String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
