package lingo

import "testing"

func TestIndentBlockEmpty(t *testing.T) {
	if got := indentBlock(&Block{}); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := indentBlock(nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestIndentBlockSingleLinePerStatement(t *testing.T) {
	b := &Block{Stmts: []Node{&Return{Value: &IntLiteral{Value: 1}}, &Exit{}}}
	want := "  return 1\n  exit"
	if got := indentBlock(b); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIndentBlockIndentsEveryLineOfMultilineStatement(t *testing.T) {
	inner := &If{Cond: &LocalRef{Name: "x"}, Then: &Block{Stmts: []Node{&Return{}}}}
	b := &Block{Stmts: []Node{inner}}
	want := "  if x then\n    return\n  end if"
	if got := indentBlock(b); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestIndentBlock2IndentsTwoLevels(t *testing.T) {
	b := &Block{Stmts: []Node{&Return{}}}
	want := "    return"
	if got := indentBlock2(b); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJoinComma(t *testing.T) {
	if got := joinComma(nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := joinComma([]string{"a"}); got != "a" {
		t.Errorf("got %q, want a", got)
	}
	if got := joinComma([]string{"a", "b", "c"}); got != "a, b, c" {
		t.Errorf("got %q, want %q", got, "a, b, c")
	}
}

func TestFormatFloat(t *testing.T) {
	cases := map[float64]string{
		1.5:  "1.5",
		2.0:  "2",
		-3.0: "-3",
	}
	for in, want := range cases {
		if got := formatFloat(in); got != want {
			t.Errorf("formatFloat(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestEscapeLingoString(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain", "plain"},
		{`a"b`, `a\"b`},
		{`a\b`, `a\\b`},
		{"a\nb", "a\rb"},
	}
	for _, c := range cases {
		if got := escapeLingoString(c.in); got != c.want {
			t.Errorf("escapeLingoString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
