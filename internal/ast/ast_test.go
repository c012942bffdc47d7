package ast

import "testing"

func TestNodeString(t *testing.T) {
	lit := &IntLit{Value: 42}
	if lit.String() != "42" {
		t.Errorf("IntLit.String() = %q, want %q", lit.String(), "42")
	}

	call := &Call{
		Callee: &Identifier{Name: "add"},
		Args:   []Expr{&IntLit{Value: 10}, &IntLit{Value: 32}},
	}
	if got, want := call.String(), "add(10, 32)"; got != want {
		t.Errorf("Call.String() = %q, want %q", got, want)
	}
}

func TestAiDeclCarriesIntentText(t *testing.T) {
	d := &AiDecl{
		Name:       "get_answer",
		ReturnType: &NamedType{Name: "int"},
		IntentText: "Return 42.",
	}
	if d.IntentText != "Return 42." {
		t.Fatalf("unexpected intent text: %q", d.IntentText)
	}
}

func TestPosition(t *testing.T) {
	n := &Identifier{Pos: Pos{File: "a.haira", Line: 3, Column: 5}, Name: "x"}
	if got, want := n.Position().String(), "a.haira:3:5"; got != want {
		t.Errorf("Position() = %q, want %q", got, want)
	}
}
