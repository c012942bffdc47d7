package lexer

import "testing"

func TestNextTokenBasics(t *testing.T) {
	input := `ai add(a: int, b: int) -> int { Return a+b. }`

	l := New(input, "t.haira")
	var types []Type
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == EOF {
			break
		}
	}

	want := []Type{AI, IDENT, LPAREN, IDENT, COLON, IDENT, COMMA, IDENT, COLON, IDENT,
		RPAREN, ARROW, IDENT, LBRACE, IDENT, IDENT, PLUS, IDENT, DOT, RBRACE, EOF}
	if len(types) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(types), len(want), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, types[i], want[i])
		}
	}
}

func TestInterpolatedString(t *testing.T) {
	l := New(`"hello ${name}!"`, "t.haira")
	tok := l.NextToken()
	if tok.Type != INTERP_STRING {
		t.Fatalf("Type = %v, want INTERP_STRING", tok.Type)
	}
	if tok.Literal != "hello ${name}!" {
		t.Errorf("Literal = %q", tok.Literal)
	}
}

func TestRangeOperators(t *testing.T) {
	l := New(`0..10 0..=10`, "t.haira")
	toks := []Token{l.NextToken(), l.NextToken(), l.NextToken(), l.NextToken(), l.NextToken()}
	if toks[1].Type != DOTDOT {
		t.Errorf("expected DOTDOT, got %v", toks[1].Type)
	}
	if toks[4].Type != DOTDOTEQ {
		t.Errorf("expected DOTDOTEQ, got %v", toks[4].Type)
	}
}
