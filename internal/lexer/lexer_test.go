package lexer

import (
	"testing"

	"github.com/funvibe/calltrace/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `let five = 5 # comment
def add(a, b) { a + b }
x.foo(1.5, "s\n") != [1] <= !y && z || w % 2`

	tests := []struct {
		expectedType   token.TokenType
		expectedLexeme string
	}{
		{token.LET, "let"},
		{token.IDENT, "five"},
		{token.ASSIGN, "="},
		{token.INT, "5"},
		{token.NEWLINE, "\n"},
		{token.DEF, "def"},
		{token.IDENT, "add"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.COMMA, ","},
		{token.IDENT, "b"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "a"},
		{token.PLUS, "+"},
		{token.IDENT, "b"},
		{token.RBRACE, "}"},
		{token.NEWLINE, "\n"},
		{token.IDENT, "x"},
		{token.DOT, "."},
		{token.IDENT, "foo"},
		{token.LPAREN, "("},
		{token.FLOAT, "1.5"},
		{token.COMMA, ","},
		{token.STRING, `"s\n"`},
		{token.RPAREN, ")"},
		{token.NOT_EQ, "!="},
		{token.LBRACKET, "["},
		{token.INT, "1"},
		{token.RBRACKET, "]"},
		{token.LTE, "<="},
		{token.BANG, "!"},
		{token.IDENT, "y"},
		{token.AND, "&&"},
		{token.IDENT, "z"},
		{token.OR, "||"},
		{token.IDENT, "w"},
		{token.PERCENT, "%"},
		{token.INT, "2"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)", i, tt.expectedType, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
		if tok.Type != token.EOF && input[tok.Offset:tok.End] != tok.Lexeme {
			t.Fatalf("tests[%d] - offsets [%d,%d) do not cover lexeme %q", i, tok.Offset, tok.End, tok.Lexeme)
		}
	}
}

func TestLiterals(t *testing.T) {
	l := New(`42 3.25 "a\"b" 7.abs`)

	if tok := l.NextToken(); tok.Literal.(int64) != 42 {
		t.Errorf("int literal. got=%v", tok.Literal)
	}
	if tok := l.NextToken(); tok.Literal.(float64) != 3.25 {
		t.Errorf("float literal. got=%v", tok.Literal)
	}
	if tok := l.NextToken(); tok.Literal.(string) != `a"b` {
		t.Errorf("string literal. got=%q", tok.Literal)
	}
	// a dot not followed by a digit ends the number
	if tok := l.NextToken(); tok.Type != token.INT {
		t.Errorf("expected INT before method call, got=%s", tok.Type)
	}
	if tok := l.NextToken(); tok.Type != token.DOT {
		t.Errorf("expected DOT, got=%s", tok.Type)
	}
}

func TestIllegal(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{`"open`, "unterminated string literal"},
		{`@`, `unexpected character "@"`},
		{`&`, `unexpected character "&"`},
		{`99999999999999999999`, "integer literal out of range: 99999999999999999999"},
	}
	for _, tt := range tests {
		tok := New(tt.input).NextToken()
		if tok.Type != token.ILLEGAL {
			t.Fatalf("%q: expected ILLEGAL, got=%s", tt.input, tok.Type)
		}
		if tok.Literal != tt.msg {
			t.Errorf("%q: message. got=%q, want=%q", tt.input, tok.Literal, tt.msg)
		}
	}
}

func TestPositions(t *testing.T) {
	l := New("a\n  bb")
	l.NextToken() // a
	l.NextToken() // newline
	tok := l.NextToken()
	if tok.Line != 2 || tok.Column != 3 || tok.Offset != 4 {
		t.Errorf("bb position. got=%d:%d@%d", tok.Line, tok.Column, tok.Offset)
	}
}
