package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/calltrace/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	l.position = l.readPosition
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.readPosition = len(l.input) + 1
		l.position = len(l.input)
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.readPosition += w
	}
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// NextToken scans the next token. At end of input it keeps returning EOF.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	start, line, col := l.position, l.line, l.column
	var tok token.Token

	switch l.ch {
	case 0:
		return token.Token{Type: token.EOF, Line: line, Column: col, Offset: len(l.input), End: len(l.input)}
	case '\n':
		tok.Type = token.NEWLINE
	case ';':
		tok.Type = token.SEMICOLON
	case ',':
		tok.Type = token.COMMA
	case '.':
		tok.Type = token.DOT
	case '(':
		tok.Type = token.LPAREN
	case ')':
		tok.Type = token.RPAREN
	case '{':
		tok.Type = token.LBRACE
	case '}':
		tok.Type = token.RBRACE
	case '[':
		tok.Type = token.LBRACKET
	case ']':
		tok.Type = token.RBRACKET
	case '+':
		tok.Type = token.PLUS
	case '-':
		tok.Type = token.MINUS
	case '*':
		tok.Type = token.ASTERISK
	case '/':
		tok.Type = token.SLASH
	case '%':
		tok.Type = token.PERCENT
	case '=':
		tok.Type = l.twoChar('=', token.EQ, token.ASSIGN)
	case '!':
		tok.Type = l.twoChar('=', token.NOT_EQ, token.BANG)
	case '<':
		tok.Type = l.twoChar('=', token.LTE, token.LT)
	case '>':
		tok.Type = l.twoChar('=', token.GTE, token.GT)
	case '&':
		tok.Type = l.twoChar('&', token.AND, token.ILLEGAL)
	case '|':
		tok.Type = l.twoChar('|', token.OR, token.ILLEGAL)
	case '"':
		return l.readString(start, line, col)
	default:
		if isLetter(l.ch) {
			lexeme := l.readIdentifier()
			return token.Token{
				Type:    token.LookupIdent(lexeme),
				Lexeme:  lexeme,
				Literal: lexeme,
				Line:    line,
				Column:  col,
				Offset:  start,
				End:     l.position,
			}
		} else if isDigit(l.ch) {
			return l.readNumber(start, line, col)
		}
		tok.Type = token.ILLEGAL
	}

	l.readChar()
	tok.Lexeme = l.input[start:l.position]
	tok.Literal = tok.Lexeme
	if tok.Type == token.ILLEGAL {
		tok.Literal = "unexpected character " + strconv.Quote(tok.Lexeme)
	}
	tok.Line, tok.Column = line, col
	tok.Offset, tok.End = start, l.position
	return tok
}

// twoChar consumes next when it follows the current char and returns
// matched, otherwise single.
func (l *Lexer) twoChar(next rune, matched, single token.TokenType) token.TokenType {
	if l.peekChar() == next {
		l.readChar()
		return matched
	}
	return single
}

func (l *Lexer) skipWhitespace() {
	for {
		switch l.ch {
		case ' ', '\t', '\r':
			l.readChar()
		case '#':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber(start, line, col int) token.Token {
	for isDigit(l.ch) {
		l.readChar()
	}
	isFloat := false
	// 1.5 is a float, 1.abs() is a method call on 1
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	lexeme := l.input[start:l.position]
	tok := token.Token{Lexeme: lexeme, Line: line, Column: col, Offset: start, End: l.position}
	if isFloat {
		f, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			tok.Type, tok.Literal = token.ILLEGAL, "invalid float literal "+lexeme
			return tok
		}
		tok.Type, tok.Literal = token.FLOAT, f
		return tok
	}
	n, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		tok.Type, tok.Literal = token.ILLEGAL, "integer literal out of range: "+lexeme
		return tok
	}
	tok.Type, tok.Literal = token.INT, n
	return tok
}

func (l *Lexer) readString(start, line, col int) token.Token {
	var sb strings.Builder
	tok := token.Token{Line: line, Column: col, Offset: start}
	for {
		l.readChar()
		switch l.ch {
		case 0, '\n':
			tok.Type = token.ILLEGAL
			tok.Lexeme = l.input[start:l.position]
			tok.Literal = "unterminated string literal"
			tok.End = l.position
			return tok
		case '"':
			l.readChar()
			tok.Type = token.STRING
			tok.Lexeme = l.input[start:l.position]
			tok.Literal = sb.String()
			tok.End = l.position
			return tok
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			case '\\', '"':
				sb.WriteRune(l.ch)
			case 0:
				continue
			default:
				sb.WriteRune('\\')
				sb.WriteRune(l.ch)
			}
		default:
			sb.WriteRune(l.ch)
		}
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
