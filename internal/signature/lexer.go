package signature

import (
	"unicode"
	"unicode/utf8"
)

type TokenType int

const (
	ILLEGAL TokenType = iota
	EOF
	IDENT_UPPER // Int, Num, Maybe
	IDENT_LOWER // a, b, f
	ARROW       // ->
	IMPLY       // =>
	LPAREN
	RPAREN
	LBRACKET
	RBRACKET
	COMMA
)

var tokenNames = map[TokenType]string{
	ILLEGAL:     "ILLEGAL",
	EOF:         "end of signature",
	IDENT_UPPER: "type name",
	IDENT_LOWER: "type variable",
	ARROW:       "'->'",
	IMPLY:       "'=>'",
	LPAREN:      "'('",
	RPAREN:      "')'",
	LBRACKET:    "'['",
	RBRACKET:    "']'",
	COMMA:       "','",
}

func (t TokenType) String() string {
	return tokenNames[t]
}

type Token struct {
	Type    TokenType
	Literal string
	Column  int
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	column       int  // current column number
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		l.column++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	col := l.column
	var tok Token

	switch l.ch {
	case 0:
		return Token{Type: EOF, Column: col}
	case '-':
		if l.peekChar() == '>' {
			l.readChar()
			tok = Token{Type: ARROW, Literal: "->", Column: col}
		} else {
			tok = Token{Type: ILLEGAL, Literal: "-", Column: col}
		}
	case '=':
		if l.peekChar() == '>' {
			l.readChar()
			tok = Token{Type: IMPLY, Literal: "=>", Column: col}
		} else {
			tok = Token{Type: ILLEGAL, Literal: "=", Column: col}
		}
	case '(':
		tok = Token{Type: LPAREN, Literal: "(", Column: col}
	case ')':
		tok = Token{Type: RPAREN, Literal: ")", Column: col}
	case '[':
		tok = Token{Type: LBRACKET, Literal: "[", Column: col}
	case ']':
		tok = Token{Type: RBRACKET, Literal: "]", Column: col}
	case ',':
		tok = Token{Type: COMMA, Literal: ",", Column: col}
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			if unicode.IsUpper([]rune(ident)[0]) {
				return Token{Type: IDENT_UPPER, Literal: ident, Column: col}
			}
			return Token{Type: IDENT_LOWER, Literal: ident, Column: col}
		}
		tok = Token{Type: ILLEGAL, Literal: string(l.ch), Column: col}
	}

	l.readChar()
	return tok
}

// readIdentifier consumes letters, digits, underscores and primes (a', f2).
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '\'' {
		l.readChar()
	}
	return l.input[position:l.position]
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}
