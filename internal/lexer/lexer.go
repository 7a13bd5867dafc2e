package lexer

import (
	"strconv"
	"unicode/utf8"

	"github.com/funvibe/solidscript/internal/token"
)

// UnterminatedComment is the Literal of the ILLEGAL token produced for a
// block comment that never closes.
const UnterminatedComment = "unterminated block comment"

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

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// NextToken returns the next token. Whitespace and comments are skipped;
// an unterminated block comment yields an ILLEGAL token spanning the rest
// of the input.
func (l *Lexer) NextToken() token.Token {
	if tok, ok := l.skipWhitespace(); !ok {
		return tok
	}

	if l.atEOF() {
		return token.Token{Type: token.EOF, Lexeme: "", Line: l.line, Column: l.column, Offset: len(l.input)}
	}

	var tok token.Token
	switch l.ch {
	case '=':
		tok = l.newToken(token.ASSIGN)
	case '+':
		tok = l.newToken(token.PLUS)
	case '-':
		tok = l.newToken(token.MINUS)
	case '*':
		tok = l.newToken(token.ASTERISK)
	case '/':
		tok = l.newToken(token.SLASH)
	case '%':
		tok = l.newToken(token.PERCENT)
	case ',':
		tok = l.newToken(token.COMMA)
	case ';':
		tok = l.newToken(token.SEMICOLON)
	case '(':
		tok = l.newToken(token.LPAREN)
	case ')':
		tok = l.newToken(token.RPAREN)
	case '{':
		tok = l.newToken(token.LBRACE)
	case '}':
		tok = l.newToken(token.RBRACE)
	default:
		if isLetter(l.ch) {
			line, col, start := l.line, l.column, l.position
			ident := l.readIdentifier()
			return token.Token{Type: token.IDENT, Lexeme: ident, Literal: ident, Line: line, Column: col, Offset: start}
		}
		if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
			return l.readNumber()
		}
		tok = l.newToken(token.ILLEGAL)
		tok.Literal = "illegal character " + strconv.QuoteRune(l.ch)
	}

	l.readChar()
	return tok
}

// Tokenize lexes the whole input. The returned slice always ends with EOF
// or with the first ILLEGAL token.
func (l *Lexer) Tokenize() []token.Token {
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF || tok.Type == token.ILLEGAL {
			return tokens
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

// readNumber reads an unsigned float literal with optional fraction and
// exponent. Signs are separate tokens; the parser folds a sign glued to a
// literal in operand position.
func (l *Lexer) readNumber() token.Token {
	startLine, startCol := l.line, l.column
	position := l.position

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekChar2())) {
			l.readChar() // e
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	lexeme := l.input[position:l.position]
	val, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: "malformed number " + strconv.Quote(lexeme), Line: startLine, Column: startCol, Offset: position}
	}
	return token.Token{Type: token.NUMBER, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol, Offset: position}
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch == '$'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) peekChar2() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	if l.readPosition+w >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition+w:])
	return r
}

func (l *Lexer) newToken(tokenType token.TokenType) token.Token {
	literal := string(l.ch)
	return token.Token{Type: tokenType, Lexeme: literal, Literal: literal, Line: l.line, Column: l.column, Offset: l.position}
}

// skipWhitespace skips blanks, line comments and block comments. It reports
// false together with an ILLEGAL token when a block comment never closes.
func (l *Lexer) skipWhitespace() (token.Token, bool) {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.readChar()
		}
		if l.ch == '/' {
			if l.peekChar() == '/' {
				l.readChar() // consume first /
				l.readChar() // consume second /
				for l.ch != '\n' && !l.atEOF() {
					l.readChar()
				}
				continue
			} else if l.peekChar() == '*' {
				line, col, start := l.line, l.column, l.position
				l.readChar() // consume /
				l.readChar() // consume *
				closed := false
				for !l.atEOF() {
					if l.ch == '*' && l.peekChar() == '/' {
						l.readChar() // consume *
						l.readChar() // consume /
						closed = true
						break
					}
					l.readChar()
				}
				if !closed {
					return token.Token{
						Type:    token.ILLEGAL,
						Lexeme:  l.input[start:],
						Literal: UnterminatedComment,
						Line:    line,
						Column:  col,
						Offset:  start,
					}, false
				}
				continue
			}
		}
		return token.Token{}, true
	}
}
