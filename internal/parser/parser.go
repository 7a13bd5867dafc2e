package parser

import (
	"errors"

	"github.com/funvibe/solidscript/internal/ast"
	"github.com/funvibe/solidscript/internal/config"
	"github.com/funvibe/solidscript/internal/diagnostics"
	"github.com/funvibe/solidscript/internal/lexer"
	"github.com/funvibe/solidscript/internal/pipeline"
	"github.com/funvibe/solidscript/internal/token"
)

const (
	_ int = iota
	LOWEST
	SUM     // + -
	PRODUCT // * / %
)

var precedences = map[token.TokenType]int{
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
}

type (
	prefixParseFn func() *ast.Node
	infixParseFn  func(*ast.Node) *ast.Node
)

// Parser is a fail-fast Pratt parser. The first error is recorded in the
// pipeline context and parsing stops.
//
// Convention: a parse function is entered with curToken on the first token
// of its construct and returns with curToken on the last one.
type Parser struct {
	tokens []token.Token
	pos    int
	ctx    *pipeline.PipelineContext

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	failed bool
	depth  int
}

func New(tokens []token.Token, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{tokens: tokens, ctx: ctx}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:  p.parseIdentifier,
		token.NUMBER: p.parseNumberLiteral,
		token.LPAREN: p.parseGroupedExpression,
		token.MINUS:  p.parseSignedNumber,
		token.PLUS:   p.parseSignedNumber,
	}
	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for tt := range precedences {
		p.infixParseFns[tt] = p.parseInfixExpression
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()
	return p
}

// Parse lexes and parses source. The returned error is a
// *diagnostics.DiagnosticError.
func Parse(source string) ([]*ast.Node, error) {
	ctx := pipeline.NewPipelineContext(source)
	ctx = pipeline.New(&lexer.LexerProcessor{}, &ParserProcessor{}).Run(ctx)
	if ctx.Failed() {
		return nil, ctx.Errors[0]
	}
	return ctx.AstRoot, nil
}

// AsDiagnostic extracts the diagnostic from an error returned by Parse.
func AsDiagnostic(err error) (*diagnostics.DiagnosticError, bool) {
	var d *diagnostics.DiagnosticError
	ok := errors.As(err, &d)
	return d, ok
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
		return
	}
	// Past the end: keep yielding the final token (EOF).
	if len(p.tokens) > 0 {
		p.peekToken = p.tokens[len(p.tokens)-1]
	} else {
		p.peekToken = token.Token{Type: token.EOF}
	}
}

// peekAhead returns the token after peekToken.
func (p *Parser) peekAhead() token.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return p.peekToken
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// fail records the first error. Later errors are consequences of the first
// one and are dropped.
func (p *Parser) fail(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	if p.failed {
		return
	}
	p.failed = true
	err := diagnostics.NewError(code, tok, format, args...)
	if p.ctx != nil {
		p.ctx.AddError(err)
	}
}

func (p *Parser) enter() bool {
	p.depth++
	if p.depth > config.MaxRecursionDepth {
		p.fail(diagnostics.ErrP008, p.curToken, "expression too complex: nesting depth limit exceeded")
		return false
	}
	return true
}

func (p *Parser) leave() { p.depth-- }

// describe renders a token for error messages.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT:
		return "identifier '" + tok.Lexeme + "'"
	case token.NUMBER:
		return "number " + tok.Lexeme
	}
	return "'" + tok.Lexeme + "'"
}

func tokenSpan(tok token.Token) ast.Span {
	return ast.Span{Start: tok.Offset, End: tok.End()}
}
