package parser

import (
	"github.com/funvibe/solidscript/internal/ast"
	"github.com/funvibe/solidscript/internal/diagnostics"
	"github.com/funvibe/solidscript/internal/token"
)

// ParseProgram parses the whole token stream as a body. It returns nil if
// an error was recorded.
func (p *Parser) ParseProgram() []*ast.Node {
	body, ok := p.parseBody(token.EOF, p.curToken)
	if !ok || p.failed {
		return nil
	}
	return body
}

// parseBlock is entered on '{' and returns on the matching '}'.
func (p *Parser) parseBlock() ([]*ast.Node, bool) {
	open := p.curToken
	p.nextToken()
	return p.parseBody(token.RBRACE, open)
}

// parseBody parses statements until end, leaving curToken on end.
//
// A statement is a let binding or an expression, each terminated by one or
// more ';'. A call whose children end in a block needs no ';'. A bare
// expression directly before end becomes the body's Return.
func (p *Parser) parseBody(end token.TokenType, open token.Token) ([]*ast.Node, bool) {
	if !p.enter() {
		return nil, false
	}
	defer p.leave()

	var stmts []*ast.Node
	for !p.curTokenIs(end) {
		switch {
		case p.curTokenIs(token.EOF):
			p.fail(diagnostics.ErrP005, open, "unterminated block: expected '}'")
			return nil, false
		case end == token.EOF && p.curTokenIs(token.RBRACE):
			p.fail(diagnostics.ErrP006, p.curToken, "unexpected '}' after end of script")
			return nil, false
		}

		if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
			let := p.parseLet()
			if let == nil {
				return nil, false
			}
			if !p.expectSemicolons("let binding") {
				return nil, false
			}
			stmts = append(stmts, let)
			p.nextToken()
			continue
		}

		exp := p.parseExpression(LOWEST)
		if exp == nil {
			return nil, false
		}
		switch {
		case p.peekTokenIs(token.SEMICOLON):
			p.expectSemicolons("expression")
			stmts = append(stmts, exp)
		case p.curTokenIs(token.RBRACE):
			stmts = append(stmts, exp)
		case p.peekTokenIs(end):
			stmts = append(stmts, ast.NewNode(exp.Span, &ast.Return{Value: exp}))
		default:
			p.fail(diagnostics.ErrP002, p.peekToken, "expected ';' after expression, got %s", describe(p.peekToken))
			return nil, false
		}
		p.nextToken()
	}
	return restructure(stmts), true
}

// parseLet is entered on the bound name and returns on the last token of
// the value.
func (p *Parser) parseLet() *ast.Node {
	nameTok := p.curToken
	p.nextToken() // =
	p.nextToken()
	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil
	}
	return ast.NewNode(ast.Span{Start: nameTok.Offset, End: value.Span.End}, &ast.Let{
		Name:  nameTok.Lexeme,
		Value: value,
	})
}

// expectSemicolons advances over one or more ';', leaving curToken on the
// last of them.
func (p *Parser) expectSemicolons(what string) bool {
	if !p.peekTokenIs(token.SEMICOLON) {
		p.fail(diagnostics.ErrP002, p.peekToken, "expected ';' after %s, got %s", what, describe(p.peekToken))
		return false
	}
	for p.peekTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
	return true
}

// restructure nests every statement that follows a let into the let's body,
// so a = 1; b = 2; b becomes Let(a, [Let(b, [Return(b)])]).
func restructure(stmts []*ast.Node) []*ast.Node {
	if len(stmts) == 0 {
		return nil
	}
	for i, n := range stmts {
		if let, ok := n.Expr.(*ast.Let); ok {
			let.Body = restructure(stmts[i+1:])
			return append(stmts[:i:i], n)
		}
	}
	return stmts
}
