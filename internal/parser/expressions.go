package parser

import (
	"github.com/funvibe/solidscript/internal/ast"
	"github.com/funvibe/solidscript/internal/diagnostics"
	"github.com/funvibe/solidscript/internal/token"
)

func (p *Parser) parseExpression(precedence int) *ast.Node {
	if !p.enter() {
		return nil
	}
	defer p.leave()

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		leftExp = infix(leftExp)
		if leftExp == nil {
			return nil
		}
	}
	return leftExp
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	switch tok.Type {
	case token.EOF:
		p.fail(diagnostics.ErrP001, tok, "expected expression, got end of input")
	case token.ILLEGAL:
		p.fail(diagnostics.ErrP007, tok, "%v", tok.Literal)
	default:
		p.fail(diagnostics.ErrP001, tok, "expected expression, got %s", describe(tok))
	}
}

// parseInfixExpression desugars a binary operator into a call of the
// function named by the operator symbol.
func (p *Parser) parseInfixExpression(left *ast.Node) *ast.Node {
	op := p.curToken
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return ast.NewNode(left.Span.Cover(right.Span), &ast.Call{
		Name: op.Lexeme,
		Args: []ast.Arg{{Value: left}, {Value: right}},
	})
}

func (p *Parser) parseNumberLiteral() *ast.Node {
	value, ok := p.curToken.Literal.(float64)
	if !ok {
		p.fail(diagnostics.ErrP007, p.curToken, "malformed number %q", p.curToken.Lexeme)
		return nil
	}
	return ast.NewNode(tokenSpan(p.curToken), &ast.Num{Value: value})
}

// parseSignedNumber accepts a sign written directly before a numeric
// literal. There is no general unary minus.
func (p *Parser) parseSignedNumber() *ast.Node {
	sign := p.curToken
	if !p.peekTokenIs(token.NUMBER) || p.peekToken.Offset != sign.End() {
		p.fail(diagnostics.ErrP001, sign, "unexpected %s: a sign must be attached to a number", describe(sign))
		return nil
	}
	p.nextToken()
	num := p.parseNumberLiteral()
	if num == nil {
		return nil
	}
	if sign.Type == token.MINUS {
		num.Expr = &ast.Num{Value: -num.Expr.(*ast.Num).Value}
	}
	num.Span.Start = sign.Offset
	return num
}

func (p *Parser) parseGroupedExpression() *ast.Node {
	open := p.curToken
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}
	if !p.peekTokenIs(token.RPAREN) {
		if p.peekTokenIs(token.EOF) {
			p.fail(diagnostics.ErrP005, open, "unterminated parenthesis")
		} else {
			p.fail(diagnostics.ErrP001, p.peekToken, "expected ')', got %s", describe(p.peekToken))
		}
		return nil
	}
	p.nextToken()
	return exp
}

// parseIdentifier parses a variable reference or, when the name is followed
// by '(', a call.
func (p *Parser) parseIdentifier() *ast.Node {
	if p.peekTokenIs(token.LPAREN) {
		return p.parseCallExpression()
	}
	return ast.NewNode(tokenSpan(p.curToken), &ast.Var{Name: p.curToken.Lexeme})
}

// parseCallExpression parses name(args) followed by optional children: a
// single nested call or a block.
func (p *Parser) parseCallExpression() *ast.Node {
	nameTok := p.curToken
	p.nextToken() // (
	args, ok := p.parseCallArguments()
	if !ok {
		return nil
	}
	call := &ast.Call{Name: nameTok.Lexeme, Args: args}
	end := p.curToken.End()

	switch {
	case p.peekTokenIs(token.LBRACE):
		p.nextToken()
		body, ok := p.parseBlock()
		if !ok {
			return nil
		}
		call.Body = body
		end = p.curToken.End()
	case p.peekTokenIs(token.IDENT) && p.peekAhead().Type == token.LPAREN:
		p.nextToken()
		if !p.enter() {
			return nil
		}
		child := p.parseCallExpression()
		p.leave()
		if child == nil {
			return nil
		}
		call.Body = []*ast.Node{child}
		end = child.Span.End
	}

	return ast.NewNode(ast.Span{Start: nameTok.Offset, End: end}, call)
}

// parseCallArguments is entered on '(' and returns on ')'.
func (p *Parser) parseCallArguments() ([]ast.Arg, bool) {
	open := p.curToken
	var args []ast.Arg
	seen := make(map[string]bool)
	named := false

	p.nextToken()
	for !p.curTokenIs(token.RPAREN) {
		if p.curTokenIs(token.EOF) {
			p.fail(diagnostics.ErrP005, open, "unterminated argument list")
			return nil, false
		}

		if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
			nameTok := p.curToken
			if seen[nameTok.Lexeme] {
				p.fail(diagnostics.ErrP004, nameTok, "duplicate named argument: %s", nameTok.Lexeme)
				return nil, false
			}
			seen[nameTok.Lexeme] = true
			named = true
			p.nextToken() // =
			p.nextToken()
			value := p.parseExpression(LOWEST)
			if value == nil {
				return nil, false
			}
			args = append(args, ast.Arg{Name: nameTok.Lexeme, Value: value})
		} else {
			if named {
				p.fail(diagnostics.ErrP003, p.curToken, "positional arguments must come before named arguments")
				return nil, false
			}
			value := p.parseExpression(LOWEST)
			if value == nil {
				return nil, false
			}
			args = append(args, ast.Arg{Value: value})
		}

		p.nextToken()
		switch p.curToken.Type {
		case token.COMMA:
			p.nextToken()
		case token.RPAREN:
		case token.EOF:
			p.fail(diagnostics.ErrP005, open, "unterminated argument list")
			return nil, false
		default:
			p.fail(diagnostics.ErrP001, p.curToken, "expected ',' or ')', got %s", describe(p.curToken))
			return nil, false
		}
	}
	return args, true
}
