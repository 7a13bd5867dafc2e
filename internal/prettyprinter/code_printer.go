package prettyprinter

import (
	"bytes"
	"strconv"

	"github.com/funvibe/solidscript/internal/ast"
)

// --- Code Printer (Output looks like source code) ---

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[string]int{
	"+": 1,
	"-": 1,
	"*": 2,
	"/": 2,
	"%": 2,
}

// isOperatorCall reports whether c is a desugared binary operator.
func isOperatorCall(c *ast.Call) bool {
	_, ok := operatorPrecedence[c.Name]
	return ok && len(c.Args) == 2 && len(c.Body) == 0 && !c.Args[0].IsNamed() && !c.Args[1].IsNamed()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type CodePrinter struct {
	buf    bytes.Buffer
	indent int
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// Format prints a parsed body back as source text.
func Format(nodes []*ast.Node) string {
	p := NewCodePrinter()
	p.PrintBody(nodes)
	return p.String()
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

// PrintBody prints one statement per line. Let bodies are flattened back
// into the enclosing statement list.
func (p *CodePrinter) PrintBody(nodes []*ast.Node) {
	for _, n := range nodes {
		switch e := n.Expr.(type) {
		case *ast.Let:
			p.writeIndent()
			p.write(e.Name + " = ")
			p.printExpr(e.Value, 0, false)
			p.write(";\n")
			p.PrintBody(e.Body)
		case *ast.Return:
			p.writeIndent()
			p.printExpr(e.Value, 0, false)
			p.write("\n")
		default:
			p.writeIndent()
			p.printExpr(n, 0, false)
			if !endsInBlock(n) {
				p.write(";")
			}
			p.write("\n")
		}
	}
}

func endsInBlock(n *ast.Node) bool {
	c, ok := n.Expr.(*ast.Call)
	if !ok || len(c.Body) == 0 {
		return false
	}
	if child, ok := singleCallChild(c); ok {
		return endsInBlock(child)
	}
	return true
}

// singleCallChild returns the child of c when it can be written with the
// f() g() shorthand.
func singleCallChild(c *ast.Call) (*ast.Node, bool) {
	if len(c.Body) != 1 {
		return nil, false
	}
	child, ok := c.Body[0].Expr.(*ast.Call)
	if !ok || isOperatorCall(child) {
		return nil, false
	}
	return c.Body[0], true
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(n *ast.Node, parentPrec int, isRight bool) {
	if n == nil {
		p.write("<???>")
		return
	}
	c, ok := n.Expr.(*ast.Call)
	if !ok || !isOperatorCall(c) {
		n.Accept(p)
		return
	}

	prec := operatorPrecedence[c.Name]
	// All operators are left-associative.
	needParens := prec < parentPrec || (prec == parentPrec && isRight)
	if needParens {
		p.write("(")
	}
	p.printExpr(c.Args[0].Value, prec, false)
	p.write(" " + c.Name + " ")
	p.printExpr(c.Args[1].Value, prec, true)
	if needParens {
		p.write(")")
	}
}

func (p *CodePrinter) VisitLet(n *ast.Node, e *ast.Let) {
	// A let in expression position only happens in hand-built trees.
	p.write("{\n")
	p.indent++
	p.PrintBody([]*ast.Node{n})
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) VisitCall(n *ast.Node, e *ast.Call) {
	p.write(e.Name + "(")
	for i, a := range e.Args {
		if i > 0 {
			p.write(", ")
		}
		if a.IsNamed() {
			p.write(a.Name + "=")
		}
		p.printExpr(a.Value, 0, false)
	}
	p.write(")")

	if len(e.Body) == 0 {
		return
	}
	if child, ok := singleCallChild(e); ok {
		p.write(" ")
		p.printExpr(child, 0, false)
		return
	}
	p.write(" {\n")
	p.indent++
	p.PrintBody(e.Body)
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) VisitVar(n *ast.Node, e *ast.Var) {
	p.write(e.Name)
}

func (p *CodePrinter) VisitNum(n *ast.Node, e *ast.Num) {
	p.write(formatNumber(e.Value))
}

func (p *CodePrinter) VisitReturn(n *ast.Node, e *ast.Return) {
	p.printExpr(e.Value, 0, false)
}
