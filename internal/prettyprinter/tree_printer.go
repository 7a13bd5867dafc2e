package prettyprinter

import (
	"bytes"

	"github.com/funvibe/solidscript/internal/ast"
)

// TreePrinter renders an AST as a compact S-expression:
//
//	a = 1; translate(x=a) cube(2);
//
// prints as
//
//	(let a 1 (translate x=a {(cube 2)}))
type TreePrinter struct {
	buf bytes.Buffer
}

// Tree renders a body, one top-level node after another.
func Tree(nodes []*ast.Node) string {
	p := &TreePrinter{}
	p.printList(nodes)
	return p.buf.String()
}

func (p *TreePrinter) printList(nodes []*ast.Node) {
	for i, n := range nodes {
		if i > 0 {
			p.buf.WriteByte(' ')
		}
		n.Accept(p)
	}
}

func (p *TreePrinter) VisitLet(n *ast.Node, e *ast.Let) {
	p.buf.WriteString("(let " + e.Name + " ")
	e.Value.Accept(p)
	if len(e.Body) > 0 {
		p.buf.WriteByte(' ')
		p.printList(e.Body)
	}
	p.buf.WriteByte(')')
}

func (p *TreePrinter) VisitCall(n *ast.Node, e *ast.Call) {
	p.buf.WriteString("(" + e.Name)
	for _, a := range e.Args {
		p.buf.WriteByte(' ')
		if a.IsNamed() {
			p.buf.WriteString(a.Name + "=")
		}
		a.Value.Accept(p)
	}
	if len(e.Body) > 0 {
		p.buf.WriteString(" {")
		p.printList(e.Body)
		p.buf.WriteByte('}')
	}
	p.buf.WriteByte(')')
}

func (p *TreePrinter) VisitVar(n *ast.Node, e *ast.Var) {
	p.buf.WriteString(e.Name)
}

func (p *TreePrinter) VisitNum(n *ast.Node, e *ast.Num) {
	p.buf.WriteString(formatNumber(e.Value))
}

func (p *TreePrinter) VisitReturn(n *ast.Node, e *ast.Return) {
	p.buf.WriteString("(return ")
	e.Value.Accept(p)
	p.buf.WriteByte(')')
}
