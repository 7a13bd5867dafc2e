// Package ast defines the syntax tree produced by the parser.
//
// The tree is made of *Node values, each carrying the half-open byte range
// of source text it was parsed from and one Expr variant. Nodes are never
// mutated after parsing and may be shared between parents.
package ast

import "fmt"

// Span is a half-open byte range [Start, End) into the source.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string { return fmt.Sprintf("%d..%d", s.Start, s.End) }

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Cover returns the smallest span containing both s and o.
func (s Span) Cover(o Span) Span {
	out := s
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

// Node is a positioned expression.
type Node struct {
	Span Span
	Expr Expr
}

func (n *Node) Accept(v Visitor) {
	switch e := n.Expr.(type) {
	case *Let:
		v.VisitLet(n, e)
	case *Call:
		v.VisitCall(n, e)
	case *Var:
		v.VisitVar(n, e)
	case *Num:
		v.VisitNum(n, e)
	case *Return:
		v.VisitReturn(n, e)
	default:
		panic(fmt.Sprintf("unhandled expression %T", e))
	}
}

// Expr is one of *Let, *Call, *Var, *Num, *Return.
type Expr interface {
	exprNode()
}

// Let binds Name to Value for the statements in Body.
// Body is filled by the parser's restructuring pass; while a body is being
// parsed every Let is a flat statement with an empty Body.
type Let struct {
	Name  string
	Value *Node
	Body  []*Node
}

// Arg is a call argument. Name is empty for positional arguments.
type Arg struct {
	Name  string
	Value *Node
}

// IsNamed reports whether the argument was written as name = value.
func (a Arg) IsNamed() bool { return a.Name != "" }

// Call invokes the function bound to Name. Binary operators are calls too,
// named by their symbol. Body holds the child expressions.
type Call struct {
	Name string
	Args []Arg
	Body []*Node
}

// Positional returns the positional arguments in source order.
func (c *Call) Positional() []*Node {
	var out []*Node
	for _, a := range c.Args {
		if !a.IsNamed() {
			out = append(out, a.Value)
		}
	}
	return out
}

// Named returns the named arguments in source order.
func (c *Call) Named() []Arg {
	var out []Arg
	for _, a := range c.Args {
		if a.IsNamed() {
			out = append(out, a)
		}
	}
	return out
}

type Var struct {
	Name string
}

type Num struct {
	Value float64
}

// Return marks the value of the last bare expression of a body.
type Return struct {
	Value *Node
}

func (*Let) exprNode()    {}
func (*Call) exprNode()   {}
func (*Var) exprNode()    {}
func (*Num) exprNode()    {}
func (*Return) exprNode() {}

// Visitor is implemented by tree walkers that dispatch through Node.Accept.
type Visitor interface {
	VisitLet(n *Node, e *Let)
	VisitCall(n *Node, e *Call)
	VisitVar(n *Node, e *Var)
	VisitNum(n *Node, e *Num)
	VisitReturn(n *Node, e *Return)
}

// NewNode is a convenience constructor used by the parser and by tests.
func NewNode(span Span, expr Expr) *Node {
	return &Node{Span: span, Expr: expr}
}
