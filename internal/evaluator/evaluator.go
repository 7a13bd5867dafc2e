package evaluator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/funvibe/solidscript/internal/ast"
	"github.com/funvibe/solidscript/internal/config"
	"github.com/funvibe/solidscript/internal/geometry"
)

type Evaluator struct {
	// Context for cancellation
	Context context.Context
	Exec    *ExecContext
	Logger  *slog.Logger
	// RunID tags the log records of one evaluation.
	RunID string
}

func New(exec *ExecContext) *Evaluator {
	runID := uuid.NewString()
	return &Evaluator{
		Context: context.Background(),
		Exec:    exec,
		Logger:  exec.Logger.With("run", runID),
		RunID:   runID,
	}
}

// Run evaluates a script. The top level is the body of an implicit union()
// call, so its solids are collected exactly like any other body.
func (e *Evaluator) Run(nodes []*ast.Node) (*geometry.Solid, error) {
	root := NewEnvironment()
	RegisterBuiltins(root)

	var span ast.Span
	if len(nodes) > 0 {
		span = nodes[0].Span.Cover(nodes[len(nodes)-1].Span)
	}
	top := ast.NewNode(span, &ast.Call{Name: config.UnionFuncName, Body: nodes})

	e.Logger.Debug("evaluation started", "statements", len(nodes))
	result, err := e.Eval(top, root)
	if err != nil {
		e.Logger.Debug("evaluation failed", "error", err)
		return nil, err
	}
	s, ok := result.(*SolidValue)
	if !ok {
		return nil, newError(TypeMismatch, span, "script evaluated to a %s, not a solid", typeName(result))
	}
	e.Logger.Debug("evaluation finished", "items", s.Solid.Len())
	return s.Solid, nil
}

// Eval evaluates a single expression node.
func (e *Evaluator) Eval(node *ast.Node, env *Environment) (Object, error) {
	if node == nil {
		return UNDEFINED, nil
	}
	switch expr := node.Expr.(type) {
	case *ast.Num:
		return &Number{Value: expr.Value}, nil
	case *ast.Var:
		v, ok := env.Get(expr.Name)
		if !ok {
			return nil, newError(UndefinedVariable, node.Span, "variable %s does not exist", expr.Name)
		}
		return v, nil
	case *ast.Let:
		return e.EvalBody([]*ast.Node{node}, env)
	case *ast.Return:
		return e.Eval(expr.Value, env)
	case *ast.Call:
		return e.evalCall(node, expr, env)
	}
	return nil, newError(TypeMismatch, node.Span, "cannot evaluate %T", node.Expr)
}

// EvalBody evaluates a body and returns its Return value, or the
// combination of every solid its statements produced.
func (e *Evaluator) EvalBody(nodes []*ast.Node, env *Environment) (Object, error) {
	var acc body
	v, returned, err := e.evalBody(nodes, env, &acc)
	if err != nil {
		return nil, err
	}
	if returned {
		return v, nil
	}
	return newSolid(geometry.Combine(acc.solids...)), nil
}

// body accumulates the solids of a body. A let continues the body it
// appears in, so its statements add to the same accumulator.
type body struct {
	solids []*geometry.Solid
}

func (e *Evaluator) evalBody(nodes []*ast.Node, env *Environment, acc *body) (Object, bool, error) {
	for _, n := range nodes {
		if err := e.Context.Err(); err != nil {
			return nil, false, err
		}
		if _, isLet := n.Expr.(*ast.Let); !isLet && IsNodeHeavy(env, n) {
			e.Exec.countHeavyStatement()
		}

		switch expr := n.Expr.(type) {
		case *ast.Let:
			val, err := e.Eval(expr.Value, env)
			if err != nil {
				return nil, false, err
			}
			if IsNodeHeavy(env, expr.Value) {
				e.Logger.Debug("heavy binding", "name", expr.Name, "span", n.Span.String())
			}
			scope := NewEnclosedEnvironment(env)
			scope.Set(expr.Name, val)
			v, returned, err := e.evalBody(expr.Body, scope, acc)
			if err != nil || returned {
				return v, returned, err
			}

		case *ast.Return:
			if len(acc.solids) > 0 {
				return nil, false, newError(MixedBodyResult, n.Span, "a body may either produce geometry or return a value, but not both")
			}
			v, err := e.Eval(expr.Value, env)
			return v, err == nil, err

		default:
			v, err := e.Eval(n, env)
			if err != nil {
				return nil, false, err
			}
			if s, ok := v.(*SolidValue); ok {
				acc.solids = append(acc.solids, s.Solid)
			}
		}
	}
	return nil, false, nil
}

func (e *Evaluator) evalCall(node *ast.Node, call *ast.Call, env *Environment) (Object, error) {
	obj, ok := env.Get(call.Name)
	if !ok {
		return nil, newError(UndefinedFunction, node.Span, "function %s does not exist", call.Name)
	}
	fn, ok := obj.(BuiltinFunc)
	if !ok {
		return nil, newError(NotCallable, node.Span, "%s is a %s, not a function", call.Name, typeName(obj))
	}

	c := &CallCtx{
		Name:  call.Name,
		Named: make(map[string]Object),
		Heavy: fn.IsHeavy(),
	}
	for _, arg := range call.Positional() {
		v, err := e.Eval(arg, env)
		if err != nil {
			return nil, err
		}
		c.Positional = append(c.Positional, v)
	}
	for _, arg := range call.Named() {
		v, err := e.Eval(arg.Value, env)
		if err != nil {
			return nil, err
		}
		c.Named[arg.Name] = v
	}
	children, err := e.evalChildren(call.Body, env)
	if err != nil {
		return nil, err
	}
	c.Children = children

	if c.Heavy {
		e.Logger.Debug("heavy call", "builtin", call.Name, "span", node.Span.String())
	}
	result, err := e.Exec.Invoke(e.Context, node, fn, c)
	if err != nil {
		return nil, e.locate(err, node)
	}
	return result, nil
}

// evalChildren evaluates a call's body in the calling scope. Every solid
// statement is one child; a body that returns has its value as the only
// child.
func (e *Evaluator) evalChildren(nodes []*ast.Node, env *Environment) ([]Object, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	var acc body
	v, returned, err := e.evalBody(nodes, env, &acc)
	if err != nil {
		return nil, err
	}
	if returned {
		return []Object{v}, nil
	}
	children := make([]Object, len(acc.solids))
	for i, s := range acc.solids {
		children[i] = newSolid(s)
	}
	return children, nil
}

// locate attaches the call span to a builtin failure. Anything that is not
// an evaluation error or a cancellation came from the kernel.
func (e *Evaluator) locate(err error, node *ast.Node) error {
	var evalErr *Error
	if errors.As(err, &evalErr) {
		return evalErr.at(node.Span)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{Kind: KernelError, Message: err.Error(), Span: node.Span, Err: err, located: true}
}
