package evaluator

import "github.com/funvibe/solidscript/internal/ast"

// IsNodeHeavy reports whether evaluating node calls a heavy builtin at its
// top level, looking through let values, let bodies and returns. Arguments
// and call bodies are not inspected.
func IsNodeHeavy(env *Environment, node *ast.Node) bool {
	if node == nil {
		return false
	}
	switch expr := node.Expr.(type) {
	case *ast.Let:
		return IsNodeHeavy(env, expr.Value) || IsBodyHeavy(env, expr.Body)
	case *ast.Return:
		return IsNodeHeavy(env, expr.Value)
	case *ast.Call:
		obj, ok := env.Get(expr.Name)
		if !ok {
			return false
		}
		fn, ok := obj.(BuiltinFunc)
		return ok && fn.IsHeavy()
	}
	return false
}

func IsBodyHeavy(env *Environment, nodes []*ast.Node) bool {
	for _, n := range nodes {
		if IsNodeHeavy(env, n) {
			return true
		}
	}
	return false
}
