package evaluator

import (
	"math"
	"sort"

	"github.com/funvibe/solidscript/internal/geometry"
	"github.com/funvibe/solidscript/internal/kernel"
)

// CallCtx holds the evaluated arguments of one builtin call.
type CallCtx struct {
	Name       string
	Positional []Object
	Named      map[string]Object
	Children   []Object
	// Heavy is set by the evaluator from the builtin before the call.
	Heavy  bool
	Kernel kernel.Kernel
}

// Has reports whether the named argument was written explicitly.
func (c *CallCtx) Has(name string) bool {
	_, ok := c.Named[name]
	return ok
}

// Number resolves a numeric parameter in two steps: the named argument if
// it was given, otherwise positional slot pos, otherwise def. A negative
// pos marks a named-only parameter. given reports whether a value was
// supplied by the caller.
func (c *CallCtx) Number(name string, pos int, def float64) (v float64, given bool, err error) {
	if obj, ok := c.Named[name]; ok {
		v, err = c.number(name, obj)
		return v, true, err
	}
	if pos >= 0 && pos < len(c.Positional) {
		v, err = c.number(name, c.Positional[pos])
		return v, true, err
	}
	return def, false, nil
}

func (c *CallCtx) number(param string, obj Object) (float64, error) {
	n, ok := obj.(*Number)
	if !ok {
		return 0, argError(TypeMismatch, "argument %s of %s must be a number, got %s", param, c.Name, typeName(obj))
	}
	return n.Value, nil
}

// CheckParams rejects surplus positional arguments and unknown names.
// positional lists the parameters in positional order; namedOnly lists
// parameters that can only be passed by name.
func (c *CallCtx) CheckParams(positional []string, namedOnly ...string) error {
	if len(c.Positional) > len(positional) {
		return argError(InvalidArgument, "%s takes at most %d positional arguments, got %d", c.Name, len(positional), len(c.Positional))
	}
	known := make(map[string]bool, len(positional)+len(namedOnly))
	for _, p := range positional {
		known[p] = true
	}
	for _, p := range namedOnly {
		known[p] = true
	}
	var unknown []string
	for name := range c.Named {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return argError(InvalidArgument, "%s has no parameter named %s", c.Name, unknown[0])
	}
	return nil
}

// Solids returns the children as solids.
func (c *CallCtx) Solids() ([]*geometry.Solid, error) {
	out := make([]*geometry.Solid, 0, len(c.Children))
	for _, child := range c.Children {
		s, ok := child.(*SolidValue)
		if !ok {
			return nil, argError(TypeMismatch, "combinators may only have solid values as children, %s got a %s", c.Name, typeName(child))
		}
		out = append(out, s.Solid)
	}
	return out, nil
}

// Combined concatenates the solid children.
func (c *CallCtx) Combined() (*geometry.Solid, error) {
	solids, err := c.Solids()
	if err != nil {
		return nil, err
	}
	return geometry.Combine(solids...), nil
}

// Dimension resolves a size parameter and clamps it to at least epsilon.
func (c *CallCtx) Dimension(name string, pos int, def, epsilon float64) (float64, error) {
	v, _, err := c.Number(name, pos, def)
	if err != nil {
		return 0, err
	}
	return math.Max(v, epsilon), nil
}
