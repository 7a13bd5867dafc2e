package evaluator

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/funvibe/solidscript/internal/config"
	"github.com/funvibe/solidscript/internal/geometry"
	"github.com/funvibe/solidscript/internal/kernel"
)

var (
	builtinsMu sync.RWMutex
	builtins   = map[string]BuiltinFunc{}
)

// Register adds a builtin to the table installed by RegisterBuiltins.
// Registering a name twice panics.
func Register(name string, fn BuiltinFunc) {
	builtinsMu.Lock()
	defer builtinsMu.Unlock()
	if _, dup := builtins[name]; dup {
		panic(fmt.Sprintf("evaluator: builtin %q registered twice", name))
	}
	builtins[name] = fn
}

// BuiltinNames returns the registered names, sorted.
func BuiltinNames() []string {
	builtinsMu.RLock()
	defer builtinsMu.RUnlock()
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins binds every registered builtin in env.
func RegisterBuiltins(env *Environment) {
	builtinsMu.RLock()
	defer builtinsMu.RUnlock()
	for name, fn := range builtins {
		env.Set(name, fn)
	}
}

func init() {
	Register(config.CubeFuncName, &Builtin{Name: config.CubeFuncName, Heavy: true, Fn: builtinCube})
	Register(config.CylinderFuncName, &Builtin{Name: config.CylinderFuncName, Heavy: true, Fn: builtinCylinder})
	Register(config.UnionFuncName, &Builtin{Name: config.UnionFuncName, Heavy: true, Fn: builtinUnion})
	Register(config.IntersectionFuncName, &Builtin{Name: config.IntersectionFuncName, Heavy: true, Fn: builtinIntersection})
	Register(config.AntiFuncName, &Builtin{Name: config.AntiFuncName, Fn: builtinAnti})
	Register(config.TranslateFuncName, &Builtin{Name: config.TranslateFuncName, Fn: builtinTranslate})

	Register("+", numOp("+", func(a, b float64) float64 { return a + b }))
	Register("-", numOp("-", func(a, b float64) float64 { return a - b }))
	Register("*", numOp("*", func(a, b float64) float64 { return a * b }))
	Register("/", numOp("/", func(a, b float64) float64 { return a / b }))
	Register("%", numOp("%", math.Mod))
}

var xyz = []string{"x", "y", "z"}

func builtinCube(c *CallCtx) (Object, error) {
	if err := c.CheckParams(xyz); err != nil {
		return nil, err
	}
	var dims [3]float64
	for i, name := range xyz {
		v, err := c.Dimension(name, i, config.DefaultDimension, config.Epsilon)
		if err != nil {
			return nil, err
		}
		dims[i] = v
	}
	shape, err := c.Kernel.NewBox(dims[0], dims[1], dims[2])
	if err != nil {
		return nil, err
	}
	return newSolid(geometry.FromShape(shape)), nil
}

func builtinCylinder(c *CallCtx) (Object, error) {
	if err := c.CheckParams([]string{"r", "h", "$fn"}, "d"); err != nil {
		return nil, err
	}
	radiusGiven := c.Has("r") || len(c.Positional) > 0
	if radiusGiven && c.Has("d") {
		return nil, argError(InvalidArgument, "cannot specify both diameter and radius")
	}

	r, err := c.Dimension("r", 0, config.DefaultDimension, config.Epsilon)
	if err != nil {
		return nil, err
	}
	if d, given, err := c.Number("d", -1, 0); err != nil {
		return nil, err
	} else if given {
		r = math.Max(d/2, config.Epsilon)
	}
	h, err := c.Dimension("h", 1, config.DefaultDimension, config.Epsilon)
	if err != nil {
		return nil, err
	}
	fn, _, err := c.Number("$fn", 2, config.DefaultFacets)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(fn) || math.IsInf(fn, 0) || fn > config.MaxFacets {
		return nil, argError(InvalidArgument, "$fn must be a finite number of at most %d facets", config.MaxFacets)
	}
	facets := int(fn)
	if facets < config.MinFacets {
		facets = config.MinFacets
	}

	shape, err := c.Kernel.NewCylinder(r, h, facets)
	if err != nil {
		return nil, err
	}
	return newSolid(geometry.FromShape(shape)), nil
}

func builtinUnion(c *CallCtx) (Object, error) {
	if err := c.CheckParams(nil); err != nil {
		return nil, err
	}
	s, err := c.Combined()
	if err != nil {
		return nil, err
	}
	u, err := s.Unionize(c.Kernel)
	if err != nil {
		return nil, err
	}
	return newSolid(u), nil
}

func builtinIntersection(c *CallCtx) (Object, error) {
	if err := c.CheckParams(nil); err != nil {
		return nil, err
	}
	solids, err := c.Solids()
	if err != nil {
		return nil, err
	}
	s, err := geometry.Intersectionize(c.Kernel, solids...)
	if err != nil {
		return nil, err
	}
	return newSolid(s), nil
}

func builtinAnti(c *CallCtx) (Object, error) {
	if err := c.CheckParams(nil); err != nil {
		return nil, err
	}
	s, err := c.Combined()
	if err != nil {
		return nil, err
	}
	return newSolid(s.Anti()), nil
}

func builtinTranslate(c *CallCtx) (Object, error) {
	if err := c.CheckParams(xyz); err != nil {
		return nil, err
	}
	var v [3]float64
	for i, name := range xyz {
		n, _, err := c.Number(name, i, 0)
		if err != nil {
			return nil, err
		}
		v[i] = n
	}
	s, err := c.Combined()
	if err != nil {
		return nil, err
	}
	return newSolid(s.Transform(kernel.Translation(v[0], v[1], v[2]))), nil
}

// numOp builds a strictly binary arithmetic builtin.
func numOp(symbol string, op func(a, b float64) float64) *Builtin {
	return &Builtin{
		Name: symbol,
		Fn: func(c *CallCtx) (Object, error) {
			if len(c.Positional) != 2 || len(c.Named) != 0 {
				return nil, argError(InvalidArgument, "operator %s takes exactly two operands", symbol)
			}
			a, ok := c.Positional[0].(*Number)
			if !ok {
				return nil, argError(NotANumber, "left operand of %s is a %s, not a number", symbol, typeName(c.Positional[0]))
			}
			b, ok := c.Positional[1].(*Number)
			if !ok {
				return nil, argError(NotANumber, "right operand of %s is a %s, not a number", symbol, typeName(c.Positional[1]))
			}
			return &Number{Value: op(a.Value, b.Value)}, nil
		},
	}
}
