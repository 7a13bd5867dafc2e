package evaluator

import (
	"fmt"
	"strconv"

	"github.com/funvibe/solidscript/internal/geometry"
)

type ObjectType string

const (
	UNDEFINED_OBJ = "UNDEFINED"
	NUMBER_OBJ    = "NUMBER"
	BUILTIN_OBJ   = "BUILTIN"
	SOLID_OBJ     = "SOLID"
)

// Object is a runtime value. Objects are immutable once created.
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Undefined is the value of nothing, e.g. an absent node.
type Undefined struct{}

func (u *Undefined) Type() ObjectType { return UNDEFINED_OBJ }
func (u *Undefined) Inspect() string  { return "undefined" }

var UNDEFINED = &Undefined{}

type Number struct {
	Value float64
}

func (n *Number) Type() ObjectType { return NUMBER_OBJ }
func (n *Number) Inspect() string  { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// SolidValue wraps a deferred solid.
type SolidValue struct {
	Solid *geometry.Solid
}

func (s *SolidValue) Type() ObjectType { return SOLID_OBJ }
func (s *SolidValue) Inspect() string  { return s.Solid.String() }

// BuiltinFunc is a callable value. Heavy builtins reach the kernel and are
// scheduled through the execution context.
type BuiltinFunc interface {
	Object
	IsHeavy() bool
	Call(c *CallCtx) (Object, error)
}

type BuiltinFunction func(c *CallCtx) (Object, error)

// Builtin is the BuiltinFunc used for every registered function.
type Builtin struct {
	Name  string
	Heavy bool
	Fn    BuiltinFunction
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return fmt.Sprintf("builtin %s", b.Name) }
func (b *Builtin) IsHeavy() bool    { return b.Heavy }

func (b *Builtin) Call(c *CallCtx) (Object, error) {
	return b.Fn(c)
}

func newSolid(s *geometry.Solid) *SolidValue {
	return &SolidValue{Solid: s}
}

// typeName is the user-facing name of an object's type.
func typeName(o Object) string {
	switch o.Type() {
	case NUMBER_OBJ:
		return "number"
	case SOLID_OBJ:
		return "solid"
	case BUILTIN_OBJ:
		return "function"
	}
	return "undefined"
}
