// Package geometry implements the deferred solid algebra.
//
// A Solid is an ordered list of items, each a kernel shape with an optional
// pending transform and an anti flag. Transform, Anti and Combine only edit
// these lists. The kernel is touched when a solid is collapsed by Unionize
// or Intersectionize.
package geometry

import (
	"fmt"

	"github.com/funvibe/solidscript/internal/kernel"
)

// Item is one contribution to a Solid. A nil Xform is the identity.
type Item struct {
	Xform *kernel.Matrix
	Shape kernel.Shape
	Anti  bool
}

// Matrix returns the item transform, substituting the identity.
func (it Item) Matrix() kernel.Matrix {
	if it.Xform == nil {
		return kernel.Identity()
	}
	return *it.Xform
}

// Solid is immutable; every operation returns a new value.
type Solid struct {
	items []Item
}

var empty = &Solid{}

// Empty returns the void solid.
func Empty() *Solid { return empty }

// FromShape wraps a kernel shape as a single real item.
func FromShape(s kernel.Shape) *Solid {
	return &Solid{items: []Item{{Shape: s}}}
}

func FromItems(items ...Item) *Solid {
	if len(items) == 0 {
		return empty
	}
	return &Solid{items: append([]Item(nil), items...)}
}

// Items returns a copy of the item list.
func (s *Solid) Items() []Item {
	return append([]Item(nil), s.items...)
}

func (s *Solid) Len() int { return len(s.items) }

func (s *Solid) IsEmpty() bool { return len(s.items) == 0 }

func (s *Solid) String() string {
	return fmt.Sprintf("Solid(%d items)", len(s.items))
}

// Combine concatenates the item lists of solids in order.
func Combine(solids ...*Solid) *Solid {
	n := 0
	for _, s := range solids {
		n += len(s.items)
	}
	if n == 0 {
		return empty
	}
	items := make([]Item, 0, n)
	for _, s := range solids {
		items = append(items, s.items...)
	}
	return &Solid{items: items}
}

// Transform applies m after every item's pending transform.
func (s *Solid) Transform(m kernel.Matrix) *Solid {
	if s.IsEmpty() {
		return s
	}
	items := make([]Item, len(s.items))
	for i, it := range s.items {
		composed := m.Mul(it.Matrix())
		it.Xform = &composed
		items[i] = it
	}
	return &Solid{items: items}
}

// Anti negates the anti flag of every item.
func (s *Solid) Anti() *Solid {
	if s.IsEmpty() {
		return s
	}
	items := make([]Item, len(s.items))
	for i, it := range s.items {
		it.Anti = !it.Anti
		items[i] = it
	}
	return &Solid{items: items}
}

// Shape returns the kernel shape of a collapsed solid: exactly one real
// item without a pending transform.
func (s *Solid) Shape() (kernel.Shape, bool) {
	if len(s.items) != 1 {
		return nil, false
	}
	it := s.items[0]
	if it.Anti || it.Xform != nil {
		return nil, false
	}
	return it.Shape, true
}

// realize returns a handle owned by the caller for the item with its
// transform applied.
func realize(k kernel.Kernel, it Item) (kernel.Shape, error) {
	if it.Xform == nil {
		return k.Clone(it.Shape)
	}
	return k.Transform(it.Shape, *it.Xform)
}

// Unionize collapses s into one shape. Real items are fused first and anti
// items subtracted afterwards, each in their original order. A solid with
// no real items collapses to the empty solid without calling the kernel.
func (s *Solid) Unionize(k kernel.Kernel) (*Solid, error) {
	var real, anti []Item
	for _, it := range s.items {
		if it.Anti {
			anti = append(anti, it)
		} else {
			real = append(real, it)
		}
	}
	if len(real) == 0 {
		return empty, nil
	}

	acc, err := realize(k, real[0])
	if err != nil {
		return nil, fmt.Errorf("union: %w", err)
	}
	fold := func(it Item, op kernel.BooleanOp) error {
		operand, err := realize(k, it)
		if err != nil {
			return err
		}
		res, err := k.Boolean(acc, operand, op)
		k.Free(operand)
		if err != nil {
			return err
		}
		k.Free(acc)
		acc = res.Shape
		return nil
	}

	for _, it := range real[1:] {
		if err := fold(it, kernel.Union); err != nil {
			k.Free(acc)
			return nil, fmt.Errorf("union: %w", err)
		}
	}
	for _, it := range anti {
		if err := fold(it, kernel.Difference); err != nil {
			k.Free(acc)
			return nil, fmt.Errorf("difference: %w", err)
		}
	}
	return FromShape(acc), nil
}

// Intersectionize unionizes every input and intersects the results in
// order. If any input collapses to nothing the intersection is empty.
func Intersectionize(k kernel.Kernel, solids ...*Solid) (*Solid, error) {
	if len(solids) == 0 {
		return empty, nil
	}

	var acc kernel.Shape
	release := func() {
		if acc != nil {
			k.Free(acc)
		}
	}
	for _, s := range solids {
		u, err := s.Unionize(k)
		if err != nil {
			release()
			return nil, err
		}
		shape, ok := u.Shape()
		if !ok {
			release()
			return empty, nil
		}
		if acc == nil {
			acc = shape
			continue
		}
		res, err := k.Boolean(acc, shape, kernel.Intersection)
		k.Free(shape)
		if err != nil {
			release()
			return nil, fmt.Errorf("intersection: %w", err)
		}
		k.Free(acc)
		acc = res.Shape
	}
	return FromShape(acc), nil
}

// Mesh collapses s and meshes the result. The empty solid yields an empty
// mesh.
func (s *Solid) Mesh(k kernel.Kernel) (*kernel.Mesh, error) {
	u, err := s.Unionize(k)
	if err != nil {
		return nil, err
	}
	shape, ok := u.Shape()
	if !ok {
		return &kernel.Mesh{}, nil
	}
	defer k.Free(shape)
	m, err := k.Mesh(shape)
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}
	return m, nil
}
