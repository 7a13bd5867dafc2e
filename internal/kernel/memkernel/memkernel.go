// Package memkernel is a pure-Go reference kernel.
//
// Transforms and boolean operations are recorded as an immutable CSG tree.
// Point membership is answered exactly from the tree. Boundaries are convex
// polygons; booleans are computed on demand by clipping the operand
// polygons against each other's BSP trees and are cached per node.
package memkernel

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/funvibe/solidscript/internal/kernel"
)

// Shape is the handle type of this kernel.
type Shape struct {
	ID   uuid.UUID
	node node
}

func (s *Shape) String() string {
	return fmt.Sprintf("%s(%s)", s.node.kind(), s.ID)
}

type Kernel struct{}

func New() *Kernel { return &Kernel{} }

var errForeignShape = errors.New("memkernel: shape was not created by this kernel")

func unwrap(s kernel.Shape) (*Shape, error) {
	sh, ok := s.(*Shape)
	if !ok || sh == nil {
		return nil, errForeignShape
	}
	return sh, nil
}

func wrap(n node) *Shape {
	return &Shape{ID: uuid.New(), node: n}
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func (k *Kernel) NewBox(x, y, z float64) (kernel.Shape, error) {
	if !finitePositive(x) || !finitePositive(y) || !finitePositive(z) {
		return nil, fmt.Errorf("box dimensions must be positive, got %g×%g×%g", x, y, z)
	}
	return wrap(&box{size: [3]float64{x, y, z}}), nil
}

func (k *Kernel) NewCylinder(r, h float64, facets int) (kernel.Shape, error) {
	if !finitePositive(r) || !finitePositive(h) {
		return nil, fmt.Errorf("cylinder radius and height must be positive, got r=%g h=%g", r, h)
	}
	if facets < 3 {
		return nil, fmt.Errorf("cylinder needs at least 3 facets, got %d", facets)
	}
	return wrap(newCylinder(r, h, facets)), nil
}

func (k *Kernel) Transform(s kernel.Shape, m kernel.Matrix) (kernel.Shape, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	inv, ok := m.Inverse()
	if !ok {
		return nil, errors.New("transform matrix is singular")
	}
	return wrap(&transformed{inner: sh.node, m: m, inv: inv}), nil
}

func (k *Kernel) Boolean(a, b kernel.Shape, op kernel.BooleanOp) (kernel.BooleanResult, error) {
	sa, err := unwrap(a)
	if err != nil {
		return kernel.BooleanResult{}, err
	}
	sb, err := unwrap(b)
	if err != nil {
		return kernel.BooleanResult{}, err
	}
	switch op {
	case kernel.Union, kernel.Difference, kernel.Intersection:
	default:
		return kernel.BooleanResult{}, fmt.Errorf("unsupported boolean operation %s", op)
	}
	return kernel.BooleanResult{Shape: wrap(&boolean{op: op, a: sa.node, b: sb.node})}, nil
}

// Mesh triangulates the boundary polygons as fans. Every vertex carries the
// face normal, so shared corners are duplicated.
func (k *Kernel) Mesh(s kernel.Shape) (*kernel.Mesh, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	polys := sh.node.polygons()
	mesh := &kernel.Mesh{}
	for _, p := range polys {
		n := p.plane.normal
		for i := 1; i+1 < len(p.verts); i++ {
			for _, v := range [3]vec{p.verts[0], p.verts[i], p.verts[i+1]} {
				mesh.Indices = append(mesh.Indices, uint32(len(mesh.Vertices)/kernel.VertexStride))
				mesh.Vertices = append(mesh.Vertices,
					float32(v[0]), float32(v[1]), float32(v[2]),
					float32(n[0]), float32(n[1]), float32(n[2]))
			}
		}
	}
	return mesh, nil
}

// Clone returns a new handle sharing the immutable tree.
func (k *Kernel) Clone(s kernel.Shape) (kernel.Shape, error) {
	sh, err := unwrap(s)
	if err != nil {
		return nil, err
	}
	return wrap(sh.node), nil
}

// Free is a no-op; shapes are garbage collected.
func (k *Kernel) Free(kernel.Shape) {}

// Contains reports whether point p lies inside or on the boundary of s.
func Contains(s kernel.Shape, p [3]float64) (bool, error) {
	sh, err := unwrap(s)
	if err != nil {
		return false, err
	}
	return sh.node.contains(p), nil
}

// Bounds returns the axis-aligned bounding box of the boundary. ok is false
// when the shape has no boundary.
func Bounds(s kernel.Shape) (min, max [3]float64, ok bool, err error) {
	sh, err := unwrap(s)
	if err != nil {
		return min, max, false, err
	}
	polys := sh.node.polygons()
	if len(polys) == 0 {
		return min, max, false, nil
	}
	min = polys[0].verts[0]
	max = min
	for _, p := range polys {
		for _, v := range p.verts {
			for i := 0; i < 3; i++ {
				min[i] = math.Min(min[i], v[i])
				max[i] = math.Max(max[i], v[i])
			}
		}
	}
	return min, max, true, nil
}

var _ kernel.Kernel = (*Kernel)(nil)
