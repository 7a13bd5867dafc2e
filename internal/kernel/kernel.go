// Package kernel defines the capability interface between the evaluator and
// a geometric modelling kernel.
//
// The evaluator never looks behind a Shape: it only builds primitives,
// applies affine transforms, runs boolean operations and asks for a mesh.
// Every operation is fallible; implementations return plain errors which
// callers wrap with the position of the script expression that caused them.
package kernel

import "fmt"

// Shape is an opaque handle owned by a Kernel. Operations never mutate their
// input shapes.
type Shape interface{}

type BooleanOp int

const (
	Union BooleanOp = iota
	Difference
	Intersection
)

func (op BooleanOp) String() string {
	switch op {
	case Union:
		return "union"
	case Difference:
		return "difference"
	case Intersection:
		return "intersection"
	}
	return fmt.Sprintf("BooleanOp(%d)", int(op))
}

// BooleanResult is the outcome of a boolean operation. Fallback is set when
// the kernel had to switch to a slower, more robust algorithm to finish; the
// shape is still valid.
type BooleanResult struct {
	Shape    Shape
	Fallback bool
}

// Kernel is the set of operations the evaluator needs from a geometry
// backend.
type Kernel interface {
	// NewBox returns the box [0,x]×[0,y]×[0,z].
	NewBox(x, y, z float64) (Shape, error)
	// NewCylinder returns a cylinder of radius r standing on the XY plane,
	// from z=0 to z=h, approximated with the given number of facets.
	NewCylinder(r, h float64, facets int) (Shape, error)
	Transform(s Shape, m Matrix) (Shape, error)
	Boolean(a, b Shape, op BooleanOp) (BooleanResult, error)
	Mesh(s Shape) (*Mesh, error)
	Clone(s Shape) (Shape, error)
	Free(s Shape)
}

// VertexStride is the number of float32 values per vertex in Mesh.Vertices:
// position followed by normal.
const VertexStride = 6

// Mesh is a triangle mesh ready for rendering or export.
type Mesh struct {
	Vertices []float32 // x, y, z, nx, ny, nz per vertex
	Indices  []uint32  // three per triangle
}

func (m *Mesh) VertexCount() int {
	if m == nil {
		return 0
	}
	return len(m.Vertices) / VertexStride
}

func (m *Mesh) TriangleCount() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / 3
}

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i uint32) [3]float32 {
	o := int(i) * VertexStride
	return [3]float32{m.Vertices[o], m.Vertices[o+1], m.Vertices[o+2]}
}

// Normal returns the normal of vertex i.
func (m *Mesh) Normal(i uint32) [3]float32 {
	o := int(i)*VertexStride + 3
	return [3]float32{m.Vertices[o], m.Vertices[o+1], m.Vertices[o+2]}
}
