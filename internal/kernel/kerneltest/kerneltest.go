// Package kerneltest provides a recording kernel for tests.
//
// Recorder never computes geometry. Every shape it returns is a *Shape that
// remembers how it was built, and every call is appended to an ordered log
// so tests can assert exactly which kernel operations a collapse issued.
package kerneltest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/funvibe/solidscript/internal/kernel"
)

// Shape is the handle type produced by Recorder.
type Shape struct {
	ID   int
	Desc string
}

func (s *Shape) String() string { return fmt.Sprintf("#%d %s", s.ID, s.Desc) }

// Call is one recorded kernel invocation.
type Call struct {
	Op     string // box, cylinder, transform, union, difference, intersection, mesh, clone, free
	Args   []float64
	Inputs []*Shape
	Matrix kernel.Matrix
	Result *Shape
}

func (c Call) String() string {
	var b strings.Builder
	b.WriteString(c.Op)
	if len(c.Args) > 0 {
		fmt.Fprintf(&b, "%v", c.Args)
	}
	for _, in := range c.Inputs {
		fmt.Fprintf(&b, " #%d", in.ID)
	}
	return b.String()
}

// Recorder implements kernel.Kernel. The zero value is ready to use.
type Recorder struct {
	mu     sync.Mutex
	nextID int
	calls  []Call

	// FailOn maps an operation name to the error it should return.
	FailOn map[string]error
	// Fallback makes every boolean operation report the fallback flag.
	Fallback bool
}

func New() *Recorder { return &Recorder{} }

func (r *Recorder) newShape(desc string) *Shape {
	r.nextID++
	return &Shape{ID: r.nextID, Desc: desc}
}

func (r *Recorder) failure(op string) error {
	if r.FailOn == nil {
		return nil
	}
	return r.FailOn[op]
}

func asShape(s kernel.Shape) *Shape {
	sh, ok := s.(*Shape)
	if !ok {
		panic(fmt.Sprintf("kerneltest: foreign shape %T", s))
	}
	return sh
}

func (r *Recorder) NewBox(x, y, z float64) (kernel.Shape, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("box"); err != nil {
		return nil, err
	}
	s := r.newShape(fmt.Sprintf("box(%g,%g,%g)", x, y, z))
	r.calls = append(r.calls, Call{Op: "box", Args: []float64{x, y, z}, Result: s})
	return s, nil
}

func (r *Recorder) NewCylinder(rad, h float64, facets int) (kernel.Shape, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("cylinder"); err != nil {
		return nil, err
	}
	s := r.newShape(fmt.Sprintf("cylinder(%g,%g,%d)", rad, h, facets))
	r.calls = append(r.calls, Call{Op: "cylinder", Args: []float64{rad, h, float64(facets)}, Result: s})
	return s, nil
}

func (r *Recorder) Transform(in kernel.Shape, m kernel.Matrix) (kernel.Shape, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("transform"); err != nil {
		return nil, err
	}
	src := asShape(in)
	s := r.newShape(fmt.Sprintf("transform(#%d)", src.ID))
	r.calls = append(r.calls, Call{Op: "transform", Inputs: []*Shape{src}, Matrix: m, Result: s})
	return s, nil
}

func (r *Recorder) Boolean(a, b kernel.Shape, op kernel.BooleanOp) (kernel.BooleanResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := op.String()
	if err := r.failure(name); err != nil {
		return kernel.BooleanResult{}, err
	}
	sa, sb := asShape(a), asShape(b)
	s := r.newShape(fmt.Sprintf("%s(#%d,#%d)", name, sa.ID, sb.ID))
	r.calls = append(r.calls, Call{Op: name, Inputs: []*Shape{sa, sb}, Result: s})
	return kernel.BooleanResult{Shape: s, Fallback: r.Fallback}, nil
}

// Mesh returns an empty mesh.
func (r *Recorder) Mesh(in kernel.Shape) (*kernel.Mesh, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("mesh"); err != nil {
		return nil, err
	}
	r.calls = append(r.calls, Call{Op: "mesh", Inputs: []*Shape{asShape(in)}})
	return &kernel.Mesh{}, nil
}

func (r *Recorder) Clone(in kernel.Shape) (kernel.Shape, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failure("clone"); err != nil {
		return nil, err
	}
	src := asShape(in)
	s := r.newShape(fmt.Sprintf("clone(#%d)", src.ID))
	r.calls = append(r.calls, Call{Op: "clone", Inputs: []*Shape{src}, Result: s})
	return s, nil
}

func (r *Recorder) Free(in kernel.Shape) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Op: "free", Inputs: []*Shape{asShape(in)}})
}

// Calls returns a copy of the call log.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns the operation names of the call log, optionally restricted to
// the given operations.
func (r *Recorder) Ops(only ...string) []string {
	keep := make(map[string]bool, len(only))
	for _, op := range only {
		keep[op] = true
	}
	var out []string
	for _, c := range r.Calls() {
		if len(only) == 0 || keep[c.Op] {
			out = append(out, c.Op)
		}
	}
	return out
}

// BooleanOps returns the boolean operations in call order.
func (r *Recorder) BooleanOps() []string {
	return r.Ops("union", "difference", "intersection")
}

// Count returns how many times op was called.
func (r *Recorder) Count(op string) int {
	return len(r.Ops(op))
}

// Reset clears the call log.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

var _ kernel.Kernel = (*Recorder)(nil)
