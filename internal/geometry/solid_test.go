package geometry_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/solidscript/internal/geometry"
	"github.com/funvibe/solidscript/internal/kernel"
	"github.com/funvibe/solidscript/internal/kernel/kerneltest"
)

func boxes(t *testing.T, k *kerneltest.Recorder, n int) []kernel.Shape {
	t.Helper()
	out := make([]kernel.Shape, n)
	for i := range out {
		s, err := k.NewBox(float64(i+1), 1, 1)
		if err != nil {
			t.Fatalf("NewBox: %v", err)
		}
		out[i] = s
	}
	k.Reset()
	return out
}

func sameItems(t *testing.T, got, want []geometry.Item) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Shape != want[i].Shape || got[i].Anti != want[i].Anti {
			t.Errorf("item %d: got %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].Matrix().ApproxEqual(want[i].Matrix(), 1e-12) {
			t.Errorf("item %d: matrix %v, want %v", i, got[i].Matrix(), want[i].Matrix())
		}
	}
}

func TestCombineAssociative(t *testing.T) {
	k := kerneltest.New()
	s := boxes(t, k, 4)
	a := geometry.FromShape(s[0])
	b := geometry.Combine(geometry.FromShape(s[1]), geometry.FromShape(s[2]).Anti())
	c := geometry.FromShape(s[3]).Transform(kernel.Translation(1, 2, 3))

	left := geometry.Combine(geometry.Combine(a, b), c)
	right := geometry.Combine(a, geometry.Combine(b, c))
	flat := geometry.Combine(a, b, c)

	sameItems(t, left.Items(), flat.Items())
	sameItems(t, right.Items(), flat.Items())
	if len(k.Calls()) != 0 {
		t.Errorf("combine called the kernel: %v", k.Calls())
	}
}

func TestAntiIdempotent(t *testing.T) {
	k := kerneltest.New()
	s := boxes(t, k, 3)
	solid := geometry.Combine(
		geometry.FromShape(s[0]),
		geometry.FromShape(s[1]).Anti(),
		geometry.FromShape(s[2]).Transform(kernel.Translation(0, 0, 1)),
	)

	sameItems(t, solid.Anti().Anti().Items(), solid.Items())

	flipped := solid.Anti().Items()
	for i, it := range solid.Items() {
		if flipped[i].Anti == it.Anti {
			t.Errorf("item %d: anti flag not flipped", i)
		}
	}
}

func TestTransformComposition(t *testing.T) {
	k := kerneltest.New()
	s := boxes(t, k, 2)
	solid := geometry.Combine(
		geometry.FromShape(s[0]),
		geometry.FromShape(s[1]).Transform(kernel.Scaling(2, 2, 2)),
	)
	m1 := kernel.Translation(1, 0, 0)
	m2 := kernel.RotationZ(0.5)

	got := solid.Transform(m1).Transform(m2)
	want := solid.Transform(m2.Mul(m1))
	sameItems(t, got.Items(), want.Items())

	p := [3]float64{1, 1, 1}
	first := got.Items()[1].Matrix().Apply(p)
	manual := m2.Apply(m1.Apply(kernel.Scaling(2, 2, 2).Apply(p)))
	for i := range first {
		if d := first[i] - manual[i]; d > 1e-9 || d < -1e-9 {
			t.Fatalf("composed transform maps %v to %v, want %v", p, first, manual)
		}
	}
}

func TestTransformDoesNotMutate(t *testing.T) {
	k := kerneltest.New()
	s := boxes(t, k, 1)
	orig := geometry.FromShape(s[0])
	_ = orig.Transform(kernel.Translation(5, 5, 5))
	if orig.Items()[0].Xform != nil {
		t.Fatalf("Transform mutated its receiver")
	}
}

func TestUnionizeEmptiness(t *testing.T) {
	k := kerneltest.New()
	s := boxes(t, k, 3)
	real := geometry.FromShape(s[0])
	hole := geometry.FromShape(s[1]).Anti()
	hole2 := geometry.FromShape(s[2]).Anti()

	tests := []struct {
		name      string
		solid     *geometry.Solid
		wantEmpty bool
	}{
		{"empty", geometry.Empty(), true},
		{"only anti", geometry.Combine(hole, hole2), true},
		{"single real", real, false},
		{"real and anti", geometry.Combine(hole, real), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k.Reset()
			got, err := tt.solid.Unionize(k)
			if err != nil {
				t.Fatalf("Unionize: %v", err)
			}
			if got.IsEmpty() != tt.wantEmpty {
				t.Fatalf("IsEmpty() = %v, want %v", got.IsEmpty(), tt.wantEmpty)
			}
			if tt.wantEmpty && len(k.Calls()) != 0 {
				t.Errorf("empty collapse called the kernel: %v", k.Ops())
			}
			if !tt.wantEmpty {
				if _, ok := got.Shape(); !ok {
					t.Errorf("collapsed solid is not a single plain shape: %+v", got.Items())
				}
			}
		})
	}
}

func TestUnionizeFusesBeforeSubtracting(t *testing.T) {
	k := kerneltest.New()
	s := boxes(t, k, 5)
	solid := geometry.Combine(
		geometry.FromShape(s[0]),
		geometry.FromShape(s[1]).Anti(),
		geometry.FromShape(s[2]),
		geometry.FromShape(s[3]).Anti(),
		geometry.FromShape(s[4]),
	)

	if _, err := solid.Unionize(k); err != nil {
		t.Fatalf("Unionize: %v", err)
	}

	want := []string{"union", "union", "difference", "difference"}
	if got := k.BooleanOps(); !reflect.DeepEqual(got, want) {
		t.Fatalf("boolean ops = %v, want %v", got, want)
	}

	// Operands follow the original order within each partition.
	var operands []int
	for _, c := range k.Calls() {
		if c.Op == "clone" {
			operands = append(operands, c.Inputs[0].ID)
		}
	}
	var ids []int
	for _, sh := range s {
		ids = append(ids, sh.(*kerneltest.Shape).ID)
	}
	wantOrder := []int{ids[0], ids[2], ids[4], ids[1], ids[3]}
	if !reflect.DeepEqual(operands, wantOrder) {
		t.Errorf("realized %v, want %v", operands, wantOrder)
	}
}

func TestUnionizeAppliesTransforms(t *testing.T) {
	k := kerneltest.New()
	s := boxes(t, k, 2)
	solid := geometry.Combine(
		geometry.FromShape(s[0]).Transform(kernel.Translation(1, 0, 0)),
		geometry.FromShape(s[1]).Anti(),
	)
	if _, err := solid.Unionize(k); err != nil {
		t.Fatalf("Unionize: %v", err)
	}
	want := []string{"transform", "clone", "difference", "free", "free"}
	if got := k.Ops(); !reflect.DeepEqual(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	if m := k.Calls()[0].Matrix; !m.ApproxEqual(kernel.Translation(1, 0, 0), 0) {
		t.Errorf("transform matrix = %v", m)
	}
}

func TestUnionizeKernelError(t *testing.T) {
	k := kerneltest.New()
	s := boxes(t, k, 2)
	k.FailOn = map[string]error{"union": errors.New("boom")}

	_, err := geometry.Combine(geometry.FromShape(s[0]), geometry.FromShape(s[1])).Unionize(k)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom") || !strings.HasPrefix(err.Error(), "union:") {
		t.Errorf("unexpected error %q", err)
	}
}

func TestIntersectionize(t *testing.T) {
	k := kerneltest.New()
	s := boxes(t, k, 4)

	got, err := geometry.Intersectionize(k)
	if err != nil || !got.IsEmpty() {
		t.Fatalf("empty input: got %v, %v", got, err)
	}

	a := geometry.Combine(geometry.FromShape(s[0]), geometry.FromShape(s[1]))
	b := geometry.FromShape(s[2])
	c := geometry.Combine(geometry.FromShape(s[3])).Transform(kernel.Translation(0, 1, 0))

	k.Reset()
	got, err = geometry.Intersectionize(k, a, b, c)
	if err != nil {
		t.Fatalf("Intersectionize: %v", err)
	}
	if _, ok := got.Shape(); !ok {
		t.Fatalf("result is not collapsed: %+v", got.Items())
	}
	want := []string{"union", "intersection", "intersection"}
	if ops := k.BooleanOps(); !reflect.DeepEqual(ops, want) {
		t.Fatalf("boolean ops = %v, want %v", ops, want)
	}

	k.Reset()
	got, err = geometry.Intersectionize(k, a, geometry.FromShape(s[2]).Anti())
	if err != nil {
		t.Fatalf("Intersectionize: %v", err)
	}
	if !got.IsEmpty() {
		t.Errorf("intersection with an all-anti solid should be empty")
	}
	if n := k.Count("intersection"); n != 0 {
		t.Errorf("intersection called %d times", n)
	}
}

func TestMeshEmpty(t *testing.T) {
	k := kerneltest.New()
	m, err := geometry.Empty().Mesh(k)
	if err != nil {
		t.Fatalf("Mesh: %v", err)
	}
	if m.TriangleCount() != 0 || len(k.Calls()) != 0 {
		t.Errorf("empty mesh: %d triangles, calls %v", m.TriangleCount(), k.Ops())
	}
}
