package memkernel

import (
	"math"
	"sync"

	"github.com/funvibe/solidscript/internal/kernel"
)

type node interface {
	kind() string
	// contains reports whether p is inside or on the boundary.
	contains(p [3]float64) bool
	// polygons returns the boundary. Callers must not modify the result.
	polygons() []polygon
}

// quads builds polygons from vertex index lists, skipping degenerate ones.
func quads(corners []vec, faces [][]int) []polygon {
	out := make([]polygon, 0, len(faces))
	for _, f := range faces {
		verts := make([]vec, len(f))
		for i, idx := range f {
			verts[i] = corners[idx]
		}
		if p, ok := newPolygon(verts); ok {
			out = append(out, p)
		}
	}
	return out
}

type box struct {
	size vec
}

func (b *box) kind() string { return "box" }

func (b *box) contains(p [3]float64) bool {
	for i := 0; i < 3; i++ {
		if p[i] < 0 || p[i] > b.size[i] {
			return false
		}
	}
	return true
}

func (b *box) polygons() []polygon {
	x, y, z := b.size[0], b.size[1], b.size[2]
	corners := []vec{
		{0, 0, 0}, {x, 0, 0}, {x, y, 0}, {0, y, 0},
		{0, 0, z}, {x, 0, z}, {x, y, z}, {0, y, z},
	}
	return quads(corners, [][]int{
		{0, 3, 2, 1}, // -z
		{4, 5, 6, 7}, // +z
		{0, 1, 5, 4}, // -y
		{2, 3, 7, 6}, // +y
		{0, 4, 7, 3}, // -x
		{1, 2, 6, 5}, // +x
	})
}

type cylinder struct {
	h       float64
	polygon []vec // base at z=0, counter-clockwise
}

func newCylinder(r, h float64, facets int) *cylinder {
	poly := make([]vec, facets)
	for i := range poly {
		s, c := math.Sincos(2 * math.Pi * float64(i) / float64(facets))
		poly[i] = vec{r * c, r * s, 0}
	}
	return &cylinder{h: h, polygon: poly}
}

func (c *cylinder) kind() string { return "cylinder" }

func (c *cylinder) contains(p [3]float64) bool {
	if p[2] < 0 || p[2] > c.h {
		return false
	}
	n := len(c.polygon)
	for i := 0; i < n; i++ {
		a, b := c.polygon[i], c.polygon[(i+1)%n]
		edge, rel := sub(b, a), sub(vec{p[0], p[1], 0}, a)
		if edge[0]*rel[1]-edge[1]*rel[0] < -1e-12 {
			return false
		}
	}
	return true
}

func (c *cylinder) polygons() []polygon {
	n := len(c.polygon)
	corners := make([]vec, 0, 2*n)
	corners = append(corners, c.polygon...)
	for _, v := range c.polygon {
		corners = append(corners, vec{v[0], v[1], c.h})
	}

	faces := make([][]int, 0, n+2)
	bottom := make([]int, n)
	top := make([]int, n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		faces = append(faces, []int{i, j, n + j, n + i})
		bottom[i] = n - 1 - i
		top[i] = n + i
	}
	faces = append(faces, bottom, top)
	return quads(corners, faces)
}

type transformed struct {
	inner node
	m     kernel.Matrix
	inv   kernel.Matrix

	once  sync.Once
	polys []polygon
}

func (t *transformed) kind() string { return "transform" }

func (t *transformed) contains(p [3]float64) bool {
	return t.inner.contains(t.inv.Apply(p))
}

func (t *transformed) polygons() []polygon {
	t.once.Do(func() {
		mirror := t.m.Determinant() < 0
		src := t.inner.polygons()
		t.polys = make([]polygon, 0, len(src))
		for _, p := range src {
			verts := make([]vec, len(p.verts))
			for i, v := range p.verts {
				verts[i] = t.m.Apply(v)
			}
			if mirror {
				for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
					verts[i], verts[j] = verts[j], verts[i]
				}
			}
			if out, ok := newPolygon(verts); ok {
				t.polys = append(t.polys, out)
			}
		}
	})
	return t.polys
}

type boolean struct {
	op   kernel.BooleanOp
	a, b node

	once  sync.Once
	polys []polygon
}

func (b *boolean) kind() string { return b.op.String() }

func (b *boolean) contains(p [3]float64) bool {
	inA, inB := b.a.contains(p), b.b.contains(p)
	switch b.op {
	case kernel.Union:
		return inA || inB
	case kernel.Difference:
		return inA && !inB
	default:
		return inA && inB
	}
}

func (b *boolean) polygons() []polygon {
	b.once.Do(func() {
		pa, pb := b.a.polygons(), b.b.polygons()
		switch b.op {
		case kernel.Union:
			switch {
			case len(pa) == 0:
				b.polys = pb
			case len(pb) == 0:
				b.polys = pa
			default:
				b.polys = unionPolygons(pa, pb)
			}
		case kernel.Difference:
			switch {
			case len(pa) == 0:
			case len(pb) == 0:
				b.polys = pa
			default:
				b.polys = differencePolygons(pa, pb)
			}
		default:
			if len(pa) > 0 && len(pb) > 0 {
				b.polys = intersectionPolygons(pa, pb)
			}
		}
	})
	return b.polys
}
