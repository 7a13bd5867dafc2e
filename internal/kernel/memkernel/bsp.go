package memkernel

import "math"

// planeEpsilon is the thickness of a plane when classifying vertices.
const planeEpsilon = 1e-5

type vec [3]float64

func sub(a, b vec) vec { return vec{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }

func add(a, b vec) vec { return vec{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }

func scale(a vec, s float64) vec { return vec{a[0] * s, a[1] * s, a[2] * s} }

func dot(a, b vec) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }

func cross(a, b vec) vec {
	return vec{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func lerp(a, b vec, t float64) vec { return add(a, scale(sub(b, a), t)) }

type plane struct {
	normal vec
	w      float64
}

// planeOf returns the plane through a, b and c, facing the side from which
// they appear counter-clockwise. ok is false for degenerate points.
func planeOf(a, b, c vec) (plane, bool) {
	n := cross(sub(b, a), sub(c, a))
	l := math.Sqrt(dot(n, n))
	if l < 1e-12 {
		return plane{}, false
	}
	n = scale(n, 1/l)
	return plane{normal: n, w: dot(n, a)}, true
}

func (p plane) flipped() plane {
	return plane{normal: scale(p.normal, -1), w: -p.w}
}

// polygon is a convex planar polygon wound counter-clockwise when seen from
// outside the solid.
type polygon struct {
	verts []vec
	plane plane
}

func newPolygon(verts []vec) (polygon, bool) {
	pl, ok := planeOf(verts[0], verts[1], verts[2])
	if !ok {
		return polygon{}, false
	}
	return polygon{verts: verts, plane: pl}, true
}

func (p polygon) flipped() polygon {
	out := make([]vec, len(p.verts))
	for i, v := range p.verts {
		out[len(p.verts)-1-i] = v
	}
	return polygon{verts: out, plane: p.plane.flipped()}
}

const (
	coplanar = 0
	front    = 1
	back     = 2
	spanning = 3
)

// split sorts poly into the four lists relative to p, cutting polygons that
// span the plane in two.
func (p plane) split(poly polygon, coFront, coBack, fronts, backs *[]polygon) {
	kind := 0
	types := make([]int, len(poly.verts))
	for i, v := range poly.verts {
		t := dot(p.normal, v) - p.w
		typ := coplanar
		if t < -planeEpsilon {
			typ = back
		} else if t > planeEpsilon {
			typ = front
		}
		kind |= typ
		types[i] = typ
	}

	switch kind {
	case coplanar:
		if dot(p.normal, poly.plane.normal) > 0 {
			*coFront = append(*coFront, poly)
		} else {
			*coBack = append(*coBack, poly)
		}
	case front:
		*fronts = append(*fronts, poly)
	case back:
		*backs = append(*backs, poly)
	default:
		var f, b []vec
		n := len(poly.verts)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			ti, tj := types[i], types[j]
			vi, vj := poly.verts[i], poly.verts[j]
			if ti != back {
				f = append(f, vi)
			}
			if ti != front {
				b = append(b, vi)
			}
			if ti|tj == spanning {
				t := (p.w - dot(p.normal, vi)) / dot(p.normal, sub(vj, vi))
				v := lerp(vi, vj, t)
				f = append(f, v)
				b = append(b, v)
			}
		}
		if len(f) >= 3 {
			*fronts = append(*fronts, polygon{verts: f, plane: poly.plane})
		}
		if len(b) >= 3 {
			*backs = append(*backs, polygon{verts: b, plane: poly.plane})
		}
	}
}

// bspNode is a node of a BSP tree whose leaves on the back side are solid.
type bspNode struct {
	plane       *plane
	front, back *bspNode
	polys       []polygon
}

func newBSP(polys []polygon) *bspNode {
	n := &bspNode{}
	n.build(polys)
	return n
}

// invert swaps solid and empty space.
func (n *bspNode) invert() {
	for i, p := range n.polys {
		n.polys[i] = p.flipped()
	}
	if n.plane != nil {
		f := n.plane.flipped()
		n.plane = &f
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polys that are inside this tree.
func (n *bspNode) clipPolygons(polys []polygon) []polygon {
	if n.plane == nil {
		return append([]polygon(nil), polys...)
	}
	var f, b []polygon
	for _, p := range polys {
		n.plane.split(p, &f, &b, &f, &b)
	}
	if n.front != nil {
		f = n.front.clipPolygons(f)
	}
	if n.back != nil {
		b = n.back.clipPolygons(b)
	} else {
		b = nil
	}
	return append(f, b...)
}

// clipTo removes the parts of this tree's polygons inside other.
func (n *bspNode) clipTo(other *bspNode) {
	n.polys = other.clipPolygons(n.polys)
	if n.front != nil {
		n.front.clipTo(other)
	}
	if n.back != nil {
		n.back.clipTo(other)
	}
}

func (n *bspNode) allPolygons() []polygon {
	out := append([]polygon(nil), n.polys...)
	if n.front != nil {
		out = append(out, n.front.allPolygons()...)
	}
	if n.back != nil {
		out = append(out, n.back.allPolygons()...)
	}
	return out
}

func (n *bspNode) build(polys []polygon) {
	if len(polys) == 0 {
		return
	}
	if n.plane == nil {
		p := polys[0].plane
		n.plane = &p
	}
	var f, b []polygon
	for _, p := range polys {
		n.plane.split(p, &n.polys, &n.polys, &f, &b)
	}
	if len(f) > 0 {
		if n.front == nil {
			n.front = &bspNode{}
		}
		n.front.build(f)
	}
	if len(b) > 0 {
		if n.back == nil {
			n.back = &bspNode{}
		}
		n.back.build(b)
	}
}

func unionPolygons(pa, pb []polygon) []polygon {
	a, b := newBSP(pa), newBSP(pb)
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allPolygons())
	return a.allPolygons()
}

func differencePolygons(pa, pb []polygon) []polygon {
	a, b := newBSP(pa), newBSP(pb)
	a.invert()
	a.clipTo(b)
	b.clipTo(a)
	b.invert()
	b.clipTo(a)
	b.invert()
	a.build(b.allPolygons())
	a.invert()
	return a.allPolygons()
}

func intersectionPolygons(pa, pb []polygon) []polygon {
	a, b := newBSP(pa), newBSP(pb)
	a.invert()
	b.clipTo(a)
	b.invert()
	a.clipTo(b)
	b.clipTo(a)
	a.build(b.allPolygons())
	a.invert()
	return a.allPolygons()
}
