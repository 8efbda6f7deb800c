package triangulate

import (
	"math"

	"github.com/lyq911/GIBBON/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

// Incremental Bowyer-Watson Delaunay triangulation. The point set is
// enclosed in a working rectangle whose four corners seed the first
// two triangles; every insertion removes the triangles whose
// circumcircle contains the new point and fans the cavity boundary
// around it. All triangles stay counterclockwise throughout.

// predTol scales the incircle determinant threshold. Near-cocircular
// configurations count as outside, which keeps lattice point sets
// from oscillating.
const predTol = 1e-12

type triangulation struct {
	pts  []r2.Vec
	tris [][3]int
}

// newTriangulation triangulates pts. The four corners of the
// enclosing rectangle occupy indices len(pts) and up until trimmed.
func newTriangulation(pts []r2.Vec) *triangulation {
	bb := d2.Box{Min: d2.Set(pts).Min(), Max: d2.Set(pts).Max()}
	size := bb.Size()
	margin := 4 * math.Max(size.X, size.Y)
	if margin == 0 {
		margin = 4
	}
	bb = bb.Enlarge(d2.Elem(margin))

	n := len(pts)
	t := &triangulation{
		pts:  make([]r2.Vec, 0, n+4),
		tris: [][3]int{{n, n + 1, n + 2}, {n, n + 2, n + 3}},
	}
	t.pts = append(t.pts, pts...)
	t.pts = append(t.pts, bb.Vertices()...)
	for i := 0; i < n; i++ {
		t.insert(i)
	}
	return t
}

// insert splits the cavity of circumcircle violations around point p
// into a fan. A point coinciding with an existing vertex has an empty
// cavity and changes nothing.
func (t *triangulation) insert(p int) {
	pt := t.pts[p]
	var bad []int
	for ti, tri := range t.tris {
		if inCircle(t.pts[tri[0]], t.pts[tri[1]], t.pts[tri[2]], pt) {
			bad = append(bad, ti)
		}
	}
	if len(bad) == 0 {
		return
	}

	// Cavity boundary edges are the ones used by exactly one removed
	// triangle. Directed edges of counterclockwise triangles keep the
	// cavity on their left, so fanning in collection order stays
	// counterclockwise and deterministic.
	count := make(map[[2]int]int, 3*len(bad))
	for _, ti := range bad {
		tri := t.tris[ti]
		for e := 0; e < 3; e++ {
			count[edgeKey(tri[e], tri[(e+1)%3])]++
		}
	}
	var rim [][2]int
	for _, ti := range bad {
		tri := t.tris[ti]
		for e := 0; e < 3; e++ {
			a, b := tri[e], tri[(e+1)%3]
			if count[edgeKey(a, b)] == 1 {
				rim = append(rim, [2]int{a, b})
			}
		}
	}

	// Remove cavity triangles back to front so swap deletion leaves
	// the smaller indices intact.
	for i := len(bad) - 1; i >= 0; i-- {
		ti := bad[i]
		last := len(t.tris) - 1
		t.tris[ti] = t.tris[last]
		t.tris = t.tris[:last]
	}
	for _, ab := range rim {
		t.tris = append(t.tris, [3]int{ab[0], ab[1], p})
	}
}

// edgeKey returns the undirected map key of edge ab.
func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// inCircle reports whether p lies strictly inside the circumcircle of
// the counterclockwise triangle abc, by the sign of the standard 3×3
// determinant of the point coordinates lifted onto the paraboloid.
func inCircle(a, b, c, p r2.Vec) bool {
	ax, ay := a.X-p.X, a.Y-p.Y
	bx, by := b.X-p.X, b.Y-p.Y
	cx, cy := c.X-p.X, c.Y-p.Y
	a2 := ax*ax + ay*ay
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	det := a2*(bx*cy-cx*by) + b2*(cx*ay-ax*cy) + c2*(ax*by-bx*ay)
	scale := math.Max(a2, math.Max(b2, c2))
	return det > predTol*scale*scale
}
