package triangulate

import (
	"fmt"

	gibbon "github.com/lyq911/GIBBON"
	"github.com/lyq911/GIBBON/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

// Constraint recovery by edge flipping, after Sloan. Each boundary
// segment missing from the Delaunay triangulation is restored by
// flipping the edges that cross it until the segment appears.

// hasEdge reports whether the undirected edge ab is present.
func (t *triangulation) hasEdge(a, b int) bool {
	for _, tri := range t.tris {
		for e := 0; e < 3; e++ {
			if tri[e] == a && (tri[(e+1)%3] == b || tri[(e+2)%3] == b) {
				return true
			}
		}
	}
	return false
}

// edgeTris returns the indices of the triangles adjacent to the
// undirected edge ab, lowest first.
func (t *triangulation) edgeTris(a, b int) []int {
	var adj []int
	for ti, tri := range t.tris {
		n := 0
		for e := 0; e < 3; e++ {
			if tri[e] == a || tri[e] == b {
				n++
			}
		}
		if n == 2 {
			adj = append(adj, ti)
		}
	}
	return adj
}

func hasDirected(tri [3]int, a, b int) bool {
	for e := 0; e < 3; e++ {
		if tri[e] == a && tri[(e+1)%3] == b {
			return true
		}
	}
	return false
}

func opposite(tri [3]int, a, b int) int {
	for _, v := range tri {
		if v != a && v != b {
			return v
		}
	}
	panic("bug: triangle has no vertex opposite the edge")
}

// recoverEdge flips crossing edges until uv is an edge of the
// triangulation. Edges in fixed are constraints recovered earlier
// and may not be flipped away; meeting one means two input curves
// cross.
func (t *triangulation) recoverEdge(u, v int, fixed map[[2]int]bool) error {
	if t.hasEdge(u, v) {
		return nil
	}
	pu, pv := t.pts[u], t.pts[v]

	cross := func(a, b int) bool {
		if a == u || a == v || b == u || b == v {
			return false
		}
		return segmentsCross(pu, pv, t.pts[a], t.pts[b])
	}

	var queue [][2]int
	seen := make(map[[2]int]bool)
	for _, tri := range t.tris {
		for e := 0; e < 3; e++ {
			k := edgeKey(tri[e], tri[(e+1)%3])
			if seen[k] || !cross(k[0], k[1]) {
				continue
			}
			if fixed[k] {
				return fmt.Errorf("triangulate: %w: boundary curves cross", gibbon.ErrGeometry)
			}
			seen[k] = true
			queue = append(queue, k)
		}
	}

	for guard := 64 + 8*len(t.tris); len(queue) > 0; guard-- {
		if guard <= 0 {
			return fmt.Errorf("triangulate: %w: boundary edge could not be recovered", gibbon.ErrGeometry)
		}
		ab := queue[0]
		queue = queue[1:]
		a, b := ab[0], ab[1]

		adj := t.edgeTris(a, b)
		if len(adj) != 2 {
			continue // edge no longer present
		}
		t1, t2 := adj[0], adj[1]
		if !hasDirected(t.tris[t1], a, b) {
			t1, t2 = t2, t1
		}
		c := opposite(t.tris[t1], a, b)
		d := opposite(t.tris[t2], a, b)

		// The flip swaps diagonal ab of quad a,d,b,c for cd. Only a
		// convex quad, where the diagonals cross, may be flipped;
		// otherwise retry after the neighborhood has changed.
		if !segmentsCross(t.pts[a], t.pts[b], t.pts[c], t.pts[d]) {
			queue = append(queue, ab)
			continue
		}
		t.tris[t1] = [3]int{a, d, c}
		t.tris[t2] = [3]int{d, b, c}

		if cross(c, d) {
			k := edgeKey(c, d)
			if fixed[k] {
				return fmt.Errorf("triangulate: %w: boundary curves cross", gibbon.ErrGeometry)
			}
			queue = append(queue, k)
		}
	}
	if !t.hasEdge(u, v) {
		return fmt.Errorf("triangulate: %w: boundary edge could not be recovered", gibbon.ErrGeometry)
	}
	return nil
}

// dropOutside removes every triangle that touches a point at index
// limit or above, or whose centroid falls outside the region.
func (t *triangulation) dropOutside(inside func(r2.Vec) bool, limit int) {
	keep := t.tris[:0]
	for _, tri := range t.tris {
		if tri[0] >= limit || tri[1] >= limit || tri[2] >= limit {
			continue
		}
		cen := r2.Scale(1.0/3.0, r2.Add(t.pts[tri[0]], r2.Add(t.pts[tri[1]], t.pts[tri[2]])))
		if !inside(cen) {
			continue
		}
		keep = append(keep, tri)
	}
	t.tris = keep
}

// compact drops unreferenced points and renumbers the triangles. The
// first nb points are retained whether referenced or not, so the
// boundary prefix keeps its indices.
func (t *triangulation) compact(nb int) {
	used := make([]bool, len(t.pts))
	for i := 0; i < nb; i++ {
		used[i] = true
	}
	for _, tri := range t.tris {
		used[tri[0]], used[tri[1]], used[tri[2]] = true, true, true
	}
	remap := make([]int, len(t.pts))
	pts := make([]r2.Vec, 0, len(t.pts))
	for i, p := range t.pts {
		if !used[i] {
			remap[i] = -1
			continue
		}
		remap[i] = len(pts)
		pts = append(pts, p)
	}
	for ti, tri := range t.tris {
		t.tris[ti] = [3]int{remap[tri[0]], remap[tri[1]], remap[tri[2]]}
	}
	t.pts = pts
}

// orientCCW makes every triangle wind counterclockwise.
func (t *triangulation) orientCCW() {
	for ti, tri := range t.tris {
		if d2.Orient(t.pts[tri[0]], t.pts[tri[1]], t.pts[tri[2]]) < 0 {
			t.tris[ti] = [3]int{tri[0], tri[2], tri[1]}
		}
	}
}
