// Package triangulate builds constrained triangular meshes of planar
// regions bounded by closed curves.
//
// A region is meshed in four steps: the boundary curves are validated
// and optionally resampled to the target spacing, interior points are
// seeded on a square lattice, the point set is triangulated with the
// boundary segments recovered as mesh edges, and the interior is
// relaxed by Laplacian smoothing with the boundary held rigid. The
// input curve points appear, in order, at the start of the returned
// vertex slice, which is what lets independently meshed neighboring
// regions weld along a shared curve.
package triangulate

import (
	"fmt"
	"math"

	gibbon "github.com/lyq911/GIBBON"
	"github.com/lyq911/GIBBON/internal/d2"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// Defaults applied by the zero value Mesher.
const (
	defaultSmoothIterations = 25
	defaultSmoothLambda     = 0.5
	defaultSmoothTolerance  = 1e-3
)

// Mesher meshes 2D regions and satisfies the gibbon.Triangulator
// contract. The zero value relaxes interior points with the default
// iteration bound, lambda and tolerance.
type Mesher struct {
	// SmoothIterations bounds the relaxation sweeps applied to the
	// interior points after triangulation. Zero selects the default,
	// negative disables smoothing.
	SmoothIterations int
	// SmoothLambda is the relaxation factor in (0,1]. Zero selects
	// the default.
	SmoothLambda float64
	// SmoothTolerance is the relative convergence tolerance for the
	// relaxation. Zero selects the default, negative runs every
	// sweep.
	SmoothTolerance float64
}

var _ gibbon.Triangulator = Mesher{}

// Triangulate meshes the region bounded by outer with the given holes
// cut out. spacing sets the interior point pitch; with resample the
// boundary curves are also redistributed to roughly that spacing.
// Faces wind counterclockwise.
func (m Mesher) Triangulate(outer []r2.Vec, holes [][]r2.Vec, spacing float64, resample bool) ([]r2.Vec, [][3]int, error) {
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, nil, fmt.Errorf("triangulate: %w: point spacing %v, need a positive finite value", gibbon.ErrConfiguration, spacing)
	}
	if l := m.SmoothLambda; l != 0 && !(l > 0 && l <= 1) {
		return nil, nil, fmt.Errorf("triangulate: %w: smoothing lambda %v outside (0,1]", gibbon.ErrConfiguration, l)
	}
	if math.IsNaN(m.SmoothTolerance) {
		return nil, nil, fmt.Errorf("triangulate: %w: smoothing tolerance is NaN", gibbon.ErrConfiguration)
	}
	curves := make([][]r2.Vec, 0, 1+len(holes))
	c, err := prepCurve(outer, 0)
	if err != nil {
		return nil, nil, err
	}
	curves = append(curves, c)
	for hi, h := range holes {
		c, err := prepCurve(h, hi+1)
		if err != nil {
			return nil, nil, err
		}
		curves = append(curves, c)
	}
	if resample {
		for i, c := range curves {
			n := int(math.Round(gibbon.CurveLength(c, true) / spacing))
			if n < 3 {
				n = 3
			}
			curves[i] = gibbon.ResampleCurve(c, n, true)
		}
	}

	// Flatten the curve points into the boundary prefix and record
	// every curve segment as a constraint on the triangulation.
	var (
		boundary    []r2.Vec
		constraints [][2]int
	)
	seen := make(map[[2]float64]bool)
	for _, c := range curves {
		off := len(boundary)
		for _, p := range c {
			k := [2]float64{p.X, p.Y}
			if seen[k] {
				return nil, nil, fmt.Errorf("triangulate: %w: boundary point (%g, %g) appears twice", gibbon.ErrGeometry, p.X, p.Y)
			}
			seen[k] = true
		}
		boundary = append(boundary, c...)
		for i := range c {
			constraints = append(constraints, [2]int{off + i, off + (i+1)%len(c)})
		}
	}

	seeds := interiorSeeds(curves[0], curves[1:], spacing)
	pts := make([]r2.Vec, 0, len(boundary)+len(seeds))
	pts = append(pts, boundary...)
	pts = append(pts, seeds...)

	tri := newTriangulation(pts)
	fixed := make(map[[2]int]bool, len(constraints))
	for _, uv := range constraints {
		if err := tri.recoverEdge(uv[0], uv[1], fixed); err != nil {
			return nil, nil, err
		}
		fixed[edgeKey(uv[0], uv[1])] = true
	}
	tri.dropOutside(func(p r2.Vec) bool { return insideRegion(curves[0], curves[1:], p) }, len(pts))
	tri.compact(len(boundary))
	tri.orientCCW()

	verts, faces := tri.pts, tri.tris
	if m.SmoothIterations >= 0 && len(faces) > 0 {
		iters := m.SmoothIterations
		if iters == 0 {
			iters = defaultSmoothIterations
		}
		lambda := m.SmoothLambda
		if lambda == 0 {
			lambda = defaultSmoothLambda
		}
		tol := m.SmoothTolerance
		switch {
		case tol == 0:
			tol = defaultSmoothTolerance
		case tol < 0:
			tol = 0
		}
		adj, err := gibbon.AdjacencyFromFaces(len(verts), faces)
		if err != nil {
			return nil, nil, err
		}
		rigid := make([]int, len(boundary))
		for i := range rigid {
			rigid[i] = i
		}
		verts, err = gibbon.Smooth2(verts, adj,
			gibbon.WithLambda(lambda),
			gibbon.WithIterations(iters),
			gibbon.WithTolerance(tol),
			gibbon.WithRigid(rigid...),
		)
		if err != nil {
			return nil, nil, err
		}
	}
	return verts, faces, nil
}

// interiorSeeds returns the points of a square lattice of the given
// pitch that lie inside the region and keep at least half a pitch of
// clearance from the boundary. The lattice is anchored at the minimum
// corner of the outer curve's bounding box, so axis aligned domains
// whose extent is a multiple of the pitch sample their midlines.
func interiorSeeds(outer []r2.Vec, holes [][]r2.Vec, spacing float64) []r2.Vec {
	bb := d2.Box{Min: d2.Set(outer).Min(), Max: d2.Set(outer).Max()}
	size := bb.Size()
	nx := int(size.X / spacing)
	ny := int(size.Y / spacing)
	gap := spacing / 2

	// Clearance is measured against boundary segments, but a kd-tree
	// of the boundary points settles most candidates first: one
	// nearer than gap to a boundary point is nearer than gap to that
	// point's segments too, and one farther than gap plus the longest
	// segment cannot come within gap of any segment. Only the band in
	// between needs the exact scan.
	pts := append([]r2.Vec(nil), outer...)
	maxSeg := 0.0
	for _, c := range append([][]r2.Vec{outer}, holes...) {
		for i := range c {
			maxSeg = math.Max(maxSeg, r2.Norm(r2.Sub(c[(i+1)%len(c)], c[i])))
		}
	}
	for _, h := range holes {
		pts = append(pts, h...)
	}
	tree := kdtree.New(d2.NewPointSet(pts), false)

	var seeds []r2.Vec
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			p := r2.Vec{X: bb.Min.X + float64(i)*spacing, Y: bb.Min.Y + float64(j)*spacing}
			if !insideRegion(outer, holes, p) {
				continue
			}
			_, dist2 := tree.Nearest(d2.Point(p))
			pointDist := math.Sqrt(dist2)
			if pointDist < gap {
				continue
			}
			if pointDist < gap+maxSeg && boundaryDist(outer, holes, p) < gap {
				continue
			}
			seeds = append(seeds, p)
		}
	}
	return seeds
}

// boundaryDist returns the distance from p to the nearest point of
// any boundary curve.
func boundaryDist(outer []r2.Vec, holes [][]r2.Vec, p r2.Vec) float64 {
	d := curveDist(outer, p)
	for _, h := range holes {
		d = math.Min(d, curveDist(h, p))
	}
	return d
}

func curveDist(c []r2.Vec, p r2.Vec) float64 {
	best := math.MaxFloat64
	n := len(c)
	for i := 0; i < n; i++ {
		best = math.Min(best, segmentDist(c[i], c[(i+1)%n], p))
	}
	return best
}

// segmentDist returns the distance from p to segment ab.
func segmentDist(a, b, p r2.Vec) float64 {
	ab := r2.Sub(b, a)
	ap := r2.Sub(p, a)
	t := r2.Dot(ap, ab)
	if t <= 0 {
		return r2.Norm(ap)
	}
	den := r2.Dot(ab, ab)
	if t >= den {
		return r2.Norm(r2.Sub(p, b))
	}
	return r2.Norm(r2.Sub(ap, r2.Scale(t/den, ab)))
}
