package triangulate

import (
	"fmt"
	"math"

	gibbon "github.com/lyq911/GIBBON"
	"github.com/lyq911/GIBBON/internal/d2"
	"gonum.org/v1/gonum/spatial/r2"
)

// Polygon containment and curve validation.

const closeTol = 1e-9

// windingNumber counts the signed crossings of a horizontal ray from
// pt over the closed curve. Nonzero means pt lies inside, for either
// curve orientation.
func windingNumber(curve []r2.Vec, pt r2.Vec) int {
	wn := 0
	n := len(curve)
	for i := 0; i < n; i++ {
		a := curve[i]
		b := curve[(i+1)%n]
		if a.Y <= pt.Y {
			if b.Y > pt.Y && d2.Orient(a, b, pt) > 0 {
				wn++
			}
		} else if b.Y <= pt.Y && d2.Orient(a, b, pt) < 0 {
			wn--
		}
	}
	return wn
}

// insideRegion reports whether pt lies inside the outer curve and
// outside every hole.
func insideRegion(outer []r2.Vec, holes [][]r2.Vec, pt r2.Vec) bool {
	if windingNumber(outer, pt) == 0 {
		return false
	}
	for _, h := range holes {
		if windingNumber(h, pt) != 0 {
			return false
		}
	}
	return true
}

// segmentsCross reports whether segments ab and cd properly
// intersect. Meeting at an endpoint or overlapping collinearly does
// not count.
func segmentsCross(a, b, c, d r2.Vec) bool {
	o1 := d2.Orient(a, b, c)
	o2 := d2.Orient(a, b, d)
	o3 := d2.Orient(c, d, a)
	o4 := d2.Orient(c, d, b)
	return o1*o2 < 0 && o3*o4 < 0
}

// prepCurve readies input curve ci as a closed boundary: a coincident
// closing point is dropped, then the curve must hold at least three
// finite points and may not self intersect.
func prepCurve(c []r2.Vec, ci int) ([]r2.Vec, error) {
	if len(c) > 1 && d2.EqualWithin(c[0], c[len(c)-1], closeTol) {
		c = c[:len(c)-1]
	}
	if len(c) < 3 {
		return nil, fmt.Errorf("triangulate: %w: curve %d has %d distinct points, need at least 3", gibbon.ErrGeometry, ci, len(c))
	}
	for _, p := range c {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, fmt.Errorf("triangulate: %w: curve %d contains a non-finite point", gibbon.ErrGeometry, ci)
		}
	}
	n := len(c)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			// Segments sharing an endpoint never properly cross, so
			// neighbors need no special casing.
			if segmentsCross(c[i], c[(i+1)%n], c[j], c[(j+1)%n]) {
				return nil, fmt.Errorf("triangulate: %w: curve %d self intersects", gibbon.ErrGeometry, ci)
			}
		}
	}
	return c, nil
}
