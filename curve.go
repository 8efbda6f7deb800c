package gibbon

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// 2D boundary curve utilities.

// CurveLength returns the polyline length of c. When closed, the
// segment from the last point back to the first is included.
func CurveLength(c []r2.Vec, closed bool) float64 {
	if len(c) < 2 {
		return 0
	}
	var l float64
	for i := 1; i < len(c); i++ {
		l += r2.Norm(r2.Sub(c[i], c[i-1]))
	}
	if closed {
		l += r2.Norm(r2.Sub(c[0], c[len(c)-1]))
	}
	return l
}

// ResampleCurve returns n points spaced uniformly by arc length along
// c, interpolated linearly between the input points. For an open
// curve both endpoints are kept; for a closed curve station zero is
// c[0] and the last station stops one spacing short of wrapping.
// Input vertices that fall between stations are dropped, so corners
// survive only when the station spacing divides the arc length up to
// them.
func ResampleCurve(c []r2.Vec, n int, closed bool) []r2.Vec {
	if n < 2 || len(c) < 2 {
		panic("bug: ResampleCurve needs n >= 2 stations and at least 2 curve points")
	}
	pts := c
	if closed {
		pts = make([]r2.Vec, 0, len(c)+1)
		pts = append(pts, c...)
		pts = append(pts, c[0])
	}
	cum := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		cum[i] = cum[i-1] + r2.Norm(r2.Sub(pts[i], pts[i-1]))
	}
	total := cum[len(cum)-1]
	step := total / float64(n-1)
	if closed {
		step = total / float64(n)
	}
	out := make([]r2.Vec, n)
	out[0] = pts[0]
	seg := 0
	for k := 1; k < n; k++ {
		target := float64(k) * step
		for seg < len(pts)-2 && cum[seg+1] < target {
			seg++
		}
		segLen := cum[seg+1] - cum[seg]
		t := 0.0
		if segLen > 0 {
			t = (target - cum[seg]) / segLen
		}
		out[k] = r2.Add(pts[seg], r2.Scale(t, r2.Sub(pts[seg+1], pts[seg])))
	}
	if !closed {
		out[n-1] = pts[len(pts)-1]
	}
	return out
}

// Nagon returns the vertices of an n sided regular polygon of the
// given radius, counterclockwise starting on the positive x axis.
func Nagon(n int, radius float64) []r2.Vec {
	if n < 3 {
		return nil
	}
	v := make([]r2.Vec, n)
	for i := range v {
		a := 2 * math.Pi * float64(i) / float64(n)
		v[i] = r2.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return v
}
