package d2

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// Point is an r2.Vec adapted to the kdtree interfaces.
// Distances are squared euclidean.
type Point r2.Vec

func (p Point) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(Point)
	if d == 0 {
		return p.X - q.X
	}
	return p.Y - q.Y
}

func (p Point) Dims() int { return 2 }

func (p Point) Distance(c kdtree.Comparable) float64 {
	q := c.(Point)
	return Dist2(r2.Vec(p), r2.Vec(q))
}

// PointSet adapts a vertex set to kdtree.Interface.
type PointSet []Point

func NewPointSet(vs []r2.Vec) PointSet {
	ps := make(PointSet, len(vs))
	for i, v := range vs {
		ps[i] = Point(v)
	}
	return ps
}

// Index returns the ith element of the list of points.
func (ps PointSet) Index(i int) kdtree.Comparable { return ps[i] }

// Len returns the length of the list.
func (ps PointSet) Len() int { return len(ps) }

// Pivot partitions the list based on the dimension specified.
func (ps PointSet) Pivot(d kdtree.Dim) int {
	p := kdPlane{dim: d, pts: ps}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// Slice returns a slice of the list using zero-based half
// open indexing equivalent to built-in slice indexing.
func (ps PointSet) Slice(start, end int) kdtree.Interface { return ps[start:end] }

// Bounds implements the kdtree.Bounder interface.
func (ps PointSet) Bounds() *kdtree.Bounding {
	if len(ps) == 0 {
		return nil
	}
	min := Point{X: math.MaxFloat64, Y: math.MaxFloat64}
	max := Point{X: -math.MaxFloat64, Y: -math.MaxFloat64}
	for _, p := range ps {
		min = Point(MinElem(r2.Vec(min), r2.Vec(p)))
		max = Point(MaxElem(r2.Vec(max), r2.Vec(p)))
	}
	return &kdtree.Bounding{Min: min, Max: max}
}

type kdPlane struct {
	dim kdtree.Dim
	pts PointSet
}

func (p kdPlane) Less(i, j int) bool {
	return p.pts[i].Compare(p.pts[j], p.dim) < 0
}
func (p kdPlane) Swap(i, j int) {
	p.pts[i], p.pts[j] = p.pts[j], p.pts[i]
}
func (p kdPlane) Len() int {
	return len(p.pts)
}
func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	p.pts = p.pts[start:end]
	return p
}
