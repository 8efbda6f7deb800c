package gibbon

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"
)

// Multi-region triangulation assembly.

// Region is a closed 2D domain: an outer boundary curve and optional
// hole curves inside it. Curves carry no explicit closing duplicate
// point.
type Region struct {
	Outer []r2.Vec
	Holes [][]r2.Vec
}

// Triangulator meshes a single region. Points of the input curves
// must appear, in order, as a subset of the returned vertices:
// AssembleRegions welds shared boundaries between neighboring regions
// by coordinate coincidence and relies on each region reproducing its
// boundary points.
type Triangulator interface {
	Triangulate(outer []r2.Vec, holes [][]r2.Vec, spacing float64, resample bool) ([]r2.Vec, [][3]int, error)
}

// Assembly is a combined multi-region mesh. RegionID records, per
// face, the 0-based index of the input region that produced it.
type Assembly struct {
	Vertices []r2.Vec
	Faces    [][3]int
	RegionID []int
}

type assembleConfig struct {
	digits     int
	resample   bool
	concurrent int
}

// AssembleOption configures AssembleRegions.
type AssembleOption func(*assembleConfig)

// WithMergeDigits sets the significant decimal digit count used to
// identify coincident vertices during welding. Default
// DefaultMergeDigits.
func WithMergeDigits(digits int) AssembleOption {
	return func(c *assembleConfig) { c.digits = digits }
}

// WithResampling asks the triangulator to resample boundary curves to
// the target spacing before meshing. Off by default, so curves are
// used point for point and shared boundaries stay aligned across
// regions by construction.
func WithResampling(on bool) AssembleOption {
	return func(c *assembleConfig) { c.resample = on }
}

// WithWorkers sets how many regions are triangulated at once. Values
// below one select GOMAXPROCS. The assembled result never depends on
// the worker count.
func WithWorkers(workers int) AssembleOption {
	return func(c *assembleConfig) { c.concurrent = workers }
}

// AssembleRegions triangulates every region independently through t,
// concatenates the results in region order with face indices offset
// past the vertices already emitted, and welds vertices that coincide
// after rounding to the configured significant digit count. An empty
// region list assembles to an empty mesh. On any error no partial
// result is returned; the error names the lowest-index failing
// region.
func AssembleRegions(regions []Region, spacing float64, t Triangulator, opts ...AssembleOption) (*Assembly, error) {
	cfg := assembleConfig{digits: DefaultMergeDigits}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.digits <= 0 {
		return nil, fmt.Errorf("gibbon: %w: merge digits %d, need a positive count", ErrConfiguration, cfg.digits)
	}
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return nil, fmt.Errorf("gibbon: %w: point spacing %v, need a positive finite value", ErrConfiguration, spacing)
	}
	if t == nil {
		return nil, fmt.Errorf("gibbon: %w: nil triangulator", ErrConfiguration)
	}
	if len(regions) == 0 {
		return &Assembly{Vertices: []r2.Vec{}, Faces: [][3]int{}, RegionID: []int{}}, nil
	}

	type local struct {
		verts []r2.Vec
		faces [][3]int
		err   error
	}
	results := make([]local, len(regions))
	workers := cfg.concurrent
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = imin(workers, len(regions))

	// Regions share no mutable state until the barrier below, each
	// worker writes only its own result slots.
	queue := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range queue {
				r := regions[q]
				v, f, err := t.Triangulate(r.Outer, r.Holes, spacing, cfg.resample)
				results[q] = local{verts: v, faces: f, err: err}
			}
		}()
	}
	for q := range regions {
		queue <- q
	}
	close(queue)
	wg.Wait()

	for q := range results {
		if err := results[q].err; err != nil {
			return nil, fmt.Errorf("gibbon: region %d: %w", q, err)
		}
	}

	var (
		verts []r2.Vec
		faces [][3]int
		regID []int
	)
	for q := range results {
		off := len(verts)
		verts = append(verts, results[q].verts...)
		for fi, f := range results[q].faces {
			for e, v := range f {
				if v < 0 || v >= len(results[q].verts) {
					return nil, fmt.Errorf("gibbon: %w: region %d face %d references vertex %d, have %d vertices",
						ErrStructure, q, fi, v, len(results[q].verts))
				}
				f[e] = v + off
			}
			faces = append(faces, f)
			regID = append(regID, q)
		}
	}

	vm, fm, _, err := MergeVertices2(verts, faces, cfg.digits)
	if err != nil {
		return nil, err
	}
	if fi := degenerateFace(fm); fi >= 0 {
		return nil, fmt.Errorf("gibbon: %w: welding at %d significant digits collapsed face %d, suggested digits: %d",
			ErrStructure, cfg.digits, fi, suggestMergeDigits(verts, faces))
	}
	return &Assembly{Vertices: vm, Faces: fm, RegionID: regID}, nil
}

func degenerateFace(faces [][3]int) int {
	for i, f := range faces {
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			return i
		}
	}
	return -1
}

// suggestMergeDigits estimates the significant digit count needed to
// keep the shortest face edge of the concatenated mesh resolved by
// the welding round-off. Before welding the regions share no faces,
// so every face edge is a genuine mesh edge, never a cross-region
// duplicate pair.
func suggestMergeDigits(v []r2.Vec, faces [][3]int) int {
	minEdge := math.MaxFloat64
	maxAbs := 0.0
	for _, f := range faces {
		for e := 0; e < 3; e++ {
			a, b := v[f[e]], v[f[(e+1)%3]]
			maxAbs = math.Max(maxAbs, math.Max(math.Abs(a.X), math.Abs(a.Y)))
			if d := math.Hypot(a.X-b.X, a.Y-b.Y); d > 0 && d < minEdge {
				minEdge = d
			}
		}
	}
	if minEdge == math.MaxFloat64 || maxAbs == 0 {
		return DefaultMergeDigits
	}
	digits := int(math.Ceil(math.Log10(maxAbs))) - int(math.Floor(math.Log10(minEdge))) + 1
	return imax(digits, 1)
}
