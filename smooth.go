package gibbon

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Laplacian relaxation of vertex positions.

type smoothConfig struct {
	lambda     float64
	iterations int
	rigid      []int
	tolerance  float64
	concurrent int
}

// SmoothOption configures Smooth and its dimensioned variants.
type SmoothOption func(*smoothConfig)

// WithLambda sets the fraction of the step toward the neighbor
// average applied per iteration. Must lie in (0,1]: 1 jumps all the
// way, smaller values damp the relaxation. Default 0.5.
func WithLambda(lambda float64) SmoothOption {
	return func(c *smoothConfig) { c.lambda = lambda }
}

// WithIterations bounds the number of relaxation sweeps. Zero is a
// valid request and returns the input unchanged. Default 1.
func WithIterations(n int) SmoothOption {
	return func(c *smoothConfig) { c.iterations = n }
}

// WithRigid pins the listed vertices to their original input
// positions for the whole run. Default none.
func WithRigid(indices ...int) SmoothOption {
	return func(c *smoothConfig) { c.rigid = indices }
}

// WithTolerance enables early termination. After every sweep the sum
// of squared coordinate changes against the previous sweep is
// measured; once the ratio of consecutive sums settles to within tol
// of one, iteration stops. The measure is a sum over all coordinates,
// not a mean, so it grows with vertex count; pick tol with the mesh
// size in mind. Non-finite coordinate changes contribute zero to the
// sum. Zero disables the criterion. Default disabled.
func WithTolerance(tol float64) SmoothOption {
	return func(c *smoothConfig) { c.tolerance = tol }
}

// WithConcurrency sets the worker count for each sweep. Values below
// one select GOMAXPROCS. The result never depends on the worker
// count.
func WithConcurrency(workers int) SmoothOption {
	return func(c *smoothConfig) { c.concurrent = workers }
}

func smoothDefaults() smoothConfig {
	return smoothConfig{
		lambda:     0.5,
		iterations: 1,
	}
}

func (c *smoothConfig) validate(n, d int) error {
	if !(c.lambda > 0 && c.lambda <= 1) {
		return fmt.Errorf("gibbon: %w: lambda %v outside (0,1]", ErrConfiguration, c.lambda)
	}
	if c.iterations < 0 {
		return fmt.Errorf("gibbon: %w: negative iteration count %d", ErrConfiguration, c.iterations)
	}
	if c.tolerance < 0 || math.IsNaN(c.tolerance) {
		return fmt.Errorf("gibbon: %w: tolerance %v, need >= 0", ErrConfiguration, c.tolerance)
	}
	if d != 2 && d != 3 {
		return fmt.Errorf("gibbon: %w: %d dimensions per vertex, need 2 or 3", ErrConfiguration, d)
	}
	for _, i := range c.rigid {
		if i < 0 || i >= n {
			return fmt.Errorf("gibbon: %w: rigid index %d outside [0,%d)", ErrStructure, i, n)
		}
	}
	return nil
}

// Smooth relaxes vertex positions in v, an n×d matrix holding one
// vertex per row (d is 2 or 3). Each sweep moves every vertex by
// lambda times the difference between the mean of its valid neighbors
// in adj and its own position. A vertex with no valid neighbors keeps
// its prior position. After every sweep the rigid vertices are reset
// to their original input coordinates. Sweeps are Jacobi style: new
// positions never feed back into the same sweep, so output is
// identical at any concurrency and reproducible run to run.
//
// v is not modified; the relaxed positions are returned fresh.
func Smooth(v *mat.Dense, adj *Adjacency, opts ...SmoothOption) (*mat.Dense, error) {
	n, d := v.Dims()
	buf := make([]float64, n*d)
	for i := 0; i < n; i++ {
		for k := 0; k < d; k++ {
			buf[i*d+k] = v.At(i, k)
		}
	}
	out, err := smoothCore(buf, n, d, adj, opts)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(n, d, out), nil
}

// SmoothFaces is Smooth with the adjacency derived from the 1-ring of
// faces.
func SmoothFaces(v *mat.Dense, faces [][3]int, opts ...SmoothOption) (*mat.Dense, error) {
	n, _ := v.Dims()
	adj, err := AdjacencyFromFaces(n, faces)
	if err != nil {
		return nil, err
	}
	return Smooth(v, adj, opts...)
}

// Smooth2 relaxes a 2D vertex set. See Smooth.
func Smooth2(v []r2.Vec, adj *Adjacency, opts ...SmoothOption) ([]r2.Vec, error) {
	buf := make([]float64, 2*len(v))
	for i, p := range v {
		buf[2*i], buf[2*i+1] = p.X, p.Y
	}
	out, err := smoothCore(buf, len(v), 2, adj, opts)
	if err != nil {
		return nil, err
	}
	res := make([]r2.Vec, len(v))
	for i := range res {
		res[i] = r2.Vec{X: out[2*i], Y: out[2*i+1]}
	}
	return res, nil
}

// Smooth3 relaxes a 3D vertex set. See Smooth.
func Smooth3(v []r3.Vec, adj *Adjacency, opts ...SmoothOption) ([]r3.Vec, error) {
	buf := make([]float64, 3*len(v))
	for i, p := range v {
		buf[3*i], buf[3*i+1], buf[3*i+2] = p.X, p.Y, p.Z
	}
	out, err := smoothCore(buf, len(v), 3, adj, opts)
	if err != nil {
		return nil, err
	}
	res := make([]r3.Vec, len(v))
	for i := range res {
		res[i] = r3.Vec{X: out[3*i], Y: out[3*i+1], Z: out[3*i+2]}
	}
	return res, nil
}

func smoothCore(v []float64, n, d int, adj *Adjacency, opts []SmoothOption) ([]float64, error) {
	cfg := smoothDefaults()
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.validate(n, d); err != nil {
		return nil, err
	}
	if adj == nil {
		return nil, fmt.Errorf("gibbon: %w: nil adjacency", ErrStructure)
	}
	if adj.Len() != n {
		return nil, fmt.Errorf("gibbon: %w: adjacency has %d rows, mesh has %d vertices", ErrStructure, adj.Len(), n)
	}

	orig := v
	cur := append([]float64(nil), v...)
	next := make([]float64, len(v))

	prevSum := math.NaN()
	for it := 0; it < cfg.iterations; it++ {
		sweep(cur, next, n, d, adj, cfg.lambda, cfg.concurrent)
		for _, i := range cfg.rigid {
			copy(next[i*d:(i+1)*d], orig[i*d:(i+1)*d])
		}
		done := false
		if cfg.tolerance > 0 {
			s := sumSquaredDiff(next, cur)
			// A zero sum is a bit-level fixed point; further sweeps
			// cannot change anything.
			done = s == 0 ||
				(!math.IsNaN(prevSum) && math.Abs(1-s/prevSum) <= cfg.tolerance)
			prevSum = s
		}
		cur, next = next, cur
		if done {
			break
		}
	}
	return cur, nil
}

// sweep computes one Jacobi relaxation pass, reading cur and writing
// every row of next.
func sweep(cur, next []float64, n, d int, adj *Adjacency, lambda float64, workers int) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	// Small meshes are not worth the goroutine traffic.
	const minRows = 2048
	if n < 2*minRows {
		workers = 1
	}
	if workers == 1 {
		sweepRows(cur, next, 0, n, d, adj, lambda)
		return
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		hi := imin(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			sweepRows(cur, next, lo, hi, d, adj, lambda)
		}(lo, hi)
	}
	wg.Wait()
}

func sweepRows(cur, next []float64, lo, hi, d int, adj *Adjacency, lambda float64) {
	var sum [3]float64
	for i := lo; i < hi; i++ {
		deg := 0
		sum = [3]float64{}
		base := i * adj.slots
		for j := 0; j < adj.slots; j++ {
			if !adj.ok[base+j] {
				continue
			}
			nb := adj.idx[base+j] * d
			for k := 0; k < d; k++ {
				sum[k] += cur[nb+k]
			}
			deg++
		}
		row := i * d
		if deg == 0 {
			copy(next[row:row+d], cur[row:row+d])
			continue
		}
		inv := 1 / float64(deg)
		for k := 0; k < d; k++ {
			old := cur[row+k]
			next[row+k] = old + lambda*(sum[k]*inv-old)
		}
	}
}

// sumSquaredDiff totals the squared per-coordinate differences of a
// and b. Non-finite differences contribute zero so a stray NaN cannot
// poison the convergence measurement.
func sumSquaredDiff(a, b []float64) float64 {
	var s float64
	for i := range a {
		diff := a[i] - b[i]
		if math.IsNaN(diff) || math.IsInf(diff, 0) {
			continue
		}
		s += diff * diff
	}
	return s
}
