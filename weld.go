package gibbon

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vertex welding. Coincidence is decided by rounding coordinates to a
// number of significant decimal digits, not by exact comparison:
// independently triangulated pieces reproduce shared boundary points
// only up to floating point noise.

// DefaultMergeDigits is the significant decimal digit count used for
// welding when none is configured.
const DefaultMergeDigits = 5

// RoundSignificant rounds x to the given number of significant
// decimal digits. Zero and non-finite values pass through unchanged.
func RoundSignificant(x float64, digits int) float64 {
	if x == 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	m := math.Pow(10, float64(digits)-math.Ceil(math.Log10(math.Abs(x))))
	return math.Round(x*m) / m
}

// MergeVertices2 welds vertices of a 2D mesh whose coordinates agree
// after rounding to digits significant decimal digits. The first
// occurrence of each coincidence class is the retained
// representative; faces are remapped onto the retained vertices and
// duplicate rows dropped, preserving the relative order of the rest.
// The returned remap maps every old index to its new index so callers
// can remap parallel per-vertex data.
//
// Welding is a heuristic with a precision/recall tradeoff: vertices
// that are merely close also merge when their rounded coordinates
// collide. Non-finite coordinates never merge.
func MergeVertices2(v []r2.Vec, faces [][3]int, digits int) ([]r2.Vec, [][3]int, []int, error) {
	if digits <= 0 {
		return nil, nil, nil, fmt.Errorf("gibbon: %w: merge digits %d, need a positive count", ErrConfiguration, digits)
	}
	keys := make([][3]float64, len(v))
	for i, p := range v {
		keys[i] = [3]float64{
			RoundSignificant(p.X, digits),
			RoundSignificant(p.Y, digits),
			0,
		}
	}
	remap, keep := weldClasses(keys)
	fm, err := remapFaces(faces, remap, len(v))
	if err != nil {
		return nil, nil, nil, err
	}
	vm := make([]r2.Vec, len(keep))
	for i, src := range keep {
		vm[i] = v[src]
	}
	return vm, fm, remap, nil
}

// MergeVertices3 is MergeVertices2 for 3D meshes.
func MergeVertices3(v []r3.Vec, faces [][3]int, digits int) ([]r3.Vec, [][3]int, []int, error) {
	if digits <= 0 {
		return nil, nil, nil, fmt.Errorf("gibbon: %w: merge digits %d, need a positive count", ErrConfiguration, digits)
	}
	keys := make([][3]float64, len(v))
	for i, p := range v {
		keys[i] = [3]float64{
			RoundSignificant(p.X, digits),
			RoundSignificant(p.Y, digits),
			RoundSignificant(p.Z, digits),
		}
	}
	remap, keep := weldClasses(keys)
	fm, err := remapFaces(faces, remap, len(v))
	if err != nil {
		return nil, nil, nil, err
	}
	vm := make([]r3.Vec, len(keep))
	for i, src := range keep {
		vm[i] = v[src]
	}
	return vm, fm, remap, nil
}

// weldClasses groups equal keys. remap maps each input index to its
// class; keep lists the first input index of every class in encounter
// order. NaN keys never compare equal to anything, including
// themselves, so every NaN vertex lands in its own class.
func weldClasses(keys [][3]float64) (remap, keep []int) {
	remap = make([]int, len(keys))
	class := make(map[[3]float64]int, len(keys))
	for i, k := range keys {
		if j, seen := class[k]; seen {
			remap[i] = j
			continue
		}
		j := len(keep)
		class[k] = j
		keep = append(keep, i)
		remap[i] = j
	}
	return remap, keep
}

func remapFaces(faces [][3]int, remap []int, n int) ([][3]int, error) {
	out := make([][3]int, len(faces))
	for fi, f := range faces {
		for e, v := range f {
			if v < 0 || v >= n {
				return nil, fmt.Errorf("gibbon: %w: face %d references vertex %d, have %d vertices", ErrStructure, fi, v, n)
			}
			out[fi][e] = remap[v]
		}
	}
	return out, nil
}
