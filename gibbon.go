// Package gibbon provides mesh preprocessing primitives for finite
// element work: Laplacian relaxation of vertex positions under rigid
// constraints, and assembly of independently triangulated 2D regions
// into one mesh with shared boundary vertices welded.
package gibbon

func imin(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func imax(a, b int) int {
	if a > b {
		return a
	}
	return b
}
