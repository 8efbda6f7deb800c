package gibbon

import (
	"fmt"
	"sort"
)

// Adjacency is a rectangular vertex neighbor table. Row i holds the
// neighbor indices of vertex i; rows shorter than the widest row are
// padded with a -1 sentinel and a parallel validity mask marks the
// slots that hold real neighbors. Slot order carries no meaning.
type Adjacency struct {
	n     int
	slots int
	idx   []int  // n*slots entries, -1 where unused
	ok    []bool // n*slots entries, true where idx holds a neighbor
}

// NewAdjacency builds the rectangular table from per-vertex neighbor
// lists for a mesh of n vertices. neighbors may have fewer than n
// rows; missing rows get degree zero. Every listed index must lie in
// [0,n).
func NewAdjacency(neighbors [][]int, n int) (*Adjacency, error) {
	if n < 0 {
		return nil, fmt.Errorf("gibbon: %w: vertex count %d", ErrConfiguration, n)
	}
	if len(neighbors) > n {
		return nil, fmt.Errorf("gibbon: %w: %d neighbor rows for %d vertices", ErrStructure, len(neighbors), n)
	}
	slots := 0
	for _, row := range neighbors {
		if len(row) > slots {
			slots = len(row)
		}
	}
	a := &Adjacency{
		n:     n,
		slots: slots,
		idx:   make([]int, n*slots),
		ok:    make([]bool, n*slots),
	}
	for i := range a.idx {
		a.idx[i] = -1
	}
	for i, row := range neighbors {
		for j, v := range row {
			if v < 0 || v >= n {
				return nil, fmt.Errorf("gibbon: %w: neighbor %d of vertex %d outside [0,%d)", ErrStructure, v, i, n)
			}
			a.idx[i*slots+j] = v
			a.ok[i*slots+j] = true
		}
	}
	return a, nil
}

// AdjacencyFromFaces derives the 1-ring neighbor table of a triangle
// mesh with n vertices: two vertices are neighbors when a face edge
// connects them. Vertices referenced by no face keep degree zero.
func AdjacencyFromFaces(n int, faces [][3]int) (*Adjacency, error) {
	ring, err := oneRing(n, faces)
	if err != nil {
		return nil, err
	}
	return NewAdjacency(ring, n)
}

func oneRing(n int, faces [][3]int) ([][]int, error) {
	ring := make([][]int, n)
	for fi, f := range faces {
		for _, v := range f {
			if v < 0 || v >= n {
				return nil, fmt.Errorf("gibbon: %w: face %d references vertex %d, have %d vertices", ErrStructure, fi, v, n)
			}
		}
		for e := 0; e < 3; e++ {
			a, b := f[e], f[(e+1)%3]
			ring[a] = appendUnique(ring[a], b)
			ring[b] = appendUnique(ring[b], a)
		}
	}
	return ring, nil
}

// appendUnique relies on vertex degrees staying small; a linear scan
// beats a map here.
func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// Len returns the number of vertex rows.
func (a *Adjacency) Len() int { return a.n }

// Slots returns the table width.
func (a *Adjacency) Slots() int { return a.slots }

// Degree returns the number of valid neighbors of vertex i.
func (a *Adjacency) Degree(i int) int {
	deg := 0
	for _, v := range a.ok[i*a.slots : (i+1)*a.slots] {
		if v {
			deg++
		}
	}
	return deg
}

// Neighbors appends the valid neighbors of vertex i to buf and
// returns the result.
func (a *Adjacency) Neighbors(i int, buf []int) []int {
	base := i * a.slots
	for j := 0; j < a.slots; j++ {
		if a.ok[base+j] {
			buf = append(buf, a.idx[base+j])
		}
	}
	return buf
}

// BoundaryEdges returns the face edges used by exactly one face, each
// in its original orientation, in first-encounter order.
func BoundaryEdges(faces [][3]int) [][2]int {
	count := make(map[[2]int]int, 3*len(faces))
	first := make(map[[2]int][2]int, 3*len(faces))
	var order [][2]int
	for _, f := range faces {
		for e := 0; e < 3; e++ {
			a, b := f[e], f[(e+1)%3]
			k := [2]int{a, b}
			if k[0] > k[1] {
				k[0], k[1] = k[1], k[0]
			}
			if _, seen := count[k]; !seen {
				order = append(order, k)
				first[k] = [2]int{a, b}
			}
			count[k]++
		}
	}
	var edges [][2]int
	for _, k := range order {
		if count[k] == 1 {
			edges = append(edges, first[k])
		}
	}
	return edges
}

// BoundaryVertices returns the sorted vertex indices that lie on a
// boundary edge.
func BoundaryVertices(faces [][3]int) []int {
	on := make(map[int]bool)
	for _, e := range BoundaryEdges(faces) {
		on[e[0]] = true
		on[e[1]] = true
	}
	vs := make([]int, 0, len(on))
	for v := range on {
		vs = append(vs, v)
	}
	sort.Ints(vs)
	return vs
}
