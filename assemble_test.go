package gibbon_test

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	gibbon "github.com/lyq911/GIBBON"
	"gonum.org/v1/gonum/spatial/r2"
)

// fanMesher triangulates a region as a fan of its outer curve,
// reproducing the curve points verbatim. Holes and spacing are
// ignored; regions whose first point reaches failX fail with errFail.
type fanMesher struct {
	failX   float64
	errFail error
}

func (f fanMesher) Triangulate(outer []r2.Vec, holes [][]r2.Vec, spacing float64, resample bool) ([]r2.Vec, [][3]int, error) {
	if f.errFail != nil && outer[0].X >= f.failX {
		return nil, nil, f.errFail
	}
	v := append([]r2.Vec(nil), outer...)
	var faces [][3]int
	for i := 1; i+1 < len(v); i++ {
		faces = append(faces, [3]int{0, i, i + 1})
	}
	return v, faces, nil
}

func square(x, y, side float64) []r2.Vec {
	return []r2.Vec{
		{X: x, Y: y}, {X: x + side, Y: y},
		{X: x + side, Y: y + side}, {X: x, Y: y + side},
	}
}

func TestAssembleSharedEdgeWelds(t *testing.T) {
	regions := []gibbon.Region{
		{Outer: square(0, 0, 1)},
		{Outer: square(1, 0, 1)},
	}
	asm, err := gibbon.AssembleRegions(regions, 1, fanMesher{})
	if err != nil {
		t.Fatal(err)
	}
	// The two copies of (1,0) and (1,1) collapse: 4+4-2 vertices.
	if len(asm.Vertices) != 6 {
		t.Fatalf("got %d vertices, want 6", len(asm.Vertices))
	}
	wantFaces := [][3]int{{0, 1, 2}, {0, 2, 3}, {1, 4, 5}, {1, 5, 2}}
	if !reflect.DeepEqual(asm.Faces, wantFaces) {
		t.Errorf("faces = %v, want %v", asm.Faces, wantFaces)
	}
	if !reflect.DeepEqual(asm.RegionID, []int{0, 0, 1, 1}) {
		t.Errorf("region labels = %v", asm.RegionID)
	}
	for fi, f := range asm.Faces {
		for _, v := range f {
			if v < 0 || v >= len(asm.Vertices) {
				t.Fatalf("face %d references vertex %d of %d", fi, v, len(asm.Vertices))
			}
		}
	}
}

func TestAssembleDisjointConserves(t *testing.T) {
	regions := []gibbon.Region{
		{Outer: square(0, 0, 1)},
		{Outer: square(5, 0, 1)},
		{Outer: square(0, 5, 1)},
	}
	asm, err := gibbon.AssembleRegions(regions, 1, fanMesher{})
	if err != nil {
		t.Fatal(err)
	}
	if len(asm.Vertices) != 12 {
		t.Errorf("got %d vertices, want 12", len(asm.Vertices))
	}
	if len(asm.Faces) != 6 || len(asm.RegionID) != 6 {
		t.Errorf("got %d faces, %d labels", len(asm.Faces), len(asm.RegionID))
	}
}

func TestAssembleEmptyRegionList(t *testing.T) {
	asm, err := gibbon.AssembleRegions(nil, 1, fanMesher{})
	if err != nil {
		t.Fatal(err)
	}
	if asm.Vertices == nil || asm.Faces == nil || asm.RegionID == nil {
		t.Fatal("empty assembly should hold empty, non-nil slices")
	}
	if len(asm.Vertices)+len(asm.Faces)+len(asm.RegionID) != 0 {
		t.Errorf("assembly not empty: %+v", asm)
	}
}

func TestAssembleReportsLowestFailingRegion(t *testing.T) {
	regions := []gibbon.Region{
		{Outer: square(0, 0, 1)},
		{Outer: square(3, 0, 1)},
		{Outer: square(6, 0, 1)},
	}
	asm, err := gibbon.AssembleRegions(regions, 1, fanMesher{failX: 3, errFail: gibbon.ErrGeometry})
	if asm != nil {
		t.Fatal("partial result returned on error")
	}
	if !errors.Is(err, gibbon.ErrGeometry) {
		t.Fatalf("got error %v", err)
	}
	if !strings.Contains(err.Error(), "region 1") {
		t.Errorf("error %q does not name region 1", err)
	}
}

func TestAssembleWorkerCountInvariant(t *testing.T) {
	var regions []gibbon.Region
	for i := 0; i < 8; i++ {
		regions = append(regions, gibbon.Region{Outer: square(float64(i), 0, 1)})
	}
	base, err := gibbon.AssembleRegions(regions, 1, fanMesher{}, gibbon.WithWorkers(1))
	if err != nil {
		t.Fatal(err)
	}
	for _, workers := range []int{2, 4, 32} {
		got, err := gibbon.AssembleRegions(regions, 1, fanMesher{}, gibbon.WithWorkers(workers))
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, base) {
			t.Fatalf("%d workers changed the assembly", workers)
		}
	}
}

func TestAssembleCollapsedFaceSuggestsDigits(t *testing.T) {
	// A face edge of 1e-9 at coordinate magnitude 5 is far below the
	// default rounding resolution, so its endpoints weld.
	region := gibbon.Region{Outer: []r2.Vec{
		{X: 0, Y: 0}, {X: 5, Y: 0}, {X: 5 + 1e-9, Y: 0}, {X: 2, Y: 3},
	}}
	asm, err := gibbon.AssembleRegions([]gibbon.Region{region}, 1, fanMesher{})
	if asm != nil {
		t.Fatal("partial result returned on error")
	}
	if !errors.Is(err, gibbon.ErrStructure) {
		t.Fatalf("got error %v", err)
	}
	if !strings.Contains(err.Error(), "suggested digits: 11") {
		t.Errorf("error %q does not carry the digit suggestion", err)
	}
}

func TestAssembleBadConfig(t *testing.T) {
	regions := []gibbon.Region{{Outer: square(0, 0, 1)}}
	for _, tc := range []struct {
		name string
		run  func() (*gibbon.Assembly, error)
	}{
		{"zero digits", func() (*gibbon.Assembly, error) {
			return gibbon.AssembleRegions(regions, 1, fanMesher{}, gibbon.WithMergeDigits(0))
		}},
		{"zero spacing", func() (*gibbon.Assembly, error) {
			return gibbon.AssembleRegions(regions, 0, fanMesher{})
		}},
		{"NaN spacing", func() (*gibbon.Assembly, error) {
			return gibbon.AssembleRegions(regions, math.NaN(), fanMesher{})
		}},
		{"infinite spacing", func() (*gibbon.Assembly, error) {
			return gibbon.AssembleRegions(regions, math.Inf(1), fanMesher{})
		}},
		{"nil triangulator", func() (*gibbon.Assembly, error) {
			return gibbon.AssembleRegions(regions, 1, nil)
		}},
	} {
		if _, err := tc.run(); !errors.Is(err, gibbon.ErrConfiguration) {
			t.Errorf("%s: got error %v", tc.name, err)
		}
	}
}

// brokenMesher returns a face index past its vertex count.
type brokenMesher struct{}

func (brokenMesher) Triangulate(outer []r2.Vec, holes [][]r2.Vec, spacing float64, resample bool) ([]r2.Vec, [][3]int, error) {
	return []r2.Vec{{}, {X: 1}, {Y: 1}}, [][3]int{{0, 1, 3}}, nil
}

func TestAssembleRejectsBadCollaboratorFaces(t *testing.T) {
	_, err := gibbon.AssembleRegions([]gibbon.Region{{Outer: square(0, 0, 1)}}, 1, brokenMesher{})
	if !errors.Is(err, gibbon.ErrStructure) {
		t.Errorf("got error %v", err)
	}
}
