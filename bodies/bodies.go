package bodies

import (
	"fmt"
	"math"
	"sort"

	"github.com/zhangyanwei699/PetIBM/mesh"
)

// Body is one immersed rigid boundary discretized as Lagrangian markers.
type Body struct {
	Name string
	X    [][3]float64
}

// Circle places n markers evenly around a circle in the xy plane.
func Circle(name string, xc, yc, r float64, n int) (*Body, error) {
	if n < 3 {
		return nil, fmt.Errorf("bodies: circle %q with %d markers", name, n)
	}
	if r <= 0 {
		return nil, fmt.Errorf("bodies: circle %q with radius %g", name, r)
	}
	b := &Body{Name: name, X: make([][3]float64, n)}
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		b.X[i] = [3]float64{xc + r*math.Cos(theta), yc + r*math.Sin(theta), 0}
	}
	return b, nil
}

// Points wraps explicitly given marker coordinates.
func Points(name string, coords [][3]float64) (*Body, error) {
	if len(coords) == 0 {
		return nil, fmt.Errorf("bodies: body %q has no markers", name)
	}
	b := &Body{Name: name, X: make([][3]float64, len(coords))}
	copy(b.X, coords)
	return b, nil
}

// Collection holds every marker of the simulation, bodies concatenated in
// order. The flattened marker list is the index space the force unknowns
// are decomposed over.
type Collection struct {
	Bodies []*Body
	X      [][3]float64
}

func NewCollection(bs ...*Body) (bc *Collection) {
	bc = &Collection{Bodies: bs}
	for _, b := range bs {
		bc.X = append(bc.X, b.X...)
	}
	return
}

func (bc *Collection) NumMarkers() int {
	if bc == nil {
		return 0
	}
	return len(bc.X)
}

// Index buckets markers by the grid cell containing them, so a kernel
// support-box query touches only nearby cells instead of scanning every
// marker. Queries return a superset of the markers in the box; callers
// apply the exact support test per marker.
type Index struct {
	grid  *mesh.Cartesian
	cells map[int][]int
}

// NewIndex locates every marker on the grid. A marker outside the domain
// is a setup error.
func NewIndex(grid *mesh.Cartesian, X [][3]float64) (*Index, error) {
	ix := &Index{grid: grid, cells: make(map[int][]int)}
	for m, x := range X {
		idx, err := Cell(grid, x)
		if err != nil {
			return nil, fmt.Errorf("bodies: marker %d: %w", m, err)
		}
		lin := mesh.LinearIndex(grid.N, idx)
		ix.cells[lin] = append(ix.cells[lin], m)
	}
	return ix, nil
}

// Cell returns the index of the grid cell containing x.
func Cell(grid *mesh.Cartesian, x [3]float64) ([3]int, error) {
	var idx [3]int
	for a := 0; a < grid.Dim; a++ {
		c, ok := locate(grid.V[a], x[a])
		if !ok {
			return idx, fmt.Errorf("bodies: point %v outside the domain in direction %d", x, a)
		}
		idx[a] = c
	}
	return idx, nil
}

// locate returns the cell containing x. A point on an interior vertex
// belongs to the lower cell; the domain end vertices belong to the end
// cells.
func locate(v []float64, x float64) (int, bool) {
	if x < v[0] || x > v[len(v)-1] {
		return 0, false
	}
	c := sort.SearchFloat64s(v, x) - 1
	if c < 0 {
		c = 0
	}
	if c > len(v)-2 {
		c = len(v) - 2
	}
	return c, true
}

// Near returns the markers bucketed in cells overlapping the box
// |x-marker| <= r per direction. The result may include markers just
// outside the box.
func (ix *Index) Near(x [3]float64, r [3]float64) (marks []int) {
	var lo, hi [3]int
	for a := 0; a < ix.grid.Dim; a++ {
		v := ix.grid.V[a]
		l, ok := locate(v, x[a]-r[a])
		if !ok {
			l = 0
		}
		h, ok := locate(v, x[a]+r[a])
		if !ok {
			h = ix.grid.N[a] - 1
		}
		lo[a], hi[a] = l, h
	}
	var idx [3]int
	for k := lo[2]; k <= hi[2]; k++ {
		for j := lo[1]; j <= hi[1]; j++ {
			for i := lo[0]; i <= hi[0]; i++ {
				idx[0], idx[1], idx[2] = i, j, k
				lin := mesh.LinearIndex(ix.grid.N, idx)
				marks = append(marks, ix.cells[lin]...)
			}
		}
	}
	return
}
