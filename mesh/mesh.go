package mesh

import "fmt"

// Cartesian is a structured staggered grid. Vertex coordinates delimit the
// cells; pressure unknowns live at cell centers and each velocity component
// lives on the interior faces normal to its direction. Boundary faces carry
// prescribed values and are not unknowns. A 2D grid is stored as one cell
// thick in z with unit metrics so the index arithmetic stays
// dimension-generic.
type Cartesian struct {
	Dim int
	N   [3]int       // cells per direction, N[2] == 1 in 2D
	V   [3][]float64 // vertex coordinates, len N[d]+1
	C   [3][]float64 // cell centers, len N[d]
	H   [3][]float64 // cell widths, len N[d]
}

// NewCartesian builds a grid from per-direction vertex coordinates. Two
// coordinate lists make a 2D grid, three make a 3D grid. Coordinates must
// be strictly ascending with at least two entries per direction.
func NewCartesian(vertices ...[]float64) (g *Cartesian, err error) {
	if len(vertices) != 2 && len(vertices) != 3 {
		return nil, fmt.Errorf("mesh: need 2 or 3 coordinate directions, have %d", len(vertices))
	}
	g = &Cartesian{Dim: len(vertices)}
	if g.Dim == 2 {
		vertices = append(vertices, []float64{0, 1})
	}
	for d, v := range vertices {
		if len(v) < 2 {
			return nil, fmt.Errorf("mesh: direction %d has %d vertices, need at least 2", d, len(v))
		}
		for i := 1; i < len(v); i++ {
			if v[i] <= v[i-1] {
				return nil, fmt.Errorf("mesh: direction %d vertices not ascending at %d (%g after %g)",
					d, i, v[i], v[i-1])
			}
		}
		n := len(v) - 1
		g.N[d] = n
		g.V[d] = v
		g.C[d] = make([]float64, n)
		g.H[d] = make([]float64, n)
		for i := 0; i < n; i++ {
			g.C[d][i] = 0.5 * (v[i] + v[i+1])
			g.H[d][i] = v[i+1] - v[i]
		}
	}
	return g, nil
}

// Uniform builds an evenly spaced grid with n cells per direction over
// [lo,hi]. Only the first dim entries of n, lo and hi are read.
func Uniform(dim int, n [3]int, lo, hi [3]float64) (*Cartesian, error) {
	line := func(d int) ([]float64, error) {
		if n[d] < 1 {
			return nil, fmt.Errorf("mesh: direction %d has %d cells", d, n[d])
		}
		if hi[d] <= lo[d] {
			return nil, fmt.Errorf("mesh: direction %d extent [%g,%g] is empty", d, lo[d], hi[d])
		}
		v := make([]float64, n[d]+1)
		h := (hi[d] - lo[d]) / float64(n[d])
		for i := range v {
			v[i] = lo[d] + float64(i)*h
		}
		v[n[d]] = hi[d]
		return v, nil
	}
	var verts [][]float64
	for d := 0; d < dim; d++ {
		v, err := line(d)
		if err != nil {
			return nil, err
		}
		verts = append(verts, v)
	}
	return NewCartesian(verts...)
}

// FaceN returns the unknown counts per direction for velocity component c.
func (g *Cartesian) FaceN(c int) (n [3]int) {
	n = g.N
	n[c]--
	return
}

func (g *Cartesian) NumCells() int { return g.N[0] * g.N[1] * g.N[2] }

func (g *Cartesian) NumFaces(c int) int {
	n := g.FaceN(c)
	return n[0] * n[1] * n[2]
}

func (g *Cartesian) NumVelocity() (total int) {
	for c := 0; c < g.Dim; c++ {
		total += g.NumFaces(c)
	}
	return
}

// FaceCoord returns the position of velocity unknown idx of component c:
// a vertex coordinate along the component axis, cell centers across.
func (g *Cartesian) FaceCoord(c int, idx [3]int) (x [3]float64) {
	for a := 0; a < 3; a++ {
		if a == c {
			x[a] = g.V[a][idx[a]+1]
		} else {
			x[a] = g.C[a][idx[a]]
		}
	}
	return
}

// CellCoord returns the center position of pressure cell idx.
func (g *Cartesian) CellCoord(idx [3]int) (x [3]float64) {
	for a := 0; a < 3; a++ {
		x[a] = g.C[a][idx[a]]
	}
	return
}

// LinearIndex flattens idx inside a sub-grid of shape n, first direction
// fastest.
func LinearIndex(n, idx [3]int) int {
	return idx[0] + n[0]*(idx[1]+n[1]*idx[2])
}

// Unflatten inverts LinearIndex for shape n.
func Unflatten(n [3]int, lin int) (idx [3]int) {
	idx[0] = lin % n[0]
	lin /= n[0]
	idx[1] = lin % n[1]
	idx[2] = lin / n[1]
	return
}
