package solvers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangyanwei699/PetIBM/boundary"
	"github.com/zhangyanwei699/PetIBM/mesh"
)

// uniformBC prescribes the same Dirichlet velocity on every side.
func uniformBC(t *testing.T, dim int, v [3]float64) *boundary.Set {
	conds := make(map[boundary.Side]boundary.Condition)
	for a := 0; a < dim; a++ {
		conds[boundary.SideOf(a, false)] = boundary.Condition{Kind: boundary.Dirichlet, Values: v}
		conds[boundary.SideOf(a, true)] = boundary.Condition{Kind: boundary.Dirichlet, Values: v}
	}
	bc, err := boundary.New(dim, conds)
	require.NoError(t, err)
	return bc
}

// fillField evaluates f at every face position of every component.
func fillField(l *mesh.Layout, f func(c int, x [3]float64) float64) []float64 {
	q := make([]float64, l.NQ())
	g := l.Grid
	for c := 0; c < g.Dim; c++ {
		fn := g.FaceN(c)
		for lin := 0; lin < g.NumFaces(c); lin++ {
			idx := mesh.Unflatten(fn, lin)
			q[l.VelRow(c, idx)] = f(c, g.FaceCoord(c, idx))
		}
	}
	return q
}

func TestWallValue(t *testing.T) {
	grid, err := mesh.Uniform(2, [3]int{4, 4, 1}, [3]float64{0, 0, 0}, [3]float64{1, 1, 1})
	require.NoError(t, err)
	l, err := mesh.NewLayout(grid, 1, 0)
	require.NoError(t, err)
	{ // Dirichlet walls return the prescribed component
		bc := uniformBC(t, 2, [3]float64{2.5, -1, 0})
		assert.Equal(t, 2.5, wallValue(l, bc, nil, 0, 0, false, [3]int{0, 1, 0}))
		assert.Equal(t, -1.0, wallValue(l, bc, nil, 1, 0, true, [3]int{0, 1, 0}))
	}
	{ // Neumann walls extrapolate from the nearest unknown
		conds := map[boundary.Side]boundary.Condition{
			boundary.XMin: {Kind: boundary.Dirichlet},
			boundary.XMax: {Kind: boundary.Neumann, Values: [3]float64{3, 5, 0}},
			boundary.YMin: {Kind: boundary.Dirichlet},
			boundary.YMax: {Kind: boundary.Dirichlet},
		}
		bc, err := boundary.New(2, conds)
		require.NoError(t, err)
		q := make([]float64, l.NQ())
		q[l.VelRow(0, [3]int{2, 1, 0})] = 7 // last u face before the x-max wall
		q[l.VelRow(1, [3]int{3, 1, 0})] = 4 // last v column before the x-max wall
		// the u face is one cell off the wall, the v column half a cell
		assert.InDelta(t, 7+3*0.25, wallValue(l, bc, q, 0, 0, true, [3]int{0, 1, 0}), 1e-14)
		assert.InDelta(t, 4+5*0.125, wallValue(l, bc, q, 1, 0, true, [3]int{9, 1, 0}), 1e-14)
	}
}

func TestConvectiveExactness(t *testing.T) {
	{ // a constant field with matching walls has no convection anywhere
		verts := []float64{0, 0.1, 0.25, 0.45, 0.7, 1} // uneven spacing on purpose
		grid, err := mesh.NewCartesian(verts, []float64{0, 0.2, 0.5, 0.9, 1.4})
		require.NoError(t, err)
		l, err := mesh.NewLayout(grid, 2, 0)
		require.NoError(t, err)
		bc := uniformBC(t, 2, [3]float64{1.5, -0.75, 0})
		q := fillField(l, func(c int, x [3]float64) float64 {
			return [3]float64{1.5, -0.75, 0}[c]
		})
		conv := make([]float64, l.NQ())
		Convective(l, bc, q, conv)
		for row, v := range conv {
			assert.InDelta(t, 0.0, v, 1e-13, "row %d", row)
		}
	}
	{ // an impulsively started cavity has zero convection on the first step
		grid, err := mesh.Uniform(2, [3]int{8, 8, 1}, [3]float64{0, 0, 0}, [3]float64{1, 1, 1})
		require.NoError(t, err)
		l, err := mesh.NewLayout(grid, 1, 0)
		require.NoError(t, err)
		conds := map[boundary.Side]boundary.Condition{
			boundary.XMin: {Kind: boundary.Dirichlet},
			boundary.XMax: {Kind: boundary.Dirichlet},
			boundary.YMin: {Kind: boundary.Dirichlet},
			boundary.YMax: {Kind: boundary.Dirichlet, Values: [3]float64{1, 0, 0}},
		}
		bc, err := boundary.New(2, conds)
		require.NoError(t, err)
		q := make([]float64, l.NQ())
		conv := make([]float64, l.NQ())
		Convective(l, bc, q, conv)
		for row, v := range conv {
			assert.Equal(t, 0.0, v, "row %d", row)
		}
	}
	{ // the scheme differentiates linear divergence-free fields exactly
		// away from the walls: for u = a+bx, v = g-by the convective terms
		// collapse to b*u and -b*v
		const a, b, g = 0.3, 0.7, -0.2
		grid, err := mesh.Uniform(2, [3]int{8, 8, 1}, [3]float64{0, 0, 0}, [3]float64{1, 1, 1})
		require.NoError(t, err)
		l, err := mesh.NewLayout(grid, 3, 0)
		require.NoError(t, err)
		bc := uniformBC(t, 2, [3]float64{})
		field := func(c int, x [3]float64) float64 {
			if c == 0 {
				return a + b*x[0]
			}
			return g - b*x[1]
		}
		q := fillField(l, field)
		conv := make([]float64, l.NQ())
		Convective(l, bc, q, conv)
		for _, c := range []int{0, 1} {
			fn := grid.FaceN(c)
			for lin := 0; lin < grid.NumFaces(c); lin++ {
				idx := mesh.Unflatten(fn, lin)
				if idx[0] == 0 || idx[0] == fn[0]-1 || idx[1] == 0 || idx[1] == fn[1]-1 {
					continue
				}
				var (
					x    = grid.FaceCoord(c, idx)
					want = b * field(c, x)
				)
				if c == 1 {
					want = -b * field(c, x)
				}
				assert.InDelta(t, want, conv[l.VelRow(c, idx)], 1e-12, "component %d at %v", c, idx)
			}
		}
	}
	{ // same property in three dimensions
		const a, b, g, d, e = 0.4, 0.6, -0.1, 0.25, 0.05
		grid, err := mesh.Uniform(3, [3]int{6, 6, 6}, [3]float64{0, 0, 0}, [3]float64{1, 1, 1})
		require.NoError(t, err)
		l, err := mesh.NewLayout(grid, 2, 0)
		require.NoError(t, err)
		bc := uniformBC(t, 3, [3]float64{})
		field := func(c int, x [3]float64) float64 {
			switch c {
			case 0:
				return a + b*x[0]
			case 1:
				return g + d*x[1]
			}
			return e - (b+d)*x[2]
		}
		q := fillField(l, field)
		conv := make([]float64, l.NQ())
		Convective(l, bc, q, conv)
		factors := [3]float64{b, d, -(b + d)}
		for c := 0; c < 3; c++ {
			fn := grid.FaceN(c)
			for lin := 0; lin < grid.NumFaces(c); lin++ {
				idx := mesh.Unflatten(fn, lin)
				interior := true
				for axis := 0; axis < 3; axis++ {
					if idx[axis] == 0 || idx[axis] == fn[axis]-1 {
						interior = false
					}
				}
				if !interior {
					continue
				}
				var (
					x    = grid.FaceCoord(c, idx)
					want = factors[c] * field(c, x)
				)
				assert.InDelta(t, want, conv[l.VelRow(c, idx)], 1e-12, "component %d at %v", c, idx)
			}
		}
	}
}
