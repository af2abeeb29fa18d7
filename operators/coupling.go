package operators

import (
	"math"

	"github.com/zhangyanwei699/PetIBM/bodies"
	"github.com/zhangyanwei699/PetIBM/mesh"
	"github.com/zhangyanwei699/PetIBM/utils"
)

// Coupling assembles Q = [G | R]: for every velocity unknown, the gradient
// block holds the exact -1/+1 pair on the two pressure cells its face
// separates, and the regularization block holds one weighted entry per
// marker whose position falls inside the kernel support box of the
// unknown. Weights are the product over directions of h*Delta1(dx,h) with
// the local spacings. Passing a nil index assembles the gradient alone.
//
// Every column, pressure or marker, runs through the same count-then-fill
// protocol, so the operator is allocated with exact per-row
// diagonal/off-diagonal widths before any value lands.
func Coupling(l *mesh.Layout, marks [][3]float64, ix *bodies.Index) *utils.DistMat {
	g := l.Grid
	return utils.BuildDistMat(l.Q, l.Lambda, func(bn int, emit func(int, []int, []float64)) {
		var (
			cols []int
			vals []float64
		)
		for c := 0; c < g.Dim; c++ {
			var (
				rowStart, linStart, count = l.QCompRange(bn, c)
				fn                        = g.FaceN(c)
			)
			for o := 0; o < count; o++ {
				var (
					row = rowStart + o
					idx = mesh.Unflatten(fn, linStart+o)
				)
				cols, vals = cols[:0], vals[:0]
				east := idx
				east[c]++
				cols = append(cols, l.PRow(idx), l.PRow(east))
				vals = append(vals, -1, 1)
				if ix != nil {
					var (
						x = g.FaceCoord(c, idx)
						h [3]float64
						r [3]float64
					)
					for a := 0; a < g.Dim; a++ {
						if a == c {
							h[a] = 0.5 * (g.H[a][idx[a]] + g.H[a][idx[a]+1])
						} else {
							h[a] = g.H[a][idx[a]]
						}
						r[a] = 1.5 * h[a]
					}
					for _, m := range ix.Near(x, r) {
						var (
							wgt = 1.0
							in  = true
						)
						for a := 0; a < g.Dim; a++ {
							dx := x[a] - marks[m][a]
							if math.Abs(dx) >= 1.5*h[a] {
								in = false
								break
							}
							wgt *= h[a] * Delta1(dx, h[a])
						}
						if !in {
							continue
						}
						cols = append(cols, l.ForceRow(c, m))
						vals = append(vals, wgt)
					}
				}
				emit(row, cols, vals)
			}
		}
	})
}

// NullVector is the normalized constant-pressure vector spanning the null
// space of the Poisson/saddle operator when no reference pressure is
// pinned: ones over the pressure rows, zeros over the force rows.
func NullVector(l *mesh.Layout) (v []float64) {
	v = make([]float64, l.NLambda())
	s := 1 / math.Sqrt(float64(l.Grid.NumCells()))
	for bn := 0; bn < l.NP; bn++ {
		rowStart, _, count := l.CellRange(bn)
		for o := 0; o < count; o++ {
			v[rowStart+o] = s
		}
	}
	return
}
