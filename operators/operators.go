package operators

import (
	"github.com/zhangyanwei699/PetIBM/boundary"
	"github.com/zhangyanwei699/PetIBM/mesh"
	"github.com/zhangyanwei699/PetIBM/utils"
)

// Laplacian assembles the velocity Laplacian L and its boundary correction
// vector, so that L q + bcL approximates the second derivatives of the
// velocity field under the prescribed conditions. The correction collects
// every stencil term contributed by a boundary value: prescribed face
// values along the staggered direction, wall values a half cell away
// across it, and prescribed normal derivatives in place of the dropped
// neighbor coefficient.
func Laplacian(l *mesh.Layout, bc *boundary.Set) (L *utils.DistMat, bcL []float64) {
	g := l.Grid
	bcL = make([]float64, l.NQ())
	L = utils.BuildDistMat(l.Q, l.Q, func(bn int, emit func(int, []int, []float64)) {
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
					row   = rowStart + o
					idx   = mesh.Unflatten(fn, linStart+o)
					diag  float64
					bcSum float64
				)
				cols, vals = cols[:0], vals[:0]
				for a := 0; a < g.Dim; a++ {
					var (
						ia     = idx[a]
						na     = fn[a]
						dW, dE float64
						hc     float64
					)
					if a == c {
						dW = g.H[a][ia]
						dE = g.H[a][ia+1]
						hc = 0.5 * (dW + dE)
					} else {
						hc = g.H[a][ia]
						if ia > 0 {
							dW = g.C[a][ia] - g.C[a][ia-1]
						} else {
							dW = g.C[a][0] - g.V[a][0]
						}
						if ia < na-1 {
							dE = g.C[a][ia+1] - g.C[a][ia]
						} else {
							dE = g.V[a][g.N[a]] - g.C[a][na-1]
						}
					}
					var (
						coefW = 1 / (dW * hc)
						coefE = 1 / (dE * hc)
					)
					if ia > 0 {
						nb := idx
						nb[a]--
						cols = append(cols, l.VelRow(c, nb))
						vals = append(vals, coefW)
						diag -= coefW
					} else {
						kind, v := bc.Value(a, false, c)
						switch kind {
						case boundary.Dirichlet:
							bcSum += coefW * v
							diag -= coefW
						case boundary.Neumann:
							bcSum += v / hc
						}
					}
					if ia < na-1 {
						nb := idx
						nb[a]++
						cols = append(cols, l.VelRow(c, nb))
						vals = append(vals, coefE)
						diag -= coefE
					} else {
						kind, v := bc.Value(a, true, c)
						switch kind {
						case boundary.Dirichlet:
							bcSum += coefE * v
							diag -= coefE
						case boundary.Neumann:
							bcSum += v / hc
						}
					}
				}
				cols = append(cols, row)
				vals = append(vals, diag)
				bcL[row] = bcSum
				emit(row, cols, vals)
			}
		}
	})
	return
}

// Implicit forms the velocity system matrix (1/dt) I - nu*theta*L over the
// Laplacian's pattern, theta being the implicit weight of the diffusive
// scheme.
func Implicit(L *utils.DistMat, dt, nu, theta float64) *utils.DistMat {
	return utils.BuildDistMat(L.Rows, L.Cols, func(bn int, emit func(int, []int, []float64)) {
		var (
			rMin, rMax = L.Rows.GetBucketRange(bn)
			vals       []float64
		)
		for row := rMin; row < rMax; row++ {
			lc, lv := L.Row(row)
			vals = vals[:0]
			for k, v := range lv {
				val := -nu * theta * v
				if lc[k] == row {
					val += 1 / dt
				}
				vals = append(vals, val)
			}
			emit(row, lc, vals)
		}
	})
}
