package solvers

import (
	"sync"

	"github.com/zhangyanwei699/PetIBM/boundary"
	"github.com/zhangyanwei699/PetIBM/mesh"
)

// wallValue returns the value of velocity component comp on the wall of
// axis w, at the position fixed by the remaining indices of idx. Dirichlet
// walls carry the prescribed component directly; Neumann walls extrapolate
// from the nearest unknown of comp along w with the prescribed outward
// derivative. idx[w] is ignored and may be out of range.
func wallValue(l *mesh.Layout, bc *boundary.Set, q []float64, comp, w int, max bool, idx [3]int) float64 {
	kind, v := bc.Value(w, max, comp)
	if kind == boundary.Dirichlet {
		return v
	}
	var (
		g  = l.Grid
		nb = idx
		d  float64
	)
	if comp == w {
		// the nearest unknown is an interior face one cell off the wall
		if max {
			nb[w] = g.FaceN(comp)[w] - 1
			d = g.V[w][g.N[w]] - g.V[w][g.N[w]-1]
		} else {
			nb[w] = 0
			d = g.V[w][1] - g.V[w][0]
		}
	} else {
		// across the staggering the nearest unknown sits at the first
		// cell center off the wall
		if max {
			nb[w] = g.N[w] - 1
			d = g.V[w][g.N[w]] - g.C[w][g.N[w]-1]
		} else {
			nb[w] = 0
			d = g.C[w][0] - g.V[w][0]
		}
	}
	return q[l.VelRow(comp, nb)] + v*d
}

// faceOrWall reads component c of q at face index fi along its own axis,
// cross indices from idx, standing in the wall value beyond the unknown
// range.
func faceOrWall(l *mesh.Layout, bc *boundary.Set, q []float64, c int, idx [3]int, fi int) float64 {
	nb := idx
	nb[c] = fi
	if fi < 0 {
		return wallValue(l, bc, q, c, c, false, nb)
	}
	if fi >= l.Grid.FaceN(c)[c] {
		return wallValue(l, bc, q, c, c, true, nb)
	}
	return q[l.VelRow(c, nb)]
}

// Convective evaluates the conservative-form convective term of every
// velocity unknown of the packed field q into conv. For component a the
// term sums d(u_a u_c)/dx_c over directions c: the derivative along the
// component axis differences the squared cell-center averages of u_a, and
// each cross derivative differences the u_a u_c flux between the two cell
// corners straddling the face. Corners landing on a wall take the wall
// values of both factors.
func Convective(l *mesh.Layout, bc *boundary.Set, q, conv []float64) {
	var (
		g  = l.Grid
		wg sync.WaitGroup
	)
	for np := 0; np < l.NP; np++ {
		wg.Add(1)
		go func(bn int) {
			defer wg.Done()
			for c := 0; c < g.Dim; c++ {
				var (
					rowStart, linStart, count = l.QCompRange(bn, c)
					fn                        = g.FaceN(c)
				)
				for o := 0; o < count; o++ {
					idx := mesh.Unflatten(fn, linStart+o)
					conv[rowStart+o] = convectiveAt(l, bc, q, c, idx)
				}
			}
		}(np)
	}
	wg.Wait()
}

func convectiveAt(l *mesh.Layout, bc *boundary.Set, q []float64, a int, idx [3]int) (sum float64) {
	g := l.Grid

	// normal term: u_a averaged to the two flanking cell centers, squared,
	// differenced over the center distance
	{
		var (
			k  = idx[a]
			uW = faceOrWall(l, bc, q, a, idx, k-1)
			u0 = faceOrWall(l, bc, q, a, idx, k)
			uE = faceOrWall(l, bc, q, a, idx, k+1)
			mW = 0.5 * (uW + u0)
			mE = 0.5 * (u0 + uE)
		)
		sum += (mE*mE - mW*mW) / (g.C[a][k+1] - g.C[a][k])
	}

	// cross terms: fluxes at the corners offset a half cell along c
	for c := 0; c < g.Dim; c++ {
		if c == a {
			continue
		}
		var (
			jc  = idx[c]
			fnc = g.FaceN(c)[c]
		)
		// uaAt averages u_a across the corner at c-vertex vc; a corner on
		// a wall takes the wall value of u_a exactly.
		uaAt := func(vc int) float64 {
			if vc == 0 {
				nb := idx
				nb[c] = 0
				return wallValue(l, bc, q, a, c, false, nb)
			}
			if vc == g.N[c] {
				nb := idx
				nb[c] = g.N[c] - 1
				return wallValue(l, bc, q, a, c, true, nb)
			}
			nbL, nbH := idx, idx
			nbL[c], nbH[c] = vc-1, vc
			return 0.5 * (q[l.VelRow(a, nbL)] + q[l.VelRow(a, nbH)])
		}
		// ucAt averages u_c across the corner at c-vertex vc: the c-face
		// at that vertex, sampled at the two cells flanking the a-face.
		ucAt := func(vc int) float64 {
			var (
				kc = vc - 1
				s  float64
			)
			for _, ka := range [2]int{idx[a], idx[a] + 1} {
				nb := idx
				nb[a] = ka
				nb[c] = kc
				switch {
				case kc < 0:
					s += wallValue(l, bc, q, c, c, false, nb)
				case kc >= fnc:
					s += wallValue(l, bc, q, c, c, true, nb)
				default:
					s += q[l.VelRow(c, nb)]
				}
			}
			return 0.5 * s
		}
		var (
			fluxM = uaAt(jc) * ucAt(jc)
			fluxP = uaAt(jc+1) * ucAt(jc+1)
		)
		sum += (fluxP - fluxM) / g.H[c][jc]
	}
	return
}
