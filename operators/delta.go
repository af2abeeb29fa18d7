package operators

import "math"

// Delta1 is the one-dimensional three-point regularized delta of Roma,
// Peskin and Berger for offset x and spacing h. Support is |x| < 1.5h; the
// three pieces meet continuously at |x|/h = 0.5 and 1.5 and the square-root
// arguments stay nonnegative on their pieces.
func Delta1(x, h float64) float64 {
	r := math.Abs(x) / h
	switch {
	case r > 1.5:
		return 0
	case r > 0.5:
		return (5 - 3*r - math.Sqrt(-3*(1-r)*(1-r)+1)) / (6 * h)
	default:
		return (1 + math.Sqrt(-3*r*r+1)) / (3 * h)
	}
}

// Delta is the dim-dimensional product kernel for offset dx with
// per-direction spacings h.
func Delta(dim int, dx, h [3]float64) (d float64) {
	d = 1
	for a := 0; a < dim; a++ {
		d *= Delta1(dx[a], h[a])
	}
	return
}
