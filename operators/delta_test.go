package operators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelta1(t *testing.T) {
	{ // Compact support: exactly zero at and beyond 1.5h
		for _, h := range []float64{0.5, 1, 0.0625} {
			for _, r := range []float64{1.5, 1.5000001, 2, 10} {
				assert.Equal(t, 0.0, Delta1(r*h, h))
				assert.Equal(t, 0.0, Delta1(-r*h, h))
			}
			assert.Greater(t, Delta1(1.4999*h, h), 0.0)
		}
	}
	{ // Pieces meet continuously at r = 0.5 and r = 1.5
		h := 0.1
		eps := 1e-9
		assert.InDelta(t, Delta1((0.5-eps)*h, h), Delta1((0.5+eps)*h, h), 1e-6)
		assert.InDelta(t, Delta1((1.5-eps)*h, h), 0.0, 1e-6)
		assert.InDelta(t, 0.5/h, Delta1(0.5*h, h), 1e-12)
	}
	{ // Even symmetry and peak value 2/(3h)
		h := 0.2
		for _, x := range []float64{0.01, 0.07, 0.13, 0.25} {
			assert.Equal(t, Delta1(x, h), Delta1(-x, h))
		}
		assert.InDelta(t, 2.0/(3*h), Delta1(0, h), 1e-14)
	}
	{ // Discrete partition of unity: sum over the lattice times h is 1
		h := 0.25
		for _, shift := range []float64{0, 0.1 * h, 0.37 * h, 0.5 * h} {
			var sum float64
			for j := -3; j <= 3; j++ {
				sum += h * Delta1(shift-float64(j)*h, h)
			}
			assert.InDelta(t, 1.0, sum, 1e-12)
		}
	}
	{ // Product kernel peaks at Delta1(0,h)^dim
		h := [3]float64{0.1, 0.1, 0.1}
		want2 := Delta1(0, 0.1) * Delta1(0, 0.1)
		assert.InDelta(t, want2, Delta(2, [3]float64{}, h), 1e-14)
		want3 := want2 * Delta1(0, 0.1)
		assert.InDelta(t, want3, Delta(3, [3]float64{}, h), 1e-14)
	}
}
