package solvers

import (
	"fmt"
	"math"

	"github.com/zhangyanwei699/PetIBM/bodies"
)

// TairaColonius couples the fractional-step system to immersed rigid
// bodies. The multiplier space gains one force unknown per marker and
// component, the coupling operator gains the regularization block built
// from the delta kernel, and the combined solve enforces no-slip at the
// markers together with incompressibility. Bodies are stationary; their
// markers never move after construction.
type TairaColonius struct {
	*NavierStokes

	Bodies *bodies.Collection

	// Forces is the per-component force the fluid exerts on the bodies,
	// refreshed by every projection step.
	Forces [3]float64

	markVol []float64
}

// NewTairaColonius builds the coupled stepper from the base configuration
// and the immersed bodies.
func NewTairaColonius(cfg Config, coll *bodies.Collection) (*TairaColonius, error) {
	if coll.NumMarkers() == 0 {
		return nil, fmt.Errorf("solvers: immersed-boundary stepper without markers")
	}
	if cfg.Grid == nil {
		return nil, fmt.Errorf("solvers: no grid")
	}
	ix, err := bodies.NewIndex(cfg.Grid, coll.X)
	if err != nil {
		return nil, err
	}
	ns, err := newStepper(cfg, coll.X, ix)
	if err != nil {
		return nil, err
	}
	tc := &TairaColonius{NavierStokes: ns, Bodies: coll}
	tc.markVol = make([]float64, len(coll.X))
	for m, x := range coll.X {
		idx, err := bodies.Cell(cfg.Grid, x)
		if err != nil {
			return nil, err
		}
		vol := 1.0
		for a := 0; a < cfg.Grid.Dim; a++ {
			vol *= cfg.Grid.H[a][idx[a]]
		}
		tc.markVol[m] = vol
	}
	ns.stages = Stages{
		AssembleRHSVelocity: ns.assembleRHSVelocity,
		SolveVelocity:       ns.solveVelocity,
		AssembleRHSPoisson:  ns.assembleRHSPoisson,
		SolvePoisson:        ns.solvePoisson,
		ProjectionStep:      tc.projectionStep,
	}
	return tc, nil
}

// projectionStep applies the base correction, then reduces the solved
// multipliers to the total force on the bodies, each marker weighted by
// the volume of the cell it sits in.
func (tc *TairaColonius) projectionStep() error {
	if err := tc.NavierStokes.projectionStep(); err != nil {
		return err
	}
	tc.Forces = [3]float64{}
	for bn := 0; bn < tc.Layout.NP; bn++ {
		for c := 0; c < tc.Grid.Dim; c++ {
			rowStart, markStart, count := tc.Layout.ForceRange(bn, c)
			for o := 0; o < count; o++ {
				tc.Forces[c] += tc.markVol[markStart+o] * tc.Lambda[rowStart+o]
			}
		}
	}
	return nil
}

// Destroy releases the marker weights along with the base stepper state.
func (tc *TairaColonius) Destroy() {
	tc.markVol = nil
	tc.NavierStokes.Destroy()
}

// ConstraintDefect returns the max-norm interpolated velocity at the
// markers, the residual of the no-slip constraint the projection enforces.
func (tc *TairaColonius) ConstraintDefect() float64 {
	var (
		v   = make([]float64, tc.Layout.NLambda())
		max float64
	)
	tc.QT.MulVec(v, tc.U)
	for bn := 0; bn < tc.Layout.NP; bn++ {
		for c := 0; c < tc.Grid.Dim; c++ {
			rowStart, _, count := tc.Layout.ForceRange(bn, c)
			for o := 0; o < count; o++ {
				if d := math.Abs(v[rowStart+o]); d > max {
					max = d
				}
			}
		}
	}
	return max
}
