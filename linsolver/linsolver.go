package linsolver

import (
	"fmt"
	"strings"

	"github.com/vladimir-ch/iterative"
	"gonum.org/v1/gonum/floats"
)

// Options are the reconfigurable knobs of one solver instance.
type Options struct {
	Tolerance     float64
	MaxIterations int
}

// Result carries the diagnostics of one solve.
type Result struct {
	Iterations int
	Residual   float64
}

// Solver is a named iterative-solver handle. The algorithm behind it is
// opaque to the stepper: matrix action goes in as a closure, a solution
// with iteration count and final residual comes out, and non-convergence
// comes back as an error naming the instance. An optional null-space
// vector is removed from the right-hand side before the solve and from the
// solution after it.
type Solver struct {
	Name string
	Opts Options
	Null []float64

	work []float64
}

// New builds a solver instance. The conjugate-gradient method is the one
// method carried; both systems this solver faces are symmetric.
func New(name, method string, opts Options) (*Solver, error) {
	if m := strings.ToLower(strings.TrimSpace(method)); m != "cg" {
		return nil, fmt.Errorf("solver %s: unknown method %q", name, method)
	}
	return &Solver{Name: name, Opts: opts}, nil
}

// SetNull attaches the normalized null-space vector removed on both sides
// of every solve.
func (s *Solver) SetNull(null []float64) { s.Null = null }

// Solve runs the method on the operator closure and right-hand side b,
// writing the solution into x.
func (s *Solver) Solve(mul func(dst, src []float64), b, x []float64) (Result, error) {
	if len(b) != len(x) {
		return Result{}, fmt.Errorf("solver %s: rhs length %d, solution length %d", s.Name, len(b), len(x))
	}
	rhs := b
	if s.Null != nil {
		if len(s.Null) != len(b) {
			return Result{}, fmt.Errorf("solver %s: null vector length %d, system size %d", s.Name, len(s.Null), len(b))
		}
		if s.work == nil {
			s.work = make([]float64, len(b))
		}
		copy(s.work, b)
		floats.AddScaled(s.work, -floats.Dot(s.Null, s.work), s.Null)
		rhs = s.work
	}
	res, err := iterative.LinearSolve(iterative.MatrixOps{MatVec: mul}, rhs, &iterative.CG{},
		iterative.Settings{
			Tolerance:     s.Opts.Tolerance,
			MaxIterations: s.Opts.MaxIterations,
		})
	if err != nil {
		return Result{}, fmt.Errorf("solver %s: %w", s.Name, err)
	}
	copy(x, res.X)
	if s.Null != nil {
		floats.AddScaled(x, -floats.Dot(s.Null, x), s.Null)
	}
	return Result{Iterations: res.Stats.Iterations, Residual: res.Stats.ResidualNorm}, nil
}
