package solvers

import (
	"fmt"
	"math"
	"sync"

	"github.com/zhangyanwei699/PetIBM/bodies"
	"github.com/zhangyanwei699/PetIBM/boundary"
	"github.com/zhangyanwei699/PetIBM/linsolver"
	"github.com/zhangyanwei699/PetIBM/mesh"
	"github.com/zhangyanwei699/PetIBM/operators"
	"github.com/zhangyanwei699/PetIBM/utils"
	"gonum.org/v1/gonum/floats"
)

// Config collects everything a stepper needs at construction.
type Config struct {
	Grid *mesh.Cartesian
	BC   *boundary.Set
	NP   int // parallel degree, defaults to 1

	Nu float64 // kinematic viscosity
	Dt float64 // time-step size

	Convective Scheme // must be fully explicit
	Diffusive  Scheme

	Velocity *linsolver.Solver
	Poisson  *linsolver.Solver

	// PinPressure fixes the first pressure unknown instead of projecting
	// the constant mode out of the Poisson system. The two policies are
	// mutually exclusive and chosen here once.
	PinPressure bool

	InitialVelocity [3]float64

	// Hook, when set, is called with the stage name as each stage starts;
	// the returned closure runs when the stage completes. Nil disables
	// instrumentation.
	Hook func(stage string) func()
}

// Stages holds the five phases of one time step behind swappable
// functions. Advance runs them strictly in order; solver variants replace
// individual entries at construction and never after.
type Stages struct {
	AssembleRHSVelocity func() error
	SolveVelocity       func() error
	AssembleRHSPoisson  func() error
	SolvePoisson        func() error
	ProjectionStep      func() error
}

// NavierStokes advances the incompressible fractional-step system: an
// intermediate velocity solve ignoring the divergence constraint, a
// Poisson solve for the pressure correction, and a projection subtracting
// the scaled gradient of that correction. The pressure field accumulates
// the corrections across steps. Operators are assembled once at
// construction and shared read-only by every step; only the solution state
// and the term histories mutate.
type NavierStokes struct {
	Grid   *mesh.Cartesian
	Layout *mesh.Layout
	BC     *boundary.Set

	Nu, Dt     float64
	Convective Scheme
	Diffusive  Scheme

	velocity *linsolver.Solver
	poisson  *linsolver.Solver
	hook     func(string) func()

	L     *utils.DistMat // velocity Laplacian
	BCL   []float64      // boundary correction of L
	A     *utils.DistMat // implicit velocity system
	BN    []float64      // inverse diagonal of A
	G     *utils.DistMat // pressure gradient, unscaled
	QT    *utils.DistMat // divergence and interpolation, exact adjoint of the coupling
	BNQ   *utils.DistMat // BN-scaled coupling
	QTBNQ *utils.DistMat // Poisson / saddle-point matrix
	pin   int            // pinned pressure row, -1 when the null space is projected out

	U      []float64 // packed velocity
	UStar  []float64 // intermediate velocity
	P      []float64 // multiplier-shaped accumulated pressure, force rows stay zero
	Lambda []float64 // last solved correction and multiplier forces
	Step   int
	Time   float64

	convHist [][]float64 // newest first
	diffHist [][]float64

	rhs1, rhs2 []float64
	bc2        []float64
	termBuf    []float64
	qWork      []float64
	stages     Stages
	chart      ChartState

	VelocityIterations int
	PoissonIterations  int
	VelocityResidual   float64
	PoissonResidual    float64
}

// NewNavierStokes builds the stepper without immersed bodies.
func NewNavierStokes(cfg Config) (*NavierStokes, error) {
	ns, err := newStepper(cfg, nil, nil)
	if err != nil {
		return nil, err
	}
	ns.stages = Stages{
		AssembleRHSVelocity: ns.assembleRHSVelocity,
		SolveVelocity:       ns.solveVelocity,
		AssembleRHSPoisson:  ns.assembleRHSPoisson,
		SolvePoisson:        ns.solvePoisson,
		ProjectionStep:      ns.projectionStep,
	}
	return ns, nil
}

// newStepper builds the layout, operators and state shared by every
// variant. marks and ix are nil without bodies.
func newStepper(cfg Config, marks [][3]float64, ix *bodies.Index) (*NavierStokes, error) {
	switch {
	case cfg.Grid == nil:
		return nil, fmt.Errorf("solvers: no grid")
	case cfg.BC == nil:
		return nil, fmt.Errorf("solvers: no boundary conditions")
	case cfg.BC.Dim != cfg.Grid.Dim:
		return nil, fmt.Errorf("solvers: %dD conditions on a %dD grid", cfg.BC.Dim, cfg.Grid.Dim)
	case cfg.Dt <= 0:
		return nil, fmt.Errorf("solvers: time step %g", cfg.Dt)
	case cfg.Nu <= 0:
		return nil, fmt.Errorf("solvers: viscosity %g", cfg.Nu)
	case cfg.Velocity == nil || cfg.Poisson == nil:
		return nil, fmt.Errorf("solvers: both linear solvers must be configured")
	case cfg.Convective.ThetaImplicit() != 0:
		return nil, fmt.Errorf("solvers: convective scheme %v has an implicit part", cfg.Convective)
	}
	for a := 0; a < cfg.Grid.Dim; a++ {
		if cfg.Grid.N[a] < 2 {
			return nil, fmt.Errorf("solvers: direction %d has %d cells, need at least 2", a, cfg.Grid.N[a])
		}
	}
	np := cfg.NP
	if np == 0 {
		np = 1
	}
	layout, err := mesh.NewLayout(cfg.Grid, np, len(marks))
	if err != nil {
		return nil, err
	}
	ns := &NavierStokes{
		Grid:       cfg.Grid,
		Layout:     layout,
		BC:         cfg.BC,
		Nu:         cfg.Nu,
		Dt:         cfg.Dt,
		Convective: cfg.Convective,
		Diffusive:  cfg.Diffusive,
		velocity:   cfg.Velocity,
		poisson:    cfg.Poisson,
		hook:       cfg.Hook,
		pin:        -1,
	}
	if cfg.PinPressure {
		ns.pin = layout.PRow([3]int{})
	}
	ns.createOperators(marks, ix)
	ns.initState(cfg.InitialVelocity)
	return ns, nil
}

// createOperators assembles the fixed operators: Laplacian with boundary
// correction, implicit system, coupling operator with its exact transpose
// taken before the diagonal scaling, and the projected Poisson matrix.
// The null-space policy is wired here, exactly once.
func (ns *NavierStokes) createOperators(marks [][3]float64, ix *bodies.Index) {
	ns.L, ns.BCL = operators.Laplacian(ns.Layout, ns.BC)
	ns.A = operators.Implicit(ns.L, ns.Dt, ns.Nu, ns.Diffusive.ThetaImplicit())
	ns.BN = ns.A.DiagInv()
	ns.G = operators.Coupling(ns.Layout, nil, nil)
	q := operators.Coupling(ns.Layout, marks, ix)
	ns.QT = q.Transpose()
	q.ScaleRows(ns.BN)
	ns.BNQ = q
	ns.QTBNQ = utils.MatMul(ns.QT, ns.BNQ)
	if ns.pin >= 0 {
		ns.QTBNQ.ZeroRowCol(ns.pin, 1)
	} else {
		ns.poisson.SetNull(operators.NullVector(ns.Layout))
	}
}

func (ns *NavierStokes) initState(u0 [3]float64) {
	var (
		nq = ns.Layout.NQ()
		nl = ns.Layout.NLambda()
	)
	ns.U = make([]float64, nq)
	ns.UStar = make([]float64, nq)
	ns.rhs1 = make([]float64, nq)
	ns.termBuf = make([]float64, nq)
	ns.qWork = make([]float64, nq)
	ns.P = make([]float64, nl)
	ns.Lambda = make([]float64, nl)
	ns.rhs2 = make([]float64, nl)
	ns.bc2 = make([]float64, nl)
	for bn := 0; bn < ns.Layout.NP; bn++ {
		for c := 0; c < ns.Grid.Dim; c++ {
			rowStart, _, count := ns.Layout.QCompRange(bn, c)
			for o := 0; o < count; o++ {
				ns.U[rowStart+o] = u0[c]
			}
		}
	}
}

func noop() {}

// Advance steps the state by one time increment, running the five stages
// strictly in order. A failing stage aborts the step with its error
// wrapped in the stage name; the state is left as of the last completed
// stage.
func (ns *NavierStokes) Advance() error {
	seq := []struct {
		name string
		run  func() error
	}{
		{"assembleRHSVelocity", ns.stages.AssembleRHSVelocity},
		{"solveVelocity", ns.stages.SolveVelocity},
		{"assembleRHSPoisson", ns.stages.AssembleRHSPoisson},
		{"solvePoisson", ns.stages.SolvePoisson},
		{"projectionStep", ns.stages.ProjectionStep},
	}
	for _, st := range seq {
		done := noop
		if ns.hook != nil {
			if f := ns.hook(st.name); f != nil {
				done = f
			}
		}
		if err := st.run(); err != nil {
			return fmt.Errorf("advance step %d, %s: %w", ns.Step, st.name, err)
		}
		done()
	}
	ns.Step++
	ns.Time += ns.Dt
	return nil
}

// pushTerm copies the newest term to the front of hist, dropping the
// oldest once depth entries are held. Zero depth keeps no history.
func pushTerm(hist [][]float64, depth int, term []float64) [][]float64 {
	if depth == 0 {
		return hist
	}
	var buf []float64
	if len(hist) < depth {
		buf = make([]float64, len(term))
		hist = append(hist, nil)
	} else {
		buf = hist[len(hist)-1]
	}
	copy(buf, term)
	copy(hist[1:], hist[:len(hist)-1])
	hist[0] = buf
	return hist
}

// addWeighted accumulates scale * sum_k gamma_k hist[k] into dst. A
// history still shorter than the scheme depth falls back to the
// single-step weights, the cold start of a multi-step scheme.
func addWeighted(dst []float64, scale float64, s Scheme, hist [][]float64) {
	w := s.Gamma()
	if len(hist) < len(w) {
		w = EulerExplicit.Gamma()
	}
	for k, g := range w {
		floats.AddScaled(dst, scale*g, hist[k])
	}
}

// assembleRHSVelocity rotates the newest convective and diffusive terms
// into their histories, then combines them with the scheme weights, the
// gradient of the accumulated pressure and the boundary contribution of
// the implicit operator.
func (ns *NavierStokes) assembleRHSVelocity() error {
	Convective(ns.Layout, ns.BC, ns.U, ns.termBuf)
	ns.convHist = pushTerm(ns.convHist, len(ns.Convective.Gamma()), ns.termBuf)

	ns.L.MulVec(ns.termBuf, ns.U)
	floats.Add(ns.termBuf, ns.BCL)
	ns.diffHist = pushTerm(ns.diffHist, len(ns.Diffusive.Gamma()), ns.termBuf)

	ns.G.MulVec(ns.qWork, ns.P)
	thetaI := ns.Diffusive.ThetaImplicit()
	for i := range ns.rhs1 {
		ns.rhs1[i] = ns.U[i]/ns.Dt - ns.qWork[i] + ns.Nu*thetaI*ns.BCL[i]
	}
	addWeighted(ns.rhs1, -1, ns.Convective, ns.convHist)
	addWeighted(ns.rhs1, ns.Nu, ns.Diffusive, ns.diffHist)
	return nil
}

func (ns *NavierStokes) solveVelocity() error {
	res, err := ns.velocity.Solve(ns.A.MulVec, ns.rhs1, ns.UStar)
	if err != nil {
		return err
	}
	ns.VelocityIterations = res.Iterations
	ns.VelocityResidual = res.Residual
	return nil
}

// assembleRHSPoisson forms the divergence defect of the intermediate
// velocity: the unknown-face divergence minus the known boundary fluxes.
// With bodies present the interpolation rows of QT land the no-slip
// defect on the force rows of the same vector.
func (ns *NavierStokes) assembleRHSPoisson() error {
	ns.QT.MulVec(ns.rhs2, ns.UStar)
	ns.boundaryFlux(ns.bc2, ns.UStar)
	floats.Sub(ns.rhs2, ns.bc2)
	if ns.pin >= 0 {
		ns.rhs2[ns.pin] = 0
	}
	return nil
}

func (ns *NavierStokes) solvePoisson() error {
	res, err := ns.poisson.Solve(ns.QTBNQ.MulVec, ns.rhs2, ns.Lambda)
	if err != nil {
		return err
	}
	ns.PoissonIterations = res.Iterations
	ns.PoissonResidual = res.Residual
	return nil
}

// projectionStep corrects the intermediate velocity with the scaled
// coupling action of the solved multipliers and accumulates the pressure
// correction into the stored pressure.
func (ns *NavierStokes) projectionStep() error {
	ns.BNQ.MulVec(ns.qWork, ns.Lambda)
	for i := range ns.U {
		ns.U[i] = ns.UStar[i] - ns.qWork[i]
	}
	for bn := 0; bn < ns.Layout.NP; bn++ {
		rowStart, _, count := ns.Layout.CellRange(bn)
		for o := 0; o < count; o++ {
			ns.P[rowStart+o] += ns.Lambda[rowStart+o]
		}
	}
	return nil
}

// boundaryFlux writes the known-face divergence contributions into dst,
// signed the way the divergence carries them: negative on minus walls,
// positive on plus walls. Neumann walls extrapolate the normal component
// from q, so outflow faces lag the field they are assembled against.
func (ns *NavierStokes) boundaryFlux(dst []float64, q []float64) {
	g := ns.Grid
	for i := range dst {
		dst[i] = 0
	}
	var wg sync.WaitGroup
	for np := 0; np < ns.Layout.NP; np++ {
		wg.Add(1)
		go func(bn int) {
			defer wg.Done()
			rowStart, linStart, count := ns.Layout.CellRange(bn)
			for o := 0; o < count; o++ {
				var (
					idx = mesh.Unflatten(g.N, linStart+o)
					s   float64
					hit bool
				)
				for a := 0; a < g.Dim; a++ {
					if idx[a] == 0 {
						s -= wallValue(ns.Layout, ns.BC, q, a, a, false, idx)
						hit = true
					}
					if idx[a] == g.N[a]-1 {
						s += wallValue(ns.Layout, ns.BC, q, a, a, true, idx)
						hit = true
					}
				}
				if hit {
					dst[rowStart+o] = s
				}
			}
		}(np)
	}
	wg.Wait()
}

// Divergence returns the max-norm divergence defect of the current
// velocity over all pressure cells, boundary fluxes included.
func (ns *NavierStokes) Divergence() float64 {
	var (
		div = make([]float64, ns.Layout.NLambda())
		bcd = make([]float64, ns.Layout.NLambda())
		max float64
	)
	ns.QT.MulVec(div, ns.U)
	ns.boundaryFlux(bcd, ns.U)
	for bn := 0; bn < ns.Layout.NP; bn++ {
		rowStart, _, count := ns.Layout.CellRange(bn)
		for o := 0; o < count; o++ {
			if d := math.Abs(div[rowStart+o] - bcd[rowStart+o]); d > max {
				max = d
			}
		}
	}
	return max
}

// VelocityAt samples component c of the current velocity at face idx.
func (ns *NavierStokes) VelocityAt(c int, idx [3]int) float64 {
	return ns.U[ns.Layout.VelRow(c, idx)]
}

// PressureAt returns the accumulated pressure at cell idx.
func (ns *NavierStokes) PressureAt(idx [3]int) float64 {
	return ns.P[ns.Layout.PRow(idx)]
}

// Destroy drops the assembled operators and state vectors so their memory
// can be reclaimed while the driver still holds the stepper. The stepper
// must not be advanced afterwards.
func (ns *NavierStokes) Destroy() {
	ns.L, ns.A, ns.G, ns.QT, ns.BNQ, ns.QTBNQ = nil, nil, nil, nil, nil, nil
	ns.BCL, ns.BN = nil, nil
	ns.U, ns.UStar, ns.P, ns.Lambda = nil, nil, nil, nil
	ns.rhs1, ns.rhs2, ns.bc2, ns.termBuf, ns.qWork = nil, nil, nil, nil, nil
	ns.convHist, ns.diffHist = nil, nil
	ns.stages = Stages{}
}
