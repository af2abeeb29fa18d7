package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangyanwei699/PetIBM/solvers"
)

var cavityYAML = []byte(`
Title: Lid-driven cavity
Dim: 2
N: [8, 8]
Lo: [0., 0.]
Hi: [1., 1.]
Nu: 0.01
Dt: 0.005
NSteps: 10
Convective: adams_bashforth_2
Diffusive: crank_nicolson
Boundaries:
  xMinus: {Type: dirichlet}
  xPlus:  {Type: dirichlet}
  yMinus: {Type: dirichlet}
  yPlus:  {Type: dirichlet, Values: [1., 0.]}
Solvers:
  velocity: {Method: cg, Tolerance: 1.e-12, MaxIterations: 20000}
  poisson:  {Method: cg, Tolerance: 1.e-12, MaxIterations: 20000}
PinPressure: true
NP: 2
OutputDir: out
SaveEvery: 5
`)

func TestParse(t *testing.T) {
	var input SimulationParameters
	require.NoError(t, input.Parse(cavityYAML))
	assert.Equal(t, "Lid-driven cavity", input.Title)
	assert.Equal(t, 2, input.Dim)
	assert.Equal(t, []int{8, 8}, input.N)
	assert.Equal(t, 0.01, input.Nu)
	assert.Equal(t, 10, input.NSteps)
	assert.Equal(t, []float64{1, 0}, input.Boundaries["yPlus"].Values)
	assert.Equal(t, 1e-12, input.Solvers["poisson"].Tolerance)
	assert.True(t, input.PinPressure)
	input.Print()
}

func TestBuildCavity(t *testing.T) {
	var input SimulationParameters
	require.NoError(t, input.Parse(cavityYAML))
	cfg, coll, err := input.Build()
	require.NoError(t, err)
	assert.Nil(t, coll)
	assert.Equal(t, solvers.AdamsBashforth2, cfg.Convective)
	assert.Equal(t, solvers.CrankNicolson, cfg.Diffusive)
	assert.Equal(t, [3]int{8, 8, 1}, cfg.Grid.N)
	assert.True(t, cfg.PinPressure)

	// the configuration drives a working stepper
	ns, err := solvers.NewNavierStokes(cfg)
	require.NoError(t, err)
	require.NoError(t, ns.Advance())
	assert.Less(t, ns.Divergence(), 1e-10)
}

func TestBuildBodies(t *testing.T) {
	var input SimulationParameters
	require.NoError(t, input.Parse(cavityYAML))
	input.Bodies = []BodySpec{
		{Name: "cylinder", Type: "circle", Center: []float64{0.5, 0.5}, Radius: 0.2, NumMarkers: 10},
		{Name: "probe", Type: "points", Points: [][]float64{{0.2, 0.3}, {0.8, 0.7}}},
	}
	cfg, coll, err := input.Build()
	require.NoError(t, err)
	require.NotNil(t, coll)
	assert.Equal(t, 12, coll.NumMarkers())

	tc, err := solvers.NewTairaColonius(cfg, coll)
	require.NoError(t, err)
	require.NoError(t, tc.Advance())
	assert.Less(t, tc.ConstraintDefect(), 1e-8)
}

func TestBuildRejectsBadInput(t *testing.T) {
	parse := func(t *testing.T, tweak func(*SimulationParameters)) error {
		var input SimulationParameters
		require.NoError(t, input.Parse(cavityYAML))
		tweak(&input)
		_, _, err := input.Build()
		return err
	}
	{ // wrong dimension
		err := parse(t, func(sp *SimulationParameters) { sp.Dim = 4 })
		assert.Error(t, err)
	}
	{ // extent lists must match the dimension
		err := parse(t, func(sp *SimulationParameters) { sp.N = []int{8} })
		assert.Error(t, err)
	}
	{ // unknown boundary side
		err := parse(t, func(sp *SimulationParameters) {
			sp.Boundaries["north"] = BoundarySpec{Type: "dirichlet"}
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "north")
	}
	{ // unknown time scheme
		err := parse(t, func(sp *SimulationParameters) { sp.Convective = "leapfrog" })
		assert.Error(t, err)
	}
	{ // both systems need a configured solver
		err := parse(t, func(sp *SimulationParameters) { delete(sp.Solvers, "poisson") })
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "poisson")
	}
	{ // unknown body type
		err := parse(t, func(sp *SimulationParameters) {
			sp.Bodies = []BodySpec{{Name: "blob", Type: "square"}}
		})
		assert.Error(t, err)
	}
}
