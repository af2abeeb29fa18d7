package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/zhangyanwei699/PetIBM/bodies"
	"github.com/zhangyanwei699/PetIBM/boundary"
	"github.com/zhangyanwei699/PetIBM/linsolver"
	"github.com/zhangyanwei699/PetIBM/mesh"
	"github.com/zhangyanwei699/PetIBM/solvers"
)

// Parameters obtained from the YAML input file
type SimulationParameters struct {
	Title string `yaml:"Title"`
	Dim   int    `yaml:"Dim"`

	N  []int     `yaml:"N"`  // cells per direction
	Lo []float64 `yaml:"Lo"` // domain lower corner
	Hi []float64 `yaml:"Hi"` // domain upper corner

	Nu     float64 `yaml:"Nu"`
	Dt     float64 `yaml:"Dt"`
	NSteps int     `yaml:"NSteps"`

	Convective string `yaml:"Convective"`
	Diffusive  string `yaml:"Diffusive"`

	InitialVelocity []float64 `yaml:"InitialVelocity"`

	Boundaries  map[string]BoundarySpec `yaml:"Boundaries"` // keyed by side name, xMinus through zPlus
	Solvers     map[string]SolverSpec   `yaml:"Solvers"`    // keyed by system name, velocity and poisson
	PinPressure bool                    `yaml:"PinPressure"`

	Bodies []BodySpec `yaml:"Bodies"`

	NP int `yaml:"NP"` // parallel degree

	OutputDir string `yaml:"OutputDir"`
	SaveEvery int    `yaml:"SaveEvery"`
	Restart   string `yaml:"Restart"` // checkpoint to resume from
}

type BoundarySpec struct {
	Type   string    `yaml:"Type"`
	Values []float64 `yaml:"Values"`
}

type SolverSpec struct {
	Method        string  `yaml:"Method"`
	Tolerance     float64 `yaml:"Tolerance"`
	MaxIterations int     `yaml:"MaxIterations"`
}

type BodySpec struct {
	Name       string      `yaml:"Name"`
	Type       string      `yaml:"Type"` // circle or points
	Center     []float64   `yaml:"Center"`
	Radius     float64     `yaml:"Radius"`
	NumMarkers int         `yaml:"NumMarkers"`
	Points     [][]float64 `yaml:"Points"`
}

func (sp *SimulationParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, sp)
}

func (sp *SimulationParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("[%d]\t\t\t= Dim\n", sp.Dim)
	fmt.Printf("%v\t= N\n", sp.N)
	fmt.Printf("%8.5f\t\t= Nu\n", sp.Nu)
	fmt.Printf("%8.5f\t\t= Dt\n", sp.Dt)
	fmt.Printf("[%d]\t\t\t= NSteps\n", sp.NSteps)
	fmt.Printf("[%s]\t\t\t= Convective\n", sp.Convective)
	fmt.Printf("[%s]\t\t\t= Diffusive\n", sp.Diffusive)
	keys := make([]string, len(sp.Boundaries))
	i := 0
	for k := range sp.Boundaries {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Boundaries[%s] = %v\n", key, sp.Boundaries[key])
	}
	for _, b := range sp.Bodies {
		fmt.Printf("Body[%s] = %s\n", b.Name, b.Type)
	}
}

// sideNames maps YAML keys to domain sides.
var sideNames = map[string]boundary.Side{
	"xMinus": boundary.XMin,
	"xPlus":  boundary.XMax,
	"yMinus": boundary.YMin,
	"yPlus":  boundary.YMax,
	"zMinus": boundary.ZMin,
	"zPlus":  boundary.ZMax,
}

func vec3(v []float64) (x [3]float64) {
	copy(x[:], v)
	return
}

// Build turns the parsed parameters into the stepper configuration and
// the immersed bodies, validating the schema along the way.
func (sp *SimulationParameters) Build() (cfg solvers.Config, coll *bodies.Collection, err error) {
	if sp.Dim != 2 && sp.Dim != 3 {
		return cfg, nil, fmt.Errorf("parameters: Dim %d", sp.Dim)
	}
	if len(sp.N) != sp.Dim || len(sp.Lo) != sp.Dim || len(sp.Hi) != sp.Dim {
		return cfg, nil, fmt.Errorf("parameters: N, Lo and Hi must each have %d entries", sp.Dim)
	}
	var (
		n      [3]int
		lo, hi [3]float64
	)
	copy(n[:], sp.N)
	copy(lo[:], sp.Lo)
	copy(hi[:], sp.Hi)
	grid, err := mesh.Uniform(sp.Dim, n, lo, hi)
	if err != nil {
		return cfg, nil, err
	}

	conds := make(map[boundary.Side]boundary.Condition)
	for name, spec := range sp.Boundaries {
		side, ok := sideNames[name]
		if !ok {
			return cfg, nil, fmt.Errorf("parameters: unknown boundary side %q", name)
		}
		kind, err := boundary.ParseKind(spec.Type)
		if err != nil {
			return cfg, nil, err
		}
		conds[side] = boundary.Condition{Kind: kind, Values: vec3(spec.Values)}
	}
	bc, err := boundary.New(sp.Dim, conds)
	if err != nil {
		return cfg, nil, err
	}

	convective, err := solvers.ParseScheme(sp.Convective)
	if err != nil {
		return cfg, nil, err
	}
	diffusive, err := solvers.ParseScheme(sp.Diffusive)
	if err != nil {
		return cfg, nil, err
	}

	mkSolver := func(name string) (*linsolver.Solver, error) {
		spec, ok := sp.Solvers[name]
		if !ok {
			return nil, fmt.Errorf("parameters: solver %q not configured", name)
		}
		return linsolver.New(name, spec.Method, linsolver.Options{
			Tolerance:     spec.Tolerance,
			MaxIterations: spec.MaxIterations,
		})
	}
	velocity, err := mkSolver("velocity")
	if err != nil {
		return cfg, nil, err
	}
	poisson, err := mkSolver("poisson")
	if err != nil {
		return cfg, nil, err
	}

	var bs []*bodies.Body
	for _, spec := range sp.Bodies {
		var b *bodies.Body
		switch spec.Type {
		case "circle":
			if len(spec.Center) < 2 {
				return cfg, nil, fmt.Errorf("parameters: circle %q needs a 2D center", spec.Name)
			}
			b, err = bodies.Circle(spec.Name, spec.Center[0], spec.Center[1], spec.Radius, spec.NumMarkers)
		case "points":
			pts := make([][3]float64, len(spec.Points))
			for i, p := range spec.Points {
				pts[i] = vec3(p)
			}
			b, err = bodies.Points(spec.Name, pts)
		default:
			return cfg, nil, fmt.Errorf("parameters: body %q has unknown type %q", spec.Name, spec.Type)
		}
		if err != nil {
			return cfg, nil, err
		}
		bs = append(bs, b)
	}
	if len(bs) > 0 {
		coll = bodies.NewCollection(bs...)
	}

	cfg = solvers.Config{
		Grid:            grid,
		BC:              bc,
		NP:              sp.NP,
		Nu:              sp.Nu,
		Dt:              sp.Dt,
		Convective:      convective,
		Diffusive:       diffusive,
		Velocity:        velocity,
		Poisson:         poisson,
		PinPressure:     sp.PinPressure,
		InitialVelocity: vec3(sp.InitialVelocity),
	}
	return cfg, coll, nil
}
