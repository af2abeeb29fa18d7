/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/zhangyanwei699/PetIBM/InputParameters"
	"github.com/zhangyanwei699/PetIBM/solvers"
)

type ModelSolve struct {
	ParamFile  string
	Graph      bool
	GraphField int
	PlotSteps  int
	Delay      time.Duration
	Profile    bool
}

// Simulation is what the time loop needs from either stepper variant.
type Simulation interface {
	Advance() error
	Divergence() float64
	LogIterations(w io.Writer) error
	WriteVTK(path string) error
	WriteRestart(path string) error
	ReadRestart(path string) error
	PlotSolution(pm *solvers.PlotMeta, width, height int)
	Destroy()
}

// SolveCmd represents the solve command
var SolveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Time-advance the flow described by a YAML parameter file",
	Long:  `Time-advance the flow described by a YAML parameter file`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		fmt.Println("solve called")
		ms := &ModelSolve{}
		if ms.ParamFile, err = cmd.Flags().GetString("inputConditionsFile"); err != nil {
			panic(err)
		}
		ms.Graph, _ = cmd.Flags().GetBool("graph")
		ms.GraphField, _ = cmd.Flags().GetInt("graphField")
		ps, _ := cmd.Flags().GetInt("plotSteps")
		ms.PlotSteps = ps
		dr, _ := cmd.Flags().GetInt("delay")
		ms.Delay = time.Duration(time.Duration(dr) * time.Millisecond)
		ms.Profile, _ = cmd.Flags().GetBool("profile")
		sp := processInput(ms)
		RunSolve(ms, sp)
	},
}

func processInput(ms *ModelSolve) (sp *InputParameters.SimulationParameters) {
	var (
		err error
	)
	if len(ms.ParamFile) == 0 {
		err := fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Lid-driven cavity"
Dim: 2
N: [32, 32]
Lo: [0., 0.]
Hi: [1., 1.]
Nu: 0.01
Dt: 0.005
NSteps: 1000
Convective: adams_bashforth_2
Diffusive: crank_nicolson
Boundaries:
  xMinus: {Type: dirichlet}
  xPlus:  {Type: dirichlet}
  yMinus: {Type: dirichlet}
  yPlus:  {Type: dirichlet, Values: [1., 0.]}
Solvers:
  velocity: {Method: cg, Tolerance: 1.e-8, MaxIterations: 5000}
  poisson:  {Method: cg, Tolerance: 1.e-8, MaxIterations: 5000}
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(ms.ParamFile); err != nil {
		panic(err)
	}
	sp = &InputParameters.SimulationParameters{}
	if err = sp.Parse(data); err != nil {
		panic(err)
	}
	return
}

func init() {
	rootCmd.AddCommand(SolveCmd)
	SolveCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Nu\n\t- Dt\n\t- Boundaries")
	SolveCmd.Flags().BoolP("graph", "g", false, "display a graph while computing solution")
	SolveCmd.Flags().IntP("delay", "d", 0, "milliseconds of delay for plotting")
	SolveCmd.Flags().IntP("plotSteps", "s", 1, "number of steps before plotting each frame")
	SolveCmd.Flags().IntP("graphField", "q", 0, "which field should be displayed - 0=pressure, 1,2=velocities, 3=speed")
	SolveCmd.Flags().Bool("profile", false, "write a CPU profile of the run")
}

func RunSolve(ms *ModelSolve, sp *InputParameters.SimulationParameters) {
	var (
		err error
		sim Simulation
	)
	sp.Print()
	cfg, coll, err := sp.Build()
	if err != nil {
		panic(err)
	}
	var tc *solvers.TairaColonius
	if coll != nil {
		if tc, err = solvers.NewTairaColonius(cfg, coll); err != nil {
			panic(err)
		}
		sim = tc
	} else {
		var ns *solvers.NavierStokes
		if ns, err = solvers.NewNavierStokes(cfg); err != nil {
			panic(err)
		}
		sim = ns
	}
	if sp.Restart != "" {
		if err = sim.ReadRestart(sp.Restart); err != nil {
			panic(err)
		}
		fmt.Printf("restarted from %s\n", sp.Restart)
	}
	if ms.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	var (
		logW    io.Writer = io.Discard
		forcesW io.Writer = io.Discard
	)
	if sp.OutputDir != "" {
		if err = os.MkdirAll(sp.OutputDir, 0755); err != nil {
			panic(err)
		}
		logFile, err := os.Create(filepath.Join(sp.OutputDir, "iterations.txt"))
		if err != nil {
			panic(err)
		}
		defer logFile.Close()
		logW = logFile
		if tc != nil {
			forcesFile, err := os.Create(filepath.Join(sp.OutputDir, "forces.txt"))
			if err != nil {
				panic(err)
			}
			defer forcesFile.Close()
			forcesW = forcesFile
		}
	}

	pm := &solvers.PlotMeta{
		Plot:            ms.Graph,
		Field:           solvers.PlotField(ms.GraphField),
		Scale:           1.1,
		FrameTime:       ms.Delay,
		StepsBeforePlot: ms.PlotSteps,
	}
	start := time.Now()
	for n := 1; n <= sp.NSteps; n++ {
		if err = sim.Advance(); err != nil {
			panic(err)
		}
		if err = sim.LogIterations(logW); err != nil {
			panic(err)
		}
		if tc != nil {
			fmt.Fprintf(forcesW, "%g\t%.6e\t%.6e\t%.6e\n",
				tc.Time, tc.Forces[0], tc.Forces[1], tc.Forces[2])
		}
		if sp.SaveEvery > 0 && n%sp.SaveEvery == 0 {
			saveState(sim, tc, sp, n)
		}
		if ms.Graph && n%pm.StepsBeforePlot == 0 {
			sim.PlotSolution(pm, 1920, 1080)
		}
	}
	elapsed := time.Since(start)
	if sp.OutputDir != "" {
		saveState(sim, tc, sp, sp.NSteps)
	}
	fmt.Printf("%d steps, divergence %10.3e, elapsed %s\n",
		sp.NSteps, sim.Divergence(), elapsed)
	sim.Destroy()
}

func saveState(sim Simulation, tc *solvers.TairaColonius, sp *InputParameters.SimulationParameters, n int) {
	if sp.OutputDir == "" {
		return
	}
	if err := sim.WriteVTK(filepath.Join(sp.OutputDir, fmt.Sprintf("step%06d.vtk", n))); err != nil {
		panic(err)
	}
	if err := sim.WriteRestart(filepath.Join(sp.OutputDir, "restart.gob")); err != nil {
		panic(err)
	}
	fmt.Printf("step %6d saved", n)
	if tc != nil {
		fmt.Printf("  fx,fy = %9.5f,%9.5f", tc.Forces[0], tc.Forces[1])
	}
	fmt.Printf("\n")
}
