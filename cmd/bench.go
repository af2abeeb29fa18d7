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
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhangyanwei699/PetIBM/InputParameters"
)

// BenchCmd represents the bench command
var BenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Canned Benchmark Problem Solutions",
	Long: `
Runs classic incompressible flow benchmarks with built-in parameters,

PetIBM bench `,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("bench called")
		mr, _ := cmd.Flags().GetInt("model")
		model := ModelType(mr)
		n, _ := cmd.Flags().GetInt("n")
		re, _ := cmd.Flags().GetFloat64("Re")
		dt, _ := cmd.Flags().GetFloat64("dt")
		steps, _ := cmd.Flags().GetInt("steps")
		np, _ := cmd.Flags().GetInt("np")
		dt = LimitDt(model, n, dt)
		ms := &ModelSolve{}
		ms.Graph, _ = cmd.Flags().GetBool("graph")
		ms.GraphField, _ = cmd.Flags().GetInt("graphField")
		ms.PlotSteps, _ = cmd.Flags().GetInt("plotSteps")
		dr, _ := cmd.Flags().GetInt("delay")
		ms.Delay = time.Duration(time.Duration(dr) * time.Millisecond)
		ms.Profile, _ = cmd.Flags().GetBool("profile")
		RunSolve(ms, benchParameters(model, n, re, dt, steps, np))
	},
}

func init() {
	rootCmd.AddCommand(BenchCmd)
	var (
		N        = 0
		Re       = 0.0
		Dt       = 0.0
		Steps    = 0
		ModelRun = M_Cavity2D
	)
	N, Re, Dt, Steps = Defaults(ModelRun)
	BenchCmd.Flags().IntP("model", "m", int(ModelRun), "model to run: 0 = Cavity2D, 1 = Cavity3D, 2 = Cylinder")
	BenchCmd.Flags().IntP("n", "n", N, "cells across the domain")
	BenchCmd.Flags().Float64("Re", Re, "Reynolds number of the benchmark")
	BenchCmd.Flags().Float64("dt", Dt, "time step size")
	BenchCmd.Flags().Int("steps", Steps, "number of time steps")
	BenchCmd.Flags().Int("np", 1, "parallel degree for assembly and operator application")
	BenchCmd.Flags().BoolP("graph", "g", false, "display a graph while computing solution")
	BenchCmd.Flags().IntP("delay", "d", 0, "milliseconds of delay for plotting")
	BenchCmd.Flags().IntP("plotSteps", "s", 1, "number of steps before plotting each frame")
	BenchCmd.Flags().IntP("graphField", "q", 0, "which field should be displayed - 0=pressure, 1,2=velocities, 3=speed")
	BenchCmd.Flags().Bool("profile", false, "write a CPU profile of the run")
}

type ModelType uint8

const (
	M_Cavity2D ModelType = iota
	M_Cavity3D
	M_Cylinder
)

var (
	def_N     = []int{32, 16, 48}
	def_Re    = []float64{100, 100, 40}
	def_Dt    = []float64{0.005, 0.01, 0.002}
	def_Steps = []int{1000, 200, 2000}
)

func Defaults(model ModelType) (N int, Re, Dt float64, Steps int) {
	return def_N[model], def_Re[model], def_Dt[model], def_Steps[model]
}

// LimitDt clamps the step to the advective limit of the unit speed scale.
func LimitDt(model ModelType, n int, dt float64) (dtNew float64) {
	h := 1.0 / float64(n)
	if model == M_Cylinder {
		h = 1.5 / float64(n)
	}
	dtMax := 0.5 * h
	if dt > dtMax {
		fmt.Printf("Input Dt is higher than the advective limit for this grid\nReplacing with Max Dt: %8.5f\n", dtMax)
		return dtMax
	}
	return dt
}

func benchParameters(model ModelType, n int, re, dt float64, steps, np int) (sp *InputParameters.SimulationParameters) {
	var (
		noslip  = InputParameters.BoundarySpec{Type: "dirichlet"}
		stream  = InputParameters.BoundarySpec{Type: "dirichlet", Values: []float64{1, 0}}
		outflow = InputParameters.BoundarySpec{Type: "neumann"}
		cg      = map[string]InputParameters.SolverSpec{
			"velocity": {Method: "cg", Tolerance: 1e-8, MaxIterations: 5000},
			"poisson":  {Method: "cg", Tolerance: 1e-8, MaxIterations: 5000},
		}
	)
	switch model {
	case M_Cavity3D:
		sp = &InputParameters.SimulationParameters{
			Title: "Lid-driven cavity 3D",
			Dim:   3,
			N:     []int{n, n, n},
			Lo:    []float64{0, 0, 0},
			Hi:    []float64{1, 1, 1},
			Nu:    1 / re, Dt: dt, NSteps: steps,
			Convective: "adams_bashforth_2",
			Diffusive:  "crank_nicolson",
			Boundaries: map[string]InputParameters.BoundarySpec{
				"xMinus": noslip, "xPlus": noslip,
				"yMinus": noslip,
				"yPlus":  {Type: "dirichlet", Values: []float64{1, 0, 0}},
				"zMinus": noslip, "zPlus": noslip,
			},
			Solvers: cg,
			NP:      np,
		}
	case M_Cylinder:
		var (
			h       = 1.5 / float64(n)
			markers = int(math.Round(2 * math.Pi * 0.15 / h))
		)
		sp = &InputParameters.SimulationParameters{
			Title: "Impulsively started cylinder",
			Dim:   2,
			N:     []int{2 * n, n},
			Lo:    []float64{0, 0},
			Hi:    []float64{3, 1.5},
			Nu:    0.3 / re, Dt: dt, NSteps: steps,
			Convective: "adams_bashforth_2",
			Diffusive:  "crank_nicolson",
			Boundaries: map[string]InputParameters.BoundarySpec{
				"xMinus": stream,
				"xPlus":  outflow,
				"yMinus": stream, "yPlus": stream,
			},
			InitialVelocity: []float64{1, 0},
			Bodies: []InputParameters.BodySpec{{
				Name: "cylinder", Type: "circle",
				Center: []float64{0.75, 0.75}, Radius: 0.15, NumMarkers: markers,
			}},
			Solvers: cg,
			NP:      np,
		}
	case M_Cavity2D:
		fallthrough
	default:
		sp = &InputParameters.SimulationParameters{
			Title: "Lid-driven cavity",
			Dim:   2,
			N:     []int{n, n},
			Lo:    []float64{0, 0},
			Hi:    []float64{1, 1},
			Nu:    1 / re, Dt: dt, NSteps: steps,
			Convective: "adams_bashforth_2",
			Diffusive:  "crank_nicolson",
			Boundaries: map[string]InputParameters.BoundarySpec{
				"xMinus": noslip, "xPlus": noslip,
				"yMinus": noslip,
				"yPlus":  {Type: "dirichlet", Values: []float64{1, 0}},
			},
			Solvers: cg,
			NP:      np,
		}
	}
	return
}
