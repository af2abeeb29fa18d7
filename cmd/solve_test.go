package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/magiconair/properties/assert"
)

func TestBenchParameters(t *testing.T) {
	for _, model := range []ModelType{M_Cavity2D, M_Cavity3D, M_Cylinder} {
		n, re, dt, steps := Defaults(model)
		sp := benchParameters(model, n, re, dt, steps, 1)
		if _, _, err := sp.Build(); err != nil {
			t.Fatalf("model %d: %v", model, err)
		}
	}
	// the cylinder benchmark spaces markers about one cell apart
	sp := benchParameters(M_Cylinder, 16, 40, 0.002, 1, 1)
	assert.Equal(t, sp.Bodies[0].NumMarkers, 10)
	// the advective limit clamps oversized steps
	assert.Equal(t, LimitDt(M_Cavity2D, 32, 1.0), 0.5/32)
	assert.Equal(t, LimitDt(M_Cavity2D, 32, 0.001), 0.001)
}

func TestRunSolveCavity(t *testing.T) {
	dir := t.TempDir()
	sp := benchParameters(M_Cavity2D, 8, 100, 0.005, 2, 1)
	sp.OutputDir = dir
	sp.SaveEvery = 2
	RunSolve(&ModelSolve{PlotSteps: 1}, sp)
	for _, name := range []string{"iterations.txt", "step000002.vtk", "restart.gob"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}
	// resume from the checkpoint it wrote
	sp2 := benchParameters(M_Cavity2D, 8, 100, 0.005, 1, 1)
	sp2.Restart = filepath.Join(dir, "restart.gob")
	RunSolve(&ModelSolve{PlotSteps: 1}, sp2)
}

func TestRunSolveCylinder(t *testing.T) {
	dir := t.TempDir()
	sp := benchParameters(M_Cylinder, 12, 40, 0.002, 2, 2)
	sp.OutputDir = dir
	RunSolve(&ModelSolve{PlotSteps: 1}, sp)
	if _, err := os.Stat(filepath.Join(dir, "forces.txt")); err != nil {
		t.Fatal(err)
	}
}
