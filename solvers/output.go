package solvers

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/zhangyanwei699/PetIBM/mesh"
)

// Checkpoint is the restart payload: the full solution state plus the term
// histories that keep multi-step schemes exact across a restart.
type Checkpoint struct {
	Step     int
	Time     float64
	U        []float64
	P        []float64
	ConvHist [][]float64
	DiffHist [][]float64
}

// WriteRestart saves the current state to path.
func (ns *NavierStokes) WriteRestart(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("restart write %s: %w", path, err)
	}
	cp := Checkpoint{
		Step:     ns.Step,
		Time:     ns.Time,
		U:        ns.U,
		P:        ns.P,
		ConvHist: ns.convHist,
		DiffHist: ns.diffHist,
	}
	if err = gob.NewEncoder(f).Encode(cp); err != nil {
		f.Close()
		return fmt.Errorf("restart write %s: %w", path, err)
	}
	return f.Close()
}

// ReadRestart restores a state written by a solver of identical
// configuration. Vector lengths are validated against the layout before
// anything is overwritten.
func (ns *NavierStokes) ReadRestart(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("restart read %s: %w", path, err)
	}
	defer f.Close()
	var cp Checkpoint
	if err = gob.NewDecoder(f).Decode(&cp); err != nil {
		return fmt.Errorf("restart read %s: %w", path, err)
	}
	var (
		nq = ns.Layout.NQ()
		nl = ns.Layout.NLambda()
	)
	if len(cp.U) != nq {
		return fmt.Errorf("restart read %s: velocity length %d, layout has %d", path, len(cp.U), nq)
	}
	if len(cp.P) != nl {
		return fmt.Errorf("restart read %s: pressure length %d, layout has %d", path, len(cp.P), nl)
	}
	for _, h := range append(append([][]float64{}, cp.ConvHist...), cp.DiffHist...) {
		if len(h) != nq {
			return fmt.Errorf("restart read %s: history length %d, layout has %d", path, len(h), nq)
		}
	}
	copy(ns.U, cp.U)
	copy(ns.P, cp.P)
	ns.convHist = cp.ConvHist
	ns.diffHist = cp.DiffHist
	ns.Step = cp.Step
	ns.Time = cp.Time
	return nil
}

// WriteVTK writes the current fields as a legacy-format ASCII VTK
// rectilinear grid: the accumulated pressure and the face velocities
// averaged to cell centers, wall values standing in at boundary cells.
func (ns *NavierStokes) WriteVTK(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vtk write %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	g := ns.Grid
	fmt.Fprintf(w, "# vtk DataFile Version 3.0\n")
	fmt.Fprintf(w, "step %d time %g\n", ns.Step, ns.Time)
	fmt.Fprintf(w, "ASCII\n")
	fmt.Fprintf(w, "DATASET RECTILINEAR_GRID\n")
	fmt.Fprintf(w, "DIMENSIONS %d %d %d\n", g.N[0]+1, g.N[1]+1, g.N[2]+1)
	for a, name := range [3]string{"X", "Y", "Z"} {
		fmt.Fprintf(w, "%s_COORDINATES %d double\n", name, g.N[a]+1)
		for _, v := range g.V[a] {
			fmt.Fprintf(w, "%g ", v)
		}
		fmt.Fprintf(w, "\n")
	}
	fmt.Fprintf(w, "CELL_DATA %d\n", g.NumCells())
	fmt.Fprintf(w, "SCALARS pressure double 1\n")
	fmt.Fprintf(w, "LOOKUP_TABLE default\n")
	for lin := 0; lin < g.NumCells(); lin++ {
		fmt.Fprintf(w, "%g\n", ns.P[ns.Layout.PRow(mesh.Unflatten(g.N, lin))])
	}
	fmt.Fprintf(w, "VECTORS velocity double\n")
	for lin := 0; lin < g.NumCells(); lin++ {
		var (
			idx = mesh.Unflatten(g.N, lin)
			v   [3]float64
		)
		for c := 0; c < g.Dim; c++ {
			v[c] = 0.5 * (faceOrWall(ns.Layout, ns.BC, ns.U, c, idx, idx[c]-1) +
				faceOrWall(ns.Layout, ns.BC, ns.U, c, idx, idx[c]))
		}
		fmt.Fprintf(w, "%g %g %g\n", v[0], v[1], v[2])
	}
	if err = w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("vtk write %s: %w", path, err)
	}
	return f.Close()
}

// LogIterations appends one line of solve diagnostics for the last
// completed step.
func (ns *NavierStokes) LogIterations(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d\t%.6e\t%d\t%.6e\t%d\t%.6e\n",
		ns.Step, ns.Time,
		ns.VelocityIterations, ns.VelocityResidual,
		ns.PoissonIterations, ns.PoissonResidual)
	return err
}
