package solvers

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/notargets/avs/chart2d"
	"github.com/notargets/avs/functions"
	graphics2D "github.com/notargets/avs/geometry"
	utils2 "github.com/notargets/avs/utils"
)

// PlotField selects the scalar rendered by PlotSolution.
type PlotField uint8

const (
	PlotPressure PlotField = iota
	PlotXVelocity
	PlotYVelocity
	PlotSpeed
)

func (pf PlotField) String() string {
	switch pf {
	case PlotPressure:
		return "pressure"
	case PlotXVelocity:
		return "x-velocity"
	case PlotYVelocity:
		return "y-velocity"
	case PlotSpeed:
		return "speed"
	}
	return "unknown"
}

// PlotMeta carries the live plotting options from the command line.
type PlotMeta struct {
	Plot            bool
	Field           PlotField
	Scale           float64
	FrameTime       time.Duration
	StepsBeforePlot int
}

type ChartState struct {
	chart *chart2d.Chart2D
	fs    *functions.FSurface
	gm    *graphics2D.TriMesh
}

// outputMesh triangulates the grid vertices, two triangles per cell, on
// the z midplane for 3D runs.
func (ns *NavierStokes) outputMesh() *graphics2D.TriMesh {
	var (
		g      = ns.Grid
		n0, n1 = g.N[0], g.N[1]
		points = make([]graphics2D.Point, (n0+1)*(n1+1))
		gm     = &graphics2D.TriMesh{}
	)
	for j := 0; j <= n1; j++ {
		for i := 0; i <= n0; i++ {
			points[j*(n0+1)+i].X[0] = float32(g.V[0][i])
			points[j*(n0+1)+i].X[1] = float32(g.V[1][j])
		}
	}
	gm.Geometry = points
	gm.Triangles = make([]graphics2D.Triangle, 0, 2*n0*n1)
	gm.Attributes = make([][]float32, 0, 2*n0*n1)
	for j := 0; j < n1; j++ {
		for i := 0; i < n0; i++ {
			var (
				v00 = int32(j*(n0+1) + i)
				v10 = v00 + 1
				v01 = v00 + int32(n0) + 1
				v11 = v01 + 1
			)
			gm.Triangles = append(gm.Triangles,
				graphics2D.Triangle{Nodes: [3]int32{v00, v10, v11}},
				graphics2D.Triangle{Nodes: [3]int32{v00, v11, v01}})
			gm.Attributes = append(gm.Attributes, []float32{0, 0, 0}, []float32{0, 0, 0})
		}
	}
	return gm
}

// vertexField samples the selected field at every grid vertex, averaging
// the staggered unknowns around each vertex and standing in wall values on
// the boundary.
func (ns *NavierStokes) vertexField(field PlotField) (f []float32, fmin, fmax float64) {
	var (
		g      = ns.Grid
		l      = ns.Layout
		n0, n1 = g.N[0], g.N[1]
		k      = g.N[2] / 2
	)
	f = make([]float32, (n0+1)*(n1+1))
	fmin, fmax = math.Inf(1), math.Inf(-1)
	uAt := func(i, j int) float64 {
		lo := [3]int{0, max(j-1, 0), k}
		hi := [3]int{0, min(j, n1-1), k}
		return 0.5 * (faceOrWall(l, ns.BC, ns.U, 0, lo, i-1) + faceOrWall(l, ns.BC, ns.U, 0, hi, i-1))
	}
	vAt := func(i, j int) float64 {
		lo := [3]int{max(i-1, 0), 0, k}
		hi := [3]int{min(i, n0-1), 0, k}
		return 0.5 * (faceOrWall(l, ns.BC, ns.U, 1, lo, j-1) + faceOrWall(l, ns.BC, ns.U, 1, hi, j-1))
	}
	for j := 0; j <= n1; j++ {
		for i := 0; i <= n0; i++ {
			var v float64
			switch field {
			case PlotPressure:
				for _, ci := range [2]int{max(i-1, 0), min(i, n0-1)} {
					for _, cj := range [2]int{max(j-1, 0), min(j, n1-1)} {
						v += 0.25 * ns.P[l.PRow([3]int{ci, cj, k})]
					}
				}
			case PlotXVelocity:
				v = uAt(i, j)
			case PlotYVelocity:
				v = vAt(i, j)
			case PlotSpeed:
				v = math.Hypot(uAt(i, j), vAt(i, j))
			}
			f[j*(n0+1)+i] = float32(v)
			fmin = math.Min(fmin, v)
			fmax = math.Max(fmax, v)
		}
	}
	if fmax-fmin < 1e-12 {
		fmax = fmin + 1
	}
	return
}

// PlotSolution renders the selected field over the triangulated grid,
// opening the chart window on first use and autoscaling the colormap every
// frame.
func (ns *NavierStokes) PlotSolution(pm *PlotMeta, width, height int) {
	if ns.chart.gm == nil {
		ns.chart.gm = ns.outputMesh()
	}
	fI, fmin, fmax := ns.vertexField(pm.Field)
	ns.chart.fs = functions.NewFSurface(ns.chart.gm, [][]float32{fI}, 0)
	fmt.Printf(" Plot>%s min,max = %8.5f,%8.5f\n", pm.Field.String(), fmin, fmax)
	if ns.chart.chart == nil {
		box := graphics2D.NewBoundingBox(ns.chart.gm.GetGeometry())
		box = box.Scale(float32(pm.Scale))
		ns.chart.chart = chart2d.NewChart2D(width, height, box.XMin[0], box.XMax[0], box.XMin[1], box.XMax[1])
		go ns.chart.chart.Plot()
	}
	ns.chart.chart.AddColorMap(utils2.NewColorMap(float32(fmin), float32(fmax), 1.))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 1}
	if err := ns.chart.chart.AddFunctionSurface("FSurface", *ns.chart.fs, chart2d.NoLine, white); err != nil {
		panic("unable to add function surface series")
	}
	time.Sleep(pm.FrameTime)
}

// PlotSolution overlays the Lagrangian markers on the field plot.
func (tc *TairaColonius) PlotSolution(pm *PlotMeta, width, height int) {
	tc.NavierStokes.PlotSolution(pm, width, height)
	var (
		n      = tc.Bodies.NumMarkers()
		xs, ys = make([]float64, n), make([]float64, n)
	)
	for m, x := range tc.Bodies.X {
		xs[m], ys[m] = x[0], x[1]
	}
	black := color.RGBA{R: 0, G: 0, B: 0, A: 1}
	if err := tc.chart.chart.AddSeries("markers", xs, ys,
		chart2d.CircleGlyph, chart2d.NoLine, black); err != nil {
		panic("unable to add marker series")
	}
}
