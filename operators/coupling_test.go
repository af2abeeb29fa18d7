package operators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhangyanwei699/PetIBM/bodies"
	"github.com/zhangyanwei699/PetIBM/mesh"
	"github.com/zhangyanwei699/PetIBM/utils"
)

func TestCouplingGradient(t *testing.T) {
	g, err := mesh.Uniform(2, [3]int{8, 8, 0}, [3]float64{0, 0, 0}, [3]float64{1, 1, 0})
	require.NoError(t, err)
	l, err := mesh.NewLayout(g, 3, 0)
	require.NoError(t, err)
	Q := Coupling(l, nil, nil)

	{ // Every velocity row couples exactly the two cells its face separates
		fn := g.FaceN(0)
		for j := 0; j < fn[1]; j++ {
			for i := 0; i < fn[0]; i++ {
				idx := [3]int{i, j, 0}
				row := l.VelRow(0, idx)
				cols, _ := Q.Row(row)
				require.Len(t, cols, 2)
				east := [3]int{i + 1, j, 0}
				assert.Equal(t, -1.0, Q.At(row, l.PRow(idx)))
				assert.Equal(t, 1.0, Q.At(row, l.PRow(east)))
			}
		}
	}
	{ // The constant-pressure vector is in the gradient's null space
		null := NullVector(l)
		gq := make([]float64, l.NQ())
		Q.MulVec(gq, null)
		for _, v := range gq {
			assert.Equal(t, 0.0, v)
		}
	}
	{ // Allocation counts survive a recount
		rc := Q.Recount()
		assert.Equal(t, Q.Counts.Diag, rc.Diag)
		assert.Equal(t, Q.Counts.Off, rc.Off)
	}
}

func TestCouplingRegularization(t *testing.T) {
	g, err := mesh.Uniform(2, [3]int{16, 16, 0}, [3]float64{0, 0, 0}, [3]float64{1, 1, 0})
	require.NoError(t, err)
	h := 1.0 / 16

	{ // A marker on a velocity grid point weighs Delta(0,0) h^2
		idx := [3]int{7, 8, 0}
		x := g.FaceCoord(0, idx)
		l, err := mesh.NewLayout(g, 2, 1)
		require.NoError(t, err)
		marks := [][3]float64{x}
		ix, err := bodies.NewIndex(g, marks)
		require.NoError(t, err)
		Q := Coupling(l, marks, ix)
		row := l.VelRow(0, idx)
		want := Delta(2, [3]float64{}, [3]float64{h, h, h}) * h * h
		assert.InDelta(t, want, Q.At(row, l.ForceRow(0, 0)), 1e-15)
		cols, _ := Q.Row(row)
		assert.Len(t, cols, 3)
	}
	{ // Beyond 1.5h in either axis the marker drops out of the row
		idx := [3]int{7, 8, 0}
		x := g.FaceCoord(0, idx)
		marks := [][3]float64{{x[0] + 1.6*h, x[1], 0}}
		l, err := mesh.NewLayout(g, 2, 1)
		require.NoError(t, err)
		ix, err := bodies.NewIndex(g, marks)
		require.NoError(t, err)
		Q := Coupling(l, marks, ix)
		cols, _ := Q.Row(l.VelRow(0, idx))
		assert.Len(t, cols, 2)
		assert.Equal(t, 0.0, Q.At(l.VelRow(0, idx), l.ForceRow(0, 0)))
	}
	{ // Interpolation rows of the transpose reproduce constants
		body, err := bodies.Circle("cyl", 0.5, 0.5, 0.2, 40)
		require.NoError(t, err)
		bc := bodies.NewCollection(body)
		l, err := mesh.NewLayout(g, 3, bc.NumMarkers())
		require.NoError(t, err)
		ix, err := bodies.NewIndex(g, bc.X)
		require.NoError(t, err)
		Q := Coupling(l, bc.X, ix)
		QT := Q.Transpose()
		ones := make([]float64, l.NQ())
		u := make([]float64, l.NLambda())
		fn := g.FaceN(0)
		for j := 0; j < fn[1]; j++ {
			for i := 0; i < fn[0]; i++ {
				ones[l.VelRow(0, [3]int{i, j, 0})] = 1
			}
		}
		QT.MulVec(u, ones)
		for m := 0; m < bc.NumMarkers(); m++ {
			assert.InDelta(t, 1.0, u[l.ForceRow(0, m)], 1e-12)
		}
	}
}

func TestAdjointAndScaling(t *testing.T) {
	g, err := mesh.Uniform(2, [3]int{12, 12, 0}, [3]float64{0, 0, 0}, [3]float64{1, 1, 0})
	require.NoError(t, err)
	body, err := bodies.Circle("cyl", 0.5, 0.5, 0.25, 24)
	require.NoError(t, err)
	bc := bodies.NewCollection(body)
	l, err := mesh.NewLayout(g, 3, bc.NumMarkers())
	require.NoError(t, err)
	ix, err := bodies.NewIndex(g, bc.X)
	require.NoError(t, err)

	Q := Coupling(l, bc.X, ix)
	QT := Q.Transpose()
	{ // The interpolation operator is the exact adjoint of the unscaled
		// coupling operator, entry for entry
		for i := 0; i < l.NQ(); i++ {
			cols, vals := Q.Row(i)
			for k, j := range cols {
				assert.Equal(t, vals[k], QT.At(j, i))
			}
		}
		assert.Equal(t, Q.Counts.NNZ(), QT.Counts.NNZ())
	}
	{ // Row scaling touches the scaled operator only
		bn := make([]float64, l.NQ())
		for i := range bn {
			bn[i] = 0.5
		}
		before := Q.At(0, Q.Ja[0])
		BNQ := Coupling(l, bc.X, ix)
		BNQ.ScaleRows(bn)
		assert.Equal(t, before, Q.At(0, Q.Ja[0]))
		assert.InDelta(t, 0.5*before, BNQ.At(0, BNQ.Ja[0]), 1e-15)
		assert.Equal(t, QT.At(Q.Ja[0], 0), before)
	}
	{ // The saddle product of the scaled pair is symmetric
		bn := make([]float64, l.NQ())
		for i := range bn {
			bn[i] = 0.01
		}
		BNQ := Coupling(l, bc.X, ix)
		BNQ.ScaleRows(bn)
		S := utils.MatMul(QT, BNQ)
		n := l.NLambda()
		for i := 0; i < n; i += 7 {
			for j := 0; j < n; j += 5 {
				assert.InDelta(t, S.At(i, j), S.At(j, i), 1e-13)
			}
		}
	}
}
