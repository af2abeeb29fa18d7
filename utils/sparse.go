package utils

import (
	"fmt"
	"sync"

	"github.com/james-bowman/sparse"
)

// RowCounts is the sparsity analysis of an operator under assembly. For
// every global row it tallies how many nonzero columns fall inside the
// column range owned by the row's rank (the diagonal block) and how many
// fall outside (the off-diagonal block). Operators are allocated from these
// counts before any value is inserted, so the counts are exact widths, not
// upper bounds.
type RowCounts struct {
	Rows, Cols *PartitionMap
	Diag, Off  []int
}

func NewRowCounts(rows, cols *PartitionMap) (rc *RowCounts) {
	rc = &RowCounts{
		Rows: rows,
		Cols: cols,
		Diag: make([]int, rows.MaxIndex),
		Off:  make([]int, rows.MaxIndex),
	}
	return
}

// CountRow tallies the columns of one row against the column ownership
// range of rank bn. Rows are rank-disjoint, so concurrent count passes
// never touch the same row.
func (rc *RowCounts) CountRow(bn, row int, cols []int) {
	var (
		cMin, cMax = rc.Cols.GetBucketRange(bn)
	)
	for _, col := range cols {
		if col < 0 || col >= rc.Cols.MaxIndex {
			panic(fmt.Sprintf("row %d: column %d outside [0,%d)", row, col, rc.Cols.MaxIndex))
		}
		if col >= cMin && col < cMax {
			rc.Diag[row]++
		} else {
			rc.Off[row]++
		}
	}
}

func (rc *RowCounts) RowNNZ(row int) int { return rc.Diag[row] + rc.Off[row] }

func (rc *RowCounts) NNZ() (nnz int) {
	for i := range rc.Diag {
		nnz += rc.Diag[i] + rc.Off[i]
	}
	return
}

// RowVisitor emits the nonzero columns and values for every row owned by
// rank bn, in any order within the rank but with distinct columns per row.
// The same visitor runs twice during assembly, once to size the operator
// and once to store values, so it must be deterministic.
type RowVisitor func(bn int, emit func(row int, cols []int, vals []float64))

// DistMat is a sparse operator whose rows and columns are partitioned over
// ranks. Storage is a single CSR triple shared by all ranks; Counts keeps
// the diagonal/off-diagonal split the operator was allocated with.
type DistMat struct {
	Rows, Cols *PartitionMap
	Counts     *RowCounts
	Ia         []int
	Ja         []int
	Data       []float64
}

// BuildDistMat assembles an operator with the count-then-insert protocol:
// the visitor's first (count) pass fixes every row's exact width via
// RowCounts, a scan converts widths to CSR row pointers, and the visitor's
// second (fill) pass stores values into the preallocated slots. Each pass
// is a collective of one goroutine per rank over disjoint row ranges.
func BuildDistMat(rows, cols *PartitionMap, visit RowVisitor) (m *DistMat) {
	var (
		NP = rows.ParallelDegree
		rc = NewRowCounts(rows, cols)
		wg sync.WaitGroup
	)
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			var (
				rMin, rMax = rows.GetBucketRange(np)
			)
			visit(np, func(row int, cols []int, vals []float64) {
				if row < rMin || row >= rMax {
					panic(fmt.Sprintf("rank %d emitted row %d outside [%d,%d)", np, row, rMin, rMax))
				}
				rc.CountRow(np, row, cols)
			})
		}(np)
	}
	wg.Wait()
	var (
		ia = make([]int, rows.MaxIndex+1)
	)
	for i := 0; i < rows.MaxIndex; i++ {
		ia[i+1] = ia[i] + rc.RowNNZ(i)
	}
	var (
		nnz  = ia[rows.MaxIndex]
		ja   = make([]int, nnz)
		data = make([]float64, nnz)
		next = make([]int, rows.MaxIndex)
	)
	for np := 0; np < NP; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			visit(np, func(row int, cols []int, vals []float64) {
				if len(cols) != len(vals) {
					panic(fmt.Sprintf("row %d: %d columns with %d values", row, len(cols), len(vals)))
				}
				for i, col := range cols {
					slot := ia[row] + next[row]
					if slot >= ia[row+1] {
						panic(fmt.Sprintf("row %d: fill pass exceeds preallocated width %d", row, ia[row+1]-ia[row]))
					}
					ja[slot] = col
					data[slot] = vals[i]
					next[row]++
				}
			})
		}(np)
	}
	wg.Wait()
	for i := 0; i < rows.MaxIndex; i++ {
		if ia[i]+next[i] != ia[i+1] {
			panic(fmt.Sprintf("row %d: fill pass stored %d of %d preallocated values", i, next[i], ia[i+1]-ia[i]))
		}
		sortRow(ja[ia[i]:ia[i+1]], data[ia[i]:ia[i+1]])
	}
	m = &DistMat{
		Rows:   rows,
		Cols:   cols,
		Counts: rc,
		Ia:     ia,
		Ja:     ja,
		Data:   data,
	}
	return
}

func newDistMatFromParts(rows, cols *PartitionMap, ia, ja []int, data []float64) (m *DistMat) {
	m = &DistMat{Rows: rows, Cols: cols, Ia: ia, Ja: ja, Data: data}
	m.Counts = m.Recount()
	return
}

// Rows are at most a few entries wide, insertion sort keeps the column
// indices ascending as CSR expects.
func sortRow(ja []int, data []float64) {
	for i := 1; i < len(ja); i++ {
		var (
			j = ja[i]
			v = data[i]
			k = i - 1
		)
		for k >= 0 && ja[k] > j {
			ja[k+1], data[k+1] = ja[k], data[k]
			k--
		}
		ja[k+1], data[k+1] = j, v
	}
}

func (m *DistMat) Dims() (r, c int) { return m.Rows.MaxIndex, m.Cols.MaxIndex }

func (m *DistMat) At(i, j int) float64 {
	for k := m.Ia[i]; k < m.Ia[i+1]; k++ {
		if m.Ja[k] == j {
			return m.Data[k]
		}
	}
	return 0
}

// Row returns the stored columns and values of row i, aliasing the matrix
// storage.
func (m *DistMat) Row(i int) (cols []int, vals []float64) {
	return m.Ja[m.Ia[i]:m.Ia[i+1]], m.Data[m.Ia[i]:m.Ia[i+1]]
}

// CSR wraps the storage as a james-bowman CSR for mat.Matrix interop. The
// receiver's slices back the returned matrix.
func (m *DistMat) CSR() *sparse.CSR {
	return sparse.NewCSR(m.Rows.MaxIndex, m.Cols.MaxIndex, m.Ia, m.Ja, m.Data)
}

// Recount re-derives the diagonal/off-diagonal tallies from the stored
// pattern. After assembly this reproduces the allocation counts exactly.
func (m *DistMat) Recount() (rc *RowCounts) {
	rc = NewRowCounts(m.Rows, m.Cols)
	for bn := 0; bn < m.Rows.ParallelDegree; bn++ {
		var (
			rMin, rMax = m.Rows.GetBucketRange(bn)
		)
		for row := rMin; row < rMax; row++ {
			rc.CountRow(bn, row, m.Ja[m.Ia[row]:m.Ia[row+1]])
		}
	}
	return
}

// MulVec computes y = M x as a collective, each rank multiplying its own
// row range. Writes are disjoint by ownership.
func (m *DistMat) MulVec(y, x []float64) {
	if len(x) != m.Cols.MaxIndex || len(y) != m.Rows.MaxIndex {
		panic(fmt.Sprintf("mulvec: have %dx%d operator, %d-vector in, %d-vector out",
			m.Rows.MaxIndex, m.Cols.MaxIndex, len(x), len(y)))
	}
	var (
		wg sync.WaitGroup
	)
	for np := 0; np < m.Rows.ParallelDegree; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			var (
				rMin, rMax = m.Rows.GetBucketRange(np)
			)
			for row := rMin; row < rMax; row++ {
				var sum float64
				for k := m.Ia[row]; k < m.Ia[row+1]; k++ {
					sum += m.Data[k] * x[m.Ja[k]]
				}
				y[row] = sum
			}
		}(np)
	}
	wg.Wait()
}

// Transpose returns the exact transpose. Ownership of the result follows
// the operator's column map for rows and row map for columns. Taken before
// any row scaling, the result is the exact adjoint of the unscaled
// operator.
func (m *DistMat) Transpose() (mt *DistMat) {
	var (
		nr, nc = m.Rows.MaxIndex, m.Cols.MaxIndex
		ia     = make([]int, nc+1)
		ja     = make([]int, len(m.Ja))
		data   = make([]float64, len(m.Data))
	)
	for _, col := range m.Ja {
		ia[col+1]++
	}
	for i := 0; i < nc; i++ {
		ia[i+1] += ia[i]
	}
	var (
		next = make([]int, nc)
	)
	for row := 0; row < nr; row++ {
		for k := m.Ia[row]; k < m.Ia[row+1]; k++ {
			var (
				col  = m.Ja[k]
				slot = ia[col] + next[col]
			)
			ja[slot] = row
			data[slot] = m.Data[k]
			next[col]++
		}
	}
	return newDistMatFromParts(m.Cols, m.Rows, ia, ja, data)
}

// ScaleRows multiplies every row i by d[i] in place. This is the diagonal
// scaling that turns the coupling operator into its approximate-inverse
// weighted form after the transpose has been taken.
func (m *DistMat) ScaleRows(d []float64) {
	if len(d) != m.Rows.MaxIndex {
		panic(fmt.Sprintf("scalerows: %d scales for %d rows", len(d), m.Rows.MaxIndex))
	}
	var (
		wg sync.WaitGroup
	)
	for np := 0; np < m.Rows.ParallelDegree; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			var (
				rMin, rMax = m.Rows.GetBucketRange(np)
			)
			for row := rMin; row < rMax; row++ {
				for k := m.Ia[row]; k < m.Ia[row+1]; k++ {
					m.Data[k] *= d[row]
				}
			}
		}(np)
	}
	wg.Wait()
}

// DiagInv extracts the inverse of the diagonal as a dense vector.
func (m *DistMat) DiagInv() (d []float64) {
	if m.Rows.MaxIndex != m.Cols.MaxIndex {
		panic("diaginv: operator is not square")
	}
	d = make([]float64, m.Rows.MaxIndex)
	for i := range d {
		v := m.At(i, i)
		if v == 0 {
			panic(fmt.Sprintf("diaginv: zero diagonal at row %d", i))
		}
		d[i] = 1 / v
	}
	return
}

// ZeroRowCol clears every stored value in row idx and column idx, then
// sets the diagonal entry to d. The allocated pattern is kept, only values
// change. Used to pin a reference unknown in an otherwise singular system.
func (m *DistMat) ZeroRowCol(idx int, d float64) {
	var (
		wg sync.WaitGroup
	)
	for np := 0; np < m.Rows.ParallelDegree; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			var (
				rMin, rMax = m.Rows.GetBucketRange(np)
			)
			for row := rMin; row < rMax; row++ {
				for k := m.Ia[row]; k < m.Ia[row+1]; k++ {
					if row == idx || m.Ja[k] == idx {
						m.Data[k] = 0
					}
				}
			}
		}(np)
	}
	wg.Wait()
	for k := m.Ia[idx]; k < m.Ia[idx+1]; k++ {
		if m.Ja[k] == idx {
			m.Data[k] = d
			return
		}
	}
	panic(fmt.Sprintf("pinned row %d has no stored diagonal entry", idx))
}

// MatMul forms the product C = A B as a fresh operator, running the same
// count-then-fill protocol as direct assembly: a symbolic pass discovers
// and sizes every product row, the numeric pass stores values into the
// exact allocation.
func MatMul(a, b *DistMat) (c *DistMat) {
	if a.Cols.MaxIndex != b.Rows.MaxIndex {
		panic(fmt.Sprintf("matmul: inner dimensions differ, %d vs %d", a.Cols.MaxIndex, b.Rows.MaxIndex))
	}
	c = BuildDistMat(a.Rows, b.Cols, func(bn int, emit func(int, []int, []float64)) {
		var (
			rMin, rMax = a.Rows.GetBucketRange(bn)
			acc        = make([]float64, b.Cols.MaxIndex)
			mark       = make([]bool, b.Cols.MaxIndex)
			cols       []int
			vals       []float64
		)
		for row := rMin; row < rMax; row++ {
			cols, vals = cols[:0], vals[:0]
			for k := a.Ia[row]; k < a.Ia[row+1]; k++ {
				var (
					j  = a.Ja[k]
					av = a.Data[k]
				)
				for kk := b.Ia[j]; kk < b.Ia[j+1]; kk++ {
					col := b.Ja[kk]
					if !mark[col] {
						mark[col] = true
						cols = append(cols, col)
					}
					acc[col] += av * b.Data[kk]
				}
			}
			for _, col := range cols {
				vals = append(vals, acc[col])
				acc[col], mark[col] = 0, false
			}
			emit(row, cols, vals)
		}
	})
	return
}
