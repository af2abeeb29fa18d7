package mesh

import (
	"fmt"

	"github.com/zhangyanwei699/PetIBM/utils"
)

// Layout fixes the rank decomposition of every unknown space at setup and
// never repartitions. Velocity unknowns pack rank-major, each rank owning
// one contiguous run [u | v | w] of its face unknowns; multiplier unknowns
// pack per rank as [p | fx | fy | fz]. Rank ownership of any global row of
// any packed vector is therefore a contiguous range, which is what the
// diagonal/off-diagonal split of operator rows classifies against.
type Layout struct {
	Grid     *Cartesian
	NP       int
	NMarkers int

	Vel   [3]*utils.PartitionMap // face decompositions per component
	Cells *utils.PartitionMap    // pressure cell decomposition
	Marks *utils.PartitionMap    // body marker decomposition

	Q      *utils.PartitionMap // packed velocity rows
	Lambda *utils.PartitionMap // packed pressure + force rows

	qComp  [][4]int // per rank: packed start of each component block, slot 3 is the range end
	lCell  []int    // per rank: packed start of the pressure block
	lForce []int    // per rank: packed start of the force blocks
}

// NewLayout decomposes the grid's unknowns and nMarkers body markers over
// np ranks.
func NewLayout(grid *Cartesian, np, nMarkers int) (l *Layout, err error) {
	if np < 1 {
		return nil, fmt.Errorf("layout: parallel degree %d", np)
	}
	if nMarkers < 0 {
		return nil, fmt.Errorf("layout: %d markers", nMarkers)
	}
	l = &Layout{
		Grid:     grid,
		NP:       np,
		NMarkers: nMarkers,
		Cells:    utils.NewPartitionMap(np, grid.NumCells()),
		Marks:    utils.NewPartitionMap(np, nMarkers),
		qComp:    make([][4]int, np),
		lCell:    make([]int, np),
		lForce:   make([]int, np),
	}
	for c := 0; c < grid.Dim; c++ {
		l.Vel[c] = utils.NewPartitionMap(np, grid.NumFaces(c))
	}
	var (
		qRanges = make([][2]int, np)
		lRanges = make([][2]int, np)
		qAt, lAt int
	)
	for r := 0; r < np; r++ {
		qRanges[r][0] = qAt
		for c := 0; c < 3; c++ {
			l.qComp[r][c] = qAt
			if c < grid.Dim {
				qAt += l.Vel[c].GetBucketDimension(r)
			}
		}
		l.qComp[r][3] = qAt
		qRanges[r][1] = qAt

		lRanges[r][0] = lAt
		l.lCell[r] = lAt
		lAt += l.Cells.GetBucketDimension(r)
		l.lForce[r] = lAt
		lAt += grid.Dim * l.Marks.GetBucketDimension(r)
		lRanges[r][1] = lAt
	}
	l.Q = utils.NewPartitionMapFromRanges(qRanges)
	l.Lambda = utils.NewPartitionMapFromRanges(lRanges)
	return l, nil
}

func (l *Layout) NQ() int      { return l.Q.MaxIndex }
func (l *Layout) NLambda() int { return l.Lambda.MaxIndex }
func (l *Layout) NForces() int { return l.Grid.Dim * l.NMarkers }

// VelRow maps velocity unknown idx of component c to its packed global row.
func (l *Layout) VelRow(c int, idx [3]int) int {
	var (
		lin           = LinearIndex(l.Grid.FaceN(c), idx)
		bn, lMin, _   = l.Vel[c].GetBucket(lin)
	)
	return l.qComp[bn][c] + lin - lMin
}

// PRow maps pressure cell idx to its packed global multiplier row.
func (l *Layout) PRow(idx [3]int) int {
	var (
		lin         = LinearIndex(l.Grid.N, idx)
		bn, lMin, _ = l.Cells.GetBucket(lin)
	)
	return l.lCell[bn] + lin - lMin
}

// ForceRow maps force component c of marker m to its packed global
// multiplier row. Force blocks follow the owning rank's pressure block,
// one block per component.
func (l *Layout) ForceRow(c, m int) int {
	var (
		bn, mMin, _ = l.Marks.GetBucket(m)
	)
	return l.lForce[bn] + c*l.Marks.GetBucketDimension(bn) + m - mMin
}

// DecodeQ inverts VelRow.
func (l *Layout) DecodeQ(row int) (c int, idx [3]int) {
	var (
		bn, _, _ = l.Q.GetBucket(row)
	)
	for c = 0; c < l.Grid.Dim; c++ {
		if row < l.qComp[bn][c+1] {
			break
		}
	}
	var (
		lMin, _ = l.Vel[c].GetBucketRange(bn)
		lin     = lMin + row - l.qComp[bn][c]
	)
	return c, Unflatten(l.Grid.FaceN(c), lin)
}

// QCompRange reports rank bn's packed row range for velocity component c:
// the first packed row, the matching first face linear index, and the
// count.
func (l *Layout) QCompRange(bn, c int) (rowStart, linStart, count int) {
	linStart, _ = l.Vel[c].GetBucketRange(bn)
	return l.qComp[bn][c], linStart, l.Vel[c].GetBucketDimension(bn)
}

// CellRange reports rank bn's packed multiplier row range for pressure
// cells: the first packed row, the first cell linear index, and the count.
func (l *Layout) CellRange(bn int) (rowStart, linStart, count int) {
	linStart, _ = l.Cells.GetBucketRange(bn)
	return l.lCell[bn], linStart, l.Cells.GetBucketDimension(bn)
}

// ForceRange reports rank bn's packed multiplier row range for force
// component c: the first packed row, the first marker index, and the count.
func (l *Layout) ForceRange(bn, c int) (rowStart, markStart, count int) {
	markStart, _ = l.Marks.GetBucketRange(bn)
	n := l.Marks.GetBucketDimension(bn)
	return l.lForce[bn] + c*n, markStart, n
}
