package utils

import "fmt"

// PartitionMap splits a contiguous global index space [0,MaxIndex) into
// ParallelDegree contiguous buckets, one per rank, with a maximum imbalance
// of one. Every distributed row space in the solver (velocity unknowns,
// pressure unknowns, body-force unknowns) is partitioned this way once at
// setup and never repartitioned afterwards.
type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// NewPartitionMapFromRanges builds a map over explicitly given contiguous
// rank ranges, used for packed index spaces whose per-rank extents are
// dictated by other maps rather than by an even split. Ranges must tile
// [0,maxIndex) in order.
func NewPartitionMapFromRanges(ranges [][2]int) (pm *PartitionMap) {
	var (
		at int
	)
	for n, r := range ranges {
		if r[0] != at || r[1] < r[0] {
			panic(fmt.Sprintf("range %d of partition map does not tile: [%d,%d) after %d", n, r[0], r[1], at))
		}
		at = r[1]
	}
	pm = &PartitionMap{
		MaxIndex:       at,
		ParallelDegree: len(ranges),
		Partitions:     ranges,
	}
	return
}

// GetBucket returns the rank owning global index kDim and that rank's
// index range. bucketNum is -1 when kDim lies outside [0,MaxIndex).
func (pm *PartitionMap) GetBucket(kDim int) (bucketNum, min, max int) {
	_, bucketNum, min, max = pm.getBucketWithTryCount(kDim)
	return
}

func (pm *PartitionMap) getBucketWithTryCount(kDim int) (tryCount, bucketNum, min, max int) {
	// Initial guess
	bucketNum = int(float64(pm.ParallelDegree*kDim) / float64(pm.MaxIndex))
	if bucketNum < 0 || bucketNum >= pm.ParallelDegree {
		return 0, -1, 0, 0
	}
	for !(pm.Partitions[bucketNum][0] <= kDim && pm.Partitions[bucketNum][1] > kDim) {
		if pm.Partitions[bucketNum][0] > kDim {
			bucketNum--
		} else {
			bucketNum++
		}
		if bucketNum == -1 || bucketNum == pm.ParallelDegree {
			return 0, -1, 0, 0
		}
		tryCount++
	}
	min, max = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (kMax int) {
	if bn == -1 {
		kMax = pm.MaxIndex
		return
	}
	var (
		k1, k2 = pm.GetBucketRange(bn)
	)
	kMax = k2 - k1
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// This routine splits one dimension into pm.ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
