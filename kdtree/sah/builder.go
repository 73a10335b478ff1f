// Package sah provides the default tree builder: a surface area heuristic
// kd-tree constructor. It implements kdtree.TreeBuilder and only ever sees
// primitive counts and bounding boxes, never shape storage.
package sah

import (
	"time"

	"github.com/raydex/raydex/kdtree"
	"github.com/raydex/raydex/log"
	"github.com/raydex/raydex/types"
)

type Axis int32

const (
	XAxis Axis = iota
	YAxis
	ZAxis

	// The builder will not attempt to calculate split candidates if the
	// node bbox along an axis is less than this threshold.
	minSideLength float32 = 1e-3

	// Number of candidate planes evaluated per axis.
	splitCandidates = 16

	// Hard recursion cutoff; keeps every leaf reachable with the fixed
	// traversal stacks.
	maxTreeDepth = 48
)

var (
	// A split scoring strategy that uses the surface area heuristic (SAH).
	SurfaceAreaHeuristic ScoreStrategy = surfaceAreaHeuristic{}
)

// A split scoring strategy. Lower scores are better.
type ScoreStrategy interface {
	// Calculate a score for splitting the work list at splitPoint along a
	// particular axis of the node box.
	ScoreSplit(workList []uint32, bbox func(i int) types.AABB, nodeBox types.AABB, splitAxis Axis, splitPoint float32) (leftCount, rightCount int, score float32)

	// Calculate a score for keeping all items in one leaf.
	ScorePartition(workList []uint32, nodeBox types.AABB) (score float32)
}

type splitScore struct {
	axis       Axis
	splitPoint float32

	leftCount, rightCount int
	score                 float32
}

type buildStats struct {
	pushedItems int
	totalItems  int
	nodes       int
	leafs       int
	maxDepth    int
}

type Builder struct {
	logger log.Logger

	// The minimum number of items that are required for creating a leaf.
	minLeafItems int

	scoreStrategy ScoreStrategy

	bboxFn  func(i int) types.AABB
	nodes   []kdtree.Node
	indices []uint32
	stats   buildStats
}

// Create a kd-tree builder. Leafs are generated whenever the incoming work
// length is <= minLeafItems or no split improves the SAH score.
func NewBuilder(minLeafItems int, scoreStrategy ScoreStrategy) *Builder {
	if scoreStrategy == nil {
		scoreStrategy = SurfaceAreaHeuristic
	}
	return &Builder{
		logger:        log.New("sah"),
		minLeafItems:  minLeafItems,
		scoreStrategy: scoreStrategy,
	}
}

// Build the node tree and index buffer for primCount primitives. Straddling
// primitives are referenced from both sides of a split, so the index buffer
// may be longer than primCount.
func (b *Builder) Build(primCount int, bbox func(i int) types.AABB) (*kdtree.BuiltTree, error) {
	b.bboxFn = bbox
	// Fresh arenas every time: the previous call's BuiltTree still
	// references the old backing arrays.
	b.nodes = nil
	b.indices = nil
	b.stats = buildStats{totalItems: primCount}

	workList := make([]uint32, primCount)
	worldBox := types.EmptyAABB()
	for i := 0; i < primCount; i++ {
		workList[i] = uint32(i)
		worldBox.Expand(bbox(i))
	}

	start := time.Now()
	b.partition(workList, worldBox, 0)
	b.logger.Debugf(
		"kd-tree build time: %d ms, maxDepth: %d, nodes: %d, leafs: %d, index entries: %d (%d primitives)",
		time.Since(start).Nanoseconds()/1e6,
		b.stats.maxDepth, b.stats.nodes, b.stats.leafs, b.stats.pushedItems, b.stats.totalItems,
	)

	return &kdtree.BuiltTree{
		Nodes:   b.nodes,
		Indices: b.indices,
		BBox:    worldBox,
	}, nil
}

// Partition the work list and return the node index.
func (b *Builder) partition(workList []uint32, nodeBox types.AABB, depth int) int32 {
	if depth > b.stats.maxDepth {
		b.stats.maxDepth = depth
	}

	if len(workList) <= b.minLeafItems || depth >= maxTreeDepth {
		return b.createLeaf(workList)
	}

	// Try partitioning along each axis and select the split with the best
	// score, keeping the whole list as a leaf when nothing improves on it.
	bestScore := b.scoreStrategy.ScorePartition(workList, nodeBox)
	var bestSplit *splitScore

	side := nodeBox.Size()
	for axis := XAxis; axis <= ZAxis; axis++ {
		if side[axis] < minSideLength {
			continue
		}

		splitStep := side[axis] / (splitCandidates + 1)
		for k := 1; k <= splitCandidates; k++ {
			splitPoint := nodeBox.Min[axis] + float32(k)*splitStep
			lCount, rCount, score := b.scoreStrategy.ScoreSplit(workList, b.bboxFn, nodeBox, axis, splitPoint)
			if score < bestScore {
				bestScore = score
				bestSplit = &splitScore{
					axis:       axis,
					splitPoint: splitPoint,
					leftCount:  lCount,
					rightCount: rCount,
					score:      score,
				}
			}
		}
	}

	if bestSplit == nil {
		return b.createLeaf(workList)
	}

	// Split the work list into two sets; primitives straddling the plane
	// land in both.
	leftWorkList := make([]uint32, 0, bestSplit.leftCount)
	rightWorkList := make([]uint32, 0, bestSplit.rightCount)
	for _, prim := range workList {
		box := b.bboxFn(int(prim))
		if box.Min[bestSplit.axis] < bestSplit.splitPoint {
			leftWorkList = append(leftWorkList, prim)
		}
		if box.Max[bestSplit.axis] >= bestSplit.splitPoint {
			rightWorkList = append(rightWorkList, prim)
		}
	}

	leftBox, rightBox := nodeBox, nodeBox
	leftBox.Max[bestSplit.axis] = bestSplit.splitPoint
	rightBox.Min[bestSplit.axis] = bestSplit.splitPoint

	// Add node to the list before recursing so the root stays at index 0.
	nodeIndex := int32(len(b.nodes))
	var node kdtree.Node
	node.SetSplit(int32(bestSplit.axis), bestSplit.splitPoint)
	b.nodes = append(b.nodes, node)
	b.stats.nodes++

	leftNodeIndex := b.partition(leftWorkList, leftBox, depth+1)
	rightNodeIndex := b.partition(rightWorkList, rightBox, depth+1)
	b.nodes[nodeIndex].SetChildNodes(leftNodeIndex, rightNodeIndex)

	return nodeIndex
}

// Set up a leaf node referencing all items in the work list and return its
// index in the node array.
func (b *Builder) createLeaf(workList []uint32) int32 {
	first := int32(len(b.indices))
	b.indices = append(b.indices, workList...)

	var node kdtree.Node
	node.SetPrimitives(first, int32(len(workList)))

	nodeIndex := int32(len(b.nodes))
	b.nodes = append(b.nodes, node)

	b.stats.nodes++
	b.stats.leafs++
	b.stats.pushedItems += len(workList)

	return nodeIndex
}

// A score implementation that uses the surface area heuristic for
// calculating split scores: count * sub-box face area summed over both
// sides. Cutting off empty space shrinks one side's area with no count
// penalty, so such splits naturally score well.
type surfaceAreaHeuristic struct{}

func (h surfaceAreaHeuristic) ScoreSplit(workList []uint32, bbox func(i int) types.AABB, nodeBox types.AABB, splitAxis Axis, splitPoint float32) (leftCount, rightCount int, score float32) {
	for _, prim := range workList {
		box := bbox(int(prim))
		if box.Min[splitAxis] < splitPoint {
			leftCount++
		}
		if box.Max[splitAxis] >= splitPoint {
			rightCount++
		}
	}

	leftBox, rightBox := nodeBox, nodeBox
	leftBox.Max[splitAxis] = splitPoint
	rightBox.Min[splitAxis] = splitPoint

	score = float32(leftCount)*leftBox.SurfaceArea() + float32(rightCount)*rightBox.SurfaceArea()
	return leftCount, rightCount, score
}

func (h surfaceAreaHeuristic) ScorePartition(workList []uint32, nodeBox types.AABB) float32 {
	return float32(len(workList)) * nodeBox.SurfaceArea()
}
