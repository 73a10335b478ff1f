package kdtree

import "github.com/raydex/raydex/types"

const (
	// Axis tag marking a leaf node.
	leafAxis int32 = 3

	// Maximum tree depth supported by the fixed traversal stacks.
	maxDepth = 64
)

// Tree nodes are stored as a contiguous list and referenced by index. The
// two multipurpose int32 fields depend on the node type:
//
// - For internal nodes they are both >0 and point to the L/R child nodes;
//   Axis holds the split dimension and Split the split coordinate.
// - For leafs LData is <=0 and holds the negated first entry into the shared
//   index buffer, RData holds the entry count, and Axis is the leaf tag.
type Node struct {
	Split float32
	Axis  int32

	LData int32
	RData int32
}

// Tag the node as internal with the given split plane.
func (n *Node) SetSplit(axis int32, split float32) {
	n.Axis = axis
	n.Split = split
}

// Set left and right child node indices.
func (n *Node) SetChildNodes(left, right int32) {
	n.LData = left
	n.RData = right
}

// Get left and right child node indices.
func (n *Node) ChildNodes() (left, right int32) {
	return n.LData, n.RData
}

// Tag the node as a leaf covering count entries of the index buffer
// starting at first.
func (n *Node) SetPrimitives(first, count int32) {
	n.Axis = leafAxis
	n.LData = -first
	n.RData = count
}

// Get the [start, end) index buffer range of a leaf.
func (n *Node) Primitives() (start, end int32) {
	start = -n.LData
	return start, start + n.RData
}

func (n *Node) Leaf() bool {
	return n.Axis == leafAxis
}

// The output of a tree builder: the node arena rooted at Nodes[0], the
// shared index buffer leaf ranges point into, and the world bounds.
type BuiltTree struct {
	Nodes   []Node
	Indices []uint32
	BBox    types.AABB
}

// TreeBuilder constructs the spatial subdivision for a set of primitives.
// Implementations receive the total primitive count and a bounding box
// accessor; they never touch shape storage directly. Returned trees must
// not exceed 64 levels (the fixed traversal stack size); deeper trees are
// rejected with ErrTreeTooDeep.
type TreeBuilder interface {
	Build(primCount int, bbox func(i int) types.AABB) (*BuiltTree, error)
}

// Longest root-to-leaf node count. Walked iteratively so a malformed deep
// tree is measured rather than recursed into.
func treeDepth(nodes []Node) int {
	if len(nodes) == 0 {
		return 0
	}

	type visit struct {
		node  int32
		depth int
	}
	deepest := 0
	pending := []visit{{node: 0, depth: 1}}
	for len(pending) > 0 {
		v := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if v.depth > deepest {
			deepest = v.depth
		}
		n := &nodes[v.node]
		if !n.Leaf() {
			left, right := n.ChildNodes()
			pending = append(pending,
				visit{node: left, depth: v.depth + 1},
				visit{node: right, depth: v.depth + 1},
			)
		}
	}
	return deepest
}
