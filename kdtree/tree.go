// Package kdtree implements an immutable spatial index over a mixed set of
// shapes. Triangle meshes are expanded into per-triangle primitives with
// precomputed intersection records; other shapes are indexed through their
// bounding boxes and intersected via their own methods. Once built, a tree
// is read-only and safe for concurrent queries.
package kdtree

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/raydex/raydex/log"
	"github.com/raydex/raydex/shape"
	"github.com/raydex/raydex/types"
)

type Tree struct {
	logger log.Logger

	shapes []shape.Shape

	// Cumulative primitive counts, one entry per shape plus a leading
	// zero. Converted to prefix sums by Build.
	shapeMap     []uint32
	triangleFlag []bool

	triAccel []TriAccel

	nodes   []Node
	indices []uint32
	aabb    types.AABB

	stats  *Stats
	strict bool
	built  bool
}

type Option func(*Tree)

// Check ray origin/direction for non-finite values on every query and
// treat violations as contract failures.
func WithStrictValidation() Option {
	return func(t *Tree) {
		t.strict = true
	}
}

// Use an externally owned stats collaborator instead of a private one.
func WithStats(s *Stats) Option {
	return func(t *Tree) {
		t.stats = s
	}
}

func New(opts ...Option) *Tree {
	t := &Tree{
		logger:   log.New("kdtree"),
		shapeMap: []uint32{0},
		stats:    &Stats{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register a shape with the index. Triangle meshes are expanded into
// individual primitives visible to the tree construction code; any other
// shape contributes a single primitive handled through its AABB. The tree
// takes a shared reference to the shape.
func (t *Tree) AddShape(s shape.Shape) error {
	if t.built {
		return ErrAlreadyBuilt
	}
	if _, isCompound := s.(shape.Compound); isCompound {
		return ErrCompoundShape
	}

	if mesh, isMesh := s.(shape.TriangleMesh); isMesh {
		t.shapeMap = append(t.shapeMap, uint32(mesh.TriangleCount()))
		t.triangleFlag = append(t.triangleFlag, true)
	} else {
		t.shapeMap = append(t.shapeMap, 1)
		t.triangleFlag = append(t.triangleFlag, false)
	}
	s.IncRef()
	t.shapes = append(t.shapes, s)
	return nil
}

// Finalize the index: convert the shape map to prefix sums, delegate the
// spatial subdivision to the builder and precompute the triangle
// intersection records. After Build returns the tree is immutable.
func (t *Tree) Build(builder TreeBuilder) error {
	if t.built {
		return ErrAlreadyBuilt
	}
	if builder == nil {
		return ErrNoBuilder
	}
	if len(t.shapes) == 0 {
		return ErrNoShapes
	}

	// The prefix-summed map must be in place while the builder runs (the
	// bbox accessor resolves through it), but the raw counts are restored
	// on failure so a retry starts from a clean slate.
	counts := t.shapeMap
	summed := make([]uint32, len(counts))
	for i := 1; i < len(counts); i++ {
		summed[i] = summed[i-1] + counts[i]
	}
	t.shapeMap = summed
	primCount := int(summed[len(summed)-1])

	built, err := builder.Build(primCount, t.PrimitiveBBox)
	if err == nil && treeDepth(built.Nodes) > maxDepth {
		err = ErrTreeTooDeep
	}
	if err != nil {
		t.shapeMap = counts
		return err
	}
	t.nodes = built.Nodes
	t.indices = built.Indices
	t.aabb = built.BBox

	start := time.Now()
	t.triAccel = make([]TriAccel, primCount)
	idx := 0
	degenerate := 0
	for i, s := range t.shapes {
		if t.triangleFlag[i] {
			mesh := s.(shape.TriangleMesh)
			for j := 0; j < mesh.TriangleCount(); j++ {
				v0, v1, v2 := mesh.Triangle(j)
				ta := &t.triAccel[idx]
				if !ta.Load(v0, v1, v2) {
					degenerate++
				}
				ta.ShapeIndex = uint32(i)
				ta.PrimIndex = uint32(j)
				idx++
			}
		} else {
			// A 'fake' triangle which redirects to the shape.
			t.triAccel[idx] = TriAccel{K: NoTriangleFlag, ShapeIndex: uint32(i)}
			idx++
		}
	}
	if degenerate > 0 {
		t.logger.Warningf("%d degenerate triangles disabled in the accelerator table", degenerate)
	}
	t.logger.Debugf(
		"precomputed %d triangle intersection records in %d ms",
		primCount, time.Since(start).Nanoseconds()/1e6,
	)

	t.built = true
	return nil
}

// Drop the accelerator table and release the tree's reference on every
// registered shape. The tree is unusable afterwards.
func (t *Tree) Release() {
	t.triAccel = nil
	t.nodes = nil
	t.indices = nil
	t.built = false
	for _, s := range t.shapes {
		s.DecRef()
	}
	t.shapes = nil
}

// Total number of indexed primitives.
func (t *Tree) PrimitiveCount() int {
	return int(t.shapeMap[len(t.shapeMap)-1])
}

func (t *Tree) ShapeCount() int {
	return len(t.shapes)
}

func (t *Tree) Shape(i int) shape.Shape {
	return t.shapes[i]
}

// The cumulative shape map. Valid as prefix sums only after Build.
func (t *Tree) ShapeMap() []uint32 {
	return t.shapeMap
}

// The accelerator record for a global primitive index.
func (t *Tree) AccelRecord(i int) TriAccel {
	return t.triAccel[i]
}

// World bounds of the built tree.
func (t *Tree) BBox() types.AABB {
	return t.aabb
}

// The stats collaborator receiving this tree's query counters.
func (t *Tree) Stats() *Stats {
	return t.stats
}

// Map a global primitive index to its owning shape index and the
// primitive's local index within that shape.
func (t *Tree) FindShape(primIndex uint32) (shapeIndex int, localIndex uint32) {
	shapeIndex = sort.Search(len(t.shapeMap), func(i int) bool {
		return t.shapeMap[i] > primIndex
	}) - 1
	return shapeIndex, primIndex - t.shapeMap[shapeIndex]
}

// Bounding box of a global primitive; the accessor handed to tree builders.
func (t *Tree) PrimitiveBBox(primIndex int) types.AABB {
	shapeIndex, local := t.FindShape(uint32(primIndex))
	s := t.shapes[shapeIndex]
	if t.triangleFlag[shapeIndex] {
		return s.(shape.TriangleMesh).TriangleBBox(int(local))
	}
	return s.BBox()
}

func (t *Tree) ensureQueryable(r *types.Ray) {
	if !t.built {
		panic(ErrNotBuilt)
	}
	if t.strict && !r.Finite() {
		panic("kdtree: non-finite ray origin or direction")
	}
}

func (t *Tree) count(counter *uint64) {
	atomic.AddUint64(counter, 1)
}
