// Package shape defines the geometric objects that can be registered with a
// kd-tree index. Triangle meshes are expanded by the index into individual
// triangle primitives; every other shape is treated as a single opaque
// primitive intersected through its own Intersect method.
package shape

import (
	"sync/atomic"

	"github.com/raydex/raydex/types"
)

// Temporary hit data cached between Intersect and FillIntersection. The
// index stores this verbatim in its per-query scratch record so the full
// surface data only gets derived for the closest hit.
type HitTemp struct {
	T float32

	// Barycentric or parametric coordinates, shape-specific.
	U, V float32

	// Sub-primitive index for shapes with internal structure.
	Prim uint32
}

type Shape interface {
	// Bounding box in world space.
	BBox() types.AABB

	// Test a single ray restricted to [mint, maxt].
	Intersect(r *types.Ray, mint, maxt float32) (HitTemp, bool)

	// Derive the surface normal and parameterization at a cached hit.
	FillIntersection(r *types.Ray, tmp HitTemp, n *types.Vec3, uv *types.Vec2)

	// Shared ownership bookkeeping.
	IncRef()
	DecRef() int32
}

// Compound shapes aggregate other shapes and must be expanded into their
// parts before they can be registered with an index.
type Compound interface {
	Expand() []Shape
}

// TriangleMesh is implemented by shapes that decompose into triangle
// primitives. An index expands these into one primitive per triangle.
type TriangleMesh interface {
	Shape

	TriangleCount() int
	Triangle(i int) (v0, v1, v2 types.Vec3)
	TriangleIndices(i int) [3]uint32
	TriangleBBox(i int) types.AABB

	// Per-vertex texture coordinates, or nil.
	Texcoords() []types.Vec2
}

// An embeddable atomic reference count.
type RefCounted struct {
	refs int32
}

func (r *RefCounted) IncRef() {
	atomic.AddInt32(&r.refs, 1)
}

// Drop a reference; returns the remaining count.
func (r *RefCounted) DecRef() int32 {
	return atomic.AddInt32(&r.refs, -1)
}

func (r *RefCounted) RefCount() int32 {
	return atomic.LoadInt32(&r.refs)
}
