package shape

import "github.com/raydex/raydex/types"

// A compound shape aggregating other shapes. Groups cannot be registered
// with an index directly; callers expand them first and register the parts.
type Group struct {
	RefCounted

	shapes []Shape
}

func NewGroup(shapes ...Shape) *Group {
	return &Group{shapes: shapes}
}

func (g *Group) Expand() []Shape {
	return g.shapes
}

func (g *Group) BBox() types.AABB {
	box := types.EmptyAABB()
	for _, s := range g.shapes {
		box.Expand(s.BBox())
	}
	return box
}

func (g *Group) Intersect(r *types.Ray, mint, maxt float32) (HitTemp, bool) {
	var best HitTemp
	found := false
	closest := maxt
	for _, s := range g.shapes {
		if tmp, ok := s.Intersect(r, mint, closest); ok {
			best = tmp
			closest = tmp.T
			found = true
		}
	}
	return best, found
}

func (g *Group) FillIntersection(r *types.Ray, tmp HitTemp, n *types.Vec3, uv *types.Vec2) {
	// Delegation loses track of which member produced the hit, so groups
	// are only usable for any-hit style queries outside an index.
	*n = types.Vec3{}
	*uv = types.Vec2{}
}
