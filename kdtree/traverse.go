package kdtree

import (
	"github.com/chewxy/math32"
	"github.com/raydex/raydex/shape"
	"github.com/raydex/raydex/types"
)

// A full intersection record.
type Intersection struct {
	T  float32
	P  types.Vec3
	N  types.Vec3
	UV types.Vec2

	Shape      shape.Shape
	ShapeIndex uint32

	// Triangle index within the owning mesh, or NoTriangleFlag for hits
	// resolved through the shape's own intersection method.
	PrimIndex uint32
}

// Caller-local scratch carried through one traversal; holds just enough to
// reconstruct the full record for the closest hit afterwards.
type intersectionCache struct {
	shapeIndex uint32
	primIndex  uint32
	u, v       float32
	shapeTemp  shape.HitTemp
}

type stackEntry struct {
	node       int32
	mint, maxt float32
}

// Find the nearest intersection along the ray within [ray.Mint, ray.Maxt].
func (t *Tree) Intersect(r *types.Ray) (Intersection, bool) {
	t.ensureQueryable(r)
	t.count(&t.stats.raysTraced)

	var its Intersection
	mint, maxt, ok := t.clipRay(r)
	if !ok {
		return its, false
	}

	var cache intersectionCache
	tHit, found := t.traverse(r, mint, maxt, false, &cache)
	if !found {
		return its, false
	}
	t.fillIntersection(r, tHit, &cache, &its)
	return its, true
}

// Lighter-weight nearest-hit variant for shading: skips the full record and
// returns only the distance, shape, normal and surface parameterization.
func (t *Tree) IntersectShading(r *types.Ray) (tHit float32, s shape.Shape, n types.Vec3, uv types.Vec2, ok bool) {
	t.ensureQueryable(r)
	t.count(&t.stats.shadowRaysTraced)

	mint, maxt, clipped := t.clipRay(r)
	if !clipped {
		return 0, nil, n, uv, false
	}

	var cache intersectionCache
	tHit, found := t.traverse(r, mint, maxt, false, &cache)
	if !found {
		return 0, nil, n, uv, false
	}

	s = t.shapes[cache.shapeIndex]
	if t.triangleFlag[cache.shapeIndex] {
		n, uv = t.triangleSurface(&cache)
	} else {
		s.FillIntersection(r, cache.shapeTemp, &n, &uv)
	}
	return tHit, s, n, uv, true
}

// Report whether any intersection exists in range. Cheaper than Intersect:
// traversal stops at the first confirmed hit.
func (t *Tree) Occluded(r *types.Ray) bool {
	t.ensureQueryable(r)
	t.count(&t.stats.shadowRaysTraced)

	mint, maxt, ok := t.clipRay(r)
	if !ok {
		return false
	}
	_, found := t.traverse(r, mint, maxt, true, nil)
	return found
}

// Clip the ray against the tree bounds and combine with [ray.Mint,
// ray.Maxt]. When the caller left Mint at the default epsilon it is scaled
// by the origin magnitude to suppress self-intersections at glancing
// angles far from the origin; a custom Mint is honored verbatim.
func (t *Tree) clipRay(r *types.Ray) (mint, maxt float32, ok bool) {
	mint, maxt, ok = t.aabb.RayIntersect(r)
	if !ok {
		return 0, 0, false
	}

	rayMinT := r.Mint
	if rayMinT == types.Epsilon {
		rayMinT *= math32.Max(r.O.MaxAbsComponent(), types.Epsilon)
	}
	if rayMinT > mint {
		mint = rayMinT
	}
	if r.Maxt < maxt {
		maxt = r.Maxt
	}
	if maxt <= mint {
		return 0, 0, false
	}
	return mint, maxt, true
}

// Stack-based depth-first descent (the Havran scheme). Near children are
// visited before far ones so a hit inside the near subtree prunes all
// farther work. With shadowRay set the first confirmed hit wins and cache
// may be nil.
func (t *Tree) traverse(r *types.Ray, mint, maxt float32, shadowRay bool, cache *intersectionCache) (float32, bool) {
	var stack [maxDepth]stackEntry
	sp := 0

	node := int32(0)
	bestT := types.MaxDist
	found := false

	for {
		n := &t.nodes[node]
		for !n.Leaf() {
			axis := n.Axis
			split := n.Split

			left, right := n.ChildNodes()
			near, far := left, right
			if r.O[axis] > split || (r.O[axis] == split && r.D[axis] > 0) {
				near, far = right, left
			}

			if r.D[axis] == 0 {
				// Parallel to the split plane: the whole interval stays on
				// the origin's side.
				node = near
			} else {
				tPlane := (split - r.O[axis]) * r.DRcp[axis]
				switch {
				case tPlane > maxt || tPlane <= 0:
					node = near
				case tPlane < mint:
					node = far
				default:
					stack[sp] = stackEntry{node: far, mint: tPlane, maxt: maxt}
					sp++
					node = near
					maxt = tPlane
				}
			}
			n = &t.nodes[node]
		}

		start, end := n.Primitives()
		if start != end {
			// Use relative slack at the leaf boundaries so hits right on a
			// splitting plane are not lost to rounding.
			searchStart := mint * (1 - types.Epsilon)
			searchEnd := math32.Min(maxt*(1+types.Epsilon), bestT)

			for entry := start; entry < end; entry++ {
				ta := &t.triAccel[t.indices[entry]]
				if ta.K != NoTriangleFlag {
					u, v, tHit, ok := ta.RayIntersect(r, searchStart, searchEnd)
					if !ok {
						continue
					}
					if shadowRay {
						return tHit, true
					}
					bestT = tHit
					searchEnd = tHit
					found = true
					cache.shapeIndex = ta.ShapeIndex
					cache.primIndex = ta.PrimIndex
					cache.u = u
					cache.v = v
				} else {
					// Delegate to the owning shape. This path repeats
					// bounding box and dispatch work the fast path avoids.
					s := t.shapes[ta.ShapeIndex]
					tmp, ok := s.Intersect(r, searchStart, searchEnd)
					if !ok {
						continue
					}
					if shadowRay {
						return tmp.T, true
					}
					bestT = tmp.T
					searchEnd = tmp.T
					found = true
					cache.shapeIndex = ta.ShapeIndex
					cache.primIndex = NoTriangleFlag
					cache.shapeTemp = tmp
				}
			}
		}

		// A hit inside the current [mint, maxt] segment cannot be beaten
		// by anything still on the stack.
		if found && bestT <= maxt*(1+types.Epsilon) {
			return bestT, true
		}

		for {
			if sp == 0 {
				return bestT, found
			}
			sp--
			e := &stack[sp]
			if found && e.mint > bestT {
				continue
			}
			node = e.node
			mint = e.mint
			maxt = math32.Min(e.maxt, bestT)
			break
		}
	}
}

func (t *Tree) triangleSurface(cache *intersectionCache) (n types.Vec3, uv types.Vec2) {
	mesh := t.shapes[cache.shapeIndex].(shape.TriangleMesh)
	v0, v1, v2 := mesh.Triangle(int(cache.primIndex))
	n = v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()

	if tc := mesh.Texcoords(); tc != nil {
		tri := mesh.TriangleIndices(int(cache.primIndex))
		w := 1 - cache.u - cache.v
		uv = tc[tri[0]].Mul(w).Add(tc[tri[1]].Mul(cache.u)).Add(tc[tri[2]].Mul(cache.v))
	}
	return n, uv
}

func (t *Tree) fillIntersection(r *types.Ray, tHit float32, cache *intersectionCache, its *Intersection) {
	its.T = tHit
	its.P = r.At(tHit)
	its.ShapeIndex = cache.shapeIndex
	its.PrimIndex = cache.primIndex
	its.Shape = t.shapes[cache.shapeIndex]

	if t.triangleFlag[cache.shapeIndex] {
		its.N, its.UV = t.triangleSurface(cache)
	} else {
		its.Shape.FillIntersection(r, cache.shapeTemp, &its.N, &its.UV)
	}
}
