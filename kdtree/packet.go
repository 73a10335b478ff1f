package kdtree

import (
	"github.com/chewxy/math32"
	"github.com/raydex/raydex/types"
)

// Per-lane results for a 4-ray packet query. Lanes that found no hit keep
// T at MaxDist and ShapeIndex at -1.
type Intersection4 struct {
	T [4]float32
	U [4]float32
	V [4]float32

	ShapeIndex [4]int32

	// Triangle index within the owning mesh, or -1 for hits resolved
	// through the shape's own intersection method.
	PrimIndex [4]int32
}

func (its *Intersection4) Reset() {
	for i := 0; i < 4; i++ {
		its.T[i] = types.MaxDist
		its.U[i] = 0
		its.V[i] = 0
		its.ShapeIndex[i] = -1
		its.PrimIndex[i] = -1
	}
}

type packetStackEntry struct {
	node     int32
	interval types.RayInterval4
}

// Traverse the tree once for a bundle of 4 coherent rays. Each lane keeps
// its own active interval and drops out of geometric tests once resolved;
// traversal continues until every lane is resolved or the stack empties.
//
// The shared near/far child ordering requires all lanes to agree on their
// direction signs (RayPacket4.Load reports this); bundles that diverge
// beyond that are handled correctly, only slower. Sign-mismatched bundles
// must go through IntersectPacketIncoherent.
func (t *Tree) IntersectPacket(p *types.RayPacket4, rayInterval *types.RayInterval4, its *Intersection4) {
	if !t.built {
		panic(ErrNotBuilt)
	}
	t.count(&t.stats.coherentPackets)
	its.Reset()

	var interval types.RayInterval4
	if !t.aabb.RayIntersectPacket(p, &interval) {
		return
	}
	for i := 0; i < 4; i++ {
		interval.Mint[i] = math32.Max(interval.Mint[i], rayInterval.Mint[i])
		interval.Maxt[i] = math32.Min(interval.Maxt[i], rayInterval.Maxt[i])
	}

	// A lane is masked while its interval is empty at the current node;
	// itsFound marks lanes that are resolved for good.
	var itsFound, masked [4]bool
	allDone := true
	for i := 0; i < 4; i++ {
		itsFound[i] = interval.Mint[i] > interval.Maxt[i]
		masked[i] = itsFound[i]
		if !itsFound[i] {
			allDone = false
		}
	}
	if allDone {
		return
	}

	lanes := [4]types.Ray{p.Lane(0), p.Lane(1), p.Lane(2), p.Lane(3)}

	var stack [maxDepth]packetStackEntry
	sp := 0
	node := int32(0)

	for {
		n := &t.nodes[node]
		for !n.Leaf() {
			axis := n.Axis

			var tPlane [4]float32
			allStartAfter := true
			allEndBefore := true
			for i := 0; i < 4; i++ {
				tPlane[i] = (n.Split - p.O[axis][i]) * p.DRcp[axis][i]
				if !(masked[i] || tPlane[i] < interval.Mint[i]) {
					allStartAfter = false
				}
				if !(masked[i] || tPlane[i] > interval.Maxt[i]) {
					allEndBefore = false
				}
			}

			left, right := n.ChildNodes()
			near, far := left, right
			if p.Signs[axis] == 1 {
				near, far = right, left
			}

			// All unresolved lanes lie entirely on one side of the split.
			if allStartAfter {
				node = far
				n = &t.nodes[node]
				continue
			}
			if allEndBefore {
				node = near
				n = &t.nodes[node]
				continue
			}

			e := &stack[sp]
			sp++
			e.node = far
			for i := 0; i < 4; i++ {
				e.interval.Maxt[i] = interval.Maxt[i]
				e.interval.Mint[i] = math32.Max(tPlane[i], interval.Mint[i])

				interval.Maxt[i] = math32.Min(tPlane[i], interval.Maxt[i])
				if interval.Mint[i] > interval.Maxt[i] {
					masked[i] = true
				}
			}
			node = near
			n = &t.nodes[node]
		}

		start, end := n.Primitives()
		if start != end {
			var searchStart, searchEnd [4]float32
			for i := 0; i < 4; i++ {
				searchStart[i] = math32.Max(rayInterval.Mint[i], interval.Mint[i]*(1-types.Epsilon))
				searchEnd[i] = math32.Min(rayInterval.Maxt[i], interval.Maxt[i]*(1+types.Epsilon))
			}

			for entry := start; entry < end; entry++ {
				ta := &t.triAccel[t.indices[entry]]
				if ta.K != NoTriangleFlag {
					for i := 0; i < 4; i++ {
						if masked[i] {
							continue
						}
						u, v, tHit, ok := ta.RayIntersect(&lanes[i], searchStart[i], searchEnd[i])
						if ok && tHit < its.T[i] {
							its.T[i] = tHit
							its.U[i] = u
							its.V[i] = v
							its.ShapeIndex[i] = int32(ta.ShapeIndex)
							its.PrimIndex[i] = int32(ta.PrimIndex)
							itsFound[i] = true
						}
					}
				} else {
					// Shapes expose only single-ray intersection, so the
					// delegate path runs one lane at a time.
					s := t.shapes[ta.ShapeIndex]
					for i := 0; i < 4; i++ {
						if masked[i] {
							continue
						}
						tmp, ok := s.Intersect(&lanes[i], searchStart[i], searchEnd[i])
						if ok && tmp.T < its.T[i] {
							its.T[i] = tmp.T
							its.U[i] = tmp.U
							its.V[i] = tmp.V
							its.ShapeIndex[i] = int32(ta.ShapeIndex)
							its.PrimIndex[i] = -1
							itsFound[i] = true
						}
					}
				}
				for i := 0; i < 4; i++ {
					if its.T[i] < searchEnd[i] {
						searchEnd[i] = its.T[i]
					}
				}
			}
		}

		allDone = true
		for i := 0; i < 4; i++ {
			if !itsFound[i] {
				allDone = false
				break
			}
		}
		if allDone || sp == 0 {
			return
		}

		sp--
		node = stack[sp].node
		interval = stack[sp].interval
		for i := 0; i < 4; i++ {
			masked[i] = itsFound[i] || interval.Mint[i] > interval.Maxt[i]
		}
	}
}

// Fallback for bundles whose rays do not share similar directions: run the
// scalar engine once per lane, writing into the same packet-shaped output.
func (t *Tree) IntersectPacketIncoherent(p *types.RayPacket4, rayInterval *types.RayInterval4, its *Intersection4) {
	if !t.built {
		panic(ErrNotBuilt)
	}
	t.count(&t.stats.incoherentPackets)
	its.Reset()

	for i := 0; i < 4; i++ {
		r := p.Lane(i)
		r.Mint = rayInterval.Mint[i]
		r.Maxt = rayInterval.Maxt[i]
		if r.Mint >= r.Maxt {
			continue
		}

		mint, maxt, ok := t.aabb.RayIntersect(&r)
		if !ok {
			continue
		}
		if r.Mint > mint {
			mint = r.Mint
		}
		if r.Maxt < maxt {
			maxt = r.Maxt
		}
		if maxt <= mint {
			continue
		}

		var cache intersectionCache
		tHit, found := t.traverse(&r, mint, maxt, false, &cache)
		if !found {
			continue
		}
		its.T[i] = tHit
		its.ShapeIndex[i] = int32(cache.shapeIndex)
		if cache.primIndex == NoTriangleFlag {
			its.PrimIndex[i] = -1
			its.U[i] = cache.shapeTemp.U
			its.V[i] = cache.shapeTemp.V
		} else {
			its.PrimIndex[i] = int32(cache.primIndex)
			its.U[i] = cache.u
			its.V[i] = cache.v
		}
	}
}
