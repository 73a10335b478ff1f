package kdtree

import "github.com/raydex/raydex/types"

// K value marking an accelerator record that redirects to the owning
// shape's own intersection method instead of the triangle fast path.
const NoTriangleFlag uint32 = 0xffffffff

// K value assigned to degenerate (zero-area) triangles at load time. The
// intersection test rejects any K >= 3, so such records consistently miss.
const degenerateFlag uint32 = 3

var waldModulo = [4]int{1, 2, 0, 1}

// A precomputed intersection-ready record for one primitive, using Wald's
// projection method: the triangle plane and barycentric conversion are
// baked into ten floats so the ray test never dereferences mesh storage.
type TriAccel struct {
	// Projection axis (largest normal component) or one of the flags.
	K uint32

	// Plane equation: p[k] + NU*p[u] + NV*p[v] == ND.
	NU, NV, ND float32

	// Projected coordinates of the first vertex.
	AU, AV float32

	// Barycentric conversion coefficients.
	BNU, BNV float32
	CNU, CNV float32

	// Owning shape and triangle index within that shape's mesh.
	ShapeIndex uint32
	PrimIndex  uint32
}

// Precompute the test coefficients from the triangle vertices. Returns
// false for degenerate triangles, which are flagged so the test always
// misses.
func (ta *TriAccel) Load(a, b, c types.Vec3) bool {
	bv := c.Sub(a)
	cv := b.Sub(a)
	n := cv.Cross(bv)

	k := n.MaxDimension()
	u := waldModulo[k]
	v := waldModulo[k+1]

	nk := n[k]
	denom := bv[u]*cv[v] - bv[v]*cv[u]
	if denom == 0 || nk == 0 {
		ta.K = degenerateFlag
		return false
	}

	ta.K = uint32(k)
	ta.NU = n[u] / nk
	ta.NV = n[v] / nk
	ta.ND = a.Dot(n) / nk
	ta.AU = a[u]
	ta.AV = a[v]
	ta.BNU = bv[u] / denom
	ta.BNV = -bv[v] / denom
	ta.CNU = cv[v] / denom
	ta.CNV = -cv[u] / denom
	return true
}

// Closed-form ray test against the precomputed triangle restricted to
// [mint, maxt]. Returns the barycentric hit coordinates and the parametric
// distance.
func (ta *TriAccel) RayIntersect(r *types.Ray, mint, maxt float32) (u, v, t float32, ok bool) {
	var oU, oV, oK, dU, dV, dK float32
	switch ta.K {
	case 0:
		oU, oV, oK = r.O[1], r.O[2], r.O[0]
		dU, dV, dK = r.D[1], r.D[2], r.D[0]
	case 1:
		oU, oV, oK = r.O[2], r.O[0], r.O[1]
		dU, dV, dK = r.D[2], r.D[0], r.D[1]
	case 2:
		oU, oV, oK = r.O[0], r.O[1], r.O[2]
		dU, dV, dK = r.D[0], r.D[1], r.D[2]
	default:
		// Sentinel or degenerate record.
		return 0, 0, 0, false
	}

	dd := dU*ta.NU + dV*ta.NV + dK
	if dd == 0 {
		return 0, 0, 0, false
	}

	t = (ta.ND - oU*ta.NU - oV*ta.NV - oK) / dd
	if t < mint || t > maxt {
		return 0, 0, 0, false
	}

	// Projected plane intersection point relative to the first vertex.
	hu := oU + t*dU - ta.AU
	hv := oV + t*dV - ta.AV

	u = hv*ta.BNU + hu*ta.BNV
	v = hu*ta.CNU + hv*ta.CNV
	ok = u >= 0 && v >= 0 && u+v <= 1
	return u, v, t, ok
}
