package kdtree

import (
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/raydex/raydex/shape"
	"github.com/raydex/raydex/types"
)

// An ellipsoidal region of space: a center plus three orthogonal semi-axis
// vectors. Points p with |toUnit(p)| <= 1 lie inside.
type Ellipsoid struct {
	Center types.Vec3

	// Unit axis directions and reciprocal semi-axis lengths.
	axes   [3]types.Vec3
	invLen [3]float32

	bbox types.AABB
}

// Build an ellipsoid from its center and three mutually orthogonal
// semi-axis vectors.
func NewEllipsoid(center types.Vec3, semiAxes [3]types.Vec3) Ellipsoid {
	e := Ellipsoid{Center: center}
	for i := 0; i < 3; i++ {
		l := semiAxes[i].Len()
		e.axes[i] = semiAxes[i].Mul(1 / l)
		e.invLen[i] = 1 / l
	}

	// Tight world bounds: the half extent along dimension d is
	// sqrt(sum_i semiAxes[i][d]^2).
	var ext types.Vec3
	for d := 0; d < 3; d++ {
		var sum float32
		for i := 0; i < 3; i++ {
			sum += semiAxes[i][d] * semiAxes[i][d]
		}
		ext[d] = math32.Sqrt(sum)
	}
	e.bbox = types.AABB{Min: center.Sub(ext), Max: center.Add(ext)}
	return e
}

// A spherical region as a degenerate ellipsoid.
func NewSphericalRegion(center types.Vec3, radius float32) Ellipsoid {
	return NewEllipsoid(center, [3]types.Vec3{
		types.XYZ(radius, 0, 0),
		types.XYZ(0, radius, 0),
		types.XYZ(0, 0, radius),
	})
}

func (e *Ellipsoid) BBox() types.AABB {
	return e.bbox
}

// Map a world point into the space where the ellipsoid is the unit sphere.
func (e *Ellipsoid) toUnit(p types.Vec3) types.Vec3 {
	d := p.Sub(e.Center)
	return types.Vec3{
		d.Dot(e.axes[0]) * e.invLen[0],
		d.Dot(e.axes[1]) * e.invLen[1],
		d.Dot(e.axes[2]) * e.invLen[2],
	}
}

func (e *Ellipsoid) Contains(p types.Vec3) bool {
	u := e.toUnit(p)
	return u.Dot(u) <= 1
}

// Exact ellipsoid/triangle overlap test. The triangle is mapped into unit
// sphere space where overlap holds iff the closest point on it to the
// origin lies within distance 1. Returns the barycentric coordinates of
// that closest point.
func (e *Ellipsoid) IntersectTriangle(v0, v1, v2 types.Vec3) (u, v float32, ok bool) {
	a := e.toUnit(v0)
	b := e.toUnit(v1)
	c := e.toUnit(v2)
	u, v, distSqr := closestPointTriangle(a, b, c)
	return u, v, distSqr <= 1
}

// Closest point to the origin on triangle (a, b, c), reported as the
// barycentric weights of b and c plus the squared distance.
func closestPointTriangle(a, b, c types.Vec3) (u, v, distSqr float32) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := a.Mul(-1)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return 0, 0, a.Dot(a)
	}

	bp := b.Mul(-1)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return 1, 0, b.Dot(b)
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		w := d1 / (d1 - d3)
		p := a.Add(ab.Mul(w))
		return w, 0, p.Dot(p)
	}

	cp := c.Mul(-1)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return 0, 1, c.Dot(c)
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		p := a.Add(ac.Mul(w))
		return 0, w, p.Dot(p)
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		p := b.Add(c.Sub(b).Mul(w))
		return 1 - w, w, p.Dot(p)
	}

	denom := 1 / (va + vb + vc)
	u = vb * denom
	v = vc * denom
	p := a.Add(ab.Mul(u)).Add(ac.Mul(v))
	return u, v, p.Dot(p)
}

// One stochastically sampled primitive touching a region, with the
// associated probability weight.
type RegionSample struct {
	Shape      shape.Shape
	ShapeIndex uint32

	// Triangle index within the owning mesh, or NoTriangleFlag for atomic
	// shapes matched through their bounding box.
	PrimIndex uint32

	U, V float32

	// Accumulated probability weight: halved for every random descent
	// and divided by the candidate count at the sampled leaf. This is a
	// best-effort estimate, not a proven unbiased one.
	Weight float32
}

// Return at most one candidate primitive intersecting the region, chosen by
// descending a random child at every internal node and sampling one
// primitive uniformly at the reached leaf. Sub-linear in scene size; a
// false return does not imply the region is empty.
//
// Experimental: the weighting contract is a best-effort approximation.
func (t *Tree) QueryEllipsoid(e *Ellipsoid, rng *rand.Rand) (RegionSample, bool) {
	if !t.built {
		panic(ErrNotBuilt)
	}
	t.count(&t.stats.regionQueries)

	var sample RegionSample
	sample.Weight = 1
	if t.queryRegion(0, t.aabb, e, rng, &sample) {
		return sample, true
	}
	return RegionSample{}, false
}

func (t *Tree) queryRegion(node int32, box types.AABB, e *Ellipsoid, rng *rand.Rand, sample *RegionSample) bool {
	// Conservative separating-box reject: may admit nodes the ellipsoid
	// does not truly cut, never the reverse.
	if !box.Overlaps(e.bbox) {
		return false
	}

	n := &t.nodes[node]
	if n.Leaf() {
		start, end := n.Primitives()
		count := end - start
		if count == 0 {
			return false
		}

		// Testing the candidates in a random permutation would bias the
		// estimate; sample a single one and weight by the pick probability.
		sample.Weight /= float32(count)
		pick := t.indices[start+int32(rng.Intn(int(count)))]
		ta := &t.triAccel[pick]

		if ta.K != NoTriangleFlag {
			mesh := t.shapes[ta.ShapeIndex].(shape.TriangleMesh)
			v0, v1, v2 := mesh.Triangle(int(ta.PrimIndex))
			u, v, ok := e.IntersectTriangle(v0, v1, v2)
			if !ok {
				return false
			}
			sample.Shape = t.shapes[ta.ShapeIndex]
			sample.ShapeIndex = ta.ShapeIndex
			sample.PrimIndex = ta.PrimIndex
			sample.U = u
			sample.V = v
			return true
		}

		s := t.shapes[ta.ShapeIndex]
		if !s.BBox().Overlaps(e.bbox) {
			return false
		}
		sample.Shape = s
		sample.ShapeIndex = ta.ShapeIndex
		sample.PrimIndex = NoTriangleFlag
		return true
	}

	left, right := n.ChildNodes()
	leftBox, rightBox := box, box
	leftBox.Max[n.Axis] = n.Split
	rightBox.Min[n.Axis] = n.Split

	// Visit one child at random to keep the query sub-linear.
	sample.Weight *= 0.5
	if rng.Float64() < 0.5 {
		return t.queryRegion(left, leftBox, e, rng, sample)
	}
	return t.queryRegion(right, rightBox, e, rng, sample)
}
