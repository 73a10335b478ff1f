package shape

import (
	"github.com/chewxy/math32"
	"github.com/raydex/raydex/types"
)

// An atomic sphere shape. It contributes a single primitive to an index and
// is intersected through its own quadratic test rather than the accelerator
// table fast path.
type Sphere struct {
	RefCounted

	center types.Vec3
	radius float32
}

func NewSphere(center types.Vec3, radius float32) *Sphere {
	return &Sphere{center: center, radius: radius}
}

func (s *Sphere) Center() types.Vec3 {
	return s.center
}

func (s *Sphere) Radius() float32 {
	return s.radius
}

func (s *Sphere) BBox() types.AABB {
	r := types.XYZ(s.radius, s.radius, s.radius)
	return types.AABB{Min: s.center.Sub(r), Max: s.center.Add(r)}
}

func (s *Sphere) Intersect(r *types.Ray, mint, maxt float32) (HitTemp, bool) {
	oc := r.O.Sub(s.center)
	a := r.D.Dot(r.D)
	halfB := oc.Dot(r.D)
	c := oc.Dot(oc) - s.radius*s.radius

	disc := halfB*halfB - a*c
	if disc < 0 {
		return HitTemp{}, false
	}
	sqrtDisc := math32.Sqrt(disc)

	// Nearest root within [mint, maxt].
	t := (-halfB - sqrtDisc) / a
	if t < mint || t > maxt {
		t = (-halfB + sqrtDisc) / a
		if t < mint || t > maxt {
			return HitTemp{}, false
		}
	}
	return HitTemp{T: t}, true
}

func (s *Sphere) FillIntersection(r *types.Ray, tmp HitTemp, n *types.Vec3, uv *types.Vec2) {
	p := r.At(tmp.T)
	*n = p.Sub(s.center).Mul(1 / s.radius)

	// Spherical surface parameterization.
	theta := math32.Acos(math32.Max(-1, math32.Min(1, (*n)[1])))
	phi := math32.Atan2((*n)[2], (*n)[0])
	if phi < 0 {
		phi += 2 * math32.Pi
	}
	*uv = types.XY(phi/(2*math32.Pi), theta/math32.Pi)
}
