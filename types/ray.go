package types

import "github.com/chewxy/math32"

const (
	// Default minimum ray offset. Rays created with NewRay start at this
	// parametric distance to avoid re-hitting the surface they left.
	Epsilon float32 = 1e-4

	// Default maximum ray extent.
	MaxDist float32 = math32.MaxFloat32
)

// A ray segment with precomputed reciprocal direction components.
//
// DRcp is kept in sync with D by the constructors; callers that mutate D
// directly must call UpdateRcp before handing the ray to a query.
type Ray struct {
	O    Vec3
	D    Vec3
	DRcp Vec3

	Mint float32
	Maxt float32
}

// Create a ray with the default [Epsilon, MaxDist] extents.
func NewRay(origin, dir Vec3) Ray {
	return Ray{
		O:    origin,
		D:    dir,
		DRcp: dir.Recip(),
		Mint: Epsilon,
		Maxt: MaxDist,
	}
}

// Create a ray with custom extents.
func NewRaySegment(origin, dir Vec3, mint, maxt float32) Ray {
	r := NewRay(origin, dir)
	r.Mint = mint
	r.Maxt = maxt
	return r
}

// Recompute the cached reciprocal direction.
func (r *Ray) UpdateRcp() {
	r.DRcp = r.D.Recip()
}

// Point along the ray at parametric distance t.
func (r *Ray) At(t float32) Vec3 {
	return r.O.Add(r.D.Mul(t))
}

// True if both origin and direction are finite.
func (r *Ray) Finite() bool {
	return r.O.Finite() && r.D.Finite()
}
