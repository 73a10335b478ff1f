package types

import "github.com/chewxy/math32"

// An axis-aligned bounding box.
type AABB struct {
	Min Vec3
	Max Vec3
}

// An AABB that contains nothing; extending it with any point or box yields
// that point or box.
func EmptyAABB() AABB {
	return AABB{
		Min: Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: Vec3{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}
}

// Grow the box to include a point.
func (b *AABB) ExpandPoint(p Vec3) {
	b.Min = MinVec3(b.Min, p)
	b.Max = MaxVec3(b.Max, p)
}

// Grow the box to include another box.
func (b *AABB) Expand(other AABB) {
	b.Min = MinVec3(b.Min, other.Min)
	b.Max = MaxVec3(b.Max, other.Max)
}

// Box center point.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Box side lengths.
func (b AABB) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Total face area of the box.
func (b AABB) SurfaceArea() float32 {
	s := b.Size()
	return 2 * (s[0]*s[1] + s[1]*s[2] + s[2]*s[0])
}

// True if the two boxes share at least one point.
func (b AABB) Overlaps(other AABB) bool {
	for i := 0; i < 3; i++ {
		if other.Max[i] < b.Min[i] || other.Min[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// True if p lies inside or on the box.
func (b AABB) Contains(p Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Clip a ray against the box using the slab method. Returns the parametric
// entry/exit distances; ok is false when the ray misses the box entirely.
// The returned interval is not yet clipped to [ray.Mint, ray.Maxt].
func (b AABB) RayIntersect(r *Ray) (mint, maxt float32, ok bool) {
	mint = -MaxDist
	maxt = MaxDist
	for axis := 0; axis < 3; axis++ {
		t1 := (b.Min[axis] - r.O[axis]) * r.DRcp[axis]
		t2 := (b.Max[axis] - r.O[axis]) * r.DRcp[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > mint {
			mint = t1
		}
		if t2 < maxt {
			maxt = t2
		}
		if mint > maxt {
			return 0, 0, false
		}
	}
	return mint, maxt, true
}

// Clip all four packet lanes against the box. Lanes that miss come back with
// an inverted (empty) interval; ok is false only when every lane misses.
func (b AABB) RayIntersectPacket(p *RayPacket4, interval *RayInterval4) bool {
	anyHit := false
	for lane := 0; lane < 4; lane++ {
		mint := float32(-MaxDist)
		maxt := MaxDist
		hit := true
		for axis := 0; axis < 3; axis++ {
			t1 := (b.Min[axis] - p.O[axis][lane]) * p.DRcp[axis][lane]
			t2 := (b.Max[axis] - p.O[axis][lane]) * p.DRcp[axis][lane]
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if t1 > mint {
				mint = t1
			}
			if t2 < maxt {
				maxt = t2
			}
			if mint > maxt {
				hit = false
				break
			}
		}
		if hit {
			interval.Mint[lane] = mint
			interval.Maxt[lane] = maxt
			anyHit = true
		} else {
			interval.Mint[lane] = 1
			interval.Maxt[lane] = 0
		}
	}
	return anyHit
}
