package types

import "testing"

func TestAABBExpand(t *testing.T) {
	box := EmptyAABB()
	box.ExpandPoint(XYZ(1, 2, 3))
	box.ExpandPoint(XYZ(-1, 0, 5))

	if box.Min != XYZ(-1, 0, 3) {
		t.Fatalf("expected min (-1, 0, 3); got %v", box.Min)
	}
	if box.Max != XYZ(1, 2, 5) {
		t.Fatalf("expected max (1, 2, 5); got %v", box.Max)
	}

	other := AABB{Min: XYZ(-5, 0, 0), Max: XYZ(0, 0, 10)}
	box.Expand(other)
	if box.Min != XYZ(-5, 0, 0) || box.Max != XYZ(1, 2, 10) {
		t.Fatalf("unexpected bounds after expand: [%v, %v]", box.Min, box.Max)
	}
}

func TestAABBSurfaceArea(t *testing.T) {
	box := AABB{Min: XYZ(0, 0, 0), Max: XYZ(2, 3, 4)}
	if got := box.SurfaceArea(); got != 52 {
		t.Fatalf("expected surface area 52; got %f", got)
	}
}

func TestAABBOverlapsAndContains(t *testing.T) {
	box := AABB{Min: XYZ(0, 0, 0), Max: XYZ(1, 1, 1)}

	if !box.Overlaps(AABB{Min: XYZ(0.5, 0.5, 0.5), Max: XYZ(2, 2, 2)}) {
		t.Fatal("expected overlap with an intersecting box")
	}
	if !box.Overlaps(AABB{Min: XYZ(1, 0, 0), Max: XYZ(2, 1, 1)}) {
		t.Fatal("expected boxes sharing a face to overlap")
	}
	if box.Overlaps(AABB{Min: XYZ(2, 2, 2), Max: XYZ(3, 3, 3)}) {
		t.Fatal("expected no overlap with a disjoint box")
	}

	if !box.Contains(XYZ(0.5, 0.5, 0.5)) || !box.Contains(XYZ(1, 1, 1)) {
		t.Fatal("expected interior and boundary points to be contained")
	}
	if box.Contains(XYZ(1.5, 0.5, 0.5)) {
		t.Fatal("expected outside point to not be contained")
	}
}

func TestAABBRayIntersect(t *testing.T) {
	box := AABB{Min: XYZ(0, 0, 0), Max: XYZ(1, 1, 1)}

	r := NewRay(XYZ(0.5, 0.5, 2), XYZ(0, 0, -1))
	tMin, tMax, ok := box.RayIntersect(&r)
	if !ok {
		t.Fatal("expected ray to hit the box")
	}
	if tMin != 1 || tMax != 2 {
		t.Fatalf("expected interval [1, 2]; got [%f, %f]", tMin, tMax)
	}

	r = NewRay(XYZ(2, 0.5, 2), XYZ(0, 0, -1))
	if _, _, ok := box.RayIntersect(&r); ok {
		t.Fatal("expected ray outside the x slab to miss")
	}

	// Origin inside: the entry distance goes negative.
	r = NewRay(XYZ(0.5, 0.5, 0.5), XYZ(0, 0, -1))
	tMin, tMax, ok = box.RayIntersect(&r)
	if !ok || tMin > 0 || tMax != 0.5 {
		t.Fatalf("expected interval [%f, 0.5] from inside; got [%f, %f] ok=%v", tMin, tMin, tMax, ok)
	}
}

func TestAABBRayIntersectPacket(t *testing.T) {
	box := AABB{Min: XYZ(0, 0, 0), Max: XYZ(1, 1, 1)}

	rays := [4]Ray{
		NewRay(XYZ(0.5, 0.5, 2), XYZ(0, 0, -1)),
		NewRay(XYZ(0.2, 0.8, 3), XYZ(0, 0, -1)),
		NewRay(XYZ(5, 5, 2), XYZ(0, 0, -1)),
		NewRay(XYZ(0.5, 0.5, 4), XYZ(0, 0, -1)),
	}
	var p RayPacket4
	var loadInterval RayInterval4
	if !p.Load(&rays, &loadInterval) {
		t.Fatal("expected a coherent bundle")
	}

	var interval RayInterval4
	if !box.RayIntersectPacket(&p, &interval) {
		t.Fatal("expected at least one lane to hit")
	}
	if interval.Mint[0] != 1 || interval.Maxt[0] != 2 {
		t.Fatalf("expected lane 0 interval [1, 2]; got [%f, %f]", interval.Mint[0], interval.Maxt[0])
	}
	if interval.Mint[2] <= interval.Maxt[2] {
		t.Fatal("expected an inverted interval for the missing lane")
	}
	if interval.Mint[3] != 3 || interval.Maxt[3] != 4 {
		t.Fatalf("expected lane 3 interval [3, 4]; got [%f, %f]", interval.Mint[3], interval.Maxt[3])
	}
}
