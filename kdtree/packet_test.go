package kdtree_test

import (
	"testing"

	"github.com/raydex/raydex/kdtree"
	"github.com/raydex/raydex/types"
	"github.com/stretchr/testify/require"
)

func bundleThrough(points [4][2]float32) [4]types.Ray {
	var rays [4]types.Ray
	for i, p := range points {
		rays[i] = types.NewRaySegment(types.XYZ(p[0], p[1], 2), types.XYZ(0, 0, -1), 1e-3, types.MaxDist)
	}
	return rays
}

// Run the scalar engine per lane as the reference for packet results.
func scalarReference(t *testing.T, tree *kdtree.Tree, rays *[4]types.Ray) kdtree.Intersection4 {
	t.Helper()
	var ref kdtree.Intersection4
	ref.Reset()
	for i := 0; i < 4; i++ {
		r := rays[i]
		if its, ok := tree.Intersect(&r); ok {
			ref.T[i] = its.T
			ref.ShapeIndex[i] = int32(its.ShapeIndex)
			if its.PrimIndex == kdtree.NoTriangleFlag {
				ref.PrimIndex[i] = -1
			} else {
				ref.PrimIndex[i] = int32(its.PrimIndex)
			}
		}
	}
	return ref
}

func requirePacketMatches(t *testing.T, ref, got *kdtree.Intersection4) {
	t.Helper()
	for i := 0; i < 4; i++ {
		require.Equal(t, ref.ShapeIndex[i], got.ShapeIndex[i], "lane %d shape", i)
		require.Equal(t, ref.PrimIndex[i], got.PrimIndex[i], "lane %d primitive", i)
		if ref.ShapeIndex[i] != -1 {
			require.InDelta(t, ref.T[i], got.T[i], 1e-3, "lane %d distance", i)
		} else {
			require.Equal(t, types.MaxDist, got.T[i], "lane %d distance", i)
		}
	}
}

func TestIntersectPacketMatchesScalar(t *testing.T) {
	tree := buildLayeredScene(t)

	// One lane per quad triangle, one through the sphere, one missing.
	rays := bundleThrough([4][2]float32{
		{0.7, 0.3},
		{0.3, 0.7},
		{3, 0},
		{50, 50},
	})

	var p types.RayPacket4
	var interval types.RayInterval4
	require.True(t, p.Load(&rays, &interval))

	var its kdtree.Intersection4
	tree.IntersectPacket(&p, &interval, &its)

	ref := scalarReference(t, tree, &rays)
	requirePacketMatches(t, &ref, &its)

	// Spot-check the resolved lanes directly.
	require.InDelta(t, 2.0, its.T[0], 1e-4)
	require.Equal(t, int32(0), its.ShapeIndex[0])
	require.Equal(t, int32(0), its.PrimIndex[0])
	require.Equal(t, int32(1), its.PrimIndex[1])
	require.Equal(t, int32(2), its.ShapeIndex[2])
	require.Equal(t, int32(-1), its.PrimIndex[2])
	require.Equal(t, int32(-1), its.ShapeIndex[3])
}

func TestIntersectPacketHonorsLaneIntervals(t *testing.T) {
	tree := buildLayeredScene(t)

	rays := bundleThrough([4][2]float32{
		{0.5, 0.2},
		{0.5, 0.2},
		{0.5, 0.2},
		{0.5, 0.2},
	})
	// Lane 1 stops above the quads, lane 2 starts below the top quad.
	rays[1].Maxt = 1
	rays[2].Mint = 2.5

	var p types.RayPacket4
	var interval types.RayInterval4
	require.True(t, p.Load(&rays, &interval))

	var its kdtree.Intersection4
	tree.IntersectPacket(&p, &interval, &its)

	require.InDelta(t, 2.0, its.T[0], 1e-4)
	require.Equal(t, int32(-1), its.ShapeIndex[1])
	require.InDelta(t, 3.0, its.T[2], 1e-4)
	require.Equal(t, int32(1), its.ShapeIndex[2])
	require.InDelta(t, 2.0, its.T[3], 1e-4)
}

func TestLoadDetectsSignMismatch(t *testing.T) {
	rays := bundleThrough([4][2]float32{
		{0.5, 0.2},
		{0.5, 0.2},
		{0.5, 0.2},
		{0.5, 0.2},
	})
	rays[3] = types.NewRaySegment(types.XYZ(0.5, 0.2, -3), types.XYZ(0, 0, 1), 1e-3, types.MaxDist)

	var p types.RayPacket4
	var interval types.RayInterval4
	require.False(t, p.Load(&rays, &interval))
}

func TestIntersectPacketIncoherent(t *testing.T) {
	tree := buildLayeredScene(t)

	// Opposing directions along z; lane 3 approaches the quads from below.
	rays := bundleThrough([4][2]float32{
		{0.7, 0.3},
		{0.3, 0.7},
		{3, 0},
		{0.5, 0.2},
	})
	rays[3] = types.NewRaySegment(types.XYZ(0.5, 0.2, -3), types.XYZ(0, 0, 1), 1e-3, types.MaxDist)

	var p types.RayPacket4
	var interval types.RayInterval4
	require.False(t, p.Load(&rays, &interval))

	var its kdtree.Intersection4
	tree.IntersectPacketIncoherent(&p, &interval, &its)

	ref := scalarReference(t, tree, &rays)
	requirePacketMatches(t, &ref, &its)

	// The upward lane hits the bottom quad first.
	require.InDelta(t, 2.0, its.T[3], 1e-4)
	require.Equal(t, int32(1), its.ShapeIndex[3])
}

func TestPacketStats(t *testing.T) {
	stats := &kdtree.Stats{}
	tree := buildLayeredScene(t, kdtree.WithStats(stats))

	rays := bundleThrough([4][2]float32{
		{0.7, 0.3}, {0.3, 0.7}, {0.7, 0.7}, {0.3, 0.3},
	})
	var p types.RayPacket4
	var interval types.RayInterval4
	require.True(t, p.Load(&rays, &interval))

	var its kdtree.Intersection4
	tree.IntersectPacket(&p, &interval, &its)
	tree.IntersectPacketIncoherent(&p, &interval, &its)

	snap := stats.Snapshot()
	require.Equal(t, uint64(1), snap.CoherentPackets)
	require.Equal(t, uint64(1), snap.IncoherentPackets)
}

func TestPacketBeforeBuildPanics(t *testing.T) {
	tree := kdtree.New()
	var p types.RayPacket4
	var interval types.RayInterval4
	var its kdtree.Intersection4
	require.Panics(t, func() { tree.IntersectPacket(&p, &interval, &its) })
	require.Panics(t, func() { tree.IntersectPacketIncoherent(&p, &interval, &its) })
}
