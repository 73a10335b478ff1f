package kdtree_test

import (
	"sync"
	"testing"

	"github.com/raydex/raydex/kdtree"
	"github.com/raydex/raydex/kdtree/sah"
	"github.com/raydex/raydex/shape"
	"github.com/raydex/raydex/types"
	"github.com/stretchr/testify/require"
)

// Unit quad in the z=plane plane, split into two triangles.
func quadAt(plane float32) *shape.Mesh {
	vertices := []types.Vec3{
		types.XYZ(0, 0, plane),
		types.XYZ(1, 0, plane),
		types.XYZ(1, 1, plane),
		types.XYZ(0, 1, plane),
	}
	triangles := [][3]uint32{
		{0, 1, 2},
		{0, 2, 3},
	}
	texcoords := []types.Vec2{
		types.XY(0, 0),
		types.XY(1, 0),
		types.XY(1, 1),
		types.XY(0, 1),
	}
	return shape.NewMesh(vertices, triangles, texcoords)
}

// Two stacked quads plus a sphere off to the side. Shape indices:
// 0 = quad at z=0, 1 = quad at z=-1, 2 = sphere.
func buildLayeredScene(t *testing.T, opts ...kdtree.Option) *kdtree.Tree {
	t.Helper()
	tree := kdtree.New(opts...)
	require.NoError(t, tree.AddShape(quadAt(0)))
	require.NoError(t, tree.AddShape(quadAt(-1)))
	require.NoError(t, tree.AddShape(shape.NewSphere(types.XYZ(3, 0, 0), 0.5)))
	require.NoError(t, tree.Build(sah.NewBuilder(2, nil)))
	return tree
}

func TestIntersectNearestTriangle(t *testing.T) {
	tree := buildLayeredScene(t)

	r := types.NewRay(types.XYZ(0.6, 0.2, 2), types.XYZ(0, 0, -1))
	its, ok := tree.Intersect(&r)
	require.True(t, ok)

	// The z=0 quad shadows the z=-1 one.
	require.InDelta(t, 2.0, its.T, 1e-4)
	require.Equal(t, uint32(0), its.ShapeIndex)
	require.Equal(t, uint32(0), its.PrimIndex)
	require.InDelta(t, 0.6, its.P[0], 1e-4)
	require.InDelta(t, 0.2, its.P[1], 1e-4)
	require.InDelta(t, 0.0, its.P[2], 1e-4)
	require.InDelta(t, 0.0, its.N[0], 1e-4)
	require.InDelta(t, 0.0, its.N[1], 1e-4)
	require.InDelta(t, 1.0, its.N[2], 1e-4)
	require.InDelta(t, 0.6, its.UV[0], 1e-4)
	require.InDelta(t, 0.2, its.UV[1], 1e-4)
}

func TestIntersectSentinelShape(t *testing.T) {
	tree := buildLayeredScene(t)

	r := types.NewRay(types.XYZ(3, 0, 2), types.XYZ(0, 0, -1))
	its, ok := tree.Intersect(&r)
	require.True(t, ok)
	require.InDelta(t, 1.5, its.T, 1e-4)
	require.Equal(t, uint32(2), its.ShapeIndex)
	require.Equal(t, kdtree.NoTriangleFlag, its.PrimIndex)
	require.InDelta(t, 1.0, its.N[2], 1e-3)
}

func TestIntersectMiss(t *testing.T) {
	tree := buildLayeredScene(t)

	// Outside the scene bounds.
	r := types.NewRay(types.XYZ(50, 50, 2), types.XYZ(0, 0, -1))
	_, ok := tree.Intersect(&r)
	require.False(t, ok)

	// Pointing away from the scene.
	r = types.NewRay(types.XYZ(0.5, 0.5, 2), types.XYZ(0, 0, 1))
	_, ok = tree.Intersect(&r)
	require.False(t, ok)
}

func TestIntersectShading(t *testing.T) {
	tree := buildLayeredScene(t)

	r := types.NewRay(types.XYZ(0.6, 0.2, 2), types.XYZ(0, 0, -1))
	tHit, s, n, uv, ok := tree.IntersectShading(&r)
	require.True(t, ok)
	require.InDelta(t, 2.0, tHit, 1e-4)
	require.Same(t, tree.Shape(0), s)
	require.InDelta(t, 1.0, n[2], 1e-4)
	require.InDelta(t, 0.6, uv[0], 1e-4)
	require.InDelta(t, 0.2, uv[1], 1e-4)
}

func TestOccluded(t *testing.T) {
	tree := buildLayeredScene(t)

	r := types.NewRay(types.XYZ(0.6, 0.2, 2), types.XYZ(0, 0, -1))
	require.True(t, tree.Occluded(&r))

	// Segment too short to reach the quads.
	r = types.NewRaySegment(types.XYZ(0.6, 0.2, 2), types.XYZ(0, 0, -1), 1e-3, 1)
	require.False(t, tree.Occluded(&r))

	r = types.NewRay(types.XYZ(50, 50, 2), types.XYZ(0, 0, -1))
	require.False(t, tree.Occluded(&r))
}

func TestOccludedAgreesWithIntersect(t *testing.T) {
	tree := buildLayeredScene(t)

	step := float32(0.25)
	for x := float32(-1); x <= 4; x += step {
		for y := float32(-1); y <= 2; y += step {
			r := types.NewRaySegment(types.XYZ(x, y, 2), types.XYZ(0, 0, -1), 1e-3, types.MaxDist)
			_, hit := tree.Intersect(&r)
			require.Equal(t, hit, tree.Occluded(&r), "ray through (%f, %f)", x, y)
		}
	}
}

func TestIntersectMatchesBruteForce(t *testing.T) {
	tree := buildLayeredScene(t)

	bruteForce := func(r *types.Ray) (float32, bool) {
		bestT := types.MaxDist
		found := false
		for s := 0; s < tree.ShapeCount(); s++ {
			if tmp, ok := tree.Shape(s).Intersect(r, r.Mint, bestT); ok {
				bestT = tmp.T
				found = true
			}
		}
		return bestT, found
	}

	step := float32(0.2)
	for x := float32(-0.5); x <= 4; x += step {
		for y := float32(-0.5); y <= 1.5; y += step {
			r := types.NewRaySegment(types.XYZ(x, y, 2), types.XYZ(0, 0, -1), 1e-3, types.MaxDist)
			refT, refHit := bruteForce(&r)
			its, hit := tree.Intersect(&r)
			require.Equal(t, refHit, hit, "ray through (%f, %f)", x, y)
			if hit {
				require.InDelta(t, refT, its.T, 1e-3, "ray through (%f, %f)", x, y)
			}
		}
	}
}

func TestAdaptiveMinT(t *testing.T) {
	// Two triangles far from the world origin, stacked along z. A ray
	// hovering just above them self-intersect-filters differently depending
	// on whether the caller kept the default Mint.
	vertices := []types.Vec3{
		types.XYZ(10000, 0, 0), types.XYZ(10001, 0, 0), types.XYZ(10000, 1, 0),
		types.XYZ(10000, 0, -1), types.XYZ(10001, 0, -1), types.XYZ(10000, 1, -1),
	}
	triangles := [][3]uint32{{0, 1, 2}, {3, 4, 5}}
	mesh := shape.NewMesh(vertices, triangles, nil)

	tree := kdtree.New()
	require.NoError(t, tree.AddShape(mesh))
	require.NoError(t, tree.Build(sah.NewBuilder(2, nil)))

	origin := types.XYZ(10000.2, 0.3, 0.5)
	down := types.XYZ(0, 0, -1)

	// Default Mint scales with the origin magnitude; the z=0 triangle at
	// t=0.5 falls below the threshold and the z=-1 one wins.
	r := types.NewRay(origin, down)
	its, ok := tree.Intersect(&r)
	require.True(t, ok)
	require.InDelta(t, 1.5, its.T, 1e-3)
	require.Equal(t, uint32(1), its.PrimIndex)

	// An explicit Mint is honored verbatim and the near triangle is found.
	r = types.NewRaySegment(origin, down, 1e-3, types.MaxDist)
	its, ok = tree.Intersect(&r)
	require.True(t, ok)
	require.InDelta(t, 0.5, its.T, 1e-3)
	require.Equal(t, uint32(0), its.PrimIndex)
}

func TestStatsCounters(t *testing.T) {
	stats := &kdtree.Stats{}
	tree := buildLayeredScene(t, kdtree.WithStats(stats))

	r := types.NewRay(types.XYZ(0.6, 0.2, 2), types.XYZ(0, 0, -1))
	tree.Intersect(&r)
	tree.Intersect(&r)
	tree.Occluded(&r)
	tree.IntersectShading(&r)

	snap := stats.Snapshot()
	require.Equal(t, uint64(2), snap.RaysTraced)
	require.Equal(t, uint64(2), snap.ShadowRaysTraced)
	require.Same(t, stats, tree.Stats())

	stats.Reset()
	snap = tree.Stats().Snapshot()
	require.Equal(t, uint64(0), snap.RaysTraced)
	require.Equal(t, uint64(0), snap.ShadowRaysTraced)
}

func TestConcurrentQueries(t *testing.T) {
	tree := buildLayeredScene(t)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				r := types.NewRay(types.XYZ(0.6, 0.2, 2), types.XYZ(0, 0, -1))
				its, ok := tree.Intersect(&r)
				if !ok || its.ShapeIndex != 0 {
					t.Error("concurrent query returned an unexpected result")
					return
				}
			}
		}()
	}
	wg.Wait()
}
