package cmd

import (
	"math/rand"

	"github.com/raydex/raydex/kdtree"
	"github.com/raydex/raydex/kdtree/sah"
	"github.com/raydex/raydex/shape"
	"github.com/raydex/raydex/types"
)

// Generate a deterministic test scene: a bumpy triangulated ground patch
// spanning [-extent, extent] on XZ plus a set of random floating spheres.
func generateScene(gridRes, numSpheres int, seed int64) (*kdtree.Tree, error) {
	rng := rand.New(rand.NewSource(seed))
	const extent = 10.0

	step := float32(2 * extent / float32(gridRes))
	var vertices []types.Vec3
	var texcoords []types.Vec2
	for gz := 0; gz <= gridRes; gz++ {
		for gx := 0; gx <= gridRes; gx++ {
			x := -extent + float32(gx)*step
			z := -extent + float32(gz)*step
			y := rng.Float32() * 0.5
			vertices = append(vertices, types.XYZ(x, y, z))
			texcoords = append(texcoords, types.XY(float32(gx)/float32(gridRes), float32(gz)/float32(gridRes)))
		}
	}

	var triangles [][3]uint32
	stride := uint32(gridRes + 1)
	for gz := 0; gz < gridRes; gz++ {
		for gx := 0; gx < gridRes; gx++ {
			i := uint32(gz)*stride + uint32(gx)
			triangles = append(triangles,
				[3]uint32{i, i + 1, i + stride},
				[3]uint32{i + 1, i + stride + 1, i + stride},
			)
		}
	}

	tree := kdtree.New()
	if err := tree.AddShape(shape.NewMesh(vertices, triangles, texcoords)); err != nil {
		return nil, err
	}

	for i := 0; i < numSpheres; i++ {
		center := types.XYZ(
			(rng.Float32()*2-1)*extent,
			2+rng.Float32()*4,
			(rng.Float32()*2-1)*extent,
		)
		radius := 0.3 + rng.Float32()*0.7
		if err := tree.AddShape(shape.NewSphere(center, radius)); err != nil {
			return nil, err
		}
	}

	if err := tree.Build(sah.NewBuilder(4, sah.SurfaceAreaHeuristic)); err != nil {
		return nil, err
	}
	return tree, nil
}

// A downward-looking primary ray for pixel (px, py) of a size x size frame.
func primaryRay(px, py, size int) types.Ray {
	const extent = 10.0
	origin := types.XYZ(0, 20, 0)
	target := types.XYZ(
		-extent+2*extent*(float32(px)+0.5)/float32(size),
		0,
		-extent+2*extent*(float32(py)+0.5)/float32(size),
	)
	return types.NewRay(origin, target.Sub(origin).Normalize())
}
