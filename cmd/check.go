package cmd

import (
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/raydex/raydex/kdtree"
	"github.com/raydex/raydex/types"
	"github.com/urfave/cli"
)

// Cross-validate tree traversal against a brute-force test over every
// primitive on a procedural scene. Exits non-zero on the first mismatch.
func Check(ctx *cli.Context) error {
	setupLogging(ctx)

	numRays := ctx.Int("rays")
	seed := int64(ctx.Int("seed"))

	tree, err := generateScene(ctx.Int("grid"), ctx.Int("spheres"), seed)
	if err != nil {
		logger.Error(err)
		return err
	}
	defer tree.Release()

	rng := rand.New(rand.NewSource(seed + 1))
	mismatches := 0
	for i := 0; i < numRays; i++ {
		origin := types.XYZ(
			(rng.Float32()*2-1)*12,
			rng.Float32()*25,
			(rng.Float32()*2-1)*12,
		)
		dir := types.XYZ(
			rng.Float32()*2-1,
			rng.Float32()*2-1,
			rng.Float32()*2-1,
		).Normalize()
		r := types.NewRaySegment(origin, dir, 1e-3, types.MaxDist)

		its, hit := tree.Intersect(&r)
		refT, refOk := bruteForce(tree, &r)

		switch {
		case hit != refOk:
			mismatches++
			logger.Errorf("ray %d: tree hit=%t brute force hit=%t", i, hit, refOk)
		case hit && math32.Abs(its.T-refT) > 1e-3*(1+refT):
			mismatches++
			logger.Errorf("ray %d: tree t=%g brute force t=%g", i, its.T, refT)
		}

		if tree.Occluded(&r) != refOk {
			mismatches++
			logger.Errorf("ray %d: occlusion result disagrees with brute force", i)
		}
	}

	if mismatches > 0 {
		return cli.NewExitError(fmt.Sprintf("check failed: %d mismatches over %d rays", mismatches, numRays), 1)
	}
	logger.Noticef("check passed: %d rays against %d primitives", numRays, tree.PrimitiveCount())
	return nil
}

// Nearest hit by testing the ray against every primitive in the scene.
func bruteForce(tree *kdtree.Tree, r *types.Ray) (float32, bool) {
	best := types.MaxDist
	found := false
	for s := 0; s < tree.ShapeCount(); s++ {
		if tmp, ok := tree.Shape(s).Intersect(r, r.Mint, best); ok {
			best = tmp.T
			found = true
		}
	}
	return best, found
}
