package cmd

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/raydex/raydex/kdtree"
	"github.com/raydex/raydex/types"
	"github.com/urfave/cli"
)

// Build a procedural scene and time the traversal engines against it.
func Bench(ctx *cli.Context) error {
	setupLogging(ctx)

	size := ctx.Int("size")
	gridRes := ctx.Int("grid")
	numSpheres := ctx.Int("spheres")
	seed := int64(ctx.Int("seed"))

	buildStart := time.Now()
	tree, err := generateScene(gridRes, numSpheres, seed)
	if err != nil {
		logger.Error(err)
		return err
	}
	defer tree.Release()
	buildTime := time.Since(buildStart)
	logger.Noticef("built index over %d primitives in %d ms", tree.PrimitiveCount(), buildTime.Nanoseconds()/1e6)

	// Scalar nearest-hit pass.
	scalarStart := time.Now()
	scalarHits := 0
	for py := 0; py < size; py++ {
		for px := 0; px < size; px++ {
			r := primaryRay(px, py, size)
			if _, ok := tree.Intersect(&r); ok {
				scalarHits++
			}
		}
	}
	scalarTime := time.Since(scalarStart)

	// Occlusion pass.
	occludedStart := time.Now()
	occludedHits := 0
	for py := 0; py < size; py++ {
		for px := 0; px < size; px++ {
			r := primaryRay(px, py, size)
			if tree.Occluded(&r) {
				occludedHits++
			}
		}
	}
	occludedTime := time.Since(occludedStart)

	// Packet pass: 2x2 pixel bundles are coherent by construction.
	packetStart := time.Now()
	packetHits := 0
	var packet types.RayPacket4
	var interval types.RayInterval4
	var its4 kdtree.Intersection4
	for py := 0; py < size; py += 2 {
		for px := 0; px < size; px += 2 {
			rays := [4]types.Ray{
				primaryRay(px, py, size),
				primaryRay(px+1, py, size),
				primaryRay(px, py+1, size),
				primaryRay(px+1, py+1, size),
			}
			if packet.Load(&rays, &interval) {
				tree.IntersectPacket(&packet, &interval, &its4)
			} else {
				tree.IntersectPacketIncoherent(&packet, &interval, &its4)
			}
			for lane := 0; lane < 4; lane++ {
				if its4.ShapeIndex[lane] >= 0 {
					packetHits++
				}
			}
		}
	}
	packetTime := time.Since(packetStart)

	totalRays := size * size
	displayBenchStats(tree.Stats().Snapshot(), []benchRow{
		{"build", tree.PrimitiveCount(), buildTime, 0},
		{"intersect", totalRays, scalarTime, scalarHits},
		{"occluded", totalRays, occludedTime, occludedHits},
		{"packet", totalRays, packetTime, packetHits},
	})
	return nil
}

type benchRow struct {
	pass  string
	items int
	took  time.Duration
	hits  int
}

func displayBenchStats(snap kdtree.StatsSnapshot, rows []benchRow) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Pass", "Items", "Hits", "Time", "Items/sec"})
	for _, row := range rows {
		perSec := ""
		if row.took > 0 {
			perSec = fmt.Sprintf("%.0f", float64(row.items)/row.took.Seconds())
		}
		table.Append([]string{
			row.pass,
			fmt.Sprintf("%d", row.items),
			fmt.Sprintf("%d", row.hits),
			row.took.String(),
			perSec,
		})
	}
	table.Render()

	counters := tablewriter.NewWriter(&buf)
	counters.SetAutoFormatHeaders(false)
	counters.SetAutoWrapText(false)
	counters.SetHeader([]string{"Rays", "Shadow rays", "Coherent packets", "Incoherent packets", "Region queries"})
	counters.Append([]string{
		fmt.Sprintf("%d", snap.RaysTraced),
		fmt.Sprintf("%d", snap.ShadowRaysTraced),
		fmt.Sprintf("%d", snap.CoherentPackets),
		fmt.Sprintf("%d", snap.IncoherentPackets),
		fmt.Sprintf("%d", snap.RegionQueries),
	})
	counters.Render()

	os.Stdout.Write(buf.Bytes())
}
