package main

import (
	"os"

	"github.com/raydex/raydex/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "raydex"
	app.Usage = "kd-tree spatial index for ray intersection queries"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "bench",
			Usage: "benchmark traversal engines on a procedural scene",
			Description: `
Build a kd-tree over a procedurally generated scene (triangulated ground
patch plus random spheres) and time the scalar, occlusion and packet
traversal engines against a grid of primary rays.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "size",
					Value: 256,
					Usage: "ray grid resolution per side",
				},
				cli.IntFlag{
					Name:  "grid",
					Value: 64,
					Usage: "ground mesh resolution per side",
				},
				cli.IntFlag{
					Name:  "spheres",
					Value: 32,
					Usage: "number of random spheres",
				},
				cli.IntFlag{
					Name:  "seed",
					Value: 1,
					Usage: "scene generation seed",
				},
			},
			Action: cmd.Bench,
		},
		{
			Name:  "check",
			Usage: "cross-validate traversal against brute-force intersection",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "rays",
					Value: 4096,
					Usage: "number of random rays to validate",
				},
				cli.IntFlag{
					Name:  "grid",
					Value: 16,
					Usage: "ground mesh resolution per side",
				},
				cli.IntFlag{
					Name:  "spheres",
					Value: 8,
					Usage: "number of random spheres",
				},
				cli.IntFlag{
					Name:  "seed",
					Value: 1,
					Usage: "scene generation seed",
				},
			},
			Action: cmd.Check,
		},
	}

	app.Run(os.Args)
}
