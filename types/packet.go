package types

// A bundle of 4 rays stored in structure-of-arrays layout so that traversal
// can process one axis across all lanes at a time. Signs holds the direction
// sign per axis for lane 0 and steers the shared near/far child ordering;
// the bundle is only coherent when all lanes agree on it.
type RayPacket4 struct {
	O    [3][4]float32
	D    [3][4]float32
	DRcp [3][4]float32

	Signs [3]uint32
}

// Per-lane active intervals for a packet.
type RayInterval4 struct {
	Mint [4]float32
	Maxt [4]float32
}

// Load 4 rays into the packet and the interval. Returns false when the
// direction signs disagree between lanes; such bundles produce correct
// results only through the incoherent fallback path.
func (p *RayPacket4) Load(rays *[4]Ray, interval *RayInterval4) bool {
	coherent := true
	for axis := 0; axis < 3; axis++ {
		for lane := 0; lane < 4; lane++ {
			p.O[axis][lane] = rays[lane].O[axis]
			p.D[axis][lane] = rays[lane].D[axis]
			p.DRcp[axis][lane] = rays[lane].DRcp[axis]
		}
		p.Signs[axis] = signBit(rays[0].D[axis])
		for lane := 1; lane < 4; lane++ {
			if signBit(rays[lane].D[axis]) != p.Signs[axis] {
				coherent = false
			}
		}
	}
	for lane := 0; lane < 4; lane++ {
		interval.Mint[lane] = rays[lane].Mint
		interval.Maxt[lane] = rays[lane].Maxt
	}
	return coherent
}

// Reassemble a single lane as a scalar ray.
func (p *RayPacket4) Lane(i int) Ray {
	return Ray{
		O:    Vec3{p.O[0][i], p.O[1][i], p.O[2][i]},
		D:    Vec3{p.D[0][i], p.D[1][i], p.D[2][i]},
		DRcp: Vec3{p.DRcp[0][i], p.DRcp[1][i], p.DRcp[2][i]},
		Mint: Epsilon,
		Maxt: MaxDist,
	}
}

func signBit(v float32) uint32 {
	if v < 0 {
		return 1
	}
	return 0
}
