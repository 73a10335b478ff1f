package kdtree

import "sync/atomic"

// Query counters for one tree. Counters are bumped with atomics so any
// number of concurrent queries can share a Stats instance without locking.
type Stats struct {
	raysTraced        uint64
	shadowRaysTraced  uint64
	coherentPackets   uint64
	incoherentPackets uint64
	regionQueries     uint64
}

// A point-in-time copy of the counters.
type StatsSnapshot struct {
	RaysTraced        uint64
	ShadowRaysTraced  uint64
	CoherentPackets   uint64
	IncoherentPackets uint64
	RegionQueries     uint64
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		RaysTraced:        atomic.LoadUint64(&s.raysTraced),
		ShadowRaysTraced:  atomic.LoadUint64(&s.shadowRaysTraced),
		CoherentPackets:   atomic.LoadUint64(&s.coherentPackets),
		IncoherentPackets: atomic.LoadUint64(&s.incoherentPackets),
		RegionQueries:     atomic.LoadUint64(&s.regionQueries),
	}
}

func (s *Stats) Reset() {
	atomic.StoreUint64(&s.raysTraced, 0)
	atomic.StoreUint64(&s.shadowRaysTraced, 0)
	atomic.StoreUint64(&s.coherentPackets, 0)
	atomic.StoreUint64(&s.incoherentPackets, 0)
	atomic.StoreUint64(&s.regionQueries, 0)
}
