// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Operator codes used as the cache's opcode field; distinct from Operator
// so kernel operations that are not Apply-style (ite, exists, compose,
// satcount...) get their own slice of the opcode space (§4.3).
const (
	opcodeApply uint64 = iota
	opcodeIte
	opcodeNot
	opcodeExist
	opcodeAppEx
	opcodeRelnext
	opcodeRelprev
	opcodeCompose
	opcodeSatcount
	opcodeMakenode
)

// cacheStatus tracks the lock-free publish protocol for a single slot: a
// writer flips the slot to writing before it has a result to publish, and
// to ready only once the result is safe to read. A reader that observes
// writing treats the slot as a miss rather than blocking.
type cacheStatus uint32

const (
	statusEmpty cacheStatus = iota
	statusWriting
	statusReady
)

// opcache is the single associative operation cache shared by every
// flavor's recursive algorithms (§4.3). rudd keeps one Go map per
// operation (applycache, itecache, quantcache, ...); we fold them into one
// lock-free table keyed by opcode so that a single cooperative GC pass
// (which must invalidate every cache entry referencing a collected node)
// only has to walk one structure.
type opcache struct {
	slots []struct {
		status atomic.Uint32
		key0   atomic.Uint64 // opcode
		key1   atomic.Uint64 // a
		key2   atomic.Uint64 // b
		key3   atomic.Uint64 // c
		key4   atomic.Uint64 // d
		result atomic.Uint64
	}
	mask uint64

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newOpcache(size uint64) *opcache {
	size = nextPow2(size)
	c := &opcache{mask: size - 1}
	c.slots = make([]struct {
		status atomic.Uint32
		key0   atomic.Uint64
		key1   atomic.Uint64
		key2   atomic.Uint64
		key3   atomic.Uint64
		key4   atomic.Uint64
		result atomic.Uint64
	}, size)
	return c
}

// get looks up (opcode, a, b, c, d); it returns the cached result and true
// on a verified hit. A slot caught mid-publish (status writing) or one
// whose key does not match is reported as a miss — never blocked on.
func (c *opcache) get(opcode, a, b, cc, d uint64) (uint64, bool) {
	idx := hashCache(opcode, a, b, cc, d) & c.mask
	s := &c.slots[idx]
	if s.status.Load() != uint32(statusReady) {
		c.misses.Add(1)
		return 0, false
	}
	if s.key0.Load() == opcode && s.key1.Load() == a && s.key2.Load() == b &&
		s.key3.Load() == cc && s.key4.Load() == d {
		c.hits.Add(1)
		return s.result.Load(), true
	}
	c.misses.Add(1)
	return 0, false
}

// put publishes a result for (opcode, a, b, c, d), overwriting whatever
// the slot held before. This is the "best-effort overwrite" semantics of
// §4.3: a concurrent reader racing the publish simply sees a miss, and a
// concurrent writer for a different key may clobber this one — both are
// fine, since the cache never needs to be complete.
func (c *opcache) put(opcode, a, b, cc, d, result uint64) {
	idx := hashCache(opcode, a, b, cc, d) & c.mask
	s := &c.slots[idx]
	s.status.Store(uint32(statusWriting))
	s.key0.Store(opcode)
	s.key1.Store(a)
	s.key2.Store(b)
	s.key3.Store(cc)
	s.key4.Store(d)
	s.result.Store(result)
	s.status.Store(uint32(statusReady))
}

// clear resets every slot to empty; called by the GC coordinator before
// its mark phase, since a cached result may reference a node about to be
// collected (§4.2 "clear hashes").
func (c *opcache) clear() {
	for i := range c.slots {
		c.slots[i].status.Store(uint32(statusEmpty))
	}
}

// resize grows the cache to at least want slots (rounded to a power of two
// for masked indexing), capped by maxBytes if nonzero. Unlike the node
// table, losing the old entries on a resize is harmless: a cache slot is a
// memoized result, never an externally held handle, so gcCoordinator.phase
// simply reallocates instead of needing table.go's append-only segments.
// Called once per GC cycle, right after the node store itself has grown
// (Cacheratio, gc.go).
func (c *opcache) resize(want, maxBytes uint64) {
	want = nextPow2(want)
	if maxBytes > 0 {
		elemSize := uint64(unsafe.Sizeof(c.slots[0]))
		if capSlots := prevPow2(maxBytes / elemSize); capSlots > 0 && want > capSlots {
			want = capSlots
		}
	}
	if want == 0 || want <= uint64(len(c.slots)) {
		return
	}
	c.slots = make([]struct {
		status atomic.Uint32
		key0   atomic.Uint64
		key1   atomic.Uint64
		key2   atomic.Uint64
		key3   atomic.Uint64
		key4   atomic.Uint64
		result atomic.Uint64
	}, want)
	c.mask = want - 1
}

func prevPow2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	p := uint64(1)
	for p*2 <= n {
		p *= 2
	}
	return p
}

// CacheStats reports cumulative hit/miss counters, mirroring rudd's
// data4ncache.opHit/opMiss fields surfaced through BDD.Stats.
type CacheStats struct {
	Hits, Misses uint64
	Slots        uint64
}

func (c *opcache) stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Slots: uint64(len(c.slots))}
}

func (s CacheStats) String() string {
	total := s.Hits + s.Misses
	ratio := 0.0
	if total > 0 {
		ratio = float64(s.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("cache: %d slots, %d hits, %d misses (%.1f%% hit ratio)", s.Slots, s.Hits, s.Misses, ratio)
}
