// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"sync/atomic"
)

// regionSize is the number of slots a single region covers (§4.2: "regions
// of 512 slots, claimed atomically"). A worker that needs a free slot first
// claims an entire region with one CAS against bitmap1, then hands out
// slots from it without further contention until the region is exhausted.
const regionSize = 512

// segment is one fixed-size, lock-free open-addressed shard of the unique
// node table (§4.2 "open-addressed variant", grounded in
// original_source/src/nodes_llht.c). table.go's growth strategy (below)
// appends new segments rather than rehashing an existing one in place, so a
// Node handle's global index never moves once assigned: the engine hands
// out slot indices to callers as plain Go values living on ordinary
// goroutine stacks, not just inside GC-tracked roots, so nothing may ever
// relocate a live slot.
type segment struct {
	nodes []packedNode // the packed (variable, low, high) payload per slot

	bitmap1 []atomic.Uint64 // region ownership: bit set => region claimed
	bitmap2 []atomic.Uint64 // slot occupancy: bit set => slot holds a live node, payload already written; doubles as the GC mark bitmap
	claimed []atomic.Uint64 // write-claim bitmap: bit set => some inserter owns this slot's nodes[] entry, whether or not it has published yet

	size     uint64 // slot count local to this segment, always a power of two
	mask     uint64
	probeLim uint64 // this segment's probe bound, computed from size (§4.2 "probe-threshold = 192 - 2*log2(size)")

	base uint64 // this segment's first slot in the table's global index space

	nextRegion atomic.Uint64 // round-robin hint for claimRegion
}

func newSegment(base, size uint64) *segment {
	size = nextPow2(size)
	regions := size / regionSize
	if regions == 0 {
		regions = 1
	}
	return &segment{
		nodes:    make([]packedNode, size),
		bitmap1:  make([]atomic.Uint64, (regions+63)/64),
		bitmap2:  make([]atomic.Uint64, (size+63)/64),
		claimed:  make([]atomic.Uint64, (size+63)/64),
		size:     size,
		mask:     size - 1,
		probeLim: computeProbeLimit(size),
		base:     base,
	}
}

// computeProbeLimit implements §4.2's "probe-threshold = 192 - 2*log2(size)",
// floored so a very large segment still probes a useful number of slots
// before falling back to claiming a fresh region.
func computeProbeLimit(size uint64) uint64 {
	lim := int64(192) - 2*int64(log2Floor(size))
	if lim < 16 {
		lim = 16
	}
	return uint64(lim)
}

func log2Floor(n uint64) uint64 {
	var l uint64
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}

func nextPow2(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

func bitSet(bm []atomic.Uint64, i uint64) bool {
	return bm[i/64].Load()&(1<<(i%64)) != 0
}

func bitTrySet(bm []atomic.Uint64, i uint64) bool {
	word := &bm[i/64]
	bitmask := uint64(1) << (i % 64)
	for {
		old := word.Load()
		if old&bitmask != 0 {
			return false
		}
		if word.CompareAndSwap(old, old|bitmask) {
			return true
		}
	}
}

func bitClear(bm []atomic.Uint64, i uint64) {
	word := &bm[i/64]
	bitmask := ^(uint64(1) << (i % 64))
	for {
		old := word.Load()
		if word.CompareAndSwap(old, old&bitmask) {
			return
		}
	}
}

// claimRegion finds an unclaimed region within the segment and marks it
// owned. Slots in the region may still hold nodes (GC survivors, or nodes a
// probe-run insert placed there), so callers skip occupied slots. It returns
// the index of the region's first slot (in this segment's local index
// space), or errTableFull if every region is already claimed.
func (s *segment) claimRegion() (uint64, error) {
	regions := s.size / regionSize
	if regions == 0 {
		regions = 1
	}
	words := (regions + 63) / 64
	start := s.nextRegion.Load() % words
	for w := uint64(0); w < words; w++ {
		idx := (start + w) % words
		word := &s.bitmap1[idx]
		for {
			v := word.Load()
			if v == ^uint64(0) {
				break
			}
			bit := uint64(0)
			for bit < 64 && v&(1<<bit) != 0 {
				bit++
			}
			if bit >= 64 || idx*64+bit >= regions {
				break
			}
			if word.CompareAndSwap(v, v|(1<<bit)) {
				s.nextRegion.Store(idx)
				return (idx*64 + bit) * regionSize, nil
			}
		}
	}
	return 0, errTableFull
}

// probe looks for a live slot in this segment matching (w0, w1) within h's
// probe run, returning a global table index.
func (s *segment) probe(h uint64, w0, w1 uint64) (uint64, bool) {
	start := h & s.mask
	for i := uint64(0); i < s.probeLim; i++ {
		local := (start + i) & s.mask
		if !bitSet(s.bitmap2, local) {
			continue
		}
		n := s.nodes[local]
		if n.word0 == w0 && n.word1 == w1 {
			return s.base + local, true
		}
	}
	return 0, false
}

// insert scans forward from the home slot of h for an empty slot, claims
// the slot's nodes[] entry for writing with a CAS on claimed, writes the
// payload, and only then CAS-publishes bitmap2 so a concurrent probe never
// observes the occupancy bit before the payload it guards (§4.2 step 2: (a)
// claim a data slot, (b) write (a,b) into it, (c) install the bucket). If
// the region around the home slot is full it claims a fresh region within
// this segment and retries there.
func (s *segment) insert(h uint64, w0, w1 uint64) (uint64, bool) {
	start := h & s.mask
	for i := uint64(0); i < s.probeLim; i++ {
		local := (start + i) & s.mask
		if bitSet(s.bitmap2, local) {
			continue
		}
		if !bitTrySet(s.claimed, local) {
			continue
		}
		s.nodes[local] = packedNode{word0: w0, word1: w1}
		bitTrySet(s.bitmap2, local)
		return s.base + local, true
	}
	regionBase, err := s.claimRegion()
	if err != nil {
		return 0, false
	}
	for i := uint64(0); i < regionSize; i++ {
		local := regionBase + i
		if local >= s.size {
			break
		}
		if bitSet(s.bitmap2, local) {
			continue
		}
		if bitTrySet(s.claimed, local) {
			s.nodes[local] = packedNode{word0: w0, word1: w1}
			bitTrySet(s.bitmap2, local)
			return s.base + local, true
		}
	}
	return 0, false
}

// table is the open-addressed lock-free unique node table, built from an
// append-only list of segments. Starting a new segment rather than
// rehashing an existing one whole keeps every previously issued Node handle
// valid across a resize (§4.2 "Resize"): growth only ever adds capacity, it
// never relocates a slot a caller might already be holding.
//
// Slot 0 of segment 0 is permanently reserved for False/True (the two
// constant leaves); real nodes start at global index 1.
type table struct {
	segments []*segment // append-only; grown only from gcCoordinator.phase under the stop-the-world rendezvous, so a plain read elsewhere never races an in-progress append

	maxCapacity uint64 // total slot cap across all segments, 0 = unbounded (configs.maxnodesize)
	maxIncrease uint64 // cap on slots added by a single grow(), 0 = unbounded (configs.maxnodeincrease)

	count atomic.Uint64 // live node estimate, refreshed by GC's mark phase
}

func newTable(size uint64, maxCapacity, maxIncrease uint64) *table {
	s0 := newSegment(0, size)
	// slot 0 is reserved for the constants; mark its region claimed and the
	// slot occupied so no lookup ever tries to reuse it.
	s0.bitmap1[0].Store(1)
	s0.bitmap2[0].Store(1)
	s0.claimed[0].Store(1)
	return &table{
		segments:    []*segment{s0},
		maxCapacity: maxCapacity,
		maxIncrease: maxIncrease,
	}
}

func (t *table) totalSize() uint64 {
	var n uint64
	for _, s := range t.segments {
		n += s.size
	}
	return n
}

func (t *table) segmentFor(idx uint64) *segment {
	for _, s := range t.segments {
		if idx >= s.base && idx-s.base < s.size {
			return s
		}
	}
	return nil
}

// insertOrFind implements the unique-table contract of §4.2: given a
// candidate node's packed words, it either finds an existing slot with the
// same content (structural sharing) or claims a free slot and publishes
// the new node into it. flavor is mixed into the probe hashes only; a slot
// matches on its two packed words alone, so the flavor does not keep two
// identical (variable, low, high, tag) nodes apart. Every segment is probed before any
// insert is attempted, so canonicity holds across the whole table, not
// just within the segment an insert happens to land in.
func (t *table) insertOrFind(w0, w1 uint64, flavor uint64) (uint64, error) {
	h1 := hashNode(w0, w1, flavor)
	h2 := rehashNode(w0, w1, flavor)
	for _, s := range t.segments {
		if idx, ok := s.probe(h1, w0, w1); ok {
			return idx, nil
		}
		if idx, ok := s.probe(h2, w0, w1); ok {
			return idx, nil
		}
	}
	// try the newest (and usually roomiest) segment first, falling back to
	// older segments since GC can free slots anywhere.
	for i := len(t.segments) - 1; i >= 0; i-- {
		if idx, ok := t.segments[i].insert(h1, w0, w1); ok {
			t.count.Add(1)
			return idx, nil
		}
	}
	return 0, errTableFull
}

// at returns the packed payload stored at idx.
func (t *table) at(idx uint64) packedNode {
	return t.segmentFor(idx).nodes[idx-t.segmentFor(idx).base]
}

// clearMarks resets every segment's occupancy/claim bitmaps to all-zero,
// the first phase of a GC cycle (§4.2 "clear bitmaps"); the mark phase then
// re-sets the bit of every node reachable from a root.
func (t *table) clearMarks() {
	for _, s := range t.segments {
		for i := range s.bitmap2 {
			s.bitmap2[i].Store(0)
		}
		for i := range s.claimed {
			s.claimed[i].Store(0)
		}
	}
	// the reserved constant slot is always reachable
	t.segments[0].bitmap2[0].Store(1)
	t.segments[0].claimed[0].Store(1)
	t.count.Store(1)
}

// mark sets the occupancy/mark bit for idx, returning true if this call
// was the one that transitioned it from unmarked to marked (so the caller
// knows whether to recurse into idx's children).
func (t *table) mark(idx uint64) bool {
	s := t.segmentFor(idx)
	if bitTrySet(s.bitmap2, idx-s.base) {
		t.count.Add(1)
		return true
	}
	return false
}

func (t *table) isMarked(idx uint64) bool {
	s := t.segmentFor(idx)
	return bitSet(s.bitmap2, idx-s.base)
}

func (t *table) liveCount() uint64 { return t.count.Load() }

func (t *table) capacity() uint64 { return t.totalSize() }

// grow appends a fresh segment, doubling the table's total capacity
// (bounded by maxIncrease/maxCapacity), and reports whether it did. It must
// only be called from gcCoordinator.phase's worker-0 path: every other
// worker is parked at the GC rendezvous barrier at that point, so appending
// to segments is the only mutation in flight and needs no extra locking.
func (t *table) grow() bool {
	cur := t.totalSize()
	if t.maxCapacity > 0 && cur >= t.maxCapacity {
		return false
	}
	add := cur
	if t.maxIncrease > 0 && add > t.maxIncrease {
		add = t.maxIncrease
	}
	if add == 0 {
		add = regionSize
	}
	if t.maxCapacity > 0 && cur+add > t.maxCapacity {
		add = t.maxCapacity - cur
	}
	if add == 0 {
		return false
	}
	t.segments = append(t.segments, newSegment(cur, add))
	return true
}

// needsGrow reports whether the fraction of free slots remaining after a GC
// mark pass has fallen below minfreenodes percent of total capacity (§4.2
// "Resize": growth is gated on post-GC occupancy, not attempted eagerly on
// every insert failure).
func (t *table) needsGrow(minfreenodesPct int) bool {
	if minfreenodesPct <= 0 {
		return false
	}
	total := t.totalSize()
	if total == 0 {
		return false
	}
	free := total - t.liveCount()
	return free*100 < total*uint64(minfreenodesPct)
}

// maybeGrow grows the table if needsGrow says occupancy warrants it,
// reporting whether a new segment was appended. Called once per GC cycle
// from gcCoordinator.phase, after the mark phase has refreshed liveCount.
func (t *table) maybeGrow(minfreenodesPct int) bool {
	if !t.needsGrow(minfreenodesPct) {
		return false
	}
	return t.grow()
}

// atMaxCapacity reports whether Maxnodesize has already been reached, so a
// caller that sees errTableFull survive a GC-and-retry can tell "genuinely
// configured not to grow any further" apart from "probing just got unlucky
// this cycle".
func (t *table) atMaxCapacity() bool {
	return t.maxCapacity > 0 && t.totalSize() >= t.maxCapacity
}
