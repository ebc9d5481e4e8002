// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import "sync/atomic"

// trieTable is the trie-chained unique node table (§4.2 "trie-chained
// variant", grounded in original_source/src/nodes_trie.c): instead of
// open-addressed probing, each hash bucket owns the head of a singly
// linked chain of colliding slots threaded through a parallel "next" index
// array. Insertion appends new nodes to the bucket's chain with a single
// CAS on the bucket head (or on the tail's next pointer), so a long chain
// never forces a probe past where the collision actually lives.
//
// Selected via WithBackend(BackendTrieChained); used when node content is
// expected to collide heavily on a narrow hash range (for instance, ZDD
// families built over a single shared variable ordering), where the
// open-addressed table's bounded probe length would otherwise overflow
// into claiming fresh regions too eagerly.
type trieTable struct {
	nodes []packedNode

	first []atomic.Uint64 // bucket head: index+1 into nodes, 0 = empty chain
	next  []atomic.Uint64 // per-slot chain pointer: index+1, 0 = end of chain

	bitmap1 []atomic.Uint64
	bitmap2 []atomic.Uint64

	size       uint64
	buckets    uint64
	bucketMask uint64

	freeCursor atomic.Uint64 // next never-used slot, bumped by CAS
	count      atomic.Uint64
}

func newTrieTable(size uint64) *trieTable {
	size = nextPow2(size)
	t := &trieTable{
		nodes:      make([]packedNode, size),
		first:      make([]atomic.Uint64, size),
		next:       make([]atomic.Uint64, size),
		bitmap1:    make([]atomic.Uint64, (size+63)/64),
		bitmap2:    make([]atomic.Uint64, (size+63)/64),
		size:       size,
		buckets:    size,
		bucketMask: size - 1,
	}
	t.bitmap2[0].Store(1)
	t.freeCursor.Store(1) // slot 0 reserved for the constants
	return t
}

func (t *trieTable) bucket(h uint64) *atomic.Uint64 {
	return &t.first[h&t.bucketMask]
}

// insertOrFind walks the chain rooted at h's bucket looking for a node
// with matching content; if none is found it claims a fresh slot and
// links it at the head of the chain with a CAS race against concurrent
// inserters targeting the same bucket.
func (t *trieTable) insertOrFind(w0, w1 uint64, flavor uint64) (uint64, error) {
	h := hashNode(w0, w1, flavor)
	head := t.bucket(h)

	for cur := head.Load(); cur != 0; cur = t.next[cur-1].Load() {
		idx := cur - 1
		n := t.nodes[idx]
		if n.word0 == w0 && n.word1 == w1 {
			return idx, nil
		}
	}

	idx, err := t.allocSlot()
	if err != nil {
		return 0, err
	}
	t.nodes[idx] = packedNode{word0: w0, word1: w1}
	bitTrySet(t.bitmap2, idx)

	for {
		old := head.Load()
		t.next[idx].Store(old)
		if head.CompareAndSwap(old, idx+1) {
			break
		}
		// lost the race for the bucket head: check whether the winner
		// inserted the same content before retrying our own link.
		for cur := head.Load(); cur != 0; cur = t.next[cur-1].Load() {
			if cur-1 == idx {
				break
			}
			n := t.nodes[cur-1]
			if n.word0 == w0 && n.word1 == w1 {
				return cur - 1, nil
			}
		}
	}
	t.count.Add(1)
	return idx, nil
}

func (t *trieTable) allocSlot() (uint64, error) {
	idx := t.freeCursor.Add(1) - 1
	if idx >= t.size {
		return 0, errTableFull
	}
	return idx, nil
}

func (t *trieTable) at(idx uint64) packedNode { return t.nodes[idx] }

func (t *trieTable) clearMarks() {
	for i := range t.bitmap2 {
		t.bitmap2[i].Store(0)
	}
	t.bitmap2[0].Store(1)
	t.count.Store(1)
}

func (t *trieTable) mark(idx uint64) bool {
	if bitTrySet(t.bitmap2, idx) {
		t.count.Add(1)
		return true
	}
	return false
}

func (t *trieTable) isMarked(idx uint64) bool { return bitSet(t.bitmap2, idx) }
func (t *trieTable) liveCount() uint64        { return t.count.Load() }
func (t *trieTable) capacity() uint64         { return t.size }

// maybeGrow never grows: the trie-chained backend's bucket array and slot
// array share a single fixed size decided at construction, and rehashing
// its bucket chains into a larger array would require relocating "first"
// and "next" pointers a concurrent insertOrFind might be mid-chain-walking
// through. BackendOpenAddressed is the backend to pick when the working set
// won't fit in the initial size.
func (t *trieTable) maybeGrow(int) bool { return false }

// atMaxCapacity always reports true: a trie-chained table never grows
// (maybeGrow above), so from the caller's perspective it is always already
// at whatever capacity it will ever have.
func (t *trieTable) atMaxCapacity() bool { return true }
