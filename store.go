// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

// nodeStore is the interface the Engine uses to talk to either node-table
// backend (§4.2); table and trieTable both implement it. Keeping it small
// and handle-based means the GC coordinator, the cache, and the DD kernel
// algorithms never need to know which backend is in play.
type nodeStore interface {
	insertOrFind(w0, w1 uint64, flavor uint64) (uint64, error)
	at(idx uint64) packedNode
	clearMarks()
	mark(idx uint64) bool
	isMarked(idx uint64) bool
	liveCount() uint64
	capacity() uint64

	// maybeGrow is called once per GC cycle, after the mark phase, and
	// grows the store if post-GC occupancy warrants it (§4.2 "Resize").
	// trieTable's chain-based layout has no analogous append-only growth
	// path yet, so its implementation always reports false; see DESIGN.md.
	maybeGrow(minfreenodesPct int) bool

	// atMaxCapacity reports whether the store has hit its configured size
	// ceiling and so cannot be expected to grow any further.
	atMaxCapacity() bool
}

var (
	_ nodeStore = (*table)(nil)
	_ nodeStore = (*trieTable)(nil)
)

func newNodeStore(backend Backend, size uint64, maxCapacity, maxIncrease uint64) nodeStore {
	if backend == BackendTrieChained {
		return newTrieTable(size)
	}
	return newTable(size, maxCapacity, maxIncrease)
}
