// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"
)

// Dump writes a binary snapshot of every node reachable from roots to w,
// in the format of §6.2: a node_count header, one record per node in
// dense-id order (its variable and the dense ids of its children), then a
// dd_count header followed by one record per root (its dense id and
// flag bits).
//
// Dense ids are assigned by a single pass over the reachable set rather
// than reusing raw table indices, so the dump is independent of how the
// live table happened to be laid out (§4.6 "skiplist-based dense-id
// assignment"); a roaring.Bitmap tracks which raw indices have already
// been visited; it is only ever touched from this single-threaded,
// cold-path walk, never from the hot lock-free lookup path RoaringBitmap
// is unsuited for.
func (b *BDD) Dump(w io.Writer, roots ...Node) error {
	visited := roaring.New()
	order := make([]Node, 0, 64)

	var walk func(Node)
	walk = func(n Node) {
		if n.isLeaf() {
			return
		}
		idx := uint32(n.index())
		if visited.Contains(idx) {
			return
		}
		visited.Add(idx)
		walk(b.low(n))
		walk(b.high(n))
		order = append(order, internalNode(uint64(idx)))
	}
	for _, r := range roots {
		walk(r)
	}

	dense := make(map[Node]uint64, len(order))
	for i, n := range order {
		dense[n] = uint64(i)
	}
	denseOf := func(n Node) uint64 {
		if n.isLeaf() {
			return n.index() | (uint64(1) << 63)
		}
		return dense[internalNode(n.index())]
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(order))); err != nil {
		return err
	}
	for _, n := range order {
		var rec [3]uint64
		rec[0] = uint64(b.variable(n))
		rec[1] = denseOf(b.low(n))
		rec[2] = denseOf(b.high(n))
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(roots))); err != nil {
		return err
	}
	for _, r := range roots {
		rec := [2]uint64{denseOf(r), 0}
		if r.isComplemented() {
			rec[1] = 1
		}
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a snapshot produced by Dump back into b, rebuilding every
// node through makenode so the loaded DAG is interned against whatever
// else already lives in b's table, and returns the roots in the same
// order they were dumped.
func (b *BDD) Load(r io.Reader) ([]Node, error) {
	var nodeCount uint64
	if err := binary.Read(r, binary.LittleEndian, &nodeCount); err != nil {
		return nil, err
	}

	dense := make([]Node, nodeCount)
	w0 := b.Engine.rt.Worker(0)
	for i := uint64(0); i < nodeCount; i++ {
		var rec [3]uint64
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, err
		}
		variable, lowRef, highRef := int32(rec[0]), rec[1], rec[2]
		low, err := resolveDenseRef(dense, lowRef)
		if err != nil {
			return nil, err
		}
		high, err := resolveDenseRef(dense, highRef)
		if err != nil {
			return nil, err
		}
		n, err := b.makeBDDNode(w0, variable, low, high)
		if err != nil {
			return nil, fmt.Errorf("dd: Load: node %d: %w", i, err)
		}
		dense[i] = n
	}

	var rootCount uint64
	if err := binary.Read(r, binary.LittleEndian, &rootCount); err != nil {
		return nil, err
	}
	roots := make([]Node, rootCount)
	for i := uint64(0); i < rootCount; i++ {
		var rec [2]uint64
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, err
		}
		n, err := resolveDenseRef(dense, rec[0])
		if err != nil {
			return nil, err
		}
		roots[i] = n.withComplement(rec[1] != 0)
	}
	return roots, nil
}

func resolveDenseRef(dense []Node, ref uint64) (Node, error) {
	if ref&(uint64(1)<<63) != 0 {
		idx := ref &^ (uint64(1) << 63)
		if idx == 0 {
			return False, nil
		}
		return True, nil
	}
	if ref >= uint64(len(dense)) {
		return 0, fmt.Errorf("dd: Load: dense reference %d out of range", ref)
	}
	return dense[ref], nil
}
