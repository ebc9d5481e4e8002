// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/dalzilio-labs/ddforge/lace"
)

// replacerID hands out unique identifiers for Replacer instances (rudd's
// replace.go keeps the equivalent counter as a package-level var; we make
// it atomic since multiple BDDs can build replacers concurrently here).
var replacerID atomic.Int64

// Replacer renames variables as a BDD/ZDD/TBDD is walked by Replace. Id
// distinguishes one renaming from another in the operation cache so two
// different Replace calls over the same nodes never share a memo entry.
type Replacer interface {
	Replace(level int32) (int32, bool)
	Id() int64
}

type replacer struct {
	id    int64
	image []int32
	last  int32
}

func (r *replacer) Replace(level int32) (int32, bool) {
	if level > r.last {
		return level, false
	}
	return r.image[level], true
}

func (r *replacer) Id() int64 { return r.id }

func (r *replacer) String() string {
	s := fmt.Sprintf("replacer(last: %d)[", r.last)
	first := true
	for k, v := range r.image {
		if k != int(v) {
			if !first {
				s += ", "
			}
			first = false
			s += fmt.Sprintf("%d<-%d", k, v)
		}
	}
	return s + "]"
}

// NewReplacer builds a Replacer substituting oldvars[k] with newvars[k]
// for every k, leaving every other variable fixed. oldvars and newvars
// must have equal length, contain no duplicates, and stay within
// [0, Varnum).
func (b *BDD) NewReplacer(oldvars, newvars []int) (Replacer, error) {
	if len(oldvars) != len(newvars) {
		return nil, fmt.Errorf("dd: NewReplacer: unmatched length of slices")
	}
	if replacerID.Load() >= math.MaxInt32>>2 {
		return nil, fmt.Errorf("dd: NewReplacer: too many replacers created")
	}
	varnum := int(b.Varnum())
	res := &replacer{
		id:    replacerID.Add(1),
		image: make([]int32, varnum),
	}
	seen := make([]bool, varnum)
	for k := range res.image {
		res.image[k] = int32(k)
	}
	for k, v := range oldvars {
		if v < 0 || v >= varnum {
			return nil, fmt.Errorf("dd: NewReplacer: invalid variable in oldvars (%d)", v)
		}
		if seen[v] {
			return nil, fmt.Errorf("dd: NewReplacer: duplicate variable (%d) in oldvars", v)
		}
		if newvars[k] < 0 || newvars[k] >= varnum {
			return nil, fmt.Errorf("dd: NewReplacer: invalid variable in newvars (%d)", newvars[k])
		}
		seen[v] = true
		res.image[v] = int32(newvars[k])
		if int32(v) > res.last {
			res.last = int32(v)
		}
	}
	for _, v := range newvars {
		if int(res.image[v]) != v {
			return nil, fmt.Errorf("dd: NewReplacer: variable in newvars (%d) also occurs in oldvars", v)
		}
	}
	return res, nil
}

// Replace walks n substituting variables per r (§4.4 "compose"). Every
// internal node is rebuilt through ite on its (possibly renamed) variable;
// a subgraph the renaming leaves untouched comes back as the same handle
// because the node table is canonical.
func (b *BDD) Replace(n Node, r Replacer) (Node, error) {
	return runDD(b.Engine, []Node{n}, func(w *lace.Worker) (Node, error) { return b.replace(w, n, r) })
}

func (b *BDD) replace(w *lace.Worker, n Node, r Replacer) (Node, error) {
	if n.isLeaf() {
		return n, nil
	}
	if res, ok := b.Engine.cacheGet(opcodeCompose, flavorBDD, uint64(r.Id()), uint64(n), 0, 0); ok {
		return Node(res), nil
	}

	highTask := lace.NewTask(func(w *lace.Worker) int64 {
		r2, _ := b.replace(w, b.high(n), r)
		return int64(r2)
	})
	w.Spawn(highTask)

	low, err := b.replace(w, b.low(n), r)
	if err != nil {
		return 0, err
	}
	high := Node(w.Sync(highTask))

	newvar, _ := r.Replace(b.variable(n))
	res, err := b.makeBDDNodeOrdered(w, newvar, low, high)
	if err != nil {
		return 0, err
	}
	b.Engine.cachePut(opcodeCompose, flavorBDD, uint64(r.Id()), uint64(n), 0, 0, uint64(res))
	return res, nil
}

// makeBDDNodeOrdered builds a node after a renaming may have disturbed the
// variable order between low/high and the new top variable; it re-applies
// the standard apply-style merge instead of assuming newvar already sits
// above both children's variables.
func (b *BDD) makeBDDNodeOrdered(w *lace.Worker, newvar int32, low, high Node) (Node, error) {
	return b.ite(w, b.Ithvar(int(newvar)), high, low)
}
