// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import "github.com/dalzilio-labs/ddforge/lace"

// TBDD is a tagged BDD, generalizing both the BDD and ZDD reduction
// rules behind a per-edge tag (§4.4, grounded in
// original_source/src/sylvan_tbdd.c's tbdd_makenode): identical children
// collapse as in a BDD, but a node whose high branch is False collapses
// too, with the tag absorbing which variable was skipped so the domain
// can still be walked level by level.
type TBDD struct {
	*Engine
	vars     []Node
	nextvars []int32 // nextvars[i] = the declared variable following i, or noNext
}

// noNext marks "no further variable in the domain", matching the
// original's 0xFFFFF sentinel.
const noNext int32 = -1

// NewTBDD creates a TBDD engine with varnum variables, declared in the
// fixed order 0..varnum-1.
func NewTBDD(varnum int, options ...func(*configs)) (*TBDD, error) {
	e, err := newEngine(varnum, options...)
	if err != nil {
		return nil, err
	}
	t := &TBDD{
		Engine:   e,
		vars:     make([]Node, varnum),
		nextvars: make([]int32, varnum),
	}
	for i := 0; i < varnum; i++ {
		if i+1 < varnum {
			t.nextvars[i] = int32(i + 1)
		} else {
			t.nextvars[i] = noNext
		}
	}
	w0 := e.rt.Worker(0)
	for i := 0; i < varnum; i++ {
		n, err := t.makeTBDDNode(w0, int32(i), False, True, t.nextvars[i])
		if err != nil {
			return nil, err
		}
		t.vars[i] = e.Protect(n)
	}
	return t, nil
}

// Var returns the top variable level of n (§6.1's var(dd)).
func (t *TBDD) Var(n Node) int32 { return t.variable(n) }

// Low returns n's low-edge child (§6.1's low(dd)).
func (t *TBDD) Low(n Node) Node { return t.low(n) }

// High returns n's high-edge child (§6.1's high(dd)).
func (t *TBDD) High(n Node) Node { return t.high(n) }

func (t *TBDD) variable(n Node) int32 { return t.Engine.store.at(n.index()).variable() }
func (t *TBDD) low(n Node) Node       { return t.Engine.store.at(n.index()).low() }
func (t *TBDD) high(n Node) Node      { return t.Engine.store.at(n.index()).high() }

// settag moves n onto a new tag, replacing whatever tag it had, whether
// higher or lower; a negative tag leaves n unchanged.
func (t *TBDD) settag(n Node, tag int32) Node {
	if tag < 0 {
		return n
	}
	return n.withTag(uint32(tag))
}

// makeTBDDNode implements the hybrid reduction rule: BDD-style collapse
// when low == high, ZDD-style collapse (absorbed into the tag) when high
// is False, and a genuine new node otherwise.
func (t *TBDD) makeTBDDNode(w *lace.Worker, variable int32, low, high Node, nextvar int32) (Node, error) {
	if low == high {
		return low, nil
	}
	if high == False {
		if nextvar == noNext {
			return t.settag(low, variable), nil
		}
		if nextvar == int32(low.tag()) {
			return t.settag(low, variable), nil
		}
		return t.Engine.makenode(w, flavorTBDD, nextvar, low, low, 0)
	}
	return t.Engine.makenode(w, flavorTBDD, variable, low, high, 0)
}

// Ithvar returns the singleton family containing only variable i, tagged
// so that every variable before i is implicitly "don't care".
func (t *TBDD) Ithvar(i int) Node {
	if i < 0 || i >= len(t.vars) {
		return False
	}
	return t.vars[i]
}
