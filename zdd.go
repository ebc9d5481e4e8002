// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import "github.com/dalzilio-labs/ddforge/lace"

// ZDD is a zero-suppressed decision diagram: its makenode rule skips a
// node whose high branch is the empty set rather than one whose two
// children coincide (§4.4, grounded in
// original_source/src/sylvan_zdd.c's _zdd_makenode). ZDDs typically
// represent sparse families of sets far more compactly than an equivalent
// BDD, since a variable absent from every set in the family costs nothing.
type ZDD struct {
	*Engine
	vars []Node
}

// NewZDD creates a ZDD engine with varnum variables.
func NewZDD(varnum int, options ...func(*configs)) (*ZDD, error) {
	e, err := newEngine(varnum, options...)
	if err != nil {
		return nil, err
	}
	z := &ZDD{Engine: e, vars: make([]Node, varnum)}
	w0 := e.rt.Worker(0)
	for i := 0; i < varnum; i++ {
		n, err := z.makeZDDNode(w0, int32(i), False, True)
		if err != nil {
			return nil, err
		}
		z.vars[i] = e.Protect(n)
	}
	return z, nil
}

// Var returns the top variable level of n (§6.1's var(dd)).
func (z *ZDD) Var(n Node) int32 { return z.variable(n) }

// Low returns n's low-edge child (§6.1's low(dd)).
func (z *ZDD) Low(n Node) Node { return z.low(n) }

// High returns n's high-edge child (§6.1's high(dd)).
func (z *ZDD) High(n Node) Node { return z.high(n) }

func (z *ZDD) variable(n Node) int32 { return z.Engine.store.at(n.index()).variable() }
func (z *ZDD) low(n Node) Node       { return z.Engine.store.at(n.index()).low() }
func (z *ZDD) high(n Node) Node      { return z.Engine.store.at(n.index()).high() }

// makeZDDNode applies the zero-suppression rule: a node whose high branch
// denotes the empty family collapses to its low branch, since "variable
// present but never leads anywhere" and "variable absent" mean the same
// thing once high is pruned away.
func (z *ZDD) makeZDDNode(w *lace.Worker, variable int32, low, high Node) (Node, error) {
	if high == False {
		return low, nil
	}
	return z.Engine.makenode(w, flavorZDD, variable, low, high, 0)
}

// Empty and Base are ZDD's two constants: the empty family and the family
// containing only the empty set.
func (z *ZDD) Empty() Node { return False }
func (z *ZDD) Base() Node  { return True }

// Ithvar returns the family {{i}}, the singleton set containing only
// variable i.
func (z *ZDD) Ithvar(i int) Node {
	if i < 0 || i >= len(z.vars) {
		return False
	}
	return z.vars[i]
}

// Union computes the set union of two ZDD-represented families.
func (z *ZDD) Union(a, b Node) (Node, error) {
	return runDD(z.Engine, []Node{a, b}, func(w *lace.Worker) (Node, error) { return z.union(w, a, b) })
}

func (z *ZDD) union(w *lace.Worker, a, b Node) (Node, error) {
	if a == False {
		return b, nil
	}
	if b == False {
		return a, nil
	}
	if a == b {
		return a, nil
	}
	if r, ok := z.Engine.cacheGet(opcodeApply, flavorZDD, uint64(OpOr), uint64(a), uint64(b), 0); ok {
		return Node(r), nil
	}

	av, bv := z.topVar(a), z.topVar(b)
	variable := av
	if bv < variable {
		variable = bv
	}
	la, ha := z.branch(a, av, variable)
	lb, hb := z.branch(b, bv, variable)

	highTask := lace.NewTask(func(w *lace.Worker) int64 {
		r, _ := z.union(w, ha, hb)
		return int64(r)
	})
	w.Spawn(highTask)
	low, err := z.union(w, la, lb)
	if err != nil {
		return 0, err
	}
	high := Node(w.Sync(highTask))

	res, err := z.makeZDDNode(w, variable, low, high)
	if err != nil {
		return 0, err
	}
	z.Engine.cachePut(opcodeApply, flavorZDD, uint64(OpOr), uint64(a), uint64(b), 0, uint64(res))
	return res, nil
}

// Inter computes the set intersection of two ZDD-represented families.
func (z *ZDD) Inter(a, b Node) (Node, error) {
	return runDD(z.Engine, []Node{a, b}, func(w *lace.Worker) (Node, error) { return z.inter(w, a, b) })
}

func (z *ZDD) inter(w *lace.Worker, a, b Node) (Node, error) {
	if a == False || b == False {
		return False, nil
	}
	if a == b {
		return a, nil
	}
	if r, ok := z.Engine.cacheGet(opcodeApply, flavorZDD, uint64(OpAnd), uint64(a), uint64(b), 0); ok {
		return Node(r), nil
	}

	av, bv := z.topVar(a), z.topVar(b)
	if av != bv {
		// the variable present in only one family can't be in the
		// intersection, so drop straight to whichever low branch still
		// matches the other operand.
		if av < bv {
			low, err := z.inter(w, z.low(a), b)
			return low, err
		}
		low, err := z.inter(w, a, z.low(b))
		return low, err
	}

	highTask := lace.NewTask(func(w *lace.Worker) int64 {
		r, _ := z.inter(w, z.high(a), z.high(b))
		return int64(r)
	})
	w.Spawn(highTask)
	low, err := z.inter(w, z.low(a), z.low(b))
	if err != nil {
		return 0, err
	}
	high := Node(w.Sync(highTask))

	res, err := z.makeZDDNode(w, av, low, high)
	if err != nil {
		return 0, err
	}
	z.Engine.cachePut(opcodeApply, flavorZDD, uint64(OpAnd), uint64(a), uint64(b), 0, uint64(res))
	return res, nil
}

// Diff computes the family a minus the family b.
func (z *ZDD) Diff(a, b Node) (Node, error) {
	return runDD(z.Engine, []Node{a, b}, func(w *lace.Worker) (Node, error) { return z.diff(w, a, b) })
}

func (z *ZDD) diff(w *lace.Worker, a, b Node) (Node, error) {
	if a == False || a == b {
		return False, nil
	}
	if b == False {
		return a, nil
	}
	if r, ok := z.Engine.cacheGet(opcodeApply, flavorZDD, uint64(OpDiff), uint64(a), uint64(b), 0); ok {
		return Node(r), nil
	}

	av, bv := z.topVar(a), z.topVar(b)
	if av < bv {
		low, err := z.diff(w, z.low(a), b)
		if err != nil {
			return 0, err
		}
		res, err := z.makeZDDNode(w, av, low, z.high(a))
		return res, err
	}
	if bv < av {
		return z.diff(w, a, z.low(b))
	}

	highTask := lace.NewTask(func(w *lace.Worker) int64 {
		r, _ := z.diff(w, z.high(a), z.high(b))
		return int64(r)
	})
	w.Spawn(highTask)
	low, err := z.diff(w, z.low(a), z.low(b))
	if err != nil {
		return 0, err
	}
	high := Node(w.Sync(highTask))

	res, err := z.makeZDDNode(w, av, low, high)
	if err != nil {
		return 0, err
	}
	z.Engine.cachePut(opcodeApply, flavorZDD, uint64(OpDiff), uint64(a), uint64(b), 0, uint64(res))
	return res, nil
}

func (z *ZDD) topVar(n Node) int32 {
	if n.isLeaf() {
		return z.varnum
	}
	return z.variable(n)
}

func (z *ZDD) branch(n Node, nvar, v int32) (Node, Node) {
	if nvar != v {
		return n, False
	}
	return z.low(n), z.high(n)
}
