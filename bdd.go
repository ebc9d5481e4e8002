// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"github.com/dalzilio-labs/ddforge/lace"
)

// BDD is an ordinary binary decision diagram over the variables declared
// at construction time. Its makenode rule is the classical one (§4.4):
// collapse a node whose two children are identical, otherwise intern a
// fresh (variable, low, high) triple, pushing any low-edge complement up
// to the parent so the low edge is never itself complemented.
type BDD struct {
	*Engine
	vars []Node // Ithvar(i) for i in [0, varnum)
}

// NewBDD creates a BDD engine with varnum variables, configured by the
// given options (Workers, Nodesize, Cachesize, WithBackend, ...).
func NewBDD(varnum int, options ...func(*configs)) (*BDD, error) {
	e, err := newEngine(varnum, options...)
	if err != nil {
		return nil, err
	}
	b := &BDD{Engine: e, vars: make([]Node, varnum)}
	w0 := e.rt.Worker(0)
	for i := 0; i < varnum; i++ {
		n, err := e.makenode(w0, flavorBDD, int32(i), False, True, 0)
		if err != nil {
			return nil, err
		}
		// the declared variables are permanent fixtures of the engine, not
		// transient operation results, so they are protected for the life
		// of the BDD rather than left to be swept by the next GC cycle.
		b.vars[i] = e.Protect(n)
	}
	return b, nil
}

// Ithvar returns the BDD representing the positive literal of variable i.
func (b *BDD) Ithvar(i int) Node {
	if i < 0 || i >= len(b.vars) {
		return False
	}
	return b.vars[i]
}

// NIthvar returns the BDD representing the negative literal of variable i.
func (b *BDD) NIthvar(i int) (Node, error) {
	if i < 0 || i >= len(b.vars) {
		return False, opError("nithvar", errInvalidVariable)
	}
	return b.Not(b.vars[i])
}

// Var returns the top variable level of n, the library-surface wrapper
// around the private variable accessor every flavor keeps for its own
// recursion (§6.1's var(dd)).
func (b *BDD) Var(n Node) int32 { return b.variable(n) }

// Low returns n's low-edge child, with any complement mark on n correctly
// pushed through (§6.1's low(dd)).
func (b *BDD) Low(n Node) Node { return b.low(n) }

// High returns n's high-edge child, with any complement mark on n correctly
// pushed through (§6.1's high(dd)).
func (b *BDD) High(n Node) Node { return b.high(n) }

func (b *BDD) variable(n Node) int32 {
	return b.Engine.store.at(n.index()).variable()
}

func (b *BDD) low(n Node) Node {
	l := b.Engine.store.at(n.index()).low()
	if n.isComplemented() {
		return l.withComplement(!l.isComplemented())
	}
	return l
}

func (b *BDD) high(n Node) Node {
	h := b.Engine.store.at(n.index()).high()
	if n.isComplemented() {
		return h.withComplement(!h.isComplemented())
	}
	return h
}

func (b *BDD) makeBDDNode(w *lace.Worker, variable int32, low, high Node) (Node, error) {
	if low == high {
		return low, nil
	}
	if low.isComplemented() {
		n, err := b.Engine.makenode(w, flavorBDD, variable, low.withComplement(false), high.withComplement(!high.isComplemented()), 0)
		if err != nil {
			return 0, err
		}
		return n.withComplement(true), nil
	}
	return b.Engine.makenode(w, flavorBDD, variable, low, high, 0)
}

// Not computes the negation of n.
func (b *BDD) Not(n Node) (Node, error) {
	return runDD(b.Engine, []Node{n}, func(w *lace.Worker) (Node, error) { return b.not(w, n) })
}

func (b *BDD) not(w *lace.Worker, n Node) (Node, error) {
	if n == False {
		return True, nil
	}
	if n == True {
		return False, nil
	}
	if r, ok := b.Engine.cacheGet(opcodeNot, flavorBDD, uint64(n), 0, 0, 0); ok {
		return Node(r), nil
	}

	highTask := lace.NewTask(func(w *lace.Worker) int64 {
		r, _ := b.not(w, b.high(n))
		return int64(r)
	})
	w.Spawn(highTask)

	low, err := b.not(w, b.low(n))
	if err != nil {
		return 0, err
	}
	high := Node(w.Sync(highTask))

	res, err := b.makeBDDNode(w, b.variable(n), low, high)
	if err != nil {
		return 0, err
	}
	b.Engine.cachePut(opcodeNot, flavorBDD, uint64(n), 0, 0, 0, uint64(res))
	return res, nil
}

// Apply combines n1 and n2 with the given binary operator (§4.4). Only
// OpAnd through OpInvimp are legal; opNot must not be passed here.
func (b *BDD) Apply(n1, n2 Node, op Operator) (Node, error) {
	return runDD(b.Engine, []Node{n1, n2}, func(w *lace.Worker) (Node, error) { return b.apply(w, n1, n2, op) })
}

func (b *BDD) apply(w *lace.Worker, left, right Node, op Operator) (Node, error) {
	if left.isLeaf() && right.isLeaf() {
		if opTable[op][left.index()][right.index()] == 1 {
			return True, nil
		}
		return False, nil
	}
	switch op {
	case OpAnd:
		if left == right {
			return left, nil
		}
		if left == False || right == False {
			return False, nil
		}
		if left == True {
			return right, nil
		}
		if right == True {
			return left, nil
		}
	case OpOr:
		if left == right {
			return left, nil
		}
		if left == True || right == True {
			return True, nil
		}
		if left == False {
			return right, nil
		}
		if right == False {
			return left, nil
		}
	}

	if r, ok := b.Engine.cacheGet(opcodeApply, flavorBDD, uint64(op), uint64(left), uint64(right), 0); ok {
		return Node(r), nil
	}

	leftVar, rightVar := b.topVar(left), b.topVar(right)
	variable := leftVar
	if rightVar < leftVar {
		variable = rightVar
	}

	lowLeft, highLeft := b.branch(left, leftVar, variable)
	lowRight, highRight := b.branch(right, rightVar, variable)

	highTask := lace.NewTask(func(w *lace.Worker) int64 {
		r, _ := b.apply(w, highLeft, highRight, op)
		return int64(r)
	})
	w.Spawn(highTask)

	low, err := b.apply(w, lowLeft, lowRight, op)
	if err != nil {
		return 0, err
	}
	high := Node(w.Sync(highTask))

	res, err := b.makeBDDNode(w, variable, low, high)
	if err != nil {
		return 0, err
	}
	b.Engine.cachePut(opcodeApply, flavorBDD, uint64(op), uint64(left), uint64(right), 0, uint64(res))
	return res, nil
}

// topVar returns n's top variable, or varnum (a sentinel "beyond the last
// level") for a leaf, so branch() treats a leaf as constant at every
// level.
func (b *BDD) topVar(n Node) int32 {
	if n.isLeaf() {
		return b.varnum
	}
	return b.variable(n)
}

// branch returns n's (low, high) cofactors with respect to variable v: if
// n's own top variable is v the real children are returned, otherwise n
// doesn't depend on v yet and both cofactors are n itself.
func (b *BDD) branch(n Node, nvar, v int32) (Node, Node) {
	if nvar != v {
		return n, n
	}
	return b.low(n), b.high(n)
}

// Ite computes if-then-else(f, g, h), i.e. (f & g) | (!f & h), as a single
// recursive descent rather than three separate Apply calls (§4.4).
func (b *BDD) Ite(f, g, h Node) (Node, error) {
	return runDD(b.Engine, []Node{f, g, h}, func(w *lace.Worker) (Node, error) { return b.ite(w, f, g, h) })
}

func (b *BDD) ite(w *lace.Worker, f, g, h Node) (Node, error) {
	if f == True {
		return g, nil
	}
	if f == False {
		return h, nil
	}
	if g == h {
		return g, nil
	}
	if g == True && h == False {
		return f, nil
	}

	if r, ok := b.Engine.cacheGet(opcodeIte, flavorBDD, uint64(f), uint64(g), uint64(h), 0); ok {
		return Node(r), nil
	}

	fv, gv, hv := b.topVar(f), b.topVar(g), b.topVar(h)
	variable := fv
	if gv < variable {
		variable = gv
	}
	if hv < variable {
		variable = hv
	}

	lf, hf := b.branch(f, fv, variable)
	lg, hg := b.branch(g, gv, variable)
	lh, hh := b.branch(h, hv, variable)

	highTask := lace.NewTask(func(w *lace.Worker) int64 {
		r, _ := b.ite(w, hf, hg, hh)
		return int64(r)
	})
	w.Spawn(highTask)

	low, err := b.ite(w, lf, lg, lh)
	if err != nil {
		return 0, err
	}
	high := Node(w.Sync(highTask))

	res, err := b.makeBDDNode(w, variable, low, high)
	if err != nil {
		return 0, err
	}
	b.Engine.cachePut(opcodeIte, flavorBDD, uint64(f), uint64(g), uint64(h), 0, uint64(res))
	return res, nil
}

// runDD runs fn as the root lace.Task of the engine's runtime, the single
// entry point every public BDD/MTBDD/ZDD/TBDD method funnels through so
// that even a call made from outside any worker goroutine still executes
// inside the fork/join pool (§4.1 "run(T)"). roots lists the operation's
// own arguments so the GC coordinator's per-worker CurrentRefs scan keeps
// them alive for as long as this call is in flight, even though they may
// not (yet) be registered with Protect.
func runDD(e *Engine, roots []Node, fn func(w *lace.Worker) (Node, error)) (Node, error) {
	var outErr error
	t := lace.NewTask(func(w *lace.Worker) int64 {
		n, err := fn(w)
		outErr = err
		return int64(n)
	})
	t.Refs = make([]int64, len(roots))
	for i, n := range roots {
		t.Refs[i] = int64(n)
	}
	r := e.rt.Run(t)
	return Node(r), outErr
}
