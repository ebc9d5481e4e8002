// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import "github.com/dalzilio-labs/ddforge/lace"

// MTBDD is a multi-terminal BDD: like BDD, but a leaf can carry an int64,
// a float64, or a caller-registered custom value instead of only
// true/false (§4.4, grounded in original_source/src/sylvan_mtbdd.h).
type MTBDD struct {
	*Engine
	vars []Node
}

// NewMTBDD creates an MTBDD engine with varnum variables.
func NewMTBDD(varnum int, options ...func(*configs)) (*MTBDD, error) {
	e, err := newEngine(varnum, options...)
	if err != nil {
		return nil, err
	}
	m := &MTBDD{Engine: e, vars: make([]Node, varnum)}
	zero, err := m.Int(0)
	if err != nil {
		return nil, err
	}
	one, err := m.Int(1)
	if err != nil {
		return nil, err
	}
	w0 := e.rt.Worker(0)
	for i := 0; i < varnum; i++ {
		n, err := e.makenode(w0, flavorMTBDD, int32(i), zero, one, 0)
		if err != nil {
			return nil, err
		}
		m.vars[i] = e.Protect(n)
	}
	return m, nil
}

// Var returns the top variable level of n (§6.1's var(dd)).
func (m *MTBDD) Var(n Node) int32 { return m.variable(n) }

// Low returns n's low-edge child (§6.1's low(dd)).
func (m *MTBDD) Low(n Node) Node { return m.low(n) }

// High returns n's high-edge child (§6.1's high(dd)).
func (m *MTBDD) High(n Node) Node { return m.high(n) }

func (m *MTBDD) variable(n Node) int32 { return m.Engine.store.at(n.index()).variable() }
func (m *MTBDD) low(n Node) Node       { return m.Engine.store.at(n.index()).low() }
func (m *MTBDD) high(n Node) Node      { return m.Engine.store.at(n.index()).high() }

func (m *MTBDD) topVar(n Node) int32 {
	if n.isLeaf() {
		return m.varnum
	}
	return m.variable(n)
}

func (m *MTBDD) branch(n Node, nvar, v int32) (Node, Node) {
	if nvar != v {
		return n, n
	}
	return m.low(n), m.high(n)
}

func (m *MTBDD) makeMTBDDNode(w *lace.Worker, variable int32, low, high Node) (Node, error) {
	if low == high {
		return low, nil
	}
	return m.Engine.makenode(w, flavorMTBDD, variable, low, high, 0)
}

// Int returns the terminal leaf for an integer constant.
func (m *MTBDD) Int(v int64) (Node, error) {
	idx := m.leaves.intern(leafValue{kind: leafInt, i: v})
	return leafNode(idx), nil
}

// Float returns the terminal leaf for a floating-point constant.
func (m *MTBDD) Float(v float64) (Node, error) {
	idx := m.leaves.intern(leafValue{kind: leafFloat, f: v})
	return leafNode(idx), nil
}

// Fraction returns the terminal leaf for an exact (numerator, denominator)
// rational constant, grounded in sylvan_mtbdd.h's mtbdd_fraction leaves.
func (m *MTBDD) Fraction(num, den int64) (Node, error) {
	idx := m.leaves.intern(leafValue{kind: leafFraction, num: num, den: den})
	return leafNode(idx), nil
}

// Custom interns a caller-supplied leaf value; equal values (by ==) share
// a single handle the same way Int and Float do.
func (m *MTBDD) Custom(v interface{}) (Node, error) {
	idx := m.leaves.intern(leafValue{kind: leafCustom, custom: v})
	return leafNode(idx), nil
}

// LeafValue returns the raw payload behind a terminal Node: an int64 for
// an Int leaf, a float64 for a Float leaf, a [2]int64{num, den} for a
// Fraction leaf, or whatever was passed to Custom.
func (m *MTBDD) LeafValue(n Node) interface{} {
	v := m.leaves.at(n.index())
	switch v.kind {
	case leafInt:
		return v.i
	case leafFloat:
		return v.f
	case leafFraction:
		return [2]int64{v.num, v.den}
	default:
		return v.custom
	}
}

// ToZDD converts a 0/1-valued MTBDD into the equivalent ZDD over z's
// variables, following mtbdd_to_zdd's rule: an MTBDD leaf of 0 maps to
// ZDD Empty, any other leaf maps to z's Base.
func (m *MTBDD) ToZDD(z *ZDD, n Node) (Node, error) {
	w0 := m.Engine.rt.Worker(0)
	memo := make(map[Node]Node)
	var walk func(Node) (Node, error)
	walk = func(cur Node) (Node, error) {
		if r, ok := memo[cur]; ok {
			return r, nil
		}
		if cur.isLeaf() {
			v, _ := m.LeafValue(cur).(int64)
			if v == 0 {
				return z.Empty(), nil
			}
			return z.Base(), nil
		}
		low, err := walk(m.low(cur))
		if err != nil {
			return 0, err
		}
		high, err := walk(m.high(cur))
		if err != nil {
			return 0, err
		}
		r, err := z.makeZDDNode(w0, m.variable(cur), low, high)
		if err != nil {
			return 0, err
		}
		memo[cur] = r
		return r, nil
	}
	return walk(n)
}

// FromZDD converts a ZDD into the equivalent 0/1-valued MTBDD over m's
// variables, following zdd_to_mtbdd's rule: ZDD Empty maps to Int(0),
// ZDD Base maps to Int(1).
func (m *MTBDD) FromZDD(z *ZDD, n Node) (Node, error) {
	zero, err := m.Int(0)
	if err != nil {
		return 0, err
	}
	one, err := m.Int(1)
	if err != nil {
		return 0, err
	}
	w0 := m.Engine.rt.Worker(0)
	memo := make(map[Node]Node)
	var walk func(Node) (Node, error)
	walk = func(cur Node) (Node, error) {
		if r, ok := memo[cur]; ok {
			return r, nil
		}
		if cur == z.Empty() {
			return zero, nil
		}
		if cur == z.Base() {
			return one, nil
		}
		low, err := walk(z.low(cur))
		if err != nil {
			return 0, err
		}
		high, err := walk(z.high(cur))
		if err != nil {
			return 0, err
		}
		r, err := m.makeMTBDDNode(w0, z.variable(cur), low, high)
		if err != nil {
			return 0, err
		}
		memo[cur] = r
		return r, nil
	}
	return walk(n)
}

// Ithvar returns the Boolean variable i, represented as an MTBDD with
// integer leaves 0 and 1.
func (m *MTBDD) Ithvar(i int) Node {
	if i < 0 || i >= len(m.vars) {
		return 0
	}
	return m.vars[i]
}

// ApplyInt combines two MTBDDs leaf-wise using a binary Go function over
// their integer payloads (§4.4's generalized Apply, supplemented for
// MTBDD leaves since plain Apply is Boolean-only).
func (m *MTBDD) ApplyInt(a, b Node, combine func(x, y int64) int64) (Node, error) {
	return runDD(m.Engine, []Node{a, b}, func(w *lace.Worker) (Node, error) { return m.applyInt(w, a, b, combine) })
}

func (m *MTBDD) applyInt(w *lace.Worker, a, b Node, combine func(x, y int64) int64) (Node, error) {
	if a.isLeaf() && b.isLeaf() {
		av, _ := m.LeafValue(a).(int64)
		bv, _ := m.LeafValue(b).(int64)
		return m.Int(combine(av, bv))
	}

	av, bv := m.topVar(a), m.topVar(b)
	variable := av
	if bv < variable {
		variable = bv
	}
	la, ha := m.branch(a, av, variable)
	lb, hb := m.branch(b, bv, variable)

	highTask := lace.NewTask(func(w *lace.Worker) int64 {
		r, _ := m.applyInt(w, ha, hb, combine)
		return int64(r)
	})
	w.Spawn(highTask)
	low, err := m.applyInt(w, la, lb, combine)
	if err != nil {
		return 0, err
	}
	high := Node(w.Sync(highTask))

	return m.makeMTBDDNode(w, variable, low, high)
}
