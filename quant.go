// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import "github.com/dalzilio-labs/ddforge/lace"

// Makeset builds the cube (conjunction, in positive form) of the variables
// in varset; it is the inverse of Scanset and the conventional way to
// build the varset argument Exist/AppEx expect (§4.4).
func (b *BDD) Makeset(varset []int) (Node, error) {
	res := True
	for _, level := range varset {
		v, err := b.Apply(res, b.Ithvar(level), OpAnd)
		if err != nil {
			return False, err
		}
		res = v
	}
	return res, nil
}

// Scanset returns the variables found along the high branch of the cube
// n, in increasing level order; it is the dual of Makeset.
func (b *BDD) Scanset(n Node) []int {
	var res []int
	for cur := n; cur != True && cur != False; cur = b.high(cur) {
		res = append(res, int(b.variable(cur)))
	}
	return res
}

// Exist computes the existential quantification of n over every variable
// in the cube varset (§4.4): result(x) = OR over the quantified variables
// of n.
func (b *BDD) Exist(n, varset Node) (Node, error) {
	return runDD(b.Engine, []Node{n, varset}, func(w *lace.Worker) (Node, error) { return b.exist(w, n, varset) })
}

func (b *BDD) exist(w *lace.Worker, n, varset Node) (Node, error) {
	if varset == True {
		return n, nil
	}
	if n.isLeaf() {
		return n, nil
	}
	if res, ok := b.Engine.cacheGet(opcodeExist, flavorBDD, uint64(n), uint64(varset), 0, 0); ok {
		return Node(res), nil
	}

	nvar := b.variable(n)
	cvar := b.variable(varset)

	// the cube hasn't reached this level yet: descend on n alone, keeping
	// varset fixed.
	if cvar > nvar {
		highTask := lace.NewTask(func(w *lace.Worker) int64 {
			r, _ := b.exist(w, b.high(n), varset)
			return int64(r)
		})
		w.Spawn(highTask)
		low, err := b.exist(w, b.low(n), varset)
		if err != nil {
			return 0, err
		}
		high := Node(w.Sync(highTask))
		res, err := b.makeBDDNode(w, nvar, low, high)
		if err != nil {
			return 0, err
		}
		b.Engine.cachePut(opcodeExist, flavorBDD, uint64(n), uint64(varset), 0, 0, uint64(res))
		return res, nil
	}

	rest := b.high(varset) // cube nodes always have the quantified level as high-only
	if cvar < nvar {
		// n's top variable isn't quantified yet either; skip ahead in the
		// cube until we catch up, which happens when the two coincide on
		// the next level down (cube is sorted by level).
		res, err := b.exist(w, n, rest)
		if err != nil {
			return 0, err
		}
		b.Engine.cachePut(opcodeExist, flavorBDD, uint64(n), uint64(varset), 0, 0, uint64(res))
		return res, nil
	}

	highTask := lace.NewTask(func(w *lace.Worker) int64 {
		r, _ := b.exist(w, b.high(n), rest)
		return int64(r)
	})
	w.Spawn(highTask)
	low, err := b.exist(w, b.low(n), rest)
	if err != nil {
		return 0, err
	}
	high := Node(w.Sync(highTask))
	res, err := b.apply(w, low, high, OpOr)
	if err != nil {
		return 0, err
	}
	b.Engine.cachePut(opcodeExist, flavorBDD, uint64(n), uint64(varset), 0, 0, uint64(res))
	return res, nil
}

// Forall computes the universal quantification of n over varset:
// !Exist(!n, varset).
func (b *BDD) Forall(n, varset Node) (Node, error) {
	neg, err := b.Not(n)
	if err != nil {
		return 0, err
	}
	ex, err := b.Exist(neg, varset)
	if err != nil {
		return 0, err
	}
	return b.Not(ex)
}

// AppEx applies op to n1 and n2, then existentially quantifies the result
// over varset, computing it in one descent rather than materializing the
// intermediate Apply result (§4.4, "relational composition"). Only
// OpAnd..OpNand are legal, matching rudd's AppEx restriction.
func (b *BDD) AppEx(n1, n2 Node, op Operator, varset Node) (Node, error) {
	return runDD(b.Engine, []Node{n1, n2, varset}, func(w *lace.Worker) (Node, error) { return b.appex(w, n1, n2, op, varset) })
}

func (b *BDD) appex(w *lace.Worker, n1, n2 Node, op Operator, varset Node) (Node, error) {
	if varset == True {
		return b.apply(w, n1, n2, op)
	}
	if n1.isLeaf() && n2.isLeaf() {
		v, err := b.apply(w, n1, n2, op)
		if err != nil {
			return 0, err
		}
		return b.exist(w, v, varset)
	}
	if res, ok := b.Engine.cacheGet(opcodeAppEx, flavorBDD, uint64(op), uint64(n1), uint64(n2), uint64(varset)); ok {
		return Node(res), nil
	}

	v1, v2 := b.topVar(n1), b.topVar(n2)
	variable := v1
	if v2 < variable {
		variable = v2
	}
	l1, h1 := b.branch(n1, v1, variable)
	l2, h2 := b.branch(n2, v2, variable)

	cvar := b.topVar(varset)
	var rest Node
	quantified := cvar == variable
	if quantified {
		rest = b.high(varset)
	} else {
		rest = varset
	}

	highTask := lace.NewTask(func(w *lace.Worker) int64 {
		r, _ := b.appex(w, h1, h2, op, rest)
		return int64(r)
	})
	w.Spawn(highTask)
	low, err := b.appex(w, l1, l2, op, rest)
	if err != nil {
		return 0, err
	}
	high := Node(w.Sync(highTask))

	var res Node
	if quantified {
		res, err = b.apply(w, low, high, OpOr)
	} else {
		res, err = b.makeBDDNode(w, variable, low, high)
	}
	if err != nil {
		return 0, err
	}
	b.Engine.cachePut(opcodeAppEx, flavorBDD, uint64(op), uint64(n1), uint64(n2), uint64(varset), uint64(res))
	return res, nil
}

// AndExist returns the relational composition of n1 and n2 with respect
// to varset: Exist(varset, n1 & n2).
func (b *BDD) AndExist(n1, n2, varset Node) (Node, error) {
	return b.AppEx(n1, n2, OpAnd, varset)
}

// Project restricts n to the domain dom, existentially quantifying out
// every declared variable not present in dom's cube (§6.1's project(dd,
// dom)): Project(n, dom) == Exist(n, Makeset(complement of dom)).
func (b *BDD) Project(n, dom Node) (Node, error) {
	kept := make(map[int]bool)
	for _, v := range b.Scanset(dom) {
		kept[v] = true
	}
	var drop []int
	for v := 0; v < int(b.Engine.Varnum()); v++ {
		if !kept[v] {
			drop = append(drop, v)
		}
	}
	varset, err := b.Makeset(drop)
	if err != nil {
		return 0, err
	}
	return b.Exist(n, varset)
}
