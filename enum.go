// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import "fmt"

// Allsat iterates every satisfying assignment of n, calling f with a
// profile slice of length Varnum where each entry is 0 (false), 1 (true),
// or -1 (don't care). Iteration stops at the first error f returns
// (§4.4, rudd's Allsat).
func (b *BDD) Allsat(n Node, f func([]int) error) error {
	profile := make([]int, b.varnum)
	for i := range profile {
		profile[i] = -1
	}
	return b.allsat(n, profile, f)
}

func (b *BDD) allsat(n Node, profile []int, f func([]int) error) error {
	if n == True {
		return f(append([]int(nil), profile...))
	}
	if n == False {
		return nil
	}
	level := b.variable(n)

	if low := b.low(n); low != False {
		profile[level] = 0
		for v := b.topVar(low) - 1; v > level; v-- {
			profile[v] = -1
		}
		if err := b.allsat(low, profile, f); err != nil {
			return err
		}
	}
	if high := b.high(n); high != False {
		profile[level] = 1
		for v := b.topVar(high) - 1; v > level; v-- {
			profile[v] = -1
		}
		if err := b.allsat(high, profile, f); err != nil {
			return err
		}
	}
	profile[level] = -1
	return nil
}

// Allnodes applies f to every node reachable from the given roots, passing
// each node's index, variable level, and the indices of its low/high
// children. It returns an error when no roots are given.
// False and True are always reported with index 0 and 1.
func (b *BDD) Allnodes(f func(id, level, low, high int) error, roots ...Node) error {
	if len(roots) == 0 {
		return fmt.Errorf("dd: Allnodes: scanning every live node requires explicit roots in this engine")
	}
	seen := make(map[Node]bool)
	var walk func(Node) error
	walk = func(n Node) error {
		if n.isLeaf() || seen[n] {
			return nil
		}
		seen[n] = true
		low, high := b.low(n), b.high(n)
		if err := walk(low); err != nil {
			return err
		}
		if err := walk(high); err != nil {
			return err
		}
		return f(int(n.index()), int(b.variable(n)), int(low.index()), int(high.index()))
	}
	for _, r := range roots {
		if err := walk(r); err != nil {
			return err
		}
	}
	return nil
}
