// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import "math/big"

// Satcount returns, as an arbitrary-precision integer, the number of
// variable assignments over [0, Varnum) that satisfy n (§4.4). The
// recursion memoizes per-node counts in a private map rather than the
// shared operation cache, since big.Int results don't fit a uint64 cache
// slot; concurrent Satcount calls each get their own map.
func (b *BDD) Satcount(n Node) *big.Int {
	res := big.NewInt(0)
	if n == False {
		return res
	}
	res.SetBit(res, int(b.topVar(n)), 1)
	memo := make(map[Node]*big.Int)
	return res.Mul(res, b.satcount(n, memo))
}

func (b *BDD) satcount(n Node, memo map[Node]*big.Int) *big.Int {
	if n == False {
		return big.NewInt(0)
	}
	if n == True {
		return big.NewInt(1)
	}
	if v, ok := memo[n]; ok {
		return v
	}
	level := b.variable(n)
	low, high := b.low(n), b.high(n)

	res := big.NewInt(0)
	gapLow := big.NewInt(0)
	gapLow.SetBit(gapLow, int(b.topVar(low)-level-1), 1)
	res.Add(res, gapLow.Mul(gapLow, b.satcount(low, memo)))

	gapHigh := big.NewInt(0)
	gapHigh.SetBit(gapHigh, int(b.topVar(high)-level-1), 1)
	res.Add(res, gapHigh.Mul(gapHigh, b.satcount(high, memo)))

	memo[n] = res
	return res
}

// Pathcount returns the number of distinct root-to-True paths in n's DAG,
// ignoring the "don't care" multiplicities Satcount accounts for — the
// supplement original_source's sylvan_mtbdd.h exposes alongside satcount
// for callers who want raw path counts rather than assignment counts.
func (b *BDD) Pathcount(n Node) *big.Int {
	memo := make(map[Node]*big.Int)
	return b.pathcount(n, memo)
}

func (b *BDD) pathcount(n Node, memo map[Node]*big.Int) *big.Int {
	if n == False {
		return big.NewInt(0)
	}
	if n == True {
		return big.NewInt(1)
	}
	if v, ok := memo[n]; ok {
		return v
	}
	res := new(big.Int).Add(b.pathcount(b.low(n), memo), b.pathcount(b.high(n), memo))
	memo[n] = res
	return res
}
