// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Variables 0,1 are the current state, 2,3 its primed successor: x2 <-> !x0,
// x3 <-> x1 (var0 flips, var1 is carried over unchanged).
func buildTransition(t *testing.T, b *BDD) Node {
	t.Helper()
	nx0, err := b.Not(b.Ithvar(0))
	require.NoError(t, err)
	left, err := b.Apply(b.Ithvar(2), nx0, OpBiimp)
	require.NoError(t, err)
	right, err := b.Apply(b.Ithvar(3), b.Ithvar(1), OpBiimp)
	require.NoError(t, err)
	rel, err := b.Apply(left, right, OpAnd)
	require.NoError(t, err)
	return rel
}

func TestRelNextComputesImage(t *testing.T) {
	b := newTestBDD(t, 4)
	rel := buildTransition(t, b)

	nx1, err := b.Not(b.Ithvar(1))
	require.NoError(t, err)
	state, err := b.Apply(b.Ithvar(0), nx1, OpAnd) // x0=1, x1=0
	require.NoError(t, err)

	varset, err := b.Makeset([]int{0, 1})
	require.NoError(t, err)

	image, err := b.RelNext(state, rel, varset)
	require.NoError(t, err)

	nx2, err := b.Not(b.Ithvar(2))
	require.NoError(t, err)
	nx3, err := b.Not(b.Ithvar(3))
	require.NoError(t, err)
	want, err := b.Apply(nx2, nx3, OpAnd) // x2=0, x3=0
	require.NoError(t, err)

	require.Equal(t, want, image)
}

func TestRelPrevMatchesAndExistThenReplace(t *testing.T) {
	b := newTestBDD(t, 4)
	rel := buildTransition(t, b)
	state := b.Ithvar(2)
	varset, err := b.Makeset([]int{0, 1})
	require.NoError(t, err)

	swap, err := b.NewReplacer([]int{0, 1}, []int{2, 3})
	require.NoError(t, err)

	got, err := b.RelPrev(state, rel, varset, swap)
	require.NoError(t, err)

	img, err := b.AndExist(state, rel, varset)
	require.NoError(t, err)
	want, err := b.Replace(img, swap)
	require.NoError(t, err)

	require.Equal(t, want, got)
}
