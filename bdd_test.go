// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBDD(t *testing.T, varnum int, opts ...func(*configs)) *BDD {
	t.Helper()
	b, err := NewBDD(varnum, opts...)
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func TestBDDIthvarNIthvar(t *testing.T) {
	b := newTestBDD(t, 3)
	x0 := b.Ithvar(0)
	nx0, err := b.NIthvar(0)
	require.NoError(t, err)

	not0, err := b.Not(x0)
	require.NoError(t, err)
	require.Equal(t, not0, nx0)
}

func TestBDDNotInvolution(t *testing.T) {
	b := newTestBDD(t, 4)
	n, err := b.Apply(b.Ithvar(0), b.Ithvar(1), OpXor)
	require.NoError(t, err)

	once, err := b.Not(n)
	require.NoError(t, err)
	twice, err := b.Not(once)
	require.NoError(t, err)
	require.Equal(t, n, twice)
}

func TestBDDApplyDeMorgan(t *testing.T) {
	b := newTestBDD(t, 2)
	x0, x1 := b.Ithvar(0), b.Ithvar(1)

	and, err := b.Apply(x0, x1, OpAnd)
	require.NoError(t, err)
	notAnd, err := b.Not(and)
	require.NoError(t, err)

	nx0, err := b.Not(x0)
	require.NoError(t, err)
	nx1, err := b.Not(x1)
	require.NoError(t, err)
	orNot, err := b.Apply(nx0, nx1, OpOr)
	require.NoError(t, err)

	require.Equal(t, notAnd, orNot)
}

func TestBDDIteMatchesApply(t *testing.T) {
	b := newTestBDD(t, 3)
	f, g, h := b.Ithvar(0), b.Ithvar(1), b.Ithvar(2)

	ite, err := b.Ite(f, g, h)
	require.NoError(t, err)

	fg, err := b.Apply(f, g, OpAnd)
	require.NoError(t, err)
	nf, err := b.Not(f)
	require.NoError(t, err)
	nfh, err := b.Apply(nf, h, OpAnd)
	require.NoError(t, err)
	want, err := b.Apply(fg, nfh, OpOr)
	require.NoError(t, err)

	require.Equal(t, want, ite)
}

func TestBDDSatcount(t *testing.T) {
	b := newTestBDD(t, 3)
	n, err := b.Apply(b.Ithvar(0), b.Ithvar(1), OpAnd)
	require.NoError(t, err)

	// x2 is unconstrained, so both its values satisfy once x0=x1=1.
	require.Equal(t, big.NewInt(2), b.Satcount(n))
}

func TestBDDSupportRoundTrip(t *testing.T) {
	b := newTestBDD(t, 4)
	n, err := b.Apply(b.Ithvar(0), b.Ithvar(2), OpAnd)
	require.NoError(t, err)

	cube, err := b.Support(n)
	require.NoError(t, err)
	require.Equal(t, []int{0, 2}, b.Scanset(cube))
}

func TestBDDAllsatCoversEveryAssignment(t *testing.T) {
	b := newTestBDD(t, 2)
	n, err := b.Apply(b.Ithvar(0), b.Ithvar(1), OpXor)
	require.NoError(t, err)

	var profiles [][]int
	err = b.Allsat(n, func(p []int) error {
		profiles = append(profiles, append([]int(nil), p...))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, profiles, 2)
}

func TestBDDVarLowHighIsLeaf(t *testing.T) {
	b := newTestBDD(t, 2)
	n, err := b.Apply(b.Ithvar(0), b.Ithvar(1), OpAnd)
	require.NoError(t, err)

	require.False(t, n.IsLeaf())
	require.Equal(t, int32(0), b.Var(n))
	require.True(t, b.Low(n).IsLeaf())
	require.Equal(t, False, b.Low(n))
	require.Equal(t, b.Ithvar(1), b.High(n))
}
