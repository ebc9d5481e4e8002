// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestMTBDD(t *testing.T, varnum int, opts ...func(*configs)) *MTBDD {
	t.Helper()
	m, err := NewMTBDD(varnum, opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestMTBDDIntLeavesShareHandle(t *testing.T) {
	m := newTestMTBDD(t, 2)
	a, err := m.Int(7)
	require.NoError(t, err)
	b, err := m.Int(7)
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := m.Int(8)
	require.NoError(t, err)
	require.NotEqual(t, a, c)
}

func TestMTBDDApplyIntAdd(t *testing.T) {
	m := newTestMTBDD(t, 1)
	ten, err := m.Int(10)
	require.NoError(t, err)
	five, err := m.Int(5)
	require.NoError(t, err)

	sum, err := m.ApplyInt(ten, five, func(x, y int64) int64 { return x + y })
	require.NoError(t, err)
	require.Equal(t, int64(15), m.LeafValue(sum))
}

func TestMTBDDFractionLeaf(t *testing.T) {
	m := newTestMTBDD(t, 1)
	half, err := m.Fraction(1, 2)
	require.NoError(t, err)
	require.Equal(t, [2]int64{1, 2}, m.LeafValue(half))
}

func TestMTBDDZDDRoundTrip(t *testing.T) {
	m := newTestMTBDD(t, 2)
	z := newTestZDD(t, 2)

	x0 := m.Ithvar(0)

	asZDD, err := m.ToZDD(z, x0)
	require.NoError(t, err)
	require.Equal(t, z.Ithvar(0), asZDD)

	back, err := m.FromZDD(z, asZDD)
	require.NoError(t, err)
	require.Equal(t, x0, back)
}
