// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestZDD(t *testing.T, varnum int, opts ...func(*configs)) *ZDD {
	t.Helper()
	z, err := NewZDD(varnum, opts...)
	require.NoError(t, err)
	t.Cleanup(z.Close)
	return z
}

func TestZDDUnionIdempotent(t *testing.T) {
	z := newTestZDD(t, 3)
	a := z.Ithvar(0)

	r, err := z.Union(a, a)
	require.NoError(t, err)
	require.Equal(t, a, r)
}

func TestZDDUnionInterDiff(t *testing.T) {
	z := newTestZDD(t, 3)
	a, b := z.Ithvar(0), z.Ithvar(1)

	u, err := z.Union(a, b)
	require.NoError(t, err)

	i, err := z.Inter(u, a)
	require.NoError(t, err)
	require.Equal(t, a, i)

	d, err := z.Diff(u, a)
	require.NoError(t, err)
	require.Equal(t, b, d)
}

func TestZDDEmptyAndBase(t *testing.T) {
	z := newTestZDD(t, 2)
	require.Equal(t, False, z.Empty())
	require.Equal(t, True, z.Base())

	a := z.Ithvar(0)
	u, err := z.Union(a, z.Empty())
	require.NoError(t, err)
	require.Equal(t, a, u)

	i, err := z.Inter(a, z.Empty())
	require.NoError(t, err)
	require.Equal(t, z.Empty(), i)
}
