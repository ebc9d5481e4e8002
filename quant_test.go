// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakesetScansetRoundTrip(t *testing.T) {
	b := newTestBDD(t, 5)
	cube, err := b.Makeset([]int{1, 3, 4})
	require.NoError(t, err)
	require.Equal(t, []int{1, 3, 4}, b.Scanset(cube))
}

func TestExistQuantifiesOutVariable(t *testing.T) {
	b := newTestBDD(t, 2)
	n, err := b.Apply(b.Ithvar(0), b.Ithvar(1), OpAnd)
	require.NoError(t, err)

	cube, err := b.Makeset([]int{0})
	require.NoError(t, err)

	r, err := b.Exist(n, cube)
	require.NoError(t, err)
	require.Equal(t, b.Ithvar(1), r)
}

func TestForallIsDualOfExist(t *testing.T) {
	b := newTestBDD(t, 2)
	n, err := b.Apply(b.Ithvar(0), b.Ithvar(1), OpOr)
	require.NoError(t, err)

	cube, err := b.Makeset([]int{0})
	require.NoError(t, err)

	r, err := b.Forall(n, cube)
	require.NoError(t, err)
	// forall x0. (x0 | x1) is true only when x1 is true regardless of x0
	require.Equal(t, b.Ithvar(1), r)
}

func TestAppExMatchesApplyThenExist(t *testing.T) {
	b := newTestBDD(t, 3)
	n1, err := b.Apply(b.Ithvar(0), b.Ithvar(1), OpAnd)
	require.NoError(t, err)
	n2 := b.Ithvar(2)

	cube, err := b.Makeset([]int{0})
	require.NoError(t, err)

	direct, err := b.AppEx(n1, n2, OpAnd, cube)
	require.NoError(t, err)

	applied, err := b.Apply(n1, n2, OpAnd)
	require.NoError(t, err)
	want, err := b.Exist(applied, cube)
	require.NoError(t, err)

	require.Equal(t, want, direct)
}

func TestProjectKeepsOnlyDomainVariables(t *testing.T) {
	b := newTestBDD(t, 3)
	n, err := b.Apply(b.Ithvar(0), b.Ithvar(1), OpAnd)
	require.NoError(t, err)
	n, err = b.Apply(n, b.Ithvar(2), OpOr)
	require.NoError(t, err)

	dom, err := b.Makeset([]int{0, 1})
	require.NoError(t, err)

	got, err := b.Project(n, dom)
	require.NoError(t, err)

	cube, err := b.Makeset([]int{2})
	require.NoError(t, err)
	want, err := b.Exist(n, cube)
	require.NoError(t, err)

	require.Equal(t, want, got)
}
