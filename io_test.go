// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDumpLoadRoundTrip(t *testing.T) {
	b := newTestBDD(t, 4)

	x0, x1, x2 := b.Ithvar(0), b.Ithvar(1), b.Ithvar(2)
	and01, err := b.Apply(x0, x1, OpAnd)
	require.NoError(t, err)
	f, err := b.Apply(and01, x2, OpXor)
	require.NoError(t, err)
	nf, err := b.Not(f)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, b.Dump(&buf, f, nf))

	fresh := newTestBDD(t, 4)
	roots, err := fresh.Load(&buf)
	require.NoError(t, err)
	require.Len(t, roots, 2)

	require.Equal(t, b.Satcount(f).String(), fresh.Satcount(roots[0]).String())

	// nf must be the logical negation of the reloaded f: their conjunction
	// is empty and their disjunction is the whole space.
	conj, err := fresh.Apply(roots[0], roots[1], OpAnd)
	require.NoError(t, err)
	require.Equal(t, False, conj)
	disj, err := fresh.Apply(roots[0], roots[1], OpOr)
	require.NoError(t, err)
	require.Equal(t, True, disj)
}

func TestDumpLoadSharesStructure(t *testing.T) {
	b := newTestBDD(t, 3)
	x0, x1 := b.Ithvar(0), b.Ithvar(1)
	f, err := b.Apply(x0, x1, OpAnd)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, b.Dump(&buf, f))

	fresh := newTestBDD(t, 3)
	roots, err := fresh.Load(&buf)
	require.NoError(t, err)

	want, err := fresh.Apply(fresh.Ithvar(0), fresh.Ithvar(1), OpAnd)
	require.NoError(t, err)
	require.Equal(t, want, roots[0])
}
