// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestTBDD(t *testing.T, varnum int, opts ...func(*configs)) *TBDD {
	t.Helper()
	tb, err := NewTBDD(varnum, opts...)
	require.NoError(t, err)
	t.Cleanup(tb.Close)
	return tb
}

func TestTBDDIthvarDistinct(t *testing.T) {
	tb := newTestTBDD(t, 3)
	require.NotEqual(t, tb.Ithvar(0), tb.Ithvar(1))
	require.NotEqual(t, tb.Ithvar(1), tb.Ithvar(2))
}

func TestTBDDMakeNodeCollapsesEqualChildren(t *testing.T) {
	tb := newTestTBDD(t, 2)
	n, err := tb.makeTBDDNode(tb.Engine.rt.Worker(0), 0, True, True, tb.nextvars[0])
	require.NoError(t, err)
	require.Equal(t, True, n)
}

func TestTBDDMakeNodeAbsorbsTagAtEnd(t *testing.T) {
	tb := newTestTBDD(t, 2)
	// high == False with no further variable: the tag absorbs the level
	// rather than allocating a genuine node.
	n, err := tb.makeTBDDNode(tb.Engine.rt.Worker(0), 1, True, False, noNext)
	require.NoError(t, err)
	require.Equal(t, uint32(1), n.tag())
}
