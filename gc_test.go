// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGCReclaimsUnprotectedNodes builds far more distinct BDDs than the
// node store's configured capacity, forcing at least one GC cycle through
// makenode's table-full retry path, and checks that the permanently
// protected variable nodes and the final, still-referenced result both
// survive while the engine keeps producing correct results afterward.
func TestGCReclaimsUnprotectedNodes(t *testing.T) {
	b := newTestBDD(t, 4, Nodesize(8), Workers(2))

	var last Node
	for _, op := range []Operator{OpAnd, OpOr, OpXor} {
		for i := 0; i < 4; i++ {
			for j := i + 1; j < 4; j++ {
				r, err := b.Apply(b.Ithvar(i), b.Ithvar(j), op)
				require.NoError(t, err)
				last = r
			}
		}
	}

	require.NotZero(t, len(b.GCStats()), "expected at least one GC cycle")

	// the permanent variable nodes must have survived every intervening
	// GC cycle.
	for i := 0; i < 4; i++ {
		require.Equal(t, int32(i), b.Var(b.Ithvar(i)))
	}

	// the engine is still usable, and the very last computed result must
	// still be valid (whether or not it happened to be swept, makenode's
	// content-addressing means recomputing it returns an equal handle).
	recomputed, err := b.Apply(b.Ithvar(2), b.Ithvar(3), OpXor)
	require.NoError(t, err)
	require.Equal(t, last, recomputed)
}

// TestTableGrowsUnderSustainedOccupancy drives enough distinct, permanently
// protected BDDs through a small table that every GC cycle still finds it
// over the configured Minfreenodes threshold, and checks that at least one
// cycle reports Resized and that the table's reported capacity actually
// grew, rather than the allocator just cycling through the same slots.
func TestTableGrowsUnderSustainedOccupancy(t *testing.T) {
	b := newTestBDD(t, 6, Nodesize(8), Workers(2), Minfreenodes(50))

	initial := b.store.capacity()

	protected := make([]Node, 0, 64)
	for _, op := range []Operator{OpAnd, OpOr, OpXor, OpNand} {
		for i := 0; i < 6; i++ {
			for j := i + 1; j < 6; j++ {
				r, err := b.Apply(b.Ithvar(i), b.Ithvar(j), op)
				require.NoError(t, err)
				protected = append(protected, b.Protect(r))
			}
		}
	}

	var resized bool
	for _, stat := range b.GCStats() {
		if stat.Resized {
			resized = true
		}
	}
	require.True(t, resized, "expected sustained occupancy to trigger at least one resize")
	require.Greater(t, b.store.capacity(), initial)

	// every previously protected handle must still resolve to a slot of the
	// grown table: growth must never relocate a slot already handed out.
	for _, n := range protected {
		require.NotPanics(t, func() { _ = b.Var(n) })
	}
}

// TestMaxnodesizeSurfacesErrMemory checks that once the table has grown up
// to its configured Maxnodesize ceiling, a table-full that survives a GC
// cycle is reported as ErrMemory rather than the generic ErrTableFull, so a
// caller can tell "configured not to grow any further" apart from a
// transient allocation failure.
func TestMaxnodesizeSurfacesErrMemory(t *testing.T) {
	b := newTestBDD(t, 6, Nodesize(8), Maxnodesize(8), Maxnodeincrease(0), Workers(1))

	var lastErr error
	for _, op := range []Operator{OpAnd, OpOr, OpXor, OpNand, OpNor, OpImp, OpBiimp} {
		for i := 0; i < 6; i++ {
			for j := i + 1; j < 6; j++ {
				if _, err := b.Apply(b.Ithvar(i), b.Ithvar(j), op); err != nil {
					lastErr = err
				}
			}
		}
	}

	require.Error(t, lastErr)
	require.ErrorIs(t, lastErr, ErrMemory)
}

func TestPostGCHookObservesCycle(t *testing.T) {
	b := newTestBDD(t, 4, Nodesize(8))

	var cycles int
	b.OnPostGC(func(stat GCStats) {
		cycles++
		require.GreaterOrEqual(t, stat.LiveNodes, uint64(1))
	})

	for _, op := range []Operator{OpAnd, OpOr, OpXor, OpNand, OpNor} {
		for i := 0; i < 4; i++ {
			for j := i + 1; j < 4; j++ {
				_, err := b.Apply(b.Ithvar(i), b.Ithvar(j), op)
				require.NoError(t, err)
			}
		}
	}

	require.Greater(t, cycles, 0)
}
