// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"runtime"

	"github.com/pbnjay/memory"
	"go.uber.org/zap"
	_ "go.uber.org/automaxprocs" // adjusts GOMAXPROCS to the container cgroup quota on import
)

// Backend selects the concrete implementation of the unique node table.
type Backend int

const (
	// BackendOpenAddressed stores nodes in fixed-size segments probed with
	// open addressing and CAS-based insertion (§4.2, "open-addressed
	// variant"), appending a segment when the table grows. It is the default: fewer cache lines touched per probe.
	BackendOpenAddressed Backend = iota

	// BackendTrieChained stores nodes in a flat array linked through a
	// "next" index per hash bucket (§4.2, "trie-chained variant"),
	// trading probe locality for stable bucket chains under heavy
	// collision.
	BackendTrieChained
)

func (b Backend) String() string {
	switch b {
	case BackendTrieChained:
		return "trie-chained"
	default:
		return "open-addressed"
	}
}

// minfreenodes, defaultmaxnodeinc mirror the defaults of rudd's configs,
// carried over unchanged since the resize heuristics they drive are
// unaffected by the move to a lock-free table.
const (
	_MINFREENODES      int = 20
	_DEFAULTMAXNODEINC int = 1 << 20
)

// configs holds every tunable of an Engine. It is built by newEngine from
// makeconfigs' defaults and a sequence of functional options, the same pattern rudd's configs/New use.
type configs struct {
	varnum          int
	nodesize        int
	cachesize       int
	cacheratio      int
	maxnodesize     int
	maxnodeincrease int
	minfreenodes    int

	workers        int
	nodeTableBytes uint64
	cacheBytes     uint64
	backend        Backend
	statsEnabled   bool
	log            *zap.Logger
}

func makeconfigs(varnum int) *configs {
	c := &configs{varnum: varnum}
	c.minfreenodes = _MINFREENODES
	c.maxnodeincrease = _DEFAULTMAXNODEINC
	// enough slots to cover both constants and every declared variable
	c.nodesize = 2*varnum + 2
	c.cachesize = 10000
	c.workers = runtime.GOMAXPROCS(0)
	c.nodeTableBytes = memory.TotalMemory() / 8
	c.backend = BackendOpenAddressed
	c.log = zap.NewNop()
	return c
}

// Nodesize sets a preferred initial size for the node table. By default the
// table is sized to hold the two constants and the declared variables.
func Nodesize(size int) func(*configs) {
	return func(c *configs) {
		if size >= 2*c.varnum+2 {
			c.nodesize = size
		}
	}
}

// Maxnodesize caps the number of nodes the store may hold. Zero (the
// default) means no limit other than the configured memory budget.
func Maxnodesize(size int) func(*configs) {
	return func(c *configs) { c.maxnodesize = size }
}

// Maxnodeincrease caps how many nodes a single resize may add. Zero removes
// the cap.
func Maxnodeincrease(size int) func(*configs) {
	return func(c *configs) { c.maxnodeincrease = size }
}

// Minfreenodes sets the percentage of free nodes that must remain after a
// GC pass before a resize is triggered instead.
func Minfreenodes(ratio int) func(*configs) {
	return func(c *configs) { c.minfreenodes = ratio }
}

// Cachesize sets the initial number of entries in the operation cache.
func Cachesize(size int) func(*configs) {
	return func(c *configs) { c.cachesize = size }
}

// Cacheratio sets the number of cache entries maintained per 100 node-store
// slots; the cache then grows alongside the node store on every resize.
func Cacheratio(ratio int) func(*configs) {
	return func(c *configs) { c.cacheratio = ratio }
}

// Workers sets the number of lace workers in the task runtime. The default
// is runtime.GOMAXPROCS(0), adjusted for cgroup quotas via automaxprocs.
func Workers(n int) func(*configs) {
	return func(c *configs) {
		if n > 0 {
			c.workers = n
		}
	}
}

// NodeTableBytes bounds the total memory the node store may occupy. The
// default is an eighth of total system memory, as reported by
// github.com/pbnjay/memory.
func NodeTableBytes(n uint64) func(*configs) {
	return func(c *configs) {
		if n > 0 {
			c.nodeTableBytes = n
		}
	}
}

// CacheBytes bounds the total memory the operation cache may occupy,
// independent of Cachesize/Cacheratio growth.
func CacheBytes(n uint64) func(*configs) {
	return func(c *configs) { c.cacheBytes = n }
}

// WithBackend selects the node table implementation (§4.2).
func WithBackend(b Backend) func(*configs) {
	return func(c *configs) { c.backend = b }
}

// Stats records in the configuration whether statistics are wanted
// (disabled by default). Nothing else reads the setting: the operation
// cache maintains its hit/miss counters, with atomic increments on every
// probe, whether or not it is enabled.
func Stats(enabled bool) func(*configs) {
	return func(c *configs) { c.statsEnabled = enabled }
}

// Logger installs a zap.Logger used for structured diagnostics (GC cycles
// and whether they resized the table, GC barrier failures). The default is
// a no-op logger.
func Logger(log *zap.Logger) func(*configs) {
	return func(c *configs) {
		if log != nil {
			c.log = log
		}
	}
}
