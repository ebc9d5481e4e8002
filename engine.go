// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/dalzilio-labs/ddforge/lace"
)

// flavor tags distinguish the four DD kinds. The operation cache folds the
// tag into every opcode, so flavors never share memo entries; the unique
// table only mixes it into the probe hash and matches slots on their packed
// words alone.
const (
	flavorBDD uint64 = iota
	flavorMTBDD
	flavorZDD
	flavorTBDD
)

// Engine is the shared core every DD flavor is built on (§3, §4): one node
// store, one operation cache, one lace.Runtime, and the bookkeeping needed
// to grow the store and run cooperative GC when it fills up. Callers
// normally don't construct an Engine directly; they call NewBDD, NewMTBDD,
// NewZDD, or NewTBDD, each of which wraps an Engine with flavor-specific
// makenode/apply semantics.
type Engine struct {
	cfg *configs

	store  nodeStore
	cache  *opcache
	refs   *refSet
	gc     *gcCoordinator
	rt     *lace.Runtime
	leaves *leafTable

	varnum int32
	log    *zap.Logger
}

// newEngine builds the shared machinery: node store, operation cache,
// reference set, GC coordinator, and a started lace.Runtime. It is called
// once by each flavor constructor (NewBDD et al.), which is why it is
// unexported — an Engine on its own has no makenode rule.
func newEngine(varnum int, options ...func(*configs)) (*Engine, error) {
	cfg := makeconfigs(varnum)
	for _, opt := range options {
		opt(cfg)
	}

	e := &Engine{
		cfg:    cfg,
		store:  newNodeStore(cfg.backend, uint64(cfg.nodesize), maxCapacityFromConfig(cfg), uint64(cfg.maxnodeincrease)),
		cache:  newOpcache(uint64(cfg.cachesize)),
		refs:   newRefSet(),
		leaves: newLeafTable(),
		varnum: int32(varnum),
		log:    cfg.log,
	}
	e.gc = newGCCoordinator(e)
	e.rt = lace.NewRuntime(cfg.workers, cfg.log)
	e.rt.SetGCHandler(e.gc.phase)
	e.rt.Start()
	return e, nil
}

// maxCapacityFromConfig derives the node store's growth ceiling from
// whichever of Maxnodesize (an explicit slot count) and NodeTableBytes (a
// byte budget converted to a slot count) is tighter; zero means unbounded.
func maxCapacityFromConfig(cfg *configs) uint64 {
	var capFromBytes uint64
	if cfg.nodeTableBytes > 0 {
		capFromBytes = cfg.nodeTableBytes / uint64(unsafe.Sizeof(packedNode{}))
	}
	capFromCount := uint64(cfg.maxnodesize)
	if capFromCount == 0 {
		return capFromBytes
	}
	if capFromBytes == 0 || capFromCount < capFromBytes {
		return capFromCount
	}
	return capFromBytes
}

// Close stops the worker pool. An Engine must not be used afterward.
func (e *Engine) Close() {
	e.rt.Stop()
}

// Varnum returns the number of declared variables.
func (e *Engine) Varnum() int32 { return e.varnum }

// Workers returns the number of lace workers backing this engine.
func (e *Engine) Workers() int { return e.rt.NWorkers() }

// Backend reports which node-store implementation is in use.
func (e *Engine) Backend() Backend { return e.cfg.backend }

// makenode is the single entry point every flavor's per-flavor makenode
// funnels through once it has decided, per its own reduction rule, that a
// genuine internal node (rather than a pass-through to low or high) is
// needed. It performs the unique-table lookup/insert and retries through a
// GC cycle if the store reports errTableFull, matching rudd's retnode:
// "look up or create, and if creation fails, collect and try again once".
// w must be the worker actually executing the caller's recursion (not
// necessarily worker 0): makenode may run from inside a stolen sub-task, and
// the GC rendezvous below has to be attributed to whichever worker is really
// calling it.
func (e *Engine) makenode(w *lace.Worker, flavor uint64, variable int32, low, high Node, tag uint32) (Node, error) {
	pn := makePackedNode(variable, low, high, tag)
	idx, err := e.store.insertOrFind(pn.word0, pn.word1, flavor)
	if err == nil {
		return internalNode(idx).withTag(tag), nil
	}
	if err != errTableFull {
		return 0, opError("makenode", err)
	}

	e.gc.request()
	// the recursive operations never yield on their own, so the rendezvous
	// is entered directly here: the GC handler runs synchronously inside
	// Yield before the insert is retried.
	e.rt.Yield(w)

	idx, err = e.store.insertOrFind(pn.word0, pn.word1, flavor)
	if err == nil {
		return internalNode(idx).withTag(tag), nil
	}
	if e.store.atMaxCapacity() {
		return 0, opError("makenode", errMemory)
	}
	return 0, opError("makenode", fmt.Errorf("%w: table still full after gc", errTableFull))
}

// cacheGet/cachePut wrap opcache with the flavor tag folded into the
// opcode so flavors never share memo entries.
func (e *Engine) cacheGet(opcode uint64, flavor uint64, a, b, c, d uint64) (uint64, bool) {
	return e.cache.get(opcode<<8|flavor, a, b, c, d)
}

func (e *Engine) cachePut(opcode uint64, flavor uint64, a, b, c, d, result uint64) {
	e.cache.put(opcode<<8|flavor, a, b, c, d, result)
}

// CacheStats reports the operation cache's hit/miss counters.
func (e *Engine) CacheStats() CacheStats { return e.cache.stats() }

// NodeCount reports the number of live nodes as of the last GC cycle.
func (e *Engine) NodeCount() uint64 { return e.store.liveCount() }

// Capacity reports the node store's total slot count.
func (e *Engine) Capacity() uint64 { return e.store.capacity() }
