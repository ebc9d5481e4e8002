// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"go.uber.org/zap"

	"github.com/dalzilio-labs/ddforge/lace"
)

// GCStats mirrors rudd's gcstat/gcpoint history (gc.go): a snapshot taken
// at the end of every collection cycle, so callers can watch the table
// fill up and empty back out over time.
type GCStats struct {
	Cycle       uint64
	LiveNodes   uint64
	Capacity    uint64
	ExternalRef int
	Resized     bool // true if this cycle's post-mark occupancy triggered a table growth
}

// gc coordinates a stop-the-world collection (§4.2): clear the caches and
// mark bitmaps, walk every root (external Protect()s plus every in-flight
// task's Refs) to remark live nodes, then grow the table if post-mark
// occupancy warrants it. It is installed as the lace.Runtime's GC handler, so every worker runs
// gc.phase once per rendezvous — only worker 0's call does real work, the
// rest just wait at the second barrier.
type gcCoordinator struct {
	engine  *Engine
	log     *zap.Logger
	cycle   uint64
	history []GCStats

	preHooks  []func()
	postHooks []func(GCStats)
}

func newGCCoordinator(e *Engine) *gcCoordinator {
	return &gcCoordinator{engine: e, log: e.cfg.log}
}

// OnPreGC registers a callback run just before a collection cycle begins,
// matching sylvan.c's gc_hook_pregc. Typically used to flush or snapshot
// state that shouldn't be disturbed mid-collection.
func (e *Engine) OnPreGC(fn func()) {
	e.gc.preHooks = append(e.gc.preHooks, fn)
}

// OnPostGC registers a callback run after a collection cycle finishes,
// receiving that cycle's GCStats, matching sylvan.c's gc_hook_postgc.
func (e *Engine) OnPostGC(fn func(GCStats)) {
	e.gc.postHooks = append(e.gc.postHooks, fn)
}

// request asks the runtime to rendezvous all workers and run a collection;
// it is called by Engine.makenode when the node store's insertOrFind reports
// errTableFull (§4.2 "table full triggers GC before resize").
func (g *gcCoordinator) request() {
	g.engine.rt.RequestGC()
}

// phase runs once per worker at the GC rendezvous (lace.Runtime.Yield); we
// only want the mutating work done once, so every worker but the lowest
// ID one is a no-op here — they're just here to guarantee nobody else is
// mid-recursion while worker 0 mutates the table.
func (g *gcCoordinator) phase(w *lace.Worker) {
	if w.ID() != 0 {
		return
	}
	e := g.engine
	before := e.store.liveCount()

	for _, hook := range g.preHooks {
		hook()
	}

	e.cache.clear()
	e.store.clearMarks()

	for _, n := range e.refs.roots() {
		g.markRec(n)
	}
	for _, wk := range e.rt.Workers() {
		for _, ref := range wk.CurrentRefs() {
			g.markRec(Node(ref))
		}
	}

	// §4.2 "Resize": growth is gated on post-GC occupancy, checked once per
	// cycle right here rather than eagerly on every failed insert, and safe
	// to perform in place since every other worker is parked at the
	// rendezvous barrier that brought us here.
	resized := e.store.maybeGrow(e.cfg.minfreenodes)
	if resized && e.cfg.cacheratio > 0 {
		target := e.store.capacity() * uint64(e.cfg.cacheratio) / 100
		e.cache.resize(target, e.cfg.cacheBytes)
	}

	g.cycle++
	stat := GCStats{
		Cycle:       g.cycle,
		LiveNodes:   e.store.liveCount(),
		Capacity:    e.store.capacity(),
		ExternalRef: len(e.refs.roots()),
		Resized:     resized,
	}
	g.history = append(g.history, stat)

	for _, hook := range g.postHooks {
		hook(stat)
	}

	if g.log != nil {
		g.log.Debug("gc cycle complete",
			zap.Uint64("cycle", g.cycle),
			zap.Uint64("before", before),
			zap.Uint64("live", stat.LiveNodes),
			zap.Uint64("capacity", stat.Capacity),
			zap.Bool("resized", resized))
	}
}

// markRec recursively marks n and its descendants live. It is idempotent:
// store.mark returns false for an already-marked slot, so a DD shared by
// many roots is only walked once, and cyclic revisits (impossible in a
// DAG, but cheap to guard anyway) terminate immediately.
func (g *gcCoordinator) markRec(n Node) {
	if n.isLeaf() {
		return
	}
	idx := n.index()
	if !g.engine.store.mark(idx) {
		return
	}
	p := g.engine.store.at(idx)
	g.markRec(p.low())
	g.markRec(p.high())
}

// GCStats returns the GC cycle history accumulated so far.
func (e *Engine) GCStats() []GCStats {
	return append([]GCStats(nil), e.gc.history...)
}
