// Copyright (c) 2024 ddforge authors
//
// MIT License

package lace

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Worker is the per-OS-thread state described in §3.5: a deque of tasks, a
// victim-selection RNG, and event counters. Worker is only ever touched by
// its own goroutine except for the Deque, which thieves also read.
type Worker struct {
	id  int
	dq  *deque
	rng *rand.Rand

	// current points at the innermost Task this worker is presently running
	// (its own or a stolen one, including while it spins in Sync); a task
	// run inline inside another restores the outer one when it finishes.
	// The GC coordinator reads CurrentRefs across every worker so a task's
	// in-progress arguments count as roots even before it has a result.
	current atomic.Pointer[Task]

	Steals    atomic.Uint64
	StealFail atomic.Uint64
	Empty     atomic.Uint64
}

// ID returns the worker's index in [0, n).
func (w *Worker) ID() int { return w.id }

// CurrentRefs returns the Refs of whatever Task this worker is currently
// executing or waiting on, or nil if it is idle.
func (w *Worker) CurrentRefs() []int64 {
	t := w.current.Load()
	if t == nil {
		return nil
	}
	return t.Refs
}

func (w *Worker) runTask(t *Task) int64 {
	prev := w.current.Load()
	w.current.Store(t)
	r := t.run(w)
	w.current.Store(prev)
	return r
}

// Spawn pushes t onto the tail of w's deque; t becomes stealable once
// pushed. Spawn never blocks.
func (w *Worker) Spawn(t *Task) {
	if !w.dq.pushBottom(t) {
		// deque is at capacity: run it inline immediately, matching the
		// "no partial results" discipline — we never silently drop work.
		w.runTask(t)
	}
}

// Sync waits for t to complete, executing it inline first if it is still
// sitting on the local deque unstolen (the serial fast path of §4.1).
func (w *Worker) Sync(t *Task) int64 {
	if got := w.dq.popBottom(); got == t {
		return w.runTask(t)
	}
	// t was stolen; spin until the thief publishes a result. DD operations
	// are short relative to a context switch, so a bounded spin dominates
	// a channel-based wait in practice; fall back to Gosched to avoid
	// burning a core when the thief is itself waiting on a deeper steal.
	for i := 0; !t.Done(); i++ {
		if i&1023 == 0 {
			runtime.Gosched()
		}
	}
	return t.Result()
}

// Runtime owns the fixed worker pool and the GC rendezvous barrier (§3.5,
// §4.1). All DD operations run through a Runtime.
type Runtime struct {
	workers []*Worker
	barrier *Barrier
	log     *zap.Logger

	running atomic.Bool
	wg      sync.WaitGroup

	// gcRequest is polled by every worker at its GC yield point (§4.6 of
	// the design notes: "the yield is the only legal place to enter the
	// node store's allocator"). gcFunc performs the actual phases once all
	// workers have rendezvoused.
	gcRequest atomic.Bool
	gcFunc    func(w *Worker)
}

// NewRuntime builds a Runtime with n workers, none of them started yet.
// log may be nil, in which case a no-op logger is used.
func NewRuntime(n int, log *zap.Logger) *Runtime {
	if n < 1 {
		n = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	rt := &Runtime{
		workers: make([]*Worker, n),
		barrier: NewBarrier(n),
		log:     log,
	}
	for i := range rt.workers {
		rt.workers[i] = &Worker{
			id:  i,
			dq:  newDeque(defaultDequeSize),
			rng: rand.New(rand.NewSource(int64(i)*2654435761 + 1)),
		}
	}
	return rt
}

// NWorkers returns the number of workers in the pool.
func (rt *Runtime) NWorkers() int { return len(rt.workers) }

// Worker returns the i'th worker, used by a caller holding a worker context
// (the Go analogue of Sylvan's thread-local worker pointer, per the design
// notes: pass it explicitly instead of hiding it behind a global).
func (rt *Runtime) Worker(i int) *Worker { return rt.workers[i] }

// Workers returns every worker in the pool, used by the GC coordinator to
// scan each one's in-flight Task for roots.
func (rt *Runtime) Workers() []*Worker { return rt.workers }

// SetGCHandler installs the function invoked, once per worker, whenever a
// cooperative GC rendezvous completes. It must itself be safe to call
// concurrently from every worker (typically by having only one worker —
// conventionally worker 0 — perform the mutating phases while the rest
// wait at the barrier a second time).
func (rt *Runtime) SetGCHandler(f func(w *Worker)) {
	rt.gcFunc = f
}

// RequestGC asks every worker to rendezvous at the next yield point. It is
// safe to call from any worker or from an external goroutine.
func (rt *Runtime) RequestGC() {
	rt.gcRequest.Store(true)
}

// Yield is the GC yield point of §4.6. Every worker's idle loop calls it on
// each pass, and the dd engine calls it when its node table is full; the
// recursive DD operations do not call it themselves. If a GC has been
// requested, the calling worker blocks here until the whole pool has
// rendezvoused and the handler has run.
func (rt *Runtime) Yield(w *Worker) {
	if !rt.gcRequest.Load() {
		return
	}
	if err := rt.barrier.Arrive(context.Background()); err != nil {
		rt.log.Error("gc barrier arrival failed", zap.Error(err))
		return
	}
	if rt.gcFunc != nil {
		rt.gcFunc(w)
	}
	if err := rt.barrier.Arrive(context.Background()); err != nil {
		rt.log.Error("gc barrier post-phase arrival failed", zap.Error(err))
		return
	}
	if w.id == 0 {
		rt.gcRequest.Store(false)
	}
}

// Start launches the worker goroutines; idle workers steal from random
// victims until Stop is called.
func (rt *Runtime) Start() {
	rt.running.Store(true)
	for _, w := range rt.workers {
		rt.wg.Add(1)
		go rt.loop(w)
	}
}

// Stop signals every worker to exit its idle-steal loop and waits for them
// to finish (§5 "Shutdown proceeds by setting more_work = false, unparking
// all workers, joining them").
func (rt *Runtime) Stop() {
	rt.running.Store(false)
	rt.wg.Wait()
}

func (rt *Runtime) loop(w *Worker) {
	defer rt.wg.Done()
	for rt.running.Load() {
		rt.Yield(w)
		victim := rt.workers[w.rng.Intn(len(rt.workers))]
		if victim == w {
			continue
		}
		t := victim.dq.popTop()
		if t == nil {
			w.Empty.Add(1)
			continue
		}
		w.runTask(t)
		w.Steals.Add(1)
	}
}

// Run starts the root task on worker 0 and blocks the caller until it
// completes (§4.1 "run(T)"). The pool must already be started via Start so
// idle workers are available to help.
func (rt *Runtime) Run(t *Task) int64 {
	w := rt.workers[0]
	w.Spawn(t)
	return w.Sync(t)
}
