// Copyright (c) 2024 ddforge authors
//
// MIT License

package lace

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Barrier is a reusable rendezvous point used to stop the world for garbage
// collection (§4.1 "GC rendezvous", §5 "Suspension points"). n workers must
// all call Arrive before any of them returns from Arrive; the barrier then
// resets itself for the next phase.
//
// It is built on a weighted semaphore sized to n: every Arrive acquires one
// unit, and the last arrival (the one that observes the semaphore fully
// drained) releases all n units at once, waking everybody. This gives us
// the "one designated worker advances the phase" rule of §4.2's GC phases
// for free — the last arrival is, by construction, that designated worker.
type Barrier struct {
	n    int
	sem  *semaphore.Weighted
	gen  chan struct{}
	left chan int
}

// NewBarrier creates a barrier for exactly n participants.
func NewBarrier(n int) *Barrier {
	b := &Barrier{
		n:    n,
		sem:  semaphore.NewWeighted(int64(n)),
		gen:  make(chan struct{}),
		left: make(chan int, 1),
	}
	b.left <- n
	return b
}

// Arrive blocks the calling worker until all n participants have called
// Arrive for the current phase, then releases everyone together. It is
// safe to call Arrive repeatedly, once per GC phase.
func (b *Barrier) Arrive(ctx context.Context) error {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	remaining := <-b.left
	remaining--
	if remaining == 0 {
		// last arrival: wake everyone and reset for the next phase
		close(b.gen)
		b.sem.Release(int64(b.n))
		b.gen = make(chan struct{})
		b.left <- b.n
		return nil
	}
	gen := b.gen
	b.left <- remaining
	<-gen
	return nil
}
