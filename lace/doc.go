// Copyright (c) 2024 ddforge authors
//
// MIT License

/*
Package lace implements a small fork/join task runtime modeled on the Lace
work-stealing scheduler used by the Sylvan decision-diagram library. It is
the engine that lets the dd package run recursive apply/ite/quantification
algorithms in parallel across a fixed pool of OS threads.

Workers

A Runtime owns a fixed number of Workers, each pinned to its own goroutine.
Every Worker keeps a bounded, cache-line padded Deque of Tasks. Spawn pushes
a Task onto the tail of the calling worker's Deque; Sync either finds the
Task still sitting on the local Deque (the fast, fully-sequential path) or
waits for a thief to have executed and published its result.

Idle workers steal from a random victim's Deque head using a lock-free
compare-and-swap, so work flows from busy workers to idle ones without a
central scheduler or locks.

GC barrier

Sylvan's garbage collector is stop-the-world: every worker must reach a
rendezvous point before collection starts, and every worker must finish each
GC phase before any worker proceeds to the next. Barrier implements that
rendezvous with a golang.org/x/sync/semaphore.Weighted, the same primitive
joeycumines-go-utilpkg's tooling pulls in for bounded concurrency gates.
*/
package lace
