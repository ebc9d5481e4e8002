// Copyright (c) 2024 ddforge authors
//
// MIT License

/*
Package dd implements the shared core of a parallel decision-diagram engine:
a lock-free unique node table, a lock-free operation cache, and the
recursive algorithms (apply/ite, quantification, relational product,
satisfaction counting, support, enumeration) that operate over them.

Four diagram flavors are built on the same Engine type, a node store plus an
operation cache:

  - BDD, ordinary binary decision diagrams, whose makenode never stores a
    complement mark on the low edge (it is moved up to the parent);
  - MTBDD, multi-terminal BDDs whose leaves carry an integer, a double, a
    fraction, or a user-registered custom payload;
  - ZDD, zero-suppressed BDDs, whose makenode rule skips nodes whose high
    branch is the empty set;
  - TBDD, tagged BDDs, which generalize both reduction rules behind a
    per-edge tag.

Each flavor is a thin makenode/apply layer over an Engine. Every flavor
constructor (NewBDD, NewMTBDD, NewZDD, NewTBDD) builds an Engine of its own,
so two flavor values do not share a node store or a cache, and conversions
between flavors rebuild the diagram node by node rather than reinterpreting
a handle.

Concurrency

Every recursive DD operation runs as a github.com/dalzilio-labs/ddforge/lace
Task, spawned across a fixed worker pool. The node table and operation cache
are built from atomic compare-and-swap loops rather than locks, so workers
publish and discover shared nodes without blocking each other; only garbage
collection stops the world, via a lace.Barrier rendezvous.

Because nothing here relies on the Go garbage collector to decide when a DD
node is reclaimable, callers must use Protect and Unprotect (or keep a Node
live through an in-flight Task's Refs) to tell the collector which handles
are still roots.

Origins

The functional-options configuration style, the one-makenode-per-flavor
convention, and the Replacer-based composition mechanism are adapted from
github.com/dalzilio/rudd, a single-threaded, GC-backed BDD library. The node
store, operation cache, and task runtime have been rebuilt from scratch as
lock-free, multi-threaded structures; they no longer depend on the host
runtime's garbage collector for correctness.
*/
package dd
