// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

import (
	"fmt"
	"io"
	"os"
)

// Stats returns a human-readable summary of node-store occupancy, cache
// hit ratio, and GC history, matching the shape of rudd's Stats()/
// gcstats() report.
func (e *Engine) Stats() string {
	live := e.store.liveCount()
	capacity := e.store.capacity()
	used := float64(live) / float64(capacity) * 100
	res := fmt.Sprintf("Varnum:     %d\n", e.varnum)
	res += fmt.Sprintf("Workers:    %d\n", e.rt.NWorkers())
	res += fmt.Sprintf("Backend:    %s\n", e.cfg.backend)
	res += fmt.Sprintf("Capacity:   %d\n", capacity)
	res += fmt.Sprintf("Live nodes: %d  (%.3g %%)\n", live, used)
	res += "==============\n"
	res += fmt.Sprintf("# of GC:    %d\n", len(e.gc.history))
	res += "==============\n"
	res += e.cache.stats().String() + "\n"
	return res
}

// Print writes a textual listing of every node reachable from n to
// standard output, the same report rudd's Set.Print produces.
func (b *BDD) Print(n Node) { b.print(os.Stdout, n) }

func (b *BDD) print(w io.Writer, n Node) {
	if n == False {
		fmt.Fprintln(w, "False")
		return
	}
	if n == True {
		fmt.Fprintln(w, "True")
		return
	}
	seen := make(map[Node]bool)
	var walk func(Node)
	walk = func(m Node) {
		if m.isLeaf() || seen[m] {
			return
		}
		seen[m] = true
		fmt.Fprintf(w, "%d: var=%d low=%d high=%d\n", m.index(), b.variable(m), b.low(m).index(), b.high(m).index())
		walk(b.low(m))
		walk(b.high(m))
	}
	walk(n)
}

// PrintDot writes a Graphviz DOT rendering of n's DAG to filename.
func (b *BDD) PrintDot(filename string, n Node) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(f, "digraph G {")
	fmt.Fprintln(f, `  0 [shape=box, label="0"];`)
	fmt.Fprintln(f, `  1 [shape=box, label="1"];`)

	seen := make(map[Node]bool)
	var walk func(Node)
	walk = func(m Node) {
		if m.isLeaf() || seen[m] {
			return
		}
		seen[m] = true
		fmt.Fprintf(f, "  %d [label=\"%d\"];\n", m.index(), b.variable(m))
		low, high := b.low(m), b.high(m)
		style := "solid"
		if low.isComplemented() {
			style = "dashed"
		}
		fmt.Fprintf(f, "  %d -> %d [style=%s];\n", m.index(), low.index(), style)
		fmt.Fprintf(f, "  %d -> %d [style=solid];\n", m.index(), high.index())
		walk(low)
		walk(high)
	}
	walk(n)
	fmt.Fprintln(f, "}")
	return nil
}
