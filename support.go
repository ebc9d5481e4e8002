// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

// Support returns the cube (in the Makeset sense) of every variable n
// depends on, computed by walking the DAG once and recording each level
// seen (§4.4).
func (b *BDD) Support(n Node) (Node, error) {
	seen := make(map[Node]bool)
	var levels []int
	var walk func(Node)
	walk = func(m Node) {
		if m.isLeaf() || seen[m] {
			return
		}
		seen[m] = true
		levels = append(levels, int(b.variable(m)))
		walk(b.low(m))
		walk(b.high(m))
	}
	walk(n)
	return b.Makeset(levels)
}
