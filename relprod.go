// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

// RelNext computes the image of the set n under the transition relation
// rel, existentially quantifying the unprimed variables in varset after
// conjoining (§4.4 "relational product"): Exist(varset, n & rel). It is
// AndExist under a name matching how transition relations are used.
func (b *BDD) RelNext(n, rel, varset Node) (Node, error) {
	return b.AndExist(n, rel, varset)
}

// RelPrev computes the pre-image of n under rel: like RelNext but the
// caller is expected to have built rel and varset over the primed
// variables, so the quantification removes the primed copies instead of
// the unprimed ones. Composing it with a Replacer that swaps primed and
// unprimed variables back afterward recovers the conventional "prev"
// relation used by backward reachability (§4.4, supplemented from
// original_source/src/sylvan_mtbdd.h's RelPrev, which is otherwise
// identical to RelNext up to which variable copy is quantified).
func (b *BDD) RelPrev(n, rel, varset Node, swap Replacer) (Node, error) {
	img, err := b.AndExist(n, rel, varset)
	if err != nil {
		return 0, err
	}
	return b.Replace(img, swap)
}
