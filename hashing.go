// Copyright (c) 2024 ddforge authors
//
// MIT License

package dd

// Hashing follows Sylvan's approach (original_source/src/murmur.h,
// hash_mul/rehash_mul): a 64-bit multiplicative mix over the node's two
// packed words, with distinct multipliers for the "rehash" hash, which
// gives lookups a second, independent probe start. rudd's
// _PAIR/_TRIPLE pairing function served the same purpose for a single Go
// hashmap bucket (level, low, high); here both the node store and the
// operation cache need an open-addressing probe sequence over 128-bit
// keys, so we use a murmur-style finalizer instead, which avalanches
// better than a pairing function at this width.

const (
	mulA uint64 = 0x65d200ce55b19ad8
	mulB uint64 = 0x4f2162926e40c299
	mulC uint64 = 0x162dd799029970f8

	remulA uint64 = 0x9e3779b97f4a7c15
	remulB uint64 = 0xbf58476d1ce4e5b9
	remulC uint64 = 0x94d049bb133111eb
)

// fmix64 is the 64-bit finalizer from MurmurHash3, used to avalanche the
// multiplicative mix below into a well-distributed hash.
func fmix64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

// hashNode computes the primary probe hash of an internal node's two
// packed words plus the operator tag distinguishing flavors that would
// otherwise collide on identical (variable, low, high) triples.
func hashNode(w0, w1 uint64, flavor uint64) uint64 {
	h := w0*mulA + w1*mulB + flavor*mulC
	return fmix64(h)
}

// rehashNode computes the secondary probe hash (§4.2, "two independent hash
// functions"). The open-addressed backend probes from it, after the primary
// hash, when looking a node up; inserts always start from the primary hash.
func rehashNode(w0, w1 uint64, flavor uint64) uint64 {
	h := w0*remulA + w1*remulB + flavor*remulC
	return fmix64(h)
}

// hashCache mixes an opcode with up to four operand handles into a single
// probe hash for the operation cache (§4.3). Unused operands must be
// passed as zero so that operations with fewer operands do not collide
// with the hash of a different operation that happens to share the first
// operands.
func hashCache(opcode uint64, a, b, c, d uint64) uint64 {
	h := opcode * mulC
	h = h*1099511628211 ^ a
	h = h*1099511628211 ^ b
	h = h*1099511628211 ^ c
	h = h*1099511628211 ^ d
	return fmix64(h)
}
