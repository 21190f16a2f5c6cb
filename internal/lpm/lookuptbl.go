// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package lpm precomputes, for every index in a stride's complete
// binary tree, the bitset of all its ancestors (including itself).
// A node's longest-prefix-match backtracking then reduces to
// intersecting the node's prefix bitset with LookupTbl[idx] and
// taking the topmost set bit, instead of walking parent indices one
// by one at lookup time.
package lpm

import "github.com/katsuoss/fibtrie/internal/bitset"

// LookupTbl holds, for every possible index in [0..255], the bitset
// of idx and all its ancestors in the complete binary tree of a
// stride. LookupTbl[0] is empty, 0 is never a valid index.
var LookupTbl = [256]bitset.BitSet256{}

func init() {
	for i := 1; i < 256; i++ {
		LookupTbl[i] = backTrackingBitset(uint8(i))
	}
}

// backTrackingBitset computes the ancestor-closure of idx: idx itself
// and idx>>1, idx>>2, ... down to and including 1.
func backTrackingBitset(idx uint8) (bs bitset.BitSet256) {
	for idx != 0 {
		bs.MustSet(idx)
		idx >>= 1
	}
	return bs
}
