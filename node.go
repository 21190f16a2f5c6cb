// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package fib

import (
	"cmp"
	"net/netip"
	"slices"

	"github.com/katsuoss/fibtrie/internal/art"
	"github.com/katsuoss/fibtrie/internal/lpm"
	"github.com/katsuoss/fibtrie/internal/sparse"
)

// strideLen is the byte stride length for the multibit trie. Each
// stride processes 8 bits (one byte) at a time.
const strideLen = 8

// maxItems is the maximum number of prefixes or children a single
// node can hold: 256 possible values for an 8-bit stride.
const maxItems = 256

// maxTreeDepth is the maximum depth of the trie: 16 bytes for IPv6.
const maxTreeDepth = 16

// depthMask is used for bounds check elimination when indexing
// depth-sized arrays.
const depthMask = maxTreeDepth - 1

// stridePath is a path through the trie, one octet per stride, up to
// 16 octets deep for IPv6.
type stridePath [maxTreeDepth]uint8

// node is a trie-level node in the multibit routing table.
//
// A node holds two conceptually different popcount-compressed sparse
// arrays:
//   - prefixes: routing entries, laid out as a complete binary tree
//     via the base-index mapping in internal/art.
//   - children: subtries, or path-compressed leaves/fringes, one slot
//     per possible next octet (256-way branching).
type node[V any] struct {
	// prefixes holds routing entries (index -> value) in complete
	// binary tree layout.
	prefixes sparse.Array256[V]

	// children holds, for each of the 256 possible next octets at
	// this stride:
	//   - *node[V]       an internal child node, further traversal
	//   - *leafNode[V]   a path-compressed prefix (depth < lastOctet)
	//   - *fringeNode[V] a path-compressed stride-aligned prefix
	//     (depth == lastOctet, a /8, /16, ... /128)
	//
	// Full-length prefixes (/32, /128) end on the last stride and are
	// therefore always stored as fringe children, never in a prefixes
	// array.
	children sparse.Array256[any]
}

// isEmpty reports whether the node has no prefixes and no children.
func (n *node[V]) isEmpty() bool {
	return n.prefixCount() == 0 && n.childCount() == 0
}

// prefixCount returns the number of prefixes stored in this node. A
// nil receiver counts as empty, so callers can ask before knowing
// whether a slot was ever populated.
func (n *node[V]) prefixCount() int {
	if n == nil {
		return 0
	}
	return n.prefixes.Len()
}

// childCount returns the number of child slots used in this node.
func (n *node[V]) childCount() int {
	if n == nil {
		return 0
	}
	return n.children.Len()
}

// insertPrefix adds or overwrites the routing entry at idx.
// Returns true if a prefix already existed there.
func (n *node[V]) insertPrefix(idx uint8, val V) (exists bool) {
	return n.prefixes.InsertAt(idx, val)
}

// getPrefix retrieves the value stored at idx.
func (n *node[V]) getPrefix(idx uint8) (val V, exists bool) {
	return n.prefixes.Get(idx)
}

// mustGetPrefix retrieves the value at idx, panicking if idx turns
// out not to be populated. Callers are expected to have already
// established presence, e.g. via a prior Test or FirstSet.
func (n *node[V]) mustGetPrefix(idx uint8) V {
	val, ok := n.getPrefix(idx)
	if !ok {
		panic("fib: prefix index not present")
	}
	return val
}

// deletePrefix removes the prefix at idx and returns its value.
func (n *node[V]) deletePrefix(idx uint8) (val V, exists bool) {
	return n.prefixes.DeleteAt(idx)
}

// insertChild sets the child (node/leaf/fringe) at addr.
// Returns true if a child already existed there.
func (n *node[V]) insertChild(addr uint8, child any) (exists bool) {
	return n.children.InsertAt(addr, child)
}

// getChild retrieves the child at addr.
func (n *node[V]) getChild(addr uint8) (any, bool) {
	return n.children.Get(addr)
}

// mustGetChild retrieves the child at addr, panicking if idx turns
// out not to be populated.
func (n *node[V]) mustGetChild(addr uint8) any {
	child, ok := n.getChild(addr)
	if !ok {
		panic("fib: child address not present")
	}
	return child
}

// deleteChild removes the child at addr. Idempotent.
func (n *node[V]) deleteChild(addr uint8) (exists bool) {
	_, exists = n.children.DeleteAt(addr)
	return exists
}

// matchLPM intersects idx's backtracking chain (idx, idx>>1, ...,
// 1, see internal/lpm) against this node's populated prefix slots
// and reports the most specific one present, if any. It is the one
// place the prefix table and the lookup table actually meet; contains
// and lookup are thin views over it.
func (n *node[V]) matchLPM(idx uint8) (top uint8, ok bool) {
	return n.prefixes.IntersectionTop(&lpm.LookupTbl[idx])
}

// contains reports whether idx has a matching longest-prefix among
// this node's prefixes, without retrieving the value.
func (n *node[V]) contains(idx uint8) bool {
	_, ok := n.matchLPM(idx)
	return ok
}

// lookupIdx performs a longest-prefix match for idx within this
// node's stride, returning the matched index, value, and ok.
func (n *node[V]) lookupIdx(idx uint8) (top uint8, val V, ok bool) {
	top, ok = n.matchLPM(idx)
	if !ok {
		return 0, val, false
	}
	return top, n.mustGetPrefix(top), true
}

// lookup reports the value of the most specific prefix matching idx,
// discarding the matched index.
func (n *node[V]) lookup(idx uint8) (val V, ok bool) {
	top, ok := n.matchLPM(idx)
	if !ok {
		return val, false
	}
	return n.mustGetPrefix(top), true
}

// leafNode is a path-compressed routing entry storing both prefix and
// value, used when a prefix ends in a stride below its child slot
// (depth < lastOctet), whether or not its length is stride-aligned.
type leafNode[V any] struct {
	value  V
	prefix netip.Prefix
}

func newLeafNode[V any](pfx netip.Prefix, val V) *leafNode[V] {
	return &leafNode[V]{prefix: pfx, value: val}
}

// fringeNode is a path-compressed routing entry storing only a value;
// its prefix is implicit in the node's trie position. Used for
// prefixes that land exactly on a stride boundary (/8, /16, ...).
type fringeNode[V any] struct {
	value V
}

func newFringeNode[V any](val V) *fringeNode[V] {
	return &fringeNode[V]{value: val}
}

// isFringe reports whether pfx, inserted starting at depth, lands
// exactly on the final stride boundary before it would otherwise need
// a direct prefix-table entry one level deeper.
//
//	depth <  lastOctet   : path-compressed as a leaf
//	depth == lastOctet   : path-compressed as a fringe (this function)
//	depth == lastOctet+1 : a direct prefix entry, idx == 1 (default route)
func isFringe(depth int, pfx netip.Prefix) bool {
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)
	return depth == lastOctetPlusOne-1 && lastBits == 0
}

// eachLookupPrefix yields every prefix in this node's stride that is
// an ancestor of (or equal to) pfxIdx, most specific first, by
// walking the backtracking chain pfxIdx, pfxIdx>>1, ..., 1.
//
// Used by Supernets; does not descend into children.
func (n *node[V]) eachLookupPrefix(octets []byte, depth int, is4 bool, pfxIdx uint8, yield func(netip.Prefix, V) bool) bool {
	var path stridePath
	copy(path[:], octets)

	for ; pfxIdx > 0; pfxIdx >>= 1 {
		if n.prefixes.Test(pfxIdx) {
			val := n.mustGetPrefix(pfxIdx)
			cidr := cidrFromPath(path, depth, is4, pfxIdx)

			if !yield(cidr, val) {
				return false
			}
		}
	}

	return true
}

// eachSubnet yields, in CIDR sort order, every prefix and child
// (recursively) of this node covered by the address range of pfxIdx.
//
// Used by Subnets.
func (n *node[V]) eachSubnet(octets []byte, depth int, is4 bool, pfxIdx uint8, yield func(netip.Prefix, V) bool) bool {
	var path stridePath
	copy(path[:], octets)

	pfxFirstAddr, pfxLastAddr := art.IdxToRange(pfxIdx)

	allCoveredIndices := make([]uint8, 0, maxItems)

	var buf [256]uint8
	for _, idx := range n.prefixes.AsSlice(&buf) {
		thisFirstAddr, thisLastAddr := art.IdxToRange(idx)
		if thisFirstAddr >= pfxFirstAddr && thisLastAddr <= pfxLastAddr {
			allCoveredIndices = append(allCoveredIndices, idx)
		}
	}

	slices.SortFunc(allCoveredIndices, cmpIndexRank)

	allCoveredChildAddrs := make([]uint8, 0, maxItems)
	for _, addr := range n.children.AsSlice(&buf) {
		if addr >= pfxFirstAddr && addr <= pfxLastAddr {
			allCoveredChildAddrs = append(allCoveredChildAddrs, addr)
		}
	}

	addrCursor := 0

	for _, idx := range allCoveredIndices {
		pfxOctet, _ := art.IdxToPfx(idx)

		for j := addrCursor; j < len(allCoveredChildAddrs); j++ {
			addr := allCoveredChildAddrs[j]
			if addr >= pfxOctet {
				break
			}

			if !n.yieldChild(path, depth, is4, addr, yield) {
				return false
			}
			addrCursor++
		}

		cidr := cidrFromPath(path, depth, is4, idx)
		if !yield(cidr, n.mustGetPrefix(idx)) {
			return false
		}
	}

	for _, addr := range allCoveredChildAddrs[addrCursor:] {
		if !n.yieldChild(path, depth, is4, addr, yield) {
			return false
		}
	}

	return true
}

// yieldChild dispatches a single child slot (node/leaf/fringe) to
// yield, recursing into child nodes in sorted order.
func (n *node[V]) yieldChild(path stridePath, depth int, is4 bool, addr uint8, yield func(netip.Prefix, V) bool) bool {
	slot := n.mustGetChild(addr)

	if fr, ok := slot.(*fringeNode[V]); ok {
		fringePfx := cidrForFringe(path[:], depth, is4, addr)
		return yield(fringePfx, fr.value)
	}
	if lf, ok := slot.(*leafNode[V]); ok {
		return yield(lf.prefix, lf.value)
	}
	nd, ok := slot.(*node[V])
	if !ok {
		panic("logic error, wrong node type")
	}
	path[depth] = addr
	return nd.allRecSorted(path, depth+1, is4, yield)
}

// allRec yields every (prefix, value) pair reachable from this node,
// in no particular order.
func (n *node[V]) allRec(path stridePath, depth int, is4 bool, yield func(netip.Prefix, V) bool) bool {
	var buf [256]uint8
	for _, idx := range n.prefixes.AsSlice(&buf) {
		cidr := cidrFromPath(path, depth, is4, idx)
		if !yield(cidr, n.mustGetPrefix(idx)) {
			return false
		}
	}

	for _, addr := range n.children.AsSlice(&buf) {
		slot := n.mustGetChild(addr)

		if fr, ok := slot.(*fringeNode[V]); ok {
			fringePfx := cidrForFringe(path[:], depth, is4, addr)
			if !yield(fringePfx, fr.value) {
				return false
			}
			continue
		}
		if lf, ok := slot.(*leafNode[V]); ok {
			if !yield(lf.prefix, lf.value) {
				return false
			}
			continue
		}
		nd, ok := slot.(*node[V])
		if !ok {
			panic("logic error, wrong node type")
		}
		path[depth] = addr
		if !nd.allRec(path, depth+1, is4, yield) {
			return false
		}
	}

	return true
}

// allRecSorted yields every (prefix, value) pair reachable from this
// node in CIDR sort order (prefixes interleaved with children by
// octet, children recursed in the same order).
func (n *node[V]) allRecSorted(path stridePath, depth int, is4 bool, yield func(netip.Prefix, V) bool) bool {
	var buf [256]uint8

	indices := append([]uint8(nil), n.prefixes.AsSlice(&buf)...)
	slices.SortFunc(indices, cmpIndexRank)

	childAddrs := append([]uint8(nil), n.children.AsSlice(&buf)...)

	addrCursor := 0
	for _, idx := range indices {
		pfxOctet, _ := art.IdxToPfx(idx)

		for j := addrCursor; j < len(childAddrs); j++ {
			addr := childAddrs[j]
			if addr >= pfxOctet {
				break
			}
			if !n.yieldChild(path, depth, is4, addr, yield) {
				return false
			}
			addrCursor++
		}

		cidr := cidrFromPath(path, depth, is4, idx)
		if !yield(cidr, n.mustGetPrefix(idx)) {
			return false
		}
	}

	for _, addr := range childAddrs[addrCursor:] {
		if !n.yieldChild(path, depth, is4, addr, yield) {
			return false
		}
	}

	return true
}

// overlapsRec reports whether any prefix or child of n overlaps any
// prefix or child of o, recursively descending into shared child
// addresses.
func (n *node[V]) overlapsRec(o *node[V]) bool {
	nPfxCount, oPfxCount := n.prefixCount(), o.prefixCount()
	nChildCount, oChildCount := n.childCount(), o.childCount()

	if nPfxCount > 0 && oPfxCount > 0 {
		if n.overlapsPrefixes(o) {
			return true
		}
	}

	if nPfxCount > 0 && oChildCount > 0 {
		if n.overlapsPrefixesChildren(o) {
			return true
		}
	}

	if oPfxCount > 0 && nChildCount > 0 {
		if o.overlapsPrefixesChildren(n) {
			return true
		}
	}

	if nChildCount == 0 || oChildCount == 0 {
		return false
	}

	var buf [256]uint8
	nAddrs := n.children.AsSlice(&buf)
	for _, addr := range nAddrs {
		if !o.children.Test(addr) {
			continue
		}

		nKid := n.mustGetChild(addr)
		oKid := o.mustGetChild(addr)

		if overlapsTwoChilds[V](nKid, oKid) {
			return true
		}
	}

	return false
}

// overlapsPrefixes reports whether any prefix in n overlaps any
// prefix in o (two prefixes overlap iff one is an ancestor of the
// other in the complete binary tree, including equality).
//
// o.prefixes.Intersects(&lpm.LookupTbl[idx]), for each idx of n, only
// catches the case where o holds idx or an ancestor of idx; checking
// both directions
// also catches the case where o holds a descendant of idx.
func (n *node[V]) overlapsPrefixes(o *node[V]) bool {
	var buf [256]uint8
	for _, idx := range n.prefixes.AsSlice(&buf) {
		if o.prefixes.Intersects(&lpm.LookupTbl[idx]) {
			return true
		}
	}
	for _, idx := range o.prefixes.AsSlice(&buf) {
		if n.prefixes.Intersects(&lpm.LookupTbl[idx]) {
			return true
		}
	}
	return false
}

// overlapsPrefixesChildren reports whether any prefix of n covers (as
// an ancestor) any child address of o.
func (n *node[V]) overlapsPrefixesChildren(o *node[V]) bool {
	var buf [256]uint8
	for _, addr := range o.children.AsSlice(&buf) {
		if n.contains(art.OctetToIdx(addr)) {
			return true
		}
	}
	return false
}

// overlapsTwoChilds dispatches the overlap test for two child slots
// that share the same address, whose dynamic type may be *node[V],
// *leafNode[V], or *fringeNode[V] in any combination. A fringe is a
// default route for its whole octet, so either side being a fringe
// settles the question immediately regardless of the other side.
func overlapsTwoChilds[V any](nKid, oKid any) bool {
	if _, ok := nKid.(*fringeNode[V]); ok {
		return true
	}
	if _, ok := oKid.(*fringeNode[V]); ok {
		return true
	}

	nNode, nIsNode := nKid.(*node[V])
	oNode, oIsNode := oKid.(*node[V])

	switch {
	case nIsNode && oIsNode:
		return nNode.overlapsRec(oNode)
	case nIsNode:
		return nNode.contains(art.OctetToIdx(lastOctetOf(oKid.(*leafNode[V]).prefix)))
	case oIsNode:
		return oNode.contains(art.OctetToIdx(lastOctetOf(nKid.(*leafNode[V]).prefix)))
	default:
		return nKid.(*leafNode[V]).prefix.Overlaps(oKid.(*leafNode[V]).prefix)
	}
}

// lastOctetOf returns the final octet of pfx's address (the one
// aligned with the leaf's trie depth), used to re-derive an
// art.OctetToIdx argument for a leaf being compared to a sibling node.
func lastOctetOf(pfx netip.Prefix) uint8 {
	octets := pfx.Addr().AsSlice()
	return octets[len(octets)-1]
}

// cmpIndexRank orders two prefix-table indices in CIDR sort order:
// by covered octet first, then by prefix length.
func cmpIndexRank(aIdx, bIdx uint8) int {
	aOctet, aBits := art.IdxToPfx(aIdx)
	bOctet, bBits := art.IdxToPfx(bIdx)
	return cmp.Or(cmp.Compare(aOctet, bOctet), cmp.Compare(aBits, bBits))
}

// addrFromPath builds the netip.Addr of the right address family
// from a full stride path, shared by cidrFromPath and cidrForFringe
// so the v4/v6 branch lives in exactly one place.
func addrFromPath(path stridePath, is4 bool) netip.Addr {
	if is4 {
		return netip.AddrFrom4([4]byte(path[:4]))
	}
	return netip.AddrFrom16(path)
}

// cidrFromPath reconstructs the CIDR prefix for index idx stored at
// depth along path.
func cidrFromPath(path stridePath, depth int, is4 bool, idx uint8) netip.Prefix {
	depth &= depthMask

	octet, pfxLen := art.IdxToPfx(idx)
	path[depth] = octet
	clear(path[depth+1:])

	return netip.PrefixFrom(addrFromPath(path, is4), depth<<3+pfxLen)
}

// cidrForFringe reconstructs the CIDR prefix for a fringe node
// reached by octets, ending at lastOctet, depth octets deep.
func cidrForFringe(octets []byte, depth int, is4 bool, lastOctet uint8) netip.Prefix {
	depth &= depthMask

	var path stridePath
	copy(path[:], octets[:depth+1])
	path[depth] = lastOctet

	return netip.PrefixFrom(addrFromPath(path, is4), (depth+1)<<3)
}
