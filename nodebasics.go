// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package fib

import (
	"net/netip"

	"github.com/katsuoss/fibtrie/internal/art"
)

// insert inserts pfx/val into the trie starting at depth, creating
// leaf/fringe/interior nodes as needed and expanding a conflicting
// leaf or fringe into an interior node.
//
// Returns true if a prefix already existed and was updated.
func (n *node[V]) insert(pfx netip.Prefix, val V, depth int) (exists bool) {
	return n.descendAndInsert(pfx, val, depth, nil)
}

// insertPersist is insert, but every *node[V] stepped into along the
// way is cloned first (via cloneFn), so the previous trie's nodes
// stay untouched and can still be read by concurrent readers or other
// persistent versions.
func (n *node[V]) insertPersist(cloneFn cloneFunc[V], pfx netip.Prefix, val V, depth int) (exists bool) {
	return n.descendAndInsert(pfx, val, depth, cloneFn)
}

// descendAndInsert is the shared recursive engine behind insert and
// insertPersist: it takes one stride step per call instead of looping
// over the whole octet path, and clones the node it is about to
// mutate whenever cloneFn is non-nil. A nil cloneFn makes this plain,
// in-place insertion.
func (n *node[V]) descendAndInsert(pfx netip.Prefix, val V, depth int, cloneFn cloneFunc[V]) (exists bool) {
	octet := pfx.Addr().AsSlice()[depth]
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	if depth == lastOctetPlusOne {
		return n.insertPrefix(art.PfxToIdx(octet, lastBits), val)
	}

	if !n.children.Test(octet) {
		if isFringe(depth, pfx) {
			return n.insertChild(octet, newFringeNode(val))
		}
		return n.insertChild(octet, newLeafNode(pfx, val))
	}

	slot := n.mustGetChild(octet)

	if fr, ok := slot.(*fringeNode[V]); ok {
		if isFringe(depth, pfx) {
			fr.value = val
			return true
		}

		split := new(node[V])
		split.insertPrefix(1, fr.value)
		n.insertChild(octet, split)
		return split.descendAndInsert(pfx, val, depth+1, cloneFn)
	}

	if lf, ok := slot.(*leafNode[V]); ok {
		if lf.prefix == pfx {
			lf.value = val
			return true
		}

		split := new(node[V])
		split.descendAndInsert(lf.prefix, lf.value, depth+1, nil)
		n.insertChild(octet, split)
		return split.descendAndInsert(pfx, val, depth+1, cloneFn)
	}

	kid, ok := slot.(*node[V])
	if !ok {
		panic("logic error, wrong node type")
	}
	if cloneFn != nil {
		kid = kid.cloneFlat(cloneFn)
		n.insertChild(octet, kid)
	}
	return kid.descendAndInsert(pfx, val, depth+1, cloneFn)
}

// purgeAndCompress unwinds stack (the parent chain recorded during a
// delete's descent), collapsing now-empty or single-entry nodes back
// into leaf/fringe form at the parent level. It recurses up through
// stack one level per call rather than looping over it, stopping as
// soon as a level proves to be an unchanged interior node (nothing
// above it can need compressing either).
func (n *node[V]) purgeAndCompress(stack []*node[V], octets []uint8, is4 bool) {
	depth := len(stack) - 1
	if depth < 0 {
		return
	}

	parent := stack[depth]
	if !n.collapseInto(parent, octets[depth], octets, depth, is4) {
		return
	}

	parent.purgeAndCompress(stack[:depth], octets, is4)
}

// collapseInto folds n back into parent at octet (deleting or
// replacing parent's child slot) if n has become empty, a single
// leaf/fringe, or a lone prefix. It reports whether parent's own
// structure changed and the unwind should keep walking upward; a
// single *node[V] child is the one case known to leave everything
// above untouched.
func (n *node[V]) collapseInto(parent *node[V], octet uint8, octets []uint8, depth int, is4 bool) (changed bool) {
	switch {
	case n.isEmpty():
		parent.deleteChild(octet)
		return true

	case n.prefixCount() == 0 && n.childCount() == 1:
		addr, _ := n.children.FirstSet()
		slot := n.mustGetChild(addr)

		if fr, ok := slot.(*fringeNode[V]); ok {
			parent.deleteChild(octet)
			fringePfx := cidrForFringe(octets, depth+1, is4, addr)
			parent.insert(fringePfx, fr.value, depth)
			return true
		}
		if lf, ok := slot.(*leafNode[V]); ok {
			parent.deleteChild(octet)
			parent.insert(lf.prefix, lf.value, depth)
			return true
		}
		if _, ok := slot.(*node[V]); !ok {
			panic("logic error, wrong node type")
		}
		return false

	case n.prefixCount() == 1 && n.childCount() == 0:
		idx, _ := n.prefixes.FirstSet()
		val := n.mustGetPrefix(idx)

		var path stridePath
		copy(path[:], octets)
		pfx := cidrFromPath(path, depth+1, is4, idx)

		parent.deleteChild(octet)
		parent.insert(pfx, val, depth)
		return true
	}

	return true
}
