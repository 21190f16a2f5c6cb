// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package fib implements an in-memory IPv4/IPv6 longest-prefix-match
// forwarding table (FIB): a multibit trie with a fixed stride of 8
// bits, using popcount-compressed sparse arrays and precomputed
// lookup bitsets instead of full 256-way arrays at every node.
//
// The zero value of Table is ready to use. A Table must not be
// copied by value; always pass it by pointer.
package fib

import (
	"iter"
	"net/netip"
	"sync"

	"github.com/katsuoss/fibtrie/internal/art"
	"github.com/katsuoss/fibtrie/internal/lpm"
)

// Table is an IPv4 and IPv6 longest-prefix-match routing table with
// payload V.
//
// The zero value is ready to use.
//
// Table is safe for concurrent reads. Concurrent reads and writes
// must be externally synchronized, or callers can instead use the
// ...Persist methods, which return a modified copy without mutating
// the receiver (copy-on-write).
//
// Do not pass IPv4-in-IPv6 addresses (e.g. ::ffff:192.0.2.1); unmap
// them to their native IPv4 form first. The table does not do this
// automatically, to avoid the overhead for the common case.
type Table[V any] struct {
	_ [0]sync.Mutex

	root4 node[V]
	root6 node[V]

	size4 int
	size6 int
}

// rootNodeByVersion returns the root node for the given IP version.
func (t *Table[V]) rootNodeByVersion(is4 bool) *node[V] {
	if is4 {
		return &t.root4
	}
	return &t.root6
}

func (t *Table[V]) sizeUpdate(is4 bool, delta int) {
	if is4 {
		t.size4 += delta
	} else {
		t.size6 += delta
	}
}

// Size returns the number of prefixes stored in the table.
func (t *Table[V]) Size() int {
	return t.size4 + t.size6
}

// Size4 returns the number of IPv4 prefixes stored in the table.
func (t *Table[V]) Size4() int {
	return t.size4
}

// Size6 returns the number of IPv6 prefixes stored in the table.
func (t *Table[V]) Size6() int {
	return t.size6
}

// lastOctetPlusOneAndLastBits splits pfx's bit length at 8-bit stride
// boundaries: lastOctetPlusOne is the number of full strides
// (bits/8), lastBits is the remainder (bits%8).
//
//	10.0.0.0/8   => lastOctetPlusOne: 1, lastBits: 0 (possible fringe)
//	10.0.0.0/22  => lastOctetPlusOne: 2, lastBits: 6
//	10.0.0.0/32  => lastOctetPlusOne: 4, lastBits: 0 (possible fringe)
func lastOctetPlusOneAndLastBits(pfx netip.Prefix) (lastOctetPlusOne int, lastBits int) {
	bits := pfx.Bits()
	return bits >> 3, bits & 7
}

// Insert adds pfx with value val to the table. If pfx already
// exists, its value is overwritten.
func (t *Table[V]) Insert(pfx netip.Prefix, val V) {
	if !pfx.IsValid() {
		return
	}
	pfx = pfx.Masked()

	is4 := pfx.Addr().Is4()
	n := t.rootNodeByVersion(is4)

	if exists := n.insert(pfx, val, 0); !exists {
		t.sizeUpdate(is4, 1)
	}
}

// InsertPersist is Insert, but returns a new Table sharing structure
// with the receiver except along the path touched by the insert; the
// receiver is left unmodified.
func (t *Table[V]) InsertPersist(pfx netip.Prefix, val V) *Table[V] {
	if !pfx.IsValid() {
		return t
	}
	pfx = pfx.Masked()

	is4 := pfx.Addr().Is4()
	cloneFn := cloneFnFactory[V]()

	pt := t.rootTablePersist(cloneFn)
	n := pt.rootNodeByVersion(is4)

	if exists := n.insertPersist(cloneFn, pfx, val, 0); !exists {
		pt.sizeUpdate(is4, 1)
	}
	return pt
}

// rootTablePersist returns a shallow copy of t, with both root nodes
// cloned (flat); insertPersist clones the rest of the path lazily as
// it descends.
func (t *Table[V]) rootTablePersist(cloneFn cloneFunc[V]) *Table[V] {
	pt := new(Table[V])
	*pt = *t
	pt.root4 = *t.root4.cloneFlat(cloneFn)
	pt.root6 = *t.root6.cloneFlat(cloneFn)
	return pt
}

// Update sets or updates the value at pfx via callback cb(val, found)
// and returns the resulting value.
func (t *Table[V]) Update(pfx netip.Prefix, cb func(val V, found bool) V) (newVal V) {
	t.Modify(pfx, func(val V, found bool) (V, bool) {
		return cb(val, found), false
	})
	newVal, _ = t.Get(pfx)
	return newVal
}

// Get returns the value stored exactly at pfx (not a longest-prefix
// match), and whether pfx is present.
func (t *Table[V]) Get(pfx netip.Prefix) (val V, ok bool) {
	if !pfx.IsValid() {
		return
	}
	pfx = pfx.Masked()

	ip := pfx.Addr()
	is4 := ip.Is4()
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	n := t.rootNodeByVersion(is4)

	for depth, octet := range octets {
		if depth == lastOctetPlusOne {
			return n.getPrefix(art.PfxToIdx(octet, lastBits))
		}

		if !n.children.Test(octet) {
			return
		}
		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			n = kid
		case *leafNode[V]:
			if kid.prefix == pfx {
				return kid.value, true
			}
			return
		case *fringeNode[V]:
			if isFringe(depth, pfx) {
				return kid.value, true
			}
			return
		default:
			panic("logic error, wrong node type")
		}
	}
	return
}

// Delete removes pfx from the table and returns its former value,
// and whether it was present.
func (t *Table[V]) Delete(pfx netip.Prefix) (val V, found bool) {
	val, found = t.Modify(pfx, func(val V, _ bool) (V, bool) {
		return val, true
	})
	return val, found
}

// DeletePersist is Delete, but returns a new Table sharing structure
// with the receiver except along the deleted path; the receiver is
// left unmodified.
func (t *Table[V]) DeletePersist(pfx netip.Prefix) (*Table[V], V, bool) {
	if !pfx.IsValid() {
		var zero V
		return t, zero, false
	}
	pfx = pfx.Masked()

	cloneFn := cloneFnFactory[V]()
	pt := t.rootTablePersist(cloneFn)

	val, found := pt.modify(pfx, func(val V, _ bool) (V, bool) {
		return val, true
	}, cloneFn)
	return pt, val, found
}

// Modify applies an insert, update, or delete to the entry at pfx.
// The callback is invoked with the current value (or zero) and
// whether pfx currently exists; it returns the new value and a delete
// flag. See the operation table:
//
//	Operation | cb-input        | cb-return       | Modify-return
//	No-op:    | (zero,   false) | (_,      true)  | (zero,   false)
//	Insert:   | (zero,   false) | (newVal, false) | (newVal, false)
//	Update:   | (oldVal, true)  | (newVal, false) | (oldVal, false)
//	Delete:   | (oldVal, true)  | (_,      true)  | (oldVal, true)
func (t *Table[V]) Modify(pfx netip.Prefix, cb func(val V, found bool) (_ V, del bool)) (_ V, deleted bool) {
	if !pfx.IsValid() {
		var zero V
		return zero, false
	}
	pfx = pfx.Masked()
	return t.modify(pfx, cb, nil)
}

// modify is the shared implementation for Modify (cloneFn == nil) and
// the *Persist delete path (cloneFn set, table already cloned
// shallowly at the root by the caller).
func (t *Table[V]) modify(pfx netip.Prefix, cb func(val V, found bool) (_ V, del bool), cloneFn cloneFunc[V]) (_ V, deleted bool) {
	ip := pfx.Addr()
	is4 := ip.Is4()
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	n := t.rootNodeByVersion(is4)
	stack := [maxTreeDepth]*node[V]{}

	return n.descendAndModify(t, pfx, octets, 0, lastOctetPlusOne, lastBits, is4, cb, cloneFn, stack[:0])
}

// descendAndModify is modify's recursive engine: one call handles one
// stride, recursing into whichever child the octet path leads through
// and growing stack (the ancestor chain purgeAndCompress needs on a
// delete) as it goes, in place of a loop over an explicit index.
func (n *node[V]) descendAndModify(
	t *Table[V],
	pfx netip.Prefix,
	octets []byte,
	depth, lastOctetPlusOne int,
	lastBits int,
	is4 bool,
	cb func(val V, found bool) (_ V, del bool),
	cloneFn cloneFunc[V],
	stack []*node[V],
) (_ V, deleted bool) {
	var zero V
	octet := octets[depth]

	if depth == lastOctetPlusOne {
		idx := art.PfxToIdx(octet, lastBits)

		oldVal, existed := n.getPrefix(idx)
		newVal, del := cb(oldVal, existed)

		switch {
		case !existed && del:
			return zero, false

		case existed && del:
			n.deletePrefix(idx)
			t.sizeUpdate(is4, -1)
			n.purgeAndCompress(stack, octets, is4)
			return oldVal, true

		case !existed:
			n.insertPrefix(idx, newVal)
			t.sizeUpdate(is4, 1)
			return newVal, false

		default: // existed
			n.insertPrefix(idx, newVal)
			return oldVal, false
		}
	}

	if !n.children.Test(octet) {
		newVal, del := cb(zero, false)
		if del {
			return zero, false
		}

		if isFringe(depth, pfx) {
			n.insertChild(octet, newFringeNode(newVal))
		} else {
			n.insertChild(octet, newLeafNode(pfx, newVal))
		}

		t.sizeUpdate(is4, 1)
		return newVal, false
	}

	slot := n.mustGetChild(octet)

	if fr, ok := slot.(*fringeNode[V]); ok {
		oldVal := fr.value

		if isFringe(depth, pfx) {
			newVal, del := cb(fr.value, true)
			if !del {
				fr.value = newVal
				return oldVal, false
			}
			n.deleteChild(octet)
			t.sizeUpdate(is4, -1)
			n.purgeAndCompress(stack, octets, is4)
			return oldVal, true
		}

		newNode := new(node[V])
		newNode.insertPrefix(1, fr.value)
		n.insertChild(octet, newNode)
		return newNode.descendAndModify(t, pfx, octets, depth+1, lastOctetPlusOne, lastBits, is4, cb, cloneFn, append(stack, n))
	}

	if lf, ok := slot.(*leafNode[V]); ok {
		oldVal := lf.value

		if lf.prefix == pfx {
			newVal, del := cb(oldVal, true)
			if !del {
				lf.value = newVal
				return oldVal, false
			}
			n.deleteChild(octet)
			t.sizeUpdate(is4, -1)
			n.purgeAndCompress(stack, octets, is4)
			return oldVal, true
		}

		newNode := new(node[V])
		newNode.insert(lf.prefix, lf.value, depth+1)
		n.insertChild(octet, newNode)
		return newNode.descendAndModify(t, pfx, octets, depth+1, lastOctetPlusOne, lastBits, is4, cb, cloneFn, append(stack, n))
	}

	kid, ok := slot.(*node[V])
	if !ok {
		panic("logic error, wrong node type")
	}
	if cloneFn != nil {
		kid = kid.cloneFlat(cloneFn)
		n.insertChild(octet, kid)
	}
	return kid.descendAndModify(t, pfx, octets, depth+1, lastOctetPlusOne, lastBits, is4, cb, cloneFn, append(stack, n))
}

// Contains reports whether any stored prefix covers ip. Returns false
// for invalid addresses. This is a presence test only; use Lookup to
// also retrieve the matching value.
func (t *Table[V]) Contains(ip netip.Addr) bool {
	if !ip.IsValid() {
		return false
	}
	n := t.rootNodeByVersion(ip.Is4())
	return n.containsAddr(ip, ip.AsSlice(), 0)
}

// containsAddr walks one stride per recursive call instead of one
// loop iteration, stopping as soon as any visited node's own prefix
// table covers octets[depth] or a path-compressed child settles the
// question outright.
func (n *node[V]) containsAddr(ip netip.Addr, octets []byte, depth int) bool {
	octet := octets[depth]

	if n.prefixCount() != 0 && n.contains(art.OctetToIdx(octet)) {
		return true
	}

	slot, ok := n.getChild(octet)
	if !ok {
		return false
	}

	if _, ok := slot.(*fringeNode[V]); ok {
		return true
	}
	if lf, ok := slot.(*leafNode[V]); ok {
		return lf.prefix.Contains(ip)
	}
	nd, ok := slot.(*node[V])
	if !ok {
		panic("logic error, wrong node type")
	}
	if depth+1 >= len(octets) {
		return false
	}
	return nd.containsAddr(ip, octets, depth+1)
}

// Lookup performs longest-prefix matching for ip and returns the
// value of the most specific matching prefix. Returns false for
// invalid addresses or no match.
func (t *Table[V]) Lookup(ip netip.Addr) (val V, ok bool) {
	if !ip.IsValid() {
		return val, ok
	}
	n := t.rootNodeByVersion(ip.Is4())
	return n.lookupAddr(ip, ip.AsSlice(), 0)
}

// lookupAddr descends toward the most specific match for ip one
// stride at a time; as each recursive call returns, it falls back to
// checking its own node's prefix table for a shorter match before
// reporting failure to its caller. The call stack itself plays the
// role of the explicit parent stack a loop-based walk would need.
func (n *node[V]) lookupAddr(ip netip.Addr, octets []byte, depth int) (val V, ok bool) {
	octet := octets[depth]

	if slot, exists := n.getChild(octet); exists {
		if fr, isFr := slot.(*fringeNode[V]); isFr {
			return fr.value, true
		} else if lf, isLeaf := slot.(*leafNode[V]); isLeaf {
			if lf.prefix.Contains(ip) {
				return lf.value, true
			}
		} else if nd, isNode := slot.(*node[V]); isNode {
			if depth+1 < len(octets) {
				if deeperVal, deeperOK := nd.lookupAddr(ip, octets, depth+1); deeperOK {
					return deeperVal, true
				}
			}
		} else {
			panic("logic error, wrong node type")
		}
	}

	if n.prefixCount() != 0 {
		if top, found := n.matchLPM(art.OctetToIdx(octet)); found {
			return n.mustGetPrefix(top), true
		}
	}

	return val, false
}

// LookupPrefix does a longest-prefix match for pfx and returns the
// associated value, or false if no route matched.
func (t *Table[V]) LookupPrefix(pfx netip.Prefix) (val V, ok bool) {
	_, val, ok = t.lookupPrefixLPM(pfx, false)
	return val, ok
}

// LookupPrefixLPM is LookupPrefix, but also returns the matching
// (less specific or equal) prefix itself.
//
// If used for single-address lookups, convert the address to a /32
// or /128 prefix first.
func (t *Table[V]) LookupPrefixLPM(pfx netip.Prefix) (lpmPfx netip.Prefix, val V, ok bool) {
	return t.lookupPrefixLPM(pfx, true)
}

func (t *Table[V]) lookupPrefixLPM(pfx netip.Prefix, withLPM bool) (lpmPfx netip.Prefix, val V, ok bool) {
	if !pfx.IsValid() {
		return lpmPfx, val, ok
	}
	pfx = pfx.Masked()

	ip := pfx.Addr()
	bits := pfx.Bits()
	is4 := ip.Is4()
	octets := ip.AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	n := t.rootNodeByVersion(is4)

	stack := [maxTreeDepth]*node[V]{}

	var depth int
	var octet byte

LOOP:
	for depth, octet = range octets {
		depth = depth & depthMask

		if depth > lastOctetPlusOne {
			depth--
			break
		}
		stack[depth] = n

		if !n.children.Test(octet) {
			break LOOP
		}
		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			n = kid
			continue LOOP

		case *leafNode[V]:
			if kid.prefix.Bits() > bits || !kid.prefix.Contains(ip) {
				break LOOP
			}
			return kid.prefix, kid.value, true

		case *fringeNode[V]:
			fringeBits := (depth + 1) << 3
			if fringeBits > bits {
				break LOOP
			}

			if !withLPM {
				return netip.Prefix{}, kid.value, true
			}

			fringePfx := cidrForFringe(octets, depth, is4, octet)
			return fringePfx, kid.value, true

		default:
			panic("logic error, wrong node type")
		}
	}

	for ; depth >= 0; depth-- {
		depth = depth & depthMask

		n = stack[depth]

		if n.prefixes.Len() == 0 {
			continue
		}

		var idx uint8
		octet = octets[depth]
		if depth == lastOctetPlusOne {
			idx = art.PfxToIdx(octet, lastBits)
		} else {
			idx = art.OctetToIdx(octet)
		}

		if topIdx, ok2 := n.prefixes.IntersectionTop(&lpm.LookupTbl[idx]); ok2 {
			val = n.mustGetPrefix(topIdx)

			if !withLPM {
				return netip.Prefix{}, val, ok2
			}

			pfxBits := int(art.PfxBits(depth, topIdx))
			lpmPfx, _ = ip.Prefix(pfxBits)
			return lpmPfx, val, ok2
		}
	}

	return lpmPfx, val, ok
}

// Supernets returns an iterator, in reverse-CIDR order (most specific
// first), over every stored prefix that covers pfx.
func (t *Table[V]) Supernets(pfx netip.Prefix) iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		if !pfx.IsValid() {
			return
		}
		pfx = pfx.Masked()

		is4 := pfx.Addr().Is4()
		octets := pfx.Addr().AsSlice()
		lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

		n := t.rootNodeByVersion(is4)
		n.supernetsRec(pfx, octets, 0, lastOctetPlusOne, lastBits, is4, yield)
	}
}

// supernetsRec descends toward pfx one stride per call, not going
// past lastOctetPlusOne; as each call unwinds it yields its own
// node's covering prefixes via eachLookupPrefix before returning to
// its caller, so the most specific matches surface first.
func (n *node[V]) supernetsRec(pfx netip.Prefix, octets []byte, depth, lastOctetPlusOne int, lastBits int, is4 bool, yield func(netip.Prefix, V) bool) bool {
	if depth <= lastOctetPlusOne && depth < len(octets) {
		octet := octets[depth]

		if slot, exists := n.getChild(octet); exists {
			if fr, ok := slot.(*fringeNode[V]); ok {
				fringePfx := cidrForFringe(octets, depth, is4, octet)
				if fringePfx.Bits() <= pfx.Bits() && fringePfx.Overlaps(pfx) {
					if !yield(fringePfx, fr.value) {
						return false
					}
				}
			} else if lf, ok := slot.(*leafNode[V]); ok {
				if lf.prefix.Bits() <= pfx.Bits() && lf.prefix.Overlaps(pfx) {
					if !yield(lf.prefix, lf.value) {
						return false
					}
				}
			} else if nd, ok := slot.(*node[V]); ok {
				// descending past lastOctetPlusOne can't surface a
				// supernet of pfx: pfx's own stride ends here.
				if depth < lastOctetPlusOne && depth+1 < len(octets) {
					if !nd.supernetsRec(pfx, octets, depth+1, lastOctetPlusOne, lastBits, is4, yield) {
						return false
					}
				}
			} else {
				panic("logic error, wrong node type")
			}
		}
	}

	var idx uint8
	switch {
	case depth == lastOctetPlusOne:
		idx = art.PfxToIdx(octets[depth], lastBits)
	case depth < len(octets):
		idx = art.OctetToIdx(octets[depth])
	default:
		return true
	}

	if !n.contains(idx) {
		return true
	}

	return n.eachLookupPrefix(octets, depth, is4, idx, yield)
}

// Subnets returns an iterator, in CIDR sort order, over every stored
// prefix–value pair fully contained within pfx.
func (t *Table[V]) Subnets(pfx netip.Prefix) iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		if !pfx.IsValid() {
			return
		}
		pfx = pfx.Masked()

		ip := pfx.Addr()
		is4 := ip.Is4()
		octets := ip.AsSlice()
		lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

		n := t.rootNodeByVersion(is4)

		for depth, octet := range octets {
			if depth == lastOctetPlusOne {
				idx := art.PfxToIdx(octet, lastBits)
				_ = n.eachSubnet(octets, depth, is4, idx, yield)
				return
			}

			if !n.children.Test(octet) {
				return
			}
			kid := n.mustGetChild(octet)

			switch kid := kid.(type) {
			case *node[V]:
				n = kid
				continue

			case *leafNode[V]:
				if pfx.Bits() <= kid.prefix.Bits() && pfx.Overlaps(kid.prefix) {
					_ = yield(kid.prefix, kid.value)
				}
				return

			case *fringeNode[V]:
				fringePfx := cidrForFringe(octets, depth, is4, octet)
				if pfx.Bits() <= fringePfx.Bits() && pfx.Overlaps(fringePfx) {
					_ = yield(fringePfx, kid.value)
				}
				return

			default:
				panic("logic error, wrong node type")
			}
		}
	}
}

// All returns an iterator over every prefix–value pair in the table,
// IPv4 and IPv6 combined, in no particular order.
func (t *Table[V]) All() iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		if !t.root4.allRec(stridePath{}, 0, true, yield) {
			return
		}
		t.root6.allRec(stridePath{}, 0, false, yield)
	}
}

// All4 returns an iterator over every IPv4 prefix–value pair.
func (t *Table[V]) All4() iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		t.root4.allRec(stridePath{}, 0, true, yield)
	}
}

// All6 returns an iterator over every IPv6 prefix–value pair.
func (t *Table[V]) All6() iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		t.root6.allRec(stridePath{}, 0, false, yield)
	}
}

// AllSorted returns an iterator over every prefix–value pair in CIDR
// sort order, IPv4 routes before IPv6 routes.
func (t *Table[V]) AllSorted() iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		if !t.root4.allRecSorted(stridePath{}, 0, true, yield) {
			return
		}
		t.root6.allRecSorted(stridePath{}, 0, false, yield)
	}
}

// AllSorted4 returns an iterator over every IPv4 prefix–value pair in
// CIDR sort order.
func (t *Table[V]) AllSorted4() iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		t.root4.allRecSorted(stridePath{}, 0, true, yield)
	}
}

// AllSorted6 returns an iterator over every IPv6 prefix–value pair in
// CIDR sort order.
func (t *Table[V]) AllSorted6() iter.Seq2[netip.Prefix, V] {
	return func(yield func(netip.Prefix, V) bool) {
		t.root6.allRecSorted(stridePath{}, 0, false, yield)
	}
}

// Clone returns a deep copy of the table: every node, and every value
// that implements Cloner, is duplicated. Mutating the clone never
// affects the receiver and vice versa.
func (t *Table[V]) Clone() *Table[V] {
	cloneFn := cloneFnFactory[V]()

	c := new(Table[V])
	c.root4 = *t.root4.cloneRec(cloneFn)
	c.root6 = *t.root6.cloneRec(cloneFn)
	c.size4 = t.size4
	c.size6 = t.size6
	return c
}

// Overlaps reports whether any prefix stored in t overlaps (as
// ancestor, descendant, or equal) any prefix stored in o.
func (t *Table[V]) Overlaps(o *Table[V]) bool {
	return t.root4.overlapsRec(&o.root4) || t.root6.overlapsRec(&o.root6)
}

// OverlapsPrefix reports whether any prefix stored in the table
// overlaps pfx.
func (t *Table[V]) OverlapsPrefix(pfx netip.Prefix) bool {
	if !pfx.IsValid() {
		return false
	}
	pfx = pfx.Masked()

	is4 := pfx.Addr().Is4()
	n := t.rootNodeByVersion(is4)

	octets := pfx.Addr().AsSlice()
	lastOctetPlusOne, lastBits := lastOctetPlusOneAndLastBits(pfx)

	for depth, octet := range octets {
		if depth == lastOctetPlusOne {
			idx := art.PfxToIdx(octet, lastBits)
			return n.contains(idx) || subtreeOverlapsIdx(n, idx)
		}

		if n.prefixCount() != 0 && n.contains(art.OctetToIdx(octet)) {
			return true
		}

		if !n.children.Test(octet) {
			return false
		}
		kid := n.mustGetChild(octet)

		switch kid := kid.(type) {
		case *node[V]:
			n = kid
		case *leafNode[V]:
			return kid.prefix.Overlaps(pfx)
		case *fringeNode[V]:
			return true
		default:
			panic("logic error, wrong node type")
		}
	}
	return false
}

// subtreeOverlapsIdx reports whether idx (an exact-stride prefix
// ending in n) has any more specific route below it: either a more
// specific entry in n's own prefix table, or any child whose address
// falls within idx's covered octet range.
func subtreeOverlapsIdx[V any](n *node[V], idx uint8) bool {
	var buf [256]uint8
	for _, otherIdx := range n.prefixes.AsSlice(&buf) {
		if lpm.LookupTbl[otherIdx].Test(idx) {
			return true
		}
	}

	first, last := art.IdxToRange(idx)
	for _, addr := range n.children.AsSlice(&buf) {
		if addr >= first && addr <= last {
			return true
		}
	}
	return false
}

// UnionConflict decides what happens when a prefix is present in
// both tables during a Union. It receives the existing and the
// incoming value, and returns the value to keep.
type UnionConflict[V any] func(existing, incoming V) V

// Union merges every prefix of o into t, using resolve to decide the
// resulting value when a prefix exists in both tables. If resolve is
// nil, incoming values from o win.
func (t *Table[V]) Union(o *Table[V], resolve UnionConflict[V]) {
	if resolve == nil {
		resolve = func(_, incoming V) V { return incoming }
	}
	for pfx, val := range o.All() {
		t.Update(pfx, func(existing V, found bool) V {
			if !found {
				return val
			}
			return resolve(existing, val)
		})
	}
}

// UnionPersist is Union, but applied to a deep Clone of the receiver,
// which is returned; the receiver is left unmodified. The result
// shares no structure with the receiver.
func (t *Table[V]) UnionPersist(o *Table[V], resolve UnionConflict[V]) *Table[V] {
	pt := t.Clone()
	pt.Union(o, resolve)
	return pt
}
