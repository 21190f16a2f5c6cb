// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package golden implements a deliberately slow, obviously correct
// reference routing table, used by property-based tests to
// cross-check the trie implementation under randomized operations.
package golden

import (
	"cmp"
	"fmt"
	"net/netip"
	"slices"
)

// Table is a simple and slow route table, implemented as a slice of
// prefixes and values, used as a golden reference.
type Table[V any] []TableItem[V]

// TableItem is one (prefix, value) entry of a Table.
type TableItem[V any] struct {
	Pfx netip.Prefix
	Val V
}

func (t TableItem[V]) String() string {
	return fmt.Sprintf("(%s, %v)", t.Pfx, t.Val)
}

// Insert adds or overwrites pfx with val.
func (t *Table[V]) Insert(pfx netip.Prefix, val V) {
	pfx = pfx.Masked()
	for i, item := range *t {
		if item.Pfx == pfx {
			(*t)[i].Val = val
			return
		}
	}
	*t = append(*t, TableItem[V]{pfx, val})
}

// Delete removes pfx, reporting whether it was present.
func (t *Table[V]) Delete(pfx netip.Prefix) (exists bool) {
	pfx = pfx.Masked()

	for i, item := range *t {
		if item.Pfx == pfx {
			*t = slices.Delete(*t, i, i+1)
			return true
		}
	}
	return false
}

// AllSorted returns every stored prefix, in CIDR sort order.
func (t Table[V]) AllSorted() []netip.Prefix {
	var result []netip.Prefix

	for _, item := range t {
		result = append(result, item.Pfx)
	}
	slices.SortFunc(result, CmpPrefix)
	return result
}

// Get returns the value stored exactly at pfx.
func (t Table[V]) Get(pfx netip.Prefix) (val V, ok bool) {
	pfx = pfx.Masked()
	for _, item := range t {
		if item.Pfx == pfx {
			return item.Val, true
		}
	}
	return val, false
}

// Update sets or updates the value at pfx via callback.
func (t *Table[V]) Update(pfx netip.Prefix, cb func(V, bool) V) (val V) {
	pfx = pfx.Masked()
	for i, item := range *t {
		if item.Pfx == pfx {
			val = cb(item.Val, true)
			(*t)[i].Val = val
			return val
		}
	}
	val = cb(val, false)

	*t = append(*t, TableItem[V]{pfx, val})
	return val
}

// Union merges tb's entries into ta, tb's values winning conflicts.
func (ta *Table[V]) Union(tb *Table[V]) {
	for _, bItem := range *tb {
		var match bool
		for i, aItem := range *ta {
			if aItem.Pfx == bItem.Pfx {
				(*ta)[i] = bItem
				match = true
				break
			}
		}
		if !match {
			*ta = append(*ta, bItem)
		}
	}
}

// Lookup performs a naive linear-scan longest-prefix match.
func (t Table[V]) Lookup(addr netip.Addr) (val V, ok bool) {
	bestLen := -1

	for _, item := range t {
		if item.Pfx.Contains(addr) && item.Pfx.Bits() > bestLen {
			val = item.Val
			ok = true
			bestLen = item.Pfx.Bits()
		}
	}
	return val, ok
}

// LookupPrefix performs a naive linear-scan longest-prefix match
// among prefixes no more specific than pfx.
func (t Table[V]) LookupPrefix(pfx netip.Prefix) (val V, ok bool) {
	pfx = pfx.Masked()
	bestLen := -1

	for _, item := range t {
		if item.Pfx.Overlaps(pfx) && item.Pfx.Bits() <= pfx.Bits() && item.Pfx.Bits() > bestLen {
			val = item.Val
			ok = true
			bestLen = item.Pfx.Bits()
		}
	}
	return val, ok
}

// LookupPrefixLPM is LookupPrefix, also returning the matched prefix.
func (t Table[V]) LookupPrefixLPM(pfx netip.Prefix) (lpmPfx netip.Prefix, val V, ok bool) {
	pfx = pfx.Masked()
	bestLen := -1

	for _, item := range t {
		if item.Pfx.Overlaps(pfx) && item.Pfx.Bits() <= pfx.Bits() && item.Pfx.Bits() > bestLen {
			val = item.Val
			lpmPfx = item.Pfx
			ok = true
			bestLen = item.Pfx.Bits()
		}
	}
	return lpmPfx, val, ok
}

// Subnets returns, in CIDR sort order, every stored prefix contained
// within pfx.
func (t Table[V]) Subnets(pfx netip.Prefix) []netip.Prefix {
	pfx = pfx.Masked()
	var result []netip.Prefix

	for _, item := range t {
		if pfx.Overlaps(item.Pfx) && pfx.Bits() <= item.Pfx.Bits() {
			result = append(result, item.Pfx)
		}
	}
	slices.SortFunc(result, CmpPrefix)
	return result
}

// Supernets returns, most specific first, every stored prefix that
// covers pfx.
func (t Table[V]) Supernets(pfx netip.Prefix) []netip.Prefix {
	pfx = pfx.Masked()
	var result []netip.Prefix

	for _, item := range t {
		if item.Pfx.Overlaps(pfx) && item.Pfx.Bits() <= pfx.Bits() {
			result = append(result, item.Pfx)
		}
	}
	slices.SortFunc(result, CmpPrefix)
	slices.Reverse(result)
	return result
}

// OverlapsPrefix reports whether any stored prefix overlaps pfx.
func (t Table[V]) OverlapsPrefix(pfx netip.Prefix) bool {
	pfx = pfx.Masked()
	for _, p := range t {
		if p.Pfx.Overlaps(pfx) {
			return true
		}
	}
	return false
}

// Overlaps reports whether any prefix of ta overlaps any prefix of tb.
func (ta *Table[V]) Overlaps(tb *Table[V]) bool {
	for _, aItem := range *ta {
		for _, bItem := range *tb {
			if aItem.Pfx.Overlaps(bItem.Pfx) {
				return true
			}
		}
	}
	return false
}

// Sort sorts the table in place by prefix.
func (t *Table[V]) Sort() {
	slices.SortFunc(*t, func(a, b TableItem[V]) int {
		return CmpPrefix(a.Pfx, b.Pfx)
	})
}

// CmpPrefix orders two already-normalized prefixes for CIDR sort
// order: by address, then by prefix length.
func CmpPrefix(a, b netip.Prefix) int {
	if cmpAddr := a.Addr().Compare(b.Addr()); cmpAddr != 0 {
		return cmpAddr
	}
	return cmp.Compare(a.Bits(), b.Bits())
}
