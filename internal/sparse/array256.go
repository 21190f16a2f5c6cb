// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package sparse implements a special sparse array
// with popcount compression for max. 256 items.
package sparse

import (
	"github.com/katsuoss/fibtrie/internal/bitset"
)

// Array256 is a generic implementation of a sparse array
// with popcount compression for max. 256 items with payload T.
type Array256[T any] struct {
	bitset.BitSet256
	Items []T
}

// MustSet of the underlying bitset is forbidden. The bitset and the items are coupled.
// An unsynchronized MustSet disturbs the coupling between bitset and Items.
func (a *Array256[T]) MustSet(uint8) {
	panic("forbidden, use InsertAt")
}

// MustClear of the underlying bitset is forbidden. The bitset and the items are coupled.
// An unsynchronized MustClear disturbs the coupling between bitset and Items.
func (a *Array256[T]) MustClear(uint8) {
	panic("forbidden, use DeleteAt")
}

// Get the value at i from the sparse array.
func (a *Array256[T]) Get(i uint8) (value T, ok bool) {
	if a.Test(i) {
		return a.Items[a.Rank0(i)], true
	}
	return
}

// MustGet use it only after a successful Test, or the behavior is
// undefined: it may return another item's value or panic.
func (a *Array256[T]) MustGet(i uint8) T {
	return a.Items[a.Rank0(i)]
}

// UpdateAt or set the value at i via callback. The new value is
// returned along with whether the value was already present.
func (a *Array256[T]) UpdateAt(i uint8, cb func(T, bool) T) (newValue T, wasPresent bool) {
	var rank0 int
	var oldValue T

	if wasPresent = a.Test(i); wasPresent {
		rank0 = a.Rank0(i)
		oldValue = a.Items[rank0]
	}

	newValue = cb(oldValue, wasPresent)

	if wasPresent {
		a.Items[rank0] = newValue
		return newValue, wasPresent
	}

	a.BitSet256.MustSet(i)
	rank0 = a.Rank0(i)
	a.insertItem(rank0, newValue)

	return newValue, wasPresent
}

// Len returns the number of items in the sparse array.
func (a *Array256[T]) Len() int {
	return len(a.Items)
}

// Copy returns a shallow copy of the array. The elements are copied by
// assignment, this is no deep clone.
func (a *Array256[T]) Copy() *Array256[T] {
	if a == nil {
		return nil
	}
	return &Array256[T]{
		BitSet256: a.BitSet256,
		Items:     append(a.Items[:0:0], a.Items...),
	}
}

// InsertAt inserts a value at i into the sparse array.
// If the value already exists, overwrite it with val and return true.
func (a *Array256[T]) InsertAt(i uint8, value T) (exists bool) {
	if a.Test(i) {
		a.Items[a.Rank0(i)] = value
		return true
	}

	a.BitSet256.MustSet(i)
	a.insertItem(a.Rank0(i), value)

	return false
}

// DeleteAt deletes the value at i from the sparse array, zeroing the tail.
func (a *Array256[T]) DeleteAt(i uint8) (value T, exists bool) {
	if a.Len() == 0 || !a.Test(i) {
		return
	}

	rank0 := a.Rank0(i)
	value = a.Items[rank0]

	a.deleteItem(rank0)
	a.BitSet256.MustClear(i)

	return value, true
}

// insertItem inserts the item at index i, shifting the rest one
// position right. It panics if i is out of range.
func (a *Array256[T]) insertItem(i int, item T) {
	if len(a.Items) < cap(a.Items) {
		a.Items = a.Items[:len(a.Items)+1]
	} else {
		var zero T
		a.Items = append(a.Items, zero)
	}

	_ = a.Items[i]
	copy(a.Items[i+1:], a.Items[i:])
	a.Items[i] = item
}

// deleteItem removes the item at index i, shifting the rest one
// position left and clearing the tail item. It panics if i is out of
// range.
func (a *Array256[T]) deleteItem(i int) {
	var zero T

	_ = a.Items[i]
	copy(a.Items[i:], a.Items[i+1:])

	nl := len(a.Items) - 1

	a.Items[nl] = zero
	a.Items = a.Items[:nl]
}
