// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package bitset

import (
	"slices"
	"testing"
)

func TestZeroValue(t *testing.T) {
	t.Parallel()
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("a zero value bitset must not panic: %v", r)
		}
	}()

	var b BitSet256

	b = BitSet256{}
	b.MustSet(0)

	b = BitSet256{}
	b.MustClear(100)

	b = BitSet256{}
	b.Size()

	b = BitSet256{}
	b.Rank0(100)

	b = BitSet256{}
	b.Test(42)

	b = BitSet256{}
	b.FirstSet()

	b = BitSet256{}
	b.NextSet(0)

	b = BitSet256{}
	var buf [256]uint8
	b.AsSlice(&buf)

	b = BitSet256{}
	b.All()

	b = BitSet256{}
	c := BitSet256{}
	b = b.Union(&c)

	b = BitSet256{}
	c = BitSet256{}
	b = b.Intersection(&c)

	b = BitSet256{}
	c = BitSet256{}
	b.Intersects(&c)

	b = BitSet256{}
	c = BitSet256{}
	b.IntersectionTop(&c)
}

func TestTest(t *testing.T) {
	t.Parallel()
	var b BitSet256
	b.MustSet(100)
	if !b.Test(100) {
		t.Errorf("Test(100) is false")
	}
	if b.Test(99) {
		t.Errorf("Test(99) is true, want false")
	}
}

func TestString(t *testing.T) {
	t.Parallel()
	var bs BitSet256
	bs.MustSet(0)
	bs.MustSet(42)
	bs.MustSet(255)

	want := "[0 42 255]"
	got := bs.String()
	if got != want {
		t.Errorf("String(), want: %s, got: %s", want, got)
	}
}

func TestFirstSet(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		set     []uint8
		wantIdx uint8
		wantOk  bool
	}{
		{name: "empty", set: nil, wantIdx: 0, wantOk: false},
		{name: "zero", set: []uint8{0}, wantIdx: 0, wantOk: true},
		{name: "1,5", set: []uint8{1, 5}, wantIdx: 1, wantOk: true},
		{name: "2nd word", set: []uint8{70, 255}, wantIdx: 70, wantOk: true},
		{name: "3rd word", set: []uint8{150, 255}, wantIdx: 150, wantOk: true},
		{name: "4th word", set: []uint8{233, 255}, wantIdx: 233, wantOk: true},
	}

	for _, tc := range testCases {
		var b BitSet256
		for _, u := range tc.set {
			b.MustSet(u)
		}

		idx, ok := b.FirstSet()
		if ok != tc.wantOk {
			t.Errorf("FirstSet, %s: got ok=%v, want %v", tc.name, ok, tc.wantOk)
		}
		if idx != tc.wantIdx {
			t.Errorf("FirstSet, %s: got idx=%d, want %d", tc.name, idx, tc.wantIdx)
		}
	}
}

func TestNextSet(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name    string
		set     []uint8
		del     []uint8
		start   uint8
		wantIdx uint8
		wantOk  bool
	}{
		{name: "empty", start: 0, wantIdx: 0, wantOk: false},
		{name: "zero", set: []uint8{0}, start: 0, wantIdx: 0, wantOk: true},
		{name: "1,5 from 0", set: []uint8{1, 5}, start: 0, wantIdx: 1, wantOk: true},
		{name: "1,5 from 2", set: []uint8{1, 5}, start: 2, wantIdx: 5, wantOk: true},
		{name: "1,5 from 6", set: []uint8{1, 5}, start: 6, wantIdx: 0, wantOk: false},
		{name: "1,5,7 del 5", set: []uint8{1, 5, 7}, del: []uint8{5}, start: 2, wantIdx: 7, wantOk: true},
		{name: "2nd word", set: []uint8{1, 70, 255}, start: 2, wantIdx: 70, wantOk: true},
	}

	for _, tc := range testCases {
		var b BitSet256
		for _, u := range tc.set {
			b.MustSet(u)
		}
		for _, u := range tc.del {
			b.MustClear(u)
		}

		idx, ok := b.NextSet(tc.start)
		if ok != tc.wantOk {
			t.Errorf("NextSet, %s: got ok=%v, want %v", tc.name, ok, tc.wantOk)
		}
		if idx != tc.wantIdx {
			t.Errorf("NextSet, %s: got idx=%d, want %d", tc.name, idx, tc.wantIdx)
		}
	}
}

func TestIsEmpty(t *testing.T) {
	t.Parallel()
	var b BitSet256
	if !b.IsEmpty() {
		t.Errorf("zero value should be empty")
	}
	b.MustSet(42)
	if b.IsEmpty() {
		t.Errorf("set bitset should not be empty")
	}
	b.MustClear(42)
	if !b.IsEmpty() {
		t.Errorf("cleared last bit should be empty again")
	}
}

func TestAllAndAsSlice(t *testing.T) {
	t.Parallel()
	want := []uint8{1, 65, 130, 190, 250}

	var b BitSet256
	for _, u := range want {
		b.MustSet(u)
	}

	if got := b.All(); !slices.Equal(got, want) {
		t.Errorf("All(): got %v, want %v", got, want)
	}

	var buf [256]uint8
	if got := b.AsSlice(&buf); !slices.Equal(got, want) {
		t.Errorf("AsSlice(): got %v, want %v", got, want)
	}
}

func TestSize(t *testing.T) {
	t.Parallel()
	var b BitSet256
	for i := range uint8(255) {
		if sz := b.Size(); sz != int(i) {
			t.Fatalf("Size() = %d, want %d", sz, i)
		}
		b.MustSet(i)
	}
	if sz := b.Size(); sz != 255 {
		t.Errorf("Size() = %d, want 255", sz)
	}
}

func TestUnion(t *testing.T) {
	t.Parallel()
	var a, b BitSet256
	for i := uint8(1); i < 100; i += 2 {
		a.MustSet(i)
		b.MustSet(i - 1)
	}
	for i := uint8(100); i < 200; i++ {
		b.MustSet(i)
	}

	c := a.Union(&b)
	if c.Size() != 200 {
		t.Errorf("Union size = %d, want 200", c.Size())
	}
}

func TestIntersection(t *testing.T) {
	t.Parallel()
	var a, b BitSet256
	for i := uint8(1); i < 100; i += 2 {
		a.MustSet(i)
		b.MustSet(i - 1)
		b.MustSet(i)
	}
	for i := uint8(100); i < 200; i++ {
		b.MustSet(i)
	}

	c := a.Intersection(&b)
	if c.Size() != 50 {
		t.Errorf("Intersection size = %d, want 50", c.Size())
	}
	if got := a.IntersectionCardinality(&b); got != 50 {
		t.Errorf("IntersectionCardinality = %d, want 50", got)
	}
}

func TestIntersects(t *testing.T) {
	t.Parallel()
	var a, b BitSet256

	for i := uint8(1); i < 100; i++ {
		a.MustSet(i)
	}
	for i := uint8(100); i < 200; i++ {
		b.MustSet(i)
	}

	if a.Intersects(&b) {
		t.Errorf("disjoint sets reported as intersecting")
	}

	b = a
	if !a.Intersects(&b) {
		t.Errorf("identical sets reported as not intersecting")
	}
}

func TestIntersectionTop(t *testing.T) {
	t.Parallel()
	var a, b BitSet256
	for i := uint8(1); i < 100; i += 2 {
		a.MustSet(i)
		b.MustSet(i - 1)
		b.MustSet(i)
	}
	for i := uint8(100); i < 200; i++ {
		b.MustSet(i)
	}

	wantTop, wantOk := uint8(99), true
	gotTop, gotOk := a.IntersectionTop(&b)
	if gotOk != wantOk || gotTop != wantTop {
		t.Errorf("IntersectionTop = (%d, %v), want (%d, %v)", gotTop, gotOk, wantTop, wantOk)
	}

	var empty BitSet256
	if _, ok := a.IntersectionTop(&empty); ok {
		t.Errorf("IntersectionTop against empty set should not be ok")
	}
}

func TestRank0(t *testing.T) {
	t.Parallel()
	set := []uint8{0, 3, 5, 7, 11, 62, 63, 64, 70, 150, 255}

	tests := []struct {
		idx  uint8
		want int
	}{
		{idx: 0, want: 0},
		{idx: 1, want: 0},
		{idx: 3, want: 1},
		{idx: 62, want: 5},
		{idx: 63, want: 6},
		{idx: 64, want: 7},
		{idx: 150, want: 9},
		{idx: 254, want: 9},
		{idx: 255, want: 10},
	}

	var b BitSet256
	for _, u := range set {
		b.MustSet(u)
	}

	for _, tc := range tests {
		if got := b.Rank0(tc.idx); got != tc.want {
			t.Errorf("Rank0(%d) = %d, want %d", tc.idx, got, tc.want)
		}
	}
}
