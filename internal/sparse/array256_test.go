// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package sparse

import (
	"math/rand/v2"
	"testing"
)

func TestNewArray(t *testing.T) {
	t.Parallel()
	a := new(Array256[int])

	if c := a.Len(); c != 0 {
		t.Errorf("Len, want 0, got %d", c)
	}
}

func TestInsertAtDeleteAt(t *testing.T) {
	t.Parallel()
	a := new(Array256[int])

	for i := range 255 {
		if exists := a.InsertAt(uint8(i), i); exists {
			t.Errorf("InsertAt(%d) first time reported exists=true", i)
		}
		if exists := a.InsertAt(uint8(i), i*2); !exists {
			t.Errorf("InsertAt(%d) second time reported exists=false", i)
		}
	}
	if c := a.Len(); c != 255 {
		t.Errorf("Len, want 255, got %d", c)
	}

	for i := range 128 {
		if _, exists := a.DeleteAt(uint8(i)); !exists {
			t.Errorf("DeleteAt(%d) first time reported exists=false", i)
		}
		if _, exists := a.DeleteAt(uint8(i)); exists {
			t.Errorf("DeleteAt(%d) second time reported exists=true", i)
		}
	}
	if c := a.Len(); c != 127 {
		t.Errorf("Len after deletes, want 127, got %d", c)
	}
}

func TestGetMustGet(t *testing.T) {
	t.Parallel()
	a := new(Array256[int])

	for i := range 255 {
		a.InsertAt(uint8(i), i)
	}

	for range 100 {
		i := rand.IntN(255)
		v, ok := a.Get(uint8(i))
		if !ok {
			t.Fatalf("Get(%d), want ok=true", i)
		}
		if v != i {
			t.Errorf("Get(%d) = %d, want %d", i, v, i)
		}
		if v := a.MustGet(uint8(i)); v != i {
			t.Errorf("MustGet(%d) = %d, want %d", i, v, i)
		}
	}

	a.DeleteAt(0)
	if _, ok := a.Get(0); ok {
		t.Errorf("Get(0) after delete, want ok=false")
	}
}

func TestMustSetMustClearPanic(t *testing.T) {
	t.Parallel()

	t.Run("MustSet", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("MustSet on Array256 should panic")
			}
		}()
		a := new(Array256[int])
		a.MustSet(0)
	})

	t.Run("MustClear", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("MustClear on Array256 should panic")
			}
		}()
		a := new(Array256[int])
		a.MustClear(0)
	})
}

func TestUpdateAt(t *testing.T) {
	t.Parallel()
	a := new(Array256[int])

	for i := range 100 {
		a.InsertAt(uint8(i), i)
	}

	for i := 150; i >= 0; i-- {
		a.UpdateAt(uint8(i), func(old int, existed bool) int {
			if existed {
				return old * 2
			}
			return i * 3
		})
	}

	for i := range 100 {
		if v, _ := a.Get(uint8(i)); v != 2*i {
			t.Errorf("UpdateAt existing %d: got %d, want %d", i, v, 2*i)
		}
	}
	for i := 100; i <= 150; i++ {
		if v, _ := a.Get(uint8(i)); v != 3*i {
			t.Errorf("UpdateAt new %d: got %d, want %d", i, v, 3*i)
		}
	}
}

func TestCopyIsIndependent(t *testing.T) {
	t.Parallel()
	a := new(Array256[int])
	a.InsertAt(1, 10)
	a.InsertAt(2, 20)

	b := a.Copy()
	b.InsertAt(3, 30)
	b.InsertAt(1, 999)

	if a.Len() != 2 {
		t.Errorf("original array mutated by copy's insert, len=%d", a.Len())
	}
	if v, _ := a.Get(1); v != 10 {
		t.Errorf("original array's value mutated by copy, got %d, want 10", v)
	}
	if v, _ := b.Get(1); v != 999 {
		t.Errorf("copy not updated, got %d, want 999", v)
	}
}

func TestCopyNil(t *testing.T) {
	t.Parallel()
	var a *Array256[int]
	if got := a.Copy(); got != nil {
		t.Errorf("Copy of nil array should be nil, got %v", got)
	}
}

func TestOrderPreserved(t *testing.T) {
	t.Parallel()
	a := new(Array256[uint8])
	for _, i := range []uint8{200, 5, 100, 0, 255, 50} {
		a.InsertAt(i, i)
	}

	var buf [256]uint8
	idxs := a.AsSlice(&buf)
	for i := 1; i < len(idxs); i++ {
		if idxs[i-1] >= idxs[i] {
			t.Fatalf("AsSlice not ascending: %v", idxs)
		}
	}
	for i, idx := range idxs {
		if a.Items[i] != idx {
			t.Errorf("Items[%d] = %d, want %d (stored under same key)", i, a.Items[i], idx)
		}
	}
}
