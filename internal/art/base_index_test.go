// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package art

import "testing"

func TestPfxToIdx(t *testing.T) {
	t.Parallel()

	tests := []struct {
		octet  uint8
		pfxLen int
		want   uint8
	}{
		{0, 0, 1},
		{255, 0, 1},
		{0, 1, 2},
		{128, 1, 3},
		{0, 7, 128},
		{255, 7, 255},
		{10, 8 - 8, 1}, // pfxLen 0 again, any octet maps to root
	}

	for _, tc := range tests {
		if got := PfxToIdx(tc.octet, tc.pfxLen); got != tc.want {
			t.Errorf("PfxToIdx(%d, %d) = %d, want %d", tc.octet, tc.pfxLen, got, tc.want)
		}
	}
}

func TestOctetToIdxMatchesPfxToIdx7(t *testing.T) {
	t.Parallel()
	for octet := range 256 {
		o := uint8(octet)
		if got, want := OctetToIdx(o), PfxToIdx(o, 7); got != want {
			t.Errorf("OctetToIdx(%d) = %d, want PfxToIdx(_, 7) = %d", o, got, want)
		}
	}
}

func TestIdxToPfxRoundTrip(t *testing.T) {
	t.Parallel()
	for idx := 1; idx <= 255; idx++ {
		octet, pfxLen := IdxToPfx(uint8(idx))
		back := PfxToIdx(octet, pfxLen)
		if back != uint8(idx) {
			t.Errorf("round trip idx=%d: IdxToPfx -> (%d,%d) -> PfxToIdx -> %d", idx, octet, pfxLen, back)
		}
	}
}

func TestIdxToPfxKnown(t *testing.T) {
	t.Parallel()
	tests := []struct {
		idx        uint8
		wantOctet  uint8
		wantPfxLen int
	}{
		{1, 0, 0},
		{2, 0, 1},
		{3, 128, 1},
		{128, 0, 7},
		{255, 254, 7},
	}

	for _, tc := range tests {
		octet, pfxLen := IdxToPfx(tc.idx)
		if octet != tc.wantOctet || pfxLen != tc.wantPfxLen {
			t.Errorf("IdxToPfx(%d) = (%d, %d), want (%d, %d)", tc.idx, octet, pfxLen, tc.wantOctet, tc.wantPfxLen)
		}
	}
}

func TestNetMask(t *testing.T) {
	t.Parallel()
	tests := []struct {
		pfxLen int
		want   uint8
	}{
		{0, 0b0000_0000},
		{1, 0b1000_0000},
		{4, 0b1111_0000},
		{7, 0b1111_1110},
		{8, 0b1111_1111},
	}
	for _, tc := range tests {
		if got := NetMask(tc.pfxLen); got != tc.want {
			t.Errorf("NetMask(%d) = %08b, want %08b", tc.pfxLen, got, tc.want)
		}
	}
}

func TestIdxToRange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		idx        uint8
		wantFirst  uint8
		wantLast   uint8
	}{
		{1, 0, 255},   // /0: covers everything
		{2, 0, 127},   // 0/1
		{3, 128, 255}, // 128/1
		{128, 0, 1},   // 0/7
		{255, 254, 255},
	}
	for _, tc := range tests {
		first, last := IdxToRange(tc.idx)
		if first != tc.wantFirst || last != tc.wantLast {
			t.Errorf("IdxToRange(%d) = (%d, %d), want (%d, %d)", tc.idx, first, last, tc.wantFirst, tc.wantLast)
		}
	}
}

func TestPfxBits(t *testing.T) {
	t.Parallel()
	tests := []struct {
		depth int
		idx   uint8
		want  uint8
	}{
		{0, 1, 0},
		{0, 128, 7},
		{1, 1, 8},
		{2, 2, 17},
	}
	for _, tc := range tests {
		if got := PfxBits(tc.depth, tc.idx); got != tc.want {
			t.Errorf("PfxBits(%d, %d) = %d, want %d", tc.depth, tc.idx, got, tc.want)
		}
	}
}
