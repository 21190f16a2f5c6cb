// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package golden

import (
	"net/netip"

	"github.com/bits-and-blooms/bitset"
)

// CoverageSet is a brute-force address-coverage checker: given a
// fixed sample of probe addresses, it marks every address covered by
// at least one marked prefix. The property tests in this module do
// not use it.
//
// Unlike the hot-path bitset used by the trie itself, this is a
// dynamically sized, allocation-tolerant set, since the golden model
// has no reason to avoid one.
type CoverageSet struct {
	probes []netip.Addr
	set    *bitset.BitSet
}

// NewCoverageSet builds a CoverageSet over the given probe addresses.
func NewCoverageSet(probes []netip.Addr) *CoverageSet {
	return &CoverageSet{
		probes: probes,
		set:    bitset.New(uint(len(probes))),
	}
}

// Mark sets every probe address covered by pfx.
func (c *CoverageSet) Mark(pfx netip.Prefix) {
	for i, addr := range c.probes {
		if pfx.Contains(addr) {
			c.set.Set(uint(i))
		}
	}
}

// Covered reports whether the probe at index i is covered by any
// prefix marked so far.
func (c *CoverageSet) Covered(i int) bool {
	return c.set.Test(uint(i))
}

// Len returns the number of probe addresses.
func (c *CoverageSet) Len() int {
	return len(c.probes)
}

// Probe returns the probe address at index i.
func (c *CoverageSet) Probe(i int) netip.Addr {
	return c.probes[i]
}

// IntersectsAny reports whether c and o share any covered probe
// index. It compares by index only, so the result is meaningful only
// for two sets built over the same probe sample.
func (c *CoverageSet) IntersectsAny(o *CoverageSet) bool {
	return c.set.IntersectionCardinality(o.set) > 0
}
