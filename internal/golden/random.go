// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package golden

import (
	"math/rand/v2"
)

// RandomRule returns a rule over dim fields. Roughly one in four rules
// is discontiguous, mirroring real flow tables where most masks are
// prefixes. Field shapes mix exact values, prefixes of varying length
// and wildcards.
func RandomRule(prng *rand.Rand, dim int) *Rule {
	r := &Rule{
		Priority:   int64(prng.IntN(1 << 16)),
		Lo:         make([]uint32, dim),
		Hi:         make([]uint32, dim),
		Value:      make([]uint32, dim),
		Mask:       make([]uint32, dim),
		Contiguous: prng.IntN(4) != 0,
	}
	for i := range dim {
		v := prng.Uint32()
		var mask uint32
		switch prng.IntN(4) {
		case 0: // exact
			mask = 0xffffffff
		case 1: // wildcard
			mask = 0
		default: // prefix of random length
			mask = ^uint32(0) << prng.IntN(33)
		}
		if !r.Contiguous && prng.IntN(2) == 0 {
			// arbitrary bitmask
			mask = prng.Uint32()
		}
		r.Value[i] = v & mask
		r.Mask[i] = mask
		r.Lo[i] = v & mask
		r.Hi[i] = (v & mask) | ^mask
	}
	return r
}

// RandomContiguousRule returns a rule whose masks are all prefixes.
func RandomContiguousRule(prng *rand.Rand, dim int) *Rule {
	for {
		r := RandomRule(prng, dim)
		if r.Contiguous {
			return r
		}
	}
}

// RandomRules returns n independent random rules.
func RandomRules(prng *rand.Rand, n, dim int) []*Rule {
	rules := make([]*Rule, n)
	for i := range rules {
		rules[i] = RandomRule(prng, dim)
	}
	return rules
}

// RandomPacket returns a point vector. With probability one half the
// packet is biased into some rule's range so matches actually occur.
func RandomPacket(prng *rand.Rand, rules []*Rule, dim int) []uint32 {
	p := make([]uint32, dim)
	if len(rules) > 0 && prng.IntN(2) == 0 {
		r := rules[prng.IntN(len(rules))]
		for i := range p {
			if r.Contiguous {
				width := uint64(r.Hi[i]) - uint64(r.Lo[i]) + 1
				p[i] = r.Lo[i] + uint32(prng.Uint64N(width))
			} else {
				p[i] = r.Value[i] | (prng.Uint32() &^ r.Mask[i])
			}
		}
		return p
	}
	for i := range p {
		p[i] = prng.Uint32()
	}
	return p
}
