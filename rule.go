// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package flowsort

import (
	"cmp"
	"slices"

	"github.com/flowsort/flowsort/internal/interval"
)

// Point is one projected packet field.
type Point = uint32

// FieldRange is one field specifier of a rule. The same two words carry
// both representations; the owning rule's Contiguous flag selects the
// interpretation:
//
//   - contiguous: the inclusive range [Lo, Hi]
//   - discontiguous: Lo holds the masked value, Hi the bitmask
//
// For contiguous rules the two forms convert freely: Lo = value and
// Hi = value | ^mask.
type FieldRange struct {
	Lo, Hi Point
}

// Range returns the range form of a field specifier.
func Range(lo, hi Point) FieldRange { return FieldRange{lo, hi} }

// ValueMask returns the value/mask form of a field specifier. The
// stored value is masked, so Value&Mask == Value always holds.
func ValueMask(value, mask Point) FieldRange {
	return FieldRange{value & mask, mask}
}

// Value of the value/mask interpretation.
func (f FieldRange) Value() Point { return f.Lo }

// Mask of the value/mask interpretation.
func (f FieldRange) Mask() Point { return f.Hi }

// toRange rewrites a prefix-masked value/mask specifier into range
// form: the low end is the masked value, the high end has all
// unspecified bits set.
func (f FieldRange) toRange() FieldRange {
	return FieldRange{f.Lo, f.Lo | ^f.Hi}
}

// contains reports whether p lies inside the range interpretation.
func (f FieldRange) contains(p Point) bool {
	return p >= f.Lo && p <= f.Hi
}

// ival adapts the range interpretation for the interval package.
func (f FieldRange) ival() interval.Interval {
	return interval.Interval{Lo: f.Lo, Hi: f.Hi}
}

// wildcard is the range form of the unrestricted field, [0, 0xffffffff].
// Read as value/mask it would be an exact match on 0; the value/mask
// form of the unrestricted field is wildcardMask.
var wildcard = FieldRange{0, 0xffffffff}

// wildcardMask is the value/mask form of the unrestricted field.
var wildcardMask = FieldRange{0, 0}

// Rule is the canonical form of one flow table entry. All rules inside
// one classifier instance share the same dimension and field order.
type Rule struct {
	// Priority wins classification; higher is better. Ties between
	// rules matching the same packet resolve deterministically by
	// insertion order.
	Priority int64

	// Fields holds one specifier per classification field, in the
	// instance field order chosen by ChooseFields.
	Fields []FieldRange

	// PrefixLen counts the specified bits per field (the popcount of
	// the mask).
	PrefixLen []uint32

	// Contiguous is derived once at projection time: true iff every
	// field mask is a prefix mask. It selects the interpretation of
	// Fields and never changes afterwards.
	Contiguous bool

	// Master is the opaque handle of the originating flow, returned
	// verbatim on a classification match.
	Master any

	// id is the rule's slot in the owning PartitionSort, maintained by
	// it for constant-time deletion. -1 while unowned.
	id int
}

// Dim returns the number of classification fields.
func (r *Rule) Dim() int { return len(r.Fields) }

// MatchesPoints reports whether the packet point vector lies inside the
// rule's ranges. Only meaningful for contiguous rules.
func (r *Rule) MatchesPoints(p []Point) bool {
	for i, f := range r.Fields {
		if !f.contains(p[i]) {
			return false
		}
	}
	return true
}

// MatchesMask reports whether the packet point vector matches the
// rule's value/mask specifiers. Only meaningful for discontiguous
// rules.
func (r *Rule) MatchesMask(p []Point) bool {
	for i, f := range r.Fields {
		if p[i]&f.Mask() != f.Value() {
			return false
		}
	}
	return true
}

// Matches dispatches on the rule's representation.
func (r *Rule) Matches(p []Point) bool {
	if r.Contiguous {
		return r.MatchesPoints(p)
	}
	return r.MatchesMask(p)
}

// Specificity buckets for seeding the field order of a fresh tree from
// a single rule: exact match, narrow range, wide range, wildcard-like.
const (
	rankExact = iota
	rankNarrow
	rankWide
	rankWildcard
)

// fieldRank buckets one field by the length of its range.
func fieldRank(f FieldRange) int {
	length := f.Hi - f.Lo + 1 // wraps to 0 for the full range
	switch {
	case length == 1:
		return rankExact
	case length == 0:
		return rankWildcard
	case length <= 1<<16:
		return rankNarrow
	case length <= 1<<31:
		return rankWide
	default:
		return rankWildcard
	}
}

// fieldOrderForRule ranks each field of a single rule by specificity
// and returns the field indices most-specific first. Ties keep the
// natural field order. PartitionSort seeds every fresh tree with it.
func fieldOrderForRule(r *Rule) []int {
	order := make([]int, r.Dim())
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(fieldRank(r.Fields[a]), fieldRank(r.Fields[b]))
	})
	return order
}
