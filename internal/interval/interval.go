// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

// Package interval implements the interval arithmetic behind rule
// partitioning: maximum-overlap counting, identical-interval bucketing
// and the maximum-weighted-independent-set sweep.
//
// All intervals are closed: [Lo,Hi] contains both endpoints, and two
// intervals that merely touch are considered overlapping.
package interval

import (
	"cmp"
	"slices"
)

// Interval is a closed interval of 32-bit points.
type Interval struct {
	Lo, Hi uint32
}

// Overlaps reports whether a and b share at least one point.
func (a Interval) Overlaps(b Interval) bool {
	return max(a.Lo, b.Lo) <= min(a.Hi, b.Hi)
}

// Compare orders disjoint intervals and detects the two remaining
// relations: 0 means identical, -2 means overlapping but not identical.
// The latter is the forbidden relation inside a sortable tree level.
func (a Interval) Compare(b Interval) int {
	if a == b {
		return 0
	}
	if a.Hi < b.Lo {
		return -1
	}
	if a.Lo > b.Hi {
		return 1
	}
	return -2
}

// Weighted is a group of identical intervals with the weight used by
// the MWIS sweep. Items holds the indices of the group members in the
// input that produced the group.
type Weighted struct {
	Interval
	Weight int
	Items  []int
}

// Unique buckets identical intervals. The weight of every group is the
// member count plus one, biasing field selection towards fields that
// keep more rules in one partition. Group order follows (Lo,Hi).
func Unique(ivals []Interval) []Weighted {
	idx := make([]int, len(ivals))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int {
		if c := cmp.Compare(ivals[a].Lo, ivals[b].Lo); c != 0 {
			return c
		}
		if c := cmp.Compare(ivals[a].Hi, ivals[b].Hi); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	var out []Weighted
	for _, i := range idx {
		if n := len(out); n > 0 && out[n-1].Interval == ivals[i] {
			out[n-1].Items = append(out[n-1].Items, i)
			out[n-1].Weight++
			continue
		}
		out = append(out, Weighted{
			Interval: ivals[i],
			Weight:   2, // count + 1
			Items:    []int{i},
		})
	}
	return out
}

// MaxOverlap returns the maximum number of intervals covering any
// single point. A set of distinct intervals is sortable on one field
// iff MaxOverlap of its unique intervals is at most one.
func MaxOverlap(ivals []Interval) int {
	if len(ivals) == 0 {
		return 0
	}
	lo := make([]uint32, len(ivals))
	hi := make([]uint32, len(ivals))
	for i, iv := range ivals {
		lo[i] = iv.Lo
		hi[i] = iv.Hi
	}
	slices.Sort(lo)
	slices.Sort(hi)

	var cur, maxOverlap int
	i, j := 0, 0
	for i < len(lo) && j < len(hi) {
		if lo[i] <= hi[j] {
			cur++
			maxOverlap = max(maxOverlap, cur)
			i++
		} else {
			cur--
			j++
		}
	}
	return maxOverlap
}

// endpoint is one side of an interval in the MWIS sweep. The sort order
// below is the deterministic stand-in for the ±ε perturbation: at equal
// values, left endpoints precede right endpoints, so touching intervals
// conflict, and remaining ties resolve by position so that the
// backtracking prefers smaller indices.
type endpoint struct {
	val   uint32
	right bool
	pos   int
}

// MWIS computes a maximum-weighted independent set over the weighted
// intervals using the classic sweep-line dynamic programme: process
// endpoints in order, set chi[i] = weight[i] + best-closed-so-far at
// the left endpoint of i, fold chi[i] into the running best at its
// right endpoint, and recover the chosen set by backtracking.
//
// It returns the indices of the chosen intervals (in descending
// right-endpoint order) and the total weight of the set.
func MWIS(items []Weighted) (picked []int, total int) {
	n := len(items)
	if n == 0 {
		return nil, 0
	}

	// order by right endpoint so backtracking can scan downwards
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if c := cmp.Compare(items[a].Hi, items[b].Hi); c != 0 {
			return c
		}
		if c := cmp.Compare(items[a].Lo, items[b].Lo); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	eps := make([]endpoint, 0, 2*n)
	for k, i := range order {
		eps = append(eps,
			endpoint{val: items[i].Lo, right: false, pos: k},
			endpoint{val: items[i].Hi, right: true, pos: k},
		)
	}
	slices.SortFunc(eps, func(a, b endpoint) int {
		if c := cmp.Compare(a.val, b.val); c != 0 {
			return c
		}
		if a.right != b.right {
			if a.right {
				return 1
			}
			return -1
		}
		return cmp.Compare(a.pos, b.pos)
	})

	chi := make([]int, n)
	var best, last int
	for _, e := range eps {
		i := order[e.pos]
		if !e.right {
			chi[e.pos] = best + items[i].Weight
		} else if chi[e.pos] > best {
			best = chi[e.pos]
			last = e.pos
		}
	}

	total = best
	picked = append(picked, order[last])
	rest := best - items[order[last]].Weight
	for k := last - 1; k >= 0; k-- {
		i := order[k]
		if chi[k] == rest && items[i].Hi < items[order[last]].Lo {
			picked = append(picked, i)
			rest -= items[i].Weight
			last = k
		}
	}
	return picked, total
}
