// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package flowsort

import (
	"slices"

	"github.com/flowsort/flowsort/internal/interval"
)

// SortableRuleset is one partition produced by the offline partitioner:
// a subset of rules together with the field order under which it is
// sortable.
type SortableRuleset struct {
	Rules      []*Rule
	FieldOrder []int
}

// Partition splits the rule set into sortable subsets by repeatedly
// running greedy field selection on the remaining rules and peeling
// off the sortable subset it finds. Every input rule lands in exactly
// one partition.
func Partition(rules []*Rule) []SortableRuleset {
	remaining := slices.Clone(rules)

	var out []SortableRuleset
	for len(remaining) > 0 {
		subset, order := greedyFieldSelection(remaining)
		out = append(out, SortableRuleset{Rules: subset, FieldOrder: order})

		taken := make(map[*Rule]bool, len(subset))
		for _, r := range subset {
			taken[r] = true
		}
		remaining = slices.DeleteFunc(remaining, func(r *Rule) bool {
			return taken[r]
		})
	}
	return out
}

// greedyFieldSelection chooses a field order one dimension at a time.
// For every candidate field it runs the MWIS over each current
// partition along that field and sums the weights; the heaviest field
// wins, its MWIS groups become the new partitions, and the next round
// continues on the pruned set. The union of the final partitions is
// the sortable subset.
func greedyFieldSelection(rules []*Rule) (subset []*Rule, order []int) {
	dim := rules[0].Dim()
	partitions := [][]*Rule{rules}

	for len(order) < dim {
		bestField, bestWeight := -1, -1
		var bestParts [][]*Rule
		for j := range dim {
			if slices.Contains(order, j) {
				continue
			}
			parts, weight := mwisOnPartitions(partitions, j)
			if weight >= bestWeight {
				bestField, bestWeight, bestParts = j, weight, parts
			}
		}
		order = append(order, bestField)
		partitions = bestParts
	}

	for _, part := range partitions {
		subset = append(subset, part...)
	}
	return subset, order
}

// mwisOnPartitions runs the maximum-weighted-independent-set along
// field j independently on every partition. It returns the chosen
// unique-interval groups as the refined partitions and the summed
// weight used to rank fields against each other.
func mwisOnPartitions(partitions [][]*Rule, j int) (parts [][]*Rule, weight int) {
	for _, part := range partitions {
		if len(part) == 0 {
			continue
		}
		ivals := make([]interval.Interval, len(part))
		for i, r := range part {
			ivals[i] = r.Fields[j].ival()
		}
		groups := interval.Unique(ivals)
		picked, w := interval.MWIS(groups)
		weight += w

		for _, gi := range picked {
			g := groups[gi]
			sub := make([]*Rule, len(g.Items))
			for k, idx := range g.Items {
				sub[k] = part[idx]
			}
			parts = append(parts, sub)
		}
	}
	return parts, weight
}

// fastGreedyProbe is the cheap variant used by adaptive
// reconstruction: it runs the same greedy selection but only answers
// whether the whole rule set stays sortable under the resulting order.
// Both variants share the unique-interval bucketing, so they agree on
// the sortable subset for any input satisfying the partitionability
// predicate.
func fastGreedyProbe(rules []*Rule) (whole bool, order []int) {
	if len(rules) == 0 {
		return true, nil
	}
	dim := rules[0].Dim()
	partitions := [][]*Rule{rules}

	for len(order) < dim {
		bestField, bestWeight := -1, -1
		var bestParts [][]*Rule
		for j := range dim {
			if slices.Contains(order, j) {
				continue
			}
			parts, weight := mwisOnPartitions(partitions, j)
			if weight >= bestWeight {
				bestField, bestWeight, bestParts = j, weight, parts
			}
		}
		order = append(order, bestField)
		partitions = bestParts
	}

	kept := 0
	for _, part := range partitions {
		kept += len(part)
	}
	return kept == len(rules), order
}

// IsSortable audits a partition: walking the field order, the unique
// intervals of every partition must be pairwise non-overlapping on
// each level.
func IsSortable(rules []*Rule, fieldOrder []int) bool {
	parts := [][]*Rule{rules}
	for _, f := range fieldOrder {
		var next [][]*Rule
		for _, part := range parts {
			if len(part) == 0 {
				continue
			}
			ivals := make([]interval.Interval, len(part))
			for i, r := range part {
				ivals[i] = r.Fields[f].ival()
			}
			groups := interval.Unique(ivals)

			unique := make([]interval.Interval, len(groups))
			for i, g := range groups {
				unique[i] = g.Interval
			}
			if interval.MaxOverlap(unique) > 1 {
				return false
			}

			for _, g := range groups {
				sub := make([]*Rule, len(g.Items))
				for k, idx := range g.Items {
					sub[k] = part[idx]
				}
				next = append(next, sub)
			}
		}
		parts = next
	}
	return true
}
