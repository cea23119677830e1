// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package flowsort

import (
	"math"
	"slices"
)

// DefaultReconstructThreshold is the rule count at which a young tree
// stops adapting its field order and becomes mature.
const DefaultReconstructThreshold = 10

// SortableTree is one partition of the rule set: a nested range tree
// with a fixed field order, a priority multiset and a maturity flag
// driving adaptive reconstruction.
type SortableTree struct {
	fieldOrder []int
	root       rangeTree
	priorities []int64 // sorted multiset
	numRules   int
	mature     bool
}

// noPriority is the max-priority of an empty tree; every real priority
// beats it.
const noPriority = math.MinInt64

// NewSortableTree returns an empty tree nesting its levels in the given
// field order.
func NewSortableTree(fieldOrder []int) *SortableTree {
	return &SortableTree{fieldOrder: slices.Clone(fieldOrder)}
}

// newSortableTreeForRule seeds a fresh tree with a field order derived
// from a single rule's specificity ranking.
func newSortableTreeForRule(r *Rule) *SortableTree {
	return &SortableTree{fieldOrder: fieldOrderForRule(r)}
}

// NumRules returns the number of rules in the tree.
func (t *SortableTree) NumRules() int { return t.numRules }

// Mature reports whether the tree's field order is frozen.
func (t *SortableTree) Mature() bool { return t.mature }

// FieldOrder returns a copy of the tree's nesting order.
func (t *SortableTree) FieldOrder() []int { return slices.Clone(t.fieldOrder) }

// MaxPriority returns the highest priority among the tree's rules, or
// math.MinInt64 for an empty tree.
func (t *SortableTree) MaxPriority() int64 {
	if len(t.priorities) == 0 {
		return noPriority
	}
	return t.priorities[len(t.priorities)-1]
}

// CanInsert is a dry run: true iff inserting r hits no forbidden
// overlap on any level.
func (t *SortableTree) CanInsert(r *Rule) bool {
	return t.root.canInsert(r.Fields, t.fieldOrder, 0, r.Dim())
}

// TryInsert inserts r if no level overlap forbids it. It reports
// whether the rule went in and whether the tree's max priority grew.
func (t *SortableTree) TryInsert(r *Rule) (inserted, priorityChanged bool) {
	if !t.CanInsert(r) {
		return false, false
	}
	priorityChanged = r.Priority > t.MaxPriority()
	t.insert(r)
	return true, priorityChanged
}

// insert threads r through the range tree unconditionally. Only the
// partitioner and reconstruction may call it directly: they guarantee
// sortability up front.
func (t *SortableTree) insert(r *Rule) {
	i, _ := slices.BinarySearch(t.priorities, r.Priority)
	t.priorities = slices.Insert(t.priorities, i, r.Priority)
	_ = t.root.insert(r.Fields, t.fieldOrder, 0, r.Dim(), r)
	t.numRules++
}

// Delete removes r, which must have been inserted into this tree, and
// reports whether the tree's max priority changed.
func (t *SortableTree) Delete(r *Rule) (priorityChanged bool) {
	before := t.MaxPriority()
	if i, ok := slices.BinarySearch(t.priorities, r.Priority); ok {
		t.priorities = slices.Delete(t.priorities, i, i+1)
	}
	t.root.delete(r.Fields, t.fieldOrder, 0, r.Dim(), r)
	t.numRules--
	return t.MaxPriority() != before
}

// Classify returns the tree's best match for the packet, or nil. It
// gives up immediately when best already beats everything the tree
// holds.
func (t *SortableTree) Classify(p []Point, best *Rule) *Rule {
	if best != nil && best.Priority > t.MaxPriority() {
		return nil
	}
	return t.root.classify(p, t.fieldOrder, 0)
}

// Rules serialises the tree back into its rule list.
func (t *SortableTree) Rules() []*Rule {
	return t.root.collectRules(nil)
}

// reconstructIfSmall adapts a young tree after an insertion: while the
// tree is below the maturity threshold, rerun fast greedy field
// selection over its rules and rebuild under the new order when the
// probe keeps the ruleset whole and the order actually differs.
// Crossing the threshold freezes the field order for good.
func (t *SortableTree) reconstructIfSmall(threshold int) {
	if t.mature {
		return
	}
	if t.numRules >= threshold {
		t.mature = true
		return
	}

	rules := t.Rules()
	whole, order := fastGreedyProbe(rules)
	if !whole || slices.Equal(order, t.fieldOrder) {
		return
	}

	t.fieldOrder = order
	t.root = rangeTree{}
	for _, r := range rules {
		_ = t.root.insert(r.Fields, t.fieldOrder, 0, r.Dim(), r)
	}
}
