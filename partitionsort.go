// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package flowsort

import (
	"slices"
)

// PartitionSort is the forest of sortable trees: trees ordered by
// descending max priority plus a slot table mapping rule ids back to
// their owning tree for constant-time deletion.
//
// The zero value is ready to use.
type PartitionSort struct {
	trees []*SortableTree
	slots []ruleSlot

	// ReconstructThreshold overrides the maturity threshold for
	// adaptive reconstruction. Zero means DefaultReconstructThreshold.
	ReconstructThreshold int
}

type ruleSlot struct {
	rule *Rule
	tree *SortableTree
}

func (ps *PartitionSort) threshold() int {
	if ps.ReconstructThreshold > 0 {
		return ps.ReconstructThreshold
	}
	return DefaultReconstructThreshold
}

// NumRules returns the number of rules across all trees.
func (ps *PartitionSort) NumRules() int { return len(ps.slots) }

// NumTrees returns the number of trees in the forest.
func (ps *PartitionSort) NumTrees() int { return len(ps.trees) }

// TreeSize returns the rule count of the i-th tree.
func (ps *PartitionSort) TreeSize(i int) int { return ps.trees[i].NumRules() }

// TreePriority returns the max priority of the i-th tree.
func (ps *PartitionSort) TreePriority(i int) int64 { return ps.trees[i].MaxPriority() }

// Reset drops all trees and rules.
func (ps *PartitionSort) Reset() {
	for _, s := range ps.slots {
		s.rule.id = -1
	}
	ps.trees = nil
	ps.slots = nil
}

// Build constructs the forest offline: the partitioner splits the rule
// set into sortable subsets and each subset becomes one tree. Offline
// trees start young like any other, so small ones may still adapt
// their field order under later insertions.
func (ps *PartitionSort) Build(rules []*Rule) {
	ps.Reset()
	for _, sr := range Partition(rules) {
		t := NewSortableTree(sr.FieldOrder)
		for _, r := range sr.Rules {
			t.insert(r)
			ps.track(r, t)
		}
		ps.trees = append(ps.trees, t)
	}
	ps.sortTrees()
}

// BuildOnline constructs the forest by inserting the rules one by one.
func (ps *PartitionSort) BuildOnline(rules []*Rule) {
	ps.Reset()
	for _, r := range rules {
		ps.Insert(r)
	}
}

// Insert places the rule in the first tree that accepts it, walking
// the forest in priority order. If every tree reports a forbidden
// overlap, a fresh tree is seeded with a field order derived from the
// rule alone. Young trees may adapt their field order right after the
// insertion.
func (ps *PartitionSort) Insert(r *Rule) {
	for _, t := range ps.trees {
		inserted, priorityChanged := t.TryInsert(r)
		if !inserted {
			continue
		}
		t.reconstructIfSmall(ps.threshold())
		ps.track(r, t)
		if priorityChanged {
			ps.sortTrees()
		}
		return
	}

	t := newSortableTreeForRule(r)
	t.insert(r)
	ps.track(r, t)
	ps.trees = append(ps.trees, t)
	ps.sortTrees()
}

// Delete removes the rule by its id. Unknown ids are ignored, so
// deleting a rule twice is harmless. The freed slot is filled by the
// last rule (whose id moves), and a tree losing its last rule is
// dropped from the forest.
func (ps *PartitionSort) Delete(r *Rule) {
	i := r.id
	if i < 0 || i >= len(ps.slots) || ps.slots[i].rule != r {
		return
	}
	t := ps.slots[i].tree
	priorityChanged := t.Delete(r)
	r.id = -1

	last := len(ps.slots) - 1
	if i != last {
		ps.slots[i] = ps.slots[last]
		ps.slots[i].rule.id = i
	}
	ps.slots = ps.slots[:last]

	if t.NumRules() == 0 {
		ps.trees = slices.DeleteFunc(ps.trees, func(x *SortableTree) bool {
			return x == t
		})
	} else if priorityChanged {
		ps.sortTrees()
	}
}

// Classify walks the trees in descending max-priority order and stops
// as soon as the best match so far beats every remaining tree.
func (ps *PartitionSort) Classify(p []Point) *Rule {
	var best *Rule
	for _, t := range ps.trees {
		if best != nil && best.Priority > t.MaxPriority() {
			break
		}
		if r := t.Classify(p, best); r != nil {
			if best == nil || r.Priority > best.Priority {
				best = r
			}
		}
	}
	return best
}

// track records the rule's forest slot and stamps its id.
func (ps *PartitionSort) track(r *Rule, t *SortableTree) {
	r.id = len(ps.slots)
	ps.slots = append(ps.slots, ruleSlot{rule: r, tree: t})
}

// sortTrees restores the descending max-priority order. Insertion sort
// keeps the common case cheap: mutations move at most one tree a few
// positions.
func (ps *PartitionSort) sortTrees() {
	for j := 1; j < len(ps.trees); j++ {
		key := ps.trees[j]
		i := j - 1
		for i >= 0 && ps.trees[i].MaxPriority() < key.MaxPriority() {
			ps.trees[i+1] = ps.trees[i]
			i--
		}
		ps.trees[i+1] = key
	}
}
