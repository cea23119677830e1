// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package flowsort

import (
	"slices"
)

// GenericClassifier is the fallback engine for discontiguous rules: a
// priority-ordered vector scanned linearly. It places no restriction
// on rule masks, which is exactly why it cannot do better than a scan.
//
// The zero value is ready to use.
type GenericClassifier struct {
	rules []*Rule // ascending priority, scanned back to front
}

// NumRules returns the number of rules held.
func (g *GenericClassifier) NumRules() int { return len(g.rules) }

// Reset drops all rules.
func (g *GenericClassifier) Reset() { g.rules = nil }

// Build replaces the classifier's contents with the given rules.
func (g *GenericClassifier) Build(rules []*Rule) {
	g.rules = slices.Clone(rules)
	slices.SortStableFunc(g.rules, func(a, b *Rule) int {
		switch {
		case a.Priority < b.Priority:
			return -1
		case a.Priority > b.Priority:
			return 1
		default:
			return 0
		}
	})
}

// Insert appends the rule and bubbles it down to its priority slot.
// Equal priorities keep insertion order.
func (g *GenericClassifier) Insert(r *Rule) {
	g.rules = append(g.rules, r)
	for i := len(g.rules) - 1; i > 0 && g.rules[i-1].Priority > g.rules[i].Priority; i-- {
		g.rules[i-1], g.rules[i] = g.rules[i], g.rules[i-1]
	}
}

// Delete removes the rule by identity. Unknown rules are ignored.
func (g *GenericClassifier) Delete(r *Rule) {
	if i := slices.Index(g.rules, r); i >= 0 {
		g.rules = slices.Delete(g.rules, i, i+1)
	}
}

// Classify scans from the highest priority down and returns the first
// rule whose value/mask specifiers all match, short-circuiting once
// the remaining priorities fall below best. Pass math.MinInt64 when
// there is no best match yet.
func (g *GenericClassifier) Classify(p []Point, best int64) *Rule {
	for i := len(g.rules) - 1; i >= 0; i-- {
		r := g.rules[i]
		if r.Priority < best {
			break
		}
		if r.MatchesMask(p) {
			return r
		}
	}
	return nil
}
