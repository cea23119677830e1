// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package flowsort

import (
	"fmt"
	"strings"
)

// String returns a compact description of the classifier's shape,
// intended for debugging and test failure output.
func (c *CombinedClassifier) String() string {
	sb := new(strings.Builder)
	fmt.Fprintf(sb, "CombinedClassifier: %d fields (", len(c.fields))
	for i, f := range c.fields {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(f.String())
	}
	fmt.Fprintf(sb, "), %d contiguous, %d discontiguous\n",
		len(c.contiguous), len(c.discontiguous))
	sb.WriteString(c.psort.String())
	return sb.String()
}

// String describes the forest, one line per tree in priority order.
func (ps *PartitionSort) String() string {
	sb := new(strings.Builder)
	fmt.Fprintf(sb, "PartitionSort: %d trees, %d rules\n",
		ps.NumTrees(), ps.NumRules())
	for i, t := range ps.trees {
		fmt.Fprintf(sb, "  tree %d: %d rules, max priority %d, order %v, mature %v\n",
			i, t.NumRules(), t.MaxPriority(), t.fieldOrder, t.mature)
	}
	return sb.String()
}

// dump writes the nested interval structure of one tree, one line per
// level path. Only used from tests and debugging sessions.
func (t *SortableTree) dump(sb *strings.Builder) {
	var walk func(rt *rangeTree, depth int)
	walk = func(rt *rangeTree, depth int) {
		indent := strings.Repeat("  ", depth)
		if rt.root == nil {
			fmt.Fprintf(sb, "%schain %v rules=%d\n", indent, rt.chain, len(rt.rules))
			return
		}
		var nodes func(n *rbNode)
		nodes = func(n *rbNode) {
			if n == nil {
				return
			}
			nodes(n.left)
			fmt.Fprintf(sb, "%s[%d %d]\n", indent, n.key.Lo, n.key.Hi)
			walk(n.next, depth+1)
			nodes(n.right)
		}
		nodes(rt.root)
	}
	walk(&t.root, 0)
}
