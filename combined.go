// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package flowsort

import (
	"slices"

	"github.com/flowsort/flowsort/oxm"
)

// CombinedClassifier is the top-level classifier. It projects flows
// into canonical rules, splits them by contiguity and dispatches
// between the PartitionSort forest and the generic linear classifier.
//
// The zero value is ready to use; Build or the first Insert chooses
// the classification fields.
type CombinedClassifier struct {
	fields        []oxm.FieldType
	psort         PartitionSort
	generic       GenericClassifier
	contiguous    []*Rule
	discontiguous []*Rule

	flows  []*Flow
	byFlow map[*Flow]*Rule
}

// Fields returns the classification field set in projection order.
func (c *CombinedClassifier) Fields() []oxm.FieldType {
	return slices.Clone(c.fields)
}

// NumRules returns the total number of installed rules.
func (c *CombinedClassifier) NumRules() int {
	return len(c.contiguous) + len(c.discontiguous)
}

// PartitionSort exposes the forest, mainly for introspection.
func (c *CombinedClassifier) PartitionSort() *PartitionSort { return &c.psort }

// Generic exposes the linear classifier, mainly for introspection.
func (c *CombinedClassifier) Generic() *GenericClassifier { return &c.generic }

// Build constructs the classifier from scratch with the offline
// partitioner: choose the fields, project every flow, then build the
// forest from the partitioning and the generic classifier from the
// discontiguous rest.
func (c *CombinedClassifier) Build(flows []*Flow) error {
	return c.build(flows, false)
}

// BuildOnline constructs the classifier by incremental insertion
// instead of offline partitioning. The resulting forest may differ
// from Build's, but classification results are the same.
func (c *CombinedClassifier) BuildOnline(flows []*Flow) error {
	return c.build(flows, true)
}

// Rebuild tears the classifier down and reconstructs it online. It is
// the fallback for updates that shift the chosen-field set.
func (c *CombinedClassifier) Rebuild(flows []*Flow) error {
	return c.build(flows, true)
}

func (c *CombinedClassifier) build(flows []*Flow, online bool) error {
	// project everything before touching the classifier, so a
	// malformed flow leaves the previous state intact
	all := slices.Clone(flows)
	fields := ChooseFields(all)
	byFlow := make(map[*Flow]*Rule, len(all))

	var contiguous, discontiguous []*Rule
	for _, f := range all {
		r, err := ProjectFlow(f, fields)
		if err != nil {
			return err
		}
		byFlow[f] = r
		if r.Contiguous {
			contiguous = append(contiguous, r)
		} else {
			discontiguous = append(discontiguous, r)
		}
	}

	c.reset()
	c.flows = all
	c.fields = fields
	c.byFlow = byFlow
	c.contiguous = contiguous
	c.discontiguous = discontiguous

	if online {
		c.psort.BuildOnline(c.contiguous)
	} else {
		c.psort.Build(c.contiguous)
	}
	c.generic.Build(c.discontiguous)
	return nil
}

func (c *CombinedClassifier) reset() {
	c.psort.Reset()
	c.generic.Reset()
	c.fields = nil
	c.contiguous = nil
	c.discontiguous = nil
	c.flows = nil
	c.byFlow = make(map[*Flow]*Rule)
}

// Insert adds one flow. While the chosen-field set stays stable the
// new rule is routed directly into the matching engine; a flow that
// shifts the field tally triggers a full rebuild.
func (c *CombinedClassifier) Insert(f *Flow) error {
	if c.byFlow == nil {
		c.byFlow = make(map[*Flow]*Rule)
	}
	c.flows = append(c.flows, f)
	if !sameFieldSet(ChooseFields(c.flows), c.fields) {
		if err := c.Rebuild(c.flows); err != nil {
			c.flows = c.flows[:len(c.flows)-1]
			return err
		}
		return nil
	}

	r, err := ProjectFlow(f, c.fields)
	if err != nil {
		c.flows = c.flows[:len(c.flows)-1]
		return err
	}
	c.byFlow[f] = r
	if r.Contiguous {
		c.contiguous = append(c.contiguous, r)
		c.psort.Insert(r)
	} else {
		c.discontiguous = append(c.discontiguous, r)
		c.generic.Insert(r)
	}
	return nil
}

// Delete withdraws one flow. Unknown flows are ignored. Like Insert,
// a deletion that shifts the chosen-field set rebuilds the
// classifier.
func (c *CombinedClassifier) Delete(f *Flow) error {
	r, ok := c.byFlow[f]
	if !ok {
		return nil
	}
	delete(c.byFlow, f)
	if i := slices.Index(c.flows, f); i >= 0 {
		c.flows = slices.Delete(c.flows, i, i+1)
	}

	if !sameFieldSet(ChooseFields(c.flows), c.fields) {
		return c.Rebuild(c.flows)
	}

	if r.Contiguous {
		c.psort.Delete(r)
		if i := slices.Index(c.contiguous, r); i >= 0 {
			c.contiguous = slices.Delete(c.contiguous, i, i+1)
		}
	} else {
		c.generic.Delete(r)
		if i := slices.Index(c.discontiguous, r); i >= 0 {
			c.discontiguous = slices.Delete(c.discontiguous, i, i+1)
		}
	}
	return nil
}

// Classify projects the packet once and returns the handle of the
// highest-priority matching flow.
func (c *CombinedClassifier) Classify(p *Packet) (handle any, ok bool) {
	r := c.ClassifyPoints(ProjectPacket(p, c.fields))
	if r == nil {
		return nil, false
	}
	return r.Master, true
}

// ClassifyPoints classifies an already projected point vector: the
// forest answers first, then the generic classifier gets a chance to
// beat it.
func (c *CombinedClassifier) ClassifyPoints(points []Point) *Rule {
	r1 := c.psort.Classify(points)
	best := int64(noPriority)
	if r1 != nil {
		best = r1.Priority
	}
	r2 := c.generic.Classify(points, best)

	switch {
	case r1 != nil && r2 != nil:
		if r1.Priority > r2.Priority {
			return r1
		}
		return r2
	case r1 != nil:
		return r1
	default:
		return r2
	}
}

// sameFieldSet compares field choices as sets: reordering within the
// same set keeps existing projections valid, so no rebuild is needed.
func sameFieldSet(a, b []oxm.FieldType) bool {
	if len(a) != len(b) {
		return false
	}
	var have [oxm.NumFieldTypes]bool
	for _, f := range a {
		have[f] = true
	}
	for _, f := range b {
		if !have[f] {
			return false
		}
	}
	return true
}
