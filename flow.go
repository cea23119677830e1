// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package flowsort

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"

	"github.com/flowsort/flowsort/oxm"
)

var (
	// ErrInvalidRule is returned when a flow's match list cannot be
	// projected: unknown field type, malformed value/mask encoding, or
	// a mask shorter than its value.
	ErrInvalidRule = errors.New("flowsort: invalid rule")

	// ErrForbiddenOverlap reports two non-identical overlapping
	// intervals on one tree level. It is recoverable: PartitionSort
	// answers it by starting a new tree.
	ErrForbiddenOverlap = errors.New("flowsort: forbidden overlap")
)

// Match is one entry of a flow's match list.
type Match struct {
	Field oxm.FieldType
	Value []byte
	Mask  []byte // nil for an exact match
}

// Flow is the classifier's ingress form of a flow table entry: a match
// list, a priority and an opaque handle returned on classification.
type Flow struct {
	Priority int64
	Matches  []Match
	Handle   any
}

// Packet hands the classifier a set of header base slices. A nil slice
// marks an absent header; fields extracted from absent headers project
// to zero. See package oxm for the base layout.
type Packet struct {
	Base [oxm.NumBases][]byte
}

// ChooseFields tallies how many flows reference each OXM field type,
// ignoring eth_type, and returns the field types most-used first. Ties
// keep first-seen order, so the choice is deterministic for a given
// flow list. The returned set drives both rule and packet projection
// for one classifier instance.
func ChooseFields(flows []*Flow) []oxm.FieldType {
	var count [oxm.NumFieldTypes]int
	var seen [oxm.NumFieldTypes]int
	order := 0

	for _, f := range flows {
		for _, m := range f.Matches {
			if !m.Field.Valid() || m.Field == oxm.EthType {
				continue
			}
			if count[m.Field] == 0 {
				order++
				seen[m.Field] = order
			}
			count[m.Field]++
		}
	}

	var fields []oxm.FieldType
	for ft := range oxm.NumFieldTypes {
		if count[ft] > 0 {
			fields = append(fields, oxm.FieldType(ft))
		}
	}
	slices.SortFunc(fields, func(a, b oxm.FieldType) int {
		if count[a] != count[b] {
			return count[b] - count[a]
		}
		return seen[a] - seen[b]
	})
	return fields
}

// ProjectFlow converts a flow into the canonical rule form over the
// chosen fields. Fields the flow does not mention stay wildcarded.
//
// A match with a prefix mask (or no mask) keeps the rule contiguous;
// the first arbitrary bitmask flips the rule to discontiguous. Once all
// matches are processed, contiguous rules are rewritten into range
// form, discontiguous rules stay in value/mask form.
func ProjectFlow(f *Flow, fields []oxm.FieldType) (*Rule, error) {
	dim := len(fields)
	r := &Rule{
		Priority:   f.Priority,
		Fields:     make([]FieldRange, dim),
		PrefixLen:  make([]uint32, dim),
		Contiguous: true,
		Master:     f.Handle,
		id:         -1,
	}
	for i := range r.Fields {
		r.Fields[i] = wildcardMask
	}

	for _, m := range f.Matches {
		if !m.Field.Valid() {
			return nil, fmt.Errorf("%w: field %d", ErrInvalidRule, m.Field)
		}
		i := slices.Index(fields, m.Field)
		if i < 0 {
			continue
		}
		if len(m.Value) == 0 {
			return nil, fmt.Errorf("%w: field %d", ErrInvalidRule, m.Field)
		}
		if m.Mask != nil {
			if len(m.Mask) != len(m.Value) {
				return nil, fmt.Errorf("%w: %s mask length %d, value length %d",
					ErrInvalidRule, m.Field, len(m.Mask), len(m.Value))
			}
			value := oxm.Project32(m.Value)
			mask := oxm.Project32(m.Mask)
			r.Fields[i] = ValueMask(value, mask)
			r.PrefixLen[i] = uint32(bits.OnesCount32(mask))
			if !oxm.PrefixMask(mask) {
				r.Contiguous = false
			}
		} else {
			r.Fields[i] = ValueMask(oxm.Project32(m.Value), 0xffffffff)
			r.PrefixLen[i] = uint32(8 * len(m.Value))
		}
	}

	if r.Contiguous {
		for i := range r.Fields {
			r.Fields[i] = r.Fields[i].toRange()
		}
	}
	return r, nil
}

// ProjectPacket extracts the chosen fields from the packet headers into
// a point vector, one point per field in chosen-field order. Absent
// headers yield zero points.
func ProjectPacket(p *Packet, fields []oxm.FieldType) []Point {
	points := make([]Point, len(fields))
	for i, ft := range fields {
		if !ft.Valid() {
			continue
		}
		e := oxm.Layout[ft]
		hdr := p.Base[e.Base]
		if hdr == nil {
			continue
		}
		if v, ok := e.Load(hdr); ok {
			points[i] = v
		}
	}
	return points
}

// MatchesPacket verifies the packet against the flow's full match list,
// not just the projected fields. It is the reference predicate the
// classifier's answer can be cross-checked against.
func (f *Flow) MatchesPacket(p *Packet) bool {
	for _, m := range f.Matches {
		if !m.Field.Valid() {
			return false
		}
		e := oxm.Layout[m.Field]
		hdr := p.Base[e.Base]
		if hdr == nil {
			return false
		}
		v, ok := e.Load(hdr)
		if !ok {
			return false
		}
		if m.Mask != nil {
			mask := oxm.Project32(m.Mask)
			if v&mask != oxm.Project32(m.Value)&mask {
				return false
			}
		} else if v != oxm.Project32(m.Value) {
			return false
		}
	}
	return true
}
