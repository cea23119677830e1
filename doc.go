// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

// Package flowsort provides a multi-field packet classifier for
// OpenFlow-style flow tables with sub-microsecond lookups.
//
// The classifier combines two engines:
//
//   - PartitionSort: a forest of sortable multi-dimensional interval
//     trees for rules whose field masks are prefixes (contiguous rules)
//   - Generic: a priority-ordered linear scan for rules with arbitrary
//     bitmasks (discontiguous rules)
//
// Rules are partitioned so that within every tree, and on every nesting
// level, no two distinct intervals overlap. This makes each tree a
// totally ordered search structure: classification descends one
// red-black tree per field, and the forest is walked in descending
// max-priority order so the search can stop as soon as no remaining
// tree can beat the best match found.
//
// The field set used for classification is chosen per instance by
// tallying which OXM match fields the flows actually use. Flows and
// packets are projected into canonical 32-bit point vectors before they
// reach the data structures; see [ChooseFields], [ProjectFlow] and
// [ProjectPacket].
//
// The zero value of [CombinedClassifier] is ready to use.
//
// All types are safe for concurrent readers but not for concurrent
// readers and writers. Mutations must be externally synchronized, e.g.
// with a sync.RWMutex around update operations.
package flowsort
