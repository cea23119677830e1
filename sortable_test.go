// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package flowsort

import (
	"testing"
)

func TestSortableTreeTryInsert(t *testing.T) {
	t.Parallel()
	tr := NewSortableTree([]int{0, 1})

	ok, changed := tr.TryInsert(rtRule(5, [2]uint32{0, 9}, [2]uint32{1, 1}))
	if !ok || !changed {
		t.Fatalf("first insert: ok=%v changed=%v, want true/true", ok, changed)
	}
	ok, changed = tr.TryInsert(rtRule(3, [2]uint32{20, 29}, [2]uint32{1, 1}))
	if !ok || changed {
		t.Fatalf("lower priority insert: ok=%v changed=%v, want true/false", ok, changed)
	}
	ok, changed = tr.TryInsert(rtRule(9, [2]uint32{40, 49}, [2]uint32{1, 1}))
	if !ok || !changed {
		t.Fatalf("higher priority insert: ok=%v changed=%v, want true/true", ok, changed)
	}
	if tr.MaxPriority() != 9 || tr.NumRules() != 3 {
		t.Fatalf("max %d rules %d", tr.MaxPriority(), tr.NumRules())
	}

	ok, _ = tr.TryInsert(rtRule(1, [2]uint32{5, 25}, [2]uint32{1, 1}))
	if ok {
		t.Fatalf("overlapping rule must be rejected")
	}
	if tr.NumRules() != 3 {
		t.Fatalf("rejected insert changed the tree")
	}
}

func TestSortableTreeDeletePriority(t *testing.T) {
	t.Parallel()
	tr := NewSortableTree([]int{0})
	r5 := rtRule(5, [2]uint32{0, 9})
	r9a := rtRule(9, [2]uint32{20, 29})
	r9b := rtRule(9, [2]uint32{40, 49})
	for _, r := range []*Rule{r5, r9a, r9b} {
		if ok, _ := tr.TryInsert(r); !ok {
			t.Fatalf("insert failed")
		}
	}

	// a duplicate of the max priority remains: no change
	if changed := tr.Delete(r9a); changed {
		t.Fatalf("delete with surviving equal priority reported a change")
	}
	if changed := tr.Delete(r9b); !changed || tr.MaxPriority() != 5 {
		t.Fatalf("deleting the last max rule: changed=%v max=%d", changed, tr.MaxPriority())
	}
	if changed := tr.Delete(r5); !changed || tr.NumRules() != 0 {
		t.Fatalf("deleting the last rule: changed=%v rules=%d", changed, tr.NumRules())
	}
}

func TestSortableTreeClassifyEarlyExit(t *testing.T) {
	t.Parallel()
	tr := NewSortableTree([]int{0})
	r := rtRule(5, [2]uint32{0, 9})
	tr.TryInsert(r)

	if got := tr.Classify([]Point{3}, nil); got != r {
		t.Fatalf("classify without best = %v", got)
	}
	better := rtRule(9, [2]uint32{0, 0})
	if got := tr.Classify([]Point{3}, better); got != nil {
		t.Fatalf("classify must early-exit when best beats the ceiling")
	}
	equal := rtRule(5, [2]uint32{0, 0})
	if got := tr.Classify([]Point{3}, equal); got != r {
		t.Fatalf("equal best must not suppress the search")
	}
}

func TestSortableTreeMaturityFreeze(t *testing.T) {
	t.Parallel()
	tr := newSortableTreeForRule(rtRule(0, [2]uint32{0, 0}, [2]uint32{0, wild}))

	for i := range 9 {
		r := rtRule(int64(i), [2]uint32{uint32(i), uint32(i)}, [2]uint32{0, wild})
		if ok, _ := tr.TryInsert(r); !ok {
			t.Fatalf("insert %d failed", i)
		}
		tr.reconstructIfSmall(DefaultReconstructThreshold)
		if tr.Mature() {
			t.Fatalf("tree mature at %d rules", tr.NumRules())
		}
	}

	r := rtRule(10, [2]uint32{100, 100}, [2]uint32{0, wild})
	tr.TryInsert(r)
	tr.reconstructIfSmall(DefaultReconstructThreshold)
	if !tr.Mature() {
		t.Fatalf("tree not mature at %d rules", tr.NumRules())
	}

	frozen := tr.FieldOrder()
	r11 := rtRule(11, [2]uint32{200, 200}, [2]uint32{0, wild})
	tr.TryInsert(r11)
	tr.reconstructIfSmall(DefaultReconstructThreshold)
	got := tr.FieldOrder()
	for i := range frozen {
		if frozen[i] != got[i] {
			t.Fatalf("mature tree re-ordered: %v -> %v", frozen, got)
		}
	}
}
