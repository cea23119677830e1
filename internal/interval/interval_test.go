// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package interval

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestCompare(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a, b Interval
		want int
	}{
		{"identical", Interval{5, 10}, Interval{5, 10}, 0},
		{"identical point", Interval{7, 7}, Interval{7, 7}, 0},
		{"less", Interval{0, 4}, Interval{5, 10}, -1},
		{"greater", Interval{11, 20}, Interval{5, 10}, 1},
		{"overlap partial", Interval{0, 5}, Interval{5, 10}, -2},
		{"overlap nested", Interval{6, 8}, Interval{5, 10}, -2},
		{"overlap touching", Interval{10, 12}, Interval{5, 10}, -2},
	}
	for _, tc := range tests {
		if got := tc.a.Compare(tc.b); got != tc.want {
			t.Errorf("%s: Compare(%v, %v) = %d, want %d", tc.name, tc.a, tc.b, got, tc.want)
		}
	}
}

func TestMaxOverlap(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		ivals []Interval
		want  int
	}{
		{"empty", nil, 0},
		{"single", []Interval{{0, 10}}, 1},
		{"disjoint", []Interval{{0, 4}, {5, 9}, {10, 14}}, 1},
		{"touching count as overlap", []Interval{{0, 5}, {5, 10}}, 2},
		{"nested", []Interval{{0, 100}, {10, 20}, {12, 14}}, 3},
		{"staircase", []Interval{{0, 10}, {5, 15}, {12, 20}}, 2},
		{"identical", []Interval{{3, 7}, {3, 7}, {3, 7}}, 3},
	}
	for _, tc := range tests {
		if got := MaxOverlap(tc.ivals); got != tc.want {
			t.Errorf("%s: MaxOverlap = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestUnique(t *testing.T) {
	t.Parallel()
	ivals := []Interval{
		{5, 10}, {0, 4}, {5, 10}, {20, 30}, {5, 10}, {0, 4},
	}
	groups := Unique(ivals)
	if len(groups) != 3 {
		t.Fatalf("Unique: %d groups, want 3", len(groups))
	}

	// groups come out ordered by (Lo,Hi)
	wantIvals := []Interval{{0, 4}, {5, 10}, {20, 30}}
	wantWeights := []int{3, 4, 2} // member count + 1
	wantItems := [][]int{{1, 5}, {0, 2, 4}, {3}}
	for i, g := range groups {
		if g.Interval != wantIvals[i] {
			t.Errorf("group %d: interval %v, want %v", i, g.Interval, wantIvals[i])
		}
		if g.Weight != wantWeights[i] {
			t.Errorf("group %d: weight %d, want %d", i, g.Weight, wantWeights[i])
		}
		if !slices.Equal(g.Items, wantItems[i]) {
			t.Errorf("group %d: items %v, want %v", i, g.Items, wantItems[i])
		}
	}
}

func TestMWISBasic(t *testing.T) {
	t.Parallel()

	// disjoint intervals: everything is independent
	all := []Weighted{
		{Interval: Interval{0, 4}, Weight: 2},
		{Interval: Interval{5, 9}, Weight: 3},
		{Interval: Interval{10, 14}, Weight: 4},
	}
	picked, total := MWIS(all)
	if total != 9 || len(picked) != 3 {
		t.Fatalf("disjoint: total %d picked %v, want 9 and all three", total, picked)
	}

	// one heavy interval beats two light overlapping ones
	heavy := []Weighted{
		{Interval: Interval{0, 10}, Weight: 10},
		{Interval: Interval{0, 4}, Weight: 3},
		{Interval: Interval{5, 10}, Weight: 3},
	}
	picked, total = MWIS(heavy)
	if total != 10 {
		t.Fatalf("heavy: total %d, want 10", total)
	}
	if len(picked) != 1 || picked[0] != 0 {
		t.Fatalf("heavy: picked %v, want [0]", picked)
	}

	// ... and loses once the light pair outweighs it
	heavy[0].Weight = 5
	picked, total = MWIS(heavy)
	if total != 6 || len(picked) != 2 {
		t.Fatalf("light pair: total %d picked %v, want 6 and both light", total, picked)
	}
}

func TestMWISTouchingConflict(t *testing.T) {
	t.Parallel()

	// closed intervals sharing an endpoint cannot both be chosen
	ivals := []Weighted{
		{Interval: Interval{0, 5}, Weight: 3},
		{Interval: Interval{5, 10}, Weight: 4},
	}
	picked, total := MWIS(ivals)
	if total != 4 || len(picked) != 1 || picked[0] != 1 {
		t.Fatalf("touching: total %d picked %v, want 4 and [1]", total, picked)
	}
}

func TestMWISDeterministic(t *testing.T) {
	t.Parallel()
	prng := rand.New(rand.NewPCG(7, 13))

	for range 100 {
		n := 1 + prng.IntN(50)
		items := make([]Weighted, n)
		for i := range items {
			lo := prng.Uint32N(1000)
			items[i] = Weighted{
				Interval: Interval{lo, lo + prng.Uint32N(100)},
				Weight:   1 + prng.IntN(10),
			}
		}
		p1, t1 := MWIS(items)
		p2, t2 := MWIS(items)
		if t1 != t2 || !slices.Equal(p1, p2) {
			t.Fatalf("MWIS not deterministic: %v/%d vs %v/%d", p1, t1, p2, t2)
		}

		// chosen set must be pairwise disjoint
		for i, a := range p1 {
			for _, b := range p1[i+1:] {
				if items[a].Overlaps(items[b].Interval) {
					t.Fatalf("MWIS picked overlapping %v and %v",
						items[a].Interval, items[b].Interval)
				}
			}
		}
	}
}

// TestMWISAgainstBruteForce checks optimality on small random inputs.
func TestMWISAgainstBruteForce(t *testing.T) {
	t.Parallel()
	prng := rand.New(rand.NewPCG(42, 42))

	for range 200 {
		n := 1 + prng.IntN(12)
		items := make([]Weighted, n)
		for i := range items {
			lo := prng.Uint32N(40)
			items[i] = Weighted{
				Interval: Interval{lo, lo + prng.Uint32N(10)},
				Weight:   1 + prng.IntN(5),
			}
		}

		_, got := MWIS(items)

		best := 0
		for set := range 1 << n {
			w := 0
			ok := true
			for i := 0; ok && i < n; i++ {
				if set&(1<<i) == 0 {
					continue
				}
				w += items[i].Weight
				for j := i + 1; j < n; j++ {
					if set&(1<<j) != 0 && items[i].Overlaps(items[j].Interval) {
						ok = false
						break
					}
				}
			}
			if ok && w > best {
				best = w
			}
		}
		if got != best {
			t.Fatalf("MWIS total %d, brute force %d, items %v", got, best, items)
		}
	}
}
