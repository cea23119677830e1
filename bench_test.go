// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

package flowsort

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/flowsort/flowsort/internal/golden"
)

func benchSetup(n, dim int) (*PartitionSort, *GenericClassifier, [][]Point) {
	prng := rand.New(rand.NewPCG(42, 42))
	gRules := golden.RandomRules(prng, n, dim)

	ref := new(golden.Ref)
	var cont, disc []*Rule
	for _, g := range gRules {
		ref.Insert(g)
		r := toRule(g)
		if r.Contiguous {
			cont = append(cont, r)
		} else {
			disc = append(disc, r)
		}
	}
	ps := new(PartitionSort)
	ps.Build(cont)
	gen := new(GenericClassifier)
	gen.Build(disc)

	pkts := make([][]Point, 1024)
	for i := range pkts {
		pkts[i] = golden.RandomPacket(prng, gRules, dim)
	}
	return ps, gen, pkts
}

func BenchmarkClassify(b *testing.B) {
	for _, n := range []int{100, 1_000, 10_000} {
		for _, dim := range []int{2, 5} {
			ps, gen, pkts := benchSetup(n, dim)
			b.Run(fmt.Sprintf("rules_%d/dim_%d", n, dim), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					classifyBoth(ps, gen, pkts[i%len(pkts)])
				}
			})
		}
	}
}

func BenchmarkInsert(b *testing.B) {
	prng := rand.New(rand.NewPCG(7, 7))
	rules := make([]*Rule, 0, 100_000)
	for range cap(rules) {
		rules = append(rules, toRule(golden.RandomContiguousRule(prng, 3)))
	}

	b.ReportAllocs()
	ps := new(PartitionSort)
	for i := 0; i < b.N; i++ {
		if i%len(rules) == 0 && i > 0 {
			ps = new(PartitionSort)
		}
		ps.Insert(rules[i%len(rules)])
	}
}

func BenchmarkBuildOffline(b *testing.B) {
	prng := rand.New(rand.NewPCG(7, 7))
	rules := make([]*Rule, 0, 5_000)
	for range cap(rules) {
		rules = append(rules, toRule(golden.RandomContiguousRule(prng, 3)))
	}

	b.ReportAllocs()
	for range b.N {
		ps := new(PartitionSort)
		ps.Build(rules)
	}
}
