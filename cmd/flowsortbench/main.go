// Copyright (c) 2025 the flowsort authors
// SPDX-License-Identifier: MIT

// Command flowsortbench builds a classifier from a random OpenFlow-ish
// ruleset and measures classification throughput against it.
package main

import (
	"flag"
	"log"
	"math/rand/v2"
	"time"

	"github.com/flowsort/flowsort"
	"github.com/flowsort/flowsort/oxm"
)

var (
	numRules   = flag.Int("rules", 10_000, "number of rules")
	numPackets = flag.Int("packets", 1_000_000, "number of lookups")
	seed       = flag.Uint64("seed", 42, "prng seed")
	online     = flag.Bool("online", false, "build incrementally instead of offline")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	prng := rand.New(rand.NewPCG(*seed, *seed))
	flows := randomFlows(prng, *numRules)

	cc := new(flowsort.CombinedClassifier)
	ts := time.Now()
	var err error
	if *online {
		err = cc.BuildOnline(flows)
	} else {
		err = cc.Build(flows)
	}
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	log.Printf("build %d rules: %v", *numRules, time.Since(ts))
	log.Printf("\n%s", cc)

	pkts := make([]*flowsort.Packet, 1024)
	for i := range pkts {
		pkts[i] = randomPacket(prng)
	}

	var matched int
	ts = time.Now()
	for i := range *numPackets {
		if _, ok := cc.Classify(pkts[i%len(pkts)]); ok {
			matched++
		}
	}
	elapsed := time.Since(ts)
	log.Printf("%d lookups in %v (%.0f ns/op), %d matched",
		*numPackets, elapsed,
		float64(elapsed.Nanoseconds())/float64(*numPackets), matched)
}

// randomFlows builds flows over IPv4 source and destination (exact,
// prefix or arbitrary masks), half of them also matching an exact TCP
// destination port.
func randomFlows(prng *rand.Rand, n int) []*flowsort.Flow {
	flows := make([]*flowsort.Flow, n)
	for i := range flows {
		f := &flowsort.Flow{
			Priority: int64(prng.IntN(1 << 16)),
			Handle:   i,
		}
		f.Matches = append(f.Matches,
			ip4Match(prng, oxm.IPv4Src),
			ip4Match(prng, oxm.IPv4Dst),
		)
		if prng.IntN(2) == 0 {
			f.Matches = append(f.Matches, flowsort.Match{
				Field: oxm.TCPDst,
				Value: []byte{byte(prng.IntN(256)), byte(prng.IntN(256))},
			})
		}
		flows[i] = f
	}
	return flows
}

func ip4Match(prng *rand.Rand, ft oxm.FieldType) flowsort.Match {
	v := prng.Uint32()
	m := flowsort.Match{
		Field: ft,
		Value: []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)},
	}
	switch prng.IntN(4) {
	case 0: // exact
	case 3: // arbitrary bitmask
		mm := prng.Uint32()
		m.Mask = []byte{byte(mm >> 24), byte(mm >> 16), byte(mm >> 8), byte(mm)}
	default: // prefix
		mm := ^uint32(0) << prng.IntN(25)
		m.Mask = []byte{byte(mm >> 24), byte(mm >> 16), byte(mm >> 8), byte(mm)}
	}
	return m
}

func randomPacket(prng *rand.Rand) *flowsort.Packet {
	p := new(flowsort.Packet)
	l3 := make([]byte, 20)
	for i := range l3 {
		l3[i] = byte(prng.IntN(256))
	}
	l4 := make([]byte, 8)
	for i := range l4 {
		l4[i] = byte(prng.IntN(256))
	}
	p.Base[oxm.BaseL3] = l3
	p.Base[oxm.BaseL4] = l4
	p.Base[oxm.BaseIPProto] = []byte{6}
	return p
}
