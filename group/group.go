// Package group implements adaptive event grouping: merging a catalog's
// candidate event groups as aggressively as possible while keeping each
// merged group within a programmable-counter budget, so the scheduler
// has fewer groups to rotate between.
package group

import (
	"math"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/linux-perf-tools/hperf/catalog"
)

// Group is an ordered list of schedulable events. Events are considered
// equal, for merging purposes, by Encoding: two events with the same
// encoding occupy the same hardware slot.
type Group = []catalog.Event

// Merge greedily merges groups, smallest-first, subtracting duplicate
// encodings, until no two groups can be merged without the union
// exceeding k distinct encodings:
//
//	loop:
//	  if len(groups) < 2: stop
//	  i := argmin |G|
//	  j := argmin over k != i of |union(G[i], G[k])|
//	  if |union(G[i], G[j])| <= k: merge, replace G[i] and G[j] with the union
//	  else: stop
//
// Merge does not mutate groups; it returns a new slice. Applying Merge
// to its own output is a fixed point: the result already satisfies "no
// pair of groups can be merged without exceeding k".
func Merge(groups []Group, k int) []Group {
	gs := make([]Group, len(groups))
	copy(gs, groups)

	for len(gs) >= 2 {
		i := smallestIndex(gs)

		j := -1
		bestSize := math.MaxInt
		for idx := range gs {
			if idx == i {
				continue
			}
			if sz := unionSize(gs[i], gs[idx]); sz < bestSize {
				bestSize = sz
				j = idx
			}
		}

		if bestSize > k {
			break
		}

		merged := unionByEncoding(gs[i], gs[j])
		lo, hi := i, j
		if lo > hi {
			lo, hi = hi, lo
		}
		gs = append(gs[:hi], gs[hi+1:]...)
		gs = append(gs[:lo], gs[lo+1:]...)
		gs = append(gs, merged)
	}

	return gs
}

func smallestIndex(gs []Group) int {
	smallest := 0
	for i := 1; i < len(gs); i++ {
		if len(gs[i]) < len(gs[smallest]) {
			smallest = i
		}
	}
	return smallest
}

func encodingSet(g Group) mapset.Set[uint64] {
	s := mapset.NewThreadUnsafeSet[uint64]()
	for _, e := range g {
		s.Add(e.Encoding)
	}
	return s
}

// unionSize returns the number of distinct encodings across a and b.
func unionSize(a, b Group) int {
	return encodingSet(a).Union(encodingSet(b)).Cardinality()
}

// unionByEncoding returns the events of a and b, deduplicated by
// encoding (the representative for a duplicate encoding is the one from
// a, the first operand), sorted by encoding for a deterministic,
// reproducible group ordering.
func unionByEncoding(a, b Group) Group {
	seen := mapset.NewThreadUnsafeSet[uint64]()
	out := make(Group, 0, len(a)+len(b))
	for _, e := range a {
		if seen.Add(e.Encoding) {
			out = append(out, e)
		}
	}
	for _, e := range b {
		if seen.Add(e.Encoding) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Encoding < out[j].Encoding })
	return out
}
