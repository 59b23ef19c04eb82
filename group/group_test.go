package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linux-perf-tools/hperf/catalog"
)

func ev(name string, encoding uint64) catalog.Event {
	return catalog.Event{Name: name, Encoding: encoding}
}

func encodings(g Group) []uint64 {
	out := make([]uint64, len(g))
	for i, e := range g {
		out[i] = e.Encoding
	}
	return out
}

// TestMergeSpecExample reproduces spec.md's boundary scenario 3:
// groups {A,B,C,D}, {A,E,F,G}, {A,H,I}, budget k=7 merge to two groups.
func TestMergeSpecExample(t *testing.T) {
	a, b, c, d, e, f, g, h, i := ev("A", 1), ev("B", 2), ev("C", 3), ev("D", 4),
		ev("E", 5), ev("F", 6), ev("G", 7), ev("H", 8), ev("I", 9)

	groups := []Group{
		{a, b, c, d},
		{a, e, f, g},
		{a, h, i},
	}

	result := Merge(groups, 7)

	require.Len(t, result, 2)
	sizes := []int{len(result[0]), len(result[1])}
	assert.ElementsMatch(t, []int{4, 6}, sizes)

	for _, grp := range result {
		assert.LessOrEqual(t, len(grp), 7)
	}
}

func TestMergeInvariantAfterTermination(t *testing.T) {
	groups := []Group{
		{ev("a", 1), ev("b", 2), ev("c", 3), ev("d", 4)},
		{ev("a", 1), ev("e", 5), ev("f", 6), ev("g", 7)},
		{ev("a", 1), ev("h", 8), ev("i", 9)},
	}
	k := 7
	result := Merge(groups, k)

	for _, grp := range result {
		assert.LessOrEqual(t, len(grp), k)
	}
	for i := range result {
		for j := range result {
			if i == j {
				continue
			}
			assert.Greater(t, unionSize(result[i], result[j]), k,
				"groups %d and %d could still be merged within budget", i, j)
		}
	}
}

func TestMergeFixedPoint(t *testing.T) {
	groups := []Group{
		{ev("a", 1), ev("b", 2)},
		{ev("c", 3), ev("d", 4)},
		{ev("e", 5)},
	}
	once := Merge(groups, 4)
	twice := Merge(once, 4)

	require.Equal(t, len(once), len(twice))
	for i := range once {
		assert.Equal(t, encodings(once[i]), encodings(twice[i]))
	}
}

func TestMergeSingleGroupIsNoop(t *testing.T) {
	groups := []Group{{ev("a", 1), ev("b", 2)}}
	result := Merge(groups, 10)
	require.Len(t, result, 1)
	assert.Equal(t, encodings(groups[0]), encodings(result[0]))
}

func TestMergeOverBudgetStops(t *testing.T) {
	groups := []Group{
		{ev("a", 1), ev("b", 2), ev("c", 3)},
		{ev("d", 4), ev("e", 5), ev("f", 6)},
	}
	result := Merge(groups, 2)
	require.Len(t, result, 2)
}

func TestUnionByEncodingCommutativeAndAssociative(t *testing.T) {
	a := Group{ev("a", 1), ev("b", 2)}
	b := Group{ev("b", 2), ev("c", 3)}
	c := Group{ev("d", 4)}

	ab := unionByEncoding(a, b)
	ba := unionByEncoding(b, a)
	assert.ElementsMatch(t, encodings(ab), encodings(ba))

	abThenC := unionByEncoding(unionByEncoding(a, b), c)
	aThenBC := unionByEncoding(a, unionByEncoding(b, c))
	assert.ElementsMatch(t, encodings(abThenC), encodings(aThenBC))
}

func TestUnionByEncodingDedups(t *testing.T) {
	a := Group{ev("a", 1), ev("b", 2)}
	b := Group{ev("a-dup", 1), ev("c", 3)}
	merged := unionByEncoding(a, b)
	assert.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].Name) // representative from the first operand
}
