package grading

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestEqualsComparator(t *testing.T) {
	cases := []struct {
		name     string
		expected interface{}
		actual   interface{}
		want     bool
	}{
		{"int matches json number", float64(5), int64(5), true},
		{"int mismatch", float64(5), int64(7), false},
		{"float exact match", 2.5, 2.5, true},
		{"string match", "hello", "hello", true},
		{"string mismatch", "hello", "world", false},
		{"bool match", true, true, true},
		{"bool against string actual", true, "true", false},
		{"string expected against numeric actual", "5", int64(5), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmp := ComparatorConfig{Type: ComparatorEquals, Config: ComparatorParams{Expected: tc.expected}}
			require.Equal(t, tc.want, compare(cmp, tc.actual))
		})
	}
}

func TestContainsComparatorIsCaseSensitive(t *testing.T) {
	cmp := ComparatorConfig{Type: ComparatorContains, Config: ComparatorParams{Expected: "World"}}

	require.True(t, compare(cmp, "Hello World"))
	require.False(t, compare(cmp, "hello world"))
}

func TestRangeComparator(t *testing.T) {
	cmp := ComparatorConfig{Type: ComparatorRange, Config: ComparatorParams{Min: floatPtr(1), Max: floatPtr(10)}}

	require.True(t, compare(cmp, int64(7)))
	require.True(t, compare(cmp, float64(1)), "lower bound is inclusive")
	require.True(t, compare(cmp, float64(10)), "upper bound is inclusive")
	require.False(t, compare(cmp, float64(10.01)))
	require.False(t, compare(cmp, "abc"), "non-numeric value never satisfies a range")
	require.False(t, compare(cmp, nil))
}

func TestRangeComparatorOpenBounds(t *testing.T) {
	minOnly := ComparatorConfig{Type: ComparatorRange, Config: ComparatorParams{Min: floatPtr(3)}}
	require.True(t, compare(minOnly, float64(100)))
	require.False(t, compare(minOnly, float64(2)))

	maxOnly := ComparatorConfig{Type: ComparatorRange, Config: ComparatorParams{Max: floatPtr(3)}}
	require.True(t, compare(maxOnly, float64(-50)))
	require.False(t, compare(maxOnly, float64(4)))
}

func TestRegexComparatorUsesSearchSemantics(t *testing.T) {
	cmp := ComparatorConfig{Type: ComparatorRegex, Config: ComparatorParams{Pattern: `\d{3}`}}

	require.True(t, compare(cmp, "order 123 confirmed"), "pattern may match anywhere")
	require.False(t, compare(cmp, "no digits here"))
}

func TestRegexComparatorInvalidPatternIsNonMatch(t *testing.T) {
	cmp := ComparatorConfig{Type: ComparatorRegex, Config: ComparatorParams{Pattern: "("}}

	require.NotPanics(t, func() {
		require.False(t, compare(cmp, "anything"))
	})
}

func TestComparatorApplicability(t *testing.T) {
	require.False(t, ComparatorConfig{Type: ComparatorEquals}.applicable())
	require.True(t, ComparatorConfig{Type: ComparatorEquals, Config: ComparatorParams{Expected: "x"}}.applicable())
	require.False(t, ComparatorConfig{Type: ComparatorRange}.applicable())
	require.True(t, ComparatorConfig{Type: ComparatorRange, Config: ComparatorParams{Min: floatPtr(0)}}.applicable())
	require.False(t, ComparatorConfig{Type: ComparatorRegex}.applicable())
	require.True(t, ComparatorConfig{Type: ComparatorRegex, Config: ComparatorParams{Pattern: "a"}}.applicable())
}
