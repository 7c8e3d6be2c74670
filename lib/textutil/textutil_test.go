package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainsAny(t *testing.T) {
	terms := []string{"NHS", "NICE", "Integrated Care Board"}

	require.True(t, ContainsAny("the nhs waiting lists keep growing", terms))
	require.True(t, ContainsAny("per NICE guidance", terms))
	require.False(t, ContainsAny("completely unrelated text", terms))
	require.False(t, ContainsAny("anything", []string{"", "  "}))
}

func TestCountTerms(t *testing.T) {
	n := CountTerms(
		"diabetes care pathways and heart disease prevention",
		[]string{"diabetes", "heart disease", "asthma"},
	)
	require.Equal(t, 2, n)
}

func TestSplitKeywords(t *testing.T) {
	require.Equal(
		t,
		[]string{"diabetes", "heart disease"},
		SplitKeywords("diabetes, heart disease, "),
	)
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", Truncate("abc", 5))
	require.Equal(t, "ab...", Truncate("abcdef", 2))
}
