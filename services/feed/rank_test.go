package feed

import (
	"testing"

	"hcpresearch-backend/lib/platforms"

	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	posts := []platforms.Post{
		{Content: "NHS waiting lists hit a record high this month", Engagement: 10},
		{Content: "completely different post about diabetes care", Engagement: 50},
		{Content: "NHS waiting lists hit a record high this month", Engagement: 80},
		{Content: "NHS waiting lists hit a record high this month!", Engagement: 5},
	}

	ranked := Rank(posts)
	require.Len(t, ranked, 2)

	// exact duplicate keeps the 80 row, the trailing-bang variant is
	// collapsed as a near duplicate
	require.Equal(t, int64(80), ranked[0].Engagement)
	require.Equal(t, "NHS waiting lists hit a record high this month", ranked[0].Content)
	require.Equal(t, int64(50), ranked[1].Engagement)
}

func TestRankKeepsDistinctContent(t *testing.T) {
	posts := []platforms.Post{
		{Content: "GP appointment shortages in Wales", Engagement: 1},
		{Content: "Hospital discharge delays in Scotland", Engagement: 2},
	}
	require.Len(t, Rank(posts), 2)
}
