package feed

import (
	"hcpresearch-backend/lib/platforms"

	"github.com/antzucaro/matchr"
)

// two posts whose contents score at or above this are treated as the
// same post reshared with trivial edits
const nearDuplicateThreshold = 0.97

// Rank orders posts for display: engagement descending, exact
// duplicates dropped, then near-duplicates collapsed keeping the
// higher-engagement row.
func Rank(posts []platforms.Post) []platforms.Post {
	platforms.SortByEngagement(posts)
	posts = platforms.DedupeByContent(posts)
	return collapseNearDuplicates(posts)
}

// collapseNearDuplicates is quadratic but the feed never exceeds a few
// hundred rows per search.
func collapseNearDuplicates(posts []platforms.Post) []platforms.Post {
	out := make([]platforms.Post, 0, len(posts))
	for _, candidate := range posts {
		duplicate := false
		for _, kept := range out {
			if matchr.JaroWinkler(kept.Content, candidate.Content, false) >= nearDuplicateThreshold {
				duplicate = true
				break
			}
		}
		// posts arrive engagement-sorted so the kept row always has
		// the higher engagement
		if !duplicate {
			out = append(out, candidate)
		}
	}
	return out
}
