package insights

import (
	"math"
	"time"

	"hcpresearch-backend/lib/platforms"
)

type Stats struct {
	TotalRecords  int            `json:"total_records"`
	AvgEngagement float64        `json:"avg_engagement"`
	MaxEngagement int64          `json:"max_engagement"`
	MinEngagement int64          `json:"min_engagement"`
	EngagementStd float64        `json:"engagement_std"`
	UniqueAuthors int            `json:"unique_authors"`
	Platforms     map[string]int `json:"platforms"`
	DateRange     string         `json:"date_range"`
}

// ComputeStats summarizes the dataset the way the analysis prompt
// presents it.
func ComputeStats(posts []platforms.Post) Stats {
	stats := Stats{
		TotalRecords: len(posts),
		Platforms:    map[string]int{},
	}
	if len(posts) == 0 {
		return stats
	}

	authors := map[string]struct{}{}
	var sum int64
	stats.MinEngagement = posts[0].Engagement
	earliest := posts[0].PostedAt
	latest := posts[0].PostedAt

	for _, p := range posts {
		sum += p.Engagement
		if p.Engagement > stats.MaxEngagement {
			stats.MaxEngagement = p.Engagement
		}
		if p.Engagement < stats.MinEngagement {
			stats.MinEngagement = p.Engagement
		}
		authors[p.Author] = struct{}{}
		stats.Platforms[p.Platform]++
		if p.PostedAt.Before(earliest) {
			earliest = p.PostedAt
		}
		if p.PostedAt.After(latest) {
			latest = p.PostedAt
		}
	}

	mean := float64(sum) / float64(len(posts))
	stats.AvgEngagement = mean

	var variance float64
	for _, p := range posts {
		diff := float64(p.Engagement) - mean
		variance += diff * diff
	}
	// sample standard deviation, matching how the dashboards always
	// reported it
	if len(posts) > 1 {
		stats.EngagementStd = math.Sqrt(variance / float64(len(posts)-1))
	}

	stats.UniqueAuthors = len(authors)
	stats.DateRange = formatDateRange(earliest, latest)
	return stats
}

func formatDateRange(earliest, latest time.Time) string {
	return earliest.Format("2006-01-02") + " to " + latest.Format("2006-01-02")
}
