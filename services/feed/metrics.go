package feed

import (
	"context"
	"sort"

	"hcpresearch-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type EngagementPoint struct {
	// start of day, UK time
	Date       string `json:"date"`
	Engagement int64  `json:"engagement"`
	Posts      int    `json:"posts"`
}

type Metrics struct {
	Total         int     `json:"total"`
	UniqueAuthors int     `json:"unique_authors"`
	MaxEngagement int64   `json:"max_engagement"`
	AvgEngagement float64 `json:"avg_engagement"`
	// mean engagement per platform, the bar chart on the overview tab
	EngagementByPlatform map[string]float64 `json:"engagement_by_platform"`
	// daily totals, the time series chart
	EngagementOverTime []EngagementPoint `json:"engagement_over_time"`
}

// Metrics summarizes the cached dataset for the dashboard charts.
// Platform narrows the summary when non-empty.
func (s Service) Metrics(ctx context.Context, platform string) (Metrics, error) {
	ctx, span := tracer.Start(ctx, "Metrics")
	defer span.End()
	span.SetAttributes(attribute.String("platform", platform))

	posts, err := s.cachedPosts(ctx, platform)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read post cache")
		return Metrics{}, err
	}

	m := Metrics{
		Total:                len(posts),
		EngagementByPlatform: map[string]float64{},
	}

	authors := map[string]struct{}{}
	platformTotals := map[string]int64{}
	platformCounts := map[string]int{}
	daily := map[string]*EngagementPoint{}

	var sum int64
	for _, p := range posts {
		authors[p.Author] = struct{}{}
		sum += p.Engagement
		if p.Engagement > m.MaxEngagement {
			m.MaxEngagement = p.Engagement
		}
		platformTotals[p.Platform] += p.Engagement
		platformCounts[p.Platform]++

		day := timezone.StartOfDay(p.PostedAt).Format("2006-01-02")
		point, ok := daily[day]
		if !ok {
			point = &EngagementPoint{Date: day}
			daily[day] = point
		}
		point.Engagement += p.Engagement
		point.Posts++
	}

	m.UniqueAuthors = len(authors)
	if len(posts) > 0 {
		m.AvgEngagement = float64(sum) / float64(len(posts))
	}
	for name, total := range platformTotals {
		m.EngagementByPlatform[name] = float64(total) / float64(platformCounts[name])
	}

	for _, point := range daily {
		m.EngagementOverTime = append(m.EngagementOverTime, *point)
	}
	sort.Slice(m.EngagementOverTime, func(i, j int) bool {
		return m.EngagementOverTime[i].Date < m.EngagementOverTime[j].Date
	})

	return m, nil
}
