// Package pathways implements the NHS pathway dashboard: filtering the
// scraped article dataset to UK/Ireland care pathway content and
// generating keyword-driven insights over it.
package pathways

import (
	"context"
	"fmt"
	"strings"

	"hcpresearch-backend/lib/platforms"
	"hcpresearch-backend/lib/telemetry"
	"hcpresearch-backend/lib/textutil"
	"hcpresearch-backend/services/insights"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("hcpresearch.services.pathways")

// DefaultKeywords pre-fills the dashboard filter.
const DefaultKeywords = "diabetes, heart disease"

// terms that mark a row as UK/Ireland healthcare content
var ukIreTerms = []string{
	"UK", "U.K.", "United Kingdom",
	"Britain", "British", "GB", "Great Britain",
	"England", "English", "NHS",
	"Scotland", "Scottish",
	"Wales", "Welsh",
	"Northern Ireland", "NI",
	"Ireland", "Irish", "IRE",
	"NICE", "National Institute for Health and Care Excellence",
	"ICB", "ICBs", "Integrated Care Board",
}

const insightSampleSize = 5

// Dataset loads the scraped article sheet. Satisfied by
// *sheets.Client, the dashboard reads the sheet directly rather than
// going through the feed cache.
type Dataset interface {
	FetchBigData(ctx context.Context, sheetUrl string) ([]platforms.Post, error)
}

type Service struct {
	dataset  Dataset
	sheetUrl string
	insights insights.Service
}

func NewService(dataset Dataset, sheetUrl string, insightService insights.Service) Service {
	return Service{
		dataset:  dataset,
		sheetUrl: sheetUrl,
		insights: insightService,
	}
}

type Row struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	URL       string `json:"url"`
	Score     int64  `json:"score"`
	TermCount int    `json:"term_count"`
}

type FilterResult struct {
	Rows     []Row    `json:"rows"`
	Keywords []string `json:"keywords"`
	Total    int      `json:"total"`
}

// Filter narrows the article dataset to UK/Ireland rows matching the
// user's keywords, deduped by content, with per-row keyword counts.
func (s Service) Filter(ctx context.Context, keywords string) (FilterResult, error) {
	ctx, span := tracer.Start(ctx, "Filter")
	defer span.End()

	if strings.TrimSpace(keywords) == "" {
		keywords = DefaultKeywords
	}
	terms := textutil.SplitKeywords(keywords)
	span.SetAttributes(attribute.StringSlice("keywords", terms))

	posts, err := s.dataset.FetchBigData(ctx, s.sheetUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load article dataset")
		return FilterResult{}, err
	}

	seen := map[string]struct{}{}
	var rows []Row
	for _, p := range posts {
		title := p.Author
		content := p.Content

		if !textutil.ContainsAny(content, ukIreTerms) {
			continue
		}
		if !textutil.ContainsAny(title, terms) && !textutil.ContainsAny(content, terms) {
			continue
		}

		normalized := textutil.NormalizeContent(content)
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}

		rows = append(rows, Row{
			Title:     title,
			Content:   content,
			URL:       p.URL,
			Score:     p.Engagement,
			TermCount: textutil.CountTerms(content, terms),
		})
	}

	return FilterResult{
		Rows:     rows,
		Keywords: terms,
		Total:    len(rows),
	}, nil
}

// GenerateInsights runs the stored analysis prompt over the first few
// filtered rows.
func (s Service) GenerateInsights(ctx context.Context, keywords string) (string, error) {
	ctx, span := tracer.Start(ctx, "GenerateInsights")
	defer span.End()

	filtered, err := s.Filter(ctx, keywords)
	if err != nil {
		return "", err
	}
	if len(filtered.Rows) == 0 {
		return "", fmt.Errorf("no rows matched the pathway filters")
	}

	sample := filtered.Rows
	if len(sample) > insightSampleSize {
		sample = sample[:insightSampleSize]
	}

	var b strings.Builder
	for i, row := range sample {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Title: %s\nContent: %s", row.Title, row.Content)
	}

	return s.insights.AnalyzeWithStoredPrompt(ctx, b.String(), strings.Join(filtered.Keywords, ", "))
}
