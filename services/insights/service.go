// Package insights turns a dataset of posts into an OpenAI analysis,
// and stores the configurable analysis prompt.
package insights

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"hcpresearch-backend/lib/platforms"
	"hcpresearch-backend/lib/platforms/openai"
	"hcpresearch-backend/lib/telemetry"
	"hcpresearch-backend/lib/timezone"
	"hcpresearch-backend/services/insights/db"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = telemetry.Tracer("hcpresearch.services.insights")

const systemPrompt = "You are a healthcare data analyst specializing in analyzing social media and web content related to healthcare professionals. Your analysis should be evidence-based, focusing on practical insights for pharmaceutical and healthcare organizations."

// DefaultAnalysisPrompt seeds the prompt store on first boot. Analysts
// edit it from the dashboard afterwards.
const DefaultAnalysisPrompt = `Analyze the dataset sample below for trends relevant to UK and Ireland care pathways.
Identify the most discussed conditions, concerns raised by healthcare professionals,
and any emerging themes around treatment access or service pressure.
Use bullet points for key findings and organize insights by theme.`

type Service struct {
	db     *sql.DB
	qry    *db.Queries
	openai *openai.Client
}

func NewService(database *sql.DB, client *openai.Client) (Service, error) {
	s := Service{
		db:     database,
		qry:    db.New(database),
		openai: client,
	}
	err := s.seedPrompt(context.Background())
	if err != nil {
		return Service{}, fmt.Errorf("seed analysis prompt: %w", err)
	}
	return s, nil
}

func (s Service) seedPrompt(ctx context.Context) error {
	_, err := s.qry.GetPrompt(ctx)
	if err == sql.ErrNoRows {
		return s.qry.SetPrompt(ctx, db.SetPromptParams{
			Prompt:    DefaultAnalysisPrompt,
			Updatedat: timezone.Now().Unix(),
		})
	}
	return err
}

// GetPrompt returns the stored analysis prompt.
func (s Service) GetPrompt(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "GetPrompt")
	defer span.End()

	prompt, err := s.qry.GetPrompt(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read analysis prompt")
		return "", err
	}
	return prompt, nil
}

// SetPrompt replaces the stored analysis prompt.
func (s Service) SetPrompt(ctx context.Context, prompt string) error {
	ctx, span := tracer.Start(ctx, "SetPrompt")
	defer span.End()

	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt must not be empty")
	}
	err := s.qry.SetPrompt(ctx, db.SetPromptParams{
		Prompt:    prompt,
		Updatedat: timezone.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store analysis prompt")
		return err
	}
	return nil
}

// Analyze builds the full analysis prompt from the dataset and the
// user's request, then asks the model for insights.
func (s Service) Analyze(ctx context.Context, posts []platforms.Post, userPrompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "Analyze")
	defer span.End()
	span.SetAttributes(attribute.Int("posts", len(posts)))

	if len(posts) == 0 {
		return "", fmt.Errorf("no data to analyze")
	}

	fullPrompt := buildAnalysisPrompt(posts, userPrompt)
	analysis, err := s.openai.Complete(ctx, systemPrompt, fullPrompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", err
	}
	return analysis, nil
}

// AnalyzeWithStoredPrompt runs the stored prompt over a pre-rendered
// data sample, the pathway dashboard flow.
func (s Service) AnalyzeWithStoredPrompt(ctx context.Context, dataSample, userKeywords string) (string, error) {
	ctx, span := tracer.Start(ctx, "AnalyzeWithStoredPrompt")
	defer span.End()

	storedPrompt, err := s.GetPrompt(ctx)
	if err != nil {
		return "", err
	}

	fullPrompt := fmt.Sprintf(`%s

User Keywords: %s

Dataset Sample:
%s`, storedPrompt, userKeywords, dataSample)

	analysis, err := s.openai.Complete(ctx, "You are a data analysis expert.", fullPrompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", err
	}
	return analysis, nil
}

func buildAnalysisPrompt(posts []platforms.Post, userPrompt string) string {
	stats := ComputeStats(posts)

	platformParts := make([]string, 0, len(stats.Platforms))
	for name, count := range stats.Platforms {
		platformParts = append(platformParts, fmt.Sprintf("%s (%d)", name, count))
	}

	var b strings.Builder
	b.WriteString("# Healthcare Data Analysis Request\n\n")
	b.WriteString("## Dataset Overview\n")
	fmt.Fprintf(&b, "- Total Records: %d\n", stats.TotalRecords)
	fmt.Fprintf(&b, "- Date Range: %s\n", stats.DateRange)
	fmt.Fprintf(&b, "- Platforms: %s\n\n", strings.Join(platformParts, ", "))

	b.WriteString("## Engagement Metrics\n")
	fmt.Fprintf(&b, "- Average: %.2f\n", stats.AvgEngagement)
	fmt.Fprintf(&b, "- Maximum: %d\n", stats.MaxEngagement)
	fmt.Fprintf(&b, "- Minimum: %d\n", stats.MinEngagement)
	fmt.Fprintf(&b, "- Standard Deviation: %.2f\n", stats.EngagementStd)
	fmt.Fprintf(&b, "- Unique Authors: %d\n\n", stats.UniqueAuthors)

	b.WriteString("## HIGH ENGAGEMENT SAMPLE:\n")
	writeSample(&b, HighEngagementSample(posts))

	b.WriteString("\n## DIVERSE PLATFORM SAMPLE:\n")
	writeSample(&b, DiversePlatformSample(posts))

	b.WriteString("\n## USER ANALYSIS REQUEST:\n")
	b.WriteString(userPrompt)
	b.WriteString("\n\nProvide a clear, structured analysis focusing specifically on the healthcare implications.\n")
	b.WriteString("Use bullet points for key findings and organize insights by theme.\n")
	return b.String()
}

func writeSample(b *strings.Builder, posts []platforms.Post) {
	for _, p := range posts {
		fmt.Fprintf(b, "- [%s] (%d engagement, by %s) %s\n",
			p.Platform, p.Engagement, p.Author, p.Content)
	}
}
