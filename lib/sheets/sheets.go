// Package sheets loads post datasets out of Google Sheets CSV exports
// and appends fetched rows back through the collection webhook.
package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hcpresearch-backend/lib/platforms"
	"hcpresearch-backend/lib/restyutil"
	"hcpresearch-backend/lib/timezone"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("sheets")

const appendDateLayout = "2006-01-02 15:04:05"

type Client struct {
	http *resty.Client
}

func NewClient() *Client {
	return &Client{
		http: restyutil.NewClient(restyutil.Options{
			TracerName: "sheets/http",
		}),
	}
}

// ExportURL rewrites a sheet's /edit URL into its CSV export URL.
// URLs that already point somewhere else (a test server, a plain CSV)
// pass through untouched.
func ExportURL(sheetUrl string) string {
	idx := strings.Index(sheetUrl, "/edit")
	if idx < 0 {
		return sheetUrl
	}
	return sheetUrl[:idx] + "/export?format=csv"
}

// FetchFallback downloads the curated fallback sheet. Its columns are
// already in unified form: Platform, Post, Date, Engagement, Author,
// URL. Rows come back engagement-sorted and content-deduped.
func (c *Client) FetchFallback(ctx context.Context, sheetUrl string) ([]platforms.Post, error) {
	ctx, span := tracer.Start(ctx, "FetchFallback")
	defer span.End()

	records, err := c.fetchCSV(ctx, sheetUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback sheet download failed")
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("fallback sheet is empty")
	}

	cols := headerIndex(records[0])
	posts := make([]platforms.Post, 0, len(records)-1)
	for _, row := range records[1:] {
		posts = append(posts, platforms.Post{
			Platform:   field(row, cols, "platform"),
			Content:    field(row, cols, "post"),
			Author:     field(row, cols, "author"),
			URL:        field(row, cols, "url"),
			Engagement: intField(row, cols, "engagement"),
			PostedAt:   dateField(row, cols, "date"),
		})
	}

	platforms.SortByEngagement(posts)
	posts = platforms.DedupeByContent(posts)
	span.SetAttributes(attribute.Int("rows", len(posts)))
	return posts, nil
}

// FetchBigData downloads the big-data sheet, whose rows carry scraped
// article content (content, title, score, url, created_at,
// raw_content). Everything is tagged as an external source row.
func (c *Client) FetchBigData(ctx context.Context, sheetUrl string) ([]platforms.Post, error) {
	ctx, span := tracer.Start(ctx, "FetchBigData")
	defer span.End()

	records, err := c.fetchCSV(ctx, sheetUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "big-data sheet download failed")
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("big-data sheet is empty")
	}

	cols := headerIndex(records[0])
	posts := make([]platforms.Post, 0, len(records)-1)
	for _, row := range records[1:] {
		content := field(row, cols, "content")
		if content == "" {
			content = field(row, cols, "title")
		}
		posts = append(posts, platforms.Post{
			Platform:   platforms.ExternalSource,
			Content:    content,
			Author:     field(row, cols, "title"),
			URL:        field(row, cols, "url"),
			Engagement: intField(row, cols, "score"),
			PostedAt:   dateField(row, cols, "created_at"),
			RawContent: field(row, cols, "raw_content"),
		})
	}

	platforms.SortByEngagement(posts)
	posts = platforms.DedupeByContent(posts)
	span.SetAttributes(attribute.Int("rows", len(posts)))
	return posts, nil
}

type appendRow struct {
	Platform   string `json:"Platform"`
	Post       string `json:"Post"`
	Date       string `json:"Date"`
	Engagement int64  `json:"Engagement"`
	Author     string `json:"Author"`
	URL        string `json:"URL"`
	Search     string `json:"Search"`
}

type appendPayload struct {
	Rows []appendRow `json:"rows"`
}

// AppendRows posts fetched rows to the collection webhook. Callers
// treat failures as non-fatal, the sheet is a sink, not a system of
// record.
func (c *Client) AppendRows(ctx context.Context, webhookUrl, username, password string, posts []platforms.Post) error {
	ctx, span := tracer.Start(ctx, "AppendRows")
	defer span.End()
	span.SetAttributes(attribute.Int("rows", len(posts)))

	rows := make([]appendRow, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, appendRow{
			Platform:   p.Platform,
			Post:       p.Content,
			Date:       p.PostedAt.In(timezone.Location).Format(appendDateLayout),
			Engagement: p.Engagement,
			Author:     p.Author,
			URL:        p.URL,
			Search:     p.Search,
		})
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(username, password).
		SetHeader("content-type", "application/json").
		SetBody(appendPayload{Rows: rows}).
		Post(webhookUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook append failed")
		return err
	}
	if res.IsError() {
		err := fmt.Errorf("webhook append rejected: %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, "webhook append rejected")
		return err
	}
	return nil
}

func (c *Client) fetchCSV(ctx context.Context, sheetUrl string) ([][]string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(ExportURL(sheetUrl))
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("sheet export returned %s", res.Status())
	}

	reader := csv.NewReader(strings.NewReader(string(res.Body())))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse sheet csv: %w", err)
	}
	return records, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func field(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func intField(row []string, cols map[string]int, name string) int64 {
	raw := field(row, cols, name)
	if raw == "" {
		return 0
	}
	// engagement occasionally arrives as "1,234" or "56.0"
	raw = strings.ReplaceAll(raw, ",", "")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err == nil {
		return n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err == nil {
		return int64(f)
	}
	return 0
}

var dateLayouts = []string{
	appendDateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

func dateField(row []string, cols map[string]int, name string) time.Time {
	raw := field(row, cols, name)
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, raw, timezone.Location)
		if err == nil {
			return t
		}
	}
	return timezone.Now()
}
