// Package feed orchestrates the social listening feed: live platform
// fetches, ranking, the local post cache and the sheet fallback.
package feed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hcpresearch-backend/lib/platforms"
	"hcpresearch-backend/lib/platforms/linkedin"
	"hcpresearch-backend/lib/platforms/reddit"
	"hcpresearch-backend/lib/platforms/twitter"
	"hcpresearch-backend/lib/sheets"
	"hcpresearch-backend/lib/telemetry"
	"hcpresearch-backend/lib/timezone"
	"hcpresearch-backend/services/feed/db"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	_ "modernc.org/sqlite"
)

var tracer = telemetry.Tracer("hcpresearch.services.feed")
var meter = otel.Meter("hcpresearch.services.feed")

var fallbackCounter, _ = meter.Int64Counter("feed_service.fallback_counter")
var cacheSizeGauge, _ = meter.Int64Gauge("feed_service.cached_posts")

// Source tells the caller where the rows actually came from so the UI
// can warn when it is showing degraded data.
const (
	SourceLive  = "live"
	SourceCache = "cache"
	SourceSheet = "sheet"
)

type SheetConfig struct {
	FallbackUrl     string `json:"fallback_url"`
	BigDataUrl      string `json:"big_data_url"`
	WebhookUrl      string `json:"webhook_url"`
	WebhookUsername string `json:"webhook_username"`
	WebhookPassword string `json:"webhook_password"`
}

type Options struct {
	LinkedIn *linkedin.Client
	Twitter  *twitter.Client
	Reddit   *reddit.Client
	Sheets   *sheets.Client
	Sheet    SheetConfig
}

type Service struct {
	db     *sql.DB
	qry    *db.Queries
	config Options
}

func NewService(database *sql.DB, options Options) Service {
	if options.Sheets == nil {
		options.Sheets = sheets.NewClient()
	}
	return Service{
		db:     database,
		qry:    db.New(database),
		config: options,
	}
}

type SearchRequest struct {
	// one of the platforms.* constants
	Platform string
	Keyword  string

	// linkedin
	SortBy     string
	DatePosted string

	// twitter and reddit keyword search
	MinEngagement int64

	// twitter
	StartDate time.Time

	// reddit
	Sort string
	Time string
	// when set, browse the subreddit instead of searching site-wide;
	// SubredditKeyword then searches within that subreddit
	Subreddit        string
	SubredditKeyword string
}

type SearchResult struct {
	Source        string           `json:"source"`
	Posts         []platforms.Post `json:"posts"`
	Total         int              `json:"total"`
	UniqueAuthors int              `json:"unique_authors"`
}

// Search fetches live posts for the request, falling back to the local
// cache and then the fallback sheet when the platform fetch fails or
// comes back empty.
func (s Service) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("platform", req.Platform),
		attribute.String("keyword", req.Keyword),
	)

	posts, err := s.fetchLive(ctx, req)
	if err != nil || len(posts) == 0 {
		if err != nil {
			span.RecordError(err)
			slog.WarnContext(ctx, "live fetch failed, serving fallback data",
				"platform", req.Platform, "err", err)
		}
		fallbackCounter.Add(ctx, 1)
		return s.fallback(ctx, req.Platform)
	}

	posts = Rank(posts)
	s.cachePosts(ctx, posts)
	s.appendToSheet(posts)

	return result(SourceLive, posts), nil
}

// Cached serves the default no-search view straight from the post
// cache.
func (s Service) Cached(ctx context.Context, platform string) (SearchResult, error) {
	ctx, span := tracer.Start(ctx, "Cached")
	defer span.End()
	span.SetAttributes(attribute.String("platform", platform))

	posts, err := s.cachedPosts(ctx, platform)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read post cache")
		return SearchResult{}, err
	}
	return result(SourceCache, posts), nil
}

type BigDataResult struct {
	Posts      []platforms.Post `json:"posts"`
	Total      int              `json:"total"`
	UniqueUrls int              `json:"unique_urls"`
}

// BigData loads the big-data sheet merged with the fallback sheet,
// deduped by content. Query filters rows to those whose content
// contains it, case-insensitively.
func (s Service) BigData(ctx context.Context, query string) (BigDataResult, error) {
	ctx, span := tracer.Start(ctx, "BigData")
	defer span.End()

	posts, err := s.config.Sheets.FetchBigData(ctx, s.config.Sheet.BigDataUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load big-data sheet")
		return BigDataResult{}, err
	}

	fallback, err := s.config.Sheets.FetchFallback(ctx, s.config.Sheet.FallbackUrl)
	if err != nil {
		slog.WarnContext(ctx, "failed to merge fallback sheet into big data", "err", err)
	} else {
		posts = append(posts, fallback...)
	}

	platforms.SortByEngagement(posts)
	posts = platforms.DedupeByContent(posts)

	if query != "" {
		needle := strings.ToLower(query)
		filtered := posts[:0]
		for _, p := range posts {
			if strings.Contains(strings.ToLower(p.Content), needle) {
				filtered = append(filtered, p)
			}
		}
		posts = filtered
	}

	urls := map[string]struct{}{}
	for _, p := range posts {
		urls[p.URL] = struct{}{}
	}
	return BigDataResult{
		Posts:      posts,
		Total:      len(posts),
		UniqueUrls: len(urls),
	}, nil
}

func (s Service) fetchLive(ctx context.Context, req SearchRequest) ([]platforms.Post, error) {
	switch req.Platform {
	case platforms.LinkedIn:
		if s.config.LinkedIn == nil {
			return nil, fmt.Errorf("linkedin client not configured")
		}
		posts, err := s.config.LinkedIn.SearchPosts(ctx, linkedin.SearchRequest{
			Keyword:    req.Keyword,
			SortBy:     req.SortBy,
			DatePosted: req.DatePosted,
		})
		if errors.Is(err, linkedin.ErrNoResults) {
			return nil, nil
		}
		return posts, err
	case platforms.Twitter:
		if s.config.Twitter == nil {
			return nil, fmt.Errorf("twitter client not configured")
		}
		return s.config.Twitter.SearchTweets(ctx, twitter.SearchRequest{
			Keyword:       req.Keyword,
			MinEngagement: req.MinEngagement,
			StartDate:     req.StartDate,
		})
	case platforms.Reddit:
		if s.config.Reddit == nil {
			return nil, fmt.Errorf("reddit client not configured")
		}
		if req.Subreddit != "" {
			return s.config.Reddit.SubredditPosts(ctx, reddit.SubredditRequest{
				Subreddit: req.Subreddit,
				Sort:      req.Sort,
				Time:      req.Time,
				Query:     req.SubredditKeyword,
			})
		}
		return s.config.Reddit.SearchPosts(ctx, reddit.SearchRequest{
			Keyword:       req.Keyword,
			Sort:          req.Sort,
			Time:          req.Time,
			MinEngagement: req.MinEngagement,
		})
	default:
		return nil, fmt.Errorf("unknown platform: %q", req.Platform)
	}
}

func (s Service) fallback(ctx context.Context, platform string) (SearchResult, error) {
	ctx, span := tracer.Start(ctx, "fallback")
	defer span.End()

	cached, err := s.cachedPosts(ctx, platform)
	if err != nil {
		slog.WarnContext(ctx, "post cache unavailable", "err", err)
	}
	if len(cached) > 0 {
		return result(SourceCache, cached), nil
	}

	sheetPosts, err := s.config.Sheets.FetchFallback(ctx, s.config.Sheet.FallbackUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback sheet unavailable")
		return SearchResult{}, fmt.Errorf("no live data and no fallback: %w", err)
	}

	filtered := make([]platforms.Post, 0, len(sheetPosts))
	for _, p := range sheetPosts {
		if strings.EqualFold(p.Platform, platform) {
			filtered = append(filtered, p)
		}
	}
	return result(SourceSheet, filtered), nil
}

func (s Service) cachedPosts(ctx context.Context, platform string) ([]platforms.Post, error) {
	var rows []db.PostCache
	var err error
	if platform == "" {
		rows, err = s.qry.GetAllCachedPosts(ctx)
	} else {
		rows, err = s.qry.GetCachedPosts(ctx, platform)
	}
	if err != nil {
		return nil, err
	}

	posts := make([]platforms.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, platforms.Post{
			Platform:    r.Platform,
			Content:     r.Content,
			Author:      r.Author,
			URL:         r.Url,
			Engagement:  r.Engagement,
			PostedAt:    time.Unix(r.PostedAt, 0).In(timezone.Location),
			Search:      r.Search,
			Subreddit:   r.Subreddit,
			ContentType: r.ContentType,
			MediaURL:    r.MediaUrl,
		})
	}
	return posts, nil
}

func (s Service) cachePosts(ctx context.Context, posts []platforms.Post) {
	ctx, span := tracer.Start(ctx, "cachePosts")
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "failed to open cache transaction", "err", err)
		return
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	now := timezone.Now().Unix()
	for _, p := range posts {
		err := txqry.UpsertCachedPost(ctx, db.UpsertCachedPostParams{
			Platform:    p.Platform,
			Content:     p.Content,
			Author:      p.Author,
			Url:         p.URL,
			Engagement:  p.Engagement,
			PostedAt:    p.PostedAt.Unix(),
			Search:      p.Search,
			Subreddit:   p.Subreddit,
			ContentType: p.ContentType,
			MediaUrl:    p.MediaURL,
			FetchedAt:   now,
		})
		if err != nil {
			span.RecordError(err)
			slog.WarnContext(ctx, "failed to cache post", "err", err)
			return
		}
	}
	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "failed to commit post cache", "err", err)
		return
	}

	if len(posts) > 0 {
		count, err := s.qry.CountCachedPosts(ctx, posts[0].Platform)
		if err == nil {
			cacheSizeGauge.Record(ctx, count, metric.WithAttributes(
				attribute.String("platform", posts[0].Platform),
			))
		}
	}
}

// appendToSheet fires the webhook append in the background, the sheet
// is a sink and must never slow down or fail a search.
func (s Service) appendToSheet(posts []platforms.Post) {
	if s.config.Sheet.WebhookUrl == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()
		err := s.config.Sheets.AppendRows(
			ctx,
			s.config.Sheet.WebhookUrl,
			s.config.Sheet.WebhookUsername,
			s.config.Sheet.WebhookPassword,
			posts,
		)
		if err != nil {
			slog.WarnContext(ctx, "sheet append webhook failed", "err", err)
		}
	}()
}

func result(source string, posts []platforms.Post) SearchResult {
	authors := map[string]struct{}{}
	for _, p := range posts {
		authors[p.Author] = struct{}{}
	}
	return SearchResult{
		Source:        source,
		Posts:         posts,
		Total:         len(posts),
		UniqueAuthors: len(authors),
	}
}
