// Package reddit wraps the reddit-scraper2 RapidAPI gateway.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"hcpresearch-backend/lib/htmlutil"
	"hcpresearch-backend/lib/platforms"
	"hcpresearch-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("platforms/reddit")

const DefaultBaseUrl = "https://reddit-scraper2.p.rapidapi.com"
const rapidApiHost = "reddit-scraper2.p.rapidapi.com"

const creationDateLayout = "2006-01-02T15:04:05.000000-0700"

type Client struct {
	http *resty.Client
}

func NewClient(baseUrl, apiKey string) *Client {
	client := restyutil.NewClient(restyutil.Options{
		TracerName: "platforms/reddit/http",
		// the scraper gateway fronts with bot protection
		BypassCloudflare: true,
	})
	client.SetBaseURL(baseUrl)
	client.SetHeader("x-rapidapi-key", apiKey)
	client.SetHeader("x-rapidapi-host", rapidApiHost)

	return &Client{http: client}
}

type SearchRequest struct {
	Keyword string
	// "RELEVANCE", "HOT", "TOP", "NEW" or "COMMENTS", lowercased
	// values are accepted and uppercased before hitting the gateway
	Sort string
	// "hour", "day", "week", "month", "year" or "all", same treatment
	Time string
	// posts under this score+comments sum are skipped during parsing
	MinEngagement int64
}

type SubredditRequest struct {
	// bare name, "r/" prefix or a full reddit URL all work
	Subreddit string
	Sort      string
	Time      string
	// optional keyword, searched by the gateway within the subreddit
	Query string
}

type postContent struct {
	Text  string `json:"text"`
	Image struct {
		Url string `json:"url"`
	} `json:"image"`
	Video struct {
		Url string `json:"url"`
	} `json:"video"`
}

type redditPost struct {
	Title        string      `json:"title"`
	Url          string      `json:"url"`
	Score        int64       `json:"score"`
	Comments     int64       `json:"comments"`
	CreationDate string      `json:"creationDate"`
	Content      postContent `json:"content"`
	Author       struct {
		Name string `json:"name"`
	} `json:"author"`
	Subreddit struct {
		Name string `json:"name"`
		Url  string `json:"url"`
	} `json:"subreddit"`
}

type searchResponse struct {
	Data []redditPost `json:"data"`
}

// CleanSubredditName reduces whatever the caller typed, a full URL, an
// "r/" prefixed name or a bare name, to the bare subreddit name the
// gateway expects.
func CleanSubredditName(input string) string {
	name := strings.TrimSpace(input)
	if idx := strings.Index(name, "reddit.com/r/"); idx >= 0 {
		name = name[idx+len("reddit.com/r/"):]
	}
	name = strings.TrimPrefix(name, "r/")
	name = strings.Trim(name, "/")
	if idx := strings.IndexRune(name, '/'); idx >= 0 {
		name = name[:idx]
	}
	return name
}

// SearchPosts runs a site-wide keyword search.
func (c *Client) SearchPosts(ctx context.Context, req SearchRequest) ([]platforms.Post, error) {
	ctx, span := tracer.Start(ctx, "SearchPosts")
	defer span.End()
	span.SetAttributes(attribute.String("keyword", req.Keyword))

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query": req.Keyword,
			"sort":  normalizeSort(req.Sort),
			"time":  normalizeTime(req.Time),
			"nsfw":  "0",
		}).
		Get("/search_posts_v3")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search_posts_v3 request failed")
		return nil, err
	}
	return c.parsePosts(span, res.Body(), req.Keyword, req.MinEngagement)
}

// SubredditPosts lists posts from a single subreddit.
func (c *Client) SubredditPosts(ctx context.Context, req SubredditRequest) ([]platforms.Post, error) {
	ctx, span := tracer.Start(ctx, "SubredditPosts")
	defer span.End()

	name := CleanSubredditName(req.Subreddit)
	span.SetAttributes(attribute.String("subreddit", name))

	request := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			// the gateway wants the full subreddit URL, not the name
			"sub":  "https://www.reddit.com/r/" + name + "/",
			"sort": normalizeSort(req.Sort),
			"time": normalizeTime(req.Time),
		})
	if req.Query != "" {
		request.SetQueryParam("query", req.Query)
	}

	res, err := request.Get("/sub_posts_v3")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sub_posts_v3 request failed")
		return nil, err
	}
	// browsing a subreddit shows everything, no engagement floor
	return c.parsePosts(span, res.Body(), "r/"+name, 0)
}

func normalizeSort(sort string) string {
	if sort == "" {
		return "RELEVANCE"
	}
	return strings.ToUpper(sort)
}

func normalizeTime(t string) string {
	if t == "" {
		return "ALL"
	}
	return strings.ToUpper(t)
}

func (c *Client) parsePosts(span trace.Span, body []byte, search string, minEngagement int64) ([]platforms.Post, error) {
	var parsed searchResponse
	err := json.Unmarshal(body, &parsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected response format")
		return nil, fmt.Errorf("parse reddit response: %w", err)
	}

	posts := make([]platforms.Post, 0, len(parsed.Data))
	for _, p := range parsed.Data {
		engagement := p.Score + p.Comments
		if engagement < minEngagement {
			continue
		}

		postedAt := time.Now()
		if p.CreationDate != "" {
			parsedTime, err := time.Parse(creationDateLayout, p.CreationDate)
			if err == nil {
				postedAt = parsedTime
			}
		}

		// text-only posts keep their title, media posts carry the url
		content := p.Title
		contentType := platforms.ContentTypeText
		mediaUrl := ""
		switch {
		case p.Content.Text != "":
			content = p.Title + "\n\n" + htmlutil.StripTags(p.Content.Text)
		case p.Content.Image.Url != "":
			contentType = platforms.ContentTypeImage
			mediaUrl = p.Content.Image.Url
		case p.Content.Video.Url != "":
			contentType = platforms.ContentTypeVideo
			mediaUrl = p.Content.Video.Url
		}
		if content == "" {
			content = "No content"
		}

		author := p.Author.Name
		if author == "" {
			author = "Unknown"
		}

		posts = append(posts, platforms.Post{
			Platform:    platforms.Reddit,
			Content:     content,
			Author:      author,
			URL:         p.Url,
			Engagement:  engagement,
			PostedAt:    postedAt,
			Search:      search,
			Subreddit:   CleanSubredditName(p.Subreddit.Name),
			ContentType: contentType,
			MediaURL:    mediaUrl,
		})
	}
	return posts, nil
}
