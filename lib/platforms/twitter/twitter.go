// Package twitter wraps the twitter154 RapidAPI gateway.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hcpresearch-backend/lib/platforms"
	"hcpresearch-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("platforms/twitter")

const DefaultBaseUrl = "https://twitter154.p.rapidapi.com"
const rapidApiHost = "twitter154.p.rapidapi.com"

type Client struct {
	http *resty.Client
}

func NewClient(baseUrl, apiKey string) *Client {
	client := restyutil.NewClient(restyutil.Options{
		TracerName: "platforms/twitter/http",
	})
	client.SetBaseURL(baseUrl)
	client.SetHeader("x-rapidapi-key", apiKey)
	client.SetHeader("x-rapidapi-host", rapidApiHost)

	return &Client{http: client}
}

type SearchRequest struct {
	Keyword string
	// "top" in practice, the sidebar never exposes anything else
	Section string
	// rows below this engagement sum are dropped during parsing
	MinEngagement int64
	// optional, only tweets posted on or after this date
	StartDate time.Time
}

type tweet struct {
	TweetId       string `json:"tweet_id"`
	Text          string `json:"text"`
	CreationDate  string `json:"creation_date"`
	FavoriteCount int64  `json:"favorite_count"`
	RetweetCount  int64  `json:"retweet_count"`
	ReplyCount    int64  `json:"reply_count"`
	QuoteCount    int64  `json:"quote_count"`
	User          struct {
		Username string `json:"username"`
	} `json:"user"`
}

type searchResponse struct {
	Results []tweet `json:"results"`
}

// SearchTweets searches recent tweets for the keyword and normalizes
// them, dropping anything under the requested minimum engagement.
func (c *Client) SearchTweets(ctx context.Context, req SearchRequest) ([]platforms.Post, error) {
	ctx, span := tracer.Start(ctx, "SearchTweets")
	defer span.End()
	span.SetAttributes(attribute.String("keyword", req.Keyword))

	section := req.Section
	if section == "" {
		section = "top"
	}

	r := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":        req.Keyword,
			"section":      section,
			"min_retweets": "0",
			"min_likes":    "1",
			"limit":        "50",
			"language":     "en",
		})
	if !req.StartDate.IsZero() {
		r.SetQueryParam("start_date", req.StartDate.Format("2006-01-02"))
	}

	res, err := r.Get("/search/search")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search request failed")
		return nil, err
	}

	var body searchResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected search response format")
		return nil, fmt.Errorf("parse twitter response: %w", err)
	}
	if body.Results == nil {
		err := fmt.Errorf("twitter response carries no results field")
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected search response format")
		return nil, err
	}

	var posts []platforms.Post
	for _, tw := range body.Results {
		engagement := tw.FavoriteCount + tw.RetweetCount + tw.ReplyCount + tw.QuoteCount
		if engagement < req.MinEngagement {
			continue
		}

		postedAt := time.Now()
		if tw.CreationDate != "" {
			parsed, err := time.Parse(time.RubyDate, tw.CreationDate)
			if err == nil {
				postedAt = parsed
			}
		}

		username := tw.User.Username
		if username == "" {
			username = "Unknown"
		}
		content := tw.Text
		if content == "" {
			content = "No content"
		}

		posts = append(posts, platforms.Post{
			Platform:   platforms.Twitter,
			Content:    content,
			Author:     username,
			URL:        fmt.Sprintf("https://twitter.com/%s/status/%s", tw.User.Username, tw.TweetId),
			Engagement: engagement,
			PostedAt:   postedAt,
			Search:     req.Keyword,
		})
	}
	return posts, nil
}
