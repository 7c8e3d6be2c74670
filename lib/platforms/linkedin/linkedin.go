// Package linkedin wraps the linkedin-api8 RapidAPI gateway.
package linkedin

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

var tracer = otel.Tracer("platforms/linkedin")

const DefaultBaseUrl = "https://linkedin-api8.p.rapidapi.com"
const rapidApiHost = "linkedin-api8.p.rapidapi.com"

// LinkedIn industry codes the post search is always restricted to.
// These come straight from the HCP research sidebar.
var HealthcareIndustries = map[string]int{
	"Hospitals and Health Care":                    14,
	"Community Services":                           2115,
	"Services for the Elderly and Disabled":        2112,
	"Hospitals":                                    2081,
	"Individual and Family Services":               88,
	"Child Day Care Services":                      2128,
	"Emergency and Relief Services":                2122,
	"Vocational Rehabilitation Services":           2125,
	"Medical Practices":                            13,
	"Alternative Medicine":                         125,
	"Ambulance Services":                           2077,
	"Chiropractors":                                2048,
	"Dentists":                                     2045,
	"Family Planning Centers":                      2060,
	"Home Health Care Services":                    2074,
	"Medical and Diagnostic Laboratories":          2069,
	"Mental Health Care":                           139,
	"Optometrists":                                 2050,
	"Outpatient Care Centers":                      2063,
	"Physical, Occupational and Speech Therapists": 2054,
	"Physicians":                                   2040,
}

func healthcareIndustryCodes() []int {
	codes := make([]int, 0, len(HealthcareIndustries))
	for _, c := range HealthcareIndustries {
		codes = append(codes, c)
	}
	return codes
}

// ErrNoResults is returned when the gateway answers successfully but
// with zero matching posts, so callers can tell "bad search term"
// apart from "gateway broken".
var ErrNoResults = fmt.Errorf("no linkedin posts found")

type Client struct {
	http *resty.Client
}

func NewClient(baseUrl, apiKey string) *Client {
	client := restyutil.NewClient(restyutil.Options{
		TracerName: "platforms/linkedin/http",
	})
	client.SetBaseURL(baseUrl)
	client.SetHeader("x-rapidapi-key", apiKey)
	client.SetHeader("x-rapidapi-host", rapidApiHost)
	client.SetHeader("content-type", "application/json")

	return &Client{http: client}
}

type SearchRequest struct {
	Keyword string
	// "relevance" or "date_posted"
	SortBy string
	// "past-24h", "past-week" or "past-month"
	DatePosted string
}

type searchPayload struct {
	Keyword        string `json:"keyword"`
	SortBy         string `json:"sortBy"`
	DatePosted     string `json:"datePosted"`
	Page           int    `json:"page"`
	ContentType    string `json:"contentType"`
	AuthorIndustry []int  `json:"authorIndustry"`
}

type socialActivity struct {
	NumComments       int64 `json:"numComments"`
	LikeCount         int64 `json:"likeCount"`
	AppreciationCount int64 `json:"appreciationCount"`
	EmpathyCount      int64 `json:"empathyCount"`
	InterestCount     int64 `json:"InterestCount"`
	PraiseCount       int64 `json:"praiseCount"`
	FunnyCount        int64 `json:"funnyCount"`
	MaybeCount        int64 `json:"maybeCount"`
}

func (a socialActivity) total() int64 {
	return a.NumComments +
		a.LikeCount +
		a.AppreciationCount +
		a.EmpathyCount +
		a.InterestCount +
		a.PraiseCount +
		a.FunnyCount +
		a.MaybeCount
}

type searchItem struct {
	Text                string         `json:"text"`
	Url                 string         `json:"url"`
	PostedDateTimestamp int64          `json:"postedDateTimestamp"`
	SocialActivity      socialActivity `json:"socialActivityCountsInsight"`
	Author              struct {
		FullName string `json:"fullName"`
	} `json:"author"`
}

type searchResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Items []searchItem `json:"items"`
		Count int          `json:"count"`
	} `json:"data"`
}

// SearchPosts runs a keyword search restricted to the healthcare
// industries and normalizes the result into unified posts.
func (c *Client) SearchPosts(ctx context.Context, req SearchRequest) ([]platforms.Post, error) {
	ctx, span := tracer.Start(ctx, "SearchPosts")
	defer span.End()
	span.SetAttributes(attribute.String("keyword", req.Keyword))

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(searchPayload{
			Keyword:        req.Keyword,
			SortBy:         req.SortBy,
			DatePosted:     req.DatePosted,
			Page:           1,
			AuthorIndustry: healthcareIndustryCodes(),
		}).
		Post("/search-posts")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search-posts request failed")
		return nil, err
	}

	var body searchResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected search-posts response format")
		return nil, fmt.Errorf("parse linkedin response: %w", err)
	}
	if !body.Success {
		err := fmt.Errorf("linkedin gateway error: %s", body.Message)
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway reported failure")
		return nil, err
	}
	if body.Data.Count <= 0 {
		return nil, ErrNoResults
	}

	posts := make([]platforms.Post, 0, len(body.Data.Items))
	for _, item := range body.Data.Items {
		postedAt := time.Now()
		if item.PostedDateTimestamp > 0 {
			postedAt = time.UnixMilli(item.PostedDateTimestamp)
		}

		author := item.Author.FullName
		if author == "" {
			author = "Unknown"
		}
		content := item.Text
		if content == "" {
			content = "No content"
		}

		posts = append(posts, platforms.Post{
			Platform:   platforms.LinkedIn,
			Content:    content,
			Author:     author,
			URL:        item.Url,
			Engagement: item.SocialActivity.total(),
			PostedAt:   postedAt,
			Search:     req.Keyword,
		})
	}
	return posts, nil
}
