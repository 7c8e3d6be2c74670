package reddit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"hcpresearch-backend/lib/platforms"

	"github.com/stretchr/testify/require"
)

func TestCleanSubredditName(t *testing.T) {
	cases := map[string]string{
		"medicine":                                "medicine",
		"r/medicine":                              "medicine",
		"/r/medicine/":                            "medicine",
		"https://www.reddit.com/r/medicine/":      "medicine",
		"https://reddit.com/r/medicine/comments/": "medicine",
		"  r/AskDocs ":                            "AskDocs",
	}
	for input, want := range cases {
		require.Equal(t, want, CleanSubredditName(input), "input %q", input)
	}
}

const sampleBody = `{
	"data": [
		{
			"title": "GP access thread",
			"url": "https://reddit.com/r/medicine/1",
			"score": 120,
			"comments": 30,
			"creationDate": "2024-06-10T09:30:00.000000+0000",
			"content": {"text": "<p>Access to <b>GPs</b> is getting worse</p>"},
			"author": {"name": "throwaway_doc"},
			"subreddit": {"name": "r/medicine"}
		},
		{
			"title": "Ward photo",
			"url": "https://reddit.com/r/nhs/2",
			"score": 10,
			"comments": 2,
			"content": {"image": {"url": "https://i.redd.it/x.jpg"}},
			"author": {},
			"subreddit": {"name": "nhs"}
		}
	]
}`

func TestSearchPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search_posts_v3", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "gp access", q.Get("query"))
		require.Equal(t, "TOP", q.Get("sort"))
		require.Equal(t, "WEEK", q.Get("time"))
		require.Equal(t, "0", q.Get("nsfw"))
		w.Write([]byte(sampleBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	posts, err := client.SearchPosts(context.Background(), SearchRequest{
		Keyword: "gp access",
		Sort:    "top",
		Time:    "week",
	})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	require.Equal(t, "GP access thread\n\nAccess to GPs is getting worse", posts[0].Content)
	require.Equal(t, "throwaway_doc", posts[0].Author)
	require.Equal(t, int64(150), posts[0].Engagement)
	require.Equal(t, "medicine", posts[0].Subreddit)
	require.Equal(t, platforms.ContentTypeText, posts[0].ContentType)
	require.Equal(t, "gp access", posts[0].Search)

	require.Equal(t, "Ward photo", posts[1].Content)
	require.Equal(t, "Unknown", posts[1].Author)
	require.Equal(t, platforms.ContentTypeImage, posts[1].ContentType)
	require.Equal(t, "https://i.redd.it/x.jpg", posts[1].MediaURL)
}

func TestSearchPostsMinEngagement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	posts, err := client.SearchPosts(context.Background(), SearchRequest{
		Keyword:       "gp access",
		MinEngagement: 100,
	})
	require.NoError(t, err)

	// the ward photo only has 12 engagement
	require.Len(t, posts, 1)
	require.Equal(t, int64(150), posts[0].Engagement)
}

func TestContentTypePrecedence(t *testing.T) {
	// posts with both body text and media stay typed as text
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [
				{
					"title": "Scan results",
					"url": "https://reddit.com/r/medicine/3",
					"score": 5,
					"comments": 1,
					"content": {
						"text": "What do you make of this?",
						"image": {"url": "https://i.redd.it/scan.jpg"}
					},
					"author": {"name": "worried_pt"},
					"subreddit": {"name": "medicine"}
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	posts, err := client.SearchPosts(context.Background(), SearchRequest{Keyword: "scan"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "Scan results\n\nWhat do you make of this?", posts[0].Content)
	require.Equal(t, platforms.ContentTypeText, posts[0].ContentType)
	require.Empty(t, posts[0].MediaURL)
}

func TestSubredditPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sub_posts_v3", r.URL.Path)
		q := r.URL.Query()
		require.Equal(t, "https://www.reddit.com/r/medicine/", q.Get("sub"))
		require.Equal(t, "RELEVANCE", q.Get("sort"))
		require.Equal(t, "ALL", q.Get("time"))
		require.False(t, q.Has("query"))
		w.Write([]byte(sampleBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	posts, err := client.SubredditPosts(context.Background(), SubredditRequest{
		Subreddit: "https://www.reddit.com/r/medicine/",
	})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.Equal(t, "r/medicine", posts[0].Search)
}

func TestSubredditPostsWithQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "https://www.reddit.com/r/nhs/", q.Get("sub"))
		require.Equal(t, "staffing", q.Get("query"))
		w.Write([]byte(sampleBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.SubredditPosts(context.Background(), SubredditRequest{
		Subreddit: "r/nhs",
		Query:     "staffing",
	})
	require.NoError(t, err)
}
