package linkedin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search-posts", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-rapidapi-key"))

		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "diabetes care", payload["keyword"])
		require.Equal(t, float64(1), payload["page"])
		require.Len(t, payload["authorIndustry"], len(HealthcareIndustries))

		w.Write([]byte(`{
			"success": true,
			"data": {
				"count": 2,
				"items": [
					{
						"text": "New diabetes pathway results",
						"url": "https://linkedin.com/posts/1",
						"postedDateTimestamp": 1718000000000,
						"socialActivityCountsInsight": {
							"numComments": 3, "likeCount": 10, "empathyCount": 2
						},
						"author": {"fullName": "Dr A"}
					},
					{
						"text": "",
						"url": "https://linkedin.com/posts/2",
						"socialActivityCountsInsight": {"likeCount": 1},
						"author": {}
					}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	posts, err := client.SearchPosts(context.Background(), SearchRequest{
		Keyword:    "diabetes care",
		SortBy:     "relevance",
		DatePosted: "past-week",
	})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	require.Equal(t, "New diabetes pathway results", posts[0].Content)
	require.Equal(t, "Dr A", posts[0].Author)
	require.Equal(t, int64(15), posts[0].Engagement)
	require.Equal(t, int64(1718000000), posts[0].PostedAt.Unix())
	require.Equal(t, "diabetes care", posts[0].Search)

	require.Equal(t, "No content", posts[1].Content)
	require.Equal(t, "Unknown", posts[1].Author)
	require.Equal(t, int64(1), posts[1].Engagement)
}

func TestSearchPostsNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": {"count": 0, "items": []}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.SearchPosts(context.Background(), SearchRequest{Keyword: "zzz"})
	require.ErrorIs(t, err, ErrNoResults)
}

func TestSearchPostsGatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "rate limited"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	_, err := client.SearchPosts(context.Background(), SearchRequest{Keyword: "x"})
	require.ErrorContains(t, err, "rate limited")
}
