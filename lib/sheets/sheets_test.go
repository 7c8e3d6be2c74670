package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hcpresearch-backend/lib/platforms"

	"github.com/stretchr/testify/require"
)

func TestExportURL(t *testing.T) {
	require.Equal(t,
		"https://docs.google.com/spreadsheets/d/abc/export?format=csv",
		ExportURL("https://docs.google.com/spreadsheets/d/abc/edit?gid=0#gid=0"),
	)
	require.Equal(t, "http://127.0.0.1:1234/data.csv", ExportURL("http://127.0.0.1:1234/data.csv"))
}

func TestFetchFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(
			"Platform,Post,Date,Engagement,Author,URL\n" +
				"Twitter,Duplicate content,2024-06-01 10:00:00,5,low,https://t/1\n" +
				"LinkedIn,Unique content,2024-06-02 11:00:00,\"1,200\",Dr B,https://l/2\n" +
				"Twitter,Duplicate content,2024-06-03 12:00:00,80,high,https://t/3\n",
		))
	}))
	defer server.Close()

	client := NewClient()
	posts, err := client.FetchFallback(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// sorted by engagement, duplicate content keeps the higher row
	require.Equal(t, "Unique content", posts[0].Content)
	require.Equal(t, int64(1200), posts[0].Engagement)
	require.Equal(t, "Duplicate content", posts[1].Content)
	require.Equal(t, int64(80), posts[1].Engagement)
	require.Equal(t, "high", posts[1].Author)
	require.Equal(t, 2024, posts[0].PostedAt.Year())
}

func TestFetchBigData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(
			"content,title,score,url,created_at,raw_content\n" +
				"Pathway article body,NHS pathway update,42,https://x/1,2024-05-01T09:00:00,<p>raw</p>\n" +
				",Title only row,7,https://x/2,,\n",
		))
	}))
	defer server.Close()

	client := NewClient()
	posts, err := client.FetchBigData(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	require.Equal(t, platforms.ExternalSource, posts[0].Platform)
	require.Equal(t, "Pathway article body", posts[0].Content)
	require.Equal(t, "NHS pathway update", posts[0].Author)
	require.Equal(t, int64(42), posts[0].Engagement)
	require.Equal(t, "<p>raw</p>", posts[0].RawContent)

	// content falls back to the title, missing created_at falls back to now
	require.Equal(t, "Title only row", posts[1].Content)
	require.False(t, posts[1].PostedAt.IsZero())
}

func TestAppendRows(t *testing.T) {
	var got appendPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "hook-user", user)
		require.Equal(t, "hook-pass", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer server.Close()

	client := NewClient()
	err := client.AppendRows(context.Background(), server.URL, "hook-user", "hook-pass", []platforms.Post{
		{
			Platform:   platforms.Reddit,
			Content:    "a post",
			Author:     "someone",
			URL:        "https://r/1",
			Engagement: 9,
			Search:     "diabetes",
		},
	})
	require.NoError(t, err)
	require.Len(t, got.Rows, 1)
	require.Equal(t, "Reddit", got.Rows[0].Platform)
	require.Equal(t, "a post", got.Rows[0].Post)
	require.Equal(t, "diabetes", got.Rows[0].Search)
	require.NotEmpty(t, got.Rows[0].Date)
}

func TestAppendRowsRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient()
	err := client.AppendRows(context.Background(), server.URL, "u", "p", nil)
	require.ErrorContains(t, err, "rejected")
}
