package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hcpresearch-backend/lib/platforms"
	"hcpresearch-backend/lib/platforms/reddit"
	"hcpresearch-backend/lib/platforms/twitter"
	"hcpresearch-backend/lib/sheets"
	"hcpresearch-backend/lib/testutil"
	"hcpresearch-backend/services/feed/db"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const tweetBody = `{
	"results": [
		{
			"tweet_id": "1",
			"text": "NHS backlog discussion",
			"creation_date": "Mon Jun 10 09:00:00 +0000 2024",
			"favorite_count": 30,
			"retweet_count": 5,
			"user": {"username": "dr_a"}
		},
		{
			"tweet_id": "2",
			"text": "Another take on the backlog",
			"creation_date": "Tue Jun 11 10:00:00 +0000 2024",
			"favorite_count": 10,
			"user": {"username": "dr_b"}
		}
	]
}`

func TestSearchLiveThenCached(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/feed",
		DbSchema: db.Schema,
	})
	defer cleanup()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tweetBody))
	}))
	defer gateway.Close()

	service := NewService(setup.DB, Options{
		Twitter: twitter.NewClient(gateway.URL, "test-key"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	res, err := service.Search(ctx, SearchRequest{
		Platform: platforms.Twitter,
		Keyword:  "nhs backlog",
	})
	require.NoError(t, err)
	require.Equal(t, SourceLive, res.Source)
	require.Equal(t, 2, res.Total)
	require.Equal(t, 2, res.UniqueAuthors)
	require.Equal(t, "NHS backlog discussion", res.Posts[0].Content)
	require.Equal(t, int64(35), res.Posts[0].Engagement)

	// the live fetch should have filled the cache
	cached, err := service.Cached(ctx, platforms.Twitter)
	require.NoError(t, err)
	require.Equal(t, SourceCache, cached.Source)
	require.Equal(t, 2, cached.Total)

	count, err := service.qry.CountCachedPosts(ctx, platforms.Twitter)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	// and the next failing fetch should serve it
	gateway.Close()
	res, err = service.Search(ctx, SearchRequest{
		Platform: platforms.Twitter,
		Keyword:  "nhs backlog",
	})
	require.NoError(t, err)
	require.Equal(t, SourceCache, res.Source)
	require.Equal(t, 2, res.Total)
}

func TestSearchRedditMinEngagement(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/feed",
		DbSchema: db.Schema,
	})
	defer cleanup()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [
				{
					"title": "Quiet thread",
					"url": "https://reddit.com/r/nhs/1",
					"score": 1,
					"comments": 0,
					"author": {"name": "a"},
					"subreddit": {"name": "nhs"}
				},
				{
					"title": "Busy thread",
					"url": "https://reddit.com/r/nhs/2",
					"score": 400,
					"comments": 50,
					"author": {"name": "b"},
					"subreddit": {"name": "nhs"}
				}
			]
		}`))
	}))
	defer gateway.Close()

	service := NewService(setup.DB, Options{
		Reddit: reddit.NewClient(gateway.URL, "test-key"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	res, err := service.Search(ctx, SearchRequest{
		Platform:      platforms.Reddit,
		Keyword:       "nhs",
		MinEngagement: 10,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	require.Equal(t, "Busy thread", res.Posts[0].Content)
}

func TestSearchSubredditForwardsKeyword(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/feed",
		DbSchema: db.Schema,
	})
	defer cleanup()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the gateway searches the whole subreddit, not just one page
		require.Equal(t, "/sub_posts_v3", r.URL.Path)
		require.Equal(t, "https://www.reddit.com/r/nhs/", r.URL.Query().Get("sub"))
		require.Equal(t, "waiting lists", r.URL.Query().Get("query"))
		w.Write([]byte(`{"data": []}`))
	}))
	defer gateway.Close()

	service := NewService(setup.DB, Options{
		Reddit: reddit.NewClient(gateway.URL, "test-key"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	// no live rows and no fallback configured, the error is expected
	_, err := service.Search(ctx, SearchRequest{
		Platform:         platforms.Reddit,
		Subreddit:        "r/nhs",
		SubredditKeyword: "waiting lists",
	})
	require.Error(t, err)
}

func TestSearchFallsBackToSheet(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/feed",
		DbSchema: db.Schema,
	})
	defer cleanup()

	sheet := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(
			"Platform,Post,Date,Engagement,Author,URL\n" +
				"Twitter,cached tweet,2024-06-01 10:00:00,12,someone,https://t/1\n" +
				"Reddit,cached reddit post,2024-06-01 10:00:00,40,other,https://r/1\n",
		))
	}))
	defer sheet.Close()

	service := NewService(setup.DB, Options{
		// no twitter client configured, the live fetch always fails
		Sheets: sheets.NewClient(),
		Sheet:  SheetConfig{FallbackUrl: sheet.URL},
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	res, err := service.Search(ctx, SearchRequest{
		Platform: platforms.Twitter,
		Keyword:  "anything",
	})
	require.NoError(t, err)
	require.Equal(t, SourceSheet, res.Source)
	require.Equal(t, 1, res.Total)
	require.Equal(t, "cached tweet", res.Posts[0].Content)
}

func TestBigData(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/feed",
		DbSchema: db.Schema,
	})
	defer cleanup()

	bigData := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(
			"content,title,score,url,created_at,raw_content\n" +
				"Diabetes pathway redesign in England,Article,90,https://x/1,2024-05-01T09:00:00,\n" +
				"Unrelated cardiology story,Article 2,50,https://x/2,2024-05-02T09:00:00,\n",
		))
	}))
	defer bigData.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(
			"Platform,Post,Date,Engagement,Author,URL\n" +
				"Twitter,Diabetes pathway redesign in England,2024-06-01 10:00:00,5,dup,https://t/9\n",
		))
	}))
	defer fallback.Close()

	service := NewService(setup.DB, Options{
		Sheet: SheetConfig{
			BigDataUrl:  bigData.URL,
			FallbackUrl: fallback.URL,
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	res, err := service.BigData(ctx, "")
	require.NoError(t, err)
	// the fallback row duplicates the big-data row's content
	require.Equal(t, 2, res.Total)
	require.Equal(t, 2, res.UniqueUrls)

	filtered, err := service.BigData(ctx, "diabetes")
	require.NoError(t, err)
	require.Equal(t, 1, filtered.Total)
	require.Equal(t, int64(90), filtered.Posts[0].Engagement)
}

func TestMetrics(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/feed",
		DbSchema: db.Schema,
	})
	defer cleanup()

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tweetBody))
	}))
	defer gateway.Close()

	service := NewService(setup.DB, Options{
		Twitter: twitter.NewClient(gateway.URL, "test-key"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := service.Search(ctx, SearchRequest{
		Platform: platforms.Twitter,
		Keyword:  "nhs backlog",
	})
	require.NoError(t, err)

	m, err := service.Metrics(ctx, platforms.Twitter)
	require.NoError(t, err)
	require.Equal(t, 2, m.Total)
	require.Equal(t, 2, m.UniqueAuthors)
	require.Equal(t, int64(35), m.MaxEngagement)
	require.InDelta(t, 22.5, m.AvgEngagement, 0.001)
	require.InDelta(t, 22.5, m.EngagementByPlatform[platforms.Twitter], 0.001)
	require.Len(t, m.EngagementOverTime, 2)
	require.Less(t, m.EngagementOverTime[0].Date, m.EngagementOverTime[1].Date)
}
