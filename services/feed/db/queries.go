package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type PostCache struct {
	Platform    string
	Content     string
	Author      string
	Url         string
	Engagement  int64
	PostedAt    int64
	Search      string
	Subreddit   string
	ContentType string
	MediaUrl    string
	FetchedAt   int64
}

const upsertCachedPost = `
INSERT INTO post_cache (
    platform, content, author, url, engagement, posted_at,
    search, subreddit, content_type, media_url, fetched_at
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (platform, content) DO UPDATE SET
    author = excluded.author,
    url = excluded.url,
    engagement = max(post_cache.engagement, excluded.engagement),
    posted_at = excluded.posted_at,
    search = excluded.search,
    subreddit = excluded.subreddit,
    content_type = excluded.content_type,
    media_url = excluded.media_url,
    fetched_at = excluded.fetched_at
`

type UpsertCachedPostParams struct {
	Platform    string
	Content     string
	Author      string
	Url         string
	Engagement  int64
	PostedAt    int64
	Search      string
	Subreddit   string
	ContentType string
	MediaUrl    string
	FetchedAt   int64
}

func (q *Queries) UpsertCachedPost(ctx context.Context, arg UpsertCachedPostParams) error {
	_, err := q.db.ExecContext(ctx, upsertCachedPost,
		arg.Platform,
		arg.Content,
		arg.Author,
		arg.Url,
		arg.Engagement,
		arg.PostedAt,
		arg.Search,
		arg.Subreddit,
		arg.ContentType,
		arg.MediaUrl,
		arg.FetchedAt,
	)
	return err
}

const getCachedPosts = `
SELECT platform, content, author, url, engagement, posted_at,
       search, subreddit, content_type, media_url, fetched_at
FROM post_cache
WHERE platform = ?
ORDER BY engagement DESC
`

func (q *Queries) GetCachedPosts(ctx context.Context, platform string) ([]PostCache, error) {
	rows, err := q.db.QueryContext(ctx, getCachedPosts, platform)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PostCache
	for rows.Next() {
		var p PostCache
		err := rows.Scan(
			&p.Platform,
			&p.Content,
			&p.Author,
			&p.Url,
			&p.Engagement,
			&p.PostedAt,
			&p.Search,
			&p.Subreddit,
			&p.ContentType,
			&p.MediaUrl,
			&p.FetchedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const getAllCachedPosts = `
SELECT platform, content, author, url, engagement, posted_at,
       search, subreddit, content_type, media_url, fetched_at
FROM post_cache
ORDER BY engagement DESC
`

func (q *Queries) GetAllCachedPosts(ctx context.Context) ([]PostCache, error) {
	rows, err := q.db.QueryContext(ctx, getAllCachedPosts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PostCache
	for rows.Next() {
		var p PostCache
		err := rows.Scan(
			&p.Platform,
			&p.Content,
			&p.Author,
			&p.Url,
			&p.Engagement,
			&p.PostedAt,
			&p.Search,
			&p.Subreddit,
			&p.ContentType,
			&p.MediaUrl,
			&p.FetchedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const countCachedPosts = `
SELECT count(*) FROM post_cache WHERE platform = ?
`

func (q *Queries) CountCachedPosts(ctx context.Context, platform string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCachedPosts, platform)
	var count int64
	err := row.Scan(&count)
	return count, err
}
