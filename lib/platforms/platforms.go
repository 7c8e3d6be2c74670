// Package platforms holds the unified post model every platform client
// normalizes into, plus the clients themselves in subpackages.
package platforms

import (
	"sort"
	"time"
)

const (
	LinkedIn = "LinkedIn"
	Twitter  = "Twitter"
	Reddit   = "Reddit"
	// rows loaded from the external big-data spreadsheet
	ExternalSource = "External Source"
)

const (
	ContentTypeText  = "text"
	ContentTypeImage = "image"
	ContentTypeVideo = "video"
)

// Post is the unified row shape shared by every platform. Engagement is
// the platform-specific sum of interaction counts (likes + comments +
// shares and so on), which is the only metric the dashboards rank by.
type Post struct {
	Platform   string    `json:"platform"`
	Content    string    `json:"content"`
	Author     string    `json:"author"`
	URL        string    `json:"url"`
	Engagement int64     `json:"engagement"`
	PostedAt   time.Time `json:"posted_at"`
	// the search query that produced this row
	Search string `json:"search,omitempty"`

	// reddit only
	Subreddit   string `json:"subreddit,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	MediaURL    string `json:"media_url,omitempty"`

	// external source rows only
	RawContent string `json:"raw_content,omitempty"`
}

// SortByEngagement orders posts by engagement descending, in place.
// The sort is stable so dedupe keeps the earliest of equal rows.
func SortByEngagement(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Engagement > posts[j].Engagement
	})
}

// DedupeByContent drops rows whose content was already seen, keeping
// the first occurrence. Run after SortByEngagement so the kept row is
// the highest-engagement one.
func DedupeByContent(posts []Post) []Post {
	seen := make(map[string]struct{}, len(posts))
	out := posts[:0]
	for _, p := range posts {
		if _, ok := seen[p.Content]; ok {
			continue
		}
		seen[p.Content] = struct{}{}
		out = append(out, p)
	}
	return out
}
