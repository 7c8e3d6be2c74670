package insights

import (
	"math/rand"

	"hcpresearch-backend/lib/platforms"
)

const highEngagementSampleSize = 5
const perPlatformSampleSize = 3
const randomFallbackSampleSize = 10

// HighEngagementSample returns the top posts by engagement.
func HighEngagementSample(posts []platforms.Post) []platforms.Post {
	sorted := make([]platforms.Post, len(posts))
	copy(sorted, posts)
	platforms.SortByEngagement(sorted)
	if len(sorted) > highEngagementSampleSize {
		sorted = sorted[:highEngagementSampleSize]
	}
	return sorted
}

// DiversePlatformSample picks up to a few random posts per platform so
// the analysis sees more than just the loudest channel. When the posts
// carry no platform labels at all it falls back to a flat random
// sample.
func DiversePlatformSample(posts []platforms.Post) []platforms.Post {
	buckets := map[string][]platforms.Post{}
	for _, p := range posts {
		if p.Platform == "" {
			continue
		}
		buckets[p.Platform] = append(buckets[p.Platform], p)
	}

	if len(buckets) == 0 {
		return randomSample(posts, randomFallbackSampleSize)
	}

	var sample []platforms.Post
	for _, bucket := range buckets {
		sample = append(sample, randomSample(bucket, perPlatformSampleSize)...)
	}
	return sample
}

func randomSample(posts []platforms.Post, n int) []platforms.Post {
	if len(posts) <= n {
		out := make([]platforms.Post, len(posts))
		copy(out, posts)
		return out
	}
	picked := rand.Perm(len(posts))[:n]
	out := make([]platforms.Post, 0, n)
	for _, idx := range picked {
		out = append(out, posts[idx])
	}
	return out
}
