package commands

import (
	"fmt"
	"os"
	"time"

	"hcpresearch-backend/lib/platforms"
	"hcpresearch-backend/lib/platforms/linkedin"
	"hcpresearch-backend/lib/platforms/reddit"
	"hcpresearch-backend/lib/platforms/twitter"
	"hcpresearch-backend/lib/textutil"
	"hcpresearch-backend/services/feed"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchFlags struct {
	platform      string
	minEngagement int64
	sortBy        string
	datePosted    string
	sort          string
	timeWindow    string
	subreddit     string
	startDate     string
}

func init() {
	searchCmd.Flags().StringVarP(&searchFlags.platform, "platform", "p", platforms.Twitter,
		"LinkedIn, Twitter or Reddit")
	searchCmd.Flags().Int64Var(&searchFlags.minEngagement, "min-engagement", 1,
		"drop posts under this engagement (Twitter, Reddit)")
	searchCmd.Flags().StringVar(&searchFlags.sortBy, "sort-by", "relevance",
		"relevance or date_posted (LinkedIn)")
	searchCmd.Flags().StringVar(&searchFlags.datePosted, "date-posted", "past-week",
		"past-24h, past-week or past-month (LinkedIn)")
	searchCmd.Flags().StringVar(&searchFlags.sort, "sort", "relevance",
		"relevance, hot, top, new or comments (Reddit)")
	searchCmd.Flags().StringVar(&searchFlags.timeWindow, "time", "all",
		"hour, day, week, month, year or all (Reddit)")
	searchCmd.Flags().StringVar(&searchFlags.subreddit, "subreddit", "",
		"browse a subreddit instead of searching (Reddit)")
	searchCmd.Flags().StringVar(&searchFlags.startDate, "start-date", "",
		"YYYY-MM-DD, only newer tweets (Twitter)")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Searches a platform and prints the ranked posts.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword := args[0]
		ctx := cmd.Context()

		apiKey, err := rapidApiKey()
		if err != nil {
			return err
		}

		var posts []platforms.Post
		switch searchFlags.platform {
		case platforms.LinkedIn:
			posts, err = linkedin.NewClient(linkedin.DefaultBaseUrl, apiKey).
				SearchPosts(ctx, linkedin.SearchRequest{
					Keyword:    keyword,
					SortBy:     searchFlags.sortBy,
					DatePosted: searchFlags.datePosted,
				})
		case platforms.Twitter:
			var startDate time.Time
			if searchFlags.startDate != "" {
				startDate, err = time.Parse("2006-01-02", searchFlags.startDate)
				if err != nil {
					return fmt.Errorf("start-date must be YYYY-MM-DD")
				}
			}
			posts, err = twitter.NewClient(twitter.DefaultBaseUrl, apiKey).
				SearchTweets(ctx, twitter.SearchRequest{
					Keyword:       keyword,
					MinEngagement: searchFlags.minEngagement,
					StartDate:     startDate,
				})
		case platforms.Reddit:
			client := reddit.NewClient(reddit.DefaultBaseUrl, apiKey)
			if searchFlags.subreddit != "" {
				posts, err = client.SubredditPosts(ctx, reddit.SubredditRequest{
					Subreddit: searchFlags.subreddit,
					Sort:      searchFlags.sort,
					Time:      searchFlags.timeWindow,
					Query:     keyword,
				})
			} else {
				posts, err = client.SearchPosts(ctx, reddit.SearchRequest{
					Keyword:       keyword,
					Sort:          searchFlags.sort,
					Time:          searchFlags.timeWindow,
					MinEngagement: searchFlags.minEngagement,
				})
			}
		default:
			return fmt.Errorf("unknown platform %q", searchFlags.platform)
		}
		if err != nil {
			return err
		}

		posts = feed.Rank(posts)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Platform", "Engagement", "Author", "Posted", "Content"})
		for _, p := range posts {
			t.AppendRow(table.Row{
				p.Platform,
				p.Engagement,
				p.Author,
				p.PostedAt.Format("2006-01-02"),
				textutil.Truncate(textutil.NormalizeContent(p.Content), 80),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
