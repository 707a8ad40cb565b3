package sources

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/david/signalscout/internal/config"
	"github.com/david/signalscout/internal/scan"
	"github.com/mmcdole/gofeed"
)

// RSS fetches posts from configured blog/forum feeds. Feeds carry no
// engagement counters, so those subscores stay at zero and the signal
// lives or dies on keyword and recency matches.
type RSS struct {
	parser *gofeed.Parser
}

func NewRSS() *RSS {
	p := gofeed.NewParser()
	p.UserAgent = userAgent
	return &RSS{parser: p}
}

func (r *RSS) Name() string { return "rss" }

func (r *RSS) Fetch(ctx context.Context, cfg *config.Config) ([]scan.Signal, error) {
	srcCfg := cfg.Source("rss")
	if srcCfg == nil || len(srcCfg.FeedURLs) == 0 {
		return nil, fmt.Errorf("rss source has no feed_urls configured")
	}

	var signals []scan.Signal
	seen := make(map[string]bool)

	for _, feedURL := range srcCfg.FeedURLs {
		fetchCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		feed, err := r.parser.ParseURLWithContext(feedURL, fetchCtx)
		cancel()
		if err != nil {
			log.Printf("[RSS] Error fetching %s: %v", feedURL, err)
			continue
		}

		signals = appendFeedItems(signals, feed, seen)
	}

	log.Printf("[RSS] Fetched %d signals", len(signals))
	return signals, nil
}

func appendFeedItems(signals []scan.Signal, feed *gofeed.Feed, seen map[string]bool) []scan.Signal {
	for _, item := range feed.Items {
		if item.Link == "" || seen[item.Link] {
			continue
		}
		seen[item.Link] = true

		content := item.Content
		if content == "" {
			content = item.Description
		}
		content = cleanText(content)

		createdAt := ""
		if item.PublishedParsed != nil {
			createdAt = item.PublishedParsed.UTC().Format(time.RFC3339)
		}

		author := ""
		if len(item.Authors) > 0 {
			author = item.Authors[0].Name
		}

		signals = append(signals, scan.Signal{
			Source:     "rss",
			ExternalID: "rss-" + item.Link,
			Title:      item.Title,
			Content:    strings.TrimSpace(item.Title + " " + content),
			URL:        item.Link,
			Author:     author,
			CreatedAt:  createdAt,
		})
	}
	return signals
}
