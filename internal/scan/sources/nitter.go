package sources

import (
	"bytes"
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/david/signalscout/internal/config"
	"github.com/david/signalscout/internal/scan"
	"github.com/gocolly/colly/v2"
)

// nitterInstances are public mirrors tried in order; the first one that
// answers a query wins. Twitter's own API requires paid access.
var nitterInstances = []string{
	"https://nitter.privacydev.net",
	"https://nitter.poast.org",
}

// Nitter fetches tweets by scraping Nitter search pages.
type Nitter struct {
	Instances []string
	Timeout   time.Duration
}

func NewNitter() *Nitter {
	return &Nitter{
		Instances: nitterInstances,
		Timeout:   10 * time.Second,
	}
}

func (n *Nitter) Name() string { return "twitter" }

func (n *Nitter) Fetch(ctx context.Context, cfg *config.Config) ([]scan.Signal, error) {
	srcCfg := cfg.Source("twitter")
	queries := cfg.ICP.Keywords
	if srcCfg != nil && len(srcCfg.SearchQueries) > 0 {
		queries = srcCfg.SearchQueries
	}
	if len(queries) > 4 {
		queries = queries[:4]
	}

	var signals []scan.Signal
	seen := make(map[string]bool)

	for _, query := range queries {
		for _, instance := range n.Instances {
			body, err := n.fetchSearch(instance, query)
			if err != nil {
				log.Printf("[Twitter] Error with %s: %v", instance, err)
				continue
			}

			tweets := parseNitterTimeline(body)
			for _, tweet := range tweets {
				if seen[tweet.ExternalID] {
					continue
				}
				seen[tweet.ExternalID] = true
				signals = append(signals, tweet)
			}
			break // this instance worked, next query
		}
	}

	log.Printf("[Twitter] Fetched %d signals", len(signals))
	return signals, nil
}

func (n *Nitter) fetchSearch(instance, query string) ([]byte, error) {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (compatible; SignalScout/2.0)"),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(n.Timeout)

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	params := url.Values{}
	params.Set("f", "tweets")
	params.Set("q", query)
	if err := c.Visit(instance + "/search?" + params.Encode()); err != nil {
		return nil, err
	}
	c.Wait()
	return body, nil
}

// parseNitterTimeline extracts tweets from a Nitter search result page.
// Items missing text are skipped; at most 20 per page are taken.
func parseNitterTimeline(html []byte) []scan.Signal {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	var tweets []scan.Signal

	doc.Find("div.timeline-item").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= 20 {
			return false
		}

		text := strings.TrimSpace(s.Find(".tweet-content").First().Text())
		if text == "" {
			return true
		}

		username := strings.TrimPrefix(strings.TrimSpace(s.Find(".username").First().Text()), "@")
		path, _ := s.Find(".tweet-link").First().Attr("href")

		id := tweetID(path)
		if id == "" {
			return true
		}

		tweetURL := ""
		if path != "" {
			tweetURL = "https://twitter.com" + path
		}

		title := text
		if runes := []rune(title); len(runes) > 120 {
			title = string(runes[:120])
		}

		tweets = append(tweets, scan.Signal{
			Source:     "twitter",
			ExternalID: "twitter-" + id,
			Title:      title,
			Content:    text,
			URL:        tweetURL,
			Author:     username,
			CreatedAt:  now,
		})
		return true
	})

	return tweets
}

// tweetID pulls the numeric status id out of a /user/status/123 path.
func tweetID(path string) string {
	idx := strings.Index(path, "/status/")
	if idx == -1 {
		return ""
	}
	id := path[idx+len("/status/"):]
	if cut := strings.IndexAny(id, "#?"); cut != -1 {
		id = id[:cut]
	}
	return id
}
