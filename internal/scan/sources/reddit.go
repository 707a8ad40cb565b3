package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/david/signalscout/internal/config"
	"github.com/david/signalscout/internal/scan"
)

const redditBase = "https://www.reddit.com"

// Reddit fetches posts via the public JSON endpoints (a .json suffix on
// ordinary Reddit URLs). No API key required.
type Reddit struct {
	BaseURL    string
	Delay      time.Duration // pause between subreddits, politeness
	httpClient *http.Client
}

func NewReddit() *Reddit {
	return &Reddit{
		BaseURL:    redditBase,
		Delay:      time.Second,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *Reddit) Name() string { return "reddit" }

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
}

func (r *Reddit) Fetch(ctx context.Context, cfg *config.Config) ([]scan.Signal, error) {
	srcCfg := cfg.Source("reddit")
	if srcCfg == nil {
		return nil, fmt.Errorf("reddit source not configured")
	}

	queries := srcCfg.SearchQueries
	if len(queries) == 0 {
		queries = cfg.ICP.Keywords
		if len(queries) > 3 {
			queries = queries[:3]
		}
	}
	maxPosts := srcCfg.MaxPostsPerSub
	if maxPosts <= 0 || maxPosts > 25 {
		maxPosts = 25
	}

	var signals []scan.Signal
	seen := make(map[string]bool)

	for _, sub := range srcCfg.Subreddits {
		for _, query := range queries {
			params := url.Values{}
			params.Set("q", query)
			params.Set("restrict_sr", "on")
			params.Set("sort", "new")
			params.Set("t", "week")
			params.Set("limit", strconv.Itoa(maxPosts))

			searchURL := fmt.Sprintf("%s/r/%s/search.json?%s", r.BaseURL, sub, params.Encode())
			req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
			if err != nil {
				return signals, err
			}
			req.Header.Set("User-Agent", userAgent)

			resp, err := r.httpClient.Do(req)
			if err != nil {
				log.Printf("[Reddit] Error on r/%s %q: %v", sub, query, err)
				continue
			}

			var listing redditListing
			decodeErr := json.NewDecoder(resp.Body).Decode(&listing)
			resp.Body.Close()
			if decodeErr != nil {
				log.Printf("[Reddit] Error decoding r/%s %q: %v", sub, query, decodeErr)
				continue
			}

			signals = appendRedditPosts(signals, &listing, seen)
		}

		if r.Delay > 0 {
			time.Sleep(r.Delay)
		}
	}

	log.Printf("[Reddit] Fetched %d signals", len(signals))
	return signals, nil
}

func appendRedditPosts(signals []scan.Signal, listing *redditListing, seen map[string]bool) []scan.Signal {
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.ID == "" || seen[post.ID] {
			continue
		}
		seen[post.ID] = true

		createdAt := ""
		if post.CreatedUTC > 0 {
			createdAt = time.Unix(int64(post.CreatedUTC), 0).UTC().Format(time.RFC3339)
		}

		selftext := cleanText(post.Selftext)
		signals = append(signals, scan.Signal{
			Source:      "reddit",
			ExternalID:  "reddit-" + post.ID,
			Title:       post.Title,
			Content:     strings.TrimSpace(post.Title + " " + selftext),
			URL:         "https://reddit.com" + post.Permalink,
			Author:      post.Author,
			CreatedAt:   createdAt,
			Points:      post.Score,
			NumComments: post.NumComments,
		})
	}
	return signals
}
