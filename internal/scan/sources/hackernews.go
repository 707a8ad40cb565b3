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

const (
	hnSearchURL = "https://hn.algolia.com/api/v1/search"
	hnItemURL   = "https://news.ycombinator.com/item?id="
)

// HackerNews fetches stories via the free Algolia HN Search API.
// No API key required.
type HackerNews struct {
	SearchURL  string
	httpClient *http.Client
}

func NewHackerNews() *HackerNews {
	return &HackerNews{
		SearchURL:  hnSearchURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (h *HackerNews) Name() string { return "hackernews" }

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	StoryText   string `json:"story_text"`
	CommentText string `json:"comment_text"`
	Author      string `json:"author"`
	CreatedAt   string `json:"created_at"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
}

func (h *HackerNews) Fetch(ctx context.Context, cfg *config.Config) ([]scan.Signal, error) {
	srcCfg := cfg.Source("hackernews")
	if srcCfg == nil {
		return nil, fmt.Errorf("hackernews source not configured")
	}

	queries := srcCfg.SearchQueries
	if len(queries) == 0 {
		queries = cfg.ICP.Keywords
		if len(queries) > 4 {
			queries = queries[:4]
		}
	}
	maxStories := srcCfg.MaxStories
	if maxStories <= 0 {
		maxStories = 100
	}

	perQuery := maxStories / len(queries)
	if perQuery > 50 {
		perQuery = 50
	}
	if perQuery < 1 {
		perQuery = 1
	}
	weekAgo := time.Now().Add(-7 * 24 * time.Hour).Unix()

	var signals []scan.Signal
	seen := make(map[string]bool)

	for _, query := range queries {
		params := url.Values{}
		params.Set("query", query)
		params.Set("tags", "(story,show_hn,ask_hn)")
		params.Set("hitsPerPage", strconv.Itoa(perQuery))
		params.Set("numericFilters", "created_at_i>"+strconv.FormatInt(weekAgo, 10))

		req, err := http.NewRequestWithContext(ctx, "GET", h.SearchURL+"?"+params.Encode(), nil)
		if err != nil {
			return signals, err
		}

		resp, err := h.httpClient.Do(req)
		if err != nil {
			log.Printf("[HN] Error searching %q: %v", query, err)
			continue
		}

		var result hnSearchResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if decodeErr != nil {
			log.Printf("[HN] Error decoding results for %q: %v", query, decodeErr)
			continue
		}

		signals = appendHNHits(signals, result.Hits, seen)
	}

	log.Printf("[HN] Fetched %d signals", len(signals))
	return signals, nil
}

func appendHNHits(signals []scan.Signal, hits []hnHit, seen map[string]bool) []scan.Signal {
	for _, hit := range hits {
		if hit.ObjectID == "" || seen[hit.ObjectID] {
			continue
		}
		seen[hit.ObjectID] = true

		text := hit.StoryText
		if text == "" {
			text = hit.CommentText
		}
		postURL := hit.URL
		if postURL == "" {
			postURL = hnItemURL + hit.ObjectID
		}

		signals = append(signals, scan.Signal{
			Source:      "hackernews",
			ExternalID:  "hn-" + hit.ObjectID,
			Title:       hit.Title,
			Content:     strings.TrimSpace(hit.Title + " " + cleanText(text)),
			URL:         postURL,
			Author:      hit.Author,
			CreatedAt:   hit.CreatedAt,
			Points:      hit.Points,
			NumComments: hit.NumComments,
		})
	}
	return signals
}
