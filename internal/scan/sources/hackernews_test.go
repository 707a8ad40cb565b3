package sources

import (
	"encoding/json"
	"testing"
)

const hnFixture = `{
	"hits": [
		{
			"objectID": "41001",
			"title": "Ask HN: Best CRM for a small agency?",
			"url": "",
			"story_text": "<p>We outgrew our <b>spreadsheet</b>. Recommendations?</p>",
			"author": "pg_fan",
			"created_at": "2026-08-28T10:00:00Z",
			"points": 42,
			"num_comments": 31
		},
		{
			"objectID": "41002",
			"title": "Show HN: I built a lead scoring tool",
			"url": "https://example.com/tool",
			"story_text": "",
			"comment_text": "Launching today",
			"author": "builder",
			"created_at": "2026-08-28T11:00:00Z",
			"points": 5,
			"num_comments": 2
		},
		{
			"objectID": "41001",
			"title": "duplicate of the first hit",
			"author": "spam"
		},
		{
			"objectID": "",
			"title": "no id, skipped"
		}
	]
}`

func TestAppendHNHits(t *testing.T) {
	var result hnSearchResponse
	if err := json.Unmarshal([]byte(hnFixture), &result); err != nil {
		t.Fatalf("fixture does not parse: %v", err)
	}

	signals := appendHNHits(nil, result.Hits, map[string]bool{})
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}

	first := signals[0]
	if first.ExternalID != "hn-41001" {
		t.Errorf("external id = %q", first.ExternalID)
	}
	// Story with no url points back at the HN item page.
	if first.URL != "https://news.ycombinator.com/item?id=41001" {
		t.Errorf("fallback url = %q", first.URL)
	}
	// HTML in story_text is stripped.
	if first.Content != "Ask HN: Best CRM for a small agency? We outgrew our spreadsheet. Recommendations?" {
		t.Errorf("content = %q", first.Content)
	}
	if first.Points != 42 || first.NumComments != 31 {
		t.Errorf("engagement = %d/%d", first.Points, first.NumComments)
	}

	second := signals[1]
	if second.URL != "https://example.com/tool" {
		t.Errorf("external url not kept: %q", second.URL)
	}
	// comment_text fills in when story_text is empty.
	if second.Content != "Show HN: I built a lead scoring tool Launching today" {
		t.Errorf("content = %q", second.Content)
	}
}

func TestAppendHNHitsSeenAcrossBatches(t *testing.T) {
	seen := map[string]bool{"41001": true}
	hits := []hnHit{{ObjectID: "41001", Title: "already seen"}}
	if got := appendHNHits(nil, hits, seen); len(got) != 0 {
		t.Errorf("expected 0 signals, got %d", len(got))
	}
}
