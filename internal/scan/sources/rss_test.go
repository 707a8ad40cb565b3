package sources

import (
	"testing"

	"github.com/mmcdole/gofeed"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Sales Forum</title>
	<item>
		<title>Which CRM scales past 50 seats?</title>
		<link>https://forum.example.com/t/which-crm/1</link>
		<description><![CDATA[<p>We are evaluating <em>vendors</em> this quarter.</p>]]></description>
		<author>ops@example.com (Dana)</author>
		<pubDate>Fri, 28 Aug 2026 09:30:00 GMT</pubDate>
	</item>
	<item>
		<title>No link, skipped</title>
		<link></link>
	</item>
	<item>
		<title>Duplicate link</title>
		<link>https://forum.example.com/t/which-crm/1</link>
	</item>
</channel>
</rss>`

func TestAppendFeedItems(t *testing.T) {
	feed, err := gofeed.NewParser().ParseString(rssFixture)
	if err != nil {
		t.Fatalf("fixture does not parse: %v", err)
	}

	signals := appendFeedItems(nil, feed, map[string]bool{})
	if len(signals) != 1 {
		t.Fatalf("expected 1 signal (missing and duplicate links skipped), got %d", len(signals))
	}

	sig := signals[0]
	if sig.Source != "rss" {
		t.Errorf("source = %q", sig.Source)
	}
	if sig.ExternalID != "rss-https://forum.example.com/t/which-crm/1" {
		t.Errorf("external id = %q", sig.ExternalID)
	}
	// Description HTML is stripped before scoring.
	if sig.Content != "Which CRM scales past 50 seats? We are evaluating vendors this quarter." {
		t.Errorf("content = %q", sig.Content)
	}
	if sig.CreatedAt != "2026-08-28T09:30:00Z" {
		t.Errorf("created_at = %q", sig.CreatedAt)
	}
	// Feeds have no vote or comment counts.
	if sig.Points != 0 || sig.NumComments != 0 {
		t.Errorf("engagement should be zero, got %d/%d", sig.Points, sig.NumComments)
	}
}
