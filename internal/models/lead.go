package models

import "time"

// Lead is a signal that survived scoring, filtering, and deduplication,
// persisted for user triage. URL is the stable cross-run identity key.
type Lead struct {
	ID                 int64      `json:"id"`
	Source             string     `json:"source"`
	Title              string     `json:"title"`
	URL                string     `json:"url"`
	Author             string     `json:"author"`
	Text               string     `json:"text"`
	Score              float64    `json:"score"`
	AIScore            *float64   `json:"ai_score"`
	AIReasoning        string     `json:"ai_reasoning"`
	IntentCategory     string     `json:"intent_category"`
	SuggestedResponse  string     `json:"suggested_response"`
	EngagementUpvotes  int        `json:"engagement_upvotes"`
	EngagementComments int        `json:"engagement_comments"`
	Status             string     `json:"status"` // new, contacted, replied, converted, archived
	Notes              string     `json:"notes"`
	DiscoveredAt       time.Time  `json:"discovered_at"`
	ContactedAt        *time.Time `json:"contacted_at"`
	CreatedAt          time.Time  `json:"created_at"`

	// Embedding backs similar-lead search; populated only when an
	// embedder is configured, never serialized to API responses.
	Embedding []float32 `json:"-"`
}

// Scan is one execution of the fetch→score→dedupe→persist pipeline.
// Status transitions running → completed|failed and is terminal once set.
type Scan struct {
	ID           int64      `json:"id"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	TotalSignals int        `json:"total_signals"`
	LeadsFound   int        `json:"leads_found"`
	SourcesUsed  []string   `json:"sources_used"`
	Status       string     `json:"status"`
}

type Stats struct {
	TotalLeads     int            `json:"total_leads"`
	NewToday       int            `json:"new_today"`
	ByStatus       map[string]int `json:"by_status"`
	BySource       map[string]int `json:"by_source"`
	ByIntent       map[string]int `json:"by_intent"`
	AvgScore       float64        `json:"avg_score"`
	ConversionRate float64        `json:"conversion_rate"`
}
