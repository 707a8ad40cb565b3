package scan

import (
	"context"

	"github.com/david/signalscout/internal/config"
)

// Signal is one raw candidate post from a source, plus the scoring fields
// the pipeline fills in. ExternalID is unique only within a fetch batch;
// URL is the cross-run identity key.
type Signal struct {
	Source      string `json:"source"`
	ExternalID  string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	CreatedAt   string `json:"created_at"` // source-native timestamp text
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`

	Score             float64        `json:"score"`
	Breakdown         ScoreBreakdown `json:"score_breakdown"`
	AIScore           *float64       `json:"ai_score,omitempty"`
	IntentCategory    string         `json:"intent_category,omitempty"`
	AIReasoning       string         `json:"ai_reasoning,omitempty"`
	SuggestedResponse string         `json:"suggested_response,omitempty"`
}

// ScoreBreakdown retains the four subscores for explainability.
type ScoreBreakdown struct {
	Keyword    float64 `json:"keyword"`
	PainPoint  float64 `json:"pain_point"`
	Recency    float64 `json:"recency"`
	Engagement float64 `json:"engagement"`
}

// AuthoritativeScore is the AI score when present, else the heuristic one.
func (s *Signal) AuthoritativeScore() float64 {
	if s.AIScore != nil {
		return *s.AIScore
	}
	return s.Score
}

// Source fetches raw signals for one configured source. Ordinary network
// and parsing problems should be absorbed into a partial or empty result;
// a returned error means the source produced nothing usable this run and
// is logged and skipped by the orchestrator.
type Source interface {
	Name() string
	Fetch(ctx context.Context, cfg *config.Config) ([]Signal, error)
}
