package scan

import (
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/david/signalscout/internal/config"
)

// ScoreHeuristic scores every signal against the ICP config and returns
// the surviving signals sorted by composite score, descending. Signals
// matching any negative keyword are dropped entirely.
func ScoreHeuristic(signals []Signal, cfg *config.Config, now time.Time) []Signal {
	keywords := lowerAll(cfg.ICP.Keywords)
	painPoints := lowerAll(cfg.ICP.PainPoints)
	negatives := lowerAll(cfg.NegativeKeywords)
	weights := cfg.Scoring.Weights

	scored := make([]Signal, 0, len(signals))
	for _, sig := range signals {
		text := strings.ToLower(sig.Title) + " " + strings.ToLower(sig.Content)

		if containsAny(text, negatives) {
			continue
		}

		kwScore := ratioScore(countHits(text, keywords), float64(len(keywords))*0.3)
		ppScore := ratioScore(countHits(text, painPoints), float64(len(painPoints))*0.2)
		recScore := recencyScore(sig.CreatedAt, now)
		engScore := math.Min(10, float64(sig.Points+2*sig.NumComments)/50*10)

		total := kwScore*weights.KeywordMatch +
			ppScore*weights.PainPointMatch +
			recScore*weights.Recency +
			engScore*weights.Engagement

		sig.Score = round1(math.Min(10, math.Max(1, total)))
		sig.Breakdown = ScoreBreakdown{
			Keyword:    round1(kwScore),
			PainPoint:  round1(ppScore),
			Recency:    round1(recScore),
			Engagement: round1(engScore),
		}
		scored = append(scored, sig)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	log.Printf("[Scorer] Heuristic scored %d signals", len(scored))
	return scored
}

// resortByAuthoritative re-sorts after augmentation: AI score where
// present, heuristic otherwise, descending.
func resortByAuthoritative(signals []Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].AuthoritativeScore() > signals[j].AuthoritativeScore()
	})
}

// ratioScore maps hit counts onto [0,10]: full marks once hits reach the
// divisor (a fraction of the configured list size), never above 10.
func ratioScore(hits int, divisor float64) float64 {
	if divisor < 1 {
		divisor = 1
	}
	return math.Min(10, float64(hits)/divisor*10)
}

func countHits(text string, terms []string) int {
	hits := 0
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			hits++
		}
	}
	return hits
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// createdAtFormats are the timestamp layouts sources are known to emit.
var createdAtFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// recencyScore is a step function of signal age. An unparsable or missing
// timestamp gets the neutral 5.0.
func recencyScore(createdAt string, now time.Time) float64 {
	createdAt = strings.TrimSpace(createdAt)
	if createdAt == "" {
		return 5.0
	}

	var created time.Time
	var err error
	for _, layout := range createdAtFormats {
		created, err = time.Parse(layout, createdAt)
		if err == nil {
			break
		}
	}
	if err != nil {
		return 5.0
	}

	age := now.Sub(created)
	switch {
	case age < 6*time.Hour:
		return 10.0
	case age < 24*time.Hour:
		return 8.0
	case age < 72*time.Hour:
		return 6.0
	case age < 168*time.Hour:
		return 4.0
	default:
		return 2.0
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func lowerAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	return out
}
