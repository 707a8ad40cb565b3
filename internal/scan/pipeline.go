package scan

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/david/signalscout/internal/ai"
	"github.com/david/signalscout/internal/config"
	"github.com/david/signalscout/internal/models"
)

// Scan statuses. A scan is completed exactly once, even on failure.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Store is the narrow persistence contract the pipeline needs.
type Store interface {
	CreateScan(ctx context.Context, sourcesUsed []string) (int64, error)
	CompleteScan(ctx context.Context, scanID int64, totalSignals, leadsFound int, status string) error
	UpsertLead(ctx context.Context, lead models.Lead) (int64, error)
}

// Rater refines a signal's score and intent via an external model.
type Rater interface {
	RateSignal(ctx context.Context, icp ai.ICPContext, title, content string) (*ai.Rating, error)
}

// Pipeline runs the full fetch → score → dedupe → persist sequence.
// Rater and Embedder are optional; nil disables the respective step.
type Pipeline struct {
	Store    Store
	Sources  []Source
	Rater    Rater
	Embedder ai.Embedder

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewPipeline wires a pipeline from config: the rater only when an AI
// key is present, the embedder only when an embeddings endpoint is.
func NewPipeline(store Store, srcs []Source, cfg *config.Config) *Pipeline {
	p := &Pipeline{Store: store, Sources: srcs}
	if cfg.Scoring.AIAPIKey != "" {
		p.Rater = ai.NewClient(cfg.Scoring.AIAPIKey, cfg.Scoring.AIModel)
	}
	if cfg.Embed.URL != "" {
		p.Embedder = ai.NewOllamaEmbedder(cfg.Embed.URL, cfg.Embed.Model)
	}
	return p
}

// Summary is the outcome of one scan.
type Summary struct {
	ScanID       int64  `json:"scan_id"`
	TotalSignals int    `json:"total_signals"`
	LeadsFound   int    `json:"leads_found"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// Run executes one scan. The scan record is created before fetching and
// completed exactly once on every path; a hard failure anywhere past
// creation marks it failed with zero counts. A source-level fetch error
// only loses that source's signals.
func (p *Pipeline) Run(ctx context.Context, cfg *config.Config) (summary Summary, err error) {
	enabled := make(map[string]bool)
	for _, id := range cfg.EnabledSources() {
		enabled[id] = true
	}

	var active []Source
	var sourcesUsed []string
	for _, src := range p.Sources {
		if enabled[src.Name()] {
			active = append(active, src)
			sourcesUsed = append(sourcesUsed, src.Name())
		}
	}

	scanID, createErr := p.Store.CreateScan(ctx, sourcesUsed)
	if createErr != nil {
		return Summary{Status: StatusFailed}, fmt.Errorf("failed to create scan: %w", createErr)
	}
	summary = Summary{ScanID: scanID, Status: StatusRunning}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan panicked: %v", r)
		}
		if err != nil {
			summary.Status = StatusFailed
			summary.TotalSignals = 0
			summary.LeadsFound = 0
			summary.Error = err.Error()
		}
		if cErr := p.Store.CompleteScan(ctx, scanID, summary.TotalSignals, summary.LeadsFound, summary.Status); cErr != nil {
			log.Printf("[Scan] Failed to complete scan %d: %v", scanID, cErr)
		}
	}()

	log.Printf("[Scan] Scan #%d started (sources: %s)", scanID, strings.Join(sourcesUsed, ", "))

	var all []Signal
	for _, src := range active {
		sigs, fetchErr := src.Fetch(ctx, cfg)
		if fetchErr != nil {
			log.Printf("[Scan] Source %s failed: %v, continuing with partial data", src.Name(), fetchErr)
			continue
		}
		all = append(all, sigs...)
	}
	log.Printf("[Scan] Total raw signals: %d", len(all))

	// Zero signals is not an error.
	if len(all) == 0 {
		summary.Status = StatusCompleted
		return summary, nil
	}

	now := time.Now().UTC()
	if p.Now != nil {
		now = p.Now()
	}

	scored := ScoreHeuristic(all, cfg, now)

	if (cfg.Scoring.Mode == "ai" || cfg.Scoring.Mode == "hybrid") && p.Rater != nil {
		scored = p.augment(ctx, scored, cfg)
	}
	assignIntentCategories(scored)

	var filtered []Signal
	for _, sig := range scored {
		if sig.AuthoritativeScore() >= cfg.Scoring.MinScore {
			filtered = append(filtered, sig)
		}
	}

	deduped := Deduplicate(filtered)
	if len(deduped) > cfg.Output.MaxLeads {
		deduped = deduped[:cfg.Output.MaxLeads]
	}

	stored := 0
	for _, sig := range deduped {
		lead := leadFromSignal(sig)
		if p.Embedder != nil {
			if vec, embErr := p.Embedder.GenerateEmbedding(ctx, sig.Title+"\n"+sig.Content); embErr != nil {
				log.Printf("[Scan] Failed to embed %q: %v", sig.Title, embErr)
			} else {
				lead.Embedding = vec
			}
		}
		if _, upsertErr := p.Store.UpsertLead(ctx, lead); upsertErr != nil {
			log.Printf("[Scan] Failed to store lead %q: %v", sig.Title, upsertErr)
			continue
		}
		stored++
	}

	summary.TotalSignals = len(all)
	summary.LeadsFound = stored
	summary.Status = StatusCompleted
	log.Printf("[Scan] Scan #%d complete, %d leads stored", scanID, stored)
	return summary, nil
}

// augment refines high-scoring signals through the rater, in descending
// score order up to the per-run cap. A failed or malformed rating leaves
// the signal heuristic-only and never aborts the batch. The list comes
// back re-sorted by authoritative score.
func (p *Pipeline) augment(ctx context.Context, signals []Signal, cfg *config.Config) []Signal {
	icp := ai.ICPContext{
		Description: cfg.ICP.Description,
		Keywords:    cfg.ICP.Keywords,
		PainPoints:  cfg.ICP.PainPoints,
		Industries:  cfg.ICP.Industries,
	}

	rated := 0
	for i := range signals {
		if rated >= cfg.Scoring.MaxAIPerRun {
			break
		}
		if signals[i].Score < cfg.Scoring.AIThreshold {
			continue
		}
		if signals[i].Title == "" && signals[i].Content == "" {
			continue
		}

		rating, err := p.Rater.RateSignal(ctx, icp, signals[i].Title, signals[i].Content)
		if err != nil {
			log.Printf("[Scorer] AI rating failed for %q: %v", truncate(signals[i].Title, 40), err)
			continue
		}

		aiScore := float64(rating.Score)
		if rating.Score == 0 {
			aiScore = signals[i].Score
		}
		signals[i].AIScore = &aiScore
		if rating.Category != "" {
			signals[i].IntentCategory = rating.Category
		} else {
			signals[i].IntentCategory = IntentNoise
		}
		signals[i].AIReasoning = rating.Reasoning
		signals[i].SuggestedResponse = rating.SuggestedResponse
		rated++
	}
	log.Printf("[Scorer] AI rated %d signals", rated)

	resortByAuthoritative(signals)
	return signals
}

func leadFromSignal(sig Signal) models.Lead {
	return models.Lead{
		Source:             sig.Source,
		Title:              sig.Title,
		URL:                sig.URL,
		Author:             sig.Author,
		Text:               sig.Content,
		Score:              sig.Score,
		AIScore:            sig.AIScore,
		AIReasoning:        sig.AIReasoning,
		IntentCategory:     sig.IntentCategory,
		SuggestedResponse:  sig.SuggestedResponse,
		EngagementUpvotes:  sig.Points,
		EngagementComments: sig.NumComments,
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
