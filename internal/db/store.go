package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/david/signalscout/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Scans ---

// CreateScan opens a scan record in running state before fetching begins.
func (s *Store) CreateScan(ctx context.Context, sourcesUsed []string) (int64, error) {
	payload, err := json.Marshal(sourcesUsed)
	if err != nil {
		return 0, fmt.Errorf("failed to encode sources: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx,
		"INSERT INTO scans (sources_used, status) VALUES ($1::jsonb, 'running') RETURNING id",
		string(payload)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create scan: %w", err)
	}
	return id, nil
}

// CompleteScan closes a scan exactly once. The status guard keeps an
// already-completed or failed scan terminal.
func (s *Store) CompleteScan(ctx context.Context, scanID int64, totalSignals, leadsFound int, status string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scans SET completed_at = NOW(), total_signals = $1,
		       leads_found = $2, status = $3
		WHERE id = $4 AND status = 'running'
	`, totalSignals, leadsFound, status, scanID)
	if err != nil {
		return fmt.Errorf("failed to complete scan %d: %w", scanID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("scan %d is not running", scanID)
	}
	return nil
}

func (s *Store) ListScans(ctx context.Context, limit int) ([]models.Scan, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, completed_at, total_signals, leads_found, sources_used, status
		FROM scans ORDER BY started_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []models.Scan
	for rows.Next() {
		var sc models.Scan
		var sourcesRaw []byte
		if err := rows.Scan(&sc.ID, &sc.StartedAt, &sc.CompletedAt, &sc.TotalSignals,
			&sc.LeadsFound, &sourcesRaw, &sc.Status); err != nil {
			return nil, err
		}
		if len(sourcesRaw) > 0 {
			_ = json.Unmarshal(sourcesRaw, &sc.SourcesUsed)
		}
		scans = append(scans, sc)
	}
	return scans, rows.Err()
}

// --- Leads ---

// UpsertLead inserts a lead or, when the url already exists, refreshes
// its scoring fields in place. Workflow status and notes are never
// overwritten by a re-scan.
func (s *Store) UpsertLead(ctx context.Context, lead models.Lead) (int64, error) {
	var embedding interface{}
	if len(lead.Embedding) > 0 {
		embedding = pgvector.NewVector(lead.Embedding)
	}

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO leads (
			source, title, url, author, text, score, ai_score, ai_reasoning,
			intent_category, suggested_response, engagement_upvotes, engagement_comments,
			embedding, status, discovered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 'new', NOW())
		ON CONFLICT (url) DO UPDATE SET
			title = EXCLUDED.title,
			score = EXCLUDED.score,
			ai_score = EXCLUDED.ai_score,
			ai_reasoning = EXCLUDED.ai_reasoning,
			intent_category = EXCLUDED.intent_category,
			suggested_response = EXCLUDED.suggested_response,
			engagement_upvotes = EXCLUDED.engagement_upvotes,
			engagement_comments = EXCLUDED.engagement_comments,
			embedding = COALESCE(EXCLUDED.embedding, leads.embedding)
		RETURNING id
	`,
		lead.Source, lead.Title, lead.URL, nilIfEmpty(lead.Author), lead.Text,
		lead.Score, lead.AIScore, nilIfEmpty(lead.AIReasoning),
		nilIfEmpty(lead.IntentCategory), nilIfEmpty(lead.SuggestedResponse),
		lead.EngagementUpvotes, lead.EngagementComments, embedding,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert lead: %w", err)
	}
	return id, nil
}

// LeadFilter narrows and orders a lead listing.
type LeadFilter struct {
	Status         string
	Source         string
	MinScore       *float64
	IntentCategory string
	SortBy         string
	SortOrder      string
	Limit          int
	Offset         int
}

// leadColList is the column order scanLead expects.
var leadColList = []string{
	"id", "source", "title", "url", "author", "text", "score", "ai_score", "ai_reasoning",
	"intent_category", "suggested_response", "engagement_upvotes", "engagement_comments",
	"status", "notes", "discovered_at", "contacted_at", "created_at",
}

var leadCols = strings.Join(leadColList, ", ")

// allowedLeadSorts whitelists sortable columns so the order-by clause is
// never built from raw user input.
var allowedLeadSorts = map[string]bool{
	"score":              true,
	"ai_score":           true,
	"discovered_at":      true,
	"created_at":         true,
	"engagement_upvotes": true,
	"title":              true,
}

// buildLeadQuery returns the where/order/limit tail of the listing query
// and its arguments.
func buildLeadQuery(f LeadFilter) (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	sb.WriteString(" WHERE 1=1")
	if f.Status != "" {
		args = append(args, f.Status)
		fmt.Fprintf(&sb, " AND status = $%d", len(args))
	}
	if f.Source != "" {
		args = append(args, f.Source)
		fmt.Fprintf(&sb, " AND source = $%d", len(args))
	}
	if f.MinScore != nil {
		args = append(args, *f.MinScore)
		fmt.Fprintf(&sb, " AND score >= $%d", len(args))
	}
	if f.IntentCategory != "" {
		args = append(args, f.IntentCategory)
		fmt.Fprintf(&sb, " AND intent_category = $%d", len(args))
	}

	sortBy := f.SortBy
	if !allowedLeadSorts[sortBy] {
		sortBy = "score"
	}
	order := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "ASC"
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s NULLS LAST", sortBy, order)

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	args = append(args, f.Offset)
	fmt.Fprintf(&sb, " OFFSET $%d", len(args))

	return sb.String(), args
}

func (s *Store) ListLeads(ctx context.Context, f LeadFilter) ([]models.Lead, error) {
	tail, args := buildLeadQuery(f)
	rows, err := s.pool.Query(ctx, "SELECT "+leadCols+" FROM leads"+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (s *Store) GetLead(ctx context.Context, id int64) (*models.Lead, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+leadCols+" FROM leads WHERE id = $1", id)
	lead, err := scanLead(row.Scan)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// UpdateLead mutates workflow fields only. Marking a lead contacted
// stamps contacted_at if it is not already set.
func (s *Store) UpdateLead(ctx context.Context, id int64, status, notes *string) error {
	var sets []string
	var args []interface{}

	if status != nil {
		args = append(args, *status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
		if *status == "contacted" {
			sets = append(sets, "contacted_at = COALESCE(contacted_at, NOW())")
		}
	}
	if notes != nil {
		args = append(args, *notes)
		sets = append(sets, fmt.Sprintf("notes = $%d", len(args)))
	}
	if len(sets) == 0 {
		return fmt.Errorf("no updates provided")
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE leads SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SimilarLeads ranks other leads by embedding cosine distance. Leads
// without an embedding never appear.
func (s *Store) SimilarLeads(ctx context.Context, leadID int64, limit int) ([]models.Lead, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+leadCols+`
		FROM leads
		WHERE id != $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> (SELECT embedding FROM leads WHERE id = $1)
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func scanLead(scan func(dest ...interface{}) error) (models.Lead, error) {
	var l models.Lead
	var author, text, aiReasoning, intentCategory, suggestedResponse, notes *string
	var score *float64

	err := scan(
		&l.ID, &l.Source, &l.Title, &l.URL, &author, &text, &score, &l.AIScore, &aiReasoning,
		&intentCategory, &suggestedResponse, &l.EngagementUpvotes, &l.EngagementComments,
		&l.Status, &notes, &l.DiscoveredAt, &l.ContactedAt, &l.CreatedAt,
	)
	if err != nil {
		return l, err
	}

	if author != nil {
		l.Author = *author
	}
	if text != nil {
		l.Text = *text
	}
	if score != nil {
		l.Score = *score
	}
	if aiReasoning != nil {
		l.AIReasoning = *aiReasoning
	}
	if intentCategory != nil {
		l.IntentCategory = *intentCategory
	}
	if suggestedResponse != nil {
		l.SuggestedResponse = *suggestedResponse
	}
	if notes != nil {
		l.Notes = *notes
	}
	return l, nil
}

// --- Saved leads ---

// SaveLead bookmarks a lead for a user. Saving twice is a no-op.
func (s *Store) SaveLead(ctx context.Context, userID uuid.UUID, leadID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO saved_leads (user_id, lead_id) VALUES ($1, $2)
		ON CONFLICT (user_id, lead_id) DO NOTHING
	`, userID, leadID)
	return err
}

func (s *Store) UnsaveLead(ctx context.Context, userID uuid.UUID, leadID int64) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM saved_leads WHERE user_id = $1 AND lead_id = $2", userID, leadID)
	return err
}

func (s *Store) SavedLeads(ctx context.Context, userID uuid.UUID) ([]models.Lead, error) {
	prefixed := make([]string, len(leadColList))
	for i, col := range leadColList {
		prefixed[i] = "l." + col
	}
	cols := strings.Join(prefixed, ", ")
	rows, err := s.pool.Query(ctx, `
		SELECT `+cols+`
		FROM saved_leads sl
		JOIN leads l ON l.id = sl.lead_id
		WHERE sl.user_id = $1
		ORDER BY sl.saved_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows.Scan)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// --- Stats ---

func (s *Store) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{
		ByStatus: map[string]int{},
		BySource: map[string]int{},
		ByIntent: map[string]int{},
	}

	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE discovered_at::date = CURRENT_DATE),
		       COALESCE(AVG(score), 0)
		FROM leads
	`).Scan(&stats.TotalLeads, &stats.NewToday, &stats.AvgScore)
	if err != nil {
		return nil, err
	}
	stats.AvgScore = roundTo1(stats.AvgScore)

	if err := s.countGroup(ctx, "status", stats.ByStatus); err != nil {
		return nil, err
	}
	if err := s.countGroup(ctx, "source", stats.BySource); err != nil {
		return nil, err
	}
	if err := s.countGroup(ctx, "intent_category", stats.ByIntent); err != nil {
		return nil, err
	}

	converted := stats.ByStatus["converted"]
	contacted := stats.ByStatus["contacted"] + stats.ByStatus["replied"] + converted
	if contacted > 0 {
		stats.ConversionRate = roundTo1(float64(converted) / float64(contacted) * 100)
	}
	return stats, nil
}

func (s *Store) countGroup(ctx context.Context, column string, into map[string]int) error {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM leads WHERE %s IS NOT NULL GROUP BY %s", column, column, column))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

func roundTo1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

// nilIfEmpty returns nil for empty strings so NULL is stored in DB.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
