package db

import (
	"strings"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestBuildLeadQueryDefaults(t *testing.T) {
	tail, args := buildLeadQuery(LeadFilter{})

	if !strings.Contains(tail, "ORDER BY score DESC NULLS LAST") {
		t.Errorf("default sort wrong: %s", tail)
	}
	// Default limit 100, offset 0.
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d: %v", len(args), args)
	}
	if args[0] != 100 || args[1] != 0 {
		t.Errorf("args = %v, want [100 0]", args)
	}
}

func TestBuildLeadQueryFilters(t *testing.T) {
	f := LeadFilter{
		Status:         "new",
		Source:         "hackernews",
		MinScore:       fptr(6.5),
		IntentCategory: "high_intent",
		Limit:          10,
		Offset:         20,
	}
	tail, args := buildLeadQuery(f)

	for _, clause := range []string{
		"status = $1",
		"source = $2",
		"score >= $3",
		"intent_category = $4",
		"LIMIT $5",
		"OFFSET $6",
	} {
		if !strings.Contains(tail, clause) {
			t.Errorf("missing %q in %s", clause, tail)
		}
	}
	want := []interface{}{"new", "hackernews", 6.5, "high_intent", 10, 20}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d = %v, want %v", i, args[i], want[i])
		}
	}
}

func TestBuildLeadQuerySortWhitelist(t *testing.T) {
	tests := []struct {
		sortBy string
		want   string
	}{
		{"ai_score", "ORDER BY ai_score DESC"},
		{"discovered_at", "ORDER BY discovered_at DESC"},
		{"title", "ORDER BY title DESC"},
		{"", "ORDER BY score DESC"},
		{"id; DROP TABLE leads", "ORDER BY score DESC"},
		{"embedding", "ORDER BY score DESC"},
	}

	for _, tt := range tests {
		tail, _ := buildLeadQuery(LeadFilter{SortBy: tt.sortBy})
		if !strings.Contains(tail, tt.want) {
			t.Errorf("SortBy %q: got %s, want clause %q", tt.sortBy, tail, tt.want)
		}
	}
}

func TestBuildLeadQuerySortOrder(t *testing.T) {
	tail, _ := buildLeadQuery(LeadFilter{SortBy: "score", SortOrder: "ASC"})
	if !strings.Contains(tail, "ORDER BY score ASC") {
		t.Errorf("asc not honored: %s", tail)
	}
	tail, _ = buildLeadQuery(LeadFilter{SortBy: "score", SortOrder: "sideways"})
	if !strings.Contains(tail, "ORDER BY score DESC") {
		t.Errorf("unknown order should fall back to desc: %s", tail)
	}
}

func TestBuildLeadQueryLimitCap(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, 100},
		{-5, 100},
		{50, 50},
		{500, 500},
		{501, 100},
	}
	for _, tt := range tests {
		_, args := buildLeadQuery(LeadFilter{Limit: tt.limit})
		got := args[len(args)-2]
		if got != tt.want {
			t.Errorf("Limit %d: got %v, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestNilIfEmpty(t *testing.T) {
	if nilIfEmpty("") != nil {
		t.Error("empty string should map to nil")
	}
	if nilIfEmpty("x") != "x" {
		t.Error("non-empty string should pass through")
	}
}

func TestRoundTo1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{7.44, 7.4},
		{7.45, 7.5},
		{0, 0},
		{9.99, 10},
	}
	for _, tt := range tests {
		if got := roundTo1(tt.in); got != tt.want {
			t.Errorf("roundTo1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
