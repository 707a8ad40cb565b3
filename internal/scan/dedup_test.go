package scan

import "testing"

func ptr(v float64) *float64 { return &v }

func TestDeduplicateKeepsHigherScore(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"higher first", []float64{7.0, 4.0}, 7.0},
		{"higher second", []float64{4.0, 7.0}, 7.0},
		{"equal keeps first", []float64{5.0, 5.0}, 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signals := []Signal{
				{Title: "Need a CRM!", URL: "https://a.example", Score: tt.scores[0]},
				{Title: "need a crm", URL: "https://b.example", Score: tt.scores[1]},
			}
			out := Deduplicate(signals)
			if len(out) != 1 {
				t.Fatalf("expected 1 signal, got %d", len(out))
			}
			if out[0].Score != tt.want {
				t.Errorf("expected score %.1f to survive, got %.1f", tt.want, out[0].Score)
			}
		})
	}
}

func TestDeduplicateWinnerKeepsOriginalPosition(t *testing.T) {
	signals := []Signal{
		{Title: "need a crm", Score: 4.0},
		{Title: "something else entirely", Score: 3.5},
		{Title: "Need a CRM", Score: 7.0},
	}

	out := Deduplicate(signals)
	if len(out) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(out))
	}
	// The winning duplicate replaces the loser in place.
	if out[0].Score != 7.0 {
		t.Errorf("expected winner at index 0, got score %.1f", out[0].Score)
	}
	if out[1].Title != "something else entirely" {
		t.Errorf("unrelated signal moved: %q", out[1].Title)
	}
}

func TestDeduplicateUsesAuthoritativeScore(t *testing.T) {
	signals := []Signal{
		{Title: "need a crm", Score: 8.0, AIScore: ptr(3.0)},
		{Title: "Need a CRM", Score: 4.0, AIScore: ptr(6.0)},
	}

	out := Deduplicate(signals)
	if len(out) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(out))
	}
	if out[0].AuthoritativeScore() != 6.0 {
		t.Errorf("expected AI-scored 6.0 to win, got %.1f", out[0].AuthoritativeScore())
	}
}

func TestDeduplicateEmptyKeyAlwaysKept(t *testing.T) {
	signals := []Signal{
		{Title: "???", Score: 2.0},
		{Title: "!!!", Score: 3.0},
		{Title: "", Score: 4.0},
	}

	out := Deduplicate(signals)
	if len(out) != 3 {
		t.Fatalf("expected all 3 empty-key signals kept, got %d", len(out))
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Need a CRM!", "need a crm"},
		{"  Spaced  Out  ", "spaced  out"},
		{"100% Done?", "100 done"},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := normalizeTitle(tt.in); got != tt.want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
