package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scoring.Mode != "hybrid" && cfg.Scoring.Mode != "heuristic" && cfg.Scoring.Mode != "ai" {
		t.Errorf("unexpected scoring mode %q", cfg.Scoring.Mode)
	}
	if len(cfg.ICP.Keywords) == 0 {
		t.Error("embedded default has no ICP keywords")
	}
	if cfg.Output.MaxLeads <= 0 {
		t.Errorf("max_leads not defaulted: %d", cfg.Output.MaxLeads)
	}

	enabled := cfg.EnabledSources()
	if len(enabled) == 0 {
		t.Fatal("embedded default enables no sources")
	}
	// Source order in yaml is fetch order.
	if enabled[0] != "hackernews" {
		t.Errorf("expected hackernews first, got %q", enabled[0])
	}

	reddit := cfg.Source("reddit")
	if reddit == nil {
		t.Fatal("reddit source missing from embedded default")
	}
	if len(reddit.Subreddits) == 0 {
		t.Error("reddit source has no subreddits")
	}
	if cfg.Source("no-such-source") != nil {
		t.Error("unknown source id should return nil")
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	minimal := "icp:\n  keywords: [\"crm\"]\n"
	if err := os.WriteFile(path, []byte(minimal), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Scoring.Mode != "heuristic" {
		t.Errorf("mode = %q, want heuristic", cfg.Scoring.Mode)
	}
	want := Weights{KeywordMatch: 0.4, PainPointMatch: 0.2, Recency: 0.2, Engagement: 0.2}
	if cfg.Scoring.Weights != want {
		t.Errorf("weights = %+v, want %+v", cfg.Scoring.Weights, want)
	}
	if cfg.Scoring.MinScore != 3 {
		t.Errorf("min_score = %v, want 3", cfg.Scoring.MinScore)
	}
	if cfg.Scoring.AIThreshold != 4 {
		t.Errorf("ai_threshold = %v, want 4", cfg.Scoring.AIThreshold)
	}
	if cfg.Scoring.MaxAIPerRun != 50 {
		t.Errorf("max_ai_per_run = %v, want 50", cfg.Scoring.MaxAIPerRun)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
}

func TestLoadExplicitWeightsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	data := "scoring:\n  weights:\n    keyword_match: 0.7\n    pain_point_match: 0.1\n    recency: 0.1\n    engagement: 0.1\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Scoring.Weights.KeywordMatch != 0.7 {
		t.Errorf("explicit weights overwritten: %+v", cfg.Scoring.Weights)
	}
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("SIGNALSCOUT_TEST_KEY", "sk-ant-test-12345")
	path := filepath.Join(t.TempDir(), "env.yaml")
	data := "scoring:\n  ai_api_key: \"${SIGNALSCOUT_TEST_KEY}\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Scoring.AIAPIKey != "sk-ant-test-12345" {
		t.Errorf("env not expanded: %q", cfg.Scoring.AIAPIKey)
	}
}

func TestMaskAIKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"sk-ant-api03-abcdefgh", "sk-ant-a..."},
		{"short", "***"},
		{"", ""},
	}
	for _, tt := range tests {
		cfg := &Config{Scoring: ScoringConfig{AIAPIKey: tt.key}}
		masked := cfg.MaskAIKey()
		if masked.Scoring.AIAPIKey != tt.want {
			t.Errorf("MaskAIKey(%q) = %q, want %q", tt.key, masked.Scoring.AIAPIKey, tt.want)
		}
		// Original is untouched.
		if cfg.Scoring.AIAPIKey != tt.key {
			t.Errorf("original key mutated: %q", cfg.Scoring.AIAPIKey)
		}
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Output.MaxLeads = 17

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Output.MaxLeads != 17 {
		t.Errorf("max_leads = %d after round trip, want 17", reloaded.Output.MaxLeads)
	}
}
