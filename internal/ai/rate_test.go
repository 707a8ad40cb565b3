package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestExtractFirstJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"score": 8}`, `{"score": 8}`, true},
		{"surrounding prose", `Sure, here it is: {"score": 8} hope that helps`, `{"score": 8}`, true},
		{"nested braces", `{"a": {"b": 1}}`, `{"a": {"b": 1}}`, true},
		{"brace inside string", `{"reasoning": "uses {curly} syntax"}`, `{"reasoning": "uses {curly} syntax"}`, true},
		{"escaped quote inside string", `{"reasoning": "she said \"hi {\" once"}`, `{"reasoning": "she said \"hi {\" once"}`, true},
		{"two objects takes first", `{"a": 1} {"b": 2}`, `{"a": 1}`, true},
		{"no object", "nothing here", "", false},
		{"unbalanced", `{"a": 1`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractFirstJSONObject(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRating(t *testing.T) {
	resp := "```json\n{\"score\": 7, \"category\": \"high_intent\", \"reasoning\": \"asks for vendor recs\", \"suggested_response\": \"Happy to share notes.\"}\n```"
	rating, err := parseRating(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rating.Score != 7 {
		t.Errorf("score = %d, want 7", rating.Score)
	}
	if rating.Category != "high_intent" {
		t.Errorf("category = %q", rating.Category)
	}
	if rating.SuggestedResponse == "" {
		t.Error("suggested_response empty")
	}
}

func TestParseRatingWithProse(t *testing.T) {
	resp := `Here is my assessment: {"score": 4, "category": "low_intent", "reasoning": "vague complaint"}`
	rating, err := parseRating(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rating.Score != 4 || rating.Category != "low_intent" {
		t.Errorf("got score=%d category=%q", rating.Score, rating.Category)
	}
}

func TestRateSignalClipsContentOnRuneBoundary(t *testing.T) {
	var captured string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Messages) > 0 {
			captured = req.Messages[0].Content
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":[{"type":"text","text":"{\"score\":5,\"category\":\"medium_intent\",\"reasoning\":\"ok\"}"}]}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", "test-model")
	c.BaseURL = srv.URL

	content := strings.Repeat("é", maxContentChars+100)
	rating, err := c.RateSignal(context.Background(), ICPContext{}, "title", content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rating.Score != 5 {
		t.Errorf("score = %d, want 5", rating.Score)
	}
	if captured == "" {
		t.Fatal("prompt never reached the server")
	}
	if !utf8.ValidString(captured) {
		t.Error("clipped prompt is not valid UTF-8")
	}
	if strings.ContainsRune(captured, utf8.RuneError) {
		t.Error("clipped prompt contains a replacement character")
	}
}

func TestParseRatingMalformed(t *testing.T) {
	for _, resp := range []string{
		"I cannot rate this post.",
		`{"score": "not a number"}`,
		`{"score": 5`,
	} {
		if _, err := parseRating(resp); err == nil {
			t.Errorf("expected error for %q", resp)
		}
	}
}
