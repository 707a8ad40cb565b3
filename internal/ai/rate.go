package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const maxContentChars = 1000

// ICPContext is the profile description sent with every rating request.
type ICPContext struct {
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	PainPoints  []string `json:"pain_points"`
	Industries  []string `json:"industries"`
}

// Rating is the structured verdict for one signal.
type Rating struct {
	Score             int    `json:"score"`
	Category          string `json:"category"`
	Reasoning         string `json:"reasoning"`
	SuggestedResponse string `json:"suggested_response"`
}

// RateSignal asks the model to rate one post's buying intent against the ICP.
func (c *Client) RateSignal(ctx context.Context, icp ICPContext, title, content string) (*Rating, error) {
	icpJSON, err := json.Marshal(icp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ICP context: %w", err)
	}

	if runes := []rune(content); len(runes) > maxContentChars {
		content = string(runes[:maxContentChars])
	}

	prompt := fmt.Sprintf(`You are a B2B sales intelligence analyst. Given this social media post and the target ICP described below, rate the buying intent from 1-10 and classify as high_intent/medium_intent/low_intent/noise. Also suggest a brief, natural response the user could post to engage this prospect. Return JSON only.

ICP: %s

Post Title: %s
Post Content: %s

Return ONLY valid JSON with keys: score (int 1-10), category (string), reasoning (string, 1-2 sentences), suggested_response (string)`, icpJSON, title, content)

	resp, err := c.Complete(ctx, prompt, 300)
	if err != nil {
		return nil, err
	}

	rating, err := parseRating(resp)
	if err != nil {
		return nil, fmt.Errorf("malformed rating response: %w", err)
	}
	return rating, nil
}

// parseRating locates the first balanced JSON object in the model reply
// and decodes it strictly. Anything else is a malformed response.
func parseRating(resp string) (*Rating, error) {
	cleaned := strings.TrimSpace(resp)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	jsonStr, ok := extractFirstJSONObject(cleaned)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var rating Rating
	if err := json.Unmarshal([]byte(jsonStr), &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}

// extractFirstJSONObject finds the first outermost balanced {...},
// tracking string literals and escapes so braces inside values don't
// confuse the depth count.
func extractFirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if escaped {
			escaped = false
			continue
		}
		if char == '\\' {
			escaped = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if char == '{' {
				depth++
			} else if char == '}' {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}
