package scan

import "strings"

// Deduplicate collapses signals sharing a normalized title key, keeping
// the higher-scoring one. When a later duplicate wins it replaces the
// earlier signal in place, so rank order is preserved. Signals whose
// title normalizes to the empty string are always kept: an empty key
// cannot identify a duplicate.
func Deduplicate(signals []Signal) []Signal {
	type slot struct {
		index int
		score float64
	}
	seen := make(map[string]slot)
	deduped := make([]Signal, 0, len(signals))

	for _, sig := range signals {
		key := normalizeTitle(sig.Title)
		if key == "" {
			deduped = append(deduped, sig)
			continue
		}
		if prev, ok := seen[key]; ok {
			if sig.AuthoritativeScore() > prev.score {
				deduped[prev.index] = sig
				seen[key] = slot{index: prev.index, score: sig.AuthoritativeScore()}
			}
			continue
		}
		seen[key] = slot{index: len(deduped), score: sig.AuthoritativeScore()}
		deduped = append(deduped, sig)
	}

	return deduped
}

// normalizeTitle lowercases and strips everything outside [a-z0-9 ].
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
