package scan

// Intent categories, from strongest to weakest buying signal.
const (
	IntentHigh   = "high_intent"
	IntentMedium = "medium_intent"
	IntentLow    = "low_intent"
	IntentNoise  = "noise"
)

// ClassifyIntent maps an authoritative score onto a coarse intent bucket.
func ClassifyIntent(score float64) string {
	switch {
	case score >= 7:
		return IntentHigh
	case score >= 5:
		return IntentMedium
	case score >= 3:
		return IntentLow
	default:
		return IntentNoise
	}
}

// assignIntentCategories fills IntentCategory for signals the augmenter
// did not label (heuristic-only or failed augmentation).
func assignIntentCategories(signals []Signal) {
	for i := range signals {
		if signals[i].IntentCategory == "" {
			signals[i].IntentCategory = ClassifyIntent(signals[i].AuthoritativeScore())
		}
	}
}
