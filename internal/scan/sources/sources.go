// Package sources implements the signal fetchers. Each fetcher absorbs
// ordinary per-request failures into partial results; it returns an
// error only when the whole source produced nothing usable.
package sources

import (
	"strings"

	"github.com/david/signalscout/internal/scan"
	"github.com/microcosm-cc/bluemonday"
)

const userAgent = "SignalScout/1.0 (B2B Lead Detection Tool)"

// stripPolicy removes every HTML tag from post bodies before scoring.
var stripPolicy = bluemonday.StrictPolicy()

// All returns every known source in fetch order. The config decides
// which ones a scan actually uses.
func All() []scan.Source {
	return []scan.Source{
		NewHackerNews(),
		NewReddit(),
		NewNitter(),
		NewRSS(),
	}
}

func cleanText(s string) string {
	return strings.TrimSpace(stripPolicy.Sanitize(s))
}
