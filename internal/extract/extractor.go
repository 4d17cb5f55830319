// Package extract turns bank portal markup into raw offer candidates.
//
// Each supported portal gets its own Extractor because the three sites share
// nothing in their markup or text conventions. Class names on these pages are
// frequently auto-generated, so every extractor locates its offer rows
// through an ordered chain of selector strategies, from the most specific
// data-testid down to a structural heuristic, and falls through whenever a
// strategy yields zero rows.
package extract

import (
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/offersync/offersync/internal/models"
)

// Extractor scrapes raw offer candidates from one portal's markup.
// Extract is side-effect free on the document and safe to retry; a zero-row
// result is a valid outcome, not an error.
type Extractor interface {
	// Source is the portal tag this extractor handles.
	Source() models.Source
	// Detect reports whether the URL belongs to this extractor's portal.
	Detect(url string) bool
	// Extract walks the document and returns raw candidates in DOM order.
	// Rows are deduplicated by DOM identity and by content signature before
	// field extraction; a candidate with neither merchant nor description is
	// never returned.
	Extract(doc *goquery.Document) ([]models.Candidate, error)
}

// Expander is implemented by extractors whose full result set only renders
// after a page interaction (e.g. a "view more" control). Callers that fetch
// live pages should re-fetch after a settle delay when NeedsExpansion reports
// true, then extract from the refreshed document.
type Expander interface {
	NeedsExpansion(doc *goquery.Document) bool
}

// Registry returns the extractors for all supported portals.
func Registry(log *zap.Logger) []Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return []Extractor{
		NewAmex(log),
		NewChase(log),
		NewCapitalOne(log),
	}
}

// For returns the extractor matching the page URL, or nil when the site is
// not supported.
func For(url string, log *zap.Logger) Extractor {
	for _, e := range Registry(log) {
		if e.Detect(url) {
			return e
		}
	}
	return nil
}
