package extract

import (
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Strategy is one way of locating offer rows in a document. Strategies are
// tried in declaration order and the first one that yields a non-empty
// selection wins.
type Strategy struct {
	// Name labels the strategy in scrape diagnostics.
	Name string
	// Select returns the candidate row elements, possibly empty.
	Select func(doc *goquery.Document) *goquery.Selection
}

// runChain executes a strategy chain against doc and returns the first
// non-empty selection together with the winning strategy's name. Returns nil
// when no strategy matches anything.
func runChain(doc *goquery.Document, chain []Strategy, log *zap.Logger) (*goquery.Selection, string) {
	for _, s := range chain {
		sel := s.Select(doc)
		if sel == nil || sel.Length() == 0 {
			continue
		}
		log.Debug("selector strategy matched",
			zap.String("strategy", s.Name),
			zap.Int("rows", sel.Length()))
		return sel, s.Name
	}
	return nil, ""
}
