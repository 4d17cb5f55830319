package extract_test

import (
	"testing"

	"go.uber.org/zap"

	"github.com/offersync/offersync/internal/extract"
	"github.com/offersync/offersync/internal/models"
)

func TestDetectSite(t *testing.T) {
	cases := []struct {
		url  string
		want models.Source
	}{
		{"https://global.americanexpress.com/offers/eligible", models.SourceAmex},
		{"https://www.chase.com/personal/credit-cards/login?path=merchantOffers", models.SourceChase},
		{"https://capitaloneoffers.com/feed", models.SourceCapitalOne},
		{"https://www.americanexpress.com/account", models.SourceUnknown},
		{"https://www.chase.com/personal", models.SourceUnknown},
		{"https://example.com/offers", models.SourceUnknown},
		{"", models.SourceUnknown},
	}
	for _, c := range cases {
		if got := extract.DetectSite(c.url); got != c.want {
			t.Errorf("DetectSite(%q) = %q; want %q", c.url, got, c.want)
		}
	}
}

func TestFor(t *testing.T) {
	log := zap.NewNop()

	e := extract.For("https://global.americanexpress.com/offers/eligible", log)
	if e == nil || e.Source() != models.SourceAmex {
		t.Fatalf("For(amex) = %v; want Amex extractor", e)
	}

	e = extract.For("https://capitaloneoffers.com/feed", log)
	if e == nil || e.Source() != models.SourceCapitalOne {
		t.Fatalf("For(capital one) = %v; want Capital One extractor", e)
	}
	if _, ok := e.(extract.Expander); !ok {
		t.Error("Capital One extractor should implement Expander")
	}

	if e := extract.For("https://example.com", log); e != nil {
		t.Errorf("For(unsupported) = %v; want nil", e)
	}
}

func TestRegistry_CoversAllSources(t *testing.T) {
	seen := make(map[models.Source]bool)
	for _, e := range extract.Registry(nil) {
		seen[e.Source()] = true
	}
	for _, want := range []models.Source{models.SourceAmex, models.SourceChase, models.SourceCapitalOne} {
		if !seen[want] {
			t.Errorf("registry missing extractor for %q", want)
		}
	}
}
