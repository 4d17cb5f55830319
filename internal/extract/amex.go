package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/offersync/offersync/internal/models"
)

const (
	amexHeadingSel = `h3.heading-sans-small-medium, h3[class*="heading"]`
	amexOverflowSel = `[data-testid="overflowTextContainer"]`

	// A row with this many descendant divs is a page-level container, not an
	// offer tile.
	maxRowDescendantDivs = 30

	// Content signatures compare at most this many bytes of the normalized
	// description.
	signatureDescLen = 200
)

var (
	// offerLanguageRe recognizes the marketing phrasing Amex uses for offer
	// descriptions.
	offerLanguageRe = regexp.MustCompile(`(?i)spend.*?earn|earn.*?back|earn.*?%|back.*?on`)

	// discountRe pulls the reward fragment out of a description.
	discountRe = regexp.MustCompile(`(?i)earn\s+\$?[\d,]+|[\d]+%\s*(?:back|off)|spend\s+\$?[\d,]+`)

	// expiryRe captures the date text of an "Expires 12/31/25" style label.
	expiryRe = regexp.MustCompile(`(?i)expires?\s+([\d/]+)`)

	// titleCaseOnlyRe matches bare brand names like "Levi's Outlet" so they
	// are not mistaken for descriptions.
	titleCaseOnlyRe = regexp.MustCompile(`^[A-Z][a-z]+(\s+[A-Z][a-z]+)*$`)

	// amexDescFallbacks are tried, in order, against a row's full text when
	// no description container matched.
	amexDescFallbacks = []*regexp.Regexp{
		regexp.MustCompile(`(?i)spend\s+\$?[\d,]+\s*(?:or\s*more)?\s*,\s*earn\s+\$?[\d,]+.*?back`),
		regexp.MustCompile(`(?i)earn\s+\$?[\d,]+\s*back.*?on`),
		regexp.MustCompile(`(?i)earn\s+[\d]+%\s*back.*?on`),
		regexp.MustCompile(`(?i)spend\s+\$?[\d,]+.*?earn\s+\$?[\d,]+`),
	}
)

// Amex extracts offers from the American Express offers page. Offers are
// rendered as list rows inside a recommended-offers container; the same
// logical offer frequently appears as both a summary row and a detail row,
// which the signature filter collapses before field extraction.
type Amex struct {
	log *zap.Logger
}

// NewAmex returns an Amex extractor logging diagnostics to log.
func NewAmex(log *zap.Logger) *Amex {
	return &Amex{log: log.Named("amex")}
}

// Source implements Extractor.
func (a *Amex) Source() models.Source { return models.SourceAmex }

// Detect implements Extractor.
func (a *Amex) Detect(url string) bool { return DetectSite(url) == models.SourceAmex }

// Extract implements Extractor.
func (a *Amex) Extract(doc *goquery.Document) ([]models.Candidate, error) {
	rows, strategy := runChain(doc, a.rowChain(), a.log)
	if rows == nil {
		a.log.Warn("could not find offers container")
		return nil, nil
	}

	unique := a.filterRows(rows)
	a.log.Info("located offer rows",
		zap.String("strategy", strategy),
		zap.Int("raw", rows.Length()),
		zap.Int("unique", len(unique)))

	var out []models.Candidate
	for _, row := range unique {
		c := a.fromRow(row)
		if c.Merchant == "" && c.Description == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// rowChain is the ordered list of row-locating strategies: the specific
// containers first, a document-wide class query next, and a structural
// heuristic last.
func (a *Amex) rowChain() []Strategy {
	return []Strategy{
		{
			Name: "recommended-container",
			Select: func(doc *goquery.Document) *goquery.Selection {
				return doc.Find(`[data-testid="recommendedOffersContainer"] div[class*="_listViewRow_"]`)
			},
		},
		{
			Name: "list-view-container",
			Select: func(doc *goquery.Document) *goquery.Selection {
				return doc.Find(`[data-testid="listViewContainer"] div[class*="_listViewRow_"]`)
			},
		},
		{
			Name: "document-wide",
			Select: func(doc *goquery.Document) *goquery.Selection {
				return doc.Find(`div[class*="_listViewRow_"]`)
			},
		},
		{
			Name: "structural",
			Select: func(doc *goquery.Document) *goquery.Selection {
				return doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
					return looksLikeAmexRow(s)
				})
			},
		},
	}
}

// looksLikeAmexRow reports whether s has the structure of one offer row: a
// heading element plus either offer-language text or an expiry label, and few
// enough descendants that it isn't a whole-page container.
func looksLikeAmexRow(s *goquery.Selection) bool {
	if s.Find(amexHeadingSel).Length() == 0 {
		return false
	}
	hasDesc := false
	s.Find(amexOverflowSel + " span").EachWithBreak(func(_ int, sp *goquery.Selection) bool {
		if offerLanguageRe.MatchString(sp.Text()) {
			hasDesc = true
			return false
		}
		return true
	})
	if !hasDesc && !expiryRe.MatchString(s.Text()) {
		return false
	}
	return s.Find("div").Length() < maxRowDescendantDivs
}

// filterRows drops rows already seen as the same DOM element, rows with
// neither merchant nor description, and rows whose content signature
// (normalized merchant + truncated normalized description) repeats.
func (a *Amex) filterRows(rows *goquery.Selection) []*goquery.Selection {
	var unique []*goquery.Selection
	seenNodes := make(map[*html.Node]bool)
	seenSignatures := make(map[string]bool)
	var dupElements, missingBoth, dupSignatures int

	rows.Each(func(_ int, row *goquery.Selection) {
		node := row.Get(0)
		if seenNodes[node] {
			dupElements++
			return
		}
		seenNodes[node] = true

		merchant := amexMerchantText(row)
		desc := amexDescriptionText(row)
		if merchant == "" && desc == "" {
			missingBoth++
			return
		}

		sig := contentSignature(merchant, desc)
		if seenSignatures[sig] {
			dupSignatures++
			return
		}
		seenSignatures[sig] = true
		unique = append(unique, row)
	})

	if n := dupElements + missingBoth + dupSignatures; n > 0 {
		a.log.Debug("filtered offer rows",
			zap.Int("duplicate_elements", dupElements),
			zap.Int("missing_both", missingBoth),
			zap.Int("duplicate_signatures", dupSignatures))
	}
	return unique
}

// contentSignature builds the row identity used for pre-extraction dedup.
// The full (truncated) description participates so the same merchant with a
// different amount stays a distinct row.
func contentSignature(merchant, desc string) string {
	m, d := Normalize(merchant), Normalize(desc)
	switch {
	case m != "" && d != "":
		return m + "_" + truncate(d, signatureDescLen)
	case m != "":
		return m
	default:
		return "desc_" + truncate(d, signatureDescLen)
	}
}

// amexMerchantText returns the first heading's text, preferring an inner
// span when present.
func amexMerchantText(row *goquery.Selection) string {
	heading := row.Find(amexHeadingSel).First()
	if heading.Length() == 0 {
		return ""
	}
	if span := heading.Find("span").First(); span.Length() > 0 {
		return strings.TrimSpace(span.Text())
	}
	return strings.TrimSpace(heading.Text())
}

// amexDescriptionText returns the first overflow-container text that reads
// like offer language.
func amexDescriptionText(row *goquery.Selection) string {
	var desc string
	row.Find(amexOverflowSel + " span").EachWithBreak(func(_ int, sp *goquery.Selection) bool {
		text := strings.TrimSpace(sp.Text())
		if offerLanguageRe.MatchString(text) {
			desc = text
			return false
		}
		return true
	})
	return desc
}

// fromRow extracts one candidate from a unique offer row.
func (a *Amex) fromRow(row *goquery.Selection) models.Candidate {
	c := models.Candidate{Source: models.SourceAmex}

	c.Merchant = amexMerchantText(row)
	c.Title = c.Merchant

	// Prefer the longest overflow-container text that is offer language (or
	// explicitly styled as body text) and is not a bare brand name.
	row.Find(amexOverflowSel).Each(func(_ int, container *goquery.Selection) {
		span := container.Find("span").First()
		if span.Length() == 0 {
			return
		}
		text := strings.TrimSpace(span.Text())
		isDescription := container.HasClass("body") ||
			container.HasClass("color-text-regular") ||
			offerLanguageRe.MatchString(text)
		if !isDescription || len(text) <= 10 || titleCaseOnlyRe.MatchString(text) {
			return
		}
		if len(text) > len(c.Description) {
			c.Description = text
		}
	})

	rowText := CollapseSpace(row.Text())
	if c.Description == "" {
		for _, re := range amexDescFallbacks {
			if m := re.FindString(rowText); m != "" {
				c.Description = strings.TrimSpace(m)
				break
			}
		}
	}

	if c.Description != "" {
		c.Discount = discountRe.FindString(c.Description)
	}

	row.Find(`p.color-text-subtle, p[class*="body-small"]`).EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if m := expiryRe.FindStringSubmatch(p.Text()); m != nil {
			c.ExpiryDate = strings.TrimSpace(m[1])
			return false
		}
		return true
	})
	if c.ExpiryDate == "" {
		if m := expiryRe.FindStringSubmatch(rowText); m != nil {
			c.ExpiryDate = strings.TrimSpace(m[1])
		}
	}

	terms := row.Find(`button[data-testid="merchantOfferTermsLink"]`).First()
	if terms.Length() > 0 && strings.Contains(strings.ToLower(terms.Text()), "terms") {
		c.Terms = "Terms apply"
	}

	add := row.Find(`button[data-testid="merchantOfferListAddButton"]`).First()
	if add.Length() > 0 {
		state := strings.ToLower(add.AttrOr("title", "") + " " + add.AttrOr("aria-label", ""))
		if strings.Contains(state, "added") || strings.Contains(state, "saved") {
			c.Status = "Added"
		} else {
			c.Status = "Available"
		}
	}

	return c
}
