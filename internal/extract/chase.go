package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/offersync/offersync/internal/models"
)

var (
	// chaseUIWordRe matches lines that are controls or labels rather than a
	// merchant name.
	chaseUIWordRe = regexp.MustCompile(`(?i)^(add|view|terms|details|expires|sort|filter|results|online|in-store|new|added)$`)

	// chaseAmountLineRe matches lines that are amounts, not merchant names.
	chaseAmountLineRe = regexp.MustCompile(`[\d]+%|^\$[\d,]+`)

	chaseAddedRe = regexp.MustCompile(`(?i)added\s+to\s+card`)

	chaseDiscountFallbacks = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\$[\d,]+\s*(?:cash\s*)?back`),
		regexp.MustCompile(`(?i)[\d]+%\s*(?:cash\s*)?back`),
		regexp.MustCompile(`(?i)\$[\d,]+\s*off`),
		regexp.MustCompile(`(?i)[\d]+%\s*off`),
	}
)

// Chase extracts offers from the Chase merchant offers page. Tiles carry
// stable data-testid attributes; the text styling classes inside them are
// hashed, so field extraction keeps a text-line fallback for when those
// classes rotate.
type Chase struct {
	log *zap.Logger
}

// NewChase returns a Chase extractor logging diagnostics to log.
func NewChase(log *zap.Logger) *Chase {
	return &Chase{log: log.Named("chase")}
}

// Source implements Extractor.
func (c *Chase) Source() models.Source { return models.SourceChase }

// Detect implements Extractor.
func (c *Chase) Detect(url string) bool { return DetectSite(url) == models.SourceChase }

// Extract implements Extractor.
func (c *Chase) Extract(doc *goquery.Document) ([]models.Candidate, error) {
	tiles, strategy := runChain(doc, c.tileChain(), c.log)
	if tiles == nil {
		c.log.Warn("no offer tiles found")
		return nil, nil
	}
	c.log.Info("located offer tiles",
		zap.String("strategy", strategy),
		zap.Int("tiles", tiles.Length()))

	var out []models.Candidate
	seenNodes := make(map[*html.Node]bool)
	seenSignatures := make(map[string]bool)

	tiles.Each(func(_ int, tile *goquery.Selection) {
		node := tile.Get(0)
		if seenNodes[node] {
			return
		}
		seenNodes[node] = true

		offer, ok := c.fromTile(tile)
		if !ok {
			return
		}
		sig := Normalize(offer.Title) + "_" + Normalize(offer.Merchant)
		if seenSignatures[sig] {
			return
		}
		seenSignatures[sig] = true
		out = append(out, offer)
	})
	return out, nil
}

func (c *Chase) tileChain() []Strategy {
	return []Strategy{
		{
			Name: "commerce-tile",
			Select: func(doc *goquery.Document) *goquery.Selection {
				return doc.Find(`[data-testid="commerce-tile"]`)
			},
		},
		{
			Name: "grid-item-container",
			Select: func(doc *goquery.Document) *goquery.Selection {
				return doc.Find(`[data-testid="offer-tile-grid-item-container"]`)
			},
		},
	}
}

// fromTile extracts one candidate from a tile. A tile without both a
// merchant and a discount is rejected: Chase renders placeholder tiles while
// the grid loads.
func (c *Chase) fromTile(tile *goquery.Selection) (models.Candidate, bool) {
	offer := models.Candidate{Source: models.SourceChase}

	// The r9jbij* classes scope the tile body; the heavier body class inside
	// them is the merchant name. Expiring-soon labels use a different scope
	// class, so they are not picked up here.
	merchantEl := tile.Find(`.r9jbije .mds-body-small-heavier.r9jbijk, .r9jbijl .mds-body-small-heavier.r9jbijk`).First()
	if merchantEl.Length() > 0 {
		text := strings.TrimSpace(merchantEl.Text())
		if len(text) >= 2 && len(text) <= 100 {
			offer.Merchant = text
			offer.Title = text
		}
	}

	discountEl := tile.Find(`.r9jbije .mds-body-large-heavier.r9jbijj, .r9jbijl .mds-body-large-heavier.r9jbijj`).First()
	if discountEl.Length() > 0 {
		if text := strings.TrimSpace(discountEl.Text()); text != "" {
			offer.Discount = text
			offer.Description = text
		}
	}

	if banner := tile.Find(`[data-testid="tile-banner"]`).First(); banner.Length() > 0 {
		if strings.EqualFold(strings.TrimSpace(banner.Text()), "new") {
			offer.Status = "New"
		}
	}
	if tile.Find(`[data-testid="expiring-soon"]`).Length() > 0 {
		offer.Status = appendStatus(offer.Status, "Expiring soon")
	}

	// Fallback for rotated styling classes: scan the tile's visible lines.
	if offer.Merchant == "" || offer.Discount == "" {
		text := tile.Text()
		if offer.Merchant == "" {
			for _, line := range strings.Split(text, "\n") {
				line = strings.TrimSpace(line)
				if line == "" || chaseUIWordRe.MatchString(line) {
					continue
				}
				if len(line) < 2 || len(line) > 50 || chaseAmountLineRe.MatchString(line) {
					continue
				}
				offer.Merchant = line
				offer.Title = line
				break
			}
		}
		if offer.Discount == "" {
			for _, re := range chaseDiscountFallbacks {
				if m := re.FindString(text); m != "" {
					offer.Discount = m
					offer.Description = m
					break
				}
			}
		}
	}

	if label := tile.AttrOr("aria-label", ""); chaseAddedRe.MatchString(label) {
		offer.Status = appendStatus(offer.Status, "Added to card")
	}

	if len(offer.Merchant) <= 1 || offer.Discount == "" {
		return models.Candidate{}, false
	}
	return offer, true
}

// appendStatus concatenates status labels with ", ".
func appendStatus(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + ", " + next
}
