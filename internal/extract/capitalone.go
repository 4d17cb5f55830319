package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/offersync/offersync/internal/models"
)

var (
	// capOneDomainRe pulls the merchant domain out of a logo image URL such
	// as ".../logos?height=170&domain=woodlanddirect.com&type=cropped".
	capOneDomainRe = regexp.MustCompile(`domain=([^&]+)`)

	// capOneNoiseRe matches emphasized text that is a control or channel
	// label rather than a reward.
	capOneNoiseRe = regexp.MustCompile(`(?i)^(online|in-store|activate|shop now|new offer|view more offers)$`)
)

// CapitalOne extracts offers from the Capital One offers feed. The feed
// renders an initial page of tiles plus a "View More Offers" control; when
// that control is present, callers should re-fetch after a settle delay so
// the full feed is in the document before the final extraction pass.
type CapitalOne struct {
	log *zap.Logger
}

// NewCapitalOne returns a Capital One extractor logging diagnostics to log.
func NewCapitalOne(log *zap.Logger) *CapitalOne {
	return &CapitalOne{log: log.Named("capitalone")}
}

// Source implements Extractor.
func (c *CapitalOne) Source() models.Source { return models.SourceCapitalOne }

// Detect implements Extractor.
func (c *CapitalOne) Detect(url string) bool { return DetectSite(url) == models.SourceCapitalOne }

// NeedsExpansion implements Expander: it reports whether the feed still has
// a "View More Offers" control, meaning not all tiles are rendered yet.
func (c *CapitalOne) NeedsExpansion(doc *goquery.Document) bool {
	found := false
	doc.Find(`button[type="button"]`).EachWithBreak(func(_ int, b *goquery.Selection) bool {
		if strings.TrimSpace(b.Text()) == "View More Offers" && b.HasClass("font-semibold") {
			found = true
			return false
		}
		return true
	})
	return found
}

// Extract implements Extractor.
func (c *CapitalOne) Extract(doc *goquery.Document) ([]models.Candidate, error) {
	tiles := doc.Find(`.standard-tile, [data-testid^="feed-tile-"]`)
	c.log.Info("located offer tiles", zap.Int("tiles", tiles.Length()))

	var out []models.Candidate
	tiles.Each(func(_ int, tile *goquery.Selection) {
		offer, ok := c.fromTile(tile)
		if !ok {
			return
		}
		out = append(out, offer)
	})
	return out, nil
}

func (c *CapitalOne) fromTile(tile *goquery.Selection) (models.Candidate, bool) {
	offer := models.Candidate{Source: models.SourceCapitalOne, Status: "Available"}

	// The merchant is only present as the domain parameter of the logo URL;
	// the full domain with TLD is kept as the merchant name.
	if img := tile.Find(`img[src*="domain="]`).First(); img.Length() > 0 {
		if m := capOneDomainRe.FindStringSubmatch(img.AttrOr("src", "")); m != nil {
			offer.Merchant = m[1]
			offer.Title = m[1]
		}
	}

	// Reward text is emphasized; a tile may carry several fragments
	// (e.g. "15% back" plus "Online").
	var discounts []string
	tile.Find(`.font-semibold, [class*="font-semibold"]`).Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if text == "" || capOneNoiseRe.MatchString(text) {
			return
		}
		if len(text) > 2 && len(text) < 150 {
			discounts = append(discounts, text)
		}
	})
	if len(discounts) > 0 {
		offer.Discount = strings.Join(discounts, " • ")
		offer.Description = offer.Discount
	}

	if cat := tile.Find(`h2.font-light, h2 [class*="font-light"]`).First(); cat.Length() > 0 {
		if text := strings.TrimSpace(cat.Text()); text != "" && len(text) < 50 {
			offer.Category = text
		}
	}

	if badge := tile.Find(`[class*="absolute"][class*="top-0"]`).First(); badge.Length() > 0 {
		if strings.Contains(strings.ToLower(badge.Text()), "new") {
			offer.Status = "New Offer"
		}
	}
	if offer.Status == "Available" && strings.Contains(strings.ToLower(tile.Text()), "new offer") {
		offer.Status = "New Offer"
	}

	// Baseline "2X miles" rewards on Standard tiles apply to every merchant
	// and drown out the real offers.
	if strings.Contains(strings.ToLower(offer.Category), "standard") &&
		strings.Contains(strings.ToLower(offer.Discount), "2x miles") {
		c.log.Debug("skipping standard tile", zap.String("merchant", offer.Merchant))
		return models.Candidate{}, false
	}

	if len(offer.Merchant) <= 1 || offer.Discount == "" {
		return models.Candidate{}, false
	}
	return offer, true
}
