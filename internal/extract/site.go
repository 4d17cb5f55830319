package extract

import (
	"strings"

	"github.com/offersync/offersync/internal/models"
)

// DetectSite classifies a page URL as one of the supported portals. It is a
// pure substring check: it never fails and unmatched URLs yield
// models.SourceUnknown.
func DetectSite(url string) models.Source {
	switch {
	case strings.Contains(url, "americanexpress.com") && strings.Contains(url, "/offers"):
		return models.SourceAmex
	case strings.Contains(url, "chase.com") && strings.Contains(url, "merchantOffers"):
		return models.SourceChase
	case strings.Contains(url, "capitaloneoffers.com"):
		return models.SourceCapitalOne
	}
	return models.SourceUnknown
}
