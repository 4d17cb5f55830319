// Package dedupe folds raw extraction candidates into canonical offers.
//
// Two distinct duplicate notions live here and are deliberately kept apart:
// FuzzySimilarity drives client-side merging of noisy DOM rows, while
// ExactFieldEquality guards the server against re-syncing the same batch
// twice. They serve different correctness goals and must never be conflated.
package dedupe

import (
	"regexp"
	"strings"

	"github.com/offersync/offersync/internal/extract"
	"github.com/offersync/offersync/internal/models"
)

// Reason names the matcher branch that judged two candidates similar. It is
// attached to merge events for debuggability; downstream logic never depends
// on it.
type Reason string

const (
	// ReasonNone means the candidates are not similar.
	ReasonNone Reason = ""
	// ReasonMerchantDescription: same merchant and same exact description.
	ReasonMerchantDescription Reason = "same merchant and same exact description"
	// ReasonTitleDescription: same exact title and same exact description.
	ReasonTitleDescription Reason = "same exact title and same exact description"
	// ReasonTitleNoDescriptions: same exact title and neither candidate has
	// a description.
	ReasonTitleNoDescriptions Reason = "same exact title (both have no description)"
)

// genericTitleRe matches titles that are bare offer words and therefore say
// nothing about identity. Input is already normalized to lower case.
var genericTitleRe = regexp.MustCompile(`^(spend|earn|back|off)$`)

// FuzzySimilarity reports whether two candidates denote the same real offer.
// The policy is deliberately conservative, preferring false negatives:
// offers with the same merchant but different descriptions stay distinct,
// because merging them would silently lose amounts and dates.
func FuzzySimilarity(a, b models.Candidate) bool {
	return SimilarityReason(a, b) != ReasonNone
}

// SimilarityReason is FuzzySimilarity with the matching branch exposed.
// It is symmetric: SimilarityReason(a, b) == SimilarityReason(b, a).
func SimilarityReason(a, b models.Candidate) Reason {
	merchantA := extract.Normalize(a.Merchant)
	merchantB := extract.Normalize(b.Merchant)
	descA := extract.Normalize(a.Description)
	descB := extract.Normalize(b.Description)
	titleA := extract.Normalize(a.Title)
	titleB := extract.Normalize(b.Title)

	descsMatch := descA != "" && descA == descB && len(descA) > 10

	// Branch 1: identical merchant and identical description.
	if merchantA != "" && merchantA == merchantB && len(merchantA) > 2 && descsMatch {
		return ReasonMerchantDescription
	}

	// Branch 2: identical non-generic title, plus identical descriptions or
	// no descriptions on either side. Covers non-merchant (card-level)
	// offers.
	if titleA != "" && titleA == titleB && len(titleA) > 5 && !genericTitleRe.MatchString(titleA) {
		if descsMatch {
			return ReasonTitleDescription
		}
		if descA == "" && descB == "" {
			return ReasonTitleNoDescriptions
		}
	}

	return ReasonNone
}

// ExactFieldEquality reports whether two offers are field-wise identical
// over {merchant, title, description, discount, source, expiry_date,
// category} under case-insensitive, whitespace-collapsed comparison. This is
// the server-side duplicate policy: stricter than FuzzySimilarity, it only
// catches the same record synced twice.
func ExactFieldEquality(a, b models.Offer) bool {
	return Fingerprint(a) == Fingerprint(b)
}

// Fingerprint is the map-key form of ExactFieldEquality: two offers are
// exactly equal iff their fingerprints are equal.
func Fingerprint(o models.Offer) string {
	return strings.Join([]string{
		extract.Normalize(o.Merchant),
		extract.Normalize(o.Title),
		extract.Normalize(o.Description),
		extract.Normalize(o.Discount),
		extract.Normalize(o.Source),
		extract.Normalize(o.ExpiryDate),
		extract.Normalize(o.Category),
	}, "\x1f")
}
