package dedupe

import (
	"regexp"

	"github.com/offersync/offersync/internal/models"
)

var (
	// spendEarnRe recognizes "Spend $X, earn $Y" shaped text, the most
	// specific form of offer language.
	spendEarnRe = regexp.MustCompile(`(?i)spend.*?earn`)

	// offerWordRe recognizes merchant fields that are really offer phrases.
	offerWordRe = regexp.MustCompile(`(?i)spend|earn|back`)
)

// MergeEvent records one candidate being folded into an existing canonical
// offer, with the matcher branch that triggered it.
type MergeEvent struct {
	// Into is the index of the canonical offer the candidate merged into,
	// as of the moment the merge happened.
	Into int
	// Reason is the matcher branch that judged the pair similar.
	Reason Reason
	// Candidate is the record that was folded in.
	Candidate models.Candidate
}

// Dedupe folds candidates, in input (DOM) order, into a list of canonical
// offers. A candidate similar to an accepted offer is merged into it field
// by field, preferring the most complete and most specific value; otherwise
// it becomes a new canonical offer. Candidates with neither merchant nor
// description are dropped outright.
//
// The scan is O(n²) in the candidate count, which is fine at per-page offer
// volumes. Dedupe is convergent: running it on its own output is a no-op.
func Dedupe(candidates []models.Candidate) ([]models.Candidate, []MergeEvent) {
	var unique []models.Candidate
	var merges []MergeEvent

	for _, c := range candidates {
		if c.Merchant == "" && c.Description == "" {
			continue
		}

		merged := false
		for i := range unique {
			reason := SimilarityReason(unique[i], c)
			if reason == ReasonNone {
				continue
			}
			merge(&unique[i], c)
			merges = append(merges, MergeEvent{Into: i, Reason: reason, Candidate: c})
			merged = true
			break
		}
		if !merged {
			unique = append(unique, c)
			continue
		}
		// A merge can rewrite an accepted offer's merchant or title, making
		// it similar to another accepted offer. Fold such pairs before
		// accepting more candidates, or residual duplicates would survive
		// the pass.
		unique, merges = settle(unique, merges)
	}
	return unique, merges
}

// settle folds any pair of accepted offers that a field rewrite has made
// similar, keeping the earlier record. Each fold shrinks the list and can
// itself rewrite fields, so the scan restarts until no pair matches.
func settle(unique []models.Candidate, merges []MergeEvent) ([]models.Candidate, []MergeEvent) {
	for {
		folded := false
		for i := 0; i < len(unique) && !folded; i++ {
			for j := i + 1; j < len(unique); j++ {
				reason := SimilarityReason(unique[i], unique[j])
				if reason == ReasonNone {
					continue
				}
				dup := unique[j]
				merge(&unique[i], dup)
				merges = append(merges, MergeEvent{Into: i, Reason: reason, Candidate: dup})
				unique = append(unique[:j], unique[j+1:]...)
				folded = true
				break
			}
		}
		if !folded {
			return unique, merges
		}
	}
}

// merge folds incoming into existing, keeping the most complete and most
// specific value per field.
func merge(existing *models.Candidate, incoming models.Candidate) {
	// Description: a "spend … earn" shaped value wins outright; otherwise
	// the strictly longer one.
	if incoming.Description != "" && spendEarnRe.MatchString(incoming.Description) {
		existing.Description = incoming.Description
	} else if incoming.Description != "" && len(existing.Description) < len(incoming.Description) {
		existing.Description = incoming.Description
	}

	// Merchant: a value that doesn't read like an offer phrase wins;
	// otherwise the longer one.
	if incoming.Merchant != "" && len(incoming.Merchant) > 2 && !offerWordRe.MatchString(incoming.Merchant) {
		existing.Merchant = incoming.Merchant
	} else if incoming.Merchant != "" && len(existing.Merchant) < len(incoming.Merchant) {
		existing.Merchant = incoming.Merchant
	}

	// Title: a merchant-shaped, length-bounded value wins; otherwise the
	// longer one, excluding "spend … earn" shaped strings entirely.
	if incoming.Title != "" && !spendEarnRe.MatchString(incoming.Title) &&
		len(incoming.Title) < 50 && len(incoming.Title) > 1 {
		existing.Title = incoming.Title
	} else if incoming.Title != "" && !spendEarnRe.MatchString(incoming.Title) &&
		len(existing.Title) < len(incoming.Title) {
		existing.Title = incoming.Title
	}

	// Fill-if-absent fields: never overwritten once set.
	if existing.Discount == "" {
		existing.Discount = incoming.Discount
	}
	if existing.ExpiryDate == "" {
		existing.ExpiryDate = incoming.ExpiryDate
	}
	if existing.Terms == "" {
		existing.Terms = incoming.Terms
	}

	// A known merchant beats an empty or offer-phrase title.
	if existing.Merchant != "" && (existing.Title == "" || spendEarnRe.MatchString(existing.Title)) {
		existing.Title = existing.Merchant
	}
}
