package dedupe_test

import (
	"testing"

	"github.com/offersync/offersync/internal/dedupe"
	"github.com/offersync/offersync/internal/models"
)

func TestSimilarityReason_MerchantDescription(t *testing.T) {
	a := models.Candidate{Merchant: "Starbucks", Description: "Spend $25 or more, earn $5 back"}
	b := models.Candidate{Merchant: "  STARBUCKS ", Description: "spend $25 or more, earn $5 back"}

	if got := dedupe.SimilarityReason(a, b); got != dedupe.ReasonMerchantDescription {
		t.Errorf("reason = %q; want %q", got, dedupe.ReasonMerchantDescription)
	}
	if !dedupe.FuzzySimilarity(a, b) {
		t.Error("FuzzySimilarity = false; want true")
	}
}

func TestSimilarityReason_SameMerchantDifferentDescriptions(t *testing.T) {
	// Different amounts mean different offers even at the same merchant.
	a := models.Candidate{Merchant: "Starbucks", Description: "Spend $25 or more, earn $5 back"}
	b := models.Candidate{Merchant: "Starbucks", Description: "Spend $50 or more, earn $10 back"}

	if got := dedupe.SimilarityReason(a, b); got != dedupe.ReasonNone {
		t.Errorf("reason = %q; want none", got)
	}
}

func TestSimilarityReason_TitleDescription(t *testing.T) {
	a := models.Candidate{Title: "Bonus Points Offer", Description: "Earn 5,000 points on travel purchases"}
	b := models.Candidate{Title: "bonus points offer", Description: "Earn 5,000 points on travel purchases"}

	if got := dedupe.SimilarityReason(a, b); got != dedupe.ReasonTitleDescription {
		t.Errorf("reason = %q; want %q", got, dedupe.ReasonTitleDescription)
	}
}

func TestSimilarityReason_TitleNoDescriptions(t *testing.T) {
	a := models.Candidate{Title: "Hilton Hotels"}
	b := models.Candidate{Title: "Hilton Hotels"}

	if got := dedupe.SimilarityReason(a, b); got != dedupe.ReasonTitleNoDescriptions {
		t.Errorf("reason = %q; want %q", got, dedupe.ReasonTitleNoDescriptions)
	}

	// One side having a description breaks the no-description branch.
	b.Description = "Earn $60 back on stays of $300 or more"
	if got := dedupe.SimilarityReason(a, b); got != dedupe.ReasonNone {
		t.Errorf("reason = %q; want none", got)
	}
}

func TestSimilarityReason_ShortAndGenericValuesNeverMatch(t *testing.T) {
	cases := []struct {
		name string
		a, b models.Candidate
	}{
		{
			"short merchant",
			models.Candidate{Merchant: "AB", Description: "Spend $25, earn $5 back now"},
			models.Candidate{Merchant: "AB", Description: "Spend $25, earn $5 back now"},
		},
		{
			"short description",
			models.Candidate{Merchant: "Starbucks", Description: "Earn $5"},
			models.Candidate{Merchant: "Starbucks", Description: "Earn $5"},
		},
		{
			"short title",
			models.Candidate{Title: "Nike"},
			models.Candidate{Title: "Nike"},
		},
		{
			"empty everything",
			models.Candidate{},
			models.Candidate{},
		},
	}
	for _, c := range cases {
		if got := dedupe.SimilarityReason(c.a, c.b); got != dedupe.ReasonNone {
			t.Errorf("%s: reason = %q; want none", c.name, got)
		}
	}
}

func TestSimilarityReason_Symmetric(t *testing.T) {
	pairs := [][2]models.Candidate{
		{
			{Merchant: "Starbucks", Description: "Spend $25 or more, earn $5 back"},
			{Merchant: "starbucks", Description: "Spend $25 or more, earn $5 back", Title: "Starbucks"},
		},
		{
			{Title: "Hilton Hotels"},
			{Title: "hilton  hotels"},
		},
		{
			{Merchant: "Nike", Description: "Spend $100, earn $20 back today"},
			{Merchant: "Adidas", Description: "Spend $100, earn $20 back today"},
		},
	}
	for _, p := range pairs {
		if ab, ba := dedupe.SimilarityReason(p[0], p[1]), dedupe.SimilarityReason(p[1], p[0]); ab != ba {
			t.Errorf("asymmetric result for %+v: %q vs %q", p, ab, ba)
		}
	}
}

func TestExactFieldEquality(t *testing.T) {
	a := models.Offer{
		Merchant: "Nike", Title: "Nike", Description: "Spend $100, earn $20 back",
		Discount: "earn $20", Source: "Amex", ExpiryDate: "12/31/25", Category: "",
	}
	b := a
	b.Merchant = "  NIKE "
	b.Description = "spend $100,  earn $20 back"
	if !dedupe.ExactFieldEquality(a, b) {
		t.Error("ExactFieldEquality = false for normalized-equal offers; want true")
	}

	c := a
	c.ExpiryDate = "1/31/26"
	if dedupe.ExactFieldEquality(a, c) {
		t.Error("ExactFieldEquality = true across different expiry dates; want false")
	}

	d := a
	d.Source = "Chase"
	if dedupe.ExactFieldEquality(a, d) {
		t.Error("ExactFieldEquality = true across sources; want false")
	}
}

func TestFingerprint_AgreesWithEquality(t *testing.T) {
	a := models.Offer{Merchant: "Nike", Title: "Nike", Description: "Spend $100, earn $20 back", Source: "Amex"}
	b := a
	b.Title = "NIKE"
	if (dedupe.Fingerprint(a) == dedupe.Fingerprint(b)) != dedupe.ExactFieldEquality(a, b) {
		t.Error("Fingerprint equality disagrees with ExactFieldEquality")
	}

	c := a
	c.Discount = "earn $20"
	if dedupe.Fingerprint(a) == dedupe.Fingerprint(c) {
		t.Error("Fingerprint ignored a differing discount")
	}
}
