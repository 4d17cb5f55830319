// Package models defines the core data structures for extracted, cached and
// persisted merchant offers.
package models

// Source identifies the bank portal an offer was extracted from.
type Source string

const (
	// SourceAmex marks offers extracted from the Amex offers page.
	SourceAmex Source = "Amex"
	// SourceChase marks offers extracted from the Chase merchant offers page.
	SourceChase Source = "Chase"
	// SourceCapitalOne marks offers extracted from the Capital One offers page.
	SourceCapitalOne Source = "Capital One"
	// SourceUnknown is returned for pages that are not a supported portal.
	SourceUnknown Source = "unknown"
)

// Candidate is a raw offer record produced directly from one DOM row.
// Every field except Source may be empty; candidates with neither a merchant
// nor a description are dropped before deduplication. After deduplication a
// Candidate doubles as the canonical, merged representation of one
// real-world offer, which is what the client caches locally.
type Candidate struct {
	// Title is the offer headline, frequently the merchant name.
	Title string `json:"title"`
	// Description is the offer language, e.g. "Spend $100, earn $20 back".
	Description string `json:"description"`
	// Discount is the pattern-matched reward fragment of the description.
	Discount string `json:"discount"`
	// Terms holds terms-and-conditions text when present.
	Terms string `json:"terms"`
	// Merchant is the merchant name or domain.
	Merchant string `json:"merchant"`
	// Category is the portal's offer category label, when shown.
	Category string `json:"category"`
	// ExpiryDate is the expiry text as shown on the page, not parsed.
	ExpiryDate string `json:"expiryDate"`
	// Status reflects badges and the add-to-card control, e.g. "Added",
	// "New, Expiring soon". Multiple statuses are joined with ", ".
	Status string `json:"status"`
	// Source is the portal the candidate was extracted from.
	Source Source `json:"source"`
}

// Offer is the wire shape consumed by the server's batch-create endpoint.
type Offer struct {
	Merchant    string `json:"merchant"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Discount    string `json:"discount"`
	Terms       string `json:"terms"`
	Category    string `json:"category"`
	ExpiryDate  string `json:"expiry_date"`
	Status      string `json:"status"`
	Source      string `json:"source"`
}

// StoredOffer is a server-side row: an Offer plus server-assigned identity
// and ISO-8601 timestamps. Rows are owned by exactly one user and are never
// auto-expired.
type StoredOffer struct {
	// ID is the opaque, server-assigned identifier.
	ID string `json:"id"`
	// UserID is the owning user's identifier.
	UserID string `json:"user_id"`
	Offer
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// OfferFilters narrows the results of the offer read path.
type OfferFilters struct {
	// Source keeps only offers from one portal when non-empty.
	Source string
	// Search keeps offers whose merchant contains the substring,
	// case-insensitively.
	Search string
	// Expired, when set, keeps only expired (true) or only
	// non-expired (false) offers. Offers without an expiry date count as
	// non-expired.
	Expired *bool
	// Limit caps the number of returned offers when positive.
	Limit int
	// Offset skips that many offers from the start of the result.
	Offset int
}

// Stats summarizes a user's stored offers.
type Stats struct {
	// Total is the number of stored offers.
	Total int `json:"total"`
	// BySource counts offers per source string found in the rows.
	BySource map[string]int `json:"bySource"`
}
