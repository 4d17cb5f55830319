package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/offersync/offersync/internal/models"
)

// SyncResult reports the outcome of one push to the server. Counts come from
// the server response and are authoritative.
type SyncResult struct {
	// Inserted holds the rows the server actually stored.
	Inserted []models.StoredOffer `json:"inserted"`
	// NewCount is how many of the pushed offers were new to the server.
	NewCount int `json:"count"`
	// Skipped is how many pushed offers the server already had.
	Skipped int `json:"skipped"`
	// Total is the user's offer count after the push.
	Total int `json:"total"`
}

// SyncClient pushes extracted offers to the server's batch-create endpoint.
type SyncClient struct {
	client *resty.Client
}

// NewSyncClient returns a SyncClient targeting baseURL, authenticating with
// the given bearer token.
func NewSyncClient(baseURL, token string, timeout time.Duration) *SyncClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(timeout)
	return &SyncClient{client: c}
}

// WireOffers converts extracted candidates into the server's wire shape.
// Empty merchant and title fields fall back onto each other so the server
// never receives a row it cannot name.
func WireOffers(site models.Source, offers []models.Candidate) []models.Offer {
	wire := make([]models.Offer, 0, len(offers))
	for _, o := range offers {
		merchant := o.Merchant
		if merchant == "" {
			merchant = o.Title
		}
		if merchant == "" {
			merchant = "Unknown"
		}
		title := o.Title
		if title == "" {
			title = o.Merchant
		}
		if title == "" {
			title = "Untitled"
		}
		status := o.Status
		if status == "" {
			status = "Available"
		}
		source := o.Source
		if source == "" || source == models.SourceUnknown {
			source = site
		}
		wire = append(wire, models.Offer{
			Merchant:    merchant,
			Title:       title,
			Description: o.Description,
			Discount:    o.Discount,
			Terms:       o.Terms,
			Category:    o.Category,
			ExpiryDate:  o.ExpiryDate,
			Status:      status,
			Source:      string(source),
		})
	}
	return wire
}

// Sync pushes the candidates to POST /api/offers and returns the server's
// duplicate-aware counts.
func (sc *SyncClient) Sync(ctx context.Context, site models.Source, offers []models.Candidate) (*SyncResult, error) {
	if len(offers) == 0 {
		return nil, fmt.Errorf("no offers to sync")
	}

	var result SyncResult
	resp, err := sc.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(WireOffers(site, offers)).
		SetResult(&result).
		Post("/api/offers")
	if err != nil {
		return nil, fmt.Errorf("sync failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("sync failed: server returned %s", resp.Status())
	}
	return &result, nil
}
