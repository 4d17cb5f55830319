// Package service implements the offer store's business logic over a
// persistence repository.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/offersync/offersync/internal/dedupe"
	"github.com/offersync/offersync/internal/models"
)

// OfferRepository defines the persistence operations needed by OfferService.
type OfferRepository interface {
	// GetAllByUser retrieves every offer belonging to the user in one query.
	GetAllByUser(ctx context.Context, userID string) ([]models.StoredOffer, error)
	// List retrieves offers matching source/search/pagination filters.
	List(ctx context.Context, userID string, f models.OfferFilters) ([]models.StoredOffer, error)
	// GetByID fetches a single offer, or repository.ErrNotFound.
	GetByID(ctx context.Context, userID, id string) (*models.StoredOffer, error)
	// InsertBatch inserts all offers atomically.
	InsertBatch(ctx context.Context, offers []models.StoredOffer) error
	// Update replaces an offer's fields and returns the updated row.
	Update(ctx context.Context, userID, id string, o models.Offer, updatedAt string) (*models.StoredOffer, error)
	// Delete removes one offer.
	Delete(ctx context.Context, userID, id string) error
	// DeleteAllByUser removes every offer of the user.
	DeleteAllByUser(ctx context.Context, userID string) (int64, error)
	// CountBySource counts the user's offers grouped by source.
	CountBySource(ctx context.Context, userID string) (map[string]int, error)
}

// OfferService implements the duplicate-aware offer store.
type OfferService struct {
	repo OfferRepository
	// now is the clock, replaceable in tests.
	now func() time.Time
	// newID mints server-assigned offer IDs, replaceable in tests.
	newID func() string
}

// NewOfferService constructs an OfferService over the provided repository.
func NewOfferService(repo OfferRepository) *OfferService {
	return &OfferService{repo: repo, now: time.Now, newID: uuid.NewString}
}

// CreateResult reports the outcome of a duplicate-aware batch create. Its
// counts are authoritative: clients display them verbatim.
type CreateResult struct {
	// Inserted holds the newly persisted offers with assigned IDs and
	// timestamps.
	Inserted []models.StoredOffer
	// Skipped counts candidates that exactly matched an existing offer.
	Skipped int
	// Total is the size of the submitted batch.
	Total int
}

// Create persists the candidates that are not exact duplicates of offers the
// user already has. Existing offers are loaded in a single query per call,
// each candidate is checked against that in-memory set under
// dedupe.ExactFieldEquality, and the surviving records are inserted in one
// atomic batch with server-assigned IDs and timestamps. A candidate
// identical to an earlier candidate in the same batch is skipped too.
//
// This exact-match policy guards against re-syncing the same batch twice; it
// is deliberately stricter than the client's fuzzy matcher.
func (s *OfferService) Create(ctx context.Context, userID string, offers []models.Offer) (*CreateResult, error) {
	existing, err := s.repo.GetAllByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[dedupe.Fingerprint(e.Offer)] = struct{}{}
	}

	now := s.now().UTC().Format(time.RFC3339)
	staged := []models.StoredOffer{}
	skipped := 0
	for _, o := range offers {
		key := dedupe.Fingerprint(o)
		if _, dup := seen[key]; dup {
			skipped++
			continue
		}
		seen[key] = struct{}{}
		staged = append(staged, models.StoredOffer{
			ID:        s.newID(),
			UserID:    userID,
			Offer:     o,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if len(staged) > 0 {
		if err := s.repo.InsertBatch(ctx, staged); err != nil {
			return nil, err
		}
	}
	return &CreateResult{Inserted: staged, Skipped: skipped, Total: len(offers)}, nil
}

// List retrieves the user's offers with filters applied. Source, search and
// pagination run in SQL; the expiry filter runs here because expiry dates
// are source-provided text, with pagination applied after it so pages stay
// consistent.
func (s *OfferService) List(ctx context.Context, userID string, f models.OfferFilters) ([]models.StoredOffer, error) {
	if f.Expired == nil {
		return s.repo.List(ctx, userID, f)
	}

	unpaged := f
	unpaged.Limit = 0
	unpaged.Offset = 0
	all, err := s.repo.List(ctx, userID, unpaged)
	if err != nil {
		return nil, err
	}

	now := s.now()
	filtered := all[:0:0]
	for _, o := range all {
		if expiredByNow(o.ExpiryDate, now) == *f.Expired {
			filtered = append(filtered, o)
		}
	}

	if f.Offset > 0 {
		if f.Offset >= len(filtered) {
			return nil, nil
		}
		filtered = filtered[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(filtered) {
		filtered = filtered[:f.Limit]
	}
	return filtered, nil
}

// Get retrieves a single offer by ID for the user.
func (s *OfferService) Get(ctx context.Context, userID, id string) (*models.StoredOffer, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Update replaces an offer's fields and refreshes its updated_at timestamp.
func (s *OfferService) Update(ctx context.Context, userID, id string, o models.Offer) (*models.StoredOffer, error) {
	return s.repo.Update(ctx, userID, id, o, s.now().UTC().Format(time.RFC3339))
}

// Delete removes one offer owned by the user.
func (s *OfferService) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// Clear removes every offer owned by the user and reports how many.
func (s *OfferService) Clear(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteAllByUser(ctx, userID)
}

// Stats summarizes the user's stored offers by source.
func (s *OfferService) Stats(ctx context.Context, userID string) (*models.Stats, error) {
	counts, err := s.repo.CountBySource(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return &models.Stats{Total: total, BySource: counts}, nil
}
