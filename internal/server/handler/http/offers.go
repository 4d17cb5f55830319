package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/offersync/offersync/internal/middleware"
	"github.com/offersync/offersync/internal/models"
	"github.com/offersync/offersync/internal/service"
)

// OfferService defines the store operations required by the offer handlers.
type OfferService interface {
	// Create runs the duplicate-aware batch create for the user.
	Create(ctx context.Context, userID string, offers []models.Offer) (*service.CreateResult, error)
	// List retrieves the user's offers with filters applied.
	List(ctx context.Context, userID string, f models.OfferFilters) ([]models.StoredOffer, error)
	// Get fetches one offer by ID.
	Get(ctx context.Context, userID, id string) (*models.StoredOffer, error)
	// Update replaces an offer's fields.
	Update(ctx context.Context, userID, id string, o models.Offer) (*models.StoredOffer, error)
	// Delete removes one offer.
	Delete(ctx context.Context, userID, id string) error
	// Clear removes all of the user's offers.
	Clear(ctx context.Context, userID string) (int64, error)
	// Stats summarizes the user's offers by source.
	Stats(ctx context.Context, userID string) (*models.Stats, error)
}

// OfferHandler handles the /api/offers routes. Every request reaching it has
// passed BearerAuth, so the user in the context is already validated.
type OfferHandler struct {
	Service OfferService
}

// Create handles POST /api/offers. The body is a JSON array of offers (a
// single object is tolerated for compatibility). The response's counts come
// straight from the store and are authoritative for client feedback.
func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	var offers []models.Offer
	if err := json.Unmarshal(body, &offers); err != nil {
		var single models.Offer
		if err := json.Unmarshal(body, &single); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
		offers = []models.Offer{single}
	}
	if len(offers) == 0 {
		writeError(w, http.StatusBadRequest, "no offers provided")
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	result, err := h.Service.Create(r.Context(), user.ID, offers)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// count/skipped are what existing clients read; newCount/skippedCount
	// are aliases kept for API consumers expecting those names.
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"inserted":     result.Inserted,
		"count":        len(result.Inserted),
		"newCount":     len(result.Inserted),
		"skipped":      result.Skipped,
		"skippedCount": result.Skipped,
		"total":        result.Total,
	})
}

// List handles GET /api/offers with the filter query parameters
// source, search (alias q), expired, limit and offset.
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := q.Get("search")
	if search == "" {
		search = q.Get("q")
	}

	f := models.OfferFilters{
		Source: q.Get("source"),
		Search: search,
	}
	switch q.Get("expired") {
	case "true":
		t := true
		f.Expired = &t
	case "false":
		fa := false
		f.Expired = &fa
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		f.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		f.Offset = n
	}

	user := middleware.GetUserFromContext(r.Context())
	offers, err := h.Service.List(r.Context(), user.ID, f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if offers == nil {
		offers = []models.StoredOffer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    offers,
		"count":   len(offers),
	})
}

// Get handles GET /api/offers/{id}.
func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	offer, err := h.Service.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": offer})
}

// Update handles PUT /api/offers/{id}.
func (h *OfferHandler) Update(w http.ResponseWriter, r *http.Request) {
	var offer models.Offer
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user := middleware.GetUserFromContext(r.Context())
	updated, err := h.Service.Update(r.Context(), user.ID, chi.URLParam(r, "id"), offer)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": updated})
}

// Delete handles DELETE /api/offers/{id}.
func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if err := h.Service.Delete(r.Context(), user.ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Offer deleted successfully",
	})
}

// Clear handles DELETE /api/offers, removing every offer of the user.
func (h *OfferHandler) Clear(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	n, err := h.Service.Clear(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": n})
}

// Stats handles GET /api/offers/stats.
func (h *OfferHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	stats, err := h.Service.Stats(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": stats})
}
