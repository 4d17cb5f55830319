package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/offersync/offersync/internal/auth"
	"github.com/offersync/offersync/internal/middleware"
	"github.com/offersync/offersync/internal/models"
	"github.com/offersync/offersync/internal/repository"
	handler "github.com/offersync/offersync/internal/server/handler/http"
	"github.com/offersync/offersync/internal/service"
)

// fakeOfferService records calls and returns preconfigured results.
type fakeOfferService struct {
	CreateFunc func(ctx context.Context, userID string, offers []models.Offer) (*service.CreateResult, error)
	ListFunc   func(ctx context.Context, userID string, f models.OfferFilters) ([]models.StoredOffer, error)
	GetFunc    func(ctx context.Context, userID, id string) (*models.StoredOffer, error)
	UpdateFunc func(ctx context.Context, userID, id string, o models.Offer) (*models.StoredOffer, error)
	DeleteFunc func(ctx context.Context, userID, id string) error
	ClearFunc  func(ctx context.Context, userID string) (int64, error)
	StatsFunc  func(ctx context.Context, userID string) (*models.Stats, error)
}

func (f *fakeOfferService) Create(ctx context.Context, userID string, offers []models.Offer) (*service.CreateResult, error) {
	return f.CreateFunc(ctx, userID, offers)
}
func (f *fakeOfferService) List(ctx context.Context, userID string, fl models.OfferFilters) ([]models.StoredOffer, error) {
	return f.ListFunc(ctx, userID, fl)
}
func (f *fakeOfferService) Get(ctx context.Context, userID, id string) (*models.StoredOffer, error) {
	return f.GetFunc(ctx, userID, id)
}
func (f *fakeOfferService) Update(ctx context.Context, userID, id string, o models.Offer) (*models.StoredOffer, error) {
	return f.UpdateFunc(ctx, userID, id, o)
}
func (f *fakeOfferService) Delete(ctx context.Context, userID, id string) error {
	return f.DeleteFunc(ctx, userID, id)
}
func (f *fakeOfferService) Clear(ctx context.Context, userID string) (int64, error) {
	return f.ClearFunc(ctx, userID)
}
func (f *fakeOfferService) Stats(ctx context.Context, userID string) (*models.Stats, error) {
	return f.StatsFunc(ctx, userID)
}

var testUser = &auth.User{ID: "u1", Email: "u1@example.com"}

// authedRequest builds a request that already carries a verified user, the
// way BearerAuth leaves it.
func authedRequest(method, target string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	return req.WithContext(middleware.WithUser(req.Context(), testUser))
}

func TestOfferCreate_ArrayBody(t *testing.T) {
	offers := []models.Offer{
		{Merchant: "Starbucks", Title: "Starbucks", Source: "Amex"},
		{Merchant: "Nike", Title: "Nike", Source: "Amex"},
	}
	fake := &fakeOfferService{
		CreateFunc: func(_ context.Context, userID string, got []models.Offer) (*service.CreateResult, error) {
			if userID != "u1" {
				t.Errorf("userID = %q; want u1", userID)
			}
			if !reflect.DeepEqual(got, offers) {
				t.Errorf("offers = %+v; want %+v", got, offers)
			}
			return &service.CreateResult{
				Inserted: []models.StoredOffer{{ID: "o1", UserID: "u1", Offer: offers[0]}},
				Skipped:  1,
				Total:    2,
			}, nil
		},
	}
	h := &handler.OfferHandler{Service: fake}

	b, _ := json.Marshal(offers)
	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/api/offers", b))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusCreated)
	}
	var resp struct {
		Success      bool                 `json:"success"`
		Count        int                  `json:"count"`
		NewCount     int                  `json:"newCount"`
		Skipped      int                  `json:"skipped"`
		SkippedCount int                  `json:"skippedCount"`
		Total        int                  `json:"total"`
		Offers       []models.StoredOffer `json:"inserted"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if !resp.Success || resp.Count != 1 || resp.Skipped != 1 || resp.Total != 2 {
		t.Errorf("response = %+v; want success with 1/1/2 counts", resp)
	}
	if resp.NewCount != resp.Count || resp.SkippedCount != resp.Skipped {
		t.Errorf("newCount/skippedCount = %d/%d; want aliases of count %d and skipped %d",
			resp.NewCount, resp.SkippedCount, resp.Count, resp.Skipped)
	}
}

func TestOfferCreate_SingleObjectBody(t *testing.T) {
	var received []models.Offer
	fake := &fakeOfferService{
		CreateFunc: func(_ context.Context, _ string, got []models.Offer) (*service.CreateResult, error) {
			received = got
			return &service.CreateResult{Inserted: []models.StoredOffer{}, Total: 1}, nil
		},
	}
	h := &handler.OfferHandler{Service: fake}

	b, _ := json.Marshal(models.Offer{Merchant: "Solo", Title: "Solo"})
	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/api/offers", b))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusCreated)
	}
	if len(received) != 1 || received[0].Merchant != "Solo" {
		t.Errorf("service received %+v; want the single offer wrapped", received)
	}
}

func TestOfferCreate_BadBodies(t *testing.T) {
	h := &handler.OfferHandler{Service: &fakeOfferService{}}

	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/api/offers", []byte("not-a-json")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("garbage body: status = %d; want %d", w.Code, http.StatusBadRequest)
	}

	w = httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/api/offers", []byte("[]")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty array: status = %d; want %d", w.Code, http.StatusBadRequest)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if resp.Error != "no offers provided" {
		t.Errorf("error = %q; want %q", resp.Error, "no offers provided")
	}
}

func TestOfferList_QueryParams(t *testing.T) {
	var got models.OfferFilters
	fake := &fakeOfferService{
		ListFunc: func(_ context.Context, _ string, f models.OfferFilters) ([]models.StoredOffer, error) {
			got = f
			return nil, nil
		},
	}
	h := &handler.OfferHandler{Service: fake}

	w := httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet,
		"/api/offers?source=Amex&q=star&expired=true&limit=10&offset=20", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
	if got.Source != "Amex" || got.Search != "star" || got.Limit != 10 || got.Offset != 20 {
		t.Errorf("filters = %+v", got)
	}
	if got.Expired == nil || !*got.Expired {
		t.Errorf("expired filter = %v; want pointer to true", got.Expired)
	}

	// A nil result renders as an empty array, never null.
	var resp struct {
		Success bool              `json:"success"`
		Count   int               `json:"count"`
		Data    []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if !resp.Success || resp.Count != 0 || resp.Data == nil {
		t.Errorf("response = %+v; want success with empty data array", resp)
	}
}

func TestOfferList_SearchAlias(t *testing.T) {
	var got models.OfferFilters
	fake := &fakeOfferService{
		ListFunc: func(_ context.Context, _ string, f models.OfferFilters) ([]models.StoredOffer, error) {
			got = f
			return nil, nil
		},
	}
	h := &handler.OfferHandler{Service: fake}

	w := httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/api/offers?search=nike&expired=false", nil))

	if got.Search != "nike" {
		t.Errorf("search = %q; want nike", got.Search)
	}
	if got.Expired == nil || *got.Expired {
		t.Errorf("expired filter = %v; want pointer to false", got.Expired)
	}
}

func TestOfferGet_NotFound(t *testing.T) {
	fake := &fakeOfferService{
		GetFunc: func(context.Context, string, string) (*models.StoredOffer, error) {
			return nil, repository.ErrNotFound
		},
	}
	h := &handler.OfferHandler{Service: fake}

	w := httptest.NewRecorder()
	h.Get(w, authedRequest(http.MethodGet, "/api/offers/missing", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want %d", w.Code, http.StatusNotFound)
	}
}

func TestOfferUpdate_BadBody(t *testing.T) {
	h := &handler.OfferHandler{Service: &fakeOfferService{}}

	w := httptest.NewRecorder()
	h.Update(w, authedRequest(http.MethodPut, "/api/offers/o1", []byte("{broken")))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want %d", w.Code, http.StatusBadRequest)
	}
}

func TestOfferDelete_Success(t *testing.T) {
	fake := &fakeOfferService{
		DeleteFunc: func(context.Context, string, string) error { return nil },
	}
	h := &handler.OfferHandler{Service: fake}

	w := httptest.NewRecorder()
	h.Delete(w, authedRequest(http.MethodDelete, "/api/offers/o1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if resp.Message != "Offer deleted successfully" {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestOfferClear(t *testing.T) {
	fake := &fakeOfferService{
		ClearFunc: func(context.Context, string) (int64, error) { return 4, nil },
	}
	h := &handler.OfferHandler{Service: fake}

	w := httptest.NewRecorder()
	h.Clear(w, authedRequest(http.MethodDelete, "/api/offers", nil))

	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if resp.Deleted != 4 {
		t.Errorf("deleted = %d; want 4", resp.Deleted)
	}
}

func TestOfferStats(t *testing.T) {
	fake := &fakeOfferService{
		StatsFunc: func(context.Context, string) (*models.Stats, error) {
			return &models.Stats{Total: 3, BySource: map[string]int{"Amex": 2, "Chase": 1}}, nil
		},
	}
	h := &handler.OfferHandler{Service: fake}

	w := httptest.NewRecorder()
	h.Stats(w, authedRequest(http.MethodGet, "/api/offers/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", w.Code, http.StatusOK)
	}
	var resp struct {
		Data models.Stats `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if resp.Data.Total != 3 || resp.Data.BySource["Amex"] != 2 {
		t.Errorf("stats = %+v", resp.Data)
	}
}

func TestOfferList_ServiceError(t *testing.T) {
	fake := &fakeOfferService{
		ListFunc: func(context.Context, string, models.OfferFilters) ([]models.StoredOffer, error) {
			return nil, errors.New("database error: connection lost")
		},
	}
	h := &handler.OfferHandler{Service: fake}

	w := httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/api/offers", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want %d", w.Code, http.StatusInternalServerError)
	}
}
