package storage_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offersync/offersync/internal/client/storage"
	"github.com/offersync/offersync/internal/models"
)

func TestWireOffers_Fallbacks(t *testing.T) {
	candidates := []models.Candidate{
		{Merchant: "Starbucks", Title: "Starbucks", Status: "Added", Source: models.SourceAmex},
		{Title: "Only A Title"},
		{Merchant: "nike.com"},
		{Description: "Spend $25, earn $5 back"},
	}

	wire := storage.WireOffers(models.SourceAmex, candidates)
	require.Len(t, wire, 4)

	assert.Equal(t, "Added", wire[0].Status)
	assert.Equal(t, "Only A Title", wire[1].Merchant, "merchant backfilled from title")
	assert.Equal(t, "nike.com", wire[2].Title, "title backfilled from merchant")
	assert.Equal(t, "Unknown", wire[3].Merchant)
	assert.Equal(t, "Untitled", wire[3].Title)

	for i, o := range wire {
		assert.NotEmpty(t, o.Status, "wire[%d].Status", i)
		assert.Equal(t, string(models.SourceAmex), o.Source, "wire[%d].Source", i)
	}
}

func TestSyncClient_Sync(t *testing.T) {
	var gotAuth, gotPath, gotContentType string
	var gotOffers []models.Offer
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotOffers))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"inserted": []models.StoredOffer{{ID: "o1", UserID: "u1"}},
			"count":    1,
			"skipped":  1,
			"total":    5,
		})
	}))
	defer srv.Close()

	sc := storage.NewSyncClient(srv.URL, "tok123", 5*time.Second)
	result, err := sc.Sync(context.Background(), models.SourceChase, []models.Candidate{
		{Merchant: "McDonald's", Discount: "10% cash back"},
		{Merchant: "Shell", Discount: "$10 back"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok123", gotAuth)
	assert.Equal(t, "/api/offers", gotPath)
	assert.Contains(t, gotContentType, "application/json")
	require.Len(t, gotOffers, 2)
	assert.Equal(t, "Chase", gotOffers[0].Source, "wire offers tagged with the extraction site")

	assert.Equal(t, 1, result.NewCount)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 5, result.Total)
	require.Len(t, result.Inserted, 1)
	assert.Equal(t, "o1", result.Inserted[0].ID)
}

func TestSyncClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sc := storage.NewSyncClient(srv.URL, "stale", 5*time.Second)
	_, err := sc.Sync(context.Background(), models.SourceAmex, []models.Candidate{{Merchant: "X Y"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
}

func TestSyncClient_EmptyBatch(t *testing.T) {
	sc := storage.NewSyncClient("http://unused.invalid", "tok", time.Second)
	_, err := sc.Sync(context.Background(), models.SourceAmex, nil)
	require.Error(t, err)
}
