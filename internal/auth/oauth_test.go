package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/offersync/offersync/internal/auth"
)

func TestExchanger_NotConfigured(t *testing.T) {
	e := auth.NewExchanger("", "")
	_, err := e.Exchange(context.Background(), "code", "https://cb")
	if !errors.Is(err, auth.ErrNotConfigured) {
		t.Errorf("error = %v; want ErrNotConfigured", err)
	}
}

func TestExchanger_Success(t *testing.T) {
	var tokenBody map[string]string
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&tokenBody); err != nil {
			t.Errorf("decode token request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "ya29.access",
			"id_token":     "eyJ.id.token",
		})
	}))
	defer tokenSrv.Close()

	var gotAuth string
	userinfoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":    "108123",
			"email": "u@example.com",
			"name":  "Test User",
		})
	}))
	defer userinfoSrv.Close()

	e := auth.NewExchangerEndpoints("client-id", "client-secret", tokenSrv.URL, userinfoSrv.URL)
	session, err := e.Exchange(context.Background(), "auth-code", "https://app.example.com/cb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tokenBody["code"] != "auth-code" ||
		tokenBody["client_id"] != "client-id" ||
		tokenBody["client_secret"] != "client-secret" ||
		tokenBody["redirect_uri"] != "https://app.example.com/cb" ||
		tokenBody["grant_type"] != "authorization_code" {
		t.Errorf("token request body = %v", tokenBody)
	}
	if !strings.HasPrefix(gotAuth, "Bearer ya29.access") {
		t.Errorf("userinfo auth header = %q; want the access token", gotAuth)
	}

	// The session's bearer token is the ID token: that is what the verifier
	// can validate on later requests.
	if session.AccessToken != "eyJ.id.token" {
		t.Errorf("session token = %q; want the ID token", session.AccessToken)
	}
	if session.User.Email != "u@example.com" {
		t.Errorf("session user = %+v", session.User)
	}
}

func TestExchanger_RejectedCode(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
	}))
	defer tokenSrv.Close()

	e := auth.NewExchangerEndpoints("id", "secret", tokenSrv.URL, "http://unused.invalid")
	if _, err := e.Exchange(context.Background(), "stale-code", ""); err == nil {
		t.Error("expected an error for a rejected authorization code")
	}
}

func TestExchanger_MissingTokens(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "only-access"})
	}))
	defer tokenSrv.Close()

	e := auth.NewExchangerEndpoints("id", "secret", tokenSrv.URL, "http://unused.invalid")
	if _, err := e.Exchange(context.Background(), "code", ""); err == nil {
		t.Error("expected an error when the ID token is missing")
	}
}
