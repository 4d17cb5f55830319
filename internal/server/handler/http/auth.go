package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/offersync/offersync/internal/auth"
)

// AuthExchanger defines the OAuth operation required by the auth handler.
type AuthExchanger interface {
	// Exchange trades an authorization code for a session.
	Exchange(ctx context.Context, code, redirectURI string) (*auth.Session, error)
}

// AuthHandler handles the OAuth callback.
type AuthHandler struct {
	Exchanger AuthExchanger
}

// Callback handles POST /api/auth/callback. It exchanges a Google
// authorization code for tokens and returns the ID token (as access_token)
// plus the user profile. The endpoint is unauthenticated: it is how clients
// obtain their bearer token in the first place.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code        string `json:"code"`
		RedirectURI string `json:"redirect_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	session, err := h.Exchanger.Exchange(r.Context(), req.Code, req.RedirectURI)
	if err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			writeError(w, http.StatusInternalServerError,
				"Google OAuth not configured: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"access_token": session.AccessToken,
		"user":         session.User,
	})
}

// Health handles GET /api/health.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
