// Package auth verifies Google ID tokens and performs the OAuth
// authorization-code exchange. Token verification is the trust boundary:
// every offer endpoint expects a bearer token that resolves to a Google
// account before the store is touched.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// GoogleTokeninfoURL is Google's ID-token introspection endpoint.
const GoogleTokeninfoURL = "https://www.googleapis.com/oauth2/v3/tokeninfo"

// ErrInvalidToken is returned when a bearer token is missing a subject,
// expired, or rejected by Google.
var ErrInvalidToken = errors.New("invalid or expired token")

// User is the identity attached to a verified request.
type User struct {
	// ID is the stable Google subject identifier, used as the owner key for
	// stored offers.
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Verifier validates a bearer token and resolves it to a user.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// GoogleVerifier checks ID tokens against Google's tokeninfo endpoint.
type GoogleVerifier struct {
	http     *resty.Client
	endpoint string
}

// NewGoogleVerifier creates a verifier against the given tokeninfo endpoint.
// Pass GoogleTokeninfoURL outside of tests.
func NewGoogleVerifier(endpoint string) *GoogleVerifier {
	return &GoogleVerifier{
		http:     resty.New().SetTimeout(10 * time.Second),
		endpoint: endpoint,
	}
}

// Verify implements Verifier. A transport failure is returned as-is so
// callers can distinguish an unreachable verifier from a bad token.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*User, error) {
	var info struct {
		Sub     string `json:"sub"`
		UserID  string `json:"user_id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
		Error   string `json:"error"`
	}

	resp, err := v.http.R().
		SetContext(ctx).
		SetQueryParam("id_token", token).
		SetResult(&info).
		Get(v.endpoint)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request: %w", err)
	}
	if resp.IsError() || info.Error != "" {
		return nil, ErrInvalidToken
	}

	id := info.Sub
	if id == "" {
		id = info.UserID
	}
	if id == "" {
		return nil, ErrInvalidToken
	}
	return &User{ID: id, Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}
