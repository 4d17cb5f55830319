package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Google OAuth endpoints used by the code exchange.
const (
	GoogleTokenURL    = "https://oauth2.googleapis.com/token"
	GoogleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// ErrNotConfigured is returned when the Google OAuth client credentials are
// not set.
var ErrNotConfigured = errors.New("google oauth not configured")

// Session is the result of a successful code exchange. AccessToken carries
// the Google ID token, which clients present as the bearer token on offer
// requests since it is independently verifiable.
type Session struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Exchanger trades a Google authorization code for tokens and profile info.
type Exchanger struct {
	http         *resty.Client
	clientID     string
	clientSecret string
	tokenURL     string
	userinfoURL  string
}

// NewExchanger creates an Exchanger against Google's endpoints. Credentials
// may be empty, in which case Exchange fails with ErrNotConfigured.
func NewExchanger(clientID, clientSecret string) *Exchanger {
	return NewExchangerEndpoints(clientID, clientSecret, GoogleTokenURL, GoogleUserinfoURL)
}

// NewExchangerEndpoints is NewExchanger with endpoint overrides for tests.
func NewExchangerEndpoints(clientID, clientSecret, tokenURL, userinfoURL string) *Exchanger {
	return &Exchanger{
		http:         resty.New().SetTimeout(15 * time.Second),
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		userinfoURL:  userinfoURL,
	}
}

// Exchange trades the authorization code for tokens, fetches the user's
// profile, and returns a session whose access token is the ID token.
func (e *Exchanger) Exchange(ctx context.Context, code, redirectURI string) (*Session, error) {
	if e.clientID == "" || e.clientSecret == "" {
		return nil, ErrNotConfigured
	}

	var tokens struct {
		AccessToken string `json:"access_token"`
		IDToken     string `json:"id_token"`
	}
	resp, err := e.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"code":          code,
			"client_id":     e.clientID,
			"client_secret": e.clientSecret,
			"redirect_uri":  redirectURI,
			"grant_type":    "authorization_code",
		}).
		SetResult(&tokens).
		Post(e.tokenURL)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("token exchange rejected: %s", resp.Status())
	}
	if tokens.AccessToken == "" || tokens.IDToken == "" {
		return nil, errors.New("token exchange returned no tokens")
	}

	var user User
	resp, err = e.http.R().
		SetContext(ctx).
		SetAuthToken(tokens.AccessToken).
		SetResult(&user).
		Get(e.userinfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("userinfo rejected: %s", resp.Status())
	}

	return &Session{AccessToken: tokens.IDToken, User: user}, nil
}
