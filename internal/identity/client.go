// Package identity talks to the hosted auth provider (the Identity Store).
// The provider is the system of record for accounts; this service only
// forwards credentials and verifies the access tokens it issues.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pol60/bastshin-sessions/internal/config"
	apperrors "github.com/pol60/bastshin-sessions/internal/errors"
	"github.com/pol60/bastshin-sessions/internal/model"
)

// Store is the boundary the rest of the service sees.
type Store interface {
	SignInWithPassword(ctx context.Context, email, password string) (*TokenPair, error)
	SignOut(ctx context.Context, accessToken string) error
	OAuthURL(provider, redirectTo string) string
}

type TokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         *model.User `json:"user"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: config.IdentityRequestTimeout},
	}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*TokenPair, error) {
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Identity(err)
	}
	c.setHeaders(req, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Identity(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return nil, apperrors.Unauthorized("Invalid email or password")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Identity(fmt.Errorf("sign in: unexpected status %d", resp.StatusCode))
	}

	var pair TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return nil, apperrors.Identity(fmt.Errorf("decode token response: %w", err))
	}
	if pair.User == nil || pair.User.ID == "" {
		return nil, apperrors.Identity(fmt.Errorf("token response missing user"))
	}

	return &pair, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logout", nil)
	if err != nil {
		return apperrors.Identity(err)
	}
	c.setHeaders(req, accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Identity(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// Sign-out is best effort: a dead token is as signed out as it gets.
	if resp.StatusCode >= http.StatusInternalServerError {
		return apperrors.Identity(fmt.Errorf("sign out: unexpected status %d", resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		log.Debug().Int("status", resp.StatusCode).Msg("identity sign-out rejected token")
	}

	return nil
}

// OAuthURL builds the provider redirect the storefront sends the browser to.
func (c *Client) OAuthURL(provider, redirectTo string) string {
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.baseURL + "/authorize?" + q.Encode()
}

func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}
