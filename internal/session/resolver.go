// Package session resolves the caller's authenticated session.
//
// Sessions are owned by a third-party auth provider. The browser carries the
// access token in a cookie; the resolver validates it with one call to the
// provider's user endpoint and hands back the identity claims plus the bearer
// token for the upstream API. Tokens live for one request and are never
// logged or persisted.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoSession means the request carries no resolvable session. Handlers
// translate it to HTTP 401.
var ErrNoSession = errors.New("no active session")

// Claims are the identity fields the auth provider reports for a session.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
}

// Session is the resolved per-request session: the identity plus the bearer
// token used for the upstream call.
type Session struct {
	Token  string
	Claims Claims
}

// Resolver validates session cookies against the auth provider.
type Resolver struct {
	providerURL string
	publicKey   string
	cookieName  string
	httpClient  *http.Client
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.httpClient = c }
}

// NewResolver creates a session resolver for the given auth provider.
// providerURL is the provider base URL; publicKey is the provider's
// publishable API key sent alongside every validation call.
func NewResolver(providerURL, publicKey, cookieName string, timeout time.Duration, opts ...Option) *Resolver {
	r := &Resolver{
		providerURL: strings.TrimRight(providerURL, "/"),
		publicKey:   publicKey,
		cookieName:  cookieName,
		httpClient:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configured reports whether the provider URL and key are both set.
func (r *Resolver) Configured() bool {
	return r.providerURL != "" && r.publicKey != ""
}

// Resolve extracts the access token from the request and validates it with
// the auth provider. Any lookup failure is reported as ErrNoSession; callers
// must not distinguish "no cookie" from "stale token" in what they reveal.
func (r *Resolver) Resolve(req *http.Request) (*Session, error) {
	token := r.tokenFromRequest(req)
	if token == "" {
		return nil, ErrNoSession
	}
	if !r.Configured() {
		return nil, fmt.Errorf("auth provider not configured")
	}

	claims, err := r.lookupUser(req.Context(), token)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Claims: *claims}, nil
}

// tokenFromRequest prefers the session cookie; an explicit Authorization
// bearer header is accepted for non-browser clients.
func (r *Resolver) tokenFromRequest(req *http.Request) string {
	if cookie, err := req.Cookie(r.cookieName); err == nil {
		if v := strings.TrimSpace(cookie.Value); v != "" {
			return v
		}
	}
	auth := strings.TrimSpace(req.Header.Get("Authorization"))
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

func (r *Resolver) lookupUser(ctx context.Context, token string) (*Claims, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.providerURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("creating auth request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("apikey", r.publicKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading auth response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var claims Claims
		if err := json.Unmarshal(body, &claims); err != nil {
			return nil, fmt.Errorf("parsing auth response: %w", err)
		}
		if claims.UserID == "" {
			return nil, ErrNoSession
		}
		return &claims, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrNoSession
	default:
		return nil, fmt.Errorf("auth provider returned status %d", resp.StatusCode)
	}
}

// CheckConfig verifies provider URL/key configuration and reachability.
// Used by the debug-only auth-check endpoint.
func (r *Resolver) CheckConfig(ctx context.Context) error {
	if r.providerURL == "" {
		return fmt.Errorf("auth provider URL not set")
	}
	if r.publicKey == "" {
		return fmt.Errorf("auth provider key not set")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.providerURL+"/auth/v1/health", nil)
	if err != nil {
		return fmt.Errorf("creating health request: %w", err)
	}
	httpReq.Header.Set("apikey", r.publicKey)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("auth provider unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("auth provider returned status %d", resp.StatusCode)
	}
	return nil
}
