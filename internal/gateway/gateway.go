// Package gateway is the authenticated proxy between the browser and the
// compliance API: session resolution, request validation, upstream dispatch,
// and error normalization live here.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/complyops/compliance-gateway/internal/billing"
	"github.com/complyops/compliance-gateway/internal/config"
	"github.com/complyops/compliance-gateway/internal/evidence"
	"github.com/complyops/compliance-gateway/internal/monitoring"
	"github.com/complyops/compliance-gateway/internal/session"
)

// SessionResolver validates browser credentials against the auth provider.
type SessionResolver interface {
	Configured() bool
	Resolve(r *http.Request) (*session.Session, error)
	CheckConfig(ctx context.Context) error
}

// Presigner mints direct-to-storage evidence upload URLs. When nil, the
// evidence upload-url route proxies to the upstream API instead.
type Presigner interface {
	UploadURL(ctx context.Context, taskID, filename, contentType string) (*evidence.UploadTarget, error)
}

// Gateway proxies authenticated API traffic and serves the few local
// endpoints (health, identity, billing) that never reach the upstream.
type Gateway struct {
	cfg      *config.Config
	sessions SessionResolver
	billing  *billing.Service
	presign  Presigner
	metrics  *monitoring.Metrics
	client   *http.Client
	log      zerolog.Logger
}

// Option configures optional Gateway collaborators.
type Option func(*Gateway)

// WithHTTPClient overrides the upstream HTTP client. Tests use this to point
// the gateway at an httptest server with a short-dial transport.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithPresigner enables local evidence upload URLs.
func WithPresigner(p Presigner) Option {
	return func(g *Gateway) { g.presign = p }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// New builds a Gateway. Per-request deadlines come from route descriptors,
// so the shared client carries no timeout of its own.
func New(cfg *config.Config, sessions SessionResolver, billingSvc *billing.Service, log zerolog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		cfg:      cfg,
		sessions: sessions,
		billing:  billingSvc,
		client:   &http.Client{},
		log:      log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Handler registers every route on a fresh mux. Proxy routes are data-driven;
// the handful of local endpoints get dedicated handlers.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthz", g.handleHealthz)
	mux.HandleFunc("GET /api/me", g.handleMe)
	if g.cfg.Debug.AuthCheck {
		mux.HandleFunc("GET /api/debug/auth-check", g.handleAuthCheck)
	}

	mux.HandleFunc("POST /api/billing/checkout", g.handleCheckout)
	mux.HandleFunc("POST /api/billing/portal", g.handlePortal)
	mux.HandleFunc("GET /api/billing/status", g.handleBillingStatus)

	for _, rt := range Routes() {
		handler := g.proxyHandler(rt)
		if rt.Name == routeEvidenceUploadURL && g.presign != nil {
			handler = g.evidenceHandler(rt)
		}
		mux.HandleFunc(rt.Method+" "+rt.Pattern, handler)
	}

	return mux
}

// routeTimeout resolves the effective upstream deadline for a route. The
// requeue action gets its own configurable window; everything else uses the
// route override or the shared default.
func (g *Gateway) routeTimeout(rt Route) time.Duration {
	if rt.Name == routeNotificationsRequeue {
		return g.cfg.Upstream.RequeueTimeout
	}
	if rt.Timeout > 0 {
		return rt.Timeout
	}
	return g.cfg.Upstream.Timeout
}
