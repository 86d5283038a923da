package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/complyops/compliance-gateway/internal/billing"
	"github.com/complyops/compliance-gateway/internal/config"
	"github.com/complyops/compliance-gateway/internal/session"
)

// fakeSessions is a canned SessionResolver.
type fakeSessions struct {
	sess       *session.Session
	err        error
	configured bool
	checkErr   error
}

func (f *fakeSessions) Configured() bool { return f.configured }

func (f *fakeSessions) Resolve(*http.Request) (*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sess, nil
}

func (f *fakeSessions) CheckConfig(context.Context) error { return f.checkErr }

func authedSessions() *fakeSessions {
	return &fakeSessions{
		configured: true,
		sess: &session.Session{
			Token:  "tok-123",
			Claims: session.Claims{UserID: "user-1", Email: "user@example.com"},
		},
	}
}

// memberStore is an in-memory billing.MembershipStore.
type memberStore struct {
	mu        sync.Mutex
	members   map[string]bool // orgID|userID
	customers map[string]string
}

func newMemberStore() *memberStore {
	return &memberStore{members: map[string]bool{}, customers: map[string]string{}}
}

func (m *memberStore) addMember(orgID, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[orgID+"|"+userID] = true
}

func (m *memberStore) IsMember(_ context.Context, orgID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[orgID+"|"+userID], nil
}

func (m *memberStore) CustomerID(_ context.Context, orgID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.customers[orgID], nil
}

func (m *memberStore) SaveCustomerID(_ context.Context, orgID, customerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[orgID] = customerID
	return nil
}

// spyUpstream records every request the gateway forwards.
type spyUpstream struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
	server   *httptest.Server
}

type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   []byte
}

func newSpyUpstream(handler http.HandlerFunc) *spyUpstream {
	s := &spyUpstream{handler: handler}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		query := map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  query,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		if s.handler != nil {
			s.handler(w, r)
		}
	}))
	return s
}

func (s *spyUpstream) Close() { s.server.Close() }

func (s *spyUpstream) URL() string { return s.server.URL }

func (s *spyUpstream) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *spyUpstream) Last() recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func testConfig(upstreamURL string) *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:        upstreamURL,
			Timeout:        2 * time.Second,
			HealthzTimeout: 500 * time.Millisecond,
			RequeueTimeout: time.Second,
		},
	}
}

// newTestGateway wires a gateway against a fake upstream and fake sessions.
func newTestGateway(cfg *config.Config, sessions SessionResolver, store billing.MembershipStore, billingCfg config.BillingConfig) *Gateway {
	if store == nil {
		store = newMemberStore()
	}
	svc := billing.NewService(store, billingCfg)
	return New(cfg, sessions, svc, zerolog.Nop())
}
