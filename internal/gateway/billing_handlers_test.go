package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/complyops/compliance-gateway/internal/config"
	"github.com/complyops/compliance-gateway/internal/session"
)

func TestCheckoutRequiresSession(t *testing.T) {
	g := newTestGateway(testConfig(""), &fakeSessions{err: session.ErrNoSession}, nil, config.BillingConfig{})

	rec := doRequest(g, "POST", "/api/billing/checkout", `{"org_id":"org-1","plan":"pro"}`)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", gjson.Get(rec.Body.String(), "message").Str)
}

func TestCheckoutValidation(t *testing.T) {
	g := newTestGateway(testConfig(""), authedSessions(), nil, config.BillingConfig{})

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing org", `{"plan":"pro"}`, "org_id is required"},
		{"missing plan", `{"org_id":"org-1"}`, "plan must be one of: pro, business"},
		{"free is not purchasable", `{"org_id":"org-1","plan":"free"}`, "plan must be one of: pro, business"},
		{"unknown plan", `{"org_id":"org-1","plan":"enterprise"}`, "plan must be one of: pro, business"},
		{"invalid JSON", `{"org`, "request body must be valid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(g, "POST", "/api/billing/checkout", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, gjson.Get(rec.Body.String(), "message").Str)
		})
	}
}

func TestCheckoutNonMemberIsForbidden(t *testing.T) {
	store := newMemberStore() // user-1 is not a member of anything
	g := newTestGateway(testConfig(""), authedSessions(), store, config.BillingConfig{
		StripeSecretKey: "sk_test_abc",
		ProPriceID:      "price_pro",
		BusinessPriceID: "price_biz",
	})

	rec := doRequest(g, "POST", "/api/billing/checkout", `{"org_id":"org-1","plan":"pro"}`)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not a member of this organization", gjson.Get(rec.Body.String(), "message").Str)
	assert.Empty(t, store.customers, "no billing customer may be created for a non-member")
}

func TestCheckoutUnconfiguredBilling(t *testing.T) {
	store := newMemberStore()
	store.addMember("org-1", "user-1")
	g := newTestGateway(testConfig(""), authedSessions(), store, config.BillingConfig{})

	rec := doRequest(g, "POST", "/api/billing/checkout", `{"org_id":"org-1","plan":"pro"}`)

	require.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "Billing is not configured", gjson.Get(rec.Body.String(), "message").Str)
}

func TestPortalNonMemberIsForbidden(t *testing.T) {
	g := newTestGateway(testConfig(""), authedSessions(), newMemberStore(), config.BillingConfig{
		StripeSecretKey: "sk_test_abc",
		ProPriceID:      "price_pro",
		BusinessPriceID: "price_biz",
	})

	rec := doRequest(g, "POST", "/api/billing/portal", `{"org_id":"org-1"}`)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBillingStatusRequiresOrgID(t *testing.T) {
	g := newTestGateway(testConfig(""), authedSessions(), nil, config.BillingConfig{})

	rec := doRequest(g, "GET", "/api/billing/status", "")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "org_id is required", gjson.Get(rec.Body.String(), "message").Str)
}

func TestBillingStatusForMemberWithoutCustomer(t *testing.T) {
	store := newMemberStore()
	store.addMember("org-1", "user-1")
	g := newTestGateway(testConfig(""), authedSessions(), store, config.BillingConfig{})

	rec := doRequest(g, "GET", "/api/billing/status?org_id=org-1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "free", gjson.Get(body, "plan").Str)
	assert.Equal(t, "none", gjson.Get(body, "status").Str)
	assert.False(t, gjson.Get(body, "features.integrations").Bool())
	assert.EqualValues(t, 5, gjson.Get(body, "features.max_sources").Int())
}

func TestBillingStatusNonMember(t *testing.T) {
	g := newTestGateway(testConfig(""), authedSessions(), newMemberStore(), config.BillingConfig{})

	rec := doRequest(g, "GET", "/api/billing/status?org_id=org-1", "")

	require.Equal(t, http.StatusForbidden, rec.Code)
}
