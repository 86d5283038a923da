package gateway

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/complyops/compliance-gateway/internal/billing"
	"github.com/complyops/compliance-gateway/internal/config"
	"github.com/complyops/compliance-gateway/internal/session"
)

// redirectEnvelope carries a Stripe redirect URL back to the browser.
type redirectEnvelope struct {
	URL string `json:"url"`
}

// handleCheckout starts a subscription checkout for an org the caller
// belongs to and returns the redirect URL.
func (g *Gateway) handleCheckout(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)

	sess, err := g.authenticate(r, Route{Name: "billing-checkout"}, reqID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized, reqID)
		return
	}

	body, verr := g.readBillingBody(w, r)
	if verr != nil {
		writeError(w, http.StatusBadRequest, verr.Error(), reqID)
		return
	}

	orgID := strings.TrimSpace(gjson.GetBytes(body, "org_id").Str)
	if orgID == "" {
		writeError(w, http.StatusBadRequest, "org_id is required", reqID)
		return
	}
	plan, ok := billing.ParsePlan(strings.TrimSpace(gjson.GetBytes(body, "plan").Str))
	if !ok {
		writeError(w, http.StatusBadRequest, "plan must be one of: pro, business", reqID)
		return
	}

	url, err := g.billing.Checkout(r.Context(), sess.Claims.UserID, sess.Claims.Email, orgID, plan)
	if err != nil {
		g.writeBillingError(w, sess, reqID, "checkout", err)
		return
	}

	w.Header().Set(HeaderRequestID, reqID)
	writeJSON(w, http.StatusOK, redirectEnvelope{URL: url})
}

// handlePortal returns a customer-portal redirect URL for an org the caller
// belongs to.
func (g *Gateway) handlePortal(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)

	sess, err := g.authenticate(r, Route{Name: "billing-portal"}, reqID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized, reqID)
		return
	}

	body, verr := g.readBillingBody(w, r)
	if verr != nil {
		writeError(w, http.StatusBadRequest, verr.Error(), reqID)
		return
	}

	orgID := strings.TrimSpace(gjson.GetBytes(body, "org_id").Str)
	if orgID == "" {
		writeError(w, http.StatusBadRequest, "org_id is required", reqID)
		return
	}

	url, err := g.billing.Portal(r.Context(), sess.Claims.UserID, sess.Claims.Email, orgID)
	if err != nil {
		g.writeBillingError(w, sess, reqID, "portal", err)
		return
	}

	w.Header().Set(HeaderRequestID, reqID)
	writeJSON(w, http.StatusOK, redirectEnvelope{URL: url})
}

// handleBillingStatus returns the org's plan, subscription state, and
// entitlements. refresh=true bypasses the memoized status.
func (g *Gateway) handleBillingStatus(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)

	sess, err := g.authenticate(r, Route{Name: "billing-status"}, reqID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized, reqID)
		return
	}

	orgID := strings.TrimSpace(r.URL.Query().Get("org_id"))
	if orgID == "" {
		writeError(w, http.StatusBadRequest, "org_id is required", reqID)
		return
	}
	refresh := r.URL.Query().Get("refresh") == "true"

	status, err := g.billing.Status(r.Context(), sess.Claims.UserID, orgID, refresh)
	if err != nil {
		g.writeBillingError(w, sess, reqID, "status", err)
		return
	}

	w.Header().Set(HeaderRequestID, reqID)
	writeJSON(w, http.StatusOK, status)
}

func (g *Gateway) readBillingBody(w http.ResponseWriter, r *http.Request) ([]byte, *validationError) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, config.MaxRequestBodySize))
	if err != nil {
		return nil, invalidf("request body is too large or unreadable")
	}
	if len(data) == 0 {
		data = []byte("{}")
	}
	if !gjson.ValidBytes(data) {
		return nil, invalidf("request body must be valid JSON")
	}
	return data, nil
}

// writeBillingError maps billing-service failures onto the error taxonomy:
// non-members get 403, missing Stripe configuration gets 501, and provider
// failures get 502 with a generic message.
func (g *Gateway) writeBillingError(w http.ResponseWriter, sess *session.Session, reqID, action string, err error) {
	switch {
	case errors.Is(err, billing.ErrNotMember):
		writeError(w, http.StatusForbidden, msgForbidden, reqID)
	case errors.Is(err, billing.ErrNotConfigured):
		writeError(w, http.StatusNotImplemented, msgBillingDisabled, reqID)
	default:
		g.log.Error().Err(err).Str("action", action).Str("user_id", sess.Claims.UserID).
			Str("request_id", reqID).Msg("billing action failed")
		writeError(w, http.StatusBadGateway, msgBillingFailed, reqID)
	}
}
