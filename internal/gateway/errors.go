// Error normalization - one consistent {message, requestId} contract for
// every failure the gateway can produce.
//
// Policy: server errors (5xx) from the upstream get a fixed generic message
// and status 502 - internal error text is never relayed to a browser. Client
// errors (4xx) keep their status, and their message is relayed when the
// upstream supplied a string "detail" or "message" field, since validation
// text is meant for the end user.
package gateway

import (
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/complyops/compliance-gateway/internal/utils"
)

// Fixed client-facing messages. Kept as constants so tests and docs agree.
const (
	msgUpstreamError    = "Upstream API error"
	msgUpstreamTimeout  = "Upstream API timed out"
	msgRequestFailed    = "Request failed"
	msgNotConfigured    = "Upstream API is not configured"
	msgUnauthorized     = "Authentication required"
	msgForbidden        = "Not a member of this organization"
	msgBillingDisabled  = "Billing is not configured"
	msgBillingFailed    = "Billing provider error"
	msgHealthzUnreached = "API unreachable"
)

// normalizeUpstreamError maps an upstream failure response to the status and
// message the client sees. body may be nil or non-JSON; both degrade cleanly.
func normalizeUpstreamError(status int, body []byte) (int, string) {
	if status >= 500 {
		return http.StatusBadGateway, msgUpstreamError
	}

	parsed := parseUpstreamBody(body)
	for _, field := range []string{"detail", "message"} {
		if v := parsed.Get(field); v.Type == gjson.String && v.Str != "" {
			return status, v.Str
		}
	}
	return status, msgRequestFailed
}

// parseUpstreamBody parses an upstream JSON body, degrading to an empty
// object on malformed input instead of surfacing a parse failure.
func parseUpstreamBody(body []byte) gjson.Result {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return gjson.Parse("{}")
	}
	return gjson.ParseBytes(body)
}

// writeError writes the uniform JSON error envelope. The correlation id goes
// in the header as well as the body, so error responses trace the same way
// successes do.
func writeError(w http.ResponseWriter, status int, message, reqID string) {
	if reqID != "" {
		w.Header().Set(HeaderRequestID, reqID)
	}
	writeJSON(w, status, ErrorEnvelope{Message: message, RequestID: reqID})
}

// writeJSON writes v as a JSON response body with no-store semantics.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := utils.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, msgRequestFailed, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
