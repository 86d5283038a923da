package gateway

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// HeaderRequestID carries the correlation identifier on both legs of a
// proxied call and on the response to the client.
const HeaderRequestID = "X-Request-ID"

// requestID returns the inbound correlation id, generating a fresh one when
// the header is absent or blank.
func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(HeaderRequestID)); id != "" {
		return id
	}
	return uuid.New().String()
}

// finalRequestID prefers the id the upstream echoed back: once the upstream
// has seen the request, its id is authoritative for cross-system tracing.
func finalRequestID(local string, upstream http.Header) string {
	if upstream == nil {
		return local
	}
	if id := strings.TrimSpace(upstream.Get(HeaderRequestID)); id != "" {
		return id
	}
	return local
}
