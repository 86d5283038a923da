package gateway

import (
	"net/http"
)

// authCheckResult reports auth-provider configuration health. It never
// carries the provider key itself, only whether one is present.
type authCheckResult struct {
	Configured bool   `json:"configured"`
	Reachable  bool   `json:"reachable"`
	Error      string `json:"error,omitempty"`
}

// handleAuthCheck validates auth-provider URL/key configuration. Registered
// only when the debug flag is on; it must never ship enabled.
func (g *Gateway) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	result := authCheckResult{Configured: g.sessions.Configured()}

	if err := g.sessions.CheckConfig(r.Context()); err != nil {
		result.Error = err.Error()
		writeJSON(w, http.StatusOK, result)
		return
	}

	result.Reachable = true
	writeJSON(w, http.StatusOK, result)
}
