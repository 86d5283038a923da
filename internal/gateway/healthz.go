package gateway

import (
	"context"
	"io"
	"net/http"

	"github.com/complyops/compliance-gateway/internal/config"
)

const routeHealthz = "healthz"

// healthzEnvelope is the probe's failure shape. It predates the uniform
// {message, requestId} envelope and monitoring systems depend on the "error"
// key, so it stays.
type healthzEnvelope struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// handleHealthz probes the upstream API. The contract is binary: 200 with the
// upstream's own health JSON, or 502 {"error":"API unreachable"}. The probe
// needs no session and keeps a short deadline so orchestrators get a fast
// answer when the upstream is down.
func (g *Gateway) handleHealthz(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)

	if !g.cfg.UpstreamConfigured() {
		g.healthzDown(w, reqID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.Upstream.HealthzTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.Upstream.BaseURL+"/api/v1/healthz", nil)
	if err != nil {
		g.healthzDown(w, reqID)
		return
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set(HeaderRequestID, reqID)

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn().Err(err).Str("request_id", reqID).Msg("health probe failed")
		g.healthzDown(w, reqID)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxResponseSize))
	if err != nil || resp.StatusCode >= 400 {
		g.healthzDown(w, finalRequestID(reqID, resp.Header))
		return
	}

	g.metrics.CountRequest(routeHealthz, http.StatusOK)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set(HeaderRequestID, finalRequestID(reqID, resp.Header))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// healthzDown writes the probe's 502 envelope, id in header and body both.
func (g *Gateway) healthzDown(w http.ResponseWriter, reqID string) {
	g.metrics.CountRequest(routeHealthz, http.StatusBadGateway)
	w.Header().Set(HeaderRequestID, reqID)
	writeJSON(w, http.StatusBadGateway, healthzEnvelope{Error: msgHealthzUnreached, RequestID: reqID})
}
