package gateway

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/complyops/compliance-gateway/internal/config"
	"github.com/complyops/compliance-gateway/internal/session"
)

// proxyHandler builds the handler for one route descriptor. Order is fixed:
// configuration check, then session, then validation, then dispatch. Nothing
// reaches the upstream until the request is fully vetted.
func (g *Gateway) proxyHandler(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := requestID(r)

		if !g.cfg.UpstreamConfigured() {
			g.finish(rt, http.StatusNotImplemented)
			writeError(w, http.StatusNotImplemented, msgNotConfigured, reqID)
			return
		}

		sess, err := g.authenticate(r, rt, reqID)
		if err != nil {
			g.finish(rt, http.StatusUnauthorized)
			writeError(w, http.StatusUnauthorized, msgUnauthorized, reqID)
			return
		}

		upstreamPath, verr := resolvePath(r, rt)
		if verr != nil {
			g.badRequest(w, rt, reqID, verr)
			return
		}
		query, verr := resolveQuery(r, rt)
		if verr != nil {
			g.badRequest(w, rt, reqID, verr)
			return
		}
		body, verr := g.readBody(w, r, rt)
		if verr != nil {
			g.badRequest(w, rt, reqID, verr)
			return
		}

		g.forward(w, r, rt, sess, reqID, upstreamPath, query, body)
	}
}

func (g *Gateway) badRequest(w http.ResponseWriter, rt Route, reqID string, verr *validationError) {
	g.finish(rt, http.StatusBadRequest)
	writeError(w, http.StatusBadRequest, verr.Error(), reqID)
}

// forward dispatches the vetted request and relays or normalizes the result.
func (g *Gateway) forward(w http.ResponseWriter, r *http.Request, rt Route, sess *session.Session, reqID, upstreamPath string, query url.Values, body []byte) {
	result, err := g.dispatch(r.Context(), rt, upstreamPath, query, body, sess.Token, reqID)
	if err != nil {
		status := http.StatusBadGateway
		message := msgUpstreamError
		if errors.Is(err, errUpstreamTimeout) {
			status = http.StatusGatewayTimeout
			message = msgUpstreamTimeout
		}
		g.finish(rt, status)
		writeError(w, status, message, reqID)
		return
	}

	finalID := finalRequestID(reqID, result.Header)

	if result.Status >= 400 {
		status, message := normalizeUpstreamError(result.Status, result.Body)
		g.finish(rt, status)
		writeError(w, status, message, finalID)
		return
	}

	contentType := result.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set(HeaderRequestID, finalID)
	w.WriteHeader(result.Status)
	_, _ = w.Write(result.Body)
	g.finish(rt, result.Status)
}

// authenticate resolves the caller's session. Every failure mode, including
// an unreachable auth provider, reads as unauthenticated; the distinction is
// logged but never exposed.
func (g *Gateway) authenticate(r *http.Request, rt Route, reqID string) (*session.Session, error) {
	sess, err := g.sessions.Resolve(r)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			g.log.Error().Err(err).Str("route", rt.Name).Str("request_id", reqID).
				Msg("session resolution failed")
		}
		return nil, err
	}
	return sess, nil
}

// resolvePath substitutes trimmed path values into the upstream template.
func resolvePath(r *http.Request, rt Route) (string, *validationError) {
	path := rt.Upstream
	for _, name := range rt.PathParams {
		value := strings.TrimSpace(r.PathValue(name))
		if value == "" {
			return "", invalidf("%s is required", name)
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(value))
	}
	return path, nil
}

// resolveQuery keeps only the declared query parameters, trimmed. Undeclared
// parameters are dropped rather than forwarded.
func resolveQuery(r *http.Request, rt Route) (url.Values, *validationError) {
	if len(rt.Query) == 0 {
		return nil, nil
	}
	in := r.URL.Query()
	out := url.Values{}
	for _, p := range rt.Query {
		value := strings.TrimSpace(in.Get(p.Name))
		if value == "" {
			if p.Required {
				return nil, invalidf("%s is required", p.Name)
			}
			continue
		}
		out.Set(p.Name, value)
	}
	return out, nil
}

// readBody reads and validates the request body per the route schema.
func (g *Gateway) readBody(w http.ResponseWriter, r *http.Request, rt Route) ([]byte, *validationError) {
	if rt.Method == http.MethodGet || rt.Method == http.MethodDelete {
		return nil, nil
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, config.MaxRequestBodySize))
	if err != nil {
		return nil, invalidf("request body is too large or unreadable")
	}
	return validateBody(data, rt.Body)
}

// finish records request-level metrics for one route outcome.
func (g *Gateway) finish(rt Route, status int) {
	g.metrics.CountRequest(rt.Name, status)
}
