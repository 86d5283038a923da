package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/complyops/compliance-gateway/internal/config"
)

// Dispatch failure classes. The proxy handler maps these to 504 and 502.
var (
	errUpstreamTimeout     = errors.New("upstream deadline exceeded")
	errUpstreamUnreachable = errors.New("upstream unreachable")
)

// upstreamResult is a fully-read upstream response. Bodies are buffered (and
// capped) before relay so a stalled upstream can never hold a client socket.
type upstreamResult struct {
	Status int
	Header http.Header
	Body   []byte
}

// dispatch sends one request to the upstream API and reads the response.
// The deadline is enforced through the context, so cancellation by the
// client propagates too.
func (g *Gateway) dispatch(ctx context.Context, rt Route, upstreamPath string, query url.Values, body []byte, token, reqID string) (*upstreamResult, error) {
	target := g.cfg.Upstream.BaseURL + upstreamPath
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, g.routeTimeout(rt))
	defer cancel()

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, rt.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", errUpstreamUnreachable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set(HeaderRequestID, reqID)
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			g.metrics.ObserveUpstreamError(rt.Name, "timeout")
			g.log.Warn().Str("route", rt.Name).Str("request_id", reqID).
				Dur("elapsed", time.Since(start)).Msg("upstream call timed out")
			return nil, errUpstreamTimeout
		}
		g.metrics.ObserveUpstreamError(rt.Name, "transport")
		g.log.Error().Err(err).Str("route", rt.Name).Str("request_id", reqID).
			Msg("upstream call failed")
		return nil, fmt.Errorf("%w: %v", errUpstreamUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxResponseSize))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			g.metrics.ObserveUpstreamError(rt.Name, "timeout")
			return nil, errUpstreamTimeout
		}
		g.metrics.ObserveUpstreamError(rt.Name, "transport")
		return nil, fmt.Errorf("%w: reading response: %v", errUpstreamUnreachable, err)
	}

	elapsed := time.Since(start)
	g.metrics.ObserveUpstream(rt.Name, resp.StatusCode, elapsed)

	if resp.StatusCode >= 400 {
		g.log.Warn().Str("route", rt.Name).Str("request_id", reqID).
			Int("status", resp.StatusCode).Dur("elapsed", elapsed).
			Str("body", truncate(string(data), config.MaxErrorBodyLogLen)).
			Msg("upstream returned error")
	} else {
		g.log.Debug().Str("route", rt.Name).Str("request_id", reqID).
			Int("status", resp.StatusCode).Dur("elapsed", elapsed).
			Msg("upstream call completed")
	}

	return &upstreamResult{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
