package gateway

import (
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/complyops/compliance-gateway/internal/config"
)

// evidenceHandler serves evidence upload URLs from the local presigner
// instead of proxying. The route schema stays identical to the proxy
// variant, so enabling the presigner changes the backend, not the contract.
func (g *Gateway) evidenceHandler(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := requestID(r)

		if _, err := g.authenticate(r, rt, reqID); err != nil {
			g.finish(rt, http.StatusUnauthorized)
			writeError(w, http.StatusUnauthorized, msgUnauthorized, reqID)
			return
		}

		taskID := strings.TrimSpace(r.PathValue("id"))
		if taskID == "" {
			g.badRequest(w, rt, reqID, invalidf("id is required"))
			return
		}

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, config.MaxRequestBodySize))
		if err != nil {
			g.badRequest(w, rt, reqID, invalidf("request body is too large or unreadable"))
			return
		}
		body, verr := validateBody(data, rt.Body)
		if verr != nil {
			g.badRequest(w, rt, reqID, verr)
			return
		}

		filename := gjson.GetBytes(body, "filename").Str
		contentType := gjson.GetBytes(body, "content_type").Str

		target, err := g.presign.UploadURL(r.Context(), taskID, filename, contentType)
		if err != nil {
			g.log.Error().Err(err).Str("route", rt.Name).Str("request_id", reqID).
				Msg("presigning upload URL failed")
			g.finish(rt, http.StatusInternalServerError)
			writeError(w, http.StatusInternalServerError, "Could not create upload URL", reqID)
			return
		}

		g.finish(rt, http.StatusOK)
		w.Header().Set(HeaderRequestID, reqID)
		writeJSON(w, http.StatusOK, target)
	}
}
