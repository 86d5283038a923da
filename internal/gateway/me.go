package gateway

import (
	"net/http"
)

// handleMe returns the identity claims the auth provider reported for the
// current session. No upstream call is made.
func (g *Gateway) handleMe(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)

	sess, err := g.authenticate(r, Route{Name: "me"}, reqID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgUnauthorized, reqID)
		return
	}

	w.Header().Set(HeaderRequestID, reqID)
	writeJSON(w, http.StatusOK, sess.Claims)
}
