package handlers

import (
	"net/http"

	"stitchpay/internal/auth"
	"stitchpay/internal/websocket"
)

func (h *Handler) ListOnline(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"online": h.presence.Online()})
}

// WSUpdates upgrades to a websocket that receives balance updates for the
// token's account. The token rides in the query string because browser
// websocket clients cannot set headers.
func (h *Handler) WSUpdates(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.ParseToken(h.cfg.JWTSecret, r.URL.Query().Get("token"))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
