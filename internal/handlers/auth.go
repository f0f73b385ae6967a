package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"stitchpay/internal/auth"
	"stitchpay/internal/middleware"
	"stitchpay/internal/store"
)

type loginRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	account, err := h.accounts.GetByMobile(r.Context(), req.Mobile)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			respondError(w, http.StatusNotFound, "account does not exist")
			return
		}
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !account.Verified {
		respondError(w, http.StatusForbidden, "not verified")
		return
	}
	if !auth.CheckPassword(account.CredentialDigest, req.Password) {
		respondError(w, http.StatusUnauthorized, "wrong password")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, account.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	h.presence.MarkOnline(account.ID)
	log.Printf("%s has logged in", account.DisplayName)
	respondJSON(w, http.StatusOK, map[string]any{
		"account": accountPayload(account, true),
		"token":   token,
	})
}

// Logout is idempotent: logging out an account that is already offline is a
// success, not an error.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.presence.MarkOffline(accountID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "offline"})
}
