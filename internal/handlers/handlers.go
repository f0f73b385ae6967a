package handlers

import (
	"encoding/json"
	"net/http"

	"stitchpay/internal/models"
	"stitchpay/internal/money"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// accountPayload is the login snapshot: history and notifications are never
// part of it, the client fetches those separately.
func accountPayload(account models.Account, online bool) map[string]any {
	return map[string]any{
		"id":           account.ID,
		"mobile":       account.Mobile,
		"display_name": account.DisplayName,
		"balance":      account.Balance,
		"balance_text": money.FormatMinor(account.Balance),
		"verified":     account.Verified,
		"online":       online,
	}
}
