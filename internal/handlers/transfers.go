package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"stitchpay/internal/middleware"
	"stitchpay/internal/money"
	"stitchpay/internal/services"
)

type transferRequest struct {
	ReceiverID string `json:"receiver_id"`
	Amount     string `json:"amount"`
}

// Transfer always answers a well-formed request with the transaction record;
// business rejections are carried in its outcome, not as an HTTP error.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	senderID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.ReceiverID == "" {
		respondError(w, http.StatusBadRequest, "receiver_id is required")
		return
	}
	amount, err := money.ParseMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	txn, err := h.service.Transfer(r.Context(), services.TransferRequest{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Amount:     amount,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "transfer failed")
		return
	}
	respondJSON(w, http.StatusOK, txn)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit := queryInt(r, "limit", 50, 200)
	offset := queryInt(r, "offset", 0, 1<<31-1)
	transactions, err := h.transactions.ListByAccount(r.Context(), accountID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

func queryInt(r *http.Request, key string, fallback, max int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	if parsed > max {
		return max
	}
	return parsed
}
