package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"stitchpay/internal/auth"
	"stitchpay/internal/middleware"
	"stitchpay/internal/models"
	"stitchpay/internal/money"
	"stitchpay/internal/store"
	"stitchpay/internal/validator"
	"stitchpay/internal/verification"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type registerRequest struct {
	DisplayName string `json:"display_name"`
	Mobile      string `json:"mobile"`
	Password    string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateDisplayName(req.DisplayName); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateMobile(req.Mobile); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidatePassword(req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	digest, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to secure password")
		return
	}
	account := models.Account{
		ID:               "til-t." + uuid.NewString(),
		Mobile:           req.Mobile,
		DisplayName:      req.DisplayName,
		CredentialDigest: digest,
		Balance:          0,
		Verified:         false,
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.accounts.Create(r.Context(), tx, account)
	})
	if errors.Is(err, store.ErrDuplicateAccount) {
		respondError(w, http.StatusConflict, "mobile already registered")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"id":           account.ID,
		"mobile":       account.Mobile,
		"display_name": account.DisplayName,
		"verified":     false,
	})
}

func (h *Handler) GenerateVerificationCode(w http.ResponseWriter, r *http.Request) {
	mobile := chi.URLParam(r, "mobile")
	code, err := verification.NewCode()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate code")
		return
	}
	if err := h.accounts.SetVerificationCode(r.Context(), mobile, code); err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to store code")
		return
	}
	// TODO: deliver the code over SMS instead of returning it.
	respondJSON(w, http.StatusOK, map[string]string{"code": code})
}

type verifyRequest struct {
	Code string `json:"code"`
}

func (h *Handler) VerifyAccount(w http.ResponseWriter, r *http.Request) {
	mobile := chi.URLParam(r, "mobile")
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}
	if err := h.accounts.Verify(r.Context(), mobile, req.Code); err != nil {
		if errors.Is(err, store.ErrCodeMismatch) {
			respondError(w, http.StatusBadRequest, "verification code mismatch")
			return
		}
		respondError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

// requireOwnOnline gates balance and history reads: the caller must be the
// account owner and the account must be online.
func (h *Handler) requireOwnOnline(w http.ResponseWriter, r *http.Request) (string, bool) {
	accountID := chi.URLParam(r, "id")
	callerID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	if callerID != accountID {
		respondError(w, http.StatusForbidden, "not your account")
		return "", false
	}
	if !h.presence.IsOnline(accountID) {
		respondError(w, http.StatusForbidden, "you are not logged in")
		return "", false
	}
	return accountID, true
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.requireOwnOnline(w, r)
	if !ok {
		return
	}
	account, err := h.accounts.GetByID(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load account")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"balance":      account.Balance,
		"balance_text": money.FormatMinor(account.Balance),
	})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.requireOwnOnline(w, r)
	if !ok {
		return
	}
	history, err := h.accounts.History(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load history")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.requireOwnOnline(w, r)
	if !ok {
		return
	}
	notifications, err := h.accounts.Notifications(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *Handler) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.requireOwnOnline(w, r)
	if !ok {
		return
	}
	updated, err := h.accounts.MarkNotificationsRead(r.Context(), accountID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update notifications")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}
