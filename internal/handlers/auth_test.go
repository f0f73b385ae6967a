package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stitchpay/internal/auth"
	"stitchpay/internal/models"
)

func bearerToken(t *testing.T, accountID string) string {
	t.Helper()
	token, err := auth.GenerateToken("test-secret", accountID, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return "Bearer " + token
}

func verifiedAccount(t *testing.T, password string) models.Account {
	t.Helper()
	digest, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return models.Account{
		ID:               "til-t.1",
		Mobile:           "0779123456",
		DisplayName:      "Alice",
		CredentialDigest: digest,
		Balance:          1000,
		Verified:         true,
	}
}

func TestLoginSuccessMarksOnline(t *testing.T) {
	env := newTestEnv()
	account := verifiedAccount(t, "password123")
	env.accounts.getByMobileFn = func(_ context.Context, mobile string) (models.Account, error) {
		if mobile != "0779123456" {
			t.Fatalf("unexpected mobile: %s", mobile)
		}
		return account, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"mobile":"0779123456","password":"password123"}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Account map[string]any `json:"account"`
		Token   string         `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Token == "" {
		t.Fatalf("expected a session token")
	}
	if body.Account["id"] != "til-t.1" || body.Account["online"] != true {
		t.Fatalf("unexpected account payload: %#v", body.Account)
	}
	if body.Account["balance_text"] != "10.00" {
		t.Fatalf("unexpected balance text: %#v", body.Account["balance_text"])
	}
	if _, ok := body.Account["history"]; ok {
		t.Fatalf("login snapshot must not carry history")
	}
	if _, ok := body.Account["notifications"]; ok {
		t.Fatalf("login snapshot must not carry notifications")
	}
	if !env.tracker.IsOnline("til-t.1") {
		t.Fatalf("expected login to mark the account online")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv()
	account := verifiedAccount(t, "password123")
	env.accounts.getByMobileFn = func(context.Context, string) (models.Account, error) {
		return account, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"mobile":"0779123456","password":"wrong"}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env.tracker.IsOnline("til-t.1") {
		t.Fatalf("failed login must not mark the account online")
	}
}

func TestLoginUnverifiedAccount(t *testing.T) {
	env := newTestEnv()
	account := verifiedAccount(t, "password123")
	account.Verified = false
	env.accounts.getByMobileFn = func(context.Context, string) (models.Account, error) {
		return account, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"mobile":"0779123456","password":"password123"}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestLoginUnknownAccount(t *testing.T) {
	env := newTestEnv()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"mobile":"0770000000","password":"password123"}`))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	env := newTestEnv()
	env.tracker.MarkOnline("til-t.1")

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.Header.Set("Authorization", bearerToken(t, "til-t.1"))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("logout %d: expected 200, got %d", i+1, rec.Code)
		}
	}
	if env.tracker.IsOnline("til-t.1") {
		t.Fatalf("expected account offline after logout")
	}
}
