package handlers

import (
	"context"
	"net/http"
	"time"

	"stitchpay/internal/config"
	"stitchpay/internal/middleware"
	"stitchpay/internal/models"
	"stitchpay/internal/presence"
	"stitchpay/internal/services"
	"stitchpay/internal/store"
	"stitchpay/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	return fn(nil)
}

type stubAccounts struct {
	createFn        func(ctx context.Context, tx store.Execer, account models.Account) error
	getByIDFn       func(ctx context.Context, accountID string) (models.Account, error)
	getByMobileFn   func(ctx context.Context, mobile string) (models.Account, error)
	setCodeFn       func(ctx context.Context, mobile, code string) error
	verifyFn        func(ctx context.Context, mobile, code string) error
	historyFn       func(ctx context.Context, accountID string) ([]models.HistoryEntry, error)
	notificationsFn func(ctx context.Context, accountID string) ([]models.Notification, error)
	markReadFn      func(ctx context.Context, accountID string) (int64, error)
}

func (s *stubAccounts) Create(ctx context.Context, tx store.Execer, account models.Account) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, account)
}

func (s *stubAccounts) GetByID(ctx context.Context, accountID string) (models.Account, error) {
	if s.getByIDFn == nil {
		return models.Account{}, store.ErrAccountNotFound
	}
	return s.getByIDFn(ctx, accountID)
}

func (s *stubAccounts) GetByMobile(ctx context.Context, mobile string) (models.Account, error) {
	if s.getByMobileFn == nil {
		return models.Account{}, store.ErrAccountNotFound
	}
	return s.getByMobileFn(ctx, mobile)
}

func (s *stubAccounts) SetVerificationCode(ctx context.Context, mobile, code string) error {
	if s.setCodeFn == nil {
		return nil
	}
	return s.setCodeFn(ctx, mobile, code)
}

func (s *stubAccounts) Verify(ctx context.Context, mobile, code string) error {
	if s.verifyFn == nil {
		return nil
	}
	return s.verifyFn(ctx, mobile, code)
}

func (s *stubAccounts) History(ctx context.Context, accountID string) ([]models.HistoryEntry, error) {
	if s.historyFn == nil {
		return nil, nil
	}
	return s.historyFn(ctx, accountID)
}

func (s *stubAccounts) Notifications(ctx context.Context, accountID string) ([]models.Notification, error) {
	if s.notificationsFn == nil {
		return nil, nil
	}
	return s.notificationsFn(ctx, accountID)
}

func (s *stubAccounts) MarkNotificationsRead(ctx context.Context, accountID string) (int64, error) {
	if s.markReadFn == nil {
		return 0, nil
	}
	return s.markReadFn(ctx, accountID)
}

type stubTransactions struct {
	listFn func(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, error)
}

func (s *stubTransactions) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, accountID, limit, offset)
}

type stubTransferService struct {
	transferFn func(ctx context.Context, req services.TransferRequest) (models.Transaction, error)
}

func (s *stubTransferService) Transfer(ctx context.Context, req services.TransferRequest) (models.Transaction, error) {
	if s.transferFn == nil {
		return models.Transaction{}, nil
	}
	return s.transferFn(ctx, req)
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:         "test",
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		AllowedOrigins: "*",
	}
}

type testEnv struct {
	accounts     *stubAccounts
	transactions *stubTransactions
	service      *stubTransferService
	tracker      *presence.Tracker
	router       http.Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		accounts:     &stubAccounts{},
		transactions: &stubTransactions{},
		service:      &stubTransferService{},
		tracker:      presence.NewTracker(),
	}
	handler := New(
		fakeTxRunner{},
		testConfig(),
		env.accounts,
		env.transactions,
		env.tracker,
		env.service,
		websocket.NewHub(),
		middleware.NewLoginLimiter(1000),
		http.NotFoundHandler(),
	)
	env.router = handler.Routes()
	return env
}
