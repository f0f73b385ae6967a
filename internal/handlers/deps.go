package handlers

import (
	"context"

	"stitchpay/internal/models"
	"stitchpay/internal/presence"
	"stitchpay/internal/services"
	"stitchpay/internal/store"
)

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, account models.Account) error
	GetByID(ctx context.Context, accountID string) (models.Account, error)
	GetByMobile(ctx context.Context, mobile string) (models.Account, error)
	SetVerificationCode(ctx context.Context, mobile, code string) error
	Verify(ctx context.Context, mobile, code string) error
	History(ctx context.Context, accountID string) ([]models.HistoryEntry, error)
	Notifications(ctx context.Context, accountID string) ([]models.Notification, error)
	MarkNotificationsRead(ctx context.Context, accountID string) (int64, error)
}

type TransactionStore interface {
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, error)
}

type TransferService interface {
	Transfer(ctx context.Context, req services.TransferRequest) (models.Transaction, error)
}

type PresenceTracker interface {
	MarkOnline(accountID string)
	MarkOffline(accountID string)
	IsOnline(accountID string) bool
	Online() []presence.Session
}
