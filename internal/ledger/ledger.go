// Package ledger appends per-account history and notification entries.
// Appends go through the account store inside the caller's database
// transaction so they share the durability boundary of that account's
// balance update. Each append touches one account only; the sender's and
// receiver's entries never mix.
package ledger

import (
	"context"

	"stitchpay/internal/models"
	"stitchpay/internal/store"

	"github.com/google/uuid"
)

type AccountStore interface {
	AppendHistory(ctx context.Context, tx store.Execer, entry models.HistoryEntry) error
	AppendNotification(ctx context.Context, tx store.Execer, notification models.Notification) error
}

type Log struct {
	accounts AccountStore
}

func NewLog(accounts AccountStore) *Log {
	return &Log{accounts: accounts}
}

func (l *Log) AppendHistory(ctx context.Context, tx store.Execer, accountID, message, transactionID string) error {
	return l.accounts.AppendHistory(ctx, tx, models.HistoryEntry{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		TransactionID: transactionID,
		Message:       message,
	})
}

func (l *Log) AppendNotification(ctx context.Context, tx store.Execer, accountID, message string) error {
	return l.accounts.AppendNotification(ctx, tx, models.Notification{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Message:   message,
	})
}
