package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stitchpay/internal/db"
	"stitchpay/internal/models"
	"stitchpay/internal/money"
	"stitchpay/internal/store"

	"github.com/jmoiron/sqlx"
)

const (
	replayBatchSize = 50
	// replayMinAge keeps the reconciler off transfers whose coordinator is
	// still mid-flight.
	replayMinAge = 10 * time.Second
)

type PendingCreditStore interface {
	ListPendingCredits(ctx context.Context, olderThan time.Duration, limit int) ([]models.Transaction, error)
	MarkReceiverCredited(ctx context.Context, tx store.Execer, transactionID string) (int64, error)
}

// Reconciler closes the crash window between the sender debit and the
// receiver credit: any approved transaction whose credit never committed is
// replayed from the audit record. Replays are idempotent because the
// credited flag flips in the same database transaction as the credit.
type Reconciler struct {
	txRunner     db.TxRunner
	accounts     AccountStore
	ledger       LedgerLog
	transactions PendingCreditStore
	metrics      MetricsCollector
	interval     time.Duration
}

func NewReconciler(txRunner db.TxRunner, accounts AccountStore, ledger LedgerLog, transactions PendingCreditStore, metrics MetricsCollector, interval time.Duration) *Reconciler {
	return &Reconciler{
		txRunner:     txRunner,
		accounts:     accounts,
		ledger:       ledger,
		transactions: transactions,
		metrics:      metrics,
		interval:     interval,
	}
}

// Run replays pending credits on a fixed interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			replayed, err := r.ReplayPending(ctx)
			if err != nil {
				log.Printf("reconciler: replay pass failed: %v", err)
			}
			if replayed > 0 {
				log.Printf("reconciler: replayed %d pending credits", replayed)
			}
		}
	}
}

// ReplayPending credits every settled-enough pending transaction once and
// reports how many were replayed.
func (r *Reconciler) ReplayPending(ctx context.Context) (int, error) {
	pending, err := r.transactions.ListPendingCredits(ctx, replayMinAge, replayBatchSize)
	if err != nil {
		return 0, err
	}
	replayed := 0
	for _, txn := range pending {
		if err := r.replay(ctx, txn); err != nil {
			log.Printf("reconciler: transfer %s: %v", txn.ID, err)
			continue
		}
		replayed++
		r.metrics.RecordCreditReplay()
	}
	return replayed, nil
}

func (r *Reconciler) replay(ctx context.Context, txn models.Transaction) error {
	senderName := txn.SenderID
	if sender, err := r.accounts.GetByID(ctx, txn.SenderID); err == nil {
		senderName = sender.DisplayName
	}
	received := fmt.Sprintf("You received %s from %s [%s]", money.FormatMinor(txn.Amount), txn.SenderID, senderName)
	var lastErr error
	for attempt := 1; attempt <= casAttempts; attempt++ {
		receiver, err := r.accounts.GetByID(ctx, txn.ReceiverID)
		if err != nil {
			return err
		}
		err = r.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			rows, err := r.transactions.MarkReceiverCredited(ctx, tx, txn.ID)
			if err != nil {
				return err
			}
			if rows == 0 {
				// Already credited by the coordinator or another replayer.
				return errAlreadyCredited
			}
			if err := r.accounts.CompareAndSwapBalance(ctx, tx, store.BalanceAdjustment{
				AccountID: receiver.ID,
				Expected:  receiver.Balance,
				New:       receiver.Balance + txn.Amount,
			}); err != nil {
				return err
			}
			if err := r.ledger.AppendHistory(ctx, tx, receiver.ID, received, txn.ID); err != nil {
				return err
			}
			return r.ledger.AppendNotification(ctx, tx, receiver.ID, received)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, errAlreadyCredited) {
			return nil
		}
		lastErr = err
		if errors.Is(err, store.ErrBalanceConflict) {
			continue
		}
		return err
	}
	return lastErr
}

var errAlreadyCredited = errors.New("receiver already credited")
