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
	"stitchpay/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// casAttempts bounds compare-and-swap retries before a transfer surfaces
// rejected_system_error.
const casAttempts = 4

type AccountStore interface {
	GetByID(ctx context.Context, accountID string) (models.Account, error)
	CompareAndSwapBalance(ctx context.Context, tx store.Execer, adj store.BalanceAdjustment) error
}

type LedgerLog interface {
	AppendHistory(ctx context.Context, tx store.Execer, accountID, message, transactionID string) error
	AppendNotification(ctx context.Context, tx store.Execer, accountID, message string) error
}

type TransactionStore interface {
	Record(ctx context.Context, tx store.Execer, txn models.Transaction) error
	MarkReceiverCredited(ctx context.Context, tx store.Execer, transactionID string) (int64, error)
}

type PresenceTracker interface {
	IsOnline(accountID string) bool
}

type MetricsCollector interface {
	RecordTransfer(outcome models.Outcome, duration time.Duration)
	RecordCreditReplay()
}

type UpdateHub interface {
	BroadcastBalance(accountID string, update websocket.BalanceUpdate)
}

type TransferService struct {
	txRunner     db.TxRunner
	accounts     AccountStore
	ledger       LedgerLog
	transactions TransactionStore
	presence     PresenceTracker
	metrics      MetricsCollector
	hub          UpdateHub
}

func NewTransferService(txRunner db.TxRunner, accounts AccountStore, ledger LedgerLog, transactions TransactionStore, presence PresenceTracker, metrics MetricsCollector, hub UpdateHub) *TransferService {
	return &TransferService{
		txRunner:     txRunner,
		accounts:     accounts,
		ledger:       ledger,
		transactions: transactions,
		presence:     presence,
		metrics:      metrics,
		hub:          hub,
	}
}

type TransferRequest struct {
	SenderID   string
	ReceiverID string
	Amount     int64
}

// Transfer runs one request to a terminal outcome. Business rejections come
// back as a Transaction value, not an error; the returned error is reserved
// for persistence faults where no outcome could be recorded.
//
// Approved transfers commit in two steps: the sender debit together with the
// audit record in one database transaction, then the receiver credit with
// the credited-flag flip in a second. A crash between the two leaves an
// approved-but-uncredited row for the reconciler to replay.
func (s *TransferService) Transfer(ctx context.Context, req TransferRequest) (models.Transaction, error) {
	start := time.Now()
	txn := models.Transaction{
		ID:         "transaction-" + uuid.NewString(),
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Amount:     req.Amount,
		CreatedAt:  start.UTC(),
	}

	// Malformed request: rejected before any persistence access, never
	// audited since no well-formed attempt existed.
	if req.Amount <= 0 {
		txn.Outcome = models.OutcomeRejectedSystemError
		s.metrics.RecordTransfer(txn.Outcome, time.Since(start))
		return txn, nil
	}

	for attempt := 1; attempt <= casAttempts; attempt++ {
		sender, err := s.accounts.GetByID(ctx, req.SenderID)
		if errors.Is(err, store.ErrAccountNotFound) {
			return s.reject(ctx, txn, models.OutcomeRejectedSenderOffline, start)
		}
		if err != nil {
			return models.Transaction{}, err
		}
		senderBefore := sender.Balance
		txn.SenderBalanceBefore = &senderBefore
		if !s.presence.IsOnline(req.SenderID) {
			return s.reject(ctx, txn, models.OutcomeRejectedSenderOffline, start)
		}

		receiver, err := s.accounts.GetByID(ctx, req.ReceiverID)
		if errors.Is(err, store.ErrAccountNotFound) {
			return s.reject(ctx, txn, models.OutcomeRejectedReceiverNotFound, start)
		}
		if err != nil {
			return models.Transaction{}, err
		}
		receiverBefore := receiver.Balance
		txn.ReceiverBalanceBefore = &receiverBefore

		if sender.Balance-req.Amount < 0 {
			return s.reject(ctx, txn, models.OutcomeRejectedInsufficientFunds, start)
		}

		senderAfter := sender.Balance - req.Amount
		receiverAfter := receiver.Balance + req.Amount
		txn.Outcome = models.OutcomeApproved
		txn.SenderBalanceAfter = &senderAfter
		txn.ReceiverBalanceAfter = &receiverAfter

		// Sender debit and the audit record share one transaction: once
		// the debit is durable, the intent to credit is durable too.
		err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			if err := s.accounts.CompareAndSwapBalance(ctx, tx, store.BalanceAdjustment{
				AccountID: sender.ID,
				Expected:  sender.Balance,
				New:       senderAfter,
			}); err != nil {
				return err
			}
			if err := s.transactions.Record(ctx, tx, txn); err != nil {
				return err
			}
			sent := fmt.Sprintf("You sent %s to %s [%s]", money.FormatMinor(req.Amount), receiver.ID, receiver.DisplayName)
			if err := s.ledger.AppendHistory(ctx, tx, sender.ID, sent, txn.ID); err != nil {
				return err
			}
			return s.ledger.AppendNotification(ctx, tx, sender.ID, sent)
		})
		if errors.Is(err, store.ErrBalanceConflict) {
			// Nothing committed; re-read both balances and revalidate.
			txn.SenderBalanceAfter = nil
			txn.ReceiverBalanceAfter = nil
			continue
		}
		if err != nil {
			return models.Transaction{}, err
		}

		if err := s.creditReceiver(ctx, txn, sender.DisplayName); err != nil {
			// The debit stands and the transaction row carries the intent;
			// the reconciler replays the credit out of band.
			log.Printf("transfer %s: receiver credit pending, left for reconciliation: %v", txn.ID, err)
		}
		s.metrics.RecordTransfer(txn.Outcome, time.Since(start))
		s.hub.BroadcastBalance(sender.ID, websocket.BalanceUpdate{
			AccountID:     sender.ID,
			Balance:       money.FormatMinor(senderAfter),
			TransactionID: txn.ID,
		})
		s.hub.BroadcastBalance(receiver.ID, websocket.BalanceUpdate{
			AccountID:     receiver.ID,
			Balance:       money.FormatMinor(receiverAfter),
			TransactionID: txn.ID,
		})
		return txn, nil
	}

	txn.SenderBalanceAfter = nil
	txn.ReceiverBalanceAfter = nil
	return s.reject(ctx, txn, models.OutcomeRejectedSystemError, start)
}

// creditReceiver retries the receiver-side compare-and-swap with freshly
// read balances. The debit already committed, so only the credit is retried.
func (s *TransferService) creditReceiver(ctx context.Context, txn models.Transaction, senderName string) error {
	received := fmt.Sprintf("You received %s from %s [%s]", money.FormatMinor(txn.Amount), txn.SenderID, senderName)
	var lastErr error
	for attempt := 1; attempt <= casAttempts; attempt++ {
		receiver, err := s.accounts.GetByID(ctx, txn.ReceiverID)
		if err != nil {
			return err
		}
		err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
			if err := s.accounts.CompareAndSwapBalance(ctx, tx, store.BalanceAdjustment{
				AccountID: receiver.ID,
				Expected:  receiver.Balance,
				New:       receiver.Balance + txn.Amount,
			}); err != nil {
				return err
			}
			rows, err := s.transactions.MarkReceiverCredited(ctx, tx, txn.ID)
			if err != nil {
				return err
			}
			if rows == 0 {
				// A reconciler replay won the race; roll back this credit.
				return store.ErrBalanceConflict
			}
			if err := s.ledger.AppendHistory(ctx, tx, receiver.ID, received, txn.ID); err != nil {
				return err
			}
			return s.ledger.AppendNotification(ctx, tx, receiver.ID, received)
		})
		if err == nil {
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

// reject records the terminal outcome in the audit log and returns the
// transaction to the caller. Balance-after fields stay null.
func (s *TransferService) reject(ctx context.Context, txn models.Transaction, outcome models.Outcome, start time.Time) (models.Transaction, error) {
	txn.Outcome = outcome
	txn.SenderBalanceAfter = nil
	txn.ReceiverBalanceAfter = nil
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.transactions.Record(ctx, tx, txn)
	})
	if err != nil {
		// Nothing was committed for a rejection, so an audit failure is a
		// plain persistence fault.
		return models.Transaction{}, err
	}
	s.metrics.RecordTransfer(outcome, time.Since(start))
	return txn, nil
}
