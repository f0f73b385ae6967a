package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"stitchpay/internal/models"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionStore is the append-only audit log. Rows are never updated
// after insert except for the receiver_credited flag, which records the
// completion of an approved transfer's receiver-side mutation.
type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Record(ctx context.Context, tx Execer, txn models.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, sender_id, receiver_id, amount, outcome,
			sender_balance_before, sender_balance_after,
			receiver_balance_before, receiver_balance_after,
			receiver_credited)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, txn.ID, txn.SenderID, txn.ReceiverID, txn.Amount, txn.Outcome,
		txn.SenderBalanceBefore, txn.SenderBalanceAfter,
		txn.ReceiverBalanceBefore, txn.ReceiverBalanceAfter,
		txn.ReceiverCredited)
	return err
}

func (s *TransactionStore) GetByID(ctx context.Context, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := s.db.GetContext(ctx, &row, `
		SELECT id, sender_id, receiver_id, amount, outcome,
		       sender_balance_before, sender_balance_after,
		       receiver_balance_before, receiver_balance_after,
		       receiver_credited, created_at
		FROM transactions
		WHERE id = $1
	`, transactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, sender_id, receiver_id, amount, outcome,
		       sender_balance_before, sender_balance_after,
		       receiver_balance_before, receiver_balance_after,
		       receiver_credited, created_at
		FROM transactions
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPendingCredits returns approved transactions whose receiver credit has
// not committed yet, skipping rows younger than olderThan so in-flight
// transfers are not replayed out from under the coordinator.
func (s *TransactionStore) ListPendingCredits(ctx context.Context, olderThan time.Duration, limit int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, sender_id, receiver_id, amount, outcome,
		       sender_balance_before, sender_balance_after,
		       receiver_balance_before, receiver_balance_after,
		       receiver_credited, created_at
		FROM transactions
		WHERE outcome = $1 AND receiver_credited = FALSE AND created_at < NOW() - ($2 * INTERVAL '1 second')
		ORDER BY created_at
		LIMIT $3
	`, models.OutcomeApproved, olderThan.Seconds(), limit)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkReceiverCredited reports the number of rows flipped; zero means the
// credit was already applied by a concurrent replayer.
func (s *TransactionStore) MarkReceiverCredited(ctx context.Context, tx Execer, transactionID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET receiver_credited = TRUE
		WHERE id = $1 AND receiver_credited = FALSE
	`, transactionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
