package store

import (
	"context"
	"database/sql"
	"errors"

	"stitchpay/internal/models"

	"github.com/lib/pq"
)

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrBalanceConflict  = errors.New("balance changed since read")
	ErrCodeMismatch     = errors.New("verification code mismatch")
)

type AccountStore struct {
	db DB
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

// BalanceAdjustment is the only way a balance reaches the database: a typed
// compare-and-swap request carrying the balance observed at read time.
type BalanceAdjustment struct {
	AccountID string
	Expected  int64
	New       int64
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, account models.Account) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (id, mobile, display_name, credential_digest, balance, verified)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, account.ID, account.Mobile, account.DisplayName, account.CredentialDigest, account.Balance, account.Verified)
	if isUniqueViolation(err) {
		return ErrDuplicateAccount
	}
	return err
}

func (s *AccountStore) GetByID(ctx context.Context, accountID string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, mobile, display_name, credential_digest, balance, verified, verification_code, created_at
		FROM accounts
		WHERE id = $1
	`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetByMobile(ctx context.Context, mobile string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, mobile, display_name, credential_digest, balance, verified, verification_code, created_at
		FROM accounts
		WHERE mobile = $1
	`, mobile)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

// CompareAndSwapBalance applies adj only if the stored balance still equals
// adj.Expected. A zero row count means another writer got there first.
func (s *AccountStore) CompareAndSwapBalance(ctx context.Context, tx Execer, adj BalanceAdjustment) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2 AND balance = $3
	`, adj.New, adj.AccountID, adj.Expected)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBalanceConflict
	}
	return nil
}

func (s *AccountStore) SetVerificationCode(ctx context.Context, mobile, code string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET verification_code = $1, updated_at = NOW()
		WHERE mobile = $2
	`, code, mobile)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Verify flips the verified flag when the stored code matches and clears the
// code so it cannot be replayed.
func (s *AccountStore) Verify(ctx context.Context, mobile, code string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET verified = TRUE, verification_code = NULL, updated_at = NOW()
		WHERE mobile = $1 AND verification_code = $2
	`, mobile, code)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCodeMismatch
	}
	return nil
}

func (s *AccountStore) AppendHistory(ctx context.Context, tx Execer, entry models.HistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO account_history (id, account_id, transaction_id, message)
		VALUES ($1, $2, $3, $4)
	`, entry.ID, entry.AccountID, entry.TransactionID, entry.Message)
	return err
}

func (s *AccountStore) AppendNotification(ctx context.Context, tx Execer, notification models.Notification) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO account_notifications (id, account_id, message)
		VALUES ($1, $2, $3)
	`, notification.ID, notification.AccountID, notification.Message)
	return err
}

func (s *AccountStore) History(ctx context.Context, accountID string) ([]models.HistoryEntry, error) {
	var rows []models.HistoryEntry
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, transaction_id, message, created_at
		FROM account_history
		WHERE account_id = $1
		ORDER BY created_at, id
	`, accountID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AccountStore) Notifications(ctx context.Context, accountID string) ([]models.Notification, error) {
	var rows []models.Notification
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, message, is_read, created_at
		FROM account_notifications
		WHERE account_id = $1
		ORDER BY created_at, id
	`, accountID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AccountStore) MarkNotificationsRead(ctx context.Context, accountID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE account_notifications
		SET is_read = TRUE
		WHERE account_id = $1 AND is_read = FALSE
	`, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505"
}
