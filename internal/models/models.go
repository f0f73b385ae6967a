package models

import "time"

type Account struct {
	ID               string    `db:"id" json:"id"`
	Mobile           string    `db:"mobile" json:"mobile"`
	DisplayName      string    `db:"display_name" json:"display_name"`
	CredentialDigest string    `db:"credential_digest" json:"-"`
	Balance          int64     `db:"balance" json:"balance"`
	Verified         bool      `db:"verified" json:"verified"`
	VerificationCode *string   `db:"verification_code" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type HistoryEntry struct {
	ID            string    `db:"id" json:"id"`
	AccountID     string    `db:"account_id" json:"account_id"`
	TransactionID string    `db:"transaction_id" json:"transaction_id"`
	Message       string    `db:"message" json:"message"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type Notification struct {
	ID        string    `db:"id" json:"id"`
	AccountID string    `db:"account_id" json:"account_id"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"is_read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Outcome is the terminal state of a transfer attempt. Every well-formed
// attempt ends in exactly one outcome, rejections included.
type Outcome string

const (
	OutcomeApproved                  Outcome = "approved"
	OutcomeRejectedInsufficientFunds Outcome = "rejected_insufficient_funds"
	OutcomeRejectedSenderOffline     Outcome = "rejected_sender_offline"
	OutcomeRejectedReceiverNotFound  Outcome = "rejected_receiver_not_found"
	OutcomeRejectedSystemError       Outcome = "rejected_system_error"
)

func (o Outcome) Rejected() bool {
	return o != OutcomeApproved
}

// Transaction is the immutable audit record of one transfer attempt.
// Balance-after fields stay null when the attempt was rejected.
// ReceiverCredited marks whether the receiver-side mutation of an approved
// transfer has committed; the reconciler replays rows where it has not.
type Transaction struct {
	ID                    string    `db:"id" json:"id"`
	SenderID              string    `db:"sender_id" json:"sender_id"`
	ReceiverID            string    `db:"receiver_id" json:"receiver_id"`
	Amount                int64     `db:"amount" json:"amount"`
	Outcome               Outcome   `db:"outcome" json:"outcome"`
	SenderBalanceBefore   *int64    `db:"sender_balance_before" json:"sender_balance_before"`
	SenderBalanceAfter    *int64    `db:"sender_balance_after" json:"sender_balance_after"`
	ReceiverBalanceBefore *int64    `db:"receiver_balance_before" json:"receiver_balance_before"`
	ReceiverBalanceAfter  *int64    `db:"receiver_balance_after" json:"receiver_balance_after"`
	ReceiverCredited      bool      `db:"receiver_credited" json:"receiver_credited"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}
