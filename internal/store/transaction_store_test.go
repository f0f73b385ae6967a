package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"stitchpay/internal/models"
)

func int64Ptr(value int64) *int64 {
	return &value
}

func TestTransactionStoreRecord(t *testing.T) {
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO transactions") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 10 {
				t.Fatalf("expected 10 args, got %d", len(args))
			}
			if args[0] != "transaction-1" || args[3] != int64(300) || args[4] != models.OutcomeApproved {
				t.Fatalf("unexpected args: %#v", args)
			}
			if args[6] == nil || *(args[6].(*int64)) != 700 {
				t.Fatalf("unexpected sender_balance_after: %#v", args[6])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewTransactionStore(stubDB{})
	err := store.Record(context.Background(), execer, models.Transaction{
		ID:                    "transaction-1",
		SenderID:              "til-t.1",
		ReceiverID:            "til-t.2",
		Amount:                300,
		Outcome:               models.OutcomeApproved,
		SenderBalanceBefore:   int64Ptr(1000),
		SenderBalanceAfter:    int64Ptr(700),
		ReceiverBalanceBefore: int64Ptr(200),
		ReceiverBalanceAfter:  int64Ptr(500),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionStoreRecordRejected(t *testing.T) {
	execer := stubExecer{
		execFn: func(_ context.Context, _ string, args ...any) (sql.Result, error) {
			if args[4] != models.OutcomeRejectedInsufficientFunds {
				t.Fatalf("unexpected outcome: %#v", args[4])
			}
			if args[6] != (*int64)(nil) || args[8] != (*int64)(nil) {
				t.Fatalf("expected null balance-after fields, got %#v / %#v", args[6], args[8])
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewTransactionStore(stubDB{})
	err := store.Record(context.Background(), execer, models.Transaction{
		ID:                  "transaction-2",
		SenderID:            "til-t.1",
		ReceiverID:          "til-t.2",
		Amount:              500,
		Outcome:             models.OutcomeRejectedInsufficientFunds,
		SenderBalanceBefore: int64Ptr(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTransactionStoreGetByIDNotFound(t *testing.T) {
	store := NewTransactionStore(stubDB{
		getFn: func(context.Context, any, string, ...any) error {
			return sql.ErrNoRows
		},
	})
	_, err := store.GetByID(context.Background(), "transaction-missing")
	if !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestListPendingCredits(t *testing.T) {
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "receiver_credited = FALSE") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != models.OutcomeApproved {
				t.Fatalf("unexpected outcome filter: %#v", args[0])
			}
			if args[1] != float64(10) || args[2] != 50 {
				t.Fatalf("unexpected age/limit args: %#v", args)
			}
			*dest.(*[]models.Transaction) = []models.Transaction{{ID: "transaction-1"}}
			return nil
		},
	})
	rows, err := store.ListPendingCredits(context.Background(), 10*time.Second, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "transaction-1" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}

func TestMarkReceiverCreditedAlreadyDone(t *testing.T) {
	execer := stubExecer{
		execFn: func(_ context.Context, query string, _ ...any) (sql.Result, error) {
			if !strings.Contains(query, "receiver_credited = FALSE") {
				t.Fatalf("expected guard on uncredited rows, query: %s", query)
			}
			return stubResult{rows: 0}, nil
		},
	}
	store := NewTransactionStore(stubDB{})
	rows, err := store.MarkReceiverCredited(context.Background(), execer, "transaction-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected 0 rows, got %d", rows)
	}
}

func TestListByAccount(t *testing.T) {
	store := NewTransactionStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "sender_id = $1 OR receiver_id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != "til-t.1" || args[1] != 50 || args[2] != 0 {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*[]models.Transaction) = []models.Transaction{{ID: "transaction-1"}, {ID: "transaction-2"}}
			return nil
		},
	})
	rows, err := store.ListByAccount(context.Background(), "til-t.1", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}
