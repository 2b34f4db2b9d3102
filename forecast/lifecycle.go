package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LIFECYCLE MANAGER - State machine for individual expected transactions
// =============================================================================
//
// Pending -> Confirmed | Cancelled
// Confirmed -> Completed | Cancelled
// Cancelled, Completed: terminal, no further mutation.
//
// Every operation loads, guards, mutates, and writes inside one store
// transaction, so a rejected transition never leaves a partial write.

type Lifecycle struct {
	Store TxStore
	Now   func() time.Time
}

func NewLifecycle(store TxStore) *Lifecycle {
	return &Lifecycle{Store: store, Now: time.Now}
}

// Confirm matches an expected transaction against a real one. Valid only
// from Pending; re-confirmation is a Conflict.
func (l *Lifecycle) Confirm(ctx context.Context, id ExpectedID, actualTransactionID string) error {
	if actualTransactionID == "" {
		return &ValidationError{Field: "actual_transaction_id", Message: "required"}
	}

	return l.Store.WithTx(ctx, func(s Store) error {
		row, err := l.load(ctx, s, id)
		if err != nil {
			return err
		}
		if row.Status != StatusPending {
			return &ConflictError{ExpectedID: id, Status: row.Status, Op: "confirm"}
		}

		now := l.Now()
		row.Status = StatusConfirmed
		row.ActualTransactionID = actualTransactionID
		row.ProcessedAt = &now
		return s.UpdateExpected(ctx, *row)
	})
}

// Cancel drops an expected transaction out of the forecast. Valid from
// Pending or Confirmed; requires a non-empty reason.
func (l *Lifecycle) Cancel(ctx context.Context, id ExpectedID, reason string) error {
	if reason == "" {
		return &ValidationError{Field: "reason", Message: "required"}
	}

	return l.Store.WithTx(ctx, func(s Store) error {
		row, err := l.load(ctx, s, id)
		if err != nil {
			return err
		}
		if row.Status != StatusPending && row.Status != StatusConfirmed {
			return &ConflictError{ExpectedID: id, Status: row.Status, Op: "cancel"}
		}

		now := l.Now()
		row.Status = StatusCancelled
		row.AdjustmentReason = reason
		row.ProcessedAt = &now
		return s.UpdateExpected(ctx, *row)
	})
}

// Adjust changes the expected amount of a Pending row. The first adjustment
// copies the current amount into OriginalAmount; later adjustments never
// overwrite it. Amount sign carries no meaning here - direction lives in
// TransactionType.
func (l *Lifecycle) Adjust(ctx context.Context, id ExpectedID, newAmount decimal.Decimal, reason string) error {
	if reason == "" {
		return &ValidationError{Field: "reason", Message: "required"}
	}

	return l.Store.WithTx(ctx, func(s Store) error {
		row, err := l.load(ctx, s, id)
		if err != nil {
			return err
		}
		if row.Status != StatusPending {
			return &ConflictError{ExpectedID: id, Status: row.Status, Op: "adjust"}
		}

		if !row.IsAdjusted {
			original := row.ExpectedAmount
			row.OriginalAmount = &original
		}
		row.ExpectedAmount = newAmount
		row.IsAdjusted = true
		row.AdjustmentReason = reason
		return s.UpdateExpected(ctx, *row)
	})
}

// Complete settles a confirmed expected transaction. Valid only from
// Confirmed; Completed is terminal.
func (l *Lifecycle) Complete(ctx context.Context, id ExpectedID) error {
	return l.Store.WithTx(ctx, func(s Store) error {
		row, err := l.load(ctx, s, id)
		if err != nil {
			return err
		}
		if row.Status != StatusConfirmed {
			return &ConflictError{ExpectedID: id, Status: row.Status, Op: "complete"}
		}

		now := l.Now()
		row.Status = StatusCompleted
		row.ProcessedAt = &now
		return s.UpdateExpected(ctx, *row)
	})
}

func (l *Lifecycle) load(ctx context.Context, s Store, id ExpectedID) (*ExpectedTransaction, error) {
	row, err := s.FindExpected(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load expected transaction %s: %w", id, err)
	}
	if row == nil {
		return nil, fmt.Errorf("expected transaction %s: %w", id, ErrExpectedNotFound)
	}
	return row, nil
}
