package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/forecast-engine/forecast"
	"github.com/warp/forecast-engine/forecast/store"
)

func row(id string, templateID forecast.TemplateID, day int) forecast.ExpectedTransaction {
	return forecast.ExpectedTransaction{
		ID:              forecast.ExpectedID(id),
		TemplateID:      templateID,
		AccountID:       "acc-1",
		UserID:          "user-1",
		ExpectedDate:    forecast.NewDate(2024, time.March, day),
		ExpectedAmount:  decimal.NewFromInt(10),
		TransactionType: forecast.TypeExpense,
		Status:          forecast.StatusPending,
		GeneratedAt:     time.Now(),
	}
}

func TestMemory_DuplicateOccurrenceRejected(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	if err := mem.InsertExpected(ctx, []forecast.ExpectedTransaction{row("a", "tpl-1", 1)}); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := mem.InsertExpected(ctx, []forecast.ExpectedTransaction{row("b", "tpl-1", 1)})
	if !errors.Is(err, forecast.ErrDuplicateOccurrence) {
		t.Fatalf("expected ErrDuplicateOccurrence, got %v", err)
	}

	// Same date under a different template is fine.
	if err := mem.InsertExpected(ctx, []forecast.ExpectedTransaction{row("c", "tpl-2", 1)}); err != nil {
		t.Fatalf("different template insert: %v", err)
	}
}

func TestMemory_BatchInsertIsAtomic(t *testing.T) {
	// A batch containing one duplicate must write nothing at all.

	mem := store.NewMemory()
	ctx := context.Background()

	if err := mem.InsertExpected(ctx, []forecast.ExpectedTransaction{row("a", "tpl-1", 1)}); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	err := mem.InsertExpected(ctx, []forecast.ExpectedTransaction{
		row("b", "tpl-1", 2),
		row("c", "tpl-1", 1), // duplicate
	})
	if !errors.Is(err, forecast.ErrDuplicateOccurrence) {
		t.Fatalf("expected ErrDuplicateOccurrence, got %v", err)
	}

	if got, _ := mem.FindExpected(ctx, "b"); got != nil {
		t.Error("expected the non-duplicate batch member to be rolled back too")
	}
}

func TestMemory_WithTxRollsBackOnError(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	boom := errors.New("boom")
	err := mem.WithTx(ctx, func(s forecast.Store) error {
		if err := s.InsertExpected(ctx, []forecast.ExpectedTransaction{row("a", "tpl-1", 1)}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error back, got %v", err)
	}

	if got, _ := mem.FindExpected(ctx, "a"); got != nil {
		t.Error("expected insert to be rolled back")
	}

	// The occurrence index must be rolled back too.
	if err := mem.InsertExpected(ctx, []forecast.ExpectedTransaction{row("a", "tpl-1", 1)}); err != nil {
		t.Errorf("expected re-insert after rollback to succeed, got %v", err)
	}
}

func TestMemory_UpdateCursorUnknownTemplate(t *testing.T) {
	mem := store.NewMemory()

	err := mem.UpdateCursor(context.Background(), "nope", forecast.NewDate(2024, time.March, 1))
	if !errors.Is(err, forecast.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestMemory_FindReturnsCopies(t *testing.T) {
	// Mutating a returned row must not leak back into the store.

	mem := store.NewMemory()
	ctx := context.Background()

	if err := mem.InsertExpected(ctx, []forecast.ExpectedTransaction{row("a", "tpl-1", 1)}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, _ := mem.FindExpected(ctx, "a")
	got.Status = forecast.StatusCancelled

	again, _ := mem.FindExpected(ctx, "a")
	if again.Status != forecast.StatusPending {
		t.Error("store row mutated through a returned pointer")
	}
}
