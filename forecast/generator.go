/*
generator.go - Materializes expected transactions for one template

PURPOSE:
  Drives the recurrence calculator for a single template, diffs candidate
  dates against already-materialized rows, writes only the missing ones,
  and advances the template's cursor - all as one atomic store transaction.

IDEMPOTENCE:
  Running generation twice for the same template and window produces the
  same final row set; the second run observes the first run's rows and
  contributes nothing. Under concurrent invocation the store's uniqueness
  constraint rejects the losing writer's inserts; the loser re-reads once
  and absorbs the race as a zero-count success.

WINDOW:
  [template.NextExecutionDate, today + template.DaysInAdvance], clipped by
  template.EndDate inside the recurrence calculator.

SEE ALSO:
  - recurrence.go: candidate date computation
  - scheduler.go: batch orchestration across all active templates
*/
package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Generator materializes expected transactions for individual templates.
// Stateless: every invocation is a pure function of the store's contents
// and the clock.
type Generator struct {
	Store TxStore

	// Clock returns "today" for window computation. Tests pin this.
	Clock func() Date

	// Now stamps GeneratedAt on new rows.
	Now func() time.Time
}

func NewGenerator(store TxStore) *Generator {
	return &Generator{
		Store: store,
		Clock: Today,
		Now:   time.Now,
	}
}

// GenerateForTemplate materializes missing occurrences for one template and
// returns the number of new rows created.
//
// An inactive template, or one with AutoGenerate disabled, is a successful
// no-op returning 0. A missing template fails with ErrTemplateNotFound.
func (g *Generator) GenerateForTemplate(ctx context.Context, id TemplateID) (int, error) {
	created, err := g.generateOnce(ctx, id)
	if errors.Is(err, ErrDuplicateOccurrence) {
		// A concurrent generation won the race for at least one occurrence.
		// Our transaction rolled back; re-read and write whatever is still
		// missing (usually nothing).
		log.Printf("[Generator] template %s: occurrence race detected, re-reading", id)
		created, err = g.generateOnce(ctx, id)
		if errors.Is(err, ErrDuplicateOccurrence) {
			// Two consecutive violations mean the rows we just read as
			// missing already exist - an invariant breach, not a race.
			return 0, fmt.Errorf("template %s: occurrence uniqueness violated after re-read: %w", id, err)
		}
	}
	return created, err
}

func (g *Generator) generateOnce(ctx context.Context, id TemplateID) (int, error) {
	var created int

	err := g.Store.WithTx(ctx, func(s Store) error {
		tpl, err := s.FindTemplate(ctx, id)
		if err != nil {
			return fmt.Errorf("load template %s: %w", id, err)
		}
		if tpl == nil {
			return fmt.Errorf("template %s: %w", id, ErrTemplateNotFound)
		}
		if !tpl.IsActive || !tpl.AutoGenerate {
			return nil
		}

		windowStart := tpl.NextExecutionDate
		windowEnd := g.Clock().AddDays(tpl.DaysInAdvance)

		candidates, err := NextOccurrences(tpl, windowStart, windowEnd)
		if err != nil {
			return fmt.Errorf("template %s: %w", id, err)
		}
		if len(candidates) == 0 {
			// Cursor already beyond the horizon; nothing to do and the
			// cursor stays put.
			return nil
		}

		existing, err := s.FindByTemplateAndDateRange(ctx, tpl.ID, windowStart, windowEnd)
		if err != nil {
			return fmt.Errorf("load existing occurrences for template %s: %w", id, err)
		}
		materialized := make(map[string]bool, len(existing))
		for _, row := range existing {
			materialized[row.ExpectedDate.String()] = true
		}

		now := g.Now()
		var rows []ExpectedTransaction
		for _, date := range candidates {
			if materialized[date.String()] {
				continue
			}
			rows = append(rows, newExpectedTransaction(tpl, date, now))
		}

		if len(rows) > 0 {
			if err := s.InsertExpected(ctx, rows); err != nil {
				return err
			}
		}

		cursor, err := NextCursor(tpl, candidates)
		if err != nil {
			return err
		}
		if err := s.UpdateCursor(ctx, tpl.ID, cursor); err != nil {
			return fmt.Errorf("advance cursor for template %s: %w", id, err)
		}

		created = len(rows)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// newExpectedTransaction copies the template payload onto a fresh Pending row.
func newExpectedTransaction(tpl *RecurringTransactionTemplate, date Date, now time.Time) ExpectedTransaction {
	return ExpectedTransaction{
		ID:              ExpectedID(uuid.New().String()),
		TemplateID:      tpl.ID,
		AccountID:       tpl.AccountID,
		UserID:          tpl.UserID,
		ExpectedDate:    date,
		ExpectedAmount:  tpl.Amount,
		Description:     tpl.Notes,
		Category:        tpl.Category,
		TransactionType: tpl.TransactionType,
		Status:          StatusPending,
		GeneratedAt:     now,
	}
}
