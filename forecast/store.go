/*
store.go - Persistence interfaces for templates and expected transactions

PURPOSE:
  Defines the narrow contract between the engine and the database. One
  interface per aggregate with exactly the query shapes the engine needs,
  so the whole contract is testable against the in-memory fake.

KEY INTERFACES:
  TemplateStore:            template lookups + cursor advance
  ExpectedTransactionStore: occurrence rows (insert, range queries, update)
  TxStore:                  Store + WithTx for atomic generation steps

UNIQUENESS CONTRACT:
  Insert MUST reject a second row for the same (TemplateID, ExpectedDate)
  with ErrDuplicateOccurrence. This is what makes concurrent
  double-generation safe without mutual exclusion.

IMPLEMENTATIONS:
  - store/sqlite: production store, unique index enforced by the database
  - forecast/store: in-memory store for tests and development
*/
package forecast

import "context"

// =============================================================================
// TEMPLATE STORE
// =============================================================================

// TemplateStore persists recurring transaction templates.
type TemplateStore interface {
	// SaveTemplate inserts or replaces a template.
	SaveTemplate(ctx context.Context, tpl RecurringTransactionTemplate) error

	// FindTemplate returns the template or nil if it doesn't exist.
	FindTemplate(ctx context.Context, id TemplateID) (*RecurringTransactionTemplate, error)

	// ListActiveTemplates returns all templates with IsActive = true.
	ListActiveTemplates(ctx context.Context) ([]RecurringTransactionTemplate, error)

	// ListTemplates returns all templates.
	ListTemplates(ctx context.Context) ([]RecurringTransactionTemplate, error)

	// UpdateCursor advances a template's NextExecutionDate.
	UpdateCursor(ctx context.Context, id TemplateID, next Date) error
}

// =============================================================================
// EXPECTED TRANSACTION STORE
// =============================================================================

// ExpectedTransactionStore persists materialized occurrence rows.
type ExpectedTransactionStore interface {
	// InsertExpected persists a batch of new rows. Fails the whole batch with
	// ErrDuplicateOccurrence if any (TemplateID, ExpectedDate) already exists.
	InsertExpected(ctx context.Context, rows []ExpectedTransaction) error

	// FindExpected returns the row or nil if it doesn't exist.
	FindExpected(ctx context.Context, id ExpectedID) (*ExpectedTransaction, error)

	// UpdateExpected replaces an existing row (lifecycle mutations).
	UpdateExpected(ctx context.Context, row ExpectedTransaction) error

	// FindByTemplateAndDateRange returns a template's rows with
	// ExpectedDate in [from, to], ordered by date.
	FindByTemplateAndDateRange(ctx context.Context, id TemplateID, from, to Date) ([]ExpectedTransaction, error)

	// QueryByUserAndDateRange returns a user's rows with ExpectedDate in
	// [from, to], ordered by date.
	QueryByUserAndDateRange(ctx context.Context, userID UserID, from, to Date) ([]ExpectedTransaction, error)
}

// Store combines both aggregates' persistence.
type Store interface {
	TemplateStore
	ExpectedTransactionStore
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore adds atomic execution. A generation step (read window, diff, write
// rows, advance cursor) runs inside one WithTx call: either everything
// commits or the template is left exactly as it was.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back and the error returned unchanged.
	WithTx(ctx context.Context, fn func(Store) error) error
}
