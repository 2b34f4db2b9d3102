/*
Package sqlite provides the SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements forecast.TxStore using SQLite. In production, the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  forecast.TemplateStore:            template persistence + cursor advance
  forecast.ExpectedTransactionStore: materialized occurrence rows
  forecast.TxStore:                  atomic generation and lifecycle steps

KEY TABLES:
  templates:             recurrence rules + generation payload
  expected_transactions: one row per materialized occurrence

UNIQUENESS ENFORCEMENT:
  idx_expected_unique_occurrence is the load-bearing index: the database
  rejects a second row for the same (template_id, expected_date), which is
  what makes concurrent double-generation safe. Violations are surfaced as
  forecast.ErrDuplicateOccurrence.

DATA ENCODING:
  Dates (start_date, expected_date, ...) are stored as YYYY-MM-DD text so
  range predicates sort lexicographically. Timestamps are RFC3339. Amounts
  are decimal strings, never floats.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/forecast.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  gen := forecast.NewGenerator(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - forecast/store.go: Interface definitions
  - forecast/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/forecast-engine/forecast"
)

// Store implements forecast.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Recurring transaction templates
	CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		frequency TEXT NOT NULL,
		custom_interval_days INTEGER DEFAULT 0,
		start_date TEXT NOT NULL,
		end_date TEXT,
		next_execution_date TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		auto_generate BOOLEAN NOT NULL DEFAULT TRUE,
		days_in_advance INTEGER NOT NULL,
		amount TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		category TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_templates_active
		ON templates(is_active) WHERE is_active = TRUE;
	CREATE INDEX IF NOT EXISTS idx_templates_user
		ON templates(user_id);

	-- Expected transactions (materialized occurrences)
	CREATE TABLE IF NOT EXISTS expected_transactions (
		id TEXT PRIMARY KEY,
		template_id TEXT NOT NULL,
		account_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		expected_date TEXT NOT NULL,
		expected_amount TEXT NOT NULL,
		description TEXT,
		category TEXT,
		transaction_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		actual_transaction_id TEXT,
		is_adjusted BOOLEAN NOT NULL DEFAULT FALSE,
		original_amount TEXT,
		adjustment_reason TEXT,
		generated_at TEXT NOT NULL,
		processed_at TEXT
	);

	-- CRITICAL: at most one occurrence per (template, date). Concurrent
	-- generation races resolve here instead of in application code.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_expected_unique_occurrence
		ON expected_transactions(template_id, expected_date);

	-- Window diff during generation (hot path)
	CREATE INDEX IF NOT EXISTS idx_expected_template_date
		ON expected_transactions(template_id, expected_date);

	-- Forecast aggregation queries
	CREATE INDEX IF NOT EXISTS idx_expected_user_date
		ON expected_transactions(user_id, expected_date);

	-- Status filtering
	CREATE INDEX IF NOT EXISTS idx_expected_status
		ON expected_transactions(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same query helpers
// serve direct calls and WithTx callbacks.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// TEMPLATE STORE (forecast.TemplateStore interface)
// =============================================================================

// SaveTemplate inserts or replaces a template.
func (s *Store) SaveTemplate(ctx context.Context, tpl forecast.RecurringTransactionTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveTemplateTx(ctx, s.db, tpl)
}

func (s *Store) saveTemplateTx(ctx context.Context, db dbtx, tpl forecast.RecurringTransactionTemplate) error {
	query := `
		INSERT INTO templates
		(id, account_id, user_id, frequency, custom_interval_days, start_date, end_date,
		 next_execution_date, is_active, auto_generate, days_in_advance, amount,
		 transaction_type, category, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			frequency = excluded.frequency,
			custom_interval_days = excluded.custom_interval_days,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			next_execution_date = excluded.next_execution_date,
			is_active = excluded.is_active,
			auto_generate = excluded.auto_generate,
			days_in_advance = excluded.days_in_advance,
			amount = excluded.amount,
			transaction_type = excluded.transaction_type,
			category = excluded.category,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, query,
		tpl.ID,
		tpl.AccountID,
		tpl.UserID,
		tpl.Frequency,
		tpl.CustomIntervalDays,
		tpl.StartDate.String(),
		nullDate(tpl.EndDate),
		tpl.NextExecutionDate.String(),
		tpl.IsActive,
		tpl.AutoGenerate,
		tpl.DaysInAdvance,
		tpl.Amount.String(),
		tpl.TransactionType,
		tpl.Category,
		tpl.Notes,
		tpl.CreatedAt.UTC().Format(time.RFC3339),
		tpl.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", mapStoreError(err))
	}
	return nil
}

// FindTemplate retrieves a template by ID, or nil if it doesn't exist.
func (s *Store) FindTemplate(ctx context.Context, id forecast.TemplateID) (*forecast.RecurringTransactionTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findTemplateTx(ctx, s.db, id)
}

func (s *Store) findTemplateTx(ctx context.Context, db dbtx, id forecast.TemplateID) (*forecast.RecurringTransactionTemplate, error) {
	templates, err := s.queryTemplates(ctx, db, selectTemplate+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, nil
	}
	return &templates[0], nil
}

// ListActiveTemplates returns all templates with is_active = true.
func (s *Store) ListActiveTemplates(ctx context.Context) ([]forecast.RecurringTransactionTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTemplates(ctx, s.db, selectTemplate+" WHERE is_active = TRUE ORDER BY id")
}

// ListTemplates returns all templates.
func (s *Store) ListTemplates(ctx context.Context) ([]forecast.RecurringTransactionTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryTemplates(ctx, s.db, selectTemplate+" ORDER BY id")
}

// UpdateCursor advances a template's next_execution_date.
func (s *Store) UpdateCursor(ctx context.Context, id forecast.TemplateID, next forecast.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateCursorTx(ctx, s.db, id, next)
}

func (s *Store) updateCursorTx(ctx context.Context, db dbtx, id forecast.TemplateID, next forecast.Date) error {
	res, err := db.ExecContext(ctx,
		"UPDATE templates SET next_execution_date = ?, updated_at = ? WHERE id = ?",
		next.String(), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update cursor: %w", mapStoreError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update cursor for template %s: %w", id, forecast.ErrTemplateNotFound)
	}
	return nil
}

const selectTemplate = `
	SELECT id, account_id, user_id, frequency, custom_interval_days, start_date, end_date,
	       next_execution_date, is_active, auto_generate, days_in_advance, amount,
	       transaction_type, category, notes, created_at, updated_at
	FROM templates`

func (s *Store) queryTemplates(ctx context.Context, db dbtx, query string, args ...any) ([]forecast.RecurringTransactionTemplate, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", mapStoreError(err))
	}
	defer rows.Close()

	var templates []forecast.RecurringTransactionTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}

	return templates, rows.Err()
}

func scanTemplate(rows *sql.Rows) (forecast.RecurringTransactionTemplate, error) {
	var (
		tpl       forecast.RecurringTransactionTemplate
		startDate string
		endDate   sql.NullString
		nextDate  string
		amount    string
		category  sql.NullString
		notes     sql.NullString
		createdAt string
		updatedAt string
	)

	err := rows.Scan(
		&tpl.ID, &tpl.AccountID, &tpl.UserID, &tpl.Frequency, &tpl.CustomIntervalDays,
		&startDate, &endDate, &nextDate, &tpl.IsActive, &tpl.AutoGenerate,
		&tpl.DaysInAdvance, &amount, &tpl.TransactionType, &category, &notes,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return tpl, fmt.Errorf("failed to scan template: %w", err)
	}

	tpl.StartDate, _ = forecast.ParseDate(startDate)
	tpl.NextExecutionDate, _ = forecast.ParseDate(nextDate)
	if endDate.Valid && endDate.String != "" {
		d, _ := forecast.ParseDate(endDate.String)
		tpl.EndDate = &d
	}
	tpl.Amount, _ = decimal.NewFromString(amount)
	tpl.Category = category.String
	tpl.Notes = notes.String
	tpl.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	tpl.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return tpl, nil
}

// =============================================================================
// EXPECTED TRANSACTION STORE (forecast.ExpectedTransactionStore interface)
// =============================================================================

// InsertExpected persists a batch of new occurrence rows atomically.
func (s *Store) InsertExpected(ctx context.Context, batch []forecast.ExpectedTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapStoreError(err))
	}
	defer sqlTx.Rollback()

	for _, row := range batch {
		if err := s.insertExpectedTx(ctx, sqlTx, row); err != nil {
			return err
		}
	}

	return sqlTx.Commit()
}

func (s *Store) insertExpectedTx(ctx context.Context, db dbtx, row forecast.ExpectedTransaction) error {
	query := `
		INSERT INTO expected_transactions
		(id, template_id, account_id, user_id, expected_date, expected_amount,
		 description, category, transaction_type, status, actual_transaction_id,
		 is_adjusted, original_amount, adjustment_reason, generated_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		row.ID,
		row.TemplateID,
		row.AccountID,
		row.UserID,
		row.ExpectedDate.String(),
		row.ExpectedAmount.String(),
		row.Description,
		row.Category,
		row.TransactionType,
		row.Status,
		nullString(row.ActualTransactionID),
		row.IsAdjusted,
		nullDecimal(row.OriginalAmount),
		row.AdjustmentReason,
		row.GeneratedAt.UTC().Format(time.RFC3339),
		nullTime(row.ProcessedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("template %s at %s: %w", row.TemplateID, row.ExpectedDate, forecast.ErrDuplicateOccurrence)
		}
		return fmt.Errorf("failed to insert expected transaction: %w", mapStoreError(err))
	}
	return nil
}

// FindExpected retrieves an expected transaction by ID, or nil if missing.
func (s *Store) FindExpected(ctx context.Context, id forecast.ExpectedID) (*forecast.ExpectedTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findExpectedTx(ctx, s.db, id)
}

func (s *Store) findExpectedTx(ctx context.Context, db dbtx, id forecast.ExpectedID) (*forecast.ExpectedTransaction, error) {
	rows, err := s.queryExpected(ctx, db, selectExpected+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UpdateExpected replaces an existing row's mutable lifecycle fields.
func (s *Store) UpdateExpected(ctx context.Context, row forecast.ExpectedTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateExpectedTx(ctx, s.db, row)
}

func (s *Store) updateExpectedTx(ctx context.Context, db dbtx, row forecast.ExpectedTransaction) error {
	query := `
		UPDATE expected_transactions SET
			expected_amount = ?,
			status = ?,
			actual_transaction_id = ?,
			is_adjusted = ?,
			original_amount = ?,
			adjustment_reason = ?,
			processed_at = ?
		WHERE id = ?
	`

	res, err := db.ExecContext(ctx, query,
		row.ExpectedAmount.String(),
		row.Status,
		nullString(row.ActualTransactionID),
		row.IsAdjusted,
		nullDecimal(row.OriginalAmount),
		row.AdjustmentReason,
		nullTime(row.ProcessedAt),
		row.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expected transaction: %w", mapStoreError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update expected transaction %s: %w", row.ID, forecast.ErrExpectedNotFound)
	}
	return nil
}

// FindByTemplateAndDateRange returns a template's rows with expected_date
// in [from, to], ordered by date.
func (s *Store) FindByTemplateAndDateRange(ctx context.Context, id forecast.TemplateID, from, to forecast.Date) ([]forecast.ExpectedTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findByTemplateTx(ctx, s.db, id, from, to)
}

func (s *Store) findByTemplateTx(ctx context.Context, db dbtx, id forecast.TemplateID, from, to forecast.Date) ([]forecast.ExpectedTransaction, error) {
	query := selectExpected + `
		WHERE template_id = ? AND expected_date >= ? AND expected_date <= ?
		ORDER BY expected_date ASC, id ASC`

	return s.queryExpected(ctx, db, query, id, from.String(), to.String())
}

// QueryByUserAndDateRange returns a user's rows with expected_date in
// [from, to], ordered by date.
func (s *Store) QueryByUserAndDateRange(ctx context.Context, userID forecast.UserID, from, to forecast.Date) ([]forecast.ExpectedTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryByUserTx(ctx, s.db, userID, from, to)
}

func (s *Store) queryByUserTx(ctx context.Context, db dbtx, userID forecast.UserID, from, to forecast.Date) ([]forecast.ExpectedTransaction, error) {
	query := selectExpected + `
		WHERE user_id = ? AND expected_date >= ? AND expected_date <= ?
		ORDER BY expected_date ASC, id ASC`

	return s.queryExpected(ctx, db, query, userID, from.String(), to.String())
}

const selectExpected = `
	SELECT id, template_id, account_id, user_id, expected_date, expected_amount,
	       description, category, transaction_type, status, actual_transaction_id,
	       is_adjusted, original_amount, adjustment_reason, generated_at, processed_at
	FROM expected_transactions`

func (s *Store) queryExpected(ctx context.Context, db dbtx, query string, args ...any) ([]forecast.ExpectedTransaction, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expected transactions: %w", mapStoreError(err))
	}
	defer rows.Close()

	var result []forecast.ExpectedTransaction
	for rows.Next() {
		row, err := scanExpected(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

func scanExpected(rows *sql.Rows) (forecast.ExpectedTransaction, error) {
	var (
		row            forecast.ExpectedTransaction
		expectedDate   string
		expectedAmount string
		description    sql.NullString
		category       sql.NullString
		actualTxID     sql.NullString
		originalAmount sql.NullString
		reason         sql.NullString
		generatedAt    string
		processedAt    sql.NullString
	)

	err := rows.Scan(
		&row.ID, &row.TemplateID, &row.AccountID, &row.UserID,
		&expectedDate, &expectedAmount, &description, &category,
		&row.TransactionType, &row.Status, &actualTxID,
		&row.IsAdjusted, &originalAmount, &reason, &generatedAt, &processedAt,
	)
	if err != nil {
		return row, fmt.Errorf("failed to scan expected transaction: %w", err)
	}

	row.ExpectedDate, _ = forecast.ParseDate(expectedDate)
	row.ExpectedAmount, _ = decimal.NewFromString(expectedAmount)
	row.Description = description.String
	row.Category = category.String
	row.ActualTransactionID = actualTxID.String
	if originalAmount.Valid && originalAmount.String != "" {
		amt, _ := decimal.NewFromString(originalAmount.String)
		row.OriginalAmount = &amt
	}
	row.AdjustmentReason = reason.String
	row.GeneratedAt, _ = time.Parse(time.RFC3339, generatedAt)
	if processedAt.Valid {
		t, _ := time.Parse(time.RFC3339, processedAt.String)
		row.ProcessedAt = &t
	}

	return row, nil
}

// =============================================================================
// TRANSACTIONAL STORE (forecast.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store forecast.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", mapStoreError(err))
	}
	defer sqlTx.Rollback()

	txStore := &txStore{tx: sqlTx, parent: s}
	if err := fn(txStore); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) SaveTemplate(ctx context.Context, tpl forecast.RecurringTransactionTemplate) error {
	return ts.parent.saveTemplateTx(ctx, ts.tx, tpl)
}

func (ts *txStore) FindTemplate(ctx context.Context, id forecast.TemplateID) (*forecast.RecurringTransactionTemplate, error) {
	return ts.parent.findTemplateTx(ctx, ts.tx, id)
}

func (ts *txStore) ListActiveTemplates(ctx context.Context) ([]forecast.RecurringTransactionTemplate, error) {
	return ts.parent.queryTemplates(ctx, ts.tx, selectTemplate+" WHERE is_active = TRUE ORDER BY id")
}

func (ts *txStore) ListTemplates(ctx context.Context) ([]forecast.RecurringTransactionTemplate, error) {
	return ts.parent.queryTemplates(ctx, ts.tx, selectTemplate+" ORDER BY id")
}

func (ts *txStore) UpdateCursor(ctx context.Context, id forecast.TemplateID, next forecast.Date) error {
	return ts.parent.updateCursorTx(ctx, ts.tx, id, next)
}

func (ts *txStore) InsertExpected(ctx context.Context, batch []forecast.ExpectedTransaction) error {
	for _, row := range batch {
		if err := ts.parent.insertExpectedTx(ctx, ts.tx, row); err != nil {
			return err
		}
	}
	return nil
}

func (ts *txStore) FindExpected(ctx context.Context, id forecast.ExpectedID) (*forecast.ExpectedTransaction, error) {
	return ts.parent.findExpectedTx(ctx, ts.tx, id)
}

func (ts *txStore) UpdateExpected(ctx context.Context, row forecast.ExpectedTransaction) error {
	return ts.parent.updateExpectedTx(ctx, ts.tx, row)
}

func (ts *txStore) FindByTemplateAndDateRange(ctx context.Context, id forecast.TemplateID, from, to forecast.Date) ([]forecast.ExpectedTransaction, error) {
	return ts.parent.findByTemplateTx(ctx, ts.tx, id, from, to)
}

func (ts *txStore) QueryByUserAndDateRange(ctx context.Context, userID forecast.UserID, from, to forecast.Date) ([]forecast.ExpectedTransaction, error) {
	return ts.parent.queryByUserTx(ctx, ts.tx, userID, from, to)
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"expected_transactions", "templates"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullDate(d *forecast.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func nullDecimal(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func nullTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

// mapStoreError classifies low-level driver failures. Lock contention and
// I/O errors are retryable; everything else passes through unchanged.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "unable to open database") {
		return fmt.Errorf("%w: %v", forecast.ErrStoreUnavailable, err)
	}
	return err
}
