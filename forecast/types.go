/*
Package forecast provides the recurring-transaction scheduling and forecast engine.

PURPOSE:
  Given a template describing a recurring cash movement (amount, frequency,
  start/end, look-ahead window), the engine computes future occurrence dates,
  materializes expected-transaction rows for the look-ahead horizon without
  ever duplicating an occurrence, manages each row's lifecycle (confirm,
  cancel, adjust, complete), and aggregates rows into cash-flow and
  per-category forecasts.

KEY CONCEPTS IN THIS FILE (types.go):
  - RecurringTransactionTemplate: recurrence rule + payload for generation
  - ExpectedTransaction: one materialized occurrence, independently managed
  - Frequency: closed enum, each tag carrying a fixed interval in days
  - Status: the expected-transaction lifecycle states

DESIGN PRINCIPLES:
  1. Uniqueness: at most one ExpectedTransaction per (template, date)
  2. Precision: decimal.Decimal for all money, no floats
  3. Independence: rows outlive template changes once generated
  4. Statelessness: the engine holds no state between invocations

SEE ALSO:
  - recurrence.go: candidate date computation
  - generator.go: materialization and cursor advance
  - lifecycle.go: per-row state machine
*/
package forecast

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type TemplateID string
type ExpectedID string
type AccountID string
type UserID string

// =============================================================================
// FREQUENCY - Closed enum, fixed interval-in-days per tag
// =============================================================================

type Frequency string

const (
	FreqCustom       Frequency = "custom" // interval comes from CustomIntervalDays
	FreqDaily        Frequency = "daily"
	FreqWeekly       Frequency = "weekly"
	FreqBiweekly     Frequency = "biweekly"
	FreqMonthly      Frequency = "monthly"
	FreqQuarterly    Frequency = "quarterly"
	FreqSemiAnnually Frequency = "semiannually"
	FreqAnnually     Frequency = "annually"
)

// Fixed day counts, NOT calendar-month arithmetic. Monthly is always 30
// days; over multi-year horizons this drifts from true calendar months.
// Intentional: occurrence identity must be stable and phase-aligned.
var frequencyIntervals = map[Frequency]int{
	FreqDaily:        1,
	FreqWeekly:       7,
	FreqBiweekly:     14,
	FreqMonthly:      30,
	FreqQuarterly:    90,
	FreqSemiAnnually: 180,
	FreqAnnually:     365,
}

func (f Frequency) IsValid() bool {
	if f == FreqCustom {
		return true
	}
	_, ok := frequencyIntervals[f]
	return ok
}

// IntervalDays returns the step between occurrences. customDays is only
// consulted for FreqCustom and ignored otherwise.
func (f Frequency) IntervalDays(customDays int) (int, error) {
	if f == FreqCustom {
		if customDays <= 0 {
			return 0, &ValidationError{Field: "custom_interval_days", Message: "must be positive for custom frequency"}
		}
		return customDays, nil
	}
	interval, ok := frequencyIntervals[f]
	if !ok {
		return 0, &ValidationError{Field: "frequency", Message: "unknown frequency " + string(f)}
	}
	return interval, nil
}

// =============================================================================
// TRANSACTION TYPE - Signed direction lives here, never in the amount
// =============================================================================

type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer" // moves money, never changes net wealth
)

func (t TransactionType) IsValid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeTransfer:
		return true
	}
	return false
}

// =============================================================================
// STATUS - Expected-transaction lifecycle
// =============================================================================

// Status transitions: Pending -> Confirmed | Cancelled,
// Confirmed -> Completed | Cancelled. Cancelled and Completed are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Terminal reports whether no further mutation of the row is permitted.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// =============================================================================
// RECURRING TRANSACTION TEMPLATE
// =============================================================================

// RecurringTransactionTemplate owns the recurrence rule plus the payload
// copied onto each generated ExpectedTransaction.
type RecurringTransactionTemplate struct {
	ID        TemplateID
	AccountID AccountID
	UserID    UserID

	// Recurrence rule
	Frequency          Frequency
	CustomIntervalDays int // only meaningful when Frequency == FreqCustom

	// Window bounds
	StartDate Date
	EndDate   *Date // nil means the template never expires

	// Scheduling cursor: the earliest date not yet materialized.
	NextExecutionDate Date

	// Generation policy
	IsActive      bool
	AutoGenerate  bool
	DaysInAdvance int // look-ahead horizon in days

	// Payload copied to generated rows
	Amount          decimal.Decimal
	TransactionType TransactionType
	Category        string
	Notes           string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IntervalDays resolves the template's step between occurrences.
func (t *RecurringTransactionTemplate) IntervalDays() (int, error) {
	return t.Frequency.IntervalDays(t.CustomIntervalDays)
}

// Validate checks the template invariants. Persistence-level defaults
// (ids, timestamps) are not its concern.
func (t *RecurringTransactionTemplate) Validate() error {
	if !t.Frequency.IsValid() {
		return &ValidationError{Field: "frequency", Message: "unknown frequency " + string(t.Frequency)}
	}
	if _, err := t.IntervalDays(); err != nil {
		return err
	}
	if !t.TransactionType.IsValid() {
		return &ValidationError{Field: "transaction_type", Message: "unknown transaction type " + string(t.TransactionType)}
	}
	if t.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Message: "required"}
	}
	if t.NextExecutionDate.Before(t.StartDate) {
		return &ValidationError{Field: "next_execution_date", Message: "must not precede start_date"}
	}
	if t.EndDate != nil && t.EndDate.Before(t.StartDate) {
		return &ValidationError{Field: "end_date", Message: "must not precede start_date"}
	}
	if t.DaysInAdvance <= 0 {
		return &ValidationError{Field: "days_in_advance", Message: "must be positive"}
	}
	return nil
}

// =============================================================================
// EXPECTED TRANSACTION
// =============================================================================

// ExpectedTransaction is a materialized forecast row for one occurrence.
// Once generated it is an independent fact: deleting or deactivating the
// template does not retroactively alter it.
type ExpectedTransaction struct {
	ID         ExpectedID
	TemplateID TemplateID
	AccountID  AccountID
	UserID     UserID

	ExpectedDate    Date
	ExpectedAmount  decimal.Decimal // mutable only via Adjust
	Description     string
	Category        string
	TransactionType TransactionType // copied from template, immutable thereafter

	// Lifecycle
	Status              Status
	ActualTransactionID string // set on confirmation
	IsAdjusted          bool
	OriginalAmount      *decimal.Decimal // set exactly once, on first adjustment
	AdjustmentReason    string
	GeneratedAt         time.Time
	ProcessedAt         *time.Time
}
