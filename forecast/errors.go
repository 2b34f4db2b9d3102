/*
errors.go - Centralized error types for the forecast engine

ERROR TAXONOMY (matches how callers must react):
  NotFound   - referenced template/row does not exist; surfaced, not retried
  Validation - bad input (empty reason, broken template); surfaced, not retried
  Conflict   - illegal lifecycle transition; surfaced, not retried
  Transient  - store timeout/unavailability; retried at the batch level only
  Duplicate  - uniqueness constraint hit; absorbed by the generator's re-read

Domain code wraps sentinels with fmt.Errorf("...: %w", err); callers classify
with the Is* helpers below rather than matching strings.
*/
package forecast

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTemplateNotFound is returned when a referenced template doesn't exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrExpectedNotFound is returned when a referenced expected transaction
	// doesn't exist.
	ErrExpectedNotFound = errors.New("expected transaction not found")

	// ErrDuplicateOccurrence is returned when an insert would violate the
	// one-row-per-(template, date) contract. Under concurrent generation this
	// is the losing writer's signal, not a bug.
	ErrDuplicateOccurrence = errors.New("duplicate occurrence for template and date")

	// ErrStoreUnavailable is returned for transient persistence failures
	// (timeouts, lost connections). The batch orchestrator retries these;
	// single-template calls surface them.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConflictError reports an illegal lifecycle transition. The row is left
// unchanged when this is returned.
type ConflictError struct {
	ExpectedID ExpectedID
	Status     Status
	Op         string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot %s expected transaction %s in status %s", e.Op, e.ExpectedID, e.Status)
}

// ValidationError reports invalid caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing template or row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound) || errors.Is(err, ErrExpectedNotFound)
}

// IsConflict returns true if the error is a rejected lifecycle transition.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// IsValidation returns true if the error is due to invalid caller input.
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// IsRetryable returns true if the operation might succeed on retry.
// Only transient store failures qualify; everything else in the taxonomy
// is deterministic.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
