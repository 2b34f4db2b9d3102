package forecast_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/forecast-engine/forecast"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) forecast.Date {
	return forecast.NewDate(year, month, day)
}

func weeklyTemplate() *forecast.RecurringTransactionTemplate {
	return &forecast.RecurringTransactionTemplate{
		ID:                "tpl-weekly",
		AccountID:         "acc-1",
		UserID:            "user-1",
		Frequency:         forecast.FreqWeekly,
		StartDate:         date(2024, time.January, 1),
		NextExecutionDate: date(2024, time.January, 1),
		IsActive:          true,
		AutoGenerate:      true,
		DaysInAdvance:     14,
		Amount:            decimal.NewFromInt(100),
		TransactionType:   forecast.TypeExpense,
	}
}

// =============================================================================
// OCCURRENCE COMPUTATION TESTS
// =============================================================================

func TestNextOccurrences_WeeklyWithinWindow(t *testing.T) {
	// GIVEN: Weekly template starting 2024-01-01, cursor at start
	// WHEN: Computing occurrences for window [2024-01-01, 2024-01-15]
	// THEN: Exactly 2024-01-01, 2024-01-08, 2024-01-15

	tpl := weeklyTemplate()

	occurrences, err := forecast.NextOccurrences(tpl, date(2024, time.January, 1), date(2024, time.January, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []forecast.Date{
		date(2024, time.January, 1),
		date(2024, time.January, 8),
		date(2024, time.January, 15),
	}
	if len(occurrences) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(occurrences), occurrences)
	}
	for i, d := range want {
		if !occurrences[i].Equal(d) {
			t.Errorf("occurrence %d: expected %s, got %s", i, d, occurrences[i])
		}
	}
}

func TestNextOccurrences_CursorAheadOfWindowStart(t *testing.T) {
	// GIVEN: Cursor already advanced to 2024-01-08
	// WHEN: Window starts earlier, at 2024-01-01
	// THEN: The walk starts from the cursor, not the window start

	tpl := weeklyTemplate()
	tpl.NextExecutionDate = date(2024, time.January, 8)

	occurrences, err := forecast.NextOccurrences(tpl, date(2024, time.January, 1), date(2024, time.January, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(occurrences) != 2 {
		t.Fatalf("expected 2 occurrences, got %d: %v", len(occurrences), occurrences)
	}
	if !occurrences[0].Equal(date(2024, time.January, 8)) {
		t.Errorf("expected first occurrence 2024-01-08, got %s", occurrences[0])
	}
}

func TestNextOccurrences_EndDateClipsWindow(t *testing.T) {
	// GIVEN: Weekly template ending 2024-01-10
	// WHEN: Window extends past the end date
	// THEN: Occurrences stop at the end date

	tpl := weeklyTemplate()
	end := date(2024, time.January, 10)
	tpl.EndDate = &end

	occurrences, err := forecast.NextOccurrences(tpl, date(2024, time.January, 1), date(2024, time.January, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(occurrences) != 2 {
		t.Fatalf("expected 2 occurrences (01-01, 01-08), got %d: %v", len(occurrences), occurrences)
	}
}

func TestNextOccurrences_ExcludesDatesBeforeStart(t *testing.T) {
	// GIVEN: Template starting 2024-01-10 with a cursor before the start
	// WHEN: Computing occurrences over a window spanning the start
	// THEN: Candidates before StartDate are dropped

	tpl := weeklyTemplate()
	tpl.StartDate = date(2024, time.January, 10)
	tpl.NextExecutionDate = date(2024, time.January, 3)

	occurrences, err := forecast.NextOccurrences(tpl, date(2024, time.January, 1), date(2024, time.January, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, d := range occurrences {
		if d.Before(tpl.StartDate) {
			t.Errorf("occurrence %s precedes start date %s", d, tpl.StartDate)
		}
	}
	if len(occurrences) == 0 {
		t.Fatal("expected at least one occurrence on/after the start date")
	}
}

func TestNextOccurrences_EmptyWindow(t *testing.T) {
	// GIVEN: Cursor already beyond the window end
	// WHEN: Computing occurrences
	// THEN: No candidates, and NextCursor leaves the cursor unchanged

	tpl := weeklyTemplate()
	tpl.NextExecutionDate = date(2024, time.February, 1)

	occurrences, err := forecast.NextOccurrences(tpl, tpl.NextExecutionDate, date(2024, time.January, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(occurrences) != 0 {
		t.Fatalf("expected no occurrences, got %v", occurrences)
	}

	cursor, err := forecast.NextCursor(tpl, occurrences)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cursor.Equal(tpl.NextExecutionDate) {
		t.Errorf("expected cursor unchanged at %s, got %s", tpl.NextExecutionDate, cursor)
	}
}

func TestNextOccurrences_CustomInterval(t *testing.T) {
	// GIVEN: Custom frequency with a 10-day interval
	// WHEN: Computing occurrences for a 30-day window
	// THEN: Steps of exactly 10 days

	tpl := weeklyTemplate()
	tpl.Frequency = forecast.FreqCustom
	tpl.CustomIntervalDays = 10

	occurrences, err := forecast.NextOccurrences(tpl, date(2024, time.January, 1), date(2024, time.January, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []forecast.Date{
		date(2024, time.January, 1),
		date(2024, time.January, 11),
		date(2024, time.January, 21),
		date(2024, time.January, 31),
	}
	if len(occurrences) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %v", len(want), len(occurrences), occurrences)
	}
	for i, d := range want {
		if !occurrences[i].Equal(d) {
			t.Errorf("occurrence %d: expected %s, got %s", i, d, occurrences[i])
		}
	}
}

func TestNextOccurrences_InvalidCustomInterval(t *testing.T) {
	// GIVEN: Custom frequency without a positive interval
	// WHEN: Computing occurrences
	// THEN: Validation error, no panic

	tpl := weeklyTemplate()
	tpl.Frequency = forecast.FreqCustom
	tpl.CustomIntervalDays = 0

	_, err := forecast.NextOccurrences(tpl, date(2024, time.January, 1), date(2024, time.January, 31))
	if !forecast.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNextCursor_AdvancesPastLastOccurrence(t *testing.T) {
	// GIVEN: Weekly occurrences ending 2024-01-15
	// WHEN: Computing the next cursor
	// THEN: 2024-01-22, one interval past the last occurrence

	tpl := weeklyTemplate()
	occurrences := []forecast.Date{
		date(2024, time.January, 1),
		date(2024, time.January, 8),
		date(2024, time.January, 15),
	}

	cursor, err := forecast.NextCursor(tpl, occurrences)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cursor.Equal(date(2024, time.January, 22)) {
		t.Errorf("expected cursor 2024-01-22, got %s", cursor)
	}
}

// =============================================================================
// FREQUENCY INTERVAL TESTS
// =============================================================================

func TestFrequency_FixedIntervals(t *testing.T) {
	cases := []struct {
		freq forecast.Frequency
		want int
	}{
		{forecast.FreqDaily, 1},
		{forecast.FreqWeekly, 7},
		{forecast.FreqBiweekly, 14},
		{forecast.FreqMonthly, 30},
		{forecast.FreqQuarterly, 90},
		{forecast.FreqSemiAnnually, 180},
		{forecast.FreqAnnually, 365},
	}

	for _, tc := range cases {
		got, err := tc.freq.IntervalDays(0)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.freq, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: expected %d days, got %d", tc.freq, tc.want, got)
		}
	}
}

func TestFrequency_UnknownTag(t *testing.T) {
	_, err := forecast.Frequency("fortnightly").IntervalDays(0)
	if !forecast.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	var verr *forecast.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}
