package forecast

// =============================================================================
// RECURRENCE CALCULATOR - Pure occurrence-date arithmetic
// =============================================================================

// NextOccurrences returns the ordered candidate occurrence dates for a
// template within [windowStart, windowEnd]. Pure function of its inputs:
// no I/O, no hidden state, restartable.
//
// The walk starts at max(template.NextExecutionDate, windowStart) and steps
// forward by the frequency's fixed interval in days until the date exceeds
// min(windowEnd, template.EndDate). Dates before StartDate are excluded.
func NextOccurrences(tpl *RecurringTransactionTemplate, windowStart, windowEnd Date) ([]Date, error) {
	interval, err := tpl.IntervalDays()
	if err != nil {
		return nil, err
	}

	limit := windowEnd
	if tpl.EndDate != nil {
		limit = limit.Min(*tpl.EndDate)
	}

	current := tpl.NextExecutionDate
	if current.Before(windowStart) {
		current = windowStart
	}

	var occurrences []Date
	for current.BeforeOrEqual(limit) {
		if current.AfterOrEqual(tpl.StartDate) {
			occurrences = append(occurrences, current)
		}
		current = current.AddDays(interval)
	}
	return occurrences, nil
}

// NextCursor returns the cursor value after materializing the given
// occurrences: the first occurrence date beyond the last one yielded.
// With no occurrences the cursor is unchanged.
func NextCursor(tpl *RecurringTransactionTemplate, occurrences []Date) (Date, error) {
	if len(occurrences) == 0 {
		return tpl.NextExecutionDate, nil
	}
	interval, err := tpl.IntervalDays()
	if err != nil {
		return Date{}, err
	}
	return occurrences[len(occurrences)-1].AddDays(interval), nil
}
