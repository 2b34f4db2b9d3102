package forecast

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FORECAST AGGREGATOR - Read-only rollups over expected transactions
// =============================================================================
//
// Sign convention: Income contributes positively, Expense negatively.
// Transfers move money between a user's own accounts and never change
// aggregate wealth, so they are excluded entirely. Cancelled rows are
// excluded; everything else (Pending, Confirmed, Completed) counts.

type Aggregator struct {
	Store ExpectedTransactionStore
}

func NewAggregator(store ExpectedTransactionStore) *Aggregator {
	return &Aggregator{Store: store}
}

// CashFlowForecast returns the signed net total of a user's expected
// transactions with ExpectedDate in [start, end].
func (a *Aggregator) CashFlowForecast(ctx context.Context, userID UserID, start, end Date) (decimal.Decimal, error) {
	rows, err := a.Store.QueryByUserAndDateRange(ctx, userID, start, end)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, row := range rows {
		amount, ok := signedAmount(row)
		if !ok {
			continue
		}
		total = total.Add(amount)
	}
	return total, nil
}

// CategoryForecast returns signed subtotals grouped by category for a
// user's expected transactions with ExpectedDate in [start, end].
func (a *Aggregator) CategoryForecast(ctx context.Context, userID UserID, start, end Date) (map[string]decimal.Decimal, error) {
	rows, err := a.Store.QueryByUserAndDateRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]decimal.Decimal)
	for _, row := range rows {
		amount, ok := signedAmount(row)
		if !ok {
			continue
		}
		byCategory[row.Category] = byCategory[row.Category].Add(amount)
	}
	return byCategory, nil
}

// signedAmount maps a row to its forecast contribution. The second return
// is false for rows that don't participate (cancelled, transfers).
func signedAmount(row ExpectedTransaction) (decimal.Decimal, bool) {
	if row.Status == StatusCancelled {
		return decimal.Zero, false
	}
	switch row.TransactionType {
	case TypeIncome:
		return row.ExpectedAmount, true
	case TypeExpense:
		return row.ExpectedAmount.Neg(), true
	default:
		return decimal.Zero, false
	}
}
