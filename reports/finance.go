// ABOUTME: Financial aggregates over the synchronized transaction list
// ABOUTME: Pure functions, recomputed on every render
package reports

import "github.com/harperreed/opsdesk/models"

// FinanceTotals is the income/expense/balance summary.
type FinanceTotals struct {
	Income  float64
	Expense float64
	Balance float64
}

// DateRange filters by inclusive ISO date bounds. Empty bounds are open.
type DateRange struct {
	From string
	To   string
}

// Contains reports whether date falls inside the range. ISO date strings
// compare lexicographically.
func (r DateRange) Contains(date string) bool {
	if r.From != "" && date < r.From {
		return false
	}
	if r.To != "" && date > r.To {
		return false
	}
	return true
}

// Totals sums transaction amounts by type over an optionally filtered
// subset. Amount sign lives in the type field, never in the number.
func Totals(transactions []models.Transaction, filter DateRange) FinanceTotals {
	var totals FinanceTotals
	for _, t := range transactions {
		if !filter.Contains(t.Date) {
			continue
		}
		switch t.Type {
		case models.TransactionIncome:
			totals.Income += t.Amount
		case models.TransactionExpense:
			totals.Expense += t.Amount
		}
	}
	totals.Balance = totals.Income - totals.Expense
	return totals
}

// RecurringExpenses returns the monthly total of flagged recurring
// expense transactions.
func RecurringExpenses(transactions []models.Transaction) float64 {
	var total float64
	for _, t := range transactions {
		if t.IsRecurring && t.Type == models.TransactionExpense {
			total += t.Amount
		}
	}
	return total
}

// TotalsByCategory sums amounts per category over a filtered subset,
// keeping income and expense apart.
func TotalsByCategory(transactions []models.Transaction, filter DateRange) map[string]FinanceTotals {
	byCategory := map[string]FinanceTotals{}
	for _, t := range transactions {
		if !filter.Contains(t.Date) {
			continue
		}
		totals := byCategory[t.Category]
		switch t.Type {
		case models.TransactionIncome:
			totals.Income += t.Amount
		case models.TransactionExpense:
			totals.Expense += t.Amount
		}
		totals.Balance = totals.Income - totals.Expense
		byCategory[t.Category] = totals
	}
	return byCategory
}
