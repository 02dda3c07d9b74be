// ABOUTME: Tests for financial aggregates
// ABOUTME: Totals, date filtering, recurring expenses, category rollups
package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harperreed/opsdesk/models"
)

func TestTotals(t *testing.T) {
	transactions := []models.Transaction{
		{Type: models.TransactionIncome, Amount: 1000, Date: "2026-01-05"},
		{Type: models.TransactionExpense, Amount: 300, Date: "2026-01-10"},
		{Type: models.TransactionIncome, Amount: 200, Date: "2026-01-20"},
	}
	totals := Totals(transactions, DateRange{})
	assert.Equal(t, 1200.0, totals.Income)
	assert.Equal(t, 300.0, totals.Expense)
	assert.Equal(t, 900.0, totals.Balance)
}

func TestTotalsDateFilter(t *testing.T) {
	transactions := []models.Transaction{
		{Type: models.TransactionIncome, Amount: 100, Date: "2025-12-31"},
		{Type: models.TransactionIncome, Amount: 200, Date: "2026-01-15"},
		{Type: models.TransactionExpense, Amount: 50, Date: "2026-02-01"},
	}
	totals := Totals(transactions, DateRange{From: "2026-01-01", To: "2026-01-31"})
	assert.Equal(t, 200.0, totals.Income)
	assert.Zero(t, totals.Expense)
	assert.Equal(t, 200.0, totals.Balance)
}

func TestTotalsEmpty(t *testing.T) {
	totals := Totals(nil, DateRange{})
	assert.Zero(t, totals.Income)
	assert.Zero(t, totals.Expense)
	assert.Zero(t, totals.Balance)
}

func TestRecurringExpenses(t *testing.T) {
	transactions := []models.Transaction{
		{Type: models.TransactionExpense, Amount: 80, IsRecurring: true},
		{Type: models.TransactionExpense, Amount: 20, IsRecurring: false},
		{Type: models.TransactionIncome, Amount: 500, IsRecurring: true},
	}
	assert.Equal(t, 80.0, RecurringExpenses(transactions))
}

func TestTotalsByCategory(t *testing.T) {
	transactions := []models.Transaction{
		{Type: models.TransactionIncome, Amount: 1000, Category: "consulting", Date: "2026-01-05"},
		{Type: models.TransactionExpense, Amount: 100, Category: "hosting", Date: "2026-01-06"},
		{Type: models.TransactionExpense, Amount: 50, Category: "hosting", Date: "2026-01-07"},
	}
	byCategory := TotalsByCategory(transactions, DateRange{})
	assert.Equal(t, 1000.0, byCategory["consulting"].Income)
	assert.Equal(t, 150.0, byCategory["hosting"].Expense)
	assert.Equal(t, -150.0, byCategory["hosting"].Balance)
}
