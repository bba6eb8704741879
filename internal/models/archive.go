package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyArchive represents archived monthly data
type MonthlyArchive struct {
	ID                 string                     `bson:"_id" json:"id"` // Format: "2025-01"
	Year               int                        `bson:"year" json:"year"`
	Month              int                        `bson:"month" json:"month"`
	MonthName          string                     `bson:"monthName" json:"monthName"`
	TotalSpent         decimal.Decimal            `bson:"totalSpent" json:"totalSpent"`
	TotalIncome        decimal.Decimal            `bson:"totalIncome" json:"totalIncome"`
	Net                decimal.Decimal            `bson:"net" json:"net"`
	TotalTransactions  int                        `bson:"totalTransactions" json:"totalTransactions"`
	CategoryTotals     map[string]decimal.Decimal `bson:"categoryTotals" json:"categoryTotals"`
	Transactions       []Transaction              `bson:"transactions" json:"transactions"`
	AvgTransaction     decimal.Decimal            `bson:"avgTransaction" json:"avgTransaction"`
	HighestTransaction decimal.Decimal            `bson:"highestTransaction" json:"highestTransaction"`
	LowestTransaction  decimal.Decimal            `bson:"lowestTransaction" json:"lowestTransaction"`
	DaysWithSpending   int                        `bson:"daysWithSpending" json:"daysWithSpending"`
	ArchivedAt         time.Time                  `bson:"archivedAt" json:"archivedAt"`
}

// MonthID returns the archive id of the month containing t.
func MonthID(t time.Time) string { return t.Format("2006-01") }

// InMonth reports whether t falls in the calendar month of month.
func InMonth(t, month time.Time) bool {
	return t.Year() == month.Year() && t.Month() == month.Month()
}

// NewMonthlyArchive computes the archive of month from the transactions dated in it.
// Spending statistics only consider expenses, by magnitude.
func NewMonthlyArchive(month time.Time, transactions []Transaction, now time.Time) MonthlyArchive {
	archive := MonthlyArchive{
		ID:             MonthID(month),
		Year:           month.Year(),
		Month:          int(month.Month()),
		MonthName:      month.Format("January"),
		CategoryTotals: make(map[string]decimal.Decimal),
		ArchivedAt:     now,
	}

	uniqueDays := make(map[string]bool)
	expenses := 0
	for _, tx := range transactions {
		if !InMonth(tx.Date, month) {
			continue
		}
		archive.Transactions = append(archive.Transactions, tx)
		if !tx.IsExpense() {
			archive.TotalIncome = archive.TotalIncome.Add(tx.Amount)
			continue
		}
		amt := tx.Amount.Abs()
		expenses++
		archive.TotalSpent = archive.TotalSpent.Add(amt)
		archive.CategoryTotals[tx.Category] = archive.CategoryTotals[tx.Category].Add(amt)
		if amt.GreaterThan(archive.HighestTransaction) {
			archive.HighestTransaction = amt
		}
		if expenses == 1 || amt.LessThan(archive.LowestTransaction) {
			archive.LowestTransaction = amt
		}
		uniqueDays[tx.Date.Format("2006-01-02")] = true
	}

	archive.TotalTransactions = len(archive.Transactions)
	archive.Net = archive.TotalIncome.Sub(archive.TotalSpent)
	if expenses > 0 {
		archive.AvgTransaction = archive.TotalSpent.Div(decimal.NewFromInt(int64(expenses))).Round(2)
	}
	archive.DaysWithSpending = len(uniqueDays)
	return archive
}
