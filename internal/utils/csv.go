package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// GenerateMonthlyCSV creates a CSV file content for monthly data
func GenerateMonthlyCSV(archive *models.MonthlyArchive, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)

	rows := [][]string{
		{"Monthly Expense Report"},
		{"Month", archive.MonthName + " " + strconv.Itoa(archive.Year)},
		{"Generated", archive.ArchivedAt.Format("2006-01-02 15:04:05")},
		{},
		{"SUMMARY"},
		{"Total Spent", archive.TotalSpent.StringFixed(2)},
		{"Total Income", archive.TotalIncome.StringFixed(2)},
		{"Net", archive.Net.StringFixed(2)},
		{"Total Transactions", strconv.Itoa(archive.TotalTransactions)},
		{"Average Transaction", archive.AvgTransaction.StringFixed(2)},
		{"Highest Transaction", archive.HighestTransaction.StringFixed(2)},
		{"Lowest Transaction", archive.LowestTransaction.StringFixed(2)},
		{"Days with Spending", strconv.Itoa(archive.DaysWithSpending)},
		{},
	}

	if len(archive.CategoryTotals) > 0 {
		rows = append(rows, []string{"CATEGORY BREAKDOWN"}, []string{"Category", "Amount", "Percentage"})
		for _, c := range SortedTotals(archive.CategoryTotals) {
			rows = append(rows, []string{c.Name, c.Amount.StringFixed(2), share(c.Amount, archive.TotalSpent)})
		}
		rows = append(rows, []string{})
	}

	if len(archive.Transactions) > 0 {
		rows = append(rows, []string{"DETAILED TRANSACTIONS"},
			[]string{"Date", "Time", "Amount", "Description", "Category", "Merchant", "Status"})
		for _, tx := range archive.Transactions {
			rows = append(rows, []string{
				tx.Date.Format("2006-01-02"),
				tx.Date.Format("15:04:05"),
				tx.Amount.StringFixed(2),
				tx.Description,
				categoryOrDefault(tx.Category),
				tx.Merchant.Name,
				tx.Status,
			})
		}
	}

	if err := csvWriter.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write monthly csv: %w", err)
	}
	return nil
}

// GenerateTransactionsCSV writes one row per transaction.
func GenerateTransactionsCSV(transactions []models.Transaction, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.Write([]string{"ID", "Date", "Amount", "Description", "Category", "Merchant", "Status", "Tags"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, tx := range transactions {
		row := []string{
			tx.ID,
			tx.Date.Format(time.RFC3339),
			tx.Amount.StringFixed(2),
			tx.Description,
			categoryOrDefault(tx.Category),
			tx.Merchant.Name,
			tx.Status,
			strings.Join(tx.Tags, ";"),
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("failed to write transaction %s: %w", tx.ID, err)
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// GenerateComparisonCSV creates a comparison CSV for multiple months
func GenerateComparisonCSV(archives []models.MonthlyArchive, writer io.Writer) error {
	if len(archives) == 0 {
		return fmt.Errorf("no archives provided for comparison")
	}

	metrics := []struct {
		name  string
		value func(models.MonthlyArchive) decimal.Decimal
	}{
		{"Total Spent", func(a models.MonthlyArchive) decimal.Decimal { return a.TotalSpent }},
		{"Total Income", func(a models.MonthlyArchive) decimal.Decimal { return a.TotalIncome }},
		{"Total Transactions", func(a models.MonthlyArchive) decimal.Decimal { return decimal.NewFromInt(int64(a.TotalTransactions)) }},
		{"Average Transaction", func(a models.MonthlyArchive) decimal.Decimal { return a.AvgTransaction }},
		{"Highest Transaction", func(a models.MonthlyArchive) decimal.Decimal { return a.HighestTransaction }},
		{"Days with Spending", func(a models.MonthlyArchive) decimal.Decimal { return decimal.NewFromInt(int64(a.DaysWithSpending)) }},
	}

	rows := [][]string{{"Monthly Comparison Report"}, {}}
	header := []string{"Metric"}
	for _, a := range archives {
		header = append(header, a.MonthName+" "+strconv.Itoa(a.Year))
	}
	rows = append(rows, header)
	for _, m := range metrics {
		row := []string{m.name}
		for _, a := range archives {
			row = append(row, m.value(a).String())
		}
		rows = append(rows, row)
	}

	if len(archives) > 1 {
		rows = append(rows, []string{}, []string{"GROWTH RATES (Month-over-Month)"})
		growthHeader := []string{"Metric"}
		for i := 1; i < len(archives); i++ {
			growthHeader = append(growthHeader, fmt.Sprintf("%s vs %s", archives[i].MonthName, archives[i-1].MonthName))
		}
		rows = append(rows, growthHeader)
		for _, m := range metrics[:4] {
			row := []string{m.name}
			for i := 1; i < len(archives); i++ {
				row = append(row, growth(m.value(archives[i]), m.value(archives[i-1])))
			}
			rows = append(rows, row)
		}
	}

	csvWriter := csv.NewWriter(writer)
	if err := csvWriter.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write comparison csv: %w", err)
	}
	return nil
}

// Total is a named amount.
type Total struct {
	Name   string
	Amount decimal.Decimal
}

// SortedTotals orders totals by amount, highest first, then by name.
func SortedTotals(totals map[string]decimal.Decimal) []Total {
	out := make([]Total, 0, len(totals))
	for name, amt := range totals {
		out = append(out, Total{Name: name, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func share(part, whole decimal.Decimal) string {
	if whole.IsZero() {
		return "0.0%"
	}
	return part.Mul(hundred).Div(whole).StringFixed(1) + "%"
}

func growth(current, previous decimal.Decimal) string {
	if previous.IsZero() {
		return "N/A"
	}
	return current.Sub(previous).Mul(hundred).Div(previous).StringFixed(1) + "%"
}

func categoryOrDefault(category string) string {
	if category == "" {
		return "Uncategorized"
	}
	return category
}
