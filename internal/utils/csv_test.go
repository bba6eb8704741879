package utils

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArchive() models.MonthlyArchive {
	month := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	day := func(d int) time.Time { return time.Date(2025, 2, d, 10, 0, 0, 0, time.UTC) }
	txs := []models.Transaction{
		{ID: "a", Amount: decimal.NewFromInt(-60), Category: "Groceries", Date: day(3), Status: models.StatusCompleted},
		{ID: "b", Amount: decimal.NewFromInt(-40), Category: "Dining Out", Date: day(5), Status: models.StatusCompleted},
		{ID: "c", Amount: decimal.NewFromInt(1000), Category: "Salary", Date: day(1), Status: models.StatusCompleted},
	}
	return models.NewMonthlyArchive(month, txs, month.AddDate(0, 1, 0))
}

func readAll(t *testing.T, data []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestGenerateMonthlyCSV(t *testing.T) {
	archive := sampleArchive()
	var buf bytes.Buffer
	require.NoError(t, GenerateMonthlyCSV(&archive, &buf))

	rows := readAll(t, buf.Bytes())
	assert.Equal(t, []string{"Month", "February 2025"}, rows[1])
	assert.Contains(t, rows, []string{"Total Spent", "100.00"})
	assert.Contains(t, rows, []string{"Net", "900.00"})
	assert.Contains(t, rows, []string{"Groceries", "60.00", "60.0%"})
	assert.Contains(t, rows, []string{"Dining Out", "40.00", "40.0%"})
	assert.Contains(t, rows, []string{"2025-02-01", "10:00:00", "1000.00", "", "Salary", "", models.StatusCompleted})
}

func TestGenerateTransactionsCSV(t *testing.T) {
	txs := []models.Transaction{{
		ID:     "t1",
		Amount: decimal.RequireFromString("-12.5"),
		Date:   time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		Tags:   []string{"msg:5", "food"},
	}}
	var buf bytes.Buffer
	require.NoError(t, GenerateTransactionsCSV(txs, &buf))

	rows := readAll(t, buf.Bytes())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"t1", "2025-03-01T09:30:00Z", "-12.50", "", "Uncategorized", "", "", "msg:5;food"}, rows[1])
}

func TestGenerateComparisonCSV(t *testing.T) {
	feb := sampleArchive()
	mar := feb
	mar.MonthName, mar.TotalSpent = "March", decimal.NewFromInt(150)

	var buf bytes.Buffer
	require.NoError(t, GenerateComparisonCSV([]models.MonthlyArchive{feb, mar}, &buf))

	rows := readAll(t, buf.Bytes())
	assert.Contains(t, rows, []string{"Metric", "February 2025", "March 2025"})
	assert.Contains(t, rows, []string{"Total Spent", "100", "150"})
	assert.Contains(t, rows, []string{"Total Spent", "50.0%"})

	assert.Error(t, GenerateComparisonCSV(nil, &buf))
}

func TestSortedTotals(t *testing.T) {
	got := SortedTotals(map[string]decimal.Decimal{
		"b": decimal.NewFromInt(5),
		"a": decimal.NewFromInt(5),
		"c": decimal.NewFromInt(9),
	})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].Name, got[1].Name, got[2].Name})
}
