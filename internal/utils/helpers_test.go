package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"12.50", "12.5", false},
		{" 7 ", "7", false},
		{"3,99", "3.99", false},
		{"$45", "45", false},
		{"10.005", "10.01", false},
		{"0", "", true},
		{"-5", "", true},
		{"1e3", "", true},
		{"lunch", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,374.04", FormatMoney(decimal.RequireFromString("1374.04"), "USD"))
	assert.Equal(t, "-$45.30", FormatMoney(decimal.RequireFromString("-45.3"), "usd"))
	assert.Equal(t, "$0.00", FormatMoney(decimal.Zero, "USD"))
	assert.Equal(t, "12.50 XYZ1", FormatMoney(decimal.RequireFromString("12.5"), "XYZ1"))
}

func TestCategoryName(t *testing.T) {
	assert.Equal(t, "Groceries", CategoryName("Groceries 🛒"))
	assert.Equal(t, "Dining Out", CategoryName("Dining Out 🍽️"))
	assert.Equal(t, "Other", CategoryName("Other"))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "░░░░░░░░░░", ProgressBar(0))
	assert.Equal(t, "█░░░░░░░░░", ProgressBar(3))
	assert.Equal(t, "█████░░░░░", ProgressBar(55))
	assert.Equal(t, "██████████", ProgressBar(110))
}

func TestKeyboardCallbacksRoundTrip(t *testing.T) {
	categories := []string{"Groceries 🛒", "Dining Out 🍽️", "Other 🗂️"}
	txID := "0b6f1a52-3f5e-4a8e-9d1c-2c0d7e4f9a11"

	kb := BuildInlineKeyboard(categories, txID)
	require.Len(t, kb.InlineKeyboard, 3)
	assert.Len(t, kb.InlineKeyboard[0], 2)
	assert.Len(t, kb.InlineKeyboard[1], 1)

	second := kb.InlineKeyboard[0][1]
	require.NotNil(t, second.CallbackData)
	assert.LessOrEqual(t, len(*second.CallbackData), 64)
	cb, ok := ParseCallback(*second.CallbackData)
	require.True(t, ok)
	assert.Equal(t, Callback{Action: ActionCategory, Category: 1, TransactionID: txID}, cb)

	del := kb.InlineKeyboard[2][0]
	cb, ok = ParseCallback(*del.CallbackData)
	require.True(t, ok)
	assert.Equal(t, Callback{Action: ActionDelete, TransactionID: txID}, cb)
}

func TestParseCallbackRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "cat", "cat:x:id", "cat:-1:id", "del:", "category_Food_12"} {
		_, ok := ParseCallback(data)
		assert.False(t, ok, data)
	}
}
