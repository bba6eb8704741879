// Package utils holds the text, keyboard and money helpers of the bot.
package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// Callback data prefixes. Telegram limits callback data to 64 bytes, so
// categories are referenced by index.
const (
	callbackCategory = "cat"
	callbackDelete   = "del"
)

// Callback actions returned by ParseCallback.
const (
	ActionCategory = "category"
	ActionDelete   = "delete"
)

var (
	errAmountFormat   = errors.New("invalid amount format")
	errAmountPositive = errors.New("amount must be positive")
)

// ParseAmount validates and parses an amount typed by a user. A comma is
// accepted as the decimal separator. The result is rounded to cents.
func ParseAmount(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "$")
	text = strings.ReplaceAll(text, ",", ".")
	if text == "" || strings.ContainsAny(text, "eE") {
		return decimal.Zero, errAmountFormat
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, errAmountFormat
	}
	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, errAmountPositive
	}
	return amount, nil
}

// FormatMoney renders amount in currency, e.g. "$1,374.04". Unknown currency
// codes fall back to the plain amount followed by the code.
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		return strings.TrimSpace(amount.StringFixed(2) + " " + currency)
	}
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}

// CategoryName strips the trailing emoji of a keyboard label.
func CategoryName(label string) string {
	return strings.TrimRightFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ')'
	})
}

// ProgressBar draws percent as ten cells, one per 10%.
func ProgressBar(percent float64) string {
	bars := int(percent / 10)
	if bars == 0 && percent > 0 {
		bars = 1
	}
	if bars > 10 {
		bars = 10
	}
	if bars < 0 {
		bars = 0
	}
	return strings.Repeat("█", bars) + strings.Repeat("░", 10-bars)
}

// BuildInlineKeyboard builds inline keyboard for category selection
func BuildInlineKeyboard(categories []string, transactionID string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	// 2 buttons per row
	for i := 0; i < len(categories); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(categories[i], categoryData(i, transactionID)),
		}
		if i+1 < len(categories) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(categories[i+1], categoryData(i+1, transactionID)))
		}
		rows = append(rows, row)
	}

	deleteBtn := tgbotapi.NewInlineKeyboardButtonData(
		"🗑️ Delete Transaction",
		callbackDelete+":"+transactionID,
	)
	rows = append(rows, []tgbotapi.InlineKeyboardButton{deleteBtn})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func categoryData(index int, transactionID string) string {
	return fmt.Sprintf("%s:%d:%s", callbackCategory, index, transactionID)
}

// Callback is a decoded inline button press.
type Callback struct {
	Action        string
	Category      int
	TransactionID string
}

// ParseCallback decodes callback data produced by BuildInlineKeyboard.
func ParseCallback(data string) (Callback, bool) {
	parts := strings.SplitN(data, ":", 3)
	switch {
	case len(parts) == 2 && parts[0] == callbackDelete && parts[1] != "":
		return Callback{Action: ActionDelete, TransactionID: parts[1]}, true
	case len(parts) == 3 && parts[0] == callbackCategory && parts[2] != "":
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 0 {
			return Callback{}, false
		}
		return Callback{Action: ActionCategory, Category: idx, TransactionID: parts[2]}, true
	}
	return Callback{}, false
}
