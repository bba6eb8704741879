package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/service"
	"fintrack/internal/store"
	"fintrack/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

const uncategorized = "Uncategorized"

// Update kinds reported to the UpdateRecorder.
const (
	kindMessage     = "message"
	kindEdit        = "edit"
	kindCommand     = "command"
	kindCallback    = "callback"
	kindIgnored     = "ignored"
	kindRateLimited = "rate_limited"
)

// EventHandler handles Telegram events
type EventHandler struct {
	Deps
	commands *CommandHandler
	limiter  *limiter

	// keyboard message of each transaction, for edits
	mu      sync.Mutex
	buttons map[string]int
}

// NewEventHandler creates a new event handler
func NewEventHandler(d Deps) *EventHandler {
	d = d.withDefaults()
	return &EventHandler{
		Deps:     d,
		commands: NewCommandHandler(d),
		limiter:  newLimiter(d.RateLimit, d.Burst),
		buttons:  make(map[string]int),
	}
}

// Commands returns the command handler used for slash commands.
func (h *EventHandler) Commands() *CommandHandler { return h.commands }

// Run handles updates until ctx is done or the channel is closed.
func (h *EventHandler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update.
func (h *EventHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		h.HandleMessage(ctx, update.Message)
	case update.EditedMessage != nil:
		h.HandleMessage(ctx, update.EditedMessage)
	case update.CallbackQuery != nil:
		h.HandleCallbackQuery(ctx, update.CallbackQuery)
	default:
		h.Metrics.UpdateHandled(kindIgnored)
	}
}

// HandleMessage handles incoming messages
func (h *EventHandler) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.From.IsBot || !h.Config.IsAuthorizedChat(message.Chat.ID) {
		h.Metrics.UpdateHandled(kindIgnored)
		return
	}
	if !h.limiter.allow(message.From.ID) {
		h.Metrics.UpdateHandled(kindRateLimited)
		h.Log.Warn().Int64("user", message.From.ID).Msg("rate limit exceeded")
		return
	}

	switch {
	case message.IsCommand():
		h.Metrics.UpdateHandled(kindCommand)
		h.commands.Handle(ctx, message)
	case message.EditDate != 0:
		h.Metrics.UpdateHandled(kindEdit)
		h.handleEditedMessage(ctx, message)
	default:
		h.Metrics.UpdateHandled(kindMessage)
		h.handleNewTransaction(ctx, message)
	}
}

func messageTag(messageID int) string { return "msg:" + strconv.Itoa(messageID) }

func author(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// handleNewTransaction records a typed amount as an uncategorized expense.
func (h *EventHandler) handleNewTransaction(ctx context.Context, message *tgbotapi.Message) {
	amount, err := utils.ParseAmount(message.Text)
	if err != nil {
		// not an amount
		return
	}

	name := author(message.From)
	tx, err := h.Store.Transactions.Create(ctx, models.TransactionInput{
		Amount:      amount.Neg(),
		Description: "Expense by " + name,
		Category:    uncategorized,
		Merchant:    models.Merchant{Name: name},
		Date:        h.Now(),
		Status:      models.StatusPending,
		Tags:        []string{messageTag(message.MessageID)},
	})
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to create transaction")
		h.sendText(message.Chat.ID, "Failed to save transaction: "+describe(err))
		return
	}

	h.sendCategorySelection(message.Chat.ID, tx.ID)
}

// sendCategorySelection sends category selection inline keyboard
func (h *EventHandler) sendCategorySelection(chatID int64, transactionID string) {
	msg := tgbotapi.NewMessage(chatID, "Select a category:")
	msg.ReplyMarkup = utils.BuildInlineKeyboard(h.Config.Categories, transactionID)

	sent, err := h.send(msg)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.buttons[transactionID] = sent.MessageID
	h.mu.Unlock()
}

func (h *EventHandler) buttonMessage(transactionID string) (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id, ok := h.buttons[transactionID]
	return id, ok
}

func (h *EventHandler) forgetButtons(transactionID string) {
	h.mu.Lock()
	delete(h.buttons, transactionID)
	h.mu.Unlock()
}

// HandleCallbackQuery handles inline button callbacks
func (h *EventHandler) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil || !h.Config.IsAuthorizedChat(callback.Message.Chat.ID) {
		h.Metrics.UpdateHandled(kindIgnored)
		return
	}
	h.Metrics.UpdateHandled(kindCallback)

	answer := ""
	if cb, ok := utils.ParseCallback(callback.Data); ok {
		switch cb.Action {
		case utils.ActionCategory:
			answer = h.handleCategorySelection(ctx, callback, cb)
		case utils.ActionDelete:
			answer = h.handleTransactionDeletion(ctx, callback, cb.TransactionID)
		}
	}

	// removes the loading state of the button
	h.request(tgbotapi.NewCallback(callback.ID, answer))
}

// transaction returns a transaction from the store, loading it when needed.
func (h *EventHandler) transaction(ctx context.Context, id string) (models.Transaction, error) {
	for _, tx := range h.Store.GetState().Transactions.Items {
		if tx.ID == id {
			return tx, nil
		}
	}
	return h.Store.Transactions.Get(ctx, id)
}

// handleCategorySelection processes category selection
func (h *EventHandler) handleCategorySelection(ctx context.Context, callback *tgbotapi.CallbackQuery, cb utils.Callback) string {
	if cb.Category >= len(h.Config.Categories) {
		return "Unknown category"
	}
	category := utils.CategoryName(h.Config.Categories[cb.Category])

	prior, err := h.transaction(ctx, cb.TransactionID)
	if err != nil {
		h.Log.Warn().Err(err).Str("transaction", cb.TransactionID).Msg("transaction not found")
		return "Transaction not found"
	}

	status := models.StatusCompleted
	tx, err := h.Store.Transactions.Update(ctx, prior.ID, models.TransactionPatch{Category: &category, Status: &status})
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to update category")
		return describe(err)
	}

	if !strings.EqualFold(prior.Category, tx.Category) {
		magnitude := tx.Amount.Abs()
		h.recordSpend(ctx, prior.Category, magnitude.Neg())
		h.recordSpend(ctx, tx.Category, magnitude)
	}

	content := fmt.Sprintf("✅ Added %s to %s category.\n\nTap a different category to change:",
		utils.FormatMoney(tx.Amount.Abs(), h.currency()), tx.Category)
	keyboard := utils.BuildInlineKeyboard(h.Config.Categories, tx.ID)
	edit := tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID, content)
	edit.ReplyMarkup = &keyboard
	_, _ = h.send(edit)
	return ""
}

// handleTransactionDeletion handles transaction deletion via callback
func (h *EventHandler) handleTransactionDeletion(ctx context.Context, callback *tgbotapi.CallbackQuery, transactionID string) string {
	chatID := callback.Message.Chat.ID

	tx, err := h.transaction(ctx, transactionID)
	if err != nil {
		// clean up the keyboard of a transaction that is gone
		h.request(tgbotapi.NewDeleteMessage(chatID, callback.Message.MessageID))
		h.forgetButtons(transactionID)
		return "Transaction not found"
	}

	if err := h.Store.Transactions.Delete(ctx, tx.ID); err != nil && !errors.Is(err, service.ErrNotFound) {
		h.Log.Error().Err(err).Msg("failed to delete transaction")
		return describe(err)
	}
	h.recordSpend(ctx, tx.Category, tx.Amount.Abs().Neg())

	h.request(tgbotapi.NewDeleteMessage(chatID, callback.Message.MessageID))
	h.forgetButtons(tx.ID)

	content := "🗑️ Deleted transaction: " + utils.FormatMoney(tx.Amount.Abs(), h.currency())
	if sent, err := h.send(tgbotapi.NewMessage(chatID, content)); err == nil {
		time.AfterFunc(5*time.Second, func() {
			h.request(tgbotapi.NewDeleteMessage(chatID, sent.MessageID))
		})
	}
	return ""
}

// handleEditedMessage applies an edited amount to the transaction created from the message.
func (h *EventHandler) handleEditedMessage(ctx context.Context, message *tgbotapi.Message) {
	amount, err := utils.ParseAmount(message.Text)
	if err != nil {
		return
	}

	tag := messageTag(message.MessageID)
	var prior models.Transaction
	found := false
	for _, tx := range h.Store.GetState().Transactions.Items {
		if tx.HasTag(tag) {
			prior, found = tx, true
			break
		}
	}
	if !found {
		return
	}

	newAmount := amount.Neg()
	tx, err := h.Store.Transactions.Update(ctx, prior.ID, models.TransactionPatch{Amount: &newAmount})
	if err != nil {
		h.Log.Error().Err(err).Msg("failed to update transaction amount")
		h.sendText(message.Chat.ID, "Failed to update transaction: "+describe(err))
		return
	}
	h.recordSpend(ctx, tx.Category, tx.Amount.Abs().Sub(prior.Amount.Abs()))

	buttonID, ok := h.buttonMessage(tx.ID)
	if !ok {
		return
	}
	content := "Select a category:"
	if tx.Category != uncategorized {
		content = fmt.Sprintf("✅ Updated to %s in %s category.\n\nTap a different category to change:",
			utils.FormatMoney(amount, h.currency()), tx.Category)
	}
	keyboard := utils.BuildInlineKeyboard(h.Config.Categories, tx.ID)
	edit := tgbotapi.NewEditMessageText(message.Chat.ID, buttonID, content)
	edit.ReplyMarkup = &keyboard
	_, _ = h.send(edit)
}

// budgetCategory finds the first budget category named like category.
func budgetCategory(budgets []models.Budget, category string) (budgetID, categoryID string, ok bool) {
	for _, b := range budgets {
		for _, c := range b.Categories {
			if strings.EqualFold(c.Name, category) {
				return b.ID, c.ID, true
			}
		}
	}
	return "", "", false
}

// recordSpend reports delta to the budget category named like category, if any.
func (h *EventHandler) recordSpend(ctx context.Context, category string, delta decimal.Decimal) {
	if delta.IsZero() || category == uncategorized {
		return
	}
	budgetID, categoryID, ok := budgetCategory(h.Store.GetState().Budgets.Budgets, category)
	if !ok {
		return
	}
	if _, err := h.Store.Budgets.RecordSpend(ctx, budgetID, categoryID, delta); err != nil {
		h.Log.Warn().Err(err).Str("category", category).Str("delta", delta.String()).Msg("failed to record budget spend")
	}
}

// WatchErrors posts a warning to the chat whenever a store reports a new
// error, until ctx is done. The subscription is in place when it returns.
func (h *EventHandler) WatchErrors(ctx context.Context) {
	alerts := make(chan string, 16)
	last := make(map[store.Slice]string)

	unsubscribe := h.Store.Subscribe(func(s store.State) {
		for _, slice := range store.Slices {
			msg := s.Status(slice).Error
			if msg == last[slice] {
				continue
			}
			last[slice] = msg
			if msg == "" {
				continue
			}
			select {
			case alerts <- fmt.Sprintf("⚠️ %s: %s", slice, msg):
			default:
				h.Log.Warn().Str("store", string(slice)).Msg("dropped error alert")
			}
		}
	})

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case text := <-alerts:
				h.sendText(h.Config.ChatID, text)
			}
		}
	}()
}
