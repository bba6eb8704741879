package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

const defaultHistory = 10

// CommandHandler handles bot commands
type CommandHandler struct {
	Deps
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(d Deps) *CommandHandler {
	return &CommandHandler{Deps: d.withDefaults()}
}

// Handle runs the command carried by message.
func (h *CommandHandler) Handle(ctx context.Context, message *tgbotapi.Message) {
	chatID, args := message.Chat.ID, strings.TrimSpace(message.CommandArguments())
	switch message.Command() {
	case "totals":
		h.SendTotals(ctx, chatID)
	case "history":
		h.SendTransactionHistory(ctx, chatID, args)
	case "budget":
		h.SendBudget(ctx, chatID)
	case "goals":
		h.SendGoals(ctx, chatID, args)
	case "portfolio":
		h.SendPortfolio(ctx, chatID)
	case "filter":
		h.ApplyFilter(ctx, chatID, args)
	case "compare":
		h.SendMonthlyComparison(ctx, chatID)
	case "export":
		h.ExportData(ctx, chatID, args)
	case "help", "start":
		h.SendHelp(chatID)
	default:
		h.sendText(chatID, "Unknown command. Use /help to see what I can do.")
	}
}

// ensureTransactions loads the first page unless it was loaded before.
func (h *CommandHandler) ensureTransactions(ctx context.Context) error {
	if h.Store.GetState().Transactions.Page > 0 {
		return nil
	}
	return h.Store.Transactions.Fetch(ctx)
}

// SendTotals sends current transaction totals
func (h *CommandHandler) SendTotals(ctx context.Context, chatID int64) {
	if err := h.Store.Transactions.Fetch(ctx); err != nil {
		h.Log.Error().Err(err).Msg("failed to fetch transactions")
		h.sendText(chatID, "Error calculating totals: "+describe(err))
		return
	}
	ts := h.Store.GetState().Transactions
	cur := h.currency()

	var b strings.Builder
	b.WriteString("📊 *SUMMARY*\n")
	b.WriteString("═══════════════════\n\n")
	if len(ts.Items) == 0 {
		b.WriteString("❌ No transactions found\n")
		h.sendMarkdown(chatID, b.String())
		return
	}

	fmt.Fprintf(&b, "💰 Income: *%s*\n", escape(utils.FormatMoney(ts.TotalIncome, cur)))
	fmt.Fprintf(&b, "💸 Expenses: *%s*\n", escape(utils.FormatMoney(ts.TotalExpenses, cur)))
	fmt.Fprintf(&b, "🧮 Net: *%s*\n\n", escape(utils.FormatMoney(ts.Net, cur)))

	if len(ts.ByCategory) > 0 {
		b.WriteString("📈 *Category Breakdown:*\n")
		for _, c := range utils.SortedTotals(ts.ByCategory) {
			pct := percent(c.Amount, ts.TotalExpenses)
			fmt.Fprintf(&b, "   %s *%s* (%.1f%%)\n   %s\n",
				escape(c.Name), escape(utils.FormatMoney(c.Amount, cur)), pct, utils.ProgressBar(pct))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "📊 %d of %d transactions loaded\n", len(ts.Items), ts.Total)
	b.WriteString("\n🔄 Use /history to see recent transactions")
	h.sendMarkdown(chatID, b.String())
}

func percent(part, whole decimal.Decimal) float64 {
	if whole.IsZero() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// SendTransactionHistory sends recent transaction history under the active filter
func (h *CommandHandler) SendTransactionHistory(ctx context.Context, chatID int64, args string) {
	limit := defaultHistory
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			h.sendText(chatID, "Usage: /history [count]")
			return
		}
		limit = n
	}
	if err := h.ensureTransactions(ctx); err != nil {
		h.Log.Error().Err(err).Msg("failed to fetch transaction history")
		h.sendText(chatID, "Error fetching transaction history: "+describe(err))
		return
	}

	ts := h.Store.GetState().Transactions
	for len(ts.Filtered) < limit && ts.HasMore {
		if err := h.Store.Transactions.FetchMore(ctx); err != nil {
			h.Log.Warn().Err(err).Msg("failed to fetch more transactions")
			break
		}
		ts = h.Store.GetState().Transactions
	}
	if len(ts.Filtered) == 0 {
		h.sendText(chatID, "No transactions found.")
		return
	}

	cur := h.currency()
	var b strings.Builder
	b.WriteString("*📜 Recent Transactions:*\n")
	for i, tx := range ts.Filtered {
		if i == limit {
			break
		}
		fmt.Fprintf(&b, "%d. *%s* %s (%s) - %s\n",
			i+1,
			escape(utils.FormatMoney(tx.Amount, cur)),
			escape(tx.Merchant.Name),
			escape(tx.Category),
			tx.Date.Format("Jan 2, 15:04"))
	}
	if !ts.Filter.IsZero() {
		b.WriteString("\n🔎 Filter active, /filter clear to remove it")
	}
	h.sendMarkdown(chatID, b.String())
}

// SendBudget sends every budget with its category usage.
func (h *CommandHandler) SendBudget(ctx context.Context, chatID int64) {
	if err := h.Store.Budgets.Fetch(ctx); err != nil {
		h.Log.Error().Err(err).Msg("failed to fetch budgets")
		h.sendText(chatID, "Error fetching budgets: "+describe(err))
		return
	}
	bs := h.Store.GetState().Budgets
	if len(bs.Budgets) == 0 {
		h.sendText(chatID, "No budgets found.")
		return
	}

	cur := h.currency()
	var b strings.Builder
	b.WriteString("💼 *BUDGETS*\n\n")
	for _, budget := range bs.Budgets {
		fmt.Fprintf(&b, "*%s* (%s)\n", escape(budget.Name), budget.Period)
		for _, c := range budget.Categories {
			fmt.Fprintf(&b, "   %s: %s / %s (%.1f%%)\n   %s",
				escape(c.Name),
				escape(utils.FormatMoney(c.SpentAmount, cur)),
				escape(utils.FormatMoney(c.BudgetedAmount, cur)),
				c.PercentageUsed,
				utils.ProgressBar(c.PercentageUsed))
			if c.RemainingAmount.IsNegative() {
				fmt.Fprintf(&b, " ⚠️ over by %s", escape(utils.FormatMoney(c.RemainingAmount.Abs(), cur)))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "💵 Budgeted: *%s*\n", escape(utils.FormatMoney(bs.TotalBudget, cur)))
	fmt.Fprintf(&b, "💸 Spent: *%s*\n", escape(utils.FormatMoney(bs.TotalSpent, cur)))
	fmt.Fprintf(&b, "🧮 Remaining: *%s*\n", escape(utils.FormatMoney(bs.TotalRemaining, cur)))
	h.sendMarkdown(chatID, b.String())
}

// SendGoals lists savings goals. "/goals <n> <amount>" contributes to goal n first.
func (h *CommandHandler) SendGoals(ctx context.Context, chatID int64, args string) {
	if err := h.Store.Budgets.FetchGoals(ctx); err != nil {
		h.Log.Error().Err(err).Msg("failed to fetch goals")
		h.sendText(chatID, "Error fetching goals: "+describe(err))
		return
	}

	cur := h.currency()
	if args != "" {
		fields := strings.Fields(args)
		goals := h.Store.GetState().Budgets.Goals
		if len(fields) != 2 {
			h.sendText(chatID, "Usage: /goals [number amount]")
			return
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 1 || n > len(goals) {
			h.sendText(chatID, "Unknown goal number.")
			return
		}
		amount, err := utils.ParseAmount(fields[1])
		if err != nil {
			h.sendText(chatID, "Invalid amount: "+err.Error())
			return
		}
		goal, err := h.Store.Budgets.ContributeGoal(ctx, goals[n-1].ID, amount)
		if err != nil {
			h.sendText(chatID, "Contribution failed: "+describe(err))
			return
		}
		h.sendText(chatID, fmt.Sprintf("🎯 %s is now at %s of %s",
			goal.Title, utils.FormatMoney(goal.CurrentAmount, cur), utils.FormatMoney(goal.TargetAmount, cur)))
	}

	goals := h.Store.GetState().Budgets.Goals
	if len(goals) == 0 {
		h.sendText(chatID, "No goals found.")
		return
	}
	var b strings.Builder
	b.WriteString("🎯 *GOALS*\n\n")
	for i, g := range goals {
		fmt.Fprintf(&b, "%d. *%s* %s / %s (%.1f%%) _%s_\n   %s\n",
			i+1,
			escape(g.Title),
			escape(utils.FormatMoney(g.CurrentAmount, cur)),
			escape(utils.FormatMoney(g.TargetAmount, cur)),
			g.Progress,
			g.Status,
			utils.ProgressBar(g.Progress))
	}
	b.WriteString("\nContribute with /goals <number> <amount>")
	h.sendMarkdown(chatID, b.String())
}

// SendPortfolio refreshes quotes and sends the positions.
func (h *CommandHandler) SendPortfolio(ctx context.Context, chatID int64) {
	if err := h.Store.Investments.Fetch(ctx); err != nil {
		h.Log.Error().Err(err).Msg("failed to fetch investments")
		h.sendText(chatID, "Error fetching portfolio: "+describe(err))
		return
	}
	if _, err := h.Store.Investments.RefreshPrices(ctx); err != nil {
		h.Log.Warn().Err(err).Msg("failed to refresh prices")
	}

	inv := h.Store.GetState().Investments
	if len(inv.Items) == 0 {
		h.sendText(chatID, "No investments found.")
		return
	}

	cur := h.currency()
	var b strings.Builder
	b.WriteString("📈 *PORTFOLIO*\n\n")
	for _, it := range inv.Items {
		fmt.Fprintf(&b, "*%s* %s × %s = %s (%+.2f%%)\n",
			escape(it.Symbol),
			it.Shares.String(),
			escape(utils.FormatMoney(it.CurrentPrice, cur)),
			escape(utils.FormatMoney(it.CurrentValue, cur)),
			it.GainLossPercentage)
	}
	fmt.Fprintf(&b, "\n💼 Value: *%s*\n", escape(utils.FormatMoney(inv.TotalValue, cur)))
	fmt.Fprintf(&b, "💵 Cost: *%s*\n", escape(utils.FormatMoney(inv.TotalCost, cur)))
	fmt.Fprintf(&b, "📊 Gain: *%s* (%+.2f%%)\n", escape(utils.FormatMoney(inv.TotalGain, cur)), inv.TotalGainPercentage)
	h.sendMarkdown(chatID, b.String())
}

// ApplyFilter sets, clears or shows the transaction filter.
func (h *CommandHandler) ApplyFilter(ctx context.Context, chatID int64, args string) {
	switch args {
	case "":
		f := h.Store.GetState().Transactions.Filter
		if f.IsZero() {
			h.sendText(chatID, "No filter set.\nUsage: /filter category=Groceries kind=expense min=10 max=100 from=2025-03-01 to=2025-03-31 merchant=market")
			return
		}
		h.sendText(chatID, "Active filter: "+DescribeFilter(f))
		return
	case "clear":
		h.Store.Transactions.ClearFilter()
		h.sendText(chatID, "Filter cleared.")
		return
	}

	f, err := ParseFilter(args, time.UTC)
	if err != nil {
		h.sendText(chatID, err.Error())
		return
	}
	h.Store.Transactions.SetFilter(f)
	if err := h.ensureTransactions(ctx); err != nil {
		h.sendText(chatID, "Error fetching transactions: "+describe(err))
		return
	}

	ts := h.Store.GetState().Transactions
	sum := decimal.Zero
	for _, tx := range ts.Filtered {
		sum = sum.Add(tx.Amount)
	}
	h.sendText(chatID, fmt.Sprintf("🔎 %s\n%d transactions match, net %s",
		DescribeFilter(f), len(ts.Filtered), utils.FormatMoney(sum, h.currency())))
}

// ExportData sends a CSV export: the filtered transactions by default,
// "compare" for recent archives, or "YYYY-MM" for one archived month.
func (h *CommandHandler) ExportData(ctx context.Context, chatID int64, args string) {
	switch {
	case args == "":
		if err := h.ensureTransactions(ctx); err != nil {
			h.sendText(chatID, "Error fetching transactions: "+describe(err))
			return
		}
		var buf bytes.Buffer
		if err := utils.GenerateTransactionsCSV(h.Store.GetState().Transactions.Filtered, &buf); err != nil {
			h.Log.Error().Err(err).Msg("failed to generate CSV")
			h.sendText(chatID, "⚠️ CSV generation failed.")
			return
		}
		h.sendDocument(chatID, "transactions.csv", buf.Bytes(), "📊 Transactions export")

	case args == "compare":
		h.exportComparison(ctx, chatID)

	default:
		month, err := time.Parse("2006-01", args)
		if err != nil {
			h.sendText(chatID, "Usage: /export [YYYY-MM|compare]")
			return
		}
		archive, err := h.Store.Transactions.ArchiveMonth(ctx, month)
		if err != nil {
			h.sendText(chatID, "❌ Could not archive "+args+": "+describe(err))
			return
		}
		h.exportArchive(chatID, &archive)
	}
}

func (h *CommandHandler) exportArchive(chatID int64, archive *models.MonthlyArchive) {
	var buf bytes.Buffer
	if err := utils.GenerateMonthlyCSV(archive, &buf); err != nil {
		h.Log.Error().Err(err).Msg("failed to generate CSV")
		h.sendText(chatID, "⚠️ CSV generation failed. Data is still archived.")
		return
	}
	filename := fmt.Sprintf("expenses_%s_%d.csv", archive.MonthName, archive.Year)
	caption := fmt.Sprintf("📊 Monthly expense data for %s %d\n💾 %d transactions, %s spent",
		archive.MonthName, archive.Year, archive.TotalTransactions, utils.FormatMoney(archive.TotalSpent, h.currency()))
	h.sendDocument(chatID, filename, buf.Bytes(), caption)
}

// recentArchives loads up to n archives, oldest first.
func (h *CommandHandler) recentArchives(ctx context.Context, n int) ([]models.MonthlyArchive, error) {
	if err := h.Store.Transactions.FetchArchives(ctx, n); err != nil {
		return nil, err
	}
	newest := h.Store.GetState().Transactions.Archives
	out := make([]models.MonthlyArchive, 0, len(newest))
	for i := len(newest) - 1; i >= 0; i-- {
		out = append(out, newest[i])
	}
	return out, nil
}

func (h *CommandHandler) exportComparison(ctx context.Context, chatID int64) {
	archives, err := h.recentArchives(ctx, 3)
	if err != nil || len(archives) == 0 {
		h.sendText(chatID, "❌ No archived months found for comparison.")
		return
	}
	var buf bytes.Buffer
	if err := utils.GenerateComparisonCSV(archives, &buf); err != nil {
		h.Log.Error().Err(err).Msg("failed to generate comparison CSV")
		h.sendText(chatID, "⚠️ CSV generation failed.")
		return
	}
	h.sendDocument(chatID, "comparison.csv", buf.Bytes(), "📊 Monthly comparison")
}

// SendMonthlyComparison compares recent months
func (h *CommandHandler) SendMonthlyComparison(ctx context.Context, chatID int64) {
	archives, err := h.recentArchives(ctx, 3)
	if err != nil || len(archives) == 0 {
		h.sendText(chatID, "❌ No archived months found for comparison.\nArchives are created on the first day of every month.")
		return
	}

	cur := h.currency()
	var b strings.Builder
	b.WriteString("📊 *MONTHLY COMPARISON*\n\n")
	for i, a := range archives {
		fmt.Fprintf(&b, "*%s %d*: %s in %d transactions", a.MonthName, a.Year,
			escape(utils.FormatMoney(a.TotalSpent, cur)), a.TotalTransactions)
		if i > 0 && !archives[i-1].TotalSpent.IsZero() {
			change := percent(a.TotalSpent.Sub(archives[i-1].TotalSpent), archives[i-1].TotalSpent)
			fmt.Fprintf(&b, " (%+.1f%%)", change)
		}
		b.WriteString("\n")
	}
	h.sendMarkdown(chatID, b.String())
}

// MonthlyReport archives the previous month and posts its report and CSV.
func (h *CommandHandler) MonthlyReport(ctx context.Context) error {
	chatID := h.Config.ChatID
	now := h.Now()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)

	archive, err := h.Store.Transactions.ArchiveMonth(ctx, month)
	if err != nil {
		h.sendText(chatID, "⚠️ Monthly archive failed: "+describe(err))
		return fmt.Errorf("failed to archive %s: %w", models.MonthID(month), err)
	}

	cur := h.currency()
	var b strings.Builder
	b.WriteString("📅 *MONTHLY EXPENSE REPORT*\n")
	fmt.Fprintf(&b, "%s %d\n", archive.MonthName, archive.Year)
	b.WriteString("════════════════════════════\n\n")
	b.WriteString("📊 *Month Summary:*\n")
	fmt.Fprintf(&b, "   • Total transactions: %d\n", archive.TotalTransactions)
	fmt.Fprintf(&b, "   • Total spent: *%s*\n", escape(utils.FormatMoney(archive.TotalSpent, cur)))
	fmt.Fprintf(&b, "   • Total income: %s\n", escape(utils.FormatMoney(archive.TotalIncome, cur)))
	fmt.Fprintf(&b, "   • Net: %s\n", escape(utils.FormatMoney(archive.Net, cur)))
	fmt.Fprintf(&b, "   • Average per expense: %s\n\n", escape(utils.FormatMoney(archive.AvgTransaction, cur)))

	if len(archive.CategoryTotals) > 0 {
		b.WriteString("🏆 *Top Categories:*\n")
		medals := []string{"🥇", "🥈", "🥉"}
		for i, c := range utils.SortedTotals(archive.CategoryTotals) {
			if i == len(medals) {
				break
			}
			fmt.Fprintf(&b, "   %s %s: %s (%.1f%%)\n", medals[i], escape(c.Name),
				escape(utils.FormatMoney(c.Amount, cur)), percent(c.Amount, archive.TotalSpent))
		}
		b.WriteString("\n")
	}

	b.WriteString("🎯 *Month Insights:*\n")
	fmt.Fprintf(&b, "   • Biggest expense: %s\n", escape(utils.FormatMoney(archive.HighestTransaction, cur)))
	fmt.Fprintf(&b, "   • Smallest expense: %s\n", escape(utils.FormatMoney(archive.LowestTransaction, cur)))
	fmt.Fprintf(&b, "   • Days with spending: %d\n", archive.DaysWithSpending)
	h.sendMarkdown(chatID, b.String())

	h.exportArchive(chatID, &archive)
	h.Log.Info().Str("month", archive.ID).Msg("monthly report sent")
	return nil
}

func (h *CommandHandler) sendDocument(chatID int64, name string, data []byte, caption string) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := h.send(doc); err != nil {
		h.sendText(chatID, "⚠️ Failed to send "+name+".")
	}
}

// SendHelp sends help information
func (h *CommandHandler) SendHelp(chatID int64) {
	helpText := `*📊 Finance Tracker Bot*

*💸 Expenses:*
Send an amount (e.g. 12.50) to record an expense, then pick a category.
Edit the message to change the amount.

*🏠 Basic Commands:*
• /totals - Income, expenses and categories
• /history [count] - Recent transactions
• /budget - Budget usage by category
• /goals [number amount] - Savings goals, optionally contribute
• /portfolio - Investments with fresh prices
• /help - Show this help

*🔎 Filtering & Export:*
• /filter key=value ... - Filter transactions
• /filter clear - Remove the filter
• /compare - Compare archived months
• /export - Export filtered transactions
• /export 2025-01 - Export one month
• /export compare - Export comparison CSV`
	h.sendMarkdown(chatID, helpText)
}
