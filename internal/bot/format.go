package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
	appmodels "gitlab.com/yelinaung/expense-tracker/internal/models"
)

const (
	noDateTitle    = "No date"
	unboundedPrice = "—"
)

// escapeHTML escapes special HTML characters for Telegram HTML parse mode.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

func formatPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return noDateTitle
	}
	return t.In(loc).Format(dateLayout)
}

// bucketTitle is the display name of a month bucket. The literal undated
// bucket has an empty label.
func bucketTitle(label string) string {
	if label == "" {
		return noDateTitle
	}
	return label
}

func displayName(name string) string {
	if name == "" {
		return ledger.UnnamedExpense
	}
	return name
}

func formatExtreme(e ledger.Extreme) string {
	if e.Unbounded {
		return fmt.Sprintf("%s (%s)", unboundedPrice, escapeHTML(e.Name))
	}
	return fmt.Sprintf("%s (%s)", formatPrice(e.Amount), escapeHTML(e.Name))
}

// formatSummary renders a summary as an HTML message.
func formatSummary(title string, s ledger.Summary) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "🧾 Transactions: <b>%d</b>\n", s.Count)
	fmt.Fprintf(&sb, "💰 Total: <b>%s</b>\n", formatPrice(s.Total))
	fmt.Fprintf(&sb, "⬆️ Highest: %s\n", formatExtreme(s.Highest))
	fmt.Fprintf(&sb, "⬇️ Lowest: %s", formatExtreme(s.Lowest))
	return sb.String()
}

// formatExpenseDetail renders one expense as an HTML message.
func formatExpenseDetail(e *appmodels.Expense, loc *time.Location) string {
	return fmt.Sprintf(`🔎 <b>%s</b>

💵 Price: %s
📅 Date: %s
📍 Location: %s

<code>%s</code>`,
		escapeHTML(displayName(e.Name)),
		formatPrice(e.Price),
		formatDate(e.Date, loc),
		escapeHTML(e.Location),
		e.ID,
	)
}
