package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-tracker/internal/models"
)

const (
	// NoTransactions is the name reported by an extreme that no record replaced.
	NoTransactions = "No transactions"
	// UnnamedExpense replaces empty record names in extrema.
	UnnamedExpense = "Unnamed"
)

// ExtremaMode selects how the highest and lowest records are tracked.
type ExtremaMode int

const (
	// ExtremaLiteral starts highest at a zero sentinel and lowest at an
	// unbounded sentinel, so an input whose prices are all zero keeps the
	// highest sentinel.
	ExtremaLiteral ExtremaMode = iota
	// ExtremaStrict seeds both extrema from the first record, so any
	// non-empty input reports real records for both.
	ExtremaStrict
)

// String implements fmt.Stringer.
func (m ExtremaMode) String() string {
	switch m {
	case ExtremaStrict:
		return "strict"
	default:
		return "literal"
	}
}

// ParseExtremaMode parses "literal" or "strict" (case-insensitive).
func ParseExtremaMode(s string) (ExtremaMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "literal":
		return ExtremaLiteral, nil
	case "strict":
		return ExtremaStrict, nil
	default:
		return ExtremaLiteral, fmt.Errorf("unknown extrema mode %q", s)
	}
}

// Extreme is the highest or lowest priced record of a snapshot.
type Extreme struct {
	ExpenseID string
	Name      string
	Amount    decimal.Decimal
	// Sentinel is true when no record replaced the initial value.
	Sentinel bool
	// Unbounded marks the lowest sentinel, whose amount is +Inf.
	Unbounded bool
}

// Summary holds the statistics of one snapshot.
type Summary struct {
	Count   int
	Total   decimal.Decimal
	Highest Extreme
	Lowest  Extreme
}

func highestSentinel() Extreme {
	return Extreme{Name: NoTransactions, Amount: decimal.Zero, Sentinel: true}
}

func lowestSentinel() Extreme {
	return Extreme{Name: NoTransactions, Amount: decimal.Zero, Sentinel: true, Unbounded: true}
}

func extremeOf(e *models.Expense) Extreme {
	name := e.Name
	if name == "" {
		name = UnnamedExpense
	}
	return Extreme{ExpenseID: e.ID, Name: name, Amount: e.Price}
}

// Summarize reduces records to count, total and price extrema in one pass.
// Comparisons are strict, so on ties the earliest record wins.
func Summarize(records []models.Expense, mode ExtremaMode) Summary {
	sum := Summary{
		Count:   len(records),
		Total:   decimal.Zero,
		Highest: highestSentinel(),
		Lowest:  lowestSentinel(),
	}

	for i := range records {
		rec := &records[i]
		sum.Total = sum.Total.Add(rec.Price)

		if mode == ExtremaStrict && i == 0 {
			sum.Highest = extremeOf(rec)
			sum.Lowest = extremeOf(rec)
			continue
		}

		if rec.Price.GreaterThan(sum.Highest.Amount) {
			sum.Highest = extremeOf(rec)
		}
		if sum.Lowest.Unbounded || rec.Price.LessThan(sum.Lowest.Amount) {
			sum.Lowest = extremeOf(rec)
		}
	}

	return sum
}
