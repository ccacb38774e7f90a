package ledger

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-tracker/internal/models"
)

// UndatedPolicy decides where records without a usable date are grouped.
type UndatedPolicy int

const (
	// UndatedUnscheduled collects undated records in a trailing
	// "Unscheduled" bucket.
	UndatedUnscheduled UndatedPolicy = iota
	// UndatedLiteral collects undated records in a leading bucket with an
	// empty label, matching the behaviour of the mobile client.
	UndatedLiteral
)

// String implements fmt.Stringer.
func (p UndatedPolicy) String() string {
	switch p {
	case UndatedLiteral:
		return "literal"
	default:
		return "unscheduled"
	}
}

// ParseUndatedPolicy parses "unscheduled" or "literal" (case-insensitive).
func ParseUndatedPolicy(s string) (UndatedPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unscheduled":
		return UndatedUnscheduled, nil
	case "literal":
		return UndatedLiteral, nil
	default:
		return UndatedUnscheduled, fmt.Errorf("unknown undated policy %q", s)
	}
}

// GroupOptions configures GroupByMonth.
type GroupOptions struct {
	// Location is the timezone used to decide a record's calendar month.
	// Nil means UTC.
	Location *time.Location
	Undated  UndatedPolicy
}

// MonthBucket holds the records that share one month label.
type MonthBucket struct {
	Label    string
	Undated  bool
	Expenses []models.Expense
}

// Total sums the prices of the bucket's records.
func (b MonthBucket) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range b.Expenses {
		total = total.Add(b.Expenses[i].Price)
	}
	return total
}

// GroupByMonth partitions records by calendar month and returns the buckets
// ordered oldest first. Records keep their snapshot order inside a bucket.
// The input slice is not modified.
func GroupByMonth(records []models.Expense, opts GroupOptions) []MonthBucket {
	buckets := make([]MonthBucket, 0)
	index := make(map[string]int)

	for i := range records {
		label, undated := bucketLabel(&records[i], opts)
		pos, ok := index[label]
		if !ok {
			pos = len(buckets)
			index[label] = pos
			buckets = append(buckets, MonthBucket{Label: label, Undated: undated})
		}
		buckets[pos].Expenses = append(buckets[pos].Expenses, records[i])
	}

	slices.SortStableFunc(buckets, func(a, b MonthBucket) int {
		switch {
		case a.Undated && b.Undated:
			return 0
		case a.Undated:
			return undatedRank(opts.Undated)
		case b.Undated:
			return -undatedRank(opts.Undated)
		}
		return CompareMonthLabels(a.Label, b.Label)
	})

	return buckets
}

// SortedLabels returns the bucket labels in display order.
func SortedLabels(buckets []MonthBucket) []string {
	labels := make([]string, len(buckets))
	for i := range buckets {
		labels[i] = buckets[i].Label
	}
	return labels
}

func bucketLabel(e *models.Expense, opts GroupOptions) (string, bool) {
	if !e.HasDate() {
		if opts.Undated == UndatedLiteral {
			return "", true
		}
		return UnscheduledLabel, true
	}
	return MonthLabel(e.Date, opts.Location), false
}

// undatedRank is the comparison result of an undated bucket against a dated
// one: literal buckets lead, unscheduled buckets trail.
func undatedRank(p UndatedPolicy) int {
	if p == UndatedLiteral {
		return -1
	}
	return 1
}
