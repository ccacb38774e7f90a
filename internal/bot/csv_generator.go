package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
)

// GenerateExpensesCSV writes every expense of the buckets as CSV, in
// bucket order.
func GenerateExpensesCSV(buckets []ledger.MonthBucket, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "Date", "Name", "Price", "Location", "Month"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, bucket := range buckets {
		for i := range bucket.Expenses {
			e := &bucket.Expenses[i]
			date := ""
			if e.HasDate() {
				date = e.Date.In(loc).Format(dateLayout)
			}

			row := []string{
				e.ID,
				date,
				e.Name,
				e.Price.StringFixed(2),
				e.Location,
				bucket.Label,
			}
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// generateReportFilename creates a name like "expenses_2024-03-05.csv".
func generateReportFilename(now time.Time) string {
	return fmt.Sprintf("expenses_%s.csv", now.Format(dateLayout))
}
