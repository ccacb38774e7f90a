package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
)

// errNothingToChart is returned when no month has a positive total.
var errNothingToChart = errors.New("no expenses to chart")

// GenerateMonthlyChart creates a pie chart of each month's share of the
// total spend. Returns PNG image as bytes.
func GenerateMonthlyChart(buckets []ledger.MonthBucket) ([]byte, error) {
	var values []float64
	var names []string

	for _, bucket := range buckets {
		total := bucket.Total()
		if !total.IsPositive() {
			continue
		}
		names = append(names, bucketTitle(bucket.Label))
		values = append(values, total.InexactFloat64())
	}

	if len(values) == 0 {
		return nil, errNothingToChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: "Spending by Month",
		}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// generateChartFilename creates a name like "chart_2024-03-05.png".
func generateChartFilename(now time.Time) string {
	return fmt.Sprintf("chart_%s.png", now.Format(dateLayout))
}
