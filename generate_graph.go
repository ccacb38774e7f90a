//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/expense-tracker/internal/bot"
	"gitlab.com/yelinaung/expense-tracker/internal/ledger"
	"gitlab.com/yelinaung/expense-tracker/internal/models"
)

func main() {
	day := func(m time.Month, d int) time.Time { return time.Date(2026, m, d, 0, 0, 0, 0, time.UTC) }

	expenses := []models.Expense{
		{Name: "Groceries", Price: decimal.NewFromFloat(150.50), Date: day(time.January, 4)},
		{Name: "Dinner", Price: decimal.NewFromFloat(130.50), Date: day(time.January, 19)},
		{Name: "Train pass", Price: decimal.NewFromFloat(60.00), Date: day(time.February, 1)},
		{Name: "Concert", Price: decimal.NewFromFloat(25.00), Date: day(time.February, 14)},
		{Name: "Electricity", Price: decimal.NewFromFloat(120.00), Date: day(time.March, 2)},
	}

	buckets := ledger.GroupByMonth(expenses, ledger.GroupOptions{Location: time.UTC})
	chartData, err := bot.GenerateMonthlyChart(buckets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example monthly spending chart")
}
