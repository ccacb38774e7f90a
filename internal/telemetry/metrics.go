package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics exposes the application's instruments. A nil *Metrics records nothing.
type Metrics struct {
	snapshots       metric.Int64Counter
	snapshotErrors  metric.Int64Counter
	snapshotRecords metric.Int64Histogram
	fetchDuration   metric.Float64Histogram
	expensesCreated metric.Int64Counter
	commands        metric.Int64Counter
}

// NewMetrics creates the instruments on the given provider.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(ServiceName)

	snapshots, err := meter.Int64Counter("expense_snapshots_delivered_total",
		metric.WithDescription("Snapshots delivered to subscribers"))
	if err != nil {
		return nil, err
	}
	snapshotErrors, err := meter.Int64Counter("expense_snapshot_errors_total",
		metric.WithDescription("Snapshot fetches that failed"))
	if err != nil {
		return nil, err
	}
	snapshotRecords, err := meter.Int64Histogram("expense_snapshot_records",
		metric.WithDescription("Records per delivered snapshot"))
	if err != nil {
		return nil, err
	}
	fetchDuration, err := meter.Float64Histogram("expense_snapshot_fetch_seconds",
		metric.WithDescription("Time to load a snapshot from the store"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	expensesCreated, err := meter.Int64Counter("expenses_created_total")
	if err != nil {
		return nil, err
	}
	commands, err := meter.Int64Counter("bot_commands_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		snapshots:       snapshots,
		snapshotErrors:  snapshotErrors,
		snapshotRecords: snapshotRecords,
		fetchDuration:   fetchDuration,
		expensesCreated: expensesCreated,
		commands:        commands,
	}, nil
}

// RecordSnapshot records a delivered snapshot.
func (m *Metrics) RecordSnapshot(ctx context.Context, records int, took time.Duration) {
	if m == nil {
		return
	}
	m.snapshots.Add(ctx, 1)
	m.snapshotRecords.Record(ctx, int64(records))
	m.fetchDuration.Record(ctx, took.Seconds())
}

// RecordSnapshotError records a failed snapshot fetch.
func (m *Metrics) RecordSnapshotError(ctx context.Context) {
	if m == nil {
		return
	}
	m.snapshotErrors.Add(ctx, 1)
}

// RecordExpenseCreated records a stored expense.
func (m *Metrics) RecordExpenseCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.expensesCreated.Add(ctx, 1)
}

// RecordCommand records a handled bot command.
func (m *Metrics) RecordCommand(ctx context.Context, command string) {
	if m == nil {
		return
	}
	m.commands.Add(ctx, 1, metric.WithAttributes(attribute.String("command", command)))
}
