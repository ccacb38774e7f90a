// Package snapshot delivers a user's full expense list to subscribers,
// once on subscribe and again after every change.
package snapshot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"gitlab.com/yelinaung/expense-tracker/internal/logger"
	"gitlab.com/yelinaung/expense-tracker/internal/models"
	"gitlab.com/yelinaung/expense-tracker/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LoadErrorMessage is what listeners receive when a snapshot cannot be loaded.
const LoadErrorMessage = "Unable to load expenses."

var (
	// ErrClosed is returned by Subscribe after Close.
	ErrClosed = errors.New("snapshot hub is closed")
	// ErrNilListener is returned when Subscribe is called without a listener.
	ErrNilListener = errors.New("snapshot listener is required")
)

// Listener receives snapshots. Calls to one listener are never concurrent.
type Listener interface {
	OnSnapshot(records []models.Expense)
	OnError(msg string)
}

// Fetcher loads the full record set owned by a user.
type Fetcher interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Expense, error)
}

// Option configures a Hub.
type Option func(*Hub)

// WithMetrics records deliveries and fetch latency.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

// Hub fans store changes out to per-user subscriptions. It implements
// repository.ChangeNotifier so the in-memory store can drive it directly.
type Hub struct {
	fetcher Fetcher
	metrics *telemetry.Metrics
	tracer  trace.Tracer

	mu     sync.Mutex
	subs   map[int64]map[uint64]*Subscription
	nextID uint64
	closed bool
	wg     sync.WaitGroup
}

// NewHub creates a Hub that reads snapshots from fetcher.
func NewHub(fetcher Fetcher, opts ...Option) *Hub {
	h := &Hub{
		fetcher: fetcher,
		tracer:  otel.Tracer("expense-tracker/snapshot"),
		subs:    make(map[int64]map[uint64]*Subscription),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers l for userID's records. The first snapshot is
// delivered asynchronously right away. The subscription ends when ctx is
// cancelled or Unsubscribe is called.
func (h *Hub) Subscribe(ctx context.Context, userID int64, l Listener) (*Subscription, error) {
	if l == nil {
		return nil, ErrNilListener
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	h.nextID++
	sub := &Subscription{
		id:       h.nextID,
		userID:   userID,
		hub:      h,
		listener: l,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	sub.signal()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uint64]*Subscription)
	}
	h.subs[userID][sub.id] = sub
	h.wg.Add(1)
	h.mu.Unlock()

	go sub.run(ctx)

	logger.Log.Debug().
		Str("user_hash", logger.HashUserID(userID)).
		Uint64("subscription", sub.id).
		Msg("Snapshot subscription started")

	return sub, nil
}

// Notify schedules a fresh snapshot for every subscription of userID.
// Bursts of notifications collapse into a single fetch.
func (h *Hub) Notify(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs[userID] {
		sub.signal()
	}
}

// NotifyAll schedules a fresh snapshot for every subscription, used after
// the change feed reconnects and may have missed events.
func (h *Hub) NotifyAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, byID := range h.subs {
		for _, sub := range byID {
			sub.signal()
		}
	}
}

// Subscribers returns the number of live subscriptions for userID.
func (h *Hub) Subscribers(userID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Close ends every subscription and waits for in-flight deliveries.
// It must not be called from inside a Listener.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*Subscription
	for _, byID := range h.subs {
		for _, sub := range byID {
			all = append(all, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range all {
		sub.Unsubscribe()
	}
	h.wg.Wait()
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	byID := h.subs[sub.userID]
	delete(byID, sub.id)
	if len(byID) == 0 {
		delete(h.subs, sub.userID)
	}
}

// Subscription is a live registration returned by Hub.Subscribe.
type Subscription struct {
	id       uint64
	userID   int64
	hub      *Hub
	listener Listener

	wake    chan struct{}
	done    chan struct{}
	once    sync.Once
	stopped atomic.Bool
}

// Unsubscribe stops delivery. It is safe to call more than once and from
// inside the listener. No new delivery starts after it returns.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.stopped.Store(true)
		close(s.done)
		s.hub.remove(s)
	})
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// UserID returns the subscribed user.
func (s *Subscription) UserID() int64 {
	return s.userID
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) run(ctx context.Context) {
	defer s.hub.wg.Done()
	defer s.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.wake:
			s.deliver(ctx)
		}
	}
}

func (s *Subscription) deliver(ctx context.Context) {
	h := s.hub
	start := time.Now()

	fetchCtx, span := h.tracer.Start(ctx, "snapshot.fetch")
	records, err := h.fetcher.ListByUser(fetchCtx, s.userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
	}
	span.End()

	if s.stopped.Load() || ctx.Err() != nil {
		return
	}

	if err != nil {
		h.metrics.RecordSnapshotError(ctx)
		logger.Log.Error().Err(err).
			Str("user_hash", logger.HashUserID(s.userID)).
			Msg("Failed to load snapshot")
		s.listener.OnError(LoadErrorMessage)
		return
	}

	h.metrics.RecordSnapshot(ctx, len(records), time.Since(start))
	s.listener.OnSnapshot(records)
}
