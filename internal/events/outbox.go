package events

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/braidbook/pkg/logging"
)

// OutboxEntry represents a pending event.
type OutboxEntry struct {
	ID          uuid.UUID
	AggregateID uuid.UUID
	Type        string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

// NewEntry marshals payload into an entry ready to be written.
func NewEntry(aggregateID uuid.UUID, eventType string, payload any) (OutboxEntry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("events: marshal payload: %w", err)
	}
	return OutboxEntry{
		ID:          uuid.New(),
		AggregateID: aggregateID,
		Type:        eventType,
		Payload:     data,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// DeliveryHandler emits events to downstream transports.
type DeliveryHandler interface {
	Handle(ctx context.Context, entry OutboxEntry) error
}

// Source is what the Deliverer drains.
type Source interface {
	FetchPending(ctx context.Context, limit int32) ([]OutboxEntry, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error)
}

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type querier interface {
	Execer
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// WriteEntry inserts entry through exec. Pass the reservation transaction so
// the event commits or rolls back with the appointment change.
func WriteEntry(ctx context.Context, exec Execer, entry OutboxEntry) error {
	query := `
		INSERT INTO outbox (id, aggregate_id, type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := exec.Exec(ctx, query, entry.ID, entry.AggregateID, entry.Type, []byte(entry.Payload), entry.CreatedAt); err != nil {
		return fmt.Errorf("events: insert outbox: %w", err)
	}
	return nil
}

// OutboxStore reads the PostgreSQL outbox for delivery.
type OutboxStore struct {
	db querier
}

// NewOutboxStore wraps a pool (or any pgx querier).
func NewOutboxStore(db querier) *OutboxStore {
	if db == nil {
		panic("events: pgx pool required")
	}
	return &OutboxStore{db: db}
}

func (s *OutboxStore) FetchPending(ctx context.Context, limit int32) ([]OutboxEntry, error) {
	query := `
		SELECT id, aggregate_id, type, payload, created_at
		FROM outbox
		WHERE delivered_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("events: fetch pending: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var entry OutboxEntry
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.AggregateID, &entry.Type, &payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("events: scan outbox: %w", err)
		}
		entry.Payload = append([]byte(nil), payload...)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *OutboxStore) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE outbox
		SET delivered_at = now()
		WHERE id = $1 AND delivered_at IS NULL
	`
	ct, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("events: mark delivered: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// MemoryOutbox is the in-process outbox used with the memory stores.
type MemoryOutbox struct {
	mu        sync.Mutex
	entries   []OutboxEntry
	delivered map[uuid.UUID]bool
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{delivered: make(map[uuid.UUID]bool)}
}

// Append records entries; callers hold their own write lock so appends land
// in commit order.
func (m *MemoryOutbox) Append(entries ...OutboxEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
}

func (m *MemoryOutbox) FetchPending(ctx context.Context, limit int32) ([]OutboxEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []OutboxEntry
	for _, e := range m.entries {
		if m.delivered[e.ID] {
			continue
		}
		out = append(out, e)
		if limit > 0 && int32(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryOutbox) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delivered[id] || !slices.ContainsFunc(m.entries, func(e OutboxEntry) bool { return e.ID == id }) {
		return false, nil
	}
	m.delivered[id] = true
	return true, nil
}

// Deliverer polls the outbox and invokes the handler.
type Deliverer struct {
	source    Source
	handler   DeliveryHandler
	logger    *logging.Logger
	batchSize int32
	interval  time.Duration
}

func NewDeliverer(source Source, handler DeliveryHandler, logger *logging.Logger) *Deliverer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Deliverer{
		source:    source,
		handler:   handler,
		logger:    logger.Component("outbox"),
		batchSize: 25,
		interval:  2 * time.Second,
	}
}

func (d *Deliverer) WithBatchSize(size int32) *Deliverer {
	if size > 0 {
		d.batchSize = size
	}
	return d
}

func (d *Deliverer) WithInterval(interval time.Duration) *Deliverer {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

// Start blocks until ctx is cancelled.
func (d *Deliverer) Start(ctx context.Context) {
	if d.source == nil || d.handler == nil {
		return
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Drain(ctx)
		}
	}
}

// Drain delivers one batch. Failed entries stay pending for the next tick.
func (d *Deliverer) Drain(ctx context.Context) {
	entries, err := d.source.FetchPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("outbox fetch failed", "error", err)
		return
	}
	for _, entry := range entries {
		if err := d.handler.Handle(ctx, entry); err != nil {
			d.logger.Error("outbox delivery failed", "error", err, "event_id", entry.ID, "type", entry.Type)
			continue
		}
		if ok, err := d.source.MarkDelivered(ctx, entry.ID); err != nil {
			d.logger.Error("failed to mark outbox delivered", "error", err, "event_id", entry.ID)
		} else if ok {
			d.logger.Debug("outbox delivered", "event_id", entry.ID, "type", entry.Type)
		}
	}
}
