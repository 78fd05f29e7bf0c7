package appointments

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/events"
	"github.com/wolfman30/braidbook/internal/interval"
)

// MemoryRepository keeps appointments in process. Reservations are serialized
// by a mutex and buffer their writes until fn returns successfully.
type MemoryRepository struct {
	reserveMu sync.Mutex

	mu      sync.RWMutex
	byID    map[uuid.UUID]Appointment
	byToken map[string]uuid.UUID

	blocks availability.BlockSource
	outbox *events.MemoryOutbox
}

// NewMemoryRepository creates a repository; blocks is consulted by the
// conflict guard and outbox receives committed events (either may be nil).
func NewMemoryRepository(blocks availability.BlockSource, outbox *events.MemoryOutbox) *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]Appointment),
		byToken: make(map[string]uuid.UUID),
		blocks:  blocks,
		outbox:  outbox,
	}
}

func (r *MemoryRepository) ListAppointmentsOverlapping(ctx context.Context, iv interval.Interval) ([]availability.Occupancy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return occupancies(r.byID, nil, iv), nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepository) GetByToken(ctx context.Context, token string) (Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[token]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) ListBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Appointment
	for _, a := range r.byID {
		if !a.ScheduledStart.Before(from) && a.ScheduledStart.Before(to) {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.reserveMu.Lock()
	defer r.reserveMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byToken, a.ManagementToken)
	return nil
}

func (r *MemoryRepository) Reserve(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	r.reserveMu.Lock()
	defer r.reserveMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{repo: r, staged: make(map[uuid.UUID]Appointment)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	r.mu.Lock()
	for id, a := range tx.staged {
		if prev, ok := r.byID[id]; ok && prev.ManagementToken != a.ManagementToken {
			delete(r.byToken, prev.ManagementToken)
		}
		r.byID[id] = a
		r.byToken[a.ManagementToken] = id
	}
	r.mu.Unlock()
	if r.outbox != nil && len(tx.events) > 0 {
		r.outbox.Append(tx.events...)
	}
	return nil
}

type memoryTx struct {
	repo   *MemoryRepository
	staged map[uuid.UUID]Appointment
	events []events.OutboxEntry
}

func (t *memoryTx) lookup(id uuid.UUID) (Appointment, bool) {
	if a, ok := t.staged[id]; ok {
		return a, true
	}
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	a, ok := t.repo.byID[id]
	return a, ok
}

func (t *memoryTx) ListAppointmentsOverlapping(ctx context.Context, iv interval.Interval) ([]availability.Occupancy, error) {
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()
	return occupancies(t.repo.byID, t.staged, iv), nil
}

func (t *memoryTx) ListBlocksOverlapping(ctx context.Context, iv interval.Interval) ([]availability.Block, error) {
	if t.repo.blocks == nil {
		return nil, nil
	}
	return t.repo.blocks.ListBlocksOverlapping(ctx, iv)
}

func (t *memoryTx) Get(ctx context.Context, id uuid.UUID) (Appointment, error) {
	a, ok := t.lookup(id)
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (t *memoryTx) GetByToken(ctx context.Context, token string) (Appointment, error) {
	for _, a := range t.staged {
		if a.ManagementToken == token {
			return a, nil
		}
	}
	t.repo.mu.RLock()
	id, ok := t.repo.byToken[token]
	t.repo.mu.RUnlock()
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return t.Get(ctx, id)
}

func (t *memoryTx) Insert(ctx context.Context, appt *Appointment) error {
	if _, err := t.GetByToken(ctx, appt.ManagementToken); err == nil {
		return ErrDuplicateToken
	}
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	t.staged[appt.ID] = *appt
	return nil
}

func (t *memoryTx) Update(ctx context.Context, appt *Appointment) error {
	if _, ok := t.lookup(appt.ID); !ok {
		return ErrNotFound
	}
	t.staged[appt.ID] = *appt
	return nil
}

func (t *memoryTx) Emit(ctx context.Context, entry events.OutboxEntry) error {
	t.events = append(t.events, entry)
	return nil
}

// occupancies merges staged over committed and keeps time-holding
// appointments overlapping iv.
func occupancies(committed, staged map[uuid.UUID]Appointment, iv interval.Interval) []availability.Occupancy {
	var out []availability.Occupancy
	consider := func(a Appointment) {
		if a.Status.HoldsTime() && interval.Overlaps(a.Interval(), iv) {
			out = append(out, a.Occupancy())
		}
	}
	for id, a := range committed {
		if _, ok := staged[id]; ok {
			continue
		}
		consider(a)
	}
	for _, a := range staged {
		consider(a)
	}
	slices.SortFunc(out, func(a, b availability.Occupancy) int {
		return a.Interval.Start.Compare(b.Interval.Start)
	})
	return out
}

func sortByStart(appts []Appointment) {
	slices.SortFunc(appts, func(a, b Appointment) int {
		return a.ScheduledStart.Compare(b.ScheduledStart)
	})
}
