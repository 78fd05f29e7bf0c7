package calendar

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/braidbook/internal/availability"
	"github.com/wolfman30/braidbook/internal/interval"
)

// MemoryStore keeps rules and blocks in process.
type MemoryStore struct {
	mu     sync.RWMutex
	rules  map[uuid.UUID]availability.Rule
	blocks map[uuid.UUID]availability.Block
}

// NewMemoryStore returns an empty in-memory calendar.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rules:  make(map[uuid.UUID]availability.Rule),
		blocks: make(map[uuid.UUID]availability.Block),
	}
}

func (m *MemoryStore) ListRules(ctx context.Context) ([]availability.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]availability.Rule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sortRules(out)
	return out, nil
}

func (m *MemoryStore) ListActiveRules(ctx context.Context, weekday time.Weekday) ([]availability.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []availability.Rule
	for _, r := range m.rules {
		if r.Active && weekdayOf(r) == weekday {
			out = append(out, r)
		}
	}
	sortRules(out)
	return out, nil
}

func (m *MemoryStore) CreateRule(ctx context.Context, rule *availability.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.ID] = *rule
	return nil
}

func (m *MemoryStore) UpdateRule(ctx context.Context, rule availability.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[rule.ID]; !ok {
		return ErrNotFound
	}
	m.rules[rule.ID] = rule
	return nil
}

func (m *MemoryStore) DeleteRule(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return ErrNotFound
	}
	delete(m.rules, id)
	return nil
}

func (m *MemoryStore) ListBlocksOverlapping(ctx context.Context, iv interval.Interval) ([]availability.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []availability.Block
	for _, b := range m.blocks {
		if interval.Overlaps(b.Interval(), iv) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b availability.Block) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out, nil
}

func (m *MemoryStore) CreateBlock(ctx context.Context, block *availability.Block) error {
	if err := validateBlock(*block); err != nil {
		return err
	}
	if block.ID == uuid.Nil {
		block.ID = uuid.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[block.ID] = *block
	return nil
}

func (m *MemoryStore) DeleteBlock(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blocks[id]; !ok {
		return ErrNotFound
	}
	delete(m.blocks, id)
	return nil
}

func sortRules(rules []availability.Rule) {
	slices.SortFunc(rules, func(a, b availability.Rule) int {
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek - b.DayOfWeek
		}
		if a.StartTime != b.StartTime {
			if a.StartTime < b.StartTime {
				return -1
			}
			return 1
		}
		return 0
	})
}
