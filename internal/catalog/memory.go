package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps the catalog in process.
type MemoryStore struct {
	mu       sync.RWMutex
	services map[uuid.UUID]Service
	variants map[uuid.UUID]Variant
}

// NewMemoryStore returns an empty catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		services: make(map[uuid.UUID]Service),
		variants: make(map[uuid.UUID]Variant),
	}
}

func (m *MemoryStore) ListServices(ctx context.Context, activeOnly bool) ([]Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Service, 0, len(m.services))
	for _, svc := range m.services {
		if activeOnly && !svc.Active {
			continue
		}
		svc.Variants = []Variant{}
		for _, v := range m.variants {
			if v.ServiceID == svc.ID && (!activeOnly || v.Active) {
				svc.Variants = append(svc.Variants, v)
			}
		}
		slices.SortFunc(svc.Variants, func(a, b Variant) int { return a.SortOrder - b.SortOrder })
		out = append(out, svc)
	}
	slices.SortFunc(out, func(a, b Service) int { return a.SortOrder - b.SortOrder })
	return out, nil
}

func (m *MemoryStore) GetVariant(ctx context.Context, serviceID, variantID uuid.UUID) (Variant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.variants[variantID]
	if !ok || !v.Active || v.ServiceID != serviceID {
		return Variant{}, ErrNotFound
	}
	if svc, ok := m.services[serviceID]; !ok || !svc.Active {
		return Variant{}, ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) CreateService(ctx context.Context, svc *Service) error {
	if strings.TrimSpace(svc.Name) == "" {
		return ErrInvalidVariant
	}
	if svc.ID == uuid.Nil {
		svc.ID = uuid.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *svc
	stored.Variants = nil
	m.services[svc.ID] = stored
	return nil
}

func (m *MemoryStore) CreateVariant(ctx context.Context, v *Variant) error {
	if err := v.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.services[v.ServiceID]; !ok {
		return ErrNotFound
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	m.variants[v.ID] = *v
	return nil
}
