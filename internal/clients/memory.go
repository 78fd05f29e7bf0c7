package clients

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps clients in process, indexed by phone.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]Client
	byPhone map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[uuid.UUID]Client),
		byPhone: make(map[string]uuid.UUID),
	}
}

func (m *MemoryStore) UpsertByPhone(ctx context.Context, contact Contact, now time.Time) (Client, error) {
	c, err := contact.normalized()
	if err != nil {
		return Client{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byPhone[c.Phone]; ok {
		updated := merge(m.byID[id], c, now)
		m.byID[id] = updated
		return updated, nil
	}
	client := newClient(c, now)
	m.byID[client.ID] = client
	m.byPhone[client.Phone] = client.ID
	return client, nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return c, nil
}
