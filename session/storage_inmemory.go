package session

import (
	"context"
	"sync"
)

// InMemoryStorage keeps the record in process memory
type InMemoryStorage struct {
	mu     sync.RWMutex
	record Record
}

var _ Storage = (*InMemoryStorage)(nil)

// NewInMemoryStorage creates an empty in-memory storage
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{}
}

// NewInMemoryStorageWith creates an in-memory storage holding record
func NewInMemoryStorageWith(record Record) *InMemoryStorage {
	return &InMemoryStorage{record: copyRecord(record)}
}

func (m *InMemoryStorage) Load(_ context.Context) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyRecord(m.record), nil
}

func (m *InMemoryStorage) Save(_ context.Context, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = copyRecord(record)
	return nil
}

func (m *InMemoryStorage) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record = Record{}
	return nil
}

// Create a copy of the record to avoid external modifications
func copyRecord(r Record) Record {
	if r.User != nil {
		r.User = append([]byte(nil), r.User...)
	}
	return r
}
