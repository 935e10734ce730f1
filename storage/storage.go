// Package storage persists small string records, one per namespace.
package storage

import (
	"context"
	"sync"
)

// Store holds at most one value. Get reports absence with ok=false and a nil error.
type Store interface {
	Get(ctx context.Context) (value string, ok bool, err error)
	Set(ctx context.Context, value string) error
	Delete(ctx context.Context) error
}

// Factory opens the store of a namespace.
type Factory func(namespace string) (Store, error)

var _ Store = (*MemStore)(nil)

type MemStore struct {
	lk    sync.RWMutex
	value *string
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) Get(_ context.Context) (string, bool, error) {
	m.lk.RLock()
	defer m.lk.RUnlock()
	if m.value == nil {
		return "", false, nil
	}
	return *m.value, true, nil
}

func (m *MemStore) Set(_ context.Context, value string) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.value = &value
	return nil
}

func (m *MemStore) Delete(_ context.Context) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.value = nil
	return nil
}

// MemFactory returns a factory handing out one shared MemStore per namespace.
func MemFactory() Factory {
	var lk sync.Mutex
	stores := make(map[string]*MemStore)
	return func(namespace string) (Store, error) {
		lk.Lock()
		defer lk.Unlock()
		s, ok := stores[namespace]
		if !ok {
			s = NewMemStore()
			stores[namespace] = s
		}
		return s, nil
	}
}
