package iocache

import (
	"sync"
	"time"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"
)

// memorySlotStore keeps slots in process memory for the none backend.
type memorySlotStore struct {
	mu    sync.RWMutex
	slots map[string]schema.SlotRecord
}

var _ contract.SlotStore = &memorySlotStore{} // Compile-time check

func newMemorySlotStore() *memorySlotStore {
	return &memorySlotStore{slots: make(map[string]schema.SlotRecord)}
}

// Get retrieves a copy of the value stored under key.
func (ms *memorySlotStore) Get(key string) ([]byte, int, int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	rec, ok := ms.slots[key]
	if !ok {
		return nil, 0, 0, ErrSlotNotFound
	}
	return append([]byte(nil), rec.Value...), rec.Version, rec.Timestamp, nil
}

// Set stores a copy of value under key.
func (ms *memorySlotStore) Set(key string, value []byte, version int, timestamp int64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.slots[key] = schema.SlotRecord{
		Key:       key,
		Value:     append([]byte(nil), value...),
		Version:   version,
		Timestamp: timestamp,
	}
	return nil
}

// Delete removes key if present.
func (ms *memorySlotStore) Delete(key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.slots, key)
	return nil
}

// GetStatus reports the none backend as disconnected.
func (ms *memorySlotStore) GetStatus() (schema.SlotStatus, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	status := schema.SlotStatus{
		Backend:    string(schema.NoneBackend),
		TotalSlots: len(ms.slots),
	}
	for _, rec := range ms.slots {
		ts := time.Unix(rec.Timestamp, 0)
		if status.LastWriteTime.IsZero() || ts.After(status.LastWriteTime) {
			status.LastWriteTime = ts
		}
		if status.OldestWriteTime.IsZero() || ts.Before(status.OldestWriteTime) {
			status.OldestWriteTime = ts
		}
	}
	return status, nil
}

// Close drops all slots.
func (ms *memorySlotStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	clear(ms.slots)
	return nil
}
