package core

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/internal/iocache"
	"github.com/huangsam/archflow/internal/telemetry"
	"github.com/huangsam/archflow/schema"
	"github.com/rs/zerolog"
)

// historySlotVersion is the payload format stored under the history key.
const historySlotVersion = 1

// slotLocks serializes read-modify-write cycles of every HistoryStore
// sharing one slot store within the process.
var slotLocks sync.Map // contract.SlotStore -> *sync.Mutex

func slotLock(store contract.SlotStore) *sync.Mutex {
	if store == nil {
		return &sync.Mutex{}
	}
	mu, _ := slotLocks.LoadOrStore(store, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// HistoryStore is a capped, most-recent-first list of completed analyses.
// It is persisted as one JSON array in a slot store. Record and Clear re-read
// the slot first, so stores opened over the same slot do not drop each
// other's entries.
type HistoryStore struct {
	mu       sync.Mutex
	slotMu   *sync.Mutex
	store    contract.SlotStore
	entries  []schema.HistoryEntry
	capacity int
	log      zerolog.Logger
	now      func() time.Time
}

var _ contract.HistoryRecorder = &HistoryStore{} // Compile-time check

// NewHistoryStore loads history from store. A missing slot is an empty
// history. A corrupt or unreadable slot is logged and also treated as empty.
// store may be nil for a purely in-memory history.
func NewHistoryStore(store contract.SlotStore, log zerolog.Logger) *HistoryStore {
	hs := &HistoryStore{
		store:    store,
		slotMu:   slotLock(store),
		capacity: schema.HistoryCapacity,
		log:      log,
		now:      time.Now,
	}
	hs.slotMu.Lock()
	defer hs.slotMu.Unlock()
	if err := hs.load(); err != nil {
		hs.log.Warn().Err(err).Msg("starting with empty history")
	}
	return hs
}

// refresh reloads the slot before a write. On failure the in-memory entries
// are kept. Callers hold hs.slotMu and hs.mu.
func (hs *HistoryStore) refresh() {
	if err := hs.load(); err != nil {
		hs.log.Warn().Err(err).Msg("writing over unreadable history")
	}
}

func (hs *HistoryStore) load() error {
	if hs.store == nil {
		return nil
	}
	data, _, _, err := hs.store.Get(schema.HistoryKey)
	if iocache.IsNotFound(err) {
		hs.entries = nil
		return nil
	}
	telemetry.RecordHistoryOp("load", err)
	if err != nil {
		return &schema.PersistenceError{Key: schema.HistoryKey, Op: "load", Err: err}
	}

	var entries []schema.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return &schema.PersistenceError{Key: schema.HistoryKey, Op: "load", Err: fmt.Errorf("corrupt payload: %w", err)}
	}
	if len(entries) > hs.capacity {
		entries = entries[:hs.capacity]
	}
	hs.entries = entries
	return nil
}

// Record prepends entry and evicts the oldest entries beyond capacity.
// The in-memory history is updated even when persisting fails.
func (hs *HistoryStore) Record(entry schema.HistoryEntry) error {
	hs.slotMu.Lock()
	defer hs.slotMu.Unlock()
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.refresh()

	entries := make([]schema.HistoryEntry, 0, hs.capacity)
	entries = append(entries, entry)
	for _, e := range hs.entries {
		if len(entries) == hs.capacity {
			break
		}
		entries = append(entries, e)
	}
	hs.entries = entries

	err := hs.persist()
	telemetry.RecordHistoryOp("record", err)
	return err
}

func (hs *HistoryStore) persist() error {
	if hs.store == nil {
		return nil
	}
	data, err := json.Marshal(hs.entries)
	if err != nil {
		return &schema.PersistenceError{Key: schema.HistoryKey, Op: "save", Err: err}
	}
	if err := hs.store.Set(schema.HistoryKey, data, historySlotVersion, hs.now().Unix()); err != nil {
		return &schema.PersistenceError{Key: schema.HistoryKey, Op: "save", Err: err}
	}
	return nil
}

// List returns the entries, most recent first.
func (hs *HistoryStore) List() []schema.HistoryEntry {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return slices.Clone(hs.entries)
}

// Get returns the most recent entry with the given project id.
func (hs *HistoryStore) Get(id string) (schema.HistoryEntry, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	for _, e := range hs.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return schema.HistoryEntry{}, fmt.Errorf("%w: %s", schema.ErrEntryNotFound, id)
}

// Len returns the number of entries.
func (hs *HistoryStore) Len() int {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return len(hs.entries)
}

// Clear removes every entry and the persisted slot.
func (hs *HistoryStore) Clear() error {
	hs.slotMu.Lock()
	defer hs.slotMu.Unlock()
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.entries = nil
	if hs.store == nil {
		return nil
	}
	err := hs.store.Delete(schema.HistoryKey)
	telemetry.RecordHistoryOp("clear", err)
	if err != nil {
		return &schema.PersistenceError{Key: schema.HistoryKey, Op: "clear", Err: err}
	}
	return nil
}

// Summarize totals feature counts across the history.
func (hs *HistoryStore) Summarize() schema.HistorySummary {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	return schema.SummarizeHistory(hs.entries)
}
