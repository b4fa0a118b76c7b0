package schema

import "time"

// SlotStatus represents the status of a history slot store.
type SlotStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalSlots      int       `json:"total_slots"`
	LastWriteTime   time.Time `json:"last_write_time"`
	OldestWriteTime time.Time `json:"oldest_write_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// SlotRecord represents a row from the slot table.
type SlotRecord struct {
	Key       string
	Value     []byte
	Version   int
	Timestamp int64
}
