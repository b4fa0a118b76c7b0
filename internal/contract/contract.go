// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/archflow/schema"
)

// ServiceClient defines the HTTP contract with the remote ingest and analysis service.
// Responses are returned raw so that status handling stays in the core pipeline.
type ServiceClient interface {
	// Upload sends the archive as a multipart form under the "project" field.
	Upload(ctx context.Context, archive schema.Archive) (schema.RawResponse, error)

	// GenerateGraph asks the service to analyze a previously uploaded project.
	GenerateGraph(ctx context.Context, projectID string) (schema.RawResponse, error)

	// FetchGraph retrieves the last graph generated for a project.
	FetchGraph(ctx context.Context, projectID string) (schema.RawResponse, error)
}

// StoreManager defines the interface for managing slot stores.
// This allows the persistence layer to be mocked for testing.
type StoreManager interface {
	GetHistoryStore() SlotStore
}

// SlotStore defines a keyed blob store. Each key holds one versioned value.
type SlotStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	Delete(key string) error
	GetStatus() (schema.SlotStatus, error)
	Close() error
}

// HistoryRecorder accepts completed analyses.
type HistoryRecorder interface {
	Record(entry schema.HistoryEntry) error
}
