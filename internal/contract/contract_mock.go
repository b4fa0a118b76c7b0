package contract

import (
	"context"

	"github.com/huangsam/archflow/schema"
	"github.com/stretchr/testify/mock"
)

// MockServiceClient is a mock implementation of ServiceClient for testing.
type MockServiceClient struct {
	mock.Mock
}

var _ ServiceClient = &MockServiceClient{} // Compile-time check

// Upload implements the ServiceClient interface.
func (m *MockServiceClient) Upload(ctx context.Context, archive schema.Archive) (schema.RawResponse, error) {
	args := m.Called(ctx, archive)
	return args.Get(0).(schema.RawResponse), args.Error(1)
}

// GenerateGraph implements the ServiceClient interface.
func (m *MockServiceClient) GenerateGraph(ctx context.Context, projectID string) (schema.RawResponse, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(schema.RawResponse), args.Error(1)
}

// FetchGraph implements the ServiceClient interface.
func (m *MockServiceClient) FetchGraph(ctx context.Context, projectID string) (schema.RawResponse, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(schema.RawResponse), args.Error(1)
}

// MockHistoryRecorder is a mock implementation of HistoryRecorder for testing.
type MockHistoryRecorder struct {
	mock.Mock
}

var _ HistoryRecorder = &MockHistoryRecorder{} // Compile-time check

// Record implements the HistoryRecorder interface.
func (m *MockHistoryRecorder) Record(entry schema.HistoryEntry) error {
	args := m.Called(entry)
	return args.Error(0)
}
