package iocache

import (
	"github.com/huangsam/archflow/internal/contract"
	"github.com/huangsam/archflow/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetHistoryStore() contract.SlotStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SlotStore)
	return store
}

// MockSlotStore is a mock implementation of SlotStore for testing.
type MockSlotStore struct {
	mock.Mock
}

var _ contract.SlotStore = &MockSlotStore{} // Compile-time check

// Get implements the SlotStore interface.
func (m *MockSlotStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the SlotStore interface.
func (m *MockSlotStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Delete implements the SlotStore interface.
func (m *MockSlotStore) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

// GetStatus implements the SlotStore interface.
func (m *MockSlotStore) GetStatus() (schema.SlotStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.SlotStatus), args.Error(1)
}

// Close implements the SlotStore interface.
func (m *MockSlotStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
