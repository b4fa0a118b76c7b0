package iocache

import (
	"sync"

	"github.com/huangsam/archflow/internal/contract"
)

// SlotStoreManager manages the SlotStore instances used by archflow.
type SlotStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	history      contract.SlotStore
}

var _ contract.StoreManager = &SlotStoreManager{} // Compile-time check

// GetHistoryStore returns the history SlotStore.
func (mgr *SlotStoreManager) GetHistoryStore() contract.SlotStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
