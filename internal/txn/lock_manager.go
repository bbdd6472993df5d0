package txn

import (
	"sync"

	"github.com/minidb/core/internal/errs"
)

// LockMode is the access mode requested on a resource.
type LockMode int

const (
	SharedRead LockMode = iota
	ExclusiveWrite
)

// resourceLock tracks every transaction currently holding a lock on one
// resource. Unlike the teacher's near-single-holder lock table, this
// genuinely allows multiple concurrent shared readers: spec.md §8's
// testable scenarios require two transactions to hold SharedRead on the
// same resource at once, and a single ExclusiveWrite holder to exclude
// every other holder, shared or exclusive.
type resourceLock struct {
	sharedHolders map[TxnID]bool
	exclusive     TxnID
	hasExclusive  bool
}

// LockManager grants and releases SharedRead/ExclusiveWrite locks on
// string-identified resources. Grounded on manager/lock_manager.go's
// lockTable/txnLocks bookkeeping, with the compatibility matrix widened
// to a real multi-holder table (see resourceLock).
type LockManager struct {
	mu        sync.Mutex
	resources map[string]*resourceLock
	byTxn     map[TxnID]map[string]bool
}

// NewLockManager returns an empty lock table.
func NewLockManager() *LockManager {
	return &LockManager{
		resources: make(map[string]*resourceLock),
		byTxn:     make(map[TxnID]map[string]bool),
	}
}

func (lm *LockManager) track(txn TxnID, resource string) {
	held, ok := lm.byTxn[txn]
	if !ok {
		held = make(map[string]bool)
		lm.byTxn[txn] = held
	}
	held[resource] = true
}

// AcquireLock grants mode on resource to txn, or reports ErrLockConflict
// if an incompatible lock is already held by a different transaction.
// Requesting ExclusiveWrite while the same transaction already holds
// SharedRead (and no other transaction holds it) upgrades in place.
func (lm *LockManager) AcquireLock(txn TxnID, resource string, mode LockMode) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	rl, ok := lm.resources[resource]
	if !ok {
		rl = &resourceLock{sharedHolders: make(map[TxnID]bool)}
		lm.resources[resource] = rl
	}

	switch mode {
	case SharedRead:
		if rl.hasExclusive && rl.exclusive != txn {
			return errs.ErrLockConflict
		}
		rl.sharedHolders[txn] = true
	case ExclusiveWrite:
		if rl.hasExclusive && rl.exclusive != txn {
			return errs.ErrLockConflict
		}
		for holder := range rl.sharedHolders {
			if holder != txn {
				return errs.ErrLockConflict
			}
		}
		delete(rl.sharedHolders, txn)
		rl.exclusive = txn
		rl.hasExclusive = true
	}

	lm.track(txn, resource)
	return nil
}

// ReleaseLocks drops every lock txn holds, across every resource.
func (lm *LockManager) ReleaseLocks(txn TxnID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	for resource := range lm.byTxn[txn] {
		rl, ok := lm.resources[resource]
		if !ok {
			continue
		}
		delete(rl.sharedHolders, txn)
		if rl.hasExclusive && rl.exclusive == txn {
			rl.hasExclusive = false
		}
		if len(rl.sharedHolders) == 0 && !rl.hasExclusive {
			delete(lm.resources, resource)
		}
	}
	delete(lm.byTxn, txn)
}

// HoldsLock reports whether txn currently holds any lock on resource,
// and if so which mode (ExclusiveWrite reported when both would apply).
func (lm *LockManager) HoldsLock(txn TxnID, resource string) (LockMode, bool) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	rl, ok := lm.resources[resource]
	if !ok {
		return 0, false
	}
	if rl.hasExclusive && rl.exclusive == txn {
		return ExclusiveWrite, true
	}
	if rl.sharedHolders[txn] {
		return SharedRead, true
	}
	return 0, false
}
