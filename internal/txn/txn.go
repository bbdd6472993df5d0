// Package txn implements spec.md §4.6: a transaction manager tracking
// per-transaction undo logs and state, plus a lock manager coordinating
// shared/exclusive access across transactions.
//
// Grounded on the teacher's manager/transaction_manager.go and
// manager/lock_manager.go, generalized away from InnoDB's MVCC-specific
// ReadView and redo-log machinery (out of scope here) down to the
// undo-log-only model spec.md §4.6 specifies.
package txn

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/minidb/core/internal/errs"
	"github.com/minidb/core/logger"
)

// State is a transaction's position in spec.md §4.6's state machine:
// Active -> {Preparing -> {Committed, Aborted}} or Active -> {Committed,
// Aborted} directly.
type State int

const (
	Active State = iota
	Preparing
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case Preparing:
		return "PREPARING"
	case Committed:
		return "COMMITTED"
	case Aborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// IsolationLevel is carried on a Transaction for callers to consult;
// this core does not itself implement snapshot isolation (no ReadView,
// per spec.md's Non-goals).
type IsolationLevel int

const (
	ReadCommitted IsolationLevel = iota
	RepeatableRead
	Serializable
)

// OpKind tags an undo-log entry with the forward operation it undoes.
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "INSERT"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// UndoEntry is one tagged, reversible operation. Undo performs the
// compensating action; the transaction manager does not know the
// storage layer's internals, so the caller supplies the closure when it
// calls LogOperation.
type UndoEntry struct {
	ID   uuid.UUID
	Kind OpKind
	Undo func() error
}

// TxnID identifies a transaction for its lifetime.
type TxnID uint64

// Transaction is the manager's record of one in-flight or finished unit
// of work. Grounded on manager/transaction_manager.go's Transaction
// struct, trimmed of ReadView/RedoLogs (MVCC/WAL, out of scope here).
type Transaction struct {
	mu sync.Mutex

	ID        TxnID
	State     State
	Isolation IsolationLevel
	ReadOnly  bool
	UndoLog   []UndoEntry
}

func (t *Transaction) snapshotState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.State
}

// TransactionManager begins, commits, and rolls back transactions,
// coordinating with a LockManager for resource access.
type TransactionManager struct {
	nextID uint64

	mu   sync.Mutex
	txns map[TxnID]*Transaction

	Locks *LockManager
}

// NewTransactionManager returns a manager with its own lock table.
func NewTransactionManager() *TransactionManager {
	return &TransactionManager{
		txns:  make(map[TxnID]*Transaction),
		Locks: NewLockManager(),
	}
}

// Begin starts a new read-write transaction at the default isolation
// level.
func (m *TransactionManager) Begin() *Transaction {
	return m.BeginWithIsolation(ReadCommitted, false)
}

// BeginWithIsolation starts a new transaction at the given isolation
// level, optionally marked read-only.
func (m *TransactionManager) BeginWithIsolation(level IsolationLevel, readOnly bool) *Transaction {
	id := TxnID(atomic.AddUint64(&m.nextID, 1))
	txn := &Transaction{ID: id, State: Active, Isolation: level, ReadOnly: readOnly}

	m.mu.Lock()
	m.txns[id] = txn
	m.mu.Unlock()

	logger.Debugf("txn: begin %d isolation=%v readOnly=%v", id, level, readOnly)
	return txn
}

// Get looks up a tracked transaction by id.
func (m *TransactionManager) Get(id TxnID) (*Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[id]
	return txn, ok
}

// AcquireLock verifies txn is tracked by this manager and still Active
// (spec.md §4.6's acquire_lock step 1), then requests mode on resource
// from the lock manager. LockManager itself has no visibility into
// transaction state, so that check belongs here rather than in
// LockManager.AcquireLock.
func (m *TransactionManager) AcquireLock(txn *Transaction, resource string, mode LockMode) error {
	if _, ok := m.Get(txn.ID); !ok {
		return errs.ErrTransactionNotFound
	}
	if txn.snapshotState() != Active {
		return errs.ErrInvalidState
	}
	return m.Locks.AcquireLock(txn.ID, resource, mode)
}

// LogOperation appends a tagged undo entry to txn's undo log. The
// transaction must still be Active.
func (m *TransactionManager) LogOperation(txn *Transaction, kind OpKind, undo func() error) error {
	txn.mu.Lock()
	defer txn.mu.Unlock()

	if txn.State != Active {
		return errs.ErrInvalidState
	}
	txn.UndoLog = append(txn.UndoLog, UndoEntry{ID: uuid.New(), Kind: kind, Undo: undo})
	return nil
}

// Commit transitions txn Active -> Preparing -> Committed and releases
// its locks. Committing a transaction twice, or committing one that was
// already aborted, is an error.
func (m *TransactionManager) Commit(txn *Transaction) error {
	txn.mu.Lock()
	switch txn.State {
	case Committed:
		txn.mu.Unlock()
		return errs.ErrAlreadyCommitted
	case Aborted:
		txn.mu.Unlock()
		return errs.ErrAlreadyAborted
	case Active:
		txn.State = Preparing
	}
	txn.State = Committed
	txn.mu.Unlock()

	m.Locks.ReleaseLocks(txn.ID)
	logger.Debugf("txn: committed %d", txn.ID)
	return nil
}

// Rollback applies txn's undo log in reverse order, best-effort: every
// entry's Undo runs even if an earlier one failed, and the first error
// encountered is returned after the pass completes (spec.md §7
// aggregate first-error-wins). The transaction is marked Aborted and
// its locks released regardless of undo outcome.
func (m *TransactionManager) Rollback(txn *Transaction) error {
	txn.mu.Lock()
	if txn.State == Committed {
		txn.mu.Unlock()
		return errs.ErrAlreadyCommitted
	}
	if txn.State == Aborted {
		txn.mu.Unlock()
		return errs.ErrAlreadyAborted
	}
	log := append([]UndoEntry(nil), txn.UndoLog...)
	txn.State = Aborted
	txn.mu.Unlock()

	var firstErr error
	for i := len(log) - 1; i >= 0; i-- {
		entry := log[i]
		if entry.Undo == nil {
			continue
		}
		if err := entry.Undo(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "txn: undo %s entry %s", entry.Kind, entry.ID)
		}
	}

	m.Locks.ReleaseLocks(txn.ID)
	logger.Debugf("txn: rolled back %d", txn.ID)
	return firstErr
}

// DetectDeadlock always returns false. Cycle detection over the lock
// wait graph is out of scope for this teaching-grade core. Lock
// acquisition never waits: a conflicting request fails at once with
// ErrLockConflict, and there are no lock timeouts.
func (m *TransactionManager) DetectDeadlock() bool {
	return false
}
