// Package errs collects the sentinel errors returned across the storage
// core, grouped by kind the way the teacher's server/innodb/basic/errors.go
// groups them. Callers compare with errors.Is; wrapping (via
// github.com/pkg/errors) never hides the sentinel identity.
package errs

import "errors"

// Capacity errors: the caller asked for more space than is available.
var (
	ErrInsufficientSpace = errors.New("insufficient space")
	ErrPoolFull          = errors.New("buffer pool full")
	ErrRecordTooLarge    = errors.New("record too large")
)

// Lookup errors: the requested resource does not exist.
var (
	ErrNotFound      = errors.New("not found")
	ErrSlotNotFound  = errors.New("slot not found")
	ErrPageNotFound  = errors.New("page not found")
	ErrInvalidPageID = errors.New("invalid page id")
	ErrKeyNotFound   = errors.New("key not found")
)

// Conflict errors: retriable by the caller.
var (
	ErrAlreadyExists    = errors.New("already exists")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrLockConflict     = errors.New("lock conflict")
	ErrDeadlockDetected = errors.New("deadlock detected")
)

// Validity errors: programmer or schema error.
var (
	ErrInvalidFormat          = errors.New("invalid format")
	ErrChecksumMismatch       = errors.New("checksum mismatch")
	ErrInvalidKeyFormat       = errors.New("invalid key format")
	ErrTypeMismatch           = errors.New("type mismatch")
	ErrInvalidIndexDefinition = errors.New("invalid index definition")
	ErrColumnNotFound         = errors.New("column not found")
	ErrIndexAlreadyExists     = errors.New("index already exists")
	ErrIndexNotFound          = errors.New("index not found")
)

// State errors: the resource is not in a state that permits the operation.
var (
	ErrInvalidState        = errors.New("invalid transaction state")
	ErrAlreadyCommitted    = errors.New("transaction already committed")
	ErrAlreadyAborted      = errors.New("transaction already aborted")
	ErrFramePinned         = errors.New("frame is pinned")
	ErrTransactionNotFound = errors.New("transaction not found")
)
