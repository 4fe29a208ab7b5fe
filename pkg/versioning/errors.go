// Package versioning tracks workflow evolution through semantically
// versioned, checksum-addressed snapshots.
package versioning

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for programmatic checks via errors.Is.
var (
	// ErrVersionFormat indicates a malformed "MAJOR.MINOR.PATCH" string.
	ErrVersionFormat = errors.New("invalid version format")

	// ErrInvalidBumpType indicates a bump type other than major/minor/patch.
	ErrInvalidBumpType = errors.New("invalid bump type")

	// ErrLockTimeout indicates a per-workflow lock was not acquired in time.
	// The operation failed but is safely retryable.
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrHistoryNotFound indicates the history file does not exist.
	ErrHistoryNotFound = errors.New("history file not found")

	// ErrHistoryMalformed indicates the history file is not valid JSON.
	ErrHistoryMalformed = errors.New("history file is malformed")

	// ErrHistorySchema indicates valid JSON missing the required
	// workflows key.
	ErrHistorySchema = errors.New("history file missing workflows key")
)

// VersionFormatError reports the input that failed semver parsing.
type VersionFormatError struct {
	Input string
	Msg   string
}

func (e *VersionFormatError) Error() string {
	return fmt.Sprintf("%s: %q: %s", ErrVersionFormat.Error(), e.Input, e.Msg)
}

func (e *VersionFormatError) Unwrap() error { return ErrVersionFormat }

// LockTimeoutError reports which workflow's lock could not be acquired.
type LockTimeoutError struct {
	WorkflowID string
	Timeout    time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("%s: workflow %q after %s", ErrLockTimeout.Error(), e.WorkflowID, e.Timeout)
}

func (e *LockTimeoutError) Unwrap() error { return ErrLockTimeout }

// PersistenceError wraps history file failures with the path and the failure
// kind (one of the three sentinels above).
type PersistenceError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
}

func (e *PersistenceError) Unwrap() error { return e.Kind }

// IsLockTimeout checks whether an error indicates lock acquisition timed out.
func IsLockTimeout(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}

// IsHistoryNotFound checks whether an error indicates a missing history file.
func IsHistoryNotFound(err error) bool {
	return errors.Is(err, ErrHistoryNotFound)
}
