// Package status exports errors produced by the core package.
package status

import (
	"github.com/metabranch/metabranch/pkg/errors"
)

var (
	// ErrAccountExists indicates an insert was attempted for an id
	// whose branch already has history
	ErrAccountExists = errors.New("account already exists")

	// ErrConfigInvalid indicates the account config blob failed to
	// parse, or an update carried a field value that failed
	// validation
	ErrConfigInvalid = errors.New("invalid account config")

	// ErrRefConflict indicates the branch head moved between the
	// read and the commit attempt. It is recovered internally by the
	// retry loop and only surfaces wrapped under ErrTooManyRetries.
	ErrRefConflict = errors.New("concurrent ref update")

	// ErrTooManyRetries indicates the retry budget was exhausted
	// under sustained contention
	ErrTooManyRetries = errors.New("update aborted after too many retries")

	// ErrDeleteConflict indicates the branch moved while a deletion
	// was in flight. Deletions are not retried: the intent was formed
	// against a state that no longer exists.
	ErrDeleteConflict = errors.New("account changed concurrently during delete")
)
