package accountcfg

import (
	"fmt"

	"github.com/metabranch/metabranch/pkg/core/status"
	"github.com/metabranch/metabranch/pkg/model"
	"github.com/metabranch/metabranch/pkg/store"
)

// MalformedError reports an account config blob that exists but does
// not parse. It carries the offending commit so operators can inspect
// the broken revision.
type MalformedError struct {
	ID     model.AccountID
	Commit store.ObjectID
	cause  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed config for account %s at commit %s: %v", e.ID, e.Commit, e.cause)
}

// Unwrap the parse diagnostics
func (e *MalformedError) Unwrap() error {
	return e.cause
}

// Is matches the config-invalid sentinel
func (e *MalformedError) Is(target error) bool {
	return target == status.ErrConfigInvalid
}

// ValidationError reports an update carrying a field value that fails
// validation. It is raised before anything is written.
type ValidationError struct {
	Field string
	cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value for account field %q: %v", e.Field, e.cause)
}

// Unwrap the validation diagnostics
func (e *ValidationError) Unwrap() error {
	return e.cause
}

// Is matches the config-invalid sentinel
func (e *ValidationError) Is(target error) bool {
	return target == status.ErrConfigInvalid
}
