// Package store defines the object/ref storage primitive consumed by
// the account update layer.
//
// A repository holds content-addressed objects (commits and blobs) and
// named refs pointing at commits. The only atomicity guarantee the
// upper layers rely on is the compare-and-swap semantics of UpdateRef:
// a ref moves only if its current value matches the expected old
// value, otherwise the update is rejected.
package store

import (
	"context"
	"time"
)

// Signature identifies the author or committer of a commit, with the
// time the commit was made.
type Signature struct {
	Name  string    `json:"name" yaml:"name"`
	Email string    `json:"email" yaml:"email"`
	When  time.Time `json:"when" yaml:"when"`
}

// Commit is an immutable snapshot with parent linkage
type Commit struct {
	ID        ObjectID  `json:"id" yaml:"id"`
	Parent    ObjectID  `json:"parent" yaml:"parent"`
	Blob      ObjectID  `json:"blob" yaml:"blob"`
	Author    Signature `json:"author" yaml:"author"`
	Committer Signature `json:"committer" yaml:"committer"`
	Message   string    `json:"message" yaml:"message"`
}

// CommitSpec describes a commit to be written.
//
// Parent is the previously read branch head, or the nil id for the
// first commit on a new branch. Blob is the serialized config content;
// a nil Blob produces a commit carrying no config file (an empty
// commit).
type CommitSpec struct {
	Parent    ObjectID
	Blob      []byte
	Author    Signature
	Committer Signature
	Message   string
}

// Ref is a named pointer to a commit
type Ref struct {
	Name   string
	Target ObjectID
}

// RefUpdate describes a compare-and-swap update of a ref.
//
// ExpectedOld is the precondition: the nil id means the ref must not
// exist. A nil New deletes the ref (requires Force). LogIdent and
// LogMessage feed the ref log.
type RefUpdate struct {
	Name        string
	ExpectedOld ObjectID
	New         ObjectID
	Force       bool
	LogIdent    Signature
	LogMessage  string
}

// UpdateResult is the outcome of a ref update attempt. Transport
// failures are reported as errors, not results.
type UpdateResult int

const (
	// UpdateForced means the ref was moved (or deleted)
	UpdateForced UpdateResult = iota
	// UpdateRejected means the compare-and-swap precondition did not
	// hold: the ref moved concurrently since it was read
	UpdateRejected
)

func (r UpdateResult) String() string {
	switch r {
	case UpdateForced:
		return "forced"
	case UpdateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Manager opens repositories by name
type Manager interface {
	OpenRepository(name string) (Repository, error)
}

// Repository is an exclusive-use handle on one repository, opened and
// closed per operation attempt. Implementations must be safe for
// concurrent use across distinct handles.
type Repository interface {
	Name() string

	// ResolveRef returns the commit a ref points at, or
	// status.ErrRefNotFound when the ref does not exist.
	ResolveRef(ctx context.Context, refName string) (ObjectID, error)

	// ReadCommit fetches a commit object by id
	ReadCommit(ctx context.Context, id ObjectID) (Commit, error)

	// ReadBlob fetches blob content by id
	ReadBlob(ctx context.Context, id ObjectID) ([]byte, error)

	// WriteCommit stores the blob (when present) and the commit
	// object, returning the commit id. Writing the same spec twice
	// yields the same id.
	WriteCommit(ctx context.Context, spec CommitSpec) (ObjectID, error)

	// UpdateRef atomically compare-and-swaps a ref
	UpdateRef(ctx context.Context, update RefUpdate) (UpdateResult, error)

	// ListRefs enumerates refs under a name prefix
	ListRefs(ctx context.Context, prefix string) ([]Ref, error)

	Close() error
}
