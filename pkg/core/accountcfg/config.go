// Package accountcfg loads and serializes the per-account config blob
// stored at the head of an account branch.
//
// A missing branch is not an error: Load returns a config in "not
// loaded" state so callers can tell a missing account from a malformed
// one. A loaded config remembers the commit it was read from; that
// commit id is the compare-and-swap precondition of the transaction
// that read it, so a config is never reused across retry attempts.
package accountcfg

import (
	"context"

	"github.com/metabranch/metabranch/pkg/errors"
	"github.com/metabranch/metabranch/pkg/model"
	"github.com/metabranch/metabranch/pkg/store"
	storestatus "github.com/metabranch/metabranch/pkg/store/status"
)

// AccountConfig is the decoded state of an account branch head
type AccountConfig struct {
	id       model.AccountID
	loaded   bool
	revision store.ObjectID
	raw      []byte
	account  *model.AccountDescriptor
}

// Load resolves the account branch and materializes its state.
//
// When the branch does not exist the returned config reports
// !Loaded() and carries default account state; no error is returned.
// A branch that exists but does not parse fails with a
// MalformedError.
func Load(ctx context.Context, repo store.Repository, id model.AccountID) (*AccountConfig, error) {
	cfg := &AccountConfig{id: id, account: model.NewAccountDescriptor(id)}

	head, err := repo.ResolveRef(ctx, model.RefForAccount(id))
	if err != nil {
		if errors.Is(err, storestatus.ErrRefNotFound) {
			return cfg, nil
		}
		return nil, err
	}

	commit, err := repo.ReadCommit(ctx, head)
	if err != nil {
		return nil, err
	}

	// the registration date is the author time of the first commit
	// on the branch
	root := commit
	for !root.Parent.IsNil() {
		root, err = repo.ReadCommit(ctx, root.Parent)
		if err != nil {
			return nil, err
		}
	}

	var raw []byte
	if !commit.Blob.IsNil() {
		raw, err = repo.ReadBlob(ctx, commit.Blob)
		if err != nil {
			return nil, err
		}
	}
	account, err := parse(id, raw)
	if err != nil {
		return nil, &MalformedError{ID: id, Commit: head, cause: err}
	}
	account.RegisteredAt = root.Author.When

	cfg.loaded = true
	cfg.revision = head
	cfg.raw = raw
	cfg.account = account
	return cfg, nil
}

// ID of the account this config belongs to
func (c *AccountConfig) ID() model.AccountID {
	return c.id
}

// Loaded tells whether the account branch existed at read time
func (c *AccountConfig) Loaded() bool {
	return c.loaded
}

// Revision is the branch head commit this config was read from, or
// the nil id when the branch did not exist.
func (c *AccountConfig) Revision() store.ObjectID {
	return c.revision
}

// Raw is the blob content at the revision, nil when the account has
// no config file.
func (c *AccountConfig) Raw() []byte {
	return c.raw
}

// Account returns a copy of the materialized state, safe to hand to
// mutation callbacks as a read-only view.
func (c *AccountConfig) Account() *model.AccountDescriptor {
	return c.account.Clone()
}

// Apply merges an update record over the current state and returns
// the new blob along with the updated account. Field values are
// validated before anything is written; an empty update returns the
// raw blob unchanged so no-op updates stay byte-identical.
func (c *AccountConfig) Apply(u model.Update) ([]byte, *model.AccountDescriptor, error) {
	if u.IsEmpty() {
		return c.raw, c.Account(), nil
	}
	if email, ok := u.PreferredEmail(); ok {
		if err := model.ValidateEmail(email); err != nil {
			return nil, nil, &ValidationError{Field: keyEmail, cause: err}
		}
	}
	for _, key := range u.MetadataKeys() {
		if err := model.ValidateMetadataKey(key); err != nil {
			return nil, nil, &ValidationError{Field: metadataSection, cause: err}
		}
	}
	updated := c.Account()
	u.ApplyTo(updated)
	blob, err := serialize(updated)
	if err != nil {
		return nil, nil, err
	}
	return blob, updated, nil
}
