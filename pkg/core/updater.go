package core

import (
	"bytes"
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/metabranch/metabranch/pkg/core/accountcfg"
	"github.com/metabranch/metabranch/pkg/core/status"
	"github.com/metabranch/metabranch/pkg/errors"
	"github.com/metabranch/metabranch/pkg/events"
	"github.com/metabranch/metabranch/pkg/model"
	"github.com/metabranch/metabranch/pkg/store"
	storestatus "github.com/metabranch/metabranch/pkg/store/status"
	"go.uber.org/zap"
)

// commit messages double as ref log messages
const (
	msgCreate = "Create account"
	msgUpdate = "Update account"
	msgDelete = "Delete account"
)

// AccountsUpdater orchestrates account transactions against one
// repository.
//
// All dependencies are passed explicitly at construction. The
// committer identity is fixed for the lifetime of the updater,
// timestamp included, so every retry attempt of a transaction commits
// with the same identity.
type AccountsUpdater struct {
	mgr      store.Manager
	repoName string
	bus      *events.Bus

	author    store.Signature
	committer store.Signature
	actor     string

	l            *zap.Logger
	maxRetries   uint64
	retryBackoff time.Duration
	afterRead    func()
}

// NewServerUpdater builds an updater for changes initiated by the
// service itself: the service identity signs as both author and
// committer.
func NewServerUpdater(mgr store.Manager, repoName string, serverIdent store.Signature, opts ...UpdaterOption) *AccountsUpdater {
	ident := normalizeSignature(serverIdent)
	return newUpdater(mgr, repoName, ident, ident, opts)
}

// NewUserUpdater builds an updater for changes initiated by a user:
// the user signs as author, the service identity signs as committer.
// The author timestamp is aligned with the committer's.
func NewUserUpdater(mgr store.Manager, repoName string, userIdent, serverIdent store.Signature, opts ...UpdaterOption) *AccountsUpdater {
	committer := normalizeSignature(serverIdent)
	author := store.Signature{Name: userIdent.Name, Email: userIdent.Email, When: committer.When}
	return newUpdater(mgr, repoName, author, committer, opts)
}

func newUpdater(mgr store.Manager, repoName string, author, committer store.Signature, opts []UpdaterOption) *AccountsUpdater {
	u := &AccountsUpdater{
		mgr:          mgr,
		repoName:     repoName,
		author:       author,
		committer:    committer,
		actor:        author.Email,
		l:            zap.NewNop(),
		maxRetries:   defaultMaxRetries,
		retryBackoff: defaultRetryBackoff,
		afterRead:    func() {},
	}
	for _, apply := range opts {
		apply(u)
	}
	return u
}

// normalizeSignature pins a usable timestamp with second resolution,
// which is what the canonical commit encoding preserves.
func normalizeSignature(s store.Signature) store.Signature {
	if s.When.IsZero() {
		s.When = time.Now().UTC()
	}
	s.When = s.When.Truncate(time.Second)
	return s
}

// Insert creates a new account.
//
// Absence of the branch is the expected starting state; an id whose
// branch already has history fails with status.ErrAccountExists. The
// first commit is written even when the updater sets no properties, so
// the branch (and with it the account) exists afterwards.
func (u *AccountsUpdater) Insert(ctx context.Context, id model.AccountID, fn Updater) (*model.AccountDescriptor, error) {
	var result *model.AccountDescriptor
	err := u.retryUpdate(ctx, id, "insert", func(repo store.Repository, cfg *accountcfg.AccountConfig) error {
		if cfg.Loaded() {
			return errors.New("account branch has history").Wrap(status.ErrAccountExists)
		}
		blob, updated, err := applyUpdater(cfg, fn)
		if err != nil {
			return err
		}
		committed, err := u.commitConfig(ctx, repo, cfg, blob, true)
		if err != nil {
			return err
		}
		updated.RegisteredAt = u.author.When
		result = updated
		u.l.Info("account created",
			zap.Stringer("account_id", id),
			zap.Stringer("head", committed.head),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Update reads the account and applies the mutation atomically.
//
// A missing account is a normal outcome: Update returns (nil, nil).
// The mutation callback is re-invoked on fresh state for every retry
// after a conflicting concurrent change.
func (u *AccountsUpdater) Update(ctx context.Context, id model.AccountID, fn Updater) (*model.AccountDescriptor, error) {
	var result *model.AccountDescriptor
	err := u.retryUpdate(ctx, id, "update", func(repo store.Repository, cfg *accountcfg.AccountConfig) error {
		if !cfg.Loaded() {
			result = nil
			return nil
		}
		blob, updated, err := applyUpdater(cfg, fn)
		if err != nil {
			return err
		}
		committed, err := u.commitConfig(ctx, repo, cfg, blob, false)
		if err != nil {
			return err
		}
		result = updated
		if committed.written {
			u.l.Info("account updated",
				zap.Stringer("account_id", id),
				zap.Stringer("head", committed.head),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the account branch with a forced ref update to the
// nil id.
//
// Deleting a nonexistent account is a no-op. A concurrent change
// between the read and the deletion fails with
// status.ErrDeleteConflict and is not retried: the deletion intent was
// formed against a state that no longer exists.
func (u *AccountsUpdater) Delete(ctx context.Context, id model.AccountID) error {
	repo, err := u.mgr.OpenRepository(u.repoName)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	refName := model.RefForAccount(id)
	head, err := repo.ResolveRef(ctx, refName)
	if err != nil {
		if errors.Is(err, storestatus.ErrRefNotFound) {
			return nil
		}
		return err
	}
	u.afterRead()

	res, err := repo.UpdateRef(ctx, store.RefUpdate{
		Name:        refName,
		ExpectedOld: head,
		New:         store.NilObjectID,
		Force:       true,
		LogIdent:    u.committer,
		LogMessage:  msgDelete,
	})
	if err != nil {
		return err
	}
	if res == store.UpdateRejected {
		return errors.New("branch moved since read").Wrap(status.ErrDeleteConflict)
	}

	u.publish(ctx, refName, head, store.NilObjectID)
	u.l.Info("account deleted", zap.Stringer("account_id", id), zap.Stringer("was", head))
	return nil
}

// applyUpdater runs the mutation callback over a fresh builder and
// folds the result into the config.
func applyUpdater(cfg *accountcfg.AccountConfig, fn Updater) ([]byte, *model.AccountDescriptor, error) {
	builder := model.NewUpdateBuilder()
	fn(cfg.Account(), builder)
	return cfg.Apply(builder.Build())
}

type commitOutcome struct {
	head    store.ObjectID
	created bool
	written bool
}

// commitConfig writes the new blob as a commit on the account branch,
// with the head read by this attempt as compare-and-swap precondition.
//
// When allowEmpty is false and the blob is byte-identical to the
// content at the read revision, nothing is written and the prior head
// is returned: a no-op update is free. A rejected precondition
// surfaces as status.ErrRefConflict for the retry loop.
func (u *AccountsUpdater) commitConfig(ctx context.Context, repo store.Repository, cfg *accountcfg.AccountConfig, blob []byte, allowEmpty bool) (commitOutcome, error) {
	parent := cfg.Revision()
	if cfg.Loaded() && !allowEmpty && bytes.Equal(blob, cfg.Raw()) {
		return commitOutcome{head: parent}, nil
	}

	message := msgUpdate
	if parent.IsNil() {
		message = msgCreate
	}
	commitID, err := repo.WriteCommit(ctx, store.CommitSpec{
		Parent:    parent,
		Blob:      blob,
		Author:    u.author,
		Committer: u.committer,
		Message:   message,
	})
	if err != nil {
		return commitOutcome{}, err
	}

	refName := model.RefForAccount(cfg.ID())
	res, err := repo.UpdateRef(ctx, store.RefUpdate{
		Name:        refName,
		ExpectedOld: parent,
		New:         commitID,
		LogIdent:    u.committer,
		LogMessage:  message,
	})
	if err != nil {
		return commitOutcome{}, err
	}
	if res == store.UpdateRejected {
		return commitOutcome{}, errors.New("branch moved since read").Wrap(status.ErrRefConflict)
	}

	u.publish(ctx, refName, parent, commitID)
	return commitOutcome{head: commitID, created: parent.IsNil(), written: true}, nil
}

// retryUpdate drives the read, mutate, serialize, commit cycle.
//
// Only compare-and-swap rejections retry, from a completely fresh
// read. Validation and storage errors are terminal and surface
// immediately.
func (u *AccountsUpdater) retryUpdate(ctx context.Context, id model.AccountID, op string, attempt func(store.Repository, *accountcfg.AccountConfig) error) error {
	attempts := 0
	run := func() error {
		attempts++
		repo, err := u.mgr.OpenRepository(u.repoName)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer func() { _ = repo.Close() }()

		cfg, err := accountcfg.Load(ctx, repo, id)
		if err != nil {
			return backoff.Permanent(err)
		}
		u.afterRead()

		err = attempt(repo, cfg)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, status.ErrRefConflict):
			u.l.Debug("conflicting concurrent update, retrying",
				zap.Stringer("account_id", id),
				zap.String("op", op),
				zap.Int("attempt", attempts),
			)
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(u.retryBackoff), u.maxRetries),
		ctx,
	)
	err := backoff.Retry(run, policy)
	if err != nil && errors.Is(err, status.ErrRefConflict) {
		u.l.Warn("retry budget exhausted",
			zap.Stringer("account_id", id),
			zap.String("op", op),
			zap.Int("attempts", attempts),
		)
		return errors.New("sustained contention on account branch").Wrap(status.ErrTooManyRetries)
	}
	return err
}

func (u *AccountsUpdater) publish(ctx context.Context, refName string, oldID, newID store.ObjectID) {
	if u.bus == nil {
		return
	}
	u.bus.Publish(ctx, events.RefUpdate{
		Repo:  u.repoName,
		Ref:   refName,
		Old:   oldID,
		New:   newID,
		Actor: u.actor,
	})
}
