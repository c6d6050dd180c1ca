// Package core applies atomic, retryable mutations to accounts
// persisted as commits on per-account branches of a ref store.
//
// One logical operation runs as: open repository, read the branch
// head, materialize the account, apply the caller's mutation, commit
// the result with the previously read head as compare-and-swap
// precondition. A rejected precondition restarts the whole cycle from
// a fresh read, so a mutation callback is always re-applied to current
// state and never replayed against stale data.
package core

import (
	"github.com/metabranch/metabranch/pkg/model"
)

// Updater prepares changes to one account.
//
// The callback receives the current materialized account and a fresh
// update builder. It records changes through the builder setters and
// must not modify the account view directly: the view is a snapshot
// handed out for reading only.
//
// A callback may be invoked several times for one logical operation,
// once per retry attempt, each time against freshly read state. It
// should therefore be free of side effects beyond the builder.
type Updater func(account *model.AccountDescriptor, update *model.UpdateBuilder)

// JoinUpdaters composes several updaters into one, invoked in order
// against the same builder. When two updaters touch the same field the
// later one wins.
func JoinUpdaters(updaters ...Updater) Updater {
	return func(account *model.AccountDescriptor, update *model.UpdateBuilder) {
		for _, fn := range updaters {
			fn(account, update)
		}
	}
}
