package core

import (
	"context"
	"sort"

	"github.com/metabranch/metabranch/pkg/core/accountcfg"
	"github.com/metabranch/metabranch/pkg/model"
	"github.com/metabranch/metabranch/pkg/store"
	"golang.org/x/sync/errgroup"
)

// ListOption sets options for listing accounts
type ListOption func(*listSettings)

type listSettings struct {
	concurrency int
}

const defaultListConcurrency = 8

// ConcurrentList caps how many account branches are materialized in
// parallel. It defaults to 8.
func ConcurrentList(concurrency int) ListOption {
	return func(s *listSettings) {
		if concurrency > 0 {
			s.concurrency = concurrency
		}
	}
}

// ListAccounts materializes every account in the repository, in
// ascending id order.
//
// Branches under the account namespace whose name does not parse back
// to an id are skipped: they are not account branches.
func ListAccounts(ctx context.Context, mgr store.Manager, repoName string, opts ...ListOption) ([]*model.AccountDescriptor, error) {
	settings := listSettings{concurrency: defaultListConcurrency}
	for _, apply := range opts {
		apply(&settings)
	}

	repo, err := mgr.OpenRepository(repoName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = repo.Close() }()

	refs, err := repo.ListRefs(ctx, model.RefsAccountsPrefix())
	if err != nil {
		return nil, err
	}
	ids := make([]model.AccountID, 0, len(refs))
	for _, ref := range refs {
		if id, ok := model.AccountIDFromRef(ref.Name); ok {
			ids = append(ids, id)
		}
	}

	// repository handles are exclusive-use, each worker opens its own
	accounts := make([]*model.AccountDescriptor, len(ids))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(settings.concurrency)
	for i, id := range ids {
		i, id := i, id
		group.Go(func() error {
			r, e := mgr.OpenRepository(repoName)
			if e != nil {
				return e
			}
			defer func() { _ = r.Close() }()
			cfg, e := accountcfg.Load(groupCtx, r, id)
			if e != nil {
				return e
			}
			if cfg.Loaded() {
				accounts[i] = cfg.Account()
			}
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		return nil, err
	}

	out := make([]*model.AccountDescriptor, 0, len(accounts))
	for _, a := range accounts {
		// a branch deleted while listing leaves a nil slot
		if a != nil {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
