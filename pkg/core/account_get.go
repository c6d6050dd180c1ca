package core

import (
	"context"

	"github.com/metabranch/metabranch/pkg/core/accountcfg"
	"github.com/metabranch/metabranch/pkg/model"
	"github.com/metabranch/metabranch/pkg/store"
)

// GetAccount materializes an account at its current branch head.
// A missing account yields (nil, nil).
func GetAccount(ctx context.Context, mgr store.Manager, repoName string, id model.AccountID) (*model.AccountDescriptor, error) {
	repo, err := mgr.OpenRepository(repoName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = repo.Close() }()

	cfg, err := accountcfg.Load(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if !cfg.Loaded() {
		return nil, nil
	}
	return cfg.Account(), nil
}
