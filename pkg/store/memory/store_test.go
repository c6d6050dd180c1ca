package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/metabranch/metabranch/pkg/errors"
	"github.com/metabranch/metabranch/pkg/store"
	"github.com/metabranch/metabranch/pkg/store/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSignature() store.Signature {
	return store.Signature{
		Name:  "test service",
		Email: "svc@example.com",
		When:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteCommitContentAddressed(t *testing.T) {
	ctx := context.Background()
	repo, err := New().OpenRepository("accounts")
	require.NoError(t, err)
	defer func() { _ = repo.Close() }()

	spec := store.CommitSpec{
		Blob:      []byte("[account]\n\tname = Ann\n"),
		Author:    testSignature(),
		Committer: testSignature(),
		Message:   "Create account",
	}
	id1, err := repo.WriteCommit(ctx, spec)
	require.NoError(t, err)
	id2, err := repo.WriteCommit(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	commit, err := repo.ReadCommit(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, id1, commit.ID)
	assert.True(t, commit.Parent.IsNil())

	blob, err := repo.ReadBlob(ctx, commit.Blob)
	require.NoError(t, err)
	assert.Equal(t, spec.Blob, blob)
}

func TestWriteCommitEmptyBlob(t *testing.T) {
	ctx := context.Background()
	repo, err := New().OpenRepository("accounts")
	require.NoError(t, err)

	id, err := repo.WriteCommit(ctx, store.CommitSpec{
		Author:    testSignature(),
		Committer: testSignature(),
		Message:   "Create account",
	})
	require.NoError(t, err)

	commit, err := repo.ReadCommit(ctx, id)
	require.NoError(t, err)
	assert.True(t, commit.Blob.IsNil())
}

func TestUpdateRefCAS(t *testing.T) {
	ctx := context.Background()
	repo, err := New().OpenRepository("accounts")
	require.NoError(t, err)

	id1, err := repo.WriteCommit(ctx, store.CommitSpec{
		Author: testSignature(), Committer: testSignature(), Message: "one",
	})
	require.NoError(t, err)
	id2, err := repo.WriteCommit(ctx, store.CommitSpec{
		Parent: id1, Author: testSignature(), Committer: testSignature(), Message: "two",
	})
	require.NoError(t, err)

	const ref = "refs/accounts/07/7"

	// create: expected old is nil
	res, err := repo.UpdateRef(ctx, store.RefUpdate{Name: ref, New: id1})
	require.NoError(t, err)
	assert.Equal(t, store.UpdateForced, res)

	// stale precondition is rejected
	res, err = repo.UpdateRef(ctx, store.RefUpdate{Name: ref, New: id2})
	require.NoError(t, err)
	assert.Equal(t, store.UpdateRejected, res)

	// matching precondition moves the ref
	res, err = repo.UpdateRef(ctx, store.RefUpdate{Name: ref, ExpectedOld: id1, New: id2})
	require.NoError(t, err)
	assert.Equal(t, store.UpdateForced, res)

	head, err := repo.ResolveRef(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, id2, head)

	// deletion requires force
	_, err = repo.UpdateRef(ctx, store.RefUpdate{Name: ref, ExpectedOld: id2})
	require.True(t, errors.Is(err, status.ErrInvalidUpdate))

	res, err = repo.UpdateRef(ctx, store.RefUpdate{Name: ref, ExpectedOld: id2, Force: true})
	require.NoError(t, err)
	assert.Equal(t, store.UpdateForced, res)

	_, err = repo.ResolveRef(ctx, ref)
	assert.True(t, errors.Is(err, status.ErrRefNotFound))
}

func TestUpdateRefConcurrentCAS(t *testing.T) {
	ctx := context.Background()
	mgr := New()
	repo, err := mgr.OpenRepository("accounts")
	require.NoError(t, err)

	base, err := repo.WriteCommit(ctx, store.CommitSpec{
		Author: testSignature(), Committer: testSignature(), Message: "base",
	})
	require.NoError(t, err)

	const ref = "refs/accounts/01/1"
	const contenders = 16

	var wg sync.WaitGroup
	results := make([]store.UpdateResult, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := mgr.OpenRepository("accounts")
			if !assert.NoError(t, err) {
				return
			}
			defer func() { _ = r.Close() }()
			res, err := r.UpdateRef(ctx, store.RefUpdate{Name: ref, New: base})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	forced := 0
	for _, res := range results {
		if res == store.UpdateForced {
			forced++
		}
	}
	assert.Equal(t, 1, forced, "exactly one creation must win the CAS")
}

func TestListRefs(t *testing.T) {
	ctx := context.Background()
	repo, err := New().OpenRepository("accounts")
	require.NoError(t, err)

	id, err := repo.WriteCommit(ctx, store.CommitSpec{
		Author: testSignature(), Committer: testSignature(), Message: "base",
	})
	require.NoError(t, err)

	for _, name := range []string{"refs/accounts/07/7", "refs/accounts/01/1", "refs/meta/version"} {
		res, err := repo.UpdateRef(ctx, store.RefUpdate{Name: name, New: id})
		require.NoError(t, err)
		require.Equal(t, store.UpdateForced, res)
	}

	refs, err := repo.ListRefs(ctx, "refs/accounts/")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "refs/accounts/01/1", refs[0].Name)
	assert.Equal(t, "refs/accounts/07/7", refs[1].Name)
}
