package localfs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/metabranch/metabranch/pkg/errors"
	"github.com/metabranch/metabranch/pkg/store"
	"github.com/metabranch/metabranch/pkg/store/status"
	"github.com/spf13/afero"
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

func testRepo(t *testing.T) store.Repository {
	mgr := New(afero.NewMemMapFs())
	repo, err := mgr.OpenRepository("accounts")
	require.NoError(t, err)
	return repo
}

func TestOpenRepositoryRejectsBadNames(t *testing.T) {
	mgr := New(afero.NewMemMapFs())
	for _, name := range []string{"", "a/b", `a\b`} {
		_, err := mgr.OpenRepository(name)
		assert.Errorf(t, err, "expected %q to be rejected", name)
	}
}

func TestCommitRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

	spec := store.CommitSpec{
		Blob:      []byte("[account]\n\tname = Ann\n"),
		Author:    testSignature(),
		Committer: testSignature(),
		Message:   "Create account",
	}
	id, err := repo.WriteCommit(ctx, spec)
	require.NoError(t, err)

	// identical spec hashes to the identical id
	again, err := repo.WriteCommit(ctx, spec)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	commit, err := repo.ReadCommit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Create account", commit.Message)
	assert.Equal(t, testSignature().Email, commit.Author.Email)
	assert.True(t, commit.Parent.IsNil())
	assert.True(t, commit.Author.When.Equal(testSignature().When))

	blob, err := repo.ReadBlob(ctx, commit.Blob)
	require.NoError(t, err)
	assert.Equal(t, spec.Blob, blob)
}

// object writes happen outside the ref lock, so handles writing the
// same object concurrently must not trip over each other's stage files
func TestWriteCommitConcurrentSameObject(t *testing.T) {
	ctx := context.Background()
	mgr := New(afero.NewMemMapFs())

	spec := store.CommitSpec{
		Blob:      []byte("[account]\nname = Ann\n"),
		Author:    testSignature(),
		Committer: testSignature(),
		Message:   "Create account",
	}
	expected := store.CommitID(spec, store.BlobID(spec.Blob))

	const writers = 8
	ids := make([]store.ObjectID, writers)
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo, err := mgr.OpenRepository("accounts")
			if err != nil {
				errs[i] = err
				return
			}
			defer func() { _ = repo.Close() }()
			ids[i], errs[i] = repo.WriteCommit(ctx, spec)
		}()
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, expected, ids[i])
	}

	repo, err := mgr.OpenRepository("accounts")
	require.NoError(t, err)
	commit, err := repo.ReadCommit(ctx, expected)
	require.NoError(t, err)
	blob, err := repo.ReadBlob(ctx, commit.Blob)
	require.NoError(t, err)
	assert.Equal(t, spec.Blob, blob)
}

func TestCommitIDStableAcrossBackends(t *testing.T) {
	// the canonical encoding makes the commit id backend-independent
	spec := store.CommitSpec{
		Blob:      []byte("content"),
		Author:    testSignature(),
		Committer: testSignature(),
		Message:   "msg",
	}
	expected := store.CommitID(spec, store.BlobID(spec.Blob))

	id, err := testRepo(t).WriteCommit(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, expected, id)
}

func TestUpdateRefCAS(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

	id1, err := repo.WriteCommit(ctx, store.CommitSpec{
		Author: testSignature(), Committer: testSignature(), Message: "one",
	})
	require.NoError(t, err)
	id2, err := repo.WriteCommit(ctx, store.CommitSpec{
		Parent: id1, Author: testSignature(), Committer: testSignature(), Message: "two",
	})
	require.NoError(t, err)

	const ref = "refs/accounts/07/7"

	res, err := repo.UpdateRef(ctx, store.RefUpdate{Name: ref, New: id1, LogIdent: testSignature(), LogMessage: "create"})
	require.NoError(t, err)
	require.Equal(t, store.UpdateForced, res)

	// a second creation attempt sees the moved ref
	res, err = repo.UpdateRef(ctx, store.RefUpdate{Name: ref, New: id2})
	require.NoError(t, err)
	assert.Equal(t, store.UpdateRejected, res)

	res, err = repo.UpdateRef(ctx, store.RefUpdate{Name: ref, ExpectedOld: id1, New: id2})
	require.NoError(t, err)
	assert.Equal(t, store.UpdateForced, res)

	head, err := repo.ResolveRef(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, id2, head)

	// forced deletion with matching precondition
	res, err = repo.UpdateRef(ctx, store.RefUpdate{Name: ref, ExpectedOld: id2, Force: true, LogIdent: testSignature(), LogMessage: "delete"})
	require.NoError(t, err)
	assert.Equal(t, store.UpdateForced, res)

	_, err = repo.ResolveRef(ctx, ref)
	assert.True(t, errors.Is(err, status.ErrRefNotFound))
}

func TestPersistenceAcrossHandles(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	mgr := New(fs)

	repo, err := mgr.OpenRepository("accounts")
	require.NoError(t, err)
	id, err := repo.WriteCommit(ctx, store.CommitSpec{
		Blob: []byte("x"), Author: testSignature(), Committer: testSignature(), Message: "m",
	})
	require.NoError(t, err)
	_, err = repo.UpdateRef(ctx, store.RefUpdate{Name: "refs/accounts/01/1", New: id})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	// a fresh manager over the same fs sees the data
	repo2, err := New(fs).OpenRepository("accounts")
	require.NoError(t, err)
	head, err := repo2.ResolveRef(ctx, "refs/accounts/01/1")
	require.NoError(t, err)
	assert.Equal(t, id, head)
}

func TestListRefs(t *testing.T) {
	ctx := context.Background()
	repo := testRepo(t)

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
	assert.Equal(t, id, refs[0].Target)
}
