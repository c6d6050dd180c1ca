// Package memory provides an in-process implementation of the store
// interfaces: a mutex-guarded ref table over content-addressed object
// maps. It backs tests and small tools; the compare-and-swap on
// UpdateRef holds within the owning process.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/metabranch/metabranch/pkg/store"
	"github.com/metabranch/metabranch/pkg/store/status"
)

// New creates an empty in-memory store manager. Repositories are
// created on first open.
func New() store.Manager {
	return &manager{repos: make(map[string]*repoData)}
}

type manager struct {
	mu    sync.Mutex
	repos map[string]*repoData
}

type repoData struct {
	mu      sync.Mutex
	refs    map[string]store.ObjectID
	commits map[store.ObjectID]store.Commit
	blobs   map[store.ObjectID][]byte
}

func (m *manager) OpenRepository(name string) (store.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.repos[name]
	if !ok {
		data = &repoData{
			refs:    make(map[string]store.ObjectID),
			commits: make(map[store.ObjectID]store.Commit),
			blobs:   make(map[store.ObjectID][]byte),
		}
		m.repos[name] = data
	}
	return &repository{name: name, data: data}, nil
}

type repository struct {
	name string
	data *repoData
}

func (r *repository) Name() string {
	return r.name
}

func (r *repository) ResolveRef(_ context.Context, refName string) (store.ObjectID, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	id, ok := r.data.refs[refName]
	if !ok {
		return store.NilObjectID, status.ErrRefNotFound
	}
	return id, nil
}

func (r *repository) ReadCommit(_ context.Context, id store.ObjectID) (store.Commit, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	commit, ok := r.data.commits[id]
	if !ok {
		return store.Commit{}, status.ErrObjectNotFound
	}
	return commit, nil
}

func (r *repository) ReadBlob(_ context.Context, id store.ObjectID) ([]byte, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	blob, ok := r.data.blobs[id]
	if !ok {
		return nil, status.ErrObjectNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

func (r *repository) WriteCommit(_ context.Context, spec store.CommitSpec) (store.ObjectID, error) {
	blobID := store.BlobID(spec.Blob)
	commitID := store.CommitID(spec, blobID)

	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	if spec.Blob != nil {
		blob := make([]byte, len(spec.Blob))
		copy(blob, spec.Blob)
		r.data.blobs[blobID] = blob
	}
	r.data.commits[commitID] = store.Commit{
		ID:        commitID,
		Parent:    spec.Parent,
		Blob:      blobID,
		Author:    spec.Author,
		Committer: spec.Committer,
		Message:   spec.Message,
	}
	return commitID, nil
}

func (r *repository) UpdateRef(_ context.Context, update store.RefUpdate) (store.UpdateResult, error) {
	if update.New.IsNil() && !update.Force {
		return store.UpdateRejected, status.ErrInvalidUpdate
	}

	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	current, exists := r.data.refs[update.Name]
	if !exists {
		current = store.NilObjectID
	}
	if current != update.ExpectedOld {
		return store.UpdateRejected, nil
	}
	if update.New.IsNil() {
		delete(r.data.refs, update.Name)
	} else {
		r.data.refs[update.Name] = update.New
	}
	return store.UpdateForced, nil
}

func (r *repository) ListRefs(_ context.Context, prefix string) ([]store.Ref, error) {
	r.data.mu.Lock()
	defer r.data.mu.Unlock()
	refs := make([]store.Ref, 0, len(r.data.refs))
	for name, target := range r.data.refs {
		if strings.HasPrefix(name, prefix) {
			refs = append(refs, store.Ref{Name: name, Target: target})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (r *repository) Close() error {
	return nil
}
