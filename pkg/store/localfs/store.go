// Package localfs implements the store interfaces on a local file
// system through afero.
//
// Layout, per repository:
//
//	<repo>/objects/<aa>/<hex>  content-addressed commit and blob files
//	<repo>/refs/<name>         one file per ref, holding the target id
//	<repo>/logs/<name>         append-only ref log
//
// Objects are written to a staging area first and renamed into place.
// The ref compare-and-swap is guarded by a per-repository mutex, so
// the guarantee holds within the owning process.
package localfs

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/metabranch/metabranch/pkg/errors"
	"github.com/metabranch/metabranch/pkg/store"
	"github.com/metabranch/metabranch/pkg/store/status"
	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"
	yaml "gopkg.in/yaml.v2"
)

const (
	objectsDir = "objects"
	refsDir    = "refs"
	logsDir    = "logs"
	stageDir   = ".stage"
)

// New creates a file system backed store manager
func New(fs afero.Fs) store.Manager {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(".metabranch", "store"))
	}
	return &manager{fs: fs, locks: make(map[string]*sync.Mutex)}
}

type manager struct {
	fs afero.Fs

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (m *manager) lockFor(repo string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[repo]
	if !ok {
		l = &sync.Mutex{}
		m.locks[repo] = l
	}
	return l
}

func (m *manager) OpenRepository(name string) (store.Repository, error) {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return nil, fmt.Errorf("invalid repository name %q", name)
	}
	for _, dir := range []string{objectsDir, refsDir, logsDir, stageDir} {
		if err := m.fs.MkdirAll(path.Join(name, dir), 0700); err != nil {
			return nil, fmt.Errorf("ensuring directories for %q: %v", name, err)
		}
	}
	return &repository{name: name, fs: m.fs, refLock: m.lockFor(name)}, nil
}

type repository struct {
	name    string
	fs      afero.Fs
	refLock *sync.Mutex
}

// commitFile is the stored form of a commit object
type commitFile struct {
	Parent    string          `yaml:"parent"`
	Blob      string          `yaml:"blob"`
	Author    store.Signature `yaml:"author"`
	Committer store.Signature `yaml:"committer"`
	Message   string          `yaml:"message"`
}

func (r *repository) Name() string {
	return r.name
}

func (r *repository) objectPath(id store.ObjectID) string {
	hex := id.String()
	return path.Join(r.name, objectsDir, hex[:2], hex[2:])
}

func (r *repository) refPath(refName string) string {
	return path.Join(r.name, refsDir, strings.TrimPrefix(refName, "refs/"))
}

func (r *repository) logPath(refName string) string {
	return path.Join(r.name, logsDir, strings.TrimPrefix(refName, "refs/"))
}

// putObject writes a content-addressed file via the staging area.
// Objects are immutable, an existing file is left alone. The stage
// name carries a unique suffix: object writes are not serialized by
// the ref lock, so two handles may stage the same object at once.
func (r *repository) putObject(id store.ObjectID, data []byte) error {
	target := r.objectPath(id)
	if ok, err := afero.Exists(r.fs, target); err == nil && ok {
		return nil
	}
	stage := path.Join(r.name, stageDir, id.String()+"."+ksuid.New().String())
	if err := afero.WriteFile(r.fs, stage, data, 0600); err != nil {
		return fmt.Errorf("staging object %s: %v", id, err)
	}
	if err := r.fs.MkdirAll(path.Dir(target), 0700); err != nil {
		return fmt.Errorf("ensuring directories for object %s: %v", id, err)
	}
	if err := r.fs.Rename(stage, target); err != nil {
		// a concurrent writer landed the same object first; its
		// content is identical, ours is surplus
		if ok, e := afero.Exists(r.fs, target); e == nil && ok {
			_ = r.fs.Remove(stage)
			return nil
		}
		return fmt.Errorf("storing object %s: %v", id, err)
	}
	return nil
}

func (r *repository) getObject(id store.ObjectID) ([]byte, error) {
	data, err := afero.ReadFile(r.fs, r.objectPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.ErrObjectNotFound
		}
		return nil, err
	}
	return data, nil
}

func (r *repository) ResolveRef(_ context.Context, refName string) (store.ObjectID, error) {
	r.refLock.Lock()
	defer r.refLock.Unlock()
	return r.resolveLocked(refName)
}

func (r *repository) resolveLocked(refName string) (store.ObjectID, error) {
	data, err := afero.ReadFile(r.fs, r.refPath(refName))
	if err != nil {
		if os.IsNotExist(err) {
			return store.NilObjectID, status.ErrRefNotFound
		}
		return store.NilObjectID, err
	}
	id, err := store.ParseObjectID(strings.TrimSpace(string(data)))
	if err != nil {
		return store.NilObjectID, fmt.Errorf("corrupt ref %q: %v", refName, err)
	}
	return id, nil
}

func (r *repository) ReadCommit(_ context.Context, id store.ObjectID) (store.Commit, error) {
	data, err := r.getObject(id)
	if err != nil {
		return store.Commit{}, err
	}
	var cf commitFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return store.Commit{}, fmt.Errorf("corrupt commit object %s: %v", id, err)
	}
	parent, err := store.ParseObjectID(cf.Parent)
	if err != nil {
		return store.Commit{}, fmt.Errorf("corrupt commit object %s: %v", id, err)
	}
	blob, err := store.ParseObjectID(cf.Blob)
	if err != nil {
		return store.Commit{}, fmt.Errorf("corrupt commit object %s: %v", id, err)
	}
	return store.Commit{
		ID:        id,
		Parent:    parent,
		Blob:      blob,
		Author:    cf.Author,
		Committer: cf.Committer,
		Message:   cf.Message,
	}, nil
}

func (r *repository) ReadBlob(_ context.Context, id store.ObjectID) ([]byte, error) {
	return r.getObject(id)
}

func (r *repository) WriteCommit(_ context.Context, spec store.CommitSpec) (store.ObjectID, error) {
	blobID := store.BlobID(spec.Blob)
	if spec.Blob != nil {
		if err := r.putObject(blobID, spec.Blob); err != nil {
			return store.NilObjectID, err
		}
	}
	commitID := store.CommitID(spec, blobID)
	data, err := yaml.Marshal(commitFile{
		Parent:    spec.Parent.String(),
		Blob:      blobID.String(),
		Author:    spec.Author,
		Committer: spec.Committer,
		Message:   spec.Message,
	})
	if err != nil {
		return store.NilObjectID, err
	}
	if err := r.putObject(commitID, data); err != nil {
		return store.NilObjectID, err
	}
	return commitID, nil
}

func (r *repository) UpdateRef(_ context.Context, update store.RefUpdate) (store.UpdateResult, error) {
	if update.New.IsNil() && !update.Force {
		return store.UpdateRejected, status.ErrInvalidUpdate
	}

	r.refLock.Lock()
	defer r.refLock.Unlock()

	current, err := r.resolveLocked(update.Name)
	switch {
	case err == nil:
	case errors.Is(err, status.ErrRefNotFound):
		current = store.NilObjectID
	default:
		return store.UpdateRejected, err
	}
	if current != update.ExpectedOld {
		return store.UpdateRejected, nil
	}

	if update.New.IsNil() {
		if err := r.fs.Remove(r.refPath(update.Name)); err != nil && !os.IsNotExist(err) {
			return store.UpdateRejected, fmt.Errorf("removing ref %q: %v", update.Name, err)
		}
	} else {
		target := r.refPath(update.Name)
		if err := r.fs.MkdirAll(path.Dir(target), 0700); err != nil {
			return store.UpdateRejected, fmt.Errorf("ensuring directories for ref %q: %v", update.Name, err)
		}
		stage := path.Join(r.name, stageDir, "ref-"+update.New.String())
		if err := afero.WriteFile(r.fs, stage, []byte(update.New.String()+"\n"), 0600); err != nil {
			return store.UpdateRejected, fmt.Errorf("staging ref %q: %v", update.Name, err)
		}
		if err := r.fs.Rename(stage, target); err != nil {
			return store.UpdateRejected, fmt.Errorf("updating ref %q: %v", update.Name, err)
		}
	}

	r.appendRefLog(update, current)
	return store.UpdateForced, nil
}

// appendRefLog records the transition; the log is advisory and write
// failures do not fail the update.
func (r *repository) appendRefLog(update store.RefUpdate, old store.ObjectID) {
	target := r.logPath(update.Name)
	if err := r.fs.MkdirAll(path.Dir(target), 0700); err != nil {
		return
	}
	f, err := r.fs.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	line := fmt.Sprintf("%s %s %s <%s> %s\n",
		old, update.New, update.LogIdent.Name, update.LogIdent.Email, update.LogMessage)
	_, _ = f.WriteString(line)
}

func (r *repository) ListRefs(_ context.Context, prefix string) ([]store.Ref, error) {
	r.refLock.Lock()
	defer r.refLock.Unlock()

	root := path.Join(r.name, refsDir)
	var refs []store.Ref
	err := afero.Walk(r.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		name := "refs/" + strings.TrimPrefix(filepath.ToSlash(p), filepath.ToSlash(root)+"/")
		if !strings.HasPrefix(name, prefix) {
			return nil
		}
		target, err := r.resolveLocked(name)
		if err != nil {
			return err
		}
		refs = append(refs, store.Ref{Name: name, Target: target})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (r *repository) Close() error {
	return nil
}
