// Package providertest offers an in-memory StorageProvider test double so
// every other package's unit tests can exercise the sync pipeline without a
// real backend, mirroring the teacher's testutil fakes.
package providertest

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/syncforge/syncengine/internal/provider"
)

// entry is one file or directory held by MemoryProvider.
type entry struct {
	isDir   bool
	data    []byte
	modTime time.Time
	hash    string
}

// MemoryProvider is a thread-safe in-memory StorageProvider, keyed by
// slash-separated path. The root directory always exists implicitly.
type MemoryProvider struct {
	mu      sync.Mutex
	name    string
	entries map[string]*entry
	// FailOp, when set, causes the named operation to return err on every call.
	FailOp map[string]error
}

// NewMemoryProvider returns an empty MemoryProvider named name.
func NewMemoryProvider(name string) *MemoryProvider {
	return &MemoryProvider{
		name:    name,
		entries: make(map[string]*entry),
		FailOp:  make(map[string]error),
	}
}

func clean(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	return p
}

func (m *MemoryProvider) Name() string { return m.name }

func (m *MemoryProvider) failIfSet(op string) error {
	if err, ok := m.FailOp[op]; ok {
		return err
	}

	return nil
}

// PutFile seeds a file directly, bypassing Upload — used by tests to set up
// fixture trees.
func (m *MemoryProvider) PutFile(p string, data []byte, modTime time.Time, hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[clean(p)] = &entry{data: append([]byte(nil), data...), modTime: modTime, hash: hash}
	m.ensureParents(clean(p))
}

// PutDir seeds a directory entry.
func (m *MemoryProvider) PutDir(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[clean(p)] = &entry{isDir: true, modTime: time.Now()}
	m.ensureParents(clean(p))
}

func (m *MemoryProvider) ensureParents(p string) {
	dir := path.Dir(p)
	for dir != "." && dir != "/" && dir != "" {
		if _, ok := m.entries[dir]; !ok {
			m.entries[dir] = &entry{isDir: true, modTime: time.Now()}
		}

		dir = path.Dir(dir)
	}
}

func (m *MemoryProvider) List(ctx context.Context, dir string) ([]provider.Metadata, error) {
	if err := m.failIfSet("list"); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dir = clean(dir)

	parentDir := dir
	if parentDir == "" {
		parentDir = "." // path.Dir's convention for a top-level entry
	}

	var out []provider.Metadata

	for p, e := range m.entries {
		if p == dir {
			continue
		}

		if path.Dir(p) != parentDir {
			continue
		}

		out = append(out, toMetadata(p, e))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	return out, nil
}

func (m *MemoryProvider) Stat(ctx context.Context, p string) (provider.Metadata, error) {
	if err := m.failIfSet("stat"); err != nil {
		return provider.Metadata{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)
	if p == "" {
		return provider.Metadata{Path: "", IsDir: true}, nil
	}

	e, ok := m.entries[p]
	if !ok {
		return provider.Metadata{}, provider.NewError(m.name, "stat", p, provider.KindNotFound, errNotFound)
	}

	return toMetadata(p, e), nil
}

func (m *MemoryProvider) Exists(ctx context.Context, p string) (bool, error) {
	_, err := m.Stat(ctx, p)
	if err == nil {
		return true, nil
	}

	if provider.IsNotFound(err) {
		return false, nil
	}

	return false, err
}

// Mkdir creates p as a single directory level. It does not implicitly
// create missing intermediate ancestors and is idempotent if p already
// exists as a directory (spec §4.1).
func (m *MemoryProvider) Mkdir(ctx context.Context, p string) error {
	if err := m.failIfSet("mkdir"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)

	if existing, ok := m.entries[p]; ok {
		if existing.isDir {
			return nil
		}

		return provider.NewError(m.name, "mkdir", p, provider.KindAPIError, errNotDir)
	}

	if parent := path.Dir(p); parent != "." && parent != "/" && parent != "" {
		if e, ok := m.entries[parent]; !ok || !e.isDir {
			return provider.NewError(m.name, "mkdir", p, provider.KindNotFound, errNotFound)
		}
	}

	m.entries[p] = &entry{isDir: true, modTime: time.Now()}

	return nil
}

func (m *MemoryProvider) Delete(ctx context.Context, p string, recursive bool) error {
	if err := m.failIfSet("delete"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)

	if _, ok := m.entries[p]; !ok {
		return provider.NewError(m.name, "delete", p, provider.KindNotFound, errNotFound)
	}

	delete(m.entries, p)

	if recursive {
		prefix := p + "/"
		for child := range m.entries {
			if strings.HasPrefix(child, prefix) {
				delete(m.entries, child)
			}
		}
	}

	return nil
}

func (m *MemoryProvider) Upload(ctx context.Context, p string, r io.Reader, size int64, modTime time.Time) (provider.Metadata, error) {
	if err := m.failIfSet("upload"); err != nil {
		return provider.Metadata{}, err
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return provider.Metadata{}, provider.NewError(m.name, "upload", p, provider.KindConnectionFailed, err)
	}

	if modTime.IsZero() {
		modTime = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)

	if err := m.requireParentDir("upload", p); err != nil {
		return provider.Metadata{}, err
	}

	m.entries[p] = &entry{data: buf.Bytes(), modTime: modTime}

	return toMetadata(p, m.entries[p]), nil
}

func (m *MemoryProvider) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := m.failIfSet("download"); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p = clean(p)

	e, ok := m.entries[p]
	if !ok || e.isDir {
		return nil, provider.NewError(m.name, "download", p, provider.KindNotFound, errNotFound)
	}

	return io.NopCloser(bytes.NewReader(e.data)), nil
}

func (m *MemoryProvider) Move(ctx context.Context, oldPath, newPath string) error {
	if err := m.failIfSet("move"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	oldPath, newPath = clean(oldPath), clean(newPath)

	e, ok := m.entries[oldPath]
	if !ok {
		return provider.NewError(m.name, "move", oldPath, provider.KindNotFound, errNotFound)
	}

	if err := m.requireParentDir("move", newPath); err != nil {
		return err
	}

	delete(m.entries, oldPath)
	m.entries[newPath] = e

	return nil
}

// requireParentDir returns a KindNotFound error if p's parent directory
// doesn't already exist as a directory. Mirrors a real backend that won't
// implicitly create ancestors for upload/move (spec §4.1).
func (m *MemoryProvider) requireParentDir(op, p string) error {
	parent := path.Dir(p)
	if parent == "." || parent == "/" || parent == "" {
		return nil
	}

	e, ok := m.entries[parent]
	if !ok || !e.isDir {
		return provider.NewError(m.name, op, p, provider.KindNotFound, errNotFound)
	}

	return nil
}

func (m *MemoryProvider) Verify(ctx context.Context) error {
	return m.failIfSet("verify")
}

func toMetadata(p string, e *entry) provider.Metadata {
	return provider.Metadata{
		Path:    p,
		IsDir:   e.isDir,
		Size:    int64(len(e.data)),
		ModTime: e.modTime,
		Hash:    e.hash,
	}
}

var errNotFound = notFoundErr{}

type notFoundErr struct{}

func (notFoundErr) Error() string { return "providertest: not found" }

var errNotDir = notDirErr{}

type notDirErr struct{}

func (notDirErr) Error() string { return "providertest: path exists and is not a directory" }
