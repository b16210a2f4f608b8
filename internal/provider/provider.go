// Package provider defines the backend-agnostic storage abstraction that the
// rest of the sync engine operates against. Each supported backend (WebDAV,
// Aliyun Drive, 115, Quark, local filesystem) implements StorageProvider;
// callers never depend on a concrete backend type.
package provider

import (
	"context"
	"io"
	"time"
)

// Metadata describes a single file or directory entry as reported by a
// backend. Hash is backend-opportunistic: some backends return a content
// hash on List/Stat, others only on Download.
type Metadata struct {
	Path      string // path relative to the provider's configured root
	IsDir     bool
	Size      int64
	ModTime   time.Time
	Hash      string // opportunistic content hash, empty if unavailable
	HashAlgo  string // name of the hash algorithm, empty if Hash is empty
	MimeType  string // opportunistic, empty if unavailable
}

// StorageProvider is the backend-agnostic interface every remote and local
// storage implementation satisfies. All methods take a context and return a
// classified *Error (see errors.go) so callers can drive retry/skip/fatal
// decisions without knowing the concrete backend.
type StorageProvider interface {
	// List returns the immediate children of dir (non-recursive).
	List(ctx context.Context, dir string) ([]Metadata, error)

	// Stat returns metadata for a single path.
	Stat(ctx context.Context, path string) (Metadata, error)

	// Exists reports whether path exists, without surfacing a NotFound error.
	Exists(ctx context.Context, path string) (bool, error)

	// Mkdir creates a single directory level; missing parents are not
	// created.
	Mkdir(ctx context.Context, path string) error

	// Delete removes a file or, when recursive is true, a directory tree.
	Delete(ctx context.Context, path string, recursive bool) error

	// Upload writes size bytes read from r to path, creating or overwriting it.
	// modTime, when non-zero, is applied to the remote entry after the write
	// completes (best-effort — not all backends preserve mtimes).
	Upload(ctx context.Context, path string, r io.Reader, size int64, modTime time.Time) (Metadata, error)

	// Download opens path for reading. Callers must close the returned ReadCloser.
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Move renames/relocates a path in a single backend-native operation when
	// supported; callers fall back to copy+delete when ErrNotImplemented is
	// returned.
	Move(ctx context.Context, oldPath, newPath string) error

	// Verify checks backend connectivity and credential validity.
	Verify(ctx context.Context) error

	// Name identifies the backend for logging and error classification.
	Name() string
}
