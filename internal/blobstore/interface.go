package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"time"
)

var (
	// ErrNotFound reports a missing namespace or blob.
	ErrNotFound = errors.New("not found")
	// ErrInvalidName reports a namespace or filename that is not a plain name.
	ErrInvalidName = errors.New("invalid name")
	// ErrStorageUnavailable reports a backing medium that cannot be written.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// SaveResult describes one persisted blob.
type SaveResult struct {
	Service   string
	Name      string
	SizeBytes int64
	SHA256    string
}

// BlobInfo describes one stored blob without opening it.
type BlobInfo struct {
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// Blob is an open stored blob. Callers must Close it.
type Blob struct {
	*os.File
	Name      string
	SizeBytes int64
	ModTime   time.Time
}

// Store is the namespaced byte-storage abstraction used by the HTTP server.
type Store interface {
	Root() string
	EnsureNamespace(ctx context.Context, service string) (string, error)
	Save(ctx context.Context, service, filename string, r io.Reader) (SaveResult, error)
	Open(ctx context.Context, service, filename string) (*Blob, error)
	List(ctx context.Context, service string) ([]BlobInfo, error)
}
