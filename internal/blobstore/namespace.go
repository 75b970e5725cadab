package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
)

const (
	tmpDirName = ".tmp"
	dirPerm    = 0o755
)

// NamespaceStore keeps blobs in one directory per service under a root.
//
// Blobs are written to a temporary file first and published with a hard
// link, which fails instead of replacing an existing name. Readers therefore
// never see a partially written blob, and concurrent writers asking for the
// same name each end up with their own file.
type NamespaceStore struct {
	root string
}

var _ Store = (*NamespaceStore)(nil)

// NewNamespaceStore creates a store rooted at root.
func NewNamespaceStore(root string) (*NamespaceStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("media root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, tmpDirName), dirPerm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return &NamespaceStore{root: abs}, nil
}

// Root returns the absolute storage root.
func (s *NamespaceStore) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// EnsureNamespace creates the directory for service if it does not exist yet.
func (s *NamespaceStore) EnsureNamespace(ctx context.Context, service string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := ValidateNamespace(service); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, service)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("%w: create namespace %s: %w", ErrStorageUnavailable, service, err)
	}
	return dir, nil
}

// Save streams r into the namespace of service and returns the name it was
// stored under. The name differs from filename when filename needed
// sanitizing or was already taken.
func (s *NamespaceStore) Save(ctx context.Context, service, filename string, r io.Reader) (SaveResult, error) {
	var zero SaveResult
	if s == nil {
		return zero, fmt.Errorf("blob store is not configured")
	}
	if r == nil {
		return zero, fmt.Errorf("reader is required")
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	name, err := SanitizeFilename(filename)
	if err != nil {
		return zero, err
	}
	dir, err := s.EnsureNamespace(ctx, service)
	if err != nil {
		return zero, err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, tmpDirName), "put-*")
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	tmpPath := tmp.Name()
	// The published name is a second link, so dropping the temp name is
	// always safe.
	defer os.Remove(tmpPath)

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), &contextReader{ctx: ctx, r: r})
	if err != nil {
		_ = tmp.Close()
		return zero, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return zero, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return zero, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	stored, err := publish(tmpPath, dir, name)
	if err != nil {
		return zero, err
	}

	return SaveResult{
		Service:   service,
		Name:      stored,
		SizeBytes: n,
		SHA256:    hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// Open returns the blob stored as filename in the namespace of service.
func (s *NamespaceStore) Open(ctx context.Context, service, filename string) (*Blob, error) {
	if s == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.blobPath(service, filename)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, service, filename)
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, service, filename)
	}

	return &Blob{File: f, Name: filename, SizeBytes: info.Size(), ModTime: info.ModTime()}, nil
}

// List returns the blobs of one namespace ordered by name.
func (s *NamespaceStore) List(ctx context.Context, service string) ([]BlobInfo, error) {
	if s == nil {
		return nil, fmt.Errorf("blob store is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateNamespace(service); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.root, service))
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%w: namespace %s", ErrNotFound, service)
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	out := make([]BlobInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		out = append(out, BlobInfo{Name: entry.Name(), SizeBytes: info.Size(), ModTime: info.ModTime().UTC()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func publish(tmpPath, dir, name string) (string, error) {
	candidate := name
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		err := os.Link(tmpPath, filepath.Join(dir, candidate))
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: publish %s: %w", ErrStorageUnavailable, candidate, err)
		}
		candidate, err = alternativeName(name)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
	}
	return "", fmt.Errorf("%w: no free name for %q", ErrStorageUnavailable, name)
}

func (s *NamespaceStore) blobPath(service, filename string) (string, error) {
	if err := ValidateNamespace(service); err != nil {
		return "", err
	}
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	return filepath.Join(s.root, service, filename), nil
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
