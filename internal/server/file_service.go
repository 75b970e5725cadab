package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"fileapp/internal/api"
	"fileapp/internal/blobstore"
	"fileapp/internal/models"
	"fileapp/internal/store"
)

const (
	sniffLength              = 512
	fallbackContentMediaType = "application/octet-stream"
)

// FileService orchestrates blob uploads, downloads and the upload journal.
type FileService struct {
	blobs   blobstore.Store
	journal store.UploadJournal
	logger  *slog.Logger

	maxUploadBytes     int64
	multipartMaxMemory int64
	policy             uploadPolicy
}

// UploadInput describes one incoming upload.
type UploadInput struct {
	Service   string
	Filename  string
	SizeBytes int64
	RequestID string
}

// NewFileService constructs a FileService with default upload options.
func NewFileService(blobs blobstore.Store, journal store.UploadJournal, logger *slog.Logger) *FileService {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &FileService{blobs: blobs, journal: journal, logger: logger}
	svc.Configure(DefaultUploadOptions())
	return svc
}

// Configure applies upload limits and policy. Zero limits keep the defaults.
func (f *FileService) Configure(opts UploadOptions) {
	if f == nil {
		return
	}
	f.maxUploadBytes = opts.MaxUploadBytes
	if f.maxUploadBytes <= 0 {
		f.maxUploadBytes = defaultMaxUploadBytes
	}
	f.multipartMaxMemory = opts.MultipartMaxMemory
	if f.multipartMaxMemory <= 0 {
		f.multipartMaxMemory = defaultMultipartMaxMemory
	}
	f.policy = newUploadPolicy(opts)
}

// Root returns the storage root directory.
func (f *FileService) Root() string {
	if f == nil || f.blobs == nil {
		return ""
	}
	return f.blobs.Root()
}

// PolicyInfo reports the active upload limits.
func (f *FileService) PolicyInfo() api.UploadPolicyInfo {
	info := api.UploadPolicyInfo{Enforced: f.policy.enforce, MaxUploadBytes: f.maxUploadBytes}
	if f.policy.enforce {
		info.AllowedExtensions = f.policy.allowed()
		info.MaxBytes = f.policy.maxBytes
	}
	return info
}

// Upload validates and stores content under the caller's namespace. Nothing
// is written when validation fails.
func (f *FileService) Upload(ctx context.Context, in UploadInput, content io.Reader) (api.UploadResponse, error) {
	var zero api.UploadResponse
	if f == nil || f.blobs == nil {
		return zero, internalError(fmt.Errorf("file service is not configured"))
	}
	if content == nil {
		return zero, missingField("file")
	}

	service := strings.TrimSpace(in.Service)
	if service == "" {
		return zero, missingField("service")
	}
	if err := blobstore.ValidateNamespace(service); err != nil {
		return zero, badRequestCode(err, ErrCodeInvalidName)
	}
	name, err := blobstore.SanitizeFilename(in.Filename)
	if err != nil {
		return zero, badRequestCode(err, ErrCodeInvalidName)
	}
	if err := f.policy.check(name, in.SizeBytes); err != nil {
		return zero, err
	}

	buffered := bufio.NewReaderSize(f.policy.limit(content), sniffLength)
	mediaType := detectMediaType(name, buffered)

	result, err := f.blobs.Save(ctx, service, name, buffered)
	if errors.Is(err, errPolicySizeExceeded) {
		return zero, f.policy.sizeViolation("file is larger than allowed")
	}
	if err != nil {
		return zero, blobstoreError(err, ErrCodeFileNotFound)
	}

	f.recordUpload(ctx, &models.Upload{
		Service:      result.Service,
		StoredName:   result.Name,
		OriginalName: in.Filename,
		SizeBytes:    result.SizeBytes,
		SHA256:       result.SHA256,
		MediaType:    mediaType,
		RequestID:    in.RequestID,
	})

	return api.UploadResponse{
		FilePath:  result.Name,
		Service:   result.Service,
		Path:      result.Service + "/" + result.Name,
		SizeBytes: result.SizeBytes,
		SHA256:    result.SHA256,
		MediaType: mediaType,
	}, nil
}

// recordUpload appends to the journal. Failures are logged only; the blob is
// already durable and the filesystem stays authoritative.
func (f *FileService) recordUpload(ctx context.Context, upload *models.Upload) {
	if f.journal == nil {
		return
	}
	if err := f.journal.RecordUpload(context.WithoutCancel(ctx), upload); err != nil {
		f.logger.Warn("upload journal append failed",
			"service", upload.Service,
			"stored_name", upload.StoredName,
			"error_code", ErrCodeJournalFailure,
			"error", err,
		)
	}
}

// Open locates a stored blob for streaming. Callers must close it.
func (f *FileService) Open(ctx context.Context, service, filename string) (*blobstore.Blob, error) {
	if f == nil || f.blobs == nil {
		return nil, internalError(fmt.Errorf("file service is not configured"))
	}
	service = strings.TrimSpace(service)
	if service == "" {
		return nil, missingField("service")
	}
	if filename == "" {
		return nil, missingField("filename")
	}
	blob, err := f.blobs.Open(ctx, service, filename)
	if err != nil {
		return nil, blobstoreError(err, ErrCodeFileNotFound)
	}
	return blob, nil
}

// List returns the blobs stored in one namespace.
func (f *FileService) List(ctx context.Context, service string) ([]api.FileInfo, error) {
	if f == nil || f.blobs == nil {
		return nil, internalError(fmt.Errorf("file service is not configured"))
	}
	infos, err := f.blobs.List(ctx, strings.TrimSpace(service))
	if err != nil {
		return nil, blobstoreError(err, ErrCodeNamespaceNotFound)
	}
	files := make([]api.FileInfo, 0, len(infos))
	for _, info := range infos {
		files = append(files, api.FileInfo{Name: info.Name, SizeBytes: info.SizeBytes, ModTime: info.ModTime})
	}
	return files, nil
}

// detectMediaType prefers the extension and falls back to sniffing the first
// bytes without consuming them.
func detectMediaType(name string, r *bufio.Reader) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		if parsed, _, err := mime.ParseMediaType(byExt); err == nil {
			return parsed
		}
	}
	peek, _ := r.Peek(sniffLength)
	if len(peek) == 0 {
		return fallbackContentMediaType
	}
	sniffed := http.DetectContentType(peek)
	if parsed, _, err := mime.ParseMediaType(sniffed); err == nil {
		return parsed
	}
	return fallbackContentMediaType
}
