package api

import (
	"time"

	"fileapp/internal/models"
)

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// UploadResponse is the response from POST /v1/files.
//
// FilePath is the stored name; callers persist it and send it back verbatim
// as the download filename.
type UploadResponse struct {
	FilePath  string `json:"file_path"`
	Service   string `json:"service"`
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	SHA256    string `json:"sha256"`
	MediaType string `json:"media_type,omitempty"`
}

// DownloadRequest carries download parameters in a request body.
type DownloadRequest struct {
	Service  string `json:"service"`
	Filename string `json:"filename"`
}

// FileInfo describes one stored blob.
type FileInfo struct {
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// FileListResponse is the response from GET /v1/files/{service}.
type FileListResponse struct {
	Service string     `json:"service"`
	Files   []FileInfo `json:"files"`
}

// UploadListResponse is the response from GET /v1/uploads.
type UploadListResponse struct {
	Uploads []models.Upload `json:"uploads"`
}

// UploadPolicyInfo reports the active upload policy.
type UploadPolicyInfo struct {
	Enforced          bool     `json:"enforced"`
	AllowedExtensions []string `json:"allowed_extensions,omitempty"`
	MaxBytes          int64    `json:"max_bytes,omitempty"`
	MaxUploadBytes    int64    `json:"max_upload_bytes"`
}

// InfoResponse is the response from GET /v1/info.
type InfoResponse struct {
	MediaRoot      string           `json:"media_root"`
	DBPath         string           `json:"db_path,omitempty"`
	JournalEnabled bool             `json:"journal_enabled"`
	SchemaVersion  int              `json:"schema_version,omitempty"`
	TotalUploads   int              `json:"total_uploads"`
	TotalBytes     int64            `json:"total_bytes"`
	ServiceUploads map[string]int   `json:"service_uploads,omitempty"`
	UploadPolicy   UploadPolicyInfo `json:"upload_policy"`
}
