package store

import (
	"context"
	"time"

	"fileapp/internal/models"
)

// UploadFilter narrows ListUploads.
type UploadFilter struct {
	Service string
	Since   *time.Time
	Limit   int
	Offset  int
}

// JournalInfo summarizes the journal for the info endpoint.
type JournalInfo struct {
	SchemaVersion  int            `json:"schema_version"`
	TotalUploads   int            `json:"total_uploads"`
	TotalBytes     int64          `json:"total_bytes"`
	ServiceUploads map[string]int `json:"service_uploads"`
}

// UploadJournal records accepted uploads. It is an audit trail; blob lookup
// never goes through it.
type UploadJournal interface {
	RecordUpload(ctx context.Context, upload *models.Upload) error
	ListUploads(ctx context.Context, filter UploadFilter) ([]models.Upload, error)
	JournalInfo(ctx context.Context) (JournalInfo, error)
}

var _ UploadJournal = (*Store)(nil)
