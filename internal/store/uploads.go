package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fileapp/internal/models"
)

const uploadColumns = "id, service, stored_name, original_name, size_bytes, sha256, media_type, request_id, created_at"

const (
	defaultUploadListLimit = 100
	maxUploadListLimit     = 1000
)

// RecordUpload appends one accepted upload to the journal and sets its ID.
func (s *Store) RecordUpload(ctx context.Context, upload *models.Upload) error {
	if upload == nil {
		return fmt.Errorf("upload is required")
	}
	if strings.TrimSpace(upload.Service) == "" || strings.TrimSpace(upload.StoredName) == "" {
		return fmt.Errorf("service and stored name are required")
	}
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO uploads (service, stored_name, original_name, size_bytes, sha256, media_type, request_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		upload.Service,
		upload.StoredName,
		nullIfEmpty(upload.OriginalName),
		upload.SizeBytes,
		upload.SHA256,
		nullIfEmpty(upload.MediaType),
		nullIfEmpty(upload.RequestID),
		formatTime(upload.CreatedAt),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	upload.ID = id
	return nil
}

// ListUploads returns journal entries newest first.
func (s *Store) ListUploads(ctx context.Context, filter UploadFilter) ([]models.Upload, error) {
	query := `SELECT ` + uploadColumns + ` FROM uploads`
	var conditions []string
	var args []any
	if filter.Service != "" {
		conditions = append(conditions, "service = ?")
		args = append(args, filter.Service)
	}
	if filter.Since != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, formatTime(*filter.Since))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultUploadListLimit
	}
	if limit > maxUploadListLimit {
		limit = maxUploadListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uploads := []models.Upload{}
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, *upload)
	}
	return uploads, rows.Err()
}

// JournalInfo reports schema version and per-service counts.
func (s *Store) JournalInfo(ctx context.Context) (JournalInfo, error) {
	info := JournalInfo{ServiceUploads: map[string]int{}}

	version, err := currentVersion(s.db)
	if err != nil {
		return info, err
	}
	info.SchemaVersion = version

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(size_bytes), 0) FROM uploads`).Scan(&info.TotalUploads, &info.TotalBytes); err != nil {
		return info, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT service, COUNT(*) FROM uploads GROUP BY service`)
	if err != nil {
		return info, err
	}
	defer rows.Close()
	for rows.Next() {
		var service string
		var count int
		if err := rows.Scan(&service, &count); err != nil {
			return info, err
		}
		info.ServiceUploads[service] = count
	}
	return info, rows.Err()
}

func scanUpload(scanner interface {
	Scan(dest ...any) error
}) (*models.Upload, error) {
	upload := models.Upload{}
	var originalName, mediaType, requestID sql.NullString
	var createdAt string

	if err := scanner.Scan(
		&upload.ID,
		&upload.Service,
		&upload.StoredName,
		&originalName,
		&upload.SizeBytes,
		&upload.SHA256,
		&mediaType,
		&requestID,
		&createdAt,
	); err != nil {
		return nil, err
	}

	upload.OriginalName = originalName.String
	upload.MediaType = mediaType.String
	upload.RequestID = requestID.String

	parsed, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	upload.CreatedAt = parsed
	return &upload, nil
}
