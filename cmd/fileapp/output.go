package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"fileapp/internal/api"
	"fileapp/internal/format"
	"fileapp/internal/models"
)

var outputFormatter format.Formatter = format.JSONFormatter{}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeUploadResult(resp api.UploadResponse) error {
	lines := []string{
		fmt.Sprintf("file_path: %s", resp.FilePath),
		fmt.Sprintf("path: %s", resp.Path),
		fmt.Sprintf("size_bytes: %d", resp.SizeBytes),
		fmt.Sprintf("sha256: %s", resp.SHA256),
	}
	if resp.MediaType != "" {
		lines = append(lines, fmt.Sprintf("media_type: %s", resp.MediaType))
	}
	for _, line := range lines {
		if err := writePlain("%s\n", line); err != nil {
			return err
		}
	}
	return nil
}

func writeFileList(resp api.FileListResponse) error {
	for _, file := range resp.Files {
		if err := writePlain("%10d  %s  %s\n", file.SizeBytes, formatTime(file.ModTime), file.Name); err != nil {
			return err
		}
	}
	return nil
}

func writeUploadList(uploads []models.Upload) error {
	for _, upload := range uploads {
		if err := writePlain("%s  %s  %d  %s\n", formatTime(upload.CreatedAt), upload.Reference(), upload.SizeBytes, upload.OriginalName); err != nil {
			return err
		}
	}
	return nil
}

func writeInfo(resp api.InfoResponse) error {
	_ = writePlain("media_root: %s\n", resp.MediaRoot)
	_ = writePlain("journal_enabled: %t\n", resp.JournalEnabled)
	if resp.JournalEnabled {
		_ = writePlain("db_path: %s\n", resp.DBPath)
		_ = writePlain("schema_version: %d\n", resp.SchemaVersion)
	}
	_ = writePlain("total_uploads: %d\n", resp.TotalUploads)
	_ = writePlain("total_bytes: %d\n", resp.TotalBytes)

	services := make([]string, 0, len(resp.ServiceUploads))
	for service := range resp.ServiceUploads {
		services = append(services, service)
	}
	sort.Strings(services)
	for _, service := range services {
		_ = writePlain("  %s: %d\n", service, resp.ServiceUploads[service])
	}

	policy := resp.UploadPolicy
	_ = writePlain("upload_policy_enforced: %t\n", policy.Enforced)
	_ = writePlain("max_upload_bytes: %d\n", policy.MaxUploadBytes)
	if policy.Enforced {
		_ = writePlain("policy_max_bytes: %d\n", policy.MaxBytes)
		return writePlain("allowed_extensions: %v\n", policy.AllowedExtensions)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
