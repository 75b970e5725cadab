package main

import (
	"context"
	"errors"
	"net"

	"fileapp/internal/api"
)

// Numeric error codes reported by the server in ErrorResponse.ErrorCode.
const (
	errCodeRequestTooLarge = 1002
	errCodeInvalidName     = 1015
	errCodeInvalidUpload   = 1016
	errCodeJournalDisabled = 2003
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode {
		case errCodeRequestTooLarge:
			lines = append(lines, "hint: raise uploads.max_upload_bytes on the server or upload a smaller file.")
		case errCodeInvalidName:
			lines = append(lines, "hint: service names and filenames must not contain path separators or '..'.")
		case errCodeInvalidUpload:
			lines = append(lines, "hint: the upload policy is enforced; check allowed extensions with: fileapp info")
		case errCodeJournalDisabled:
			lines = append(lines, "hint: the server runs without an upload journal; set db_path to enable it.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify FILEAPP_API_URL points to a fileapp server.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase FILEAPP_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a fileapp server is running at FILEAPP_API_URL.",
			"hint: start local server manually with: fileapp srv",
			"hint: you can increase FILEAPP_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
