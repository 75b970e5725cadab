package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Blob transfer.
	mux.HandleFunc("POST /v1/files", s.handleUpload)
	mux.HandleFunc("GET /v1/files", s.handleDownload)
	// Existing callers append a trailing slash to the base URL.
	mux.HandleFunc("POST /v1/files/{$}", s.handleUpload)
	mux.HandleFunc("GET /v1/files/{$}", s.handleDownload)
	mux.HandleFunc("POST /v1/files/download", s.handleDownload)
	mux.HandleFunc("GET /v1/files/{service}/{filename}", s.handleDownloadPath)

	// Namespace listing.
	mux.HandleFunc("GET /v1/files/{service}", s.handleListFiles)

	// Upload journal.
	mux.HandleFunc("GET /v1/uploads", s.handleListUploads)

	return mux
}
