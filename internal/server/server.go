package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"fileapp/internal/blobstore"
	"fileapp/internal/store"
)

const (
	allowRemoteEnvKey = "FILEAPP_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	// Uploads stream large bodies; body read time is bounded by max_upload_bytes.
	readTimeout     = 5 * time.Minute
	writeTimeout    = 5 * time.Minute
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server wraps HTTP handlers for the fileapp API.
type Server struct {
	addr    string
	files   *FileService
	journal store.UploadJournal
	dbPath  string
	logger  *slog.Logger
}

// New creates a new server instance. journal may be nil when the upload
// journal is disabled.
func New(addr string, blobs blobstore.Store, journal store.UploadJournal, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if isNilJournal(journal) {
		journal = nil
	}

	return &Server{
		addr:    addr,
		files:   NewFileService(blobs, journal, logger),
		journal: journal,
		logger:  logger,
	}
}

// ConfigureUploads overrides the upload limits and policy.
func (s *Server) ConfigureUploads(opts UploadOptions) {
	if s == nil || s.files == nil {
		return
	}
	s.files.Configure(opts)
}

// SetDBPath records the journal location reported by /v1/info.
func (s *Server) SetDBPath(path string) {
	s.dbPath = path
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.routes())
}

// ListenAndServe starts the HTTP server and blocks until ctx is canceled or
// the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr, "media_root", s.files.Root())
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log().Info("shutting down server", "addr", s.addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func isNilJournal(journal store.UploadJournal) bool {
	if journal == nil {
		return true
	}
	st, ok := journal.(*store.Store)
	return ok && st == nil
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
