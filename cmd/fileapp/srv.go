package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fileapp/internal/blobstore"
	"fileapp/internal/config"
	"fileapp/internal/server"
	"fileapp/internal/store"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the fileapp API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.MediaRoot == "" {
				return fmt.Errorf("media root is required")
			}

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}
			logger := componentLogger("server")

			blobs, err := blobstore.NewNamespaceStore(cfg.MediaRoot)
			if err != nil {
				return err
			}
			logger.Info("media root ready", "path", blobs.Root())

			journal, err := openJournal(cfg, componentLogger("journal", "path", cfg.DBPath))
			if err != nil {
				return err
			}
			if journal != nil {
				defer journal.Close()
			}

			srv := server.New(addr, blobs, journal, logger)
			srv.ConfigureUploads(server.UploadOptions{
				MaxUploadBytes:     cfg.Uploads.MaxUploadBytes,
				MultipartMaxMemory: cfg.Uploads.MultipartMaxMemory,
				EnforcePolicy:      cfg.Uploads.EnforcePolicy,
				AllowedExtensions:  cfg.Uploads.AllowedExtensions,
				PolicyMaxBytes:     cfg.Uploads.PolicyMaxBytes,
			})
			if journal != nil {
				srv.SetDBPath(journal.Path())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
}

// openJournal returns nil when the journal is disabled.
func openJournal(cfg *config.Config, logger *slog.Logger) (*store.Store, error) {
	if !cfg.JournalEnabled() {
		logger.Info("upload journal disabled")
		return nil, nil
	}
	logger.Info("opening database")
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open upload journal: %w", err)
	}
	return st, nil
}
