package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fileapp/internal/api"
	"fileapp/internal/config"
)

func newUploadCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "upload <service> <path>",
		Short: "Upload a file into a service namespace",
		Args:  requireExactlyArgs(2, "service and path are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, path := args[0], args[1]
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			name := chooseFirst(strings.TrimSpace(filename), filepath.Base(path))
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Upload(cmd.Context(), service, name, file)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeUploadResult(resp)
			})
		},
	}
	cmd.Flags().StringVar(&filename, "filename", "", "name to upload as (defaults to the file's base name)")
	return cmd
}

func newDownloadCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		outPath string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "download <service> <filename>",
		Short: "Download a stored file",
		Args:  requireExactlyArgs(2, "service and filename are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, filename := args[0], args[1]
			outPath = chooseFirst(strings.TrimSpace(outPath), filepath.Base(filename))
			if !force {
				if _, err := os.Stat(outPath); err == nil {
					return fmt.Errorf("output file exists (use --force to overwrite)")
				}
			}

			return withClient(cfg, func(client *api.Client) error {
				f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
				if err != nil {
					return err
				}
				n, err := client.Download(cmd.Context(), service, filename, f)
				if closeErr := f.Close(); err == nil {
					err = closeErr
				}
				if err != nil {
					_ = os.Remove(outPath)
					return err
				}
				if *jsonOutput {
					return writeJSON(map[string]any{"path": outPath, "size_bytes": n})
				}
				return writePlain("wrote %d bytes to %s\n", n, outPath)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output path (defaults to the stored name)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing output file")
	return cmd
}

func newLsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <service>",
		Short: "List files stored for a service",
		Args:  requireExactlyArgs(1, "service is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.ListFiles(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeFileList(resp)
			})
		},
	}
}

func newUploadsCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var (
		service string
		since   string
		limit   int
		offset  int
	)

	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "Show the upload journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			setIfNotEmpty(query, "service", service)
			setIfNotEmpty(query, "since", since)
			if limit > 0 {
				query.Set("limit", intToString(limit))
			}
			if offset > 0 {
				query.Set("offset", intToString(offset))
			}

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.ListUploads(cmd.Context(), query)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeUploadList(resp.Uploads)
			})
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "only show uploads for this service")
	cmd.Flags().StringVar(&since, "since", "", "only show uploads at or after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of uploads")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of uploads to skip")
	return cmd
}
