package main

import (
	"github.com/spf13/cobra"

	"fileapp/internal/api"
	"fileapp/internal/config"
)

func newInfoCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show storage, journal and upload policy info",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}

				if *jsonOutput {
					return writeJSON(resp)
				}
				return writeInfo(resp)
			})
		},
	}
	return cmd
}
