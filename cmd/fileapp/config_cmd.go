package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fileapp/internal/config"
)

func newConfigCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change fileapp settings",
		Long: "Show or change fileapp settings.\n\n" +
			"Keys: " + strings.Join(config.AllowedKeys(), ", ") + "\n" +
			"Values are checked before anything is written: uploads.*_bytes and\n" +
			"uploads.multipart_max_memory take positive integers, uploads.enforce_policy\n" +
			"takes true or false and uploads.allowed_extensions takes a comma list.",
	}

	cmd.AddCommand(newConfigGetCmd(cfg), newConfigSetCmd())
	return cmd
}

func newConfigGetCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print one effective setting, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, key := range config.AllowedKeys() {
					value, err := cfg.Get(key)
					if err != nil {
						return err
					}
					if err := writePlain("%s = %s\n", key, value); err != nil {
						return err
					}
				}
				return nil
			}
			if !config.IsAllowedKey(args[0]) {
				return unknownConfigKey(args[0])
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return err
			}
			return writePlain("%s\n", value)
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a setting to the project or global config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if !config.IsAllowedKey(key) {
				return unknownConfigKey(key)
			}
			value, err := config.ParseValue(key, args[1])
			if err != nil {
				return fmt.Errorf("config set %s: %w", key, err)
			}

			path, err := configWritePath(global)
			if err != nil {
				return err
			}
			if err := config.SetKey(path, key, value); err != nil {
				return err
			}
			return writePlain("%s = %s (%s)\n", key, value, path)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "write to the global config file (~/"+config.ConfigFileName+")")
	return cmd
}

func configWritePath(global bool) (string, error) {
	if global {
		return config.GlobalPath()
	}
	return config.ProjectPath()
}

func unknownConfigKey(key string) error {
	return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(config.AllowedKeys(), ", "))
}
