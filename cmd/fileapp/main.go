// Command fileapp runs the file storage API server and the client commands
// that upload, download and list files through it.
package main

import (
	"fmt"
	"io"
	"os"

	"fileapp/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run returns the exit status instead of exiting so deferred cleanup inside
// commands, such as closing the journal, always completes.
func run(args []string, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "fileapp: load config: %v\n", err)
		return 1
	}
	if cfg.TrustedProjectConfigPath != "" {
		fmt.Fprintf(stderr, "warning: reading project config %s because FILEAPP_TRUST_PROJECT_CONFIG is set\n", cfg.TrustedProjectConfigPath)
	}

	root := newRootCmd(cfg)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		for _, line := range formatCLIError(err) {
			fmt.Fprintln(stderr, line)
		}
		return 1
	}
	return 0
}
