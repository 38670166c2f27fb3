// Command bubblechart is the development tool for the bubble chart widget:
// it builds the wasm binary, serves the host and widget pages with live
// reload, prints comparison statements for offline datasets and runs the
// layout inspector.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naei/bubblechart/internal/config"
	"github.com/naei/bubblechart/pkg/debug"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	var dir string

	root := &cobra.Command{
		Use:          "bubblechart",
		Short:        "Build, serve and inspect the bubble chart widget",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir != "" && dir != "." {
				if err := os.Chdir(dir); err != nil {
					return fmt.Errorf("failed to change directory to %s: %w", dir, err)
				}
			}
			cfg, err := config.Load(cmd.Context(), ".")
			if err != nil {
				return err
			}
			logger := debug.New(os.Stderr, debug.Level(verbose || cfg.Verbose))
			ctx := debug.WithLogger(cmd.Context(), logger)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&dir, "dir", "C", ".", "run as if started in this directory")

	root.AddCommand(newServeCmd())
	root.AddCommand(newBuildCmd())
	root.AddCommand(newCompareCmd())
	root.AddCommand(newInspectCmd())
	return root
}

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFromContext returns the loaded config, or the defaults.
func configFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}
