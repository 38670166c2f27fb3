package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/naei/bubblechart/internal/inspect"
	"github.com/naei/bubblechart/pkg/debug"
)

func newInspectCmd() *cobra.Command {
	var sel selectionFlags
	var viewport, footer float64
	var logPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Step through the height negotiation interactively",
		Long: `Runs the embedded widget against a simulated parent page and shows every
estimate, suppression and height message as the parent is resized and the
comparison is toggled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			ds, selection, err := sel.load(cfg.Dev.Dataset)
			if err != nil {
				return err
			}

			// The terminal belongs to the UI; widget logs go to a file or nowhere.
			logger := debug.Discard()
			if logPath != "" {
				f, err := os.Create(logPath)
				if err != nil {
					return fmt.Errorf("open log: %w", err)
				}
				defer f.Close()
				logger = debug.New(f, debug.Level(true))
			}

			s, err := inspect.NewSession(ctx, inspect.Options{
				Dataset:   ds,
				Selection: selection,
				Settings:  cfg.Layout,
				Timing:    cfg.Timing,
				Viewport:  viewport,
				Footer:    footer,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			defer s.Close()

			_, err = tea.NewProgram(inspect.NewModel(s), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
	sel.register(cmd)
	cmd.Flags().Float64Var(&viewport, "viewport", 0, "initial parent viewport height")
	cmd.Flags().Float64Var(&footer, "footer", 0, "parent footer height")
	cmd.Flags().StringVar(&logPath, "log", "", "write widget debug logs to this file")
	return cmd
}
