package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/naei/bubblechart/internal/sim"
	"github.com/naei/bubblechart/pkg/comparison"
	"github.com/naei/bubblechart/pkg/debug"
	"github.com/naei/bubblechart/pkg/widget"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3b82f6"))
	nameStyle    = lipgloss.NewStyle().Width(26)
	numberStyle  = lipgloss.NewStyle().Width(18).Align(lipgloss.Right)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8"))
)

func newCompareCmd() *cobra.Command {
	var sel selectionFlags
	var htmlOut string
	var markup bool

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Print the comparison statement for a dataset selection",
		Long: `Derives the comparison between the two compared categories of a selection
from an offline YAML dataset and prints it. With --html the chart and the
comparison block are also written as a standalone page.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := configFromContext(ctx)
			ds, selection, err := sel.load(cfg.Dev.Dataset)
			if err != nil {
				return err
			}
			st, err := deriveStatement(ctx, ds, selection)
			if err != nil {
				return err
			}
			if markup {
				html, err := comparison.Markup(st, comparison.DefaultFormatter())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), html)
			} else {
				printStatement(cmd.OutOrStdout(), ds, selection, st)
			}

			if htmlOut != "" {
				p, err := renderPreview(ctx, ds, selection, cfg.Layout, debug.FromContext(ctx))
				if err != nil {
					return err
				}
				if p.Message != "" {
					return fmt.Errorf("render chart: %s", p.Message)
				}
				if err := os.WriteFile(htmlOut, p.HTML(), 0644); err != nil {
					return fmt.Errorf("write %s: %w", htmlOut, err)
				}
				debug.FromContext(ctx).Info("wrote preview", "path", htmlOut)
			}
			return nil
		},
	}
	sel.register(cmd)
	cmd.Flags().StringVar(&htmlOut, "html", "", "also write the chart and comparison as an HTML page")
	cmd.Flags().BoolVar(&markup, "markup", false, "print the comparison block HTML instead of text")
	return cmd
}

// comparedPoints returns the data points of the compared categories, named
// from the dataset, in selection order.
func comparedPoints(ds *sim.Dataset, sel widget.Selection) []comparison.DataPoint {
	data := sim.NewData(ds)
	names := make(map[int]string)
	for _, c := range data.Categories() {
		names[c.ID] = c.Name
	}
	scatter := data.ScatterData(sel.Year, sel.PollutantID, sel.IDs())

	var points []comparison.DataPoint
	for _, cat := range sel.Compared() {
		for _, p := range scatter {
			if p.CategoryID == cat.ID {
				p.DisplayName = names[cat.ID]
				points = append(points, p)
				break
			}
		}
	}
	return points
}

// deriveStatement runs the comparison engine for sel. A nil statement
// means the selection cannot be compared.
func deriveStatement(ctx context.Context, ds *sim.Dataset, sel widget.Selection) (*comparison.Statement, error) {
	pollutant, _ := ds.Pollutant(sel.PollutantID)
	engine := comparison.NewEngine(
		comparison.NewCachedAssessor(sim.NewData(ds)),
		debug.Component(debug.FromContext(ctx), "comparison"),
	)
	return engine.Derive(ctx, comparison.Input{
		Points:        comparedPoints(ds, sel),
		PollutantName: pollutant.Name,
		PollutantUnit: pollutant.Unit,
		ActivityUnit:  ds.ActivityUnit,
	})
}

func printStatement(w io.Writer, ds *sim.Dataset, sel widget.Selection, st *comparison.Statement) {
	f := comparison.DefaultFormatter()
	pollutant, _ := ds.Pollutant(sel.PollutantID)
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("%s, %d", pollutant.Name, sel.Year)))

	for _, p := range comparedPoints(ds, sel) {
		ef, _ := p.EmissionFactor()
		fmt.Fprintln(w, nameStyle.Render(p.DisplayName)+
			numberStyle.Render(f.WithUnit(f.Dynamic(p.PollutantValue), pollutant.Unit))+
			numberStyle.Render(f.WithUnit(f.Dynamic(p.ActDataValue), ds.ActivityUnit))+
			numberStyle.Render(f.EmissionFactor(ef, pollutant.Unit)))
	}

	if st == nil {
		fmt.Fprintln(w, mutedStyle.Render("Select two categories with data to compare."))
		return
	}

	fmt.Fprintf(w, "%s: %s pollution %s times %s than %s\n",
		st.PollutionLeader.DisplayName, st.PollutantName,
		comparison.FormatRatio(st.PollutionRatio), st.PollutionRelation,
		st.PollutionFollower.DisplayName)
	fmt.Fprintf(w, "%s: energy %s times that of %s\n",
		st.EnergyLeader.DisplayName, comparison.FormatRatio(st.EnergyRatio),
		st.EnergyFollower.DisplayName)

	warn := st.Warning
	if warn.Polluter == nil || warn.Baseline == nil {
		return
	}
	value := comparison.Placeholder
	if st.HasReplacement {
		value = f.WithUnit(f.Value(st.ReplacementPollution), st.PollutantUnit)
	}
	line := fmt.Sprintf("If %s replaced %s, %s pollution would be %s", warn.Polluter.DisplayName, warn.Baseline.DisplayName, st.PollutantName, value)
	fmt.Fprintln(w, warningStyle.Render(line))

	detail := []string{"strategy " + string(warn.Strategy)}
	if warn.Inclusion != nil {
		detail = append(detail, warn.Inclusion.Text)
	}
	fmt.Fprintln(w, mutedStyle.Render(strings.Join(detail, "; ")))
}
