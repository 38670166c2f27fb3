package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/naei/bubblechart/internal/sim"
	"github.com/naei/bubblechart/pkg/widget"
)

// selectionFlags are the chart selection flags shared by compare and
// inspect. Zero values are filled from the dataset.
type selectionFlags struct {
	dataset    string
	year       int
	pollutant  int
	categories string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dataset, "data", "d", "", "YAML dataset (defaults to dev.dataset)")
	cmd.Flags().IntVar(&f.year, "year", 0, "inventory year (defaults to the latest)")
	cmd.Flags().IntVar(&f.pollutant, "pollutant", 0, "pollutant id (defaults to the first)")
	cmd.Flags().StringVar(&f.categories, "categories", "", `category ids, "c" marks a compared one (e.g. 1c,2c)`)
}

// load reads the dataset and resolves the selection against it.
func (f *selectionFlags) load(fallback string) (*sim.Dataset, widget.Selection, error) {
	path := f.dataset
	if path == "" {
		path = fallback
	}
	ds, err := sim.LoadDataset(path)
	if err != nil {
		return nil, widget.Selection{}, err
	}
	sel, err := f.resolve(ds)
	return ds, sel, err
}

func (f *selectionFlags) resolve(ds *sim.Dataset) (widget.Selection, error) {
	sel := widget.Selection{Year: f.year, PollutantID: f.pollutant}

	if sel.PollutantID == 0 {
		if len(ds.Pollutants) == 0 {
			return sel, fmt.Errorf("dataset has no pollutants")
		}
		sel.PollutantID = ds.Pollutants[0].ID
	} else if _, ok := ds.Pollutant(sel.PollutantID); !ok {
		return sel, fmt.Errorf("unknown pollutant %d", sel.PollutantID)
	}

	if sel.Year == 0 {
		for _, v := range ds.Values {
			if v.PollutantID == sel.PollutantID && v.Year > sel.Year {
				sel.Year = v.Year
			}
		}
		if sel.Year == 0 {
			return sel, fmt.Errorf("no values for pollutant %d", sel.PollutantID)
		}
	}

	if f.categories != "" {
		sel.Categories = widget.ParseCategoryIDs(f.categories)
		if len(sel.Categories) == 0 {
			return sel, fmt.Errorf("no valid category ids in %q", f.categories)
		}
		return sel, nil
	}

	// Default to comparing the two largest polluters.
	var values []sim.Value
	for _, v := range ds.Values {
		if v.Year == sel.Year && v.PollutantID == sel.PollutantID {
			values = append(values, v)
		}
	}
	sort.SliceStable(values, func(i, j int) bool { return values[i].Pollution > values[j].Pollution })
	for i, v := range values {
		sel.Categories = append(sel.Categories, widget.SelectedCategory{ID: v.CategoryID, Compare: i < 2})
	}
	if len(sel.Categories) == 0 {
		return sel, fmt.Errorf("no values for %d/%d", sel.Year, sel.PollutantID)
	}
	return sel, nil
}
