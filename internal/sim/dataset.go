package sim

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/naei/bubblechart/pkg/comparison"
	"github.com/naei/bubblechart/pkg/widget"
)

// Pollutant describes one pollutant of a dataset.
type Pollutant struct {
	ID   int    `yaml:"id"`
	Name string `yaml:"name"`
	Unit string `yaml:"unit"`
}

// CategoryRecord is a category and its parent in the hierarchy (0 for none).
type CategoryRecord struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Parent int    `yaml:"parent,omitempty"`
}

// Value is one category's pollution and activity for a year and pollutant.
type Value struct {
	Year           int     `yaml:"year"`
	PollutantID    int     `yaml:"pollutant"`
	CategoryID     int     `yaml:"category"`
	Pollution      float64 `yaml:"pollution"`
	Activity       float64 `yaml:"activity"`
	EmissionFactor float64 `yaml:"emission_factor,omitempty"`
}

// Dataset is an offline inventory extract.
type Dataset struct {
	ActivityUnit string           `yaml:"activity_unit"`
	Pollutants   []Pollutant      `yaml:"pollutants"`
	Categories   []CategoryRecord `yaml:"categories"`
	Values       []Value          `yaml:"values"`
}

// LoadDataset reads a YAML dataset file.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if len(ds.Categories) == 0 {
		return nil, fmt.Errorf("dataset %s has no categories", path)
	}
	return &ds, nil
}

// Pollutant returns the pollutant with id.
func (d *Dataset) Pollutant(id int) (Pollutant, bool) {
	for _, p := range d.Pollutants {
		if p.ID == id {
			return p, true
		}
	}
	return Pollutant{}, false
}

// Data serves a Dataset through widget.DataSource.
type Data struct {
	ds *Dataset

	// AssessErr, when set, is returned by every inclusion assessment.
	AssessErr error
}

// NewData wraps ds.
func NewData(ds *Dataset) *Data { return &Data{ds: ds} }

func (d *Data) Categories() []widget.Category {
	out := make([]widget.Category, 0, len(d.ds.Categories))
	for _, c := range d.ds.Categories {
		out = append(out, widget.Category{ID: c.ID, Name: c.Name})
	}
	return out
}

func (d *Data) PollutantName(id int) string {
	p, _ := d.ds.Pollutant(id)
	return p.Name
}

func (d *Data) PollutantUnit(id int) string {
	p, _ := d.ds.Pollutant(id)
	return p.Unit
}

func (d *Data) ActivityUnit() string { return d.ds.ActivityUnit }

func (d *Data) ScatterData(year, pollutantID int, categoryIDs []int) []comparison.DataPoint {
	want := make(map[int]bool, len(categoryIDs))
	for _, id := range categoryIDs {
		want[id] = true
	}
	var out []comparison.DataPoint
	for _, v := range d.ds.Values {
		if v.Year != year || v.PollutantID != pollutantID || !want[v.CategoryID] {
			continue
		}
		out = append(out, comparison.DataPoint{
			CategoryID:     v.CategoryID,
			PollutantValue: v.Pollution,
			ActDataValue:   v.Activity,
			ReportedEF:     v.EmissionFactor,
		})
	}
	return out
}

// AssessInclusion walks child's ancestors looking for parent.
func (d *Data) AssessInclusion(ctx context.Context, childID, parentID int) (comparison.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return comparison.Assessment{}, err
	}
	if d.AssessErr != nil {
		return comparison.Assessment{}, d.AssessErr
	}
	parents := make(map[int]int, len(d.ds.Categories))
	for _, c := range d.ds.Categories {
		parents[c.ID] = c.Parent
	}
	seen := map[int]bool{}
	for id := parents[childID]; id != 0 && !seen[id]; id = parents[id] {
		if id == parentID {
			return comparison.Assessment{Included: true, Reason: "hierarchy"}, nil
		}
		seen[id] = true
	}
	return comparison.Assessment{Included: false, Reason: "hierarchy"}, nil
}

var _ widget.DataSource = (*Data)(nil)
