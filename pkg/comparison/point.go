// Package comparison derives the headline comparison between two selected
// categories: which one uses more energy, how their pollution compares and
// what the pollution would be if one replaced the other.
package comparison

import "math"

// DataPoint is one category's values for the selected year and pollutant.
type DataPoint struct {
	CategoryID     int     `yaml:"id" json:"categoryId"`
	DisplayName    string  `yaml:"name" json:"displayName"`
	Color          string  `yaml:"color,omitempty" json:"color,omitempty"`
	PollutantValue float64 `yaml:"pollution" json:"pollutantValue"`
	ActDataValue   float64 `yaml:"activity" json:"actDataValue"`
	// ReportedEF is a published emission factor, 0 when the data source
	// has none.
	ReportedEF float64 `yaml:"emission_factor,omitempty" json:"emissionFactor,omitempty"`
}

// EmissionFactor returns pollution per unit of activity. It is undefined
// when either value is non-finite or activity is zero.
func (p DataPoint) EmissionFactor() (float64, bool) {
	if !isFinite(p.PollutantValue) || !isFinite(p.ActDataValue) || p.ActDataValue == 0 {
		return math.NaN(), false
	}
	return p.PollutantValue / p.ActDataValue, true
}

// effectiveEF prefers the published factor over the derived one.
func (p DataPoint) effectiveEF() (float64, bool) {
	if isFinite(p.ReportedEF) && p.ReportedEF > 0 {
		return p.ReportedEF, true
	}
	return p.EmissionFactor()
}

func (p DataPoint) usable() bool {
	return isFinite(p.PollutantValue) && isFinite(p.ActDataValue)
}

// Metric reads one value from a point.
type Metric func(DataPoint) float64

// Built-in metrics.
var (
	Pollution Metric = func(p DataPoint) float64 { return p.PollutantValue }
	Energy    Metric = func(p DataPoint) float64 { return p.ActDataValue }
	Factor    Metric = func(p DataPoint) float64 {
		ef, _ := p.EmissionFactor()
		return ef
	}
)
