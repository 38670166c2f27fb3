package comparison

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder is shown where a value cannot be computed.
const Placeholder = "—"

// FormatRatio renders a ratio with precision that shrinks as it grows.
func FormatRatio(v float64) string {
	switch {
	case !isFinite(v):
		return "∞"
	case v >= 100:
		return strconv.FormatFloat(v, 'f', 0, 64)
	case v >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	default:
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
}

// Formatter renders numbers with locale digit grouping.
type Formatter struct {
	p *message.Printer
}

// NewFormatter returns a formatter for tag.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{p: message.NewPrinter(tag)}
}

// DefaultFormatter formats for British English, matching the inventory's
// published figures.
func DefaultFormatter() *Formatter { return NewFormatter(language.BritishEnglish) }

// Dynamic formats v keeping more fraction digits for small magnitudes:
// 3 by default, 6 below 1 and 9 below 0.001.
func (f *Formatter) Dynamic(v float64) string {
	if !isFinite(v) {
		return Placeholder
	}
	digits := 3
	abs := math.Abs(v)
	switch {
	case abs > 0 && abs < 0.001:
		digits = 9
	case abs < 1:
		digits = 6
	}
	return f.p.Sprint(number.Decimal(v, number.MaxFractionDigits(digits)))
}

// Value formats v with at most one fraction digit.
func (f *Formatter) Value(v float64) string {
	if !isFinite(v) {
		return Placeholder
	}
	return f.p.Sprint(number.Decimal(v, number.MaxFractionDigits(1)))
}

// WithUnit joins a formatted value and unit, omitting an empty unit.
func (f *Formatter) WithUnit(formatted, unit string) string {
	if formatted == Placeholder || unit == "" {
		return formatted
	}
	return formatted + " " + unit
}

// EmissionFactorUnit is the display unit for converted emission factors.
const EmissionFactorUnit = "g/GJ"

// ConversionFactor maps a pollutant unit, with activity in TJ, to the
// multiplier that yields g/GJ. Unknown units assume kilotonnes.
func ConversionFactor(pollutantUnit string) float64 {
	switch strings.ToLower(strings.TrimSpace(pollutantUnit)) {
	case "t", "tonnes":
		return 1e3
	case "grams international toxic equivalent":
		return 1e3
	case "kilotonne", "kilotonne/kt co2 equivalent", "kt co2 equivalent":
		return 1e6
	case "kg":
		return 1
	default:
		return 1e6
	}
}

// ToGramsPerGJ converts an emission factor expressed in pollutantUnit/TJ.
func ToGramsPerGJ(ef float64, pollutantUnit string) (float64, bool) {
	if !isFinite(ef) {
		return math.NaN(), false
	}
	return ef * ConversionFactor(pollutantUnit), true
}

// EmissionFactor formats ef converted to g/GJ.
func (f *Formatter) EmissionFactor(ef float64, pollutantUnit string) string {
	g, ok := ToGramsPerGJ(ef, pollutantUnit)
	if !ok {
		return Placeholder
	}
	return f.WithUnit(f.Dynamic(g), EmissionFactorUnit)
}
