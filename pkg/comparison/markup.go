package comparison

import (
	"bytes"
	"fmt"
	"html/template"
)

const (
	defaultPollutionColor = "#f5a000"
	defaultEnergyColor    = "#0a77c4"
)

var statementTemplate = template.Must(template.New("statement").Parse(`
{{- define "entry" -}}
<div class="comparison-tooltip__entry">
<div class="comparison-tooltip__name">{{.Name}}</div>
<dl>
<div><dt>Pollution</dt><dd>{{.Pollution}}</dd></div>
<div><dt>Energy</dt><dd>{{.Energy}}</dd></div>
<div><dt>Emission factor</dt><dd>{{.EmissionFactor}}</dd></div>
</dl>
</div>
{{- end -}}
{{- define "calc" -}}
{{- if .Lines -}}
<div class="comparison-tooltip__calc-row">
<span>{{.Label}}</span>
<span class="comparison-tooltip__calc-detail">
{{- range $i, $line := .Lines}}<span class="comparison-tooltip__calc-detail-line{{if eq $i 0}} comparison-tooltip__calc-detail-line--primary{{end}}">{{$line}}</span>{{end -}}
</span>
</div>
{{- end -}}
{{- end -}}
{{- define "tooltip" -}}
<div class="comparison-tooltip" role="tooltip" aria-hidden="true">
<div class="comparison-tooltip__heading">Detailed values</div>
<div class="comparison-tooltip__grid">{{template "entry" .Left}}{{template "entry" .Right}}</div>
<div class="comparison-tooltip__calc">{{template "calc" .PollutionCalc}}{{template "calc" .EnergyCalc}}</div>
</div>
{{- end -}}
<div class="comparison-layout">
<div class="comparison-row">
<div class="{{.PollutionArrow}}" aria-hidden="true"></div>
<div class="comparison-card" tabindex="0" aria-label="Show detailed pollution metrics for {{.PollutionName}}" style="background:{{.PollutionColor}}">
<div class="comparison-card-line comparison-card-line-large">{{.PollutionName}}</div>
<div class="comparison-card-line comparison-card-line-small">{{.PollutantName}} pollution</div>
<div class="comparison-card-line comparison-card-line-large">{{.PollutionRatio}} times</div>
<div class="comparison-card-line comparison-card-line-small">{{.PollutionRelationLine}}</div>
{{template "tooltip" .}}
</div>
<div class="comparison-card" tabindex="0" aria-label="Show detailed energy metrics for {{.EnergyName}}" style="background:{{.EnergyColor}}">
<div class="comparison-card-line comparison-card-line-large">{{.EnergyName}}</div>
<div class="comparison-card-line comparison-card-line-small">Energy</div>
<div class="comparison-card-line comparison-card-line-large">{{.EnergyRatio}} times</div>
<div class="comparison-card-line comparison-card-line-small">{{.EnergyFollowerName}}</div>
{{template "tooltip" .}}
</div>
<div class="comparison-arrow up green" aria-hidden="true"></div>
</div>
{{- with .Warning}}
<div class="comparison-warning-wrap">
<div class="comparison-warning-icon" aria-hidden="true"></div>
<div class="comparison-warning-row" tabindex="0" aria-label="Show calculation behind the replacement warning">
<div class="comparison-warning-text">If <span class="comparison-warning-entity">{{.Polluter}}</span> replaced <span class="comparison-warning-entity">{{.Baseline}}</span>, {{.PollutantName}} pollution would be {{if .Value}}<span class="comparison-warning-value">{{.Value}}{{if .Unit}} <span class="comparison-warning-unit">{{.Unit}}</span>{{end}}</span>{{else}}—{{end}}</div>
<div class="comparison-tooltip comparison-tooltip--warning" role="tooltip" aria-hidden="true">
<div class="comparison-tooltip__heading">Replacement calculation</div>
<div class="comparison-tooltip__grid">{{template "entry" .PolluterEntry}}{{template "entry" .BaselineEntry}}</div>
<div class="comparison-tooltip__calc">
{{- if .Note}}<div class="comparison-tooltip__note"><strong>Note: {{.Note}}</strong></div>{{else}}{{template "calc" .EnergyCalc}}{{end -}}
{{template "calc" .EstimateCalc}}
</div>
</div>
</div>
<div class="comparison-warning-icon" aria-hidden="true"></div>
</div>
{{- end}}
</div>
`))

type entryView struct {
	Name           string
	Pollution      string
	Energy         string
	EmissionFactor string
}

type calcView struct {
	Label string
	Lines []string
}

type warningView struct {
	Polluter      string
	Baseline      string
	PollutantName string
	Value         string
	Unit          string
	PolluterEntry entryView
	BaselineEntry entryView
	Note          string
	EnergyCalc    calcView
	EstimateCalc  calcView
}

type statementView struct {
	PollutantName         string
	PollutionName         string
	PollutionColor        template.CSS
	PollutionArrow        string
	PollutionRatio        string
	PollutionRelationLine string
	EnergyName            string
	EnergyColor           template.CSS
	EnergyRatio           string
	EnergyFollowerName    string
	Left                  entryView
	Right                 entryView
	PollutionCalc         calcView
	EnergyCalc            calcView
	Warning               *warningView
}

// Markup renders st as the comparison block HTML. All text is escaped.
func Markup(st *Statement, f *Formatter) (string, error) {
	if st == nil {
		return "", nil
	}
	if f == nil {
		f = DefaultFormatter()
	}
	if st.PollutionLeader == nil || st.PollutionFollower == nil || st.EnergyLeader == nil || st.EnergyFollower == nil {
		return "", ErrInsufficientData
	}

	view := buildView(st, f)
	var buf bytes.Buffer
	if err := statementTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render comparison: %w", err)
	}
	return buf.String(), nil
}

func buildView(st *Statement, f *Formatter) statementView {
	lower := st.PollutionRelation == RelationLower ||
		(st.PollutionRelation == "" && isFinite(st.PollutionRatio) && st.PollutionRatio < 1)

	v := statementView{
		PollutantName:      st.PollutantName,
		PollutionName:      st.PollutionLeader.DisplayName,
		PollutionColor:     cssColor(st.PollutionLeader.Color, defaultPollutionColor),
		PollutionRatio:     FormatRatio(st.PollutionRatio),
		EnergyName:         st.EnergyLeader.DisplayName,
		EnergyColor:        cssColor(st.EnergyLeader.Color, defaultEnergyColor),
		EnergyRatio:        FormatRatio(st.EnergyRatio),
		EnergyFollowerName: st.EnergyFollower.DisplayName,
		Left:               entry(st.PollutionLeader, st, f),
		Right:              entry(st.PollutionFollower, st, f),
	}

	direction := "higher"
	v.PollutionArrow = "comparison-arrow up red"
	if lower {
		direction = "lower"
		v.PollutionArrow = "comparison-arrow down green"
	}
	v.PollutionRelationLine = direction + " than " + st.PollutionFollower.DisplayName

	num, den := st.PollutionLeader.PollutantValue, st.PollutionFollower.PollutantValue
	if st.PollutionRelation == RelationLower {
		num, den = den, num
	}
	if isFinite(st.PollutionRatio) && isFinite(num) && isFinite(den) {
		v.PollutionCalc = calcView{Label: "Pollution ratio", Lines: []string{
			fmt.Sprintf("%s ÷ %s = %sx", pollution(num, st, f), pollution(den, st, f), FormatRatio(st.PollutionRatio)),
			"(" + direction + " pollution)",
		}}
	}
	if isFinite(st.EnergyRatio) {
		energyDirection := "(higher energy)"
		if st.EnergyRatio < 1 {
			energyDirection = "(lower energy)"
		}
		v.EnergyCalc = calcView{Label: "Energy ratio", Lines: []string{
			fmt.Sprintf("%s ÷ %s = %sx", energy(st.EnergyLeader.ActDataValue, st, f), energy(st.EnergyFollower.ActDataValue, st, f), FormatRatio(st.EnergyRatio)),
			energyDirection,
		}}
	}

	if w := st.Warning; w.Polluter != nil && w.Baseline != nil {
		v.Warning = warning(st, f)
	}
	return v
}

func warning(st *Statement, f *Formatter) *warningView {
	w := st.Warning
	wv := &warningView{
		Polluter:      w.Polluter.DisplayName,
		Baseline:      w.Baseline.DisplayName,
		PollutantName: st.PollutantName,
		PolluterEntry: entry(w.Polluter, st, f),
		BaselineEntry: entry(w.Baseline, st, f),
	}
	if st.HasReplacement {
		wv.Value = f.Value(st.ReplacementPollution)
		wv.Unit = st.PollutantUnit
	}
	if w.Inclusion != nil {
		wv.Note = w.Inclusion.Text
	}

	var total string
	switch {
	case !isFinite(w.TotalActivity) || w.TotalActivity <= 0:
		total = Placeholder
	case w.Strategy == StrategyBaselineOnly:
		total = energy(w.Baseline.ActDataValue, st, f) + " (baseline energy)"
	case isFinite(w.Polluter.ActDataValue) && isFinite(w.Baseline.ActDataValue):
		total = fmt.Sprintf("%s + %s = %s", energy(w.Polluter.ActDataValue, st, f), energy(w.Baseline.ActDataValue, st, f), energy(w.TotalActivity, st, f))
	default:
		total = energy(w.TotalActivity, st, f)
	}
	wv.EnergyCalc = calcView{Label: "Energy", Lines: []string{total}}

	estimate := "Calculation unavailable for this selection"
	if st.HasReplacement && isFinite(w.TotalActivity) && w.TotalActivity > 0 && isFinite(w.EmissionFactor) {
		estimate = fmt.Sprintf("%s x %s = %s", energy(w.TotalActivity, st, f), f.EmissionFactor(w.EmissionFactor, st.PollutantUnit), pollution(st.ReplacementPollution, st, f))
	}
	wv.EstimateCalc = calcView{Label: "Pollution estimate", Lines: []string{estimate}}
	return wv
}

func entry(p *DataPoint, st *Statement, f *Formatter) entryView {
	ef, _ := p.effectiveEF()
	return entryView{
		Name:           p.DisplayName,
		Pollution:      pollution(p.PollutantValue, st, f),
		Energy:         energy(p.ActDataValue, st, f),
		EmissionFactor: f.EmissionFactor(ef, st.PollutantUnit),
	}
}

func pollution(v float64, st *Statement, f *Formatter) string {
	return f.WithUnit(f.Dynamic(v), st.PollutantUnit)
}

func energy(v float64, st *Statement, f *Formatter) string {
	unit := st.ActivityUnit
	if unit == "" {
		unit = "TJ"
	}
	return f.WithUnit(f.Dynamic(v), unit)
}

// cssColor accepts hex and functional colour notations and falls back
// otherwise, so arbitrary data never reaches a style attribute.
func cssColor(c, fallback string) template.CSS {
	if validColor(c) {
		return template.CSS(c)
	}
	return template.CSS(fallback)
}

func validColor(c string) bool {
	if c == "" || len(c) > 48 {
		return false
	}
	for _, r := range c {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == '#', r == '(', r == ')', r == ',', r == '.', r == ' ', r == '%':
		default:
			return false
		}
	}
	return true
}
