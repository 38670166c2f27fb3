package comparison

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/naei/bubblechart/pkg/debug"
)

// ErrInsufficientData is returned by the internal derivation steps when a
// selection cannot produce a statement. Derive turns it into a nil statement.
var ErrInsufficientData = errors.New("comparison: fewer than two usable categories")

// Relation says whether the headline category pollutes more or less than
// the other one.
type Relation string

const (
	RelationHigher Relation = "higher"
	RelationLower  Relation = "lower"
)

// Strategy names how the replacement pollution figure was obtained.
type Strategy string

const (
	StrategyNone             Strategy = ""
	StrategyBaselineOnly     Strategy = "baseline-only"
	StrategyCombinedActivity Strategy = "combined-activity"
	StrategySummedActivity   Strategy = "summed-activity"
	StrategyRatioFallback    Strategy = "ratio-fallback"
)

// InclusionNote explains why only the baseline's activity was used.
type InclusionNote struct {
	Text   string
	Reason string
}

// WarningDetails backs the replacement warning and its tooltip.
type WarningDetails struct {
	Polluter       *DataPoint
	Baseline       *DataPoint
	TotalActivity  float64
	EmissionFactor float64
	Strategy       Strategy
	Inclusion      *InclusionNote
}

// Statement is a derived comparison ready for rendering.
type Statement struct {
	PollutantName string
	PollutantUnit string
	ActivityUnit  string

	PollutionLeader   *DataPoint
	PollutionFollower *DataPoint
	EnergyLeader      *DataPoint
	EnergyFollower    *DataPoint

	PollutionRatio    float64
	PollutionRelation Relation
	EnergyRatio       float64

	ReplacementPollution float64
	HasReplacement       bool
	Warning              WarningDetails
}

// Input is one derivation request.
type Input struct {
	Points        []DataPoint
	PollutantName string
	PollutantUnit string
	ActivityUnit  string
}

// Engine derives comparison statements.
type Engine struct {
	assessor InclusionAssessor
	logger   *log.Logger
}

// NewEngine returns an engine. A nil assessor treats every pair as not
// included; a nil logger discards output.
func NewEngine(assessor InclusionAssessor, logger *log.Logger) *Engine {
	if logger == nil {
		logger = debug.Discard()
	}
	return &Engine{assessor: assessor, logger: logger}
}

// Derive builds a statement from the selected points. It returns nil and
// no error when the selection cannot support a comparison; the caller
// hides the block. The only error is a cancelled context.
func (e *Engine) Derive(ctx context.Context, in Input) (*Statement, error) {
	st, err := e.derive(ctx, in)
	if errors.Is(err, ErrInsufficientData) {
		e.logger.Debug("comparison hidden", "points", len(in.Points))
		return nil, nil
	}
	return st, err
}

func (e *Engine) derive(ctx context.Context, in Input) (*Statement, error) {
	usable := 0
	for _, p := range in.Points {
		if p.usable() {
			usable++
		}
	}
	if usable < 2 {
		return nil, ErrInsufficientData
	}

	pollLeader, pollFollower := SelectLeaderFollower(in.Points, Pollution)
	energyLeader, energyFollower := SelectLeaderFollower(in.Points, Energy)
	efLeader, efFollower := SelectLeaderFollower(in.Points, Factor)

	leftLeader, leftFollower := leftPair(
		pair{energyLeader, energyFollower},
		pair{efLeader, efFollower},
		pair{pollLeader, pollFollower},
	)
	if leftLeader == nil || energyLeader == nil {
		return nil, ErrInsufficientData
	}

	st := &Statement{
		PollutantName:     in.PollutantName,
		PollutantUnit:     in.PollutantUnit,
		ActivityUnit:      in.ActivityUnit,
		PollutionLeader:   leftLeader,
		PollutionFollower: leftFollower,
		EnergyLeader:      energyLeader,
		EnergyFollower:    energyFollower,
		EnergyRatio:       SafeRatio(energyLeader.ActDataValue, energyFollower.ActDataValue),
	}
	st.PollutionRatio, st.PollutionRelation = pollutionRelation(leftLeader, leftFollower)

	warning, value, err := e.replacement(ctx, energyFollower, energyLeader)
	if err != nil {
		return nil, err
	}
	st.Warning = warning
	if warning.Strategy != StrategyNone {
		st.ReplacementPollution = value
		st.HasReplacement = true
	}

	e.logger.Debug("comparison derived",
		"pollutionLeader", leftLeader.DisplayName,
		"relation", st.PollutionRelation,
		"pollutionRatio", st.PollutionRatio,
		"energyLeader", energyLeader.DisplayName,
		"energyRatio", st.EnergyRatio,
		"strategy", warning.Strategy)
	return st, nil
}

type pair struct{ leader, follower *DataPoint }

func (p pair) ok() bool { return p.leader != nil && p.follower != nil }

// leftPair picks the headline pair: energy first, then emission factor,
// then raw pollution.
func leftPair(candidates ...pair) (*DataPoint, *DataPoint) {
	for _, c := range candidates {
		if c.ok() {
			return c.leader, c.follower
		}
	}
	return nil, nil
}

// pollutionRelation compares the pair's pollution directly. A leader that
// pollutes less yields follower/leader and "lower".
func pollutionRelation(leader, follower *DataPoint) (float64, Relation) {
	lp, fp := leader.PollutantValue, follower.PollutantValue
	if !isFinite(lp) || !isFinite(fp) {
		return SafeRatio(lp, fp), ""
	}
	if lp < fp {
		return SafeRatio(fp, lp), RelationLower
	}
	return SafeRatio(lp, fp), RelationHigher
}

// replacement estimates the pollution if polluter took over baseline's
// activity. Strategies are tried in order and the first finite, positive
// figure wins.
func (e *Engine) replacement(ctx context.Context, polluter, baseline *DataPoint) (WarningDetails, float64, error) {
	w := WarningDetails{Polluter: polluter, Baseline: baseline}
	ef, efOK := polluter.effectiveEF()
	w.EmissionFactor = ef
	w.TotalActivity = SumActivity(polluter.ActDataValue, baseline.ActDataValue)

	note, err := e.inclusion(ctx, polluter, baseline)
	if err != nil {
		return w, 0, err
	}
	w.Inclusion = note

	if note != nil && efOK && isFinite(baseline.ActDataValue) && baseline.ActDataValue > 0 {
		if v := ef * baseline.ActDataValue; positive(v) {
			w.TotalActivity = baseline.ActDataValue
			w.Strategy = StrategyBaselineOnly
			return w, v, nil
		}
	}

	if v, derived, total, ok := combinedActivity(polluter, baseline); ok {
		w.EmissionFactor, w.TotalActivity = derived, total
		w.Strategy = StrategyCombinedActivity
		return w, v, nil
	}

	if total := SumActivity(polluter.ActDataValue, baseline.ActDataValue); efOK && total > 0 {
		if v := ef * total; positive(v) {
			w.TotalActivity = total
			w.Strategy = StrategySummedActivity
			return w, v, nil
		}
	}

	ratio := SafeRatio(polluter.PollutantValue, baseline.PollutantValue)
	if v := ratio * baseline.PollutantValue; isFinite(ratio) && positive(v) {
		w.Strategy = StrategyRatioFallback
		return w, v, nil
	}
	return w, 0, nil
}

// combinedActivity applies the polluter's own derived emission factor to
// the activity of both categories.
func combinedActivity(polluter, baseline *DataPoint) (value, ef, total float64, ok bool) {
	ef, efOK := polluter.EmissionFactor()
	if !efOK {
		return 0, 0, 0, false
	}
	total = SumActivity(polluter.ActDataValue, baseline.ActDataValue)
	if total <= 0 {
		return 0, 0, 0, false
	}
	value = ef * total
	return value, ef, total, positive(value)
}

// inclusion asks whether polluter is already counted in baseline. Assessor
// failures are logged and read as "not included".
func (e *Engine) inclusion(ctx context.Context, polluter, baseline *DataPoint) (*InclusionNote, error) {
	if e.assessor == nil {
		return nil, nil
	}
	a, err := e.assessor.AssessInclusion(ctx, polluter.CategoryID, baseline.CategoryID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("assess inclusion: %w", ctxErr)
		}
		e.logger.Warn("category inclusion assessment failed", "child", polluter.CategoryID, "parent", baseline.CategoryID, "err", err)
		return nil, nil
	}
	if !a.Included || polluter.DisplayName == "" || baseline.DisplayName == "" {
		return nil, nil
	}
	reason := a.Reason
	if reason == "" {
		reason = "evaluated"
	}
	return &InclusionNote{
		Text:   fmt.Sprintf("%s is already included in %s", polluter.DisplayName, baseline.DisplayName),
		Reason: reason,
	}, nil
}

func positive(v float64) bool { return isFinite(v) && v > 0 }
