package comparison

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// SafeRatio divides num by den, returning +Inf when either operand is
// non-finite or den is zero.
func SafeRatio(num, den float64) float64 {
	if !isFinite(num) || !isFinite(den) || den == 0 {
		return math.Inf(1)
	}
	return num / den
}

// SumActivity adds the finite, positive values and skips the rest.
func SumActivity(values ...float64) float64 {
	var total float64
	for _, v := range values {
		if isFinite(v) && v > 0 {
			total += v
		}
	}
	return total
}

// NormalizeNumber converts loosely typed input to a float64. Strings may
// carry thousands separators. Anything unparseable becomes NaN.
func NormalizeNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(x, ",", ""))
		if cleaned == "" {
			return math.NaN()
		}
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f
		}
		return leadingFloat(cleaned)
	default:
		return math.NaN()
	}
}

// leadingFloat parses the longest numeric prefix, so "12.5 kt" reads as 12.5.
func leadingFloat(s string) float64 {
	end := 0
	for i, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || ((r == '-' || r == '+') && i == 0) || r == 'e' || r == 'E' {
			end = i + 1
			continue
		}
		break
	}
	for end > 0 {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f
		}
		end--
	}
	return math.NaN()
}

// SelectLeaderFollower ranks points by metric, descending, with non-finite
// values last. It returns the top two, or nil for both when fewer than two
// points have a finite value.
func SelectLeaderFollower(points []DataPoint, metric Metric) (leader, follower *DataPoint) {
	if len(points) < 2 {
		return nil, nil
	}
	ranked := make([]DataPoint, len(points))
	copy(ranked, points)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := metric(ranked[i]), metric(ranked[j])
		switch {
		case !isFinite(a):
			return false
		case !isFinite(b):
			return true
		default:
			return a > b
		}
	})
	if !isFinite(metric(ranked[0])) || !isFinite(metric(ranked[1])) {
		return nil, nil
	}
	return &ranked[0], &ranked[1]
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
