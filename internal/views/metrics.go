package views

import (
	"fmt"
	"math"
	"strconv"
)

// Missing is shown for absent metric values
const Missing = "—"

// FormatMetric renders a metric card value. Values below 1 are shown as a
// percentage with two decimals; larger values keep two decimals and the suffix.
func FormatMetric(value interface{}, suffix string) string {
	num, ok := toFloat(value)
	if !ok {
		if value == nil {
			return Missing
		}
		return fmt.Sprint(value)
	}

	if num < 1 {
		if suffix == "" {
			suffix = "%"
		}
		return strconv.FormatFloat(num*100, 'f', 2, 64) + suffix
	}
	return strconv.FormatFloat(num, 'f', 2, 64) + suffix
}

// MetricBar returns the fill percentage for a metric card bar. Fractions below
// 1 are read as ratios and scaled to percent; the result is capped at 100, so a
// full score of 100 fills the bar instead of wrapping to zero.
func MetricBar(value float64) float64 {
	pct := value
	if value < 1 {
		pct = value * 100
	}
	return math.Min(math.Abs(pct), 100)
}

// ScoreLabel renders a model score for the comparison chart
func ScoreLabel(score float64) string {
	return strconv.FormatFloat(score, 'f', 4, 64)
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v)
	case *float64:
		if v == nil {
			return 0, false
		}
		return *v, !math.IsNaN(*v)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// StepState is the display state of one pipeline stage in the progress stepper
type StepState string

const (
	StepDone    StepState = "done"
	StepActive  StepState = "active"
	StepPending StepState = "pending"
)

// StepStates returns the stepper state for each of n stages given the current progress
func StepStates(progress, n int) []StepState {
	states := make([]StepState, n)
	for i := range states {
		switch {
		case i < progress:
			states[i] = StepDone
		case i == progress:
			states[i] = StepActive
		default:
			states[i] = StepPending
		}
	}
	return states
}
