package views

import (
	"math"
	"sort"
)

// Axis labels for the model comparison chart
const (
	AxisR2       = "R²"
	AxisAccuracy = "ACC"
)

// Score is one model's cross-validated score, in the order the service reported it
type Score struct {
	Name  string
	Value float64
}

// RankedModel is a model comparison row ready for display
type RankedModel struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Width  float64 `json:"width"`
	Winner bool    `json:"winner"`
}

// ModelRanking is the model comparison chart
type ModelRanking struct {
	Entries   []RankedModel `json:"entries"`
	AxisLabel string        `json:"axis_label"`
}

// RankModels orders scores descending (stable on ties), marks the best model and
// computes bar widths as a percentage of the top score rounded to one decimal.
// Widths are zero when the top score is not positive.
func RankModels(scores []Score, best, problemType string) (*ModelRanking, error) {
	if len(scores) == 0 {
		return nil, malformed("model ranking", "no model scores")
	}

	top := math.Inf(-1)
	for _, s := range scores {
		if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
			return nil, malformed("model ranking", "score for %q is not finite", s.Name)
		}
		top = math.Max(top, s.Value)
	}

	sorted := make([]Score, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	ranking := &ModelRanking{
		Entries:   make([]RankedModel, 0, len(sorted)),
		AxisLabel: AxisLabel(problemType),
	}
	for _, s := range sorted {
		ranking.Entries = append(ranking.Entries, RankedModel{
			Name:   s.Name,
			Score:  s.Value,
			Width:  barWidth(s.Value, top),
			Winner: s.Name == best,
		})
	}

	return ranking, nil
}

// AxisLabel returns the score axis label for a problem type
func AxisLabel(problemType string) string {
	if problemType == "regression" {
		return AxisR2
	}
	return AxisAccuracy
}

func barWidth(score, top float64) float64 {
	if top <= 0 {
		return 0
	}
	w := 100 * score / top
	if w < 0 {
		w = 0
	}
	return math.Round(w*10) / 10
}
