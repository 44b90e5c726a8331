package views

import (
	"math"
	"sort"
)

// TopFeatures is how many features the explanation view keeps
const TopFeatures = 15

// FeatureImportance is a feature paired with its mean absolute SHAP value
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// RankFeatures pairs features with importances by index, sorts descending
// (stable on ties) and keeps at most limit entries. A non-positive limit keeps all.
func RankFeatures(features []string, importance []float64, limit int) ([]FeatureImportance, error) {
	if len(features) != len(importance) {
		return nil, malformed("feature importance", "%d features but %d importance values", len(features), len(importance))
	}

	pairs := make([]FeatureImportance, len(features))
	for i, f := range features {
		if math.IsNaN(importance[i]) {
			return nil, malformed("feature importance", "importance for %q is NaN", f)
		}
		pairs[i] = FeatureImportance{Feature: f, Importance: importance[i]}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Importance > pairs[j].Importance
	})

	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs, nil
}
