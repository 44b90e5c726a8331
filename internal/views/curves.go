package views

import (
	"fmt"
	"math"
)

// ROCPoint is one point on the ROC curve, rounded for display
type ROCPoint struct {
	FPR float64 `json:"fpr"`
	TPR float64 `json:"tpr"`
}

// PairROC zips false and true positive rates by index, rounding each coordinate
// to three decimals. Sequences of different length are rejected.
func PairROC(fpr, tpr []float64) ([]ROCPoint, error) {
	if len(fpr) != len(tpr) {
		return nil, malformed("roc curve", "%d fpr values but %d tpr values", len(fpr), len(tpr))
	}

	points := make([]ROCPoint, len(fpr))
	for i := range fpr {
		points[i] = ROCPoint{FPR: round3(fpr[i]), TPR: round3(tpr[i])}
	}
	return points, nil
}

// AUCLabel renders the area under the curve for the chart title
func AUCLabel(auc float64) string {
	return fmt.Sprintf("AUC: %.4f", auc)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// CellClass marks whether a confusion matrix cell counts correct predictions
type CellClass string

const (
	CellCorrect   CellClass = "correct"
	CellIncorrect CellClass = "incorrect"
)

// ConfusionCell is one count in the confusion matrix
type ConfusionCell struct {
	Actual    int       `json:"actual"`
	Predicted int       `json:"predicted"`
	Count     int       `json:"count"`
	Class     CellClass `json:"class"`
}

// ConfusionMatrix is a classified n×n matrix with C0..Cn-1 labels
type ConfusionMatrix struct {
	Labels []string          `json:"labels"`
	Cells  [][]ConfusionCell `json:"cells"`
}

// ClassifyConfusion marks diagonal cells correct and the rest incorrect without reordering
func ClassifyConfusion(cm [][]int) (*ConfusionMatrix, error) {
	n := len(cm)
	if n == 0 {
		return nil, malformed("confusion matrix", "matrix is empty")
	}

	out := &ConfusionMatrix{
		Labels: make([]string, n),
		Cells:  make([][]ConfusionCell, n),
	}
	for i, row := range cm {
		if len(row) != n {
			return nil, malformed("confusion matrix", "row %d has %d cells, want %d", i, len(row), n)
		}
		out.Labels[i] = fmt.Sprintf("C%d", i)
		out.Cells[i] = make([]ConfusionCell, n)
		for j, count := range row {
			class := CellIncorrect
			if i == j {
				class = CellCorrect
			}
			out.Cells[i][j] = ConfusionCell{Actual: i, Predicted: j, Count: count, Class: class}
		}
	}
	return out, nil
}
