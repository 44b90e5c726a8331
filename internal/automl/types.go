package automl

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Entry is one key/value pair of a JSON object
type Entry[V any] struct {
	Key   string
	Value V
}

// Ordered is a JSON object that keeps the key order the service sent
type Ordered[V any] []Entry[V]

// UnmarshalJSON decodes a JSON object preserving key order
func (o *Ordered[V]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	out := Ordered[V]{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		out = append(out, Entry[V]{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*o = out
	return nil
}

// MarshalJSON encodes the entries as a JSON object in order
func (o Ordered[V]) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Keys returns the keys in order
func (o Ordered[V]) Keys() []string {
	keys := make([]string, len(o))
	for i, e := range o {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the value for key
func (o Ordered[V]) Get(key string) (V, bool) {
	for _, e := range o {
		if e.Key == key {
			return e.Value, true
		}
	}
	var zero V
	return zero, false
}

// Map returns the entries as an unordered map
func (o Ordered[V]) Map() map[string]V {
	m := make(map[string]V, len(o))
	for _, e := range o {
		m[e.Key] = e.Value
	}
	return m
}

// DatasetInfo describes an uploaded dataset
type DatasetInfo struct {
	Rows        int      `json:"rows"`
	Columns     int      `json:"columns"`
	ColumnNames []string `json:"column_names"`
}

// UploadResult is the response to a dataset upload
type UploadResult struct {
	Message     string      `json:"message,omitempty"`
	DatasetInfo DatasetInfo `json:"dataset_info"`
}

// Preview holds the first rows of the uploaded dataset
type Preview struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// Shape is the dataset dimensions. The service sends it either as a
// [rows, columns] pair or as an object.
type Shape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// UnmarshalJSON accepts both the pair and the object form
func (s *Shape) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	var pair []int
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("shape must have 2 dimensions, got %d", len(pair))
		}
		s.Rows, s.Columns = pair[0], pair[1]
		return nil
	}

	var obj struct {
		Rows    int `json:"rows"`
		Columns int `json:"columns"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid shape: %w", err)
	}
	s.Rows, s.Columns = obj.Rows, obj.Columns
	return nil
}

// Stats is a per-column statistics object such as a pandas describe() row
type Stats = Ordered[interface{}]

// EDASummary is the basic exploratory analysis result
type EDASummary struct {
	Shape    Shape          `json:"shape"`
	Columns  []string       `json:"columns,omitempty"`
	Missing  Ordered[int]   `json:"missing"`
	Describe Ordered[Stats] `json:"describe"`
}

// Histogram is a binned column distribution
type Histogram struct {
	Bins   []float64 `json:"bins"`
	Counts []int     `json:"counts"`
}

// ExtendedEDA is the correlation and histogram result
type ExtendedEDA struct {
	Correlation Ordered[Ordered[float64]] `json:"correlation"`
	Histograms  Ordered[Histogram]        `json:"histograms"`
}

// CorrelationMatrix returns the correlation columns in order and a lookup table
func (e *ExtendedEDA) CorrelationMatrix() ([]string, map[string]map[string]float64) {
	lookup := make(map[string]map[string]float64, len(e.Correlation))
	for _, row := range e.Correlation {
		lookup[row.Key] = row.Value.Map()
	}
	return e.Correlation.Keys(), lookup
}

// FeatureStats is the per-feature missing and cardinality result
type FeatureStats struct {
	Missing  Ordered[int]   `json:"missing"`
	Unique   Ordered[int]   `json:"unique"`
	Describe Ordered[Stats] `json:"describe,omitempty"`
}

// StatTestResult is the schema-free statistical test outcome (test, stat, p, dof)
type StatTestResult = Ordered[interface{}]

// PlotKind is a server-rendered chart type
type PlotKind string

const (
	PlotDistribution PlotKind = "distribution"
	PlotBox          PlotKind = "box"
	PlotScatter      PlotKind = "scatter"
)

// Valid reports whether k is a known plot kind
func (k PlotKind) Valid() bool {
	switch k {
	case PlotDistribution, PlotBox, PlotScatter:
		return true
	default:
		return false
	}
}

// Plot is a rendered chart
type Plot struct {
	Kind  PlotKind `json:"kind,omitempty"`
	Image string   `json:"image"`
}

// PNG decodes the base64 image payload
func (p *Plot) PNG() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.Image)
}

// ProblemType is the task the service detected for the target column
type ProblemType string

const (
	ProblemBinary     ProblemType = "binary"
	ProblemMulticlass ProblemType = "multiclass"
	ProblemRegression ProblemType = "regression"
)

// IsRegression reports whether the problem is a regression task
func (p ProblemType) IsRegression() bool {
	return p == ProblemRegression
}

// ROCCurve is the binary classification ROC curve
type ROCCurve struct {
	FPR []float64 `json:"fpr"`
	TPR []float64 `json:"tpr"`
	AUC float64   `json:"auc"`
}

// Metrics holds held-out evaluation metrics. Classification and regression
// fields are mutually exclusive; absent metrics are nil.
type Metrics struct {
	Accuracy        *float64  `json:"accuracy,omitempty"`
	F1              *float64  `json:"f1_score,omitempty"`
	Precision       *float64  `json:"precision,omitempty"`
	Recall          *float64  `json:"recall,omitempty"`
	ConfusionMatrix [][]int   `json:"confusion_matrix,omitempty"`
	ROCCurve        *ROCCurve `json:"roc_curve,omitempty"`
	RMSE            *float64  `json:"rmse,omitempty"`
	R2              *float64  `json:"r2,omitempty"`
}

// TrainResult is the model selection outcome
type TrainResult struct {
	BestModel   string           `json:"best_model"`
	ProblemType ProblemType      `json:"problem_type"`
	Metrics     Metrics          `json:"metrics"`
	Scores      Ordered[float64] `json:"scores"`
}

// UnmarshalJSON accepts the result either bare or wrapped in {"result": ...}
func (r *TrainResult) UnmarshalJSON(data []byte) error {
	type plain TrainResult
	var wrapped struct {
		Result *plain `json:"result"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Result != nil {
		*r = TrainResult(*wrapped.Result)
		return nil
	}

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = TrainResult(p)
	return nil
}

// Explanation is the SHAP global feature importance
type Explanation struct {
	Features   []string  `json:"features"`
	Importance []float64 `json:"importance"`
}
