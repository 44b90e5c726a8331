package pipeline

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/yildizm/mlstudio/internal/automl"
	"github.com/yildizm/mlstudio/internal/clock"
	"github.com/yildizm/mlstudio/internal/notify"
)

// fakeService is an in-memory automl.Service that counts calls
type fakeService struct {
	mu    sync.Mutex
	calls map[string]int

	upload     *automl.UploadResult
	uploadErr  error
	preview    *automl.Preview
	previewErr error
	eda        func() (*automl.EDASummary, error)
	edaErr     error
	train      *automl.TrainResult
	trainErr   error
	explain    *automl.Explanation
	explainErr error
	plotImage  string

	// gate, when set, holds BasicEDA until it is closed
	gate chan struct{}
}

func newFakeService() *fakeService {
	importance := make([]float64, 20)
	features := make([]string, 20)
	for i := range features {
		features[i] = fmt.Sprintf("f%02d", i)
		importance[i] = float64((i*7)%20) / 10
	}

	return &fakeService{
		calls: make(map[string]int),
		upload: &automl.UploadResult{DatasetInfo: automl.DatasetInfo{
			Rows:        150,
			Columns:     3,
			ColumnNames: []string{"sepal_length", "sepal_width", "species"},
		}},
		preview: &automl.Preview{
			Columns: []string{"sepal_length", "sepal_width", "species"},
			Rows:    [][]interface{}{{5.1, 3.5, "setosa"}},
		},
		train:     sampleTrainResult(),
		explain:   &automl.Explanation{Features: features, Importance: importance},
		plotImage: base64.StdEncoding.EncodeToString([]byte("png")),
	}
}

func sampleTrainResult() *automl.TrainResult {
	acc := 0.93
	return &automl.TrainResult{
		BestModel:   "B",
		ProblemType: automl.ProblemBinary,
		Scores: automl.Ordered[float64]{
			{Key: "A", Value: 0.8},
			{Key: "B", Value: 0.95},
			{Key: "C", Value: 0.95},
		},
		Metrics: automl.Metrics{
			Accuracy:        &acc,
			ConfusionMatrix: [][]int{{5, 1}, {2, 7}},
			ROCCurve:        &automl.ROCCurve{FPR: []float64{0, 0.5, 1}, TPR: []float64{0, 0.8, 1}, AUC: 0.9},
		},
	}
}

func (f *fakeService) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeService) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeService) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeService) Upload(ctx context.Context, filename string, data io.Reader) (*automl.UploadResult, error) {
	f.hit("upload")
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.upload, nil
}

func (f *fakeService) Preview(ctx context.Context) (*automl.Preview, error) {
	f.hit("preview")
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	return f.preview, nil
}

func (f *fakeService) BasicEDA(ctx context.Context) (*automl.EDASummary, error) {
	f.hit("eda")
	if f.gate != nil {
		<-f.gate
	}
	if f.edaErr != nil {
		return nil, f.edaErr
	}
	if f.eda != nil {
		return f.eda()
	}
	return &automl.EDASummary{Shape: automl.Shape{Rows: 150, Columns: 3}}, nil
}

func (f *fakeService) ExtendedEDA(ctx context.Context) (*automl.ExtendedEDA, error) {
	f.hit("eda_full")
	return &automl.ExtendedEDA{}, nil
}

func (f *fakeService) FeatureStats(ctx context.Context) (*automl.FeatureStats, error) {
	f.hit("feature_analysis")
	return &automl.FeatureStats{}, nil
}

func (f *fakeService) StatTest(ctx context.Context, colA, colB string) (automl.StatTestResult, error) {
	f.hit("stat_test")
	return automl.StatTestResult{{Key: "test", Value: "pearson"}, {Key: "p", Value: 0.01}}, nil
}

func (f *fakeService) Plot(ctx context.Context, kind automl.PlotKind, colA, colB string) (*automl.Plot, error) {
	f.hit("plot")
	return &automl.Plot{Kind: kind, Image: f.plotImage}, nil
}

func (f *fakeService) Train(ctx context.Context, target string) (*automl.TrainResult, error) {
	f.hit("train")
	if f.trainErr != nil {
		return nil, f.trainErr
	}
	return f.train, nil
}

func (f *fakeService) Explain(ctx context.Context) (*automl.Explanation, error) {
	f.hit("shap")
	if f.explainErr != nil {
		return nil, f.explainErr
	}
	return f.explain, nil
}

func (f *fakeService) DownloadModel(ctx context.Context, w io.Writer) (int64, error) {
	f.hit("download_model")
	n, err := io.WriteString(w, "model")
	return int64(n), err
}

// recorder collects run records
type recorder struct {
	mu      sync.Mutex
	records []RunRecord
}

func (r *recorder) Record(ctx context.Context, rec RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

type fixture struct {
	svc   *fakeService
	clock *clock.Fake
	notes *notify.Queue
	ctrl  *Controller
}

func newFixture(opts ...Option) *fixture {
	svc := newFakeService()
	clk := clock.NewFake(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))
	notes := notify.NewQueue(clk, notify.DefaultTTL)
	opts = append([]Option{WithClock(clk)}, opts...)
	return &fixture{
		svc:   svc,
		clock: clk,
		notes: notes,
		ctrl:  New(svc, notes, opts...),
	}
}

func (fx *fixture) messages() []string {
	list := fx.notes.List()
	out := make([]string, len(list))
	for i, n := range list {
		out[i] = string(n.Kind) + ":" + n.Message
	}
	return out
}
