package automl_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yildizm/mlstudio/internal/automl"
	"github.com/yildizm/mlstudio/internal/automl/automltest"
)

const irisCSV = "sepal_length,sepal_width,species\n5.1,3.5,setosa\n4.9,3.0,setosa\n6.2,2.9,virginica\n"

func newClient(t *testing.T, baseURL string) *automl.Client {
	t.Helper()
	config := automl.DefaultConfig()
	config.BaseURL = baseURL
	client, err := automl.New(config)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return client
}

func uploadIris(t *testing.T, client *automl.Client) *automl.UploadResult {
	t.Helper()
	result, err := client.Upload(context.Background(), "iris.csv", strings.NewReader(irisCSV))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	return result
}

func TestClient_Upload(t *testing.T) {
	server := automltest.NewServer()
	defer server.Close()
	client := newClient(t, server.URL)

	result := uploadIris(t, client)

	want := []string{"sepal_length", "sepal_width", "species"}
	if len(result.DatasetInfo.ColumnNames) != len(want) {
		t.Fatalf("Expected %d columns, got %v", len(want), result.DatasetInfo.ColumnNames)
	}
	for i, c := range want {
		if result.DatasetInfo.ColumnNames[i] != c {
			t.Errorf("Column %d: expected %s, got %s", i, c, result.DatasetInfo.ColumnNames[i])
		}
	}
	if result.DatasetInfo.Rows != 3 {
		t.Errorf("Expected 3 rows, got %d", result.DatasetInfo.Rows)
	}
}

func TestClient_RequestIDs(t *testing.T) {
	server := automltest.NewServer()
	defer server.Close()
	client := newClient(t, server.URL)

	uploadIris(t, client)
	if _, err := client.Preview(context.Background()); err != nil {
		t.Fatalf("Preview failed: %v", err)
	}

	ids := server.RequestIDs()
	if len(ids) != 2 {
		t.Fatalf("Expected 2 requests, got %d", len(ids))
	}
	if ids[0] == "" || ids[0] == ids[1] {
		t.Errorf("Expected distinct request ids, got %v", ids)
	}
}

func TestClient_AnalysisEndpoints(t *testing.T) {
	server := automltest.NewServer()
	defer server.Close()
	client := newClient(t, server.URL)
	ctx := context.Background()
	uploadIris(t, client)

	eda, err := client.BasicEDA(ctx)
	if err != nil {
		t.Fatalf("BasicEDA failed: %v", err)
	}
	if eda.Shape.Rows != 3 || eda.Shape.Columns != 3 {
		t.Errorf("Expected shape 3x3, got %+v", eda.Shape)
	}

	full, err := client.ExtendedEDA(ctx)
	if err != nil {
		t.Fatalf("ExtendedEDA failed: %v", err)
	}
	cols, lookup := full.CorrelationMatrix()
	if len(cols) != 3 || lookup["species"]["species"] != 1 {
		t.Errorf("Unexpected correlation matrix: %v", lookup)
	}

	stats, err := client.FeatureStats(ctx)
	if err != nil {
		t.Fatalf("FeatureStats failed: %v", err)
	}
	if v, ok := stats.Unique.Get("species"); !ok || v != 12 {
		t.Errorf("Expected unique species 12, got %v", v)
	}

	test, err := client.StatTest(ctx, "sepal_length", "species")
	if err != nil {
		t.Fatalf("StatTest failed: %v", err)
	}
	if keys := test.Keys(); strings.Join(keys, ",") != "test,stat,p" {
		t.Errorf("Expected ordered keys test,stat,p, got %v", keys)
	}
}

func TestClient_Plot(t *testing.T) {
	server := automltest.NewServer()
	defer server.Close()
	client := newClient(t, server.URL)
	uploadIris(t, client)

	plot, err := client.Plot(context.Background(), automl.PlotScatter, "sepal_length", "sepal_width")
	if err != nil {
		t.Fatalf("Plot failed: %v", err)
	}
	png, err := plot.PNG()
	if err != nil {
		t.Fatalf("Failed to decode image: %v", err)
	}
	if !bytes.Equal(png, automltest.PNG) {
		t.Errorf("Unexpected image bytes %q", png)
	}
	if server.Hits("/plot/scatter") != 1 {
		t.Errorf("Expected one scatter request, got %d", server.Hits("/plot/scatter"))
	}
}

func TestClient_TrainExplainDownload(t *testing.T) {
	server := automltest.NewServer()
	defer server.Close()
	client := newClient(t, server.URL)
	ctx := context.Background()
	uploadIris(t, client)

	result, err := client.Train(ctx, "species")
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if result.BestModel != "RandomForest" {
		t.Errorf("Expected best model RandomForest, got %s", result.BestModel)
	}
	if got := strings.Join(result.Scores.Keys(), ","); got != "LogisticRegression,RandomForest,GradientBoosting" {
		t.Errorf("Expected scores in service order, got %s", got)
	}
	if result.Metrics.ROCCurve == nil || result.Metrics.ROCCurve.AUC != 0.9532 {
		t.Errorf("Expected ROC curve with auc 0.9532, got %+v", result.Metrics.ROCCurve)
	}

	explanation, err := client.Explain(ctx)
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if len(explanation.Features) != len(explanation.Importance) {
		t.Errorf("Expected parallel arrays, got %d/%d", len(explanation.Features), len(explanation.Importance))
	}

	var buf bytes.Buffer
	n, err := client.DownloadModel(ctx, &buf)
	if err != nil {
		t.Fatalf("DownloadModel failed: %v", err)
	}
	if n != int64(len(automltest.ModelBytes)) || !bytes.Equal(buf.Bytes(), automltest.ModelBytes) {
		t.Errorf("Unexpected model bytes %q", buf.Bytes())
	}
}

func TestClient_TrainWrappedResult(t *testing.T) {
	server := automltest.NewServer()
	defer server.Close()
	server.TrainBody = map[string]interface{}{
		"result": map[string]interface{}{
			"problem_type": "regression",
			"best_model":   "Ridge",
			"scores":       map[string]float64{"Ridge": 0.7},
			"metrics":      map[string]float64{"r2": 0.71, "rmse": 3.2},
		},
	}
	client := newClient(t, server.URL)
	uploadIris(t, client)

	result, err := client.Train(context.Background(), "sepal_length")
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if !result.ProblemType.IsRegression() || result.BestModel != "Ridge" {
		t.Errorf("Unexpected result %+v", result)
	}
	if result.Metrics.R2 == nil || *result.Metrics.R2 != 0.71 {
		t.Errorf("Expected r2 0.71, got %v", result.Metrics.R2)
	}
}

func TestClient_ErrorDetail(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		want        string
		fromService bool
	}{
		{"string detail", 400, `{"detail":"No dataset uploaded yet"}`, "No dataset uploaded yet", true},
		{"validation list", 422, `{"detail":[{"loc":["query","target"],"msg":"field required"}]}`, "field required", true},
		{"empty body", 500, ``, "request failed with status 500", false},
		{"html body", 502, `<html>bad gateway</html>`, "request failed with status 502", false},
		{"blank detail", 400, `{"detail":"  "}`, "request failed with status 400", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := automltest.NewServer()
			defer server.Close()
			server.FailRaw("/eda", tt.status, tt.body)
			client := newClient(t, server.URL)

			_, err := client.BasicEDA(context.Background())
			re, ok := automl.AsRemoteError(err)
			if !ok {
				t.Fatalf("Expected RemoteError, got %v", err)
			}
			if re.Detail != tt.want {
				t.Errorf("Expected detail %q, got %q", tt.want, re.Detail)
			}
			if re.FromService != tt.fromService {
				t.Errorf("Expected FromService=%v, got %v", tt.fromService, re.FromService)
			}
			if re.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, re.StatusCode)
			}
			if re.Type != automl.ErrTypeService || re.Action != automl.ActionBasicEDA {
				t.Errorf("Unexpected error classification: %+v", re)
			}
		})
	}
}

func TestClient_NoDataset(t *testing.T) {
	server := automltest.NewServer()
	defer server.Close()
	client := newClient(t, server.URL)

	_, err := client.Explain(context.Background())
	if automl.Detail(err) != "No dataset uploaded yet" {
		t.Errorf("Expected service detail, got %v", err)
	}
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := newClient(t, url)
	_, err := client.Preview(context.Background())
	re, ok := automl.AsRemoteError(err)
	if !ok {
		t.Fatalf("Expected RemoteError, got %v", err)
	}
	if re.Type != automl.ErrTypeNetwork || !re.Retryable {
		t.Errorf("Expected retryable network error, got %+v", re)
	}
	if re.Detail == "" {
		t.Error("Expected transport detail")
	}
}

func TestClient_Timeout(t *testing.T) {
	server := automltest.NewServer()
	defer server.Close()
	server.Delay("/preview", 500*time.Millisecond)

	config := automl.DefaultConfig()
	config.BaseURL = server.URL
	config.Timeout = 20 * time.Millisecond
	client, err := automl.New(config)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	_, err = client.Preview(context.Background())
	if !automl.IsTimeoutError(err) {
		t.Errorf("Expected timeout error, got %v", err)
	}
}

func TestClient_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newClient(t, server.URL)
	_, err := client.FeatureStats(context.Background())
	re, ok := automl.AsRemoteError(err)
	if !ok || re.Type != automl.ErrTypeDecode {
		t.Errorf("Expected decode error, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *automl.Config)
	}{
		{"empty url", func(c *automl.Config) { c.BaseURL = "" }},
		{"relative url", func(c *automl.Config) { c.BaseURL = "localhost:8000" }},
		{"ftp url", func(c *automl.Config) { c.BaseURL = "ftp://host" }},
		{"zero timeout", func(c *automl.Config) { c.Timeout = 0 }},
		{"zero train timeout", func(c *automl.Config) { c.TrainTimeout = 0 }},
		{"zero upload timeout", func(c *automl.Config) { c.UploadTimeout = 0 }},
	}

	if err := automl.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := automl.DefaultConfig()
			tt.modify(c)
			if err := c.Validate(); !automl.IsConfigurationError(err) {
				t.Errorf("Expected configuration error, got %v", err)
			}
		})
	}
}
