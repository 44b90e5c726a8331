// Package automltest provides an in-process AutoML service for tests.
package automltest

import (
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// PNG is the image payload returned by every plot route
var PNG = []byte("\x89PNG\r\n\x1a\nfake")

// ModelBytes is the body served by the download route
var ModelBytes = []byte("pickled-pipeline")

// Server is a fake AutoML service backed by httptest
type Server struct {
	*httptest.Server

	router chi.Router

	mu         sync.Mutex
	columns    []string
	rows       [][]interface{}
	trained    bool
	hits       map[string]int
	requestIDs []string
	failures   map[string]failure
	delays     map[string]time.Duration

	// TrainBody overrides the train response when non-nil
	TrainBody interface{}
}

type failure struct {
	status int
	body   string
}

// NewServer starts a fake service. Call Close when done.
func NewServer() *Server {
	s := &Server{
		hits:     make(map[string]int),
		failures: make(map[string]failure),
		delays:   make(map[string]time.Duration),
	}

	r := chi.NewRouter()
	r.Use(s.intercept)

	r.Post("/upload", s.handleUpload)
	r.Get("/preview", s.handlePreview)
	r.Get("/eda", s.handleEDA)
	r.Get("/eda_full", s.handleEDAFull)
	r.Get("/feature_analysis", s.handleFeatureAnalysis)
	r.Get("/stat_test", s.handleStatTest)
	r.Get("/plot/{kind}", s.handlePlot)
	r.Post("/train", s.handleTrain)
	r.Get("/shap", s.handleShap)
	r.Get("/download_model", s.handleDownload)

	s.router = r
	s.Server = httptest.NewServer(r)
	return s
}

// Fail makes every request to path answer status with a FastAPI string detail
func (s *Server) Fail(path string, status int, detail string) {
	body, _ := json.Marshal(map[string]string{"detail": detail})
	s.FailRaw(path, status, string(body))
}

// FailRaw makes every request to path answer status with body verbatim
func (s *Server) FailRaw(path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = failure{status: status, body: body}
}

// Recover removes an injected failure
func (s *Server) Recover(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
}

// Delay holds requests to path for d before handling them
func (s *Server) Delay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[path] = d
}

// Hits returns how many requests reached path
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// TotalHits returns the number of requests received on any path
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// RequestIDs returns the X-Request-ID headers seen, in arrival order
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// Columns returns the columns of the last uploaded dataset
func (s *Server) Columns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.columns...)
}

func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-ID"))
		f, failing := s.failures[r.URL.Path]
		delay := s.delays[r.URL.Path]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeMissingQuery(w http.ResponseWriter, field string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"detail": []map[string]interface{}{
			{"loc": []string{"query", field}, "msg": "field required", "type": "value_error.missing"},
		},
	})
}

// dataset returns the current columns, writing the service's 400 when none is loaded
func (s *Server) dataset(w http.ResponseWriter) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.columns == nil {
		writeDetail(w, http.StatusBadRequest, "No dataset uploaded yet")
		return nil, false
	}
	return append([]string(nil), s.columns...), true
}

func (s *Server) hasColumn(col string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.columns {
		if c == col {
			return true
		}
	}
	return false
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"detail": []map[string]interface{}{{"loc": []string{"body", "file"}, "msg": "field required"}},
		})
		return
	}
	defer func() { _ = file.Close() }()

	name := strings.ToLower(header.Filename)
	var columns []string
	var rows [][]interface{}
	switch {
	case strings.HasSuffix(name, ".csv"):
		records, err := csv.NewReader(file).ReadAll()
		if err != nil || len(records) == 0 {
			writeDetail(w, http.StatusBadRequest, "Could not parse CSV file")
			return
		}
		columns = records[0]
		for _, rec := range records[1:] {
			row := make([]interface{}, len(rec))
			for i, v := range rec {
				row[i] = v
			}
			rows = append(rows, row)
		}
	case strings.HasSuffix(name, ".xlsx"):
		columns = []string{"sheet_a", "sheet_b"}
	default:
		writeDetail(w, http.StatusBadRequest, "Unsupported file type")
		return
	}

	s.mu.Lock()
	s.columns = columns
	s.rows = rows
	s.trained = false
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"dataset_info": map[string]interface{}{
			"rows":         len(rows),
			"columns":      len(columns),
			"column_names": columns,
		},
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	columns, ok := s.dataset(w)
	if !ok {
		return
	}
	s.mu.Lock()
	rows := s.rows
	if len(rows) > 10 {
		rows = rows[:10]
	}
	s.mu.Unlock()
	if rows == nil {
		rows = [][]interface{}{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"columns": columns, "rows": rows})
}

func (s *Server) handleEDA(w http.ResponseWriter, r *http.Request) {
	columns, ok := s.dataset(w)
	if !ok {
		return
	}
	s.mu.Lock()
	n := len(s.rows)
	s.mu.Unlock()

	missing := make(map[string]int, len(columns))
	describe := make(map[string]map[string]float64, len(columns))
	for _, c := range columns {
		missing[c] = 0
		describe[c] = map[string]float64{"count": float64(n), "mean": 1.5, "std": 0.5}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"shape":    []int{n, len(columns)},
		"columns":  columns,
		"missing":  missing,
		"describe": describe,
	})
}

func (s *Server) handleEDAFull(w http.ResponseWriter, r *http.Request) {
	columns, ok := s.dataset(w)
	if !ok {
		return
	}
	corr := make(map[string]map[string]float64, len(columns))
	hist := make(map[string]interface{}, len(columns))
	for i, a := range columns {
		corr[a] = make(map[string]float64, len(columns))
		for j, b := range columns {
			switch {
			case i == j:
				corr[a][b] = 1
			case (i+j)%2 == 0:
				corr[a][b] = 0.6
			default:
				corr[a][b] = -0.3
			}
		}
		hist[a] = map[string]interface{}{"bins": []float64{0, 1, 2}, "counts": []int{3, 4}}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"correlation": corr, "histograms": hist})
}

func (s *Server) handleFeatureAnalysis(w http.ResponseWriter, r *http.Request) {
	columns, ok := s.dataset(w)
	if !ok {
		return
	}
	missing := make(map[string]int, len(columns))
	unique := make(map[string]int, len(columns))
	for i, c := range columns {
		missing[c] = i
		unique[c] = 10 + i
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"missing": missing, "unique": unique})
}

func (s *Server) handleStatTest(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.dataset(w); !ok {
		return
	}
	col1, col2 := r.URL.Query().Get("col1"), r.URL.Query().Get("col2")
	if col1 == "" {
		writeMissingQuery(w, "col1")
		return
	}
	if col2 == "" {
		writeMissingQuery(w, "col2")
		return
	}
	if !s.hasColumn(col1) || !s.hasColumn(col2) {
		writeDetail(w, http.StatusBadRequest, "Invalid columns")
		return
	}
	// raw body keeps the service's key order
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"test":"pearson","stat":0.42,"p":0.013}`)
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.dataset(w); !ok {
		return
	}
	q := r.URL.Query()
	switch kind := chi.URLParam(r, "kind"); kind {
	case "distribution", "box":
		if col := q.Get("col"); col == "" || !s.hasColumn(col) {
			writeDetail(w, http.StatusBadRequest, "Invalid column")
			return
		}
	case "scatter":
		if !s.hasColumn(q.Get("col1")) || !s.hasColumn(q.Get("col2")) {
			writeDetail(w, http.StatusBadRequest, "Invalid columns")
			return
		}
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"image": base64.StdEncoding.EncodeToString(PNG)})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.dataset(w); !ok {
		return
	}
	target := r.URL.Query().Get("target")
	if target == "" {
		writeMissingQuery(w, "target")
		return
	}
	if !s.hasColumn(target) {
		writeDetail(w, http.StatusBadRequest, "Invalid target column")
		return
	}

	s.mu.Lock()
	s.trained = true
	body := s.TrainBody
	s.mu.Unlock()

	if body != nil {
		writeJSON(w, http.StatusOK, body)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, DefaultTrainBody)
}

// DefaultTrainBody is a binary classification result with scores in service order
const DefaultTrainBody = `{
  "problem_type": "binary",
  "best_model": "RandomForest",
  "scores": {"LogisticRegression": 0.81, "RandomForest": 0.93, "GradientBoosting": 0.93},
  "metrics": {
    "accuracy": 0.92, "f1_score": 0.915, "precision": 0.9, "recall": 0.93,
    "confusion_matrix": [[50, 3], [5, 42]],
    "roc_curve": {"fpr": [0, 0.1, 1], "tpr": [0, 0.85, 1], "auc": 0.9532}
  }
}`

func (s *Server) handleShap(w http.ResponseWriter, r *http.Request) {
	columns, ok := s.dataset(w)
	if !ok {
		return
	}
	s.mu.Lock()
	trained := s.trained
	s.mu.Unlock()
	if !trained {
		writeDetail(w, http.StatusBadRequest, "No trained model found. Train model first.")
		return
	}

	importance := make([]float64, len(columns))
	for i := range columns {
		importance[i] = float64(i+1) / 10
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"features": columns, "importance": importance})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	trained := s.trained
	s.mu.Unlock()
	if !trained {
		writeDetail(w, http.StatusNotFound, "Model file not found")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "best_model.pkl"))
	_, _ = w.Write(ModelBytes)
}
