package automl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yildizm/mlstudio/internal/logger"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// Client is the HTTP implementation of Service
type Client struct {
	config  *Config
	client  *http.Client
	baseURL *url.URL
	log     *logger.Logger
}

var _ Service = (*Client)(nil)

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLogger sets the client logger
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a new service client
func New(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, NewConfigurationError("base_url", "invalid base URL: "+err.Error())
	}

	c := &Client{
		config:  config,
		client:  &http.Client{},
		baseURL: baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service endpoint
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Upload sends the dataset as multipart field "file"
func (c *Client) Upload(ctx context.Context, filename string, data io.Reader) (*UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, NewRemoteErrorWithCause(ErrTypeInternal, ActionUpload, "failed to build upload form", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, NewRemoteErrorWithCause(ErrTypeInternal, ActionUpload, "failed to read dataset", err)
	}
	if err := mw.Close(); err != nil {
		return nil, NewRemoteErrorWithCause(ErrTypeInternal, ActionUpload, "failed to build upload form", err)
	}

	var result UploadResult
	req := &request{
		action:      ActionUpload,
		method:      http.MethodPost,
		path:        "/upload",
		body:        &body,
		contentType: mw.FormDataContentType(),
		timeout:     c.config.UploadTimeout,
	}
	if err := c.doJSON(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Preview fetches up to ten rows of the current dataset
func (c *Client) Preview(ctx context.Context) (*Preview, error) {
	var result Preview
	if err := c.doJSON(ctx, c.get(ActionPreview, "/preview", nil), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BasicEDA fetches the basic exploratory summary
func (c *Client) BasicEDA(ctx context.Context) (*EDASummary, error) {
	var result EDASummary
	if err := c.doJSON(ctx, c.get(ActionBasicEDA, "/eda", nil), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExtendedEDA fetches correlations and histograms
func (c *Client) ExtendedEDA(ctx context.Context) (*ExtendedEDA, error) {
	var result ExtendedEDA
	if err := c.doJSON(ctx, c.get(ActionExtendedEDA, "/eda_full", nil), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FeatureStats fetches the feature analysis
func (c *Client) FeatureStats(ctx context.Context) (*FeatureStats, error) {
	var result FeatureStats
	if err := c.doJSON(ctx, c.get(ActionFeatureStats, "/feature_analysis", nil), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StatTest runs the statistical test between two columns
func (c *Client) StatTest(ctx context.Context, colA, colB string) (StatTestResult, error) {
	query := url.Values{"col1": {colA}, "col2": {colB}}
	var result StatTestResult
	if err := c.doJSON(ctx, c.get(ActionStatTest, "/stat_test", query), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Plot renders a chart on the service
func (c *Client) Plot(ctx context.Context, kind PlotKind, colA, colB string) (*Plot, error) {
	query := url.Values{}
	if kind == PlotScatter {
		query.Set("col1", colA)
		query.Set("col2", colB)
	} else {
		query.Set("col", colA)
	}

	var result Plot
	if err := c.doJSON(ctx, c.get(ActionPlot, "/plot/"+string(kind), query), &result); err != nil {
		return nil, err
	}
	result.Kind = kind
	return &result, nil
}

// Train runs model selection against target
func (c *Client) Train(ctx context.Context, target string) (*TrainResult, error) {
	req := &request{
		action:  ActionTrain,
		method:  http.MethodPost,
		path:    "/train",
		query:   url.Values{"target": {target}},
		timeout: c.config.TrainTimeout,
	}

	var result TrainResult
	if err := c.doJSON(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Explain fetches SHAP feature importance
func (c *Client) Explain(ctx context.Context) (*Explanation, error) {
	var result Explanation
	if err := c.doJSON(ctx, c.get(ActionExplain, "/shap", nil), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadModel streams the best model into w
func (c *Client) DownloadModel(ctx context.Context, w io.Writer) (int64, error) {
	req := c.get(ActionDownload, "/download_model", nil)
	req.timeout = c.config.UploadTimeout

	resp, cancel, err := c.do(ctx, req)
	if err != nil {
		return 0, err
	}
	defer cancel()
	defer func() { _ = resp.Body.Close() }()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, NewRemoteErrorWithCause(ErrTypeNetwork, ActionDownload, "failed to read model stream", err)
	}
	return n, nil
}

type request struct {
	action      string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	timeout     time.Duration
}

func (c *Client) get(action, path string, query url.Values) *request {
	return &request{
		action:  action,
		method:  http.MethodGet,
		path:    path,
		query:   query,
		timeout: c.config.Timeout,
	}
}

// doJSON performs req and decodes a successful body into out
func (c *Client) doJSON(ctx context.Context, req *request, out interface{}) error {
	resp, cancel, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer cancel()
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewRemoteErrorWithCause(ErrTypeDecode, req.action, "failed to decode response", err)
	}
	return nil
}

// do sends req and returns the response for a 2xx status. Any other outcome is a
// *RemoteError. The returned cancel func releases the per-request deadline and
// must be called once the body has been consumed.
func (c *Client) do(ctx context.Context, req *request) (*http.Response, context.CancelFunc, error) {
	requestID := uuid.NewString()
	start := time.Now()

	endpoint := c.baseURL.JoinPath(req.path)
	if len(req.query) > 0 {
		endpoint.RawQuery = req.query.Encode()
	}

	body := req.body
	if body == nil {
		body = http.NoBody
	}

	cancel := context.CancelFunc(func() {})
	if req.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.timeout)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint.String(), body)
	if err != nil {
		cancel()
		return nil, nil, NewRemoteErrorWithCause(ErrTypeInternal, req.action, "failed to create request", err)
	}
	httpReq.Header.Set(RequestIDHeader, requestID)
	httpReq.Header.Set("Accept", "application/json")
	if c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	c.log.DebugWithFields("request started", []logger.Field{
		logger.Action(req.action),
		logger.RequestID(requestID),
		logger.F("method", req.method),
		logger.F("url", endpoint.String()),
	})

	resp, err := c.client.Do(httpReq)
	if err != nil {
		cancel()
		re := NewRemoteErrorWithCause(ErrTypeNetwork, req.action, transportDetail(err), err)
		re.RequestID = requestID
		c.log.DebugWithFields("request failed", []logger.Field{
			logger.Action(req.action), logger.RequestID(requestID), logger.Duration(time.Since(start)), logger.Error(err),
		})
		return nil, nil, re
	}

	c.log.DebugWithFields("request finished", []logger.Field{
		logger.Action(req.action),
		logger.RequestID(requestID),
		logger.F("status", resp.StatusCode),
		logger.Duration(time.Since(start)),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer func() { _ = resp.Body.Close() }()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		detail, fromBody := extractDetail(payload)
		if !fromBody {
			detail = statusDetail(resp.StatusCode)
		}
		re := NewRemoteError(ErrTypeService, req.action, detail)
		re.FromService = fromBody
		re.StatusCode = resp.StatusCode
		re.RequestID = requestID
		return nil, nil, re
	}

	return resp, cancel, nil
}

// ErrorResponse is the service error body. Detail is either a string or a list
// of validation issues.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// ExtractDetail pulls the human-readable detail out of an error body, falling
// back to a status description when the body has none.
func ExtractDetail(body []byte, status int) string {
	if detail, ok := extractDetail(body); ok {
		return detail
	}
	return statusDetail(status)
}

func statusDetail(status int) string {
	return fmt.Sprintf("request failed with status %d", status)
}

func extractDetail(body []byte) (string, bool) {
	var errorResp ErrorResponse
	if json.Unmarshal(body, &errorResp) != nil || len(errorResp.Detail) == 0 {
		return "", false
	}

	var detail string
	if json.Unmarshal(errorResp.Detail, &detail) == nil {
		if strings.TrimSpace(detail) == "" {
			return "", false
		}
		return detail, true
	}

	var issues []validationIssue
	if json.Unmarshal(errorResp.Detail, &issues) == nil {
		msgs := make([]string, 0, len(issues))
		for _, issue := range issues {
			if issue.Msg != "" {
				msgs = append(msgs, issue.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; "), true
		}
	}

	return "", false
}

func transportDetail(err error) string {
	if ue, ok := err.(*url.Error); ok {
		if ue.Timeout() {
			return "request timed out"
		}
		return "service unreachable: " + ue.Err.Error()
	}
	return "request failed: " + err.Error()
}
