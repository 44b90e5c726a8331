package automl

import (
	"context"
	"io"
)

// Action names used for logging, timeouts and error attribution
const (
	ActionUpload       = "upload"
	ActionPreview      = "preview"
	ActionBasicEDA     = "eda"
	ActionExtendedEDA  = "eda_full"
	ActionFeatureStats = "feature_analysis"
	ActionStatTest     = "stat_test"
	ActionPlot         = "plot"
	ActionTrain        = "train"
	ActionExplain      = "shap"
	ActionDownload     = "download_model"
)

// Service is the AutoML service contract. Every method issues exactly one
// request and returns either the decoded payload or a *RemoteError.
type Service interface {
	// Upload sends a dataset file
	Upload(ctx context.Context, filename string, data io.Reader) (*UploadResult, error)

	// Preview fetches the first rows of the current dataset
	Preview(ctx context.Context) (*Preview, error)

	// BasicEDA fetches shape, missing counts and descriptive statistics
	BasicEDA(ctx context.Context) (*EDASummary, error)

	// ExtendedEDA fetches correlations and histograms
	ExtendedEDA(ctx context.Context) (*ExtendedEDA, error)

	// FeatureStats fetches per-feature missing and unique counts
	FeatureStats(ctx context.Context) (*FeatureStats, error)

	// StatTest runs the automatic statistical test between two columns
	StatTest(ctx context.Context, colA, colB string) (StatTestResult, error)

	// Plot renders a chart; colB is only sent for scatter plots
	Plot(ctx context.Context, kind PlotKind, colA, colB string) (*Plot, error)

	// Train fits candidate models against target and keeps the best one
	Train(ctx context.Context, target string) (*TrainResult, error)

	// Explain computes SHAP feature importance for the trained model
	Explain(ctx context.Context) (*Explanation, error)

	// DownloadModel streams the serialized best model into w
	DownloadModel(ctx context.Context, w io.Writer) (int64, error)
}
