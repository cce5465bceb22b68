package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/forgery-inspector-go/internal/aggregator"
	"github.com/anime-shed/forgery-inspector-go/internal/classifier"
	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/detector"
	apperrors "github.com/anime-shed/forgery-inspector-go/internal/errors"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging"
	"github.com/anime-shed/forgery-inspector-go/internal/imaging/imagingtest"
	"github.com/anime-shed/forgery-inspector-go/internal/observer"
	"github.com/anime-shed/forgery-inspector-go/internal/pipeline"
	"github.com/anime-shed/forgery-inspector-go/internal/repository"
	"github.com/anime-shed/forgery-inspector-go/internal/storage"
	"github.com/anime-shed/forgery-inspector-go/pkg/models"
)

type fixedDetector struct {
	name   detector.Name
	result detector.Result
}

func (d fixedDetector) Name() detector.Name { return d.name }

func (d fixedDetector) Analyze(*imaging.RawImage) detector.Result { return d.result }

type fakeRepository struct {
	data        []byte
	fetchErr    error
	validateErr error
}

func (r *fakeRepository) FetchImage(context.Context, string) ([]byte, error) {
	return r.data, r.fetchErr
}

func (r *fakeRepository) ValidateImageURL(string) error { return r.validateErr }

var jpegBytes = imagingtest.JPEG(imagingtest.Gradient(32, 32), 90)

func newService(repo repository.ImageRepository, events observer.Subject) ForgeryAnalysisService {
	settings := config.DefaultSettings()
	set := detector.Set{}
	for name, r := range map[detector.Name]detector.Result{
		detector.Metadata:      {Score: 0.9},
		detector.ReverseSearch: {Score: 0, Reason: detector.ReasonNotImplemented},
		detector.ELA:           {Score: 0.5},
		detector.Statistical:   {Score: 0.2},
		detector.CopyMove:      {Score: 0},
		detector.NoiseVariance: {Score: 0.5, Defaulted: true, Reason: detector.ReasonDegenerateInput},
	} {
		set[name] = fixedDetector{name: name, result: r}
	}
	return NewForgeryAnalysisService(repo, pipelineFor(set, settings, events), events)
}

func pipelineFor(set detector.Set, settings config.Settings, events observer.Subject) *pipeline.Pipeline {
	return pipeline.New(
		set,
		aggregator.New(settings.Aggregator.Weights),
		classifier.New(settings.Classifier.Thresholds),
		settings.Pipeline,
		events,
	)
}

func TestAnalyzeURL(t *testing.T) {
	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(metrics)
	svc := newService(&fakeRepository{data: jpegBytes}, events)

	resp, err := svc.AnalyzeURL(context.Background(), models.AnalysisRequest{URL: "https://example.com/a.jpg"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "https://example.com/a.jpg", resp.Source)
	assert.Equal(t, "jpeg", resp.Format)
	_, err = time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)

	// (0.9*0.25 + 0.5*0.20 + 0.2*0.10 + 0.5*0.05) / 0.7
	assert.InDelta(t, 0.37/0.7, resp.FinalScore, 1e-9)
	assert.Equal(t, map[string]string{"strict": "authentic", "balanced": "forged", "aggressive": "forged"}, resp.Classifications)
	assert.Equal(t, []string{"balanced", "aggressive"}, resp.ForgedProfiles)

	assert.Len(t, resp.Detectors, 6)
	assert.Equal(t, models.DetectorScore{Score: 0.5, Defaulted: true, Reason: "degenerate_input"}, resp.Detectors["noise_variance"])
	assert.Equal(t, "not_implemented", resp.Detectors["reverse_search"].Reason)

	m := metrics.GetMetrics()
	assert.Equal(t, int64(1), m["successful_analyses"])
	assert.Equal(t, int64(0), m["fetch_failures"])
}

func TestAnalyzeURL_Options(t *testing.T) {
	svc := newService(&fakeRepository{data: jpegBytes}, nil)

	resp, err := svc.AnalyzeURL(context.Background(), models.AnalysisRequest{
		URL:       "https://example.com/a.jpg",
		Profiles:  []string{"Strict"},
		Detectors: []string{"metadata", "ela"},
	})
	require.NoError(t, err)

	assert.Len(t, resp.Detectors, 2)
	// (0.9*0.25 + 0.5*0.20) / 0.45
	assert.InDelta(t, 0.325/0.45, resp.FinalScore, 1e-9)
	assert.Equal(t, map[string]string{"strict": "forged"}, resp.Classifications)

	_, err = svc.AnalyzeURL(context.Background(), models.AnalysisRequest{URL: "https://example.com/a.jpg", Detectors: []string{"ocr"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestAnalyzeURL_FetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType apperrors.ErrorType
	}{
		{"deadline", fmt.Errorf("get: %w", context.DeadlineExceeded), apperrors.ErrorTypeTimeout},
		{"too large", fmt.Errorf("read: %w", storage.ErrImageTooLarge), apperrors.ErrorTypeValidation},
		{"unsupported scheme", fmt.Errorf("%w: %q", repository.ErrUnsupportedScheme, "ftp"), apperrors.ErrorTypeValidation},
		{"network", errors.New("connection refused"), apperrors.ErrorTypeNetwork},
		{"app error passes through", apperrors.NewNotFoundError("blob missing", nil), apperrors.ErrorTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := observer.NewEventPublisher()
			metrics := observer.NewMetricsObserver()
			events.Subscribe(metrics)
			svc := newService(&fakeRepository{fetchErr: tt.err}, events)

			_, err := svc.AnalyzeURL(context.Background(), models.AnalysisRequest{URL: "https://example.com/a.jpg"})
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
			assert.Equal(t, int64(1), metrics.GetMetrics()["fetch_failures"])
			assert.Equal(t, int64(0), metrics.GetMetrics()["total_analyses"])
		})
	}
}

func TestAnalyzeURL_InvalidURL(t *testing.T) {
	svc := newService(&fakeRepository{validateErr: repository.ErrInvalidImageURL}, nil)

	_, err := svc.AnalyzeURL(context.Background(), models.AnalysisRequest{URL: ""})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.ErrorIs(t, err, repository.ErrInvalidImageURL)
}

func TestAnalyzeUpload(t *testing.T) {
	svc := newService(&fakeRepository{}, nil)

	resp, err := svc.AnalyzeUpload(context.Background(), "upload.jpg", jpegBytes, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "upload.jpg", resp.Source)
	assert.Len(t, resp.Classifications, 3)

	_, err = svc.AnalyzeUpload(context.Background(), "empty.jpg", nil, nil, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = svc.AnalyzeUpload(context.Background(), "notes.txt", []byte("plain text"), nil, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnsupportedFormat))
}

func TestConfig(t *testing.T) {
	svc := newService(&fakeRepository{}, nil)

	cfg := svc.Config()
	assert.Equal(t, 0.30, cfg.Weights["reverse_search"])
	assert.Equal(t, map[string]float64{"strict": 0.7, "balanced": 0.5, "aggressive": 0.3}, cfg.Thresholds)
	assert.Equal(t, []string{"metadata", "reverse_search", "ela", "statistical", "copy_move", "noise_variance"}, cfg.Detectors)
}
