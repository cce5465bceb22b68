package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/forgery-inspector-go/internal/classifier"
	apperrors "github.com/anime-shed/forgery-inspector-go/internal/errors"
	"github.com/anime-shed/forgery-inspector-go/internal/logger"
	"github.com/anime-shed/forgery-inspector-go/internal/observer"
	"github.com/anime-shed/forgery-inspector-go/internal/pipeline"
	"github.com/anime-shed/forgery-inspector-go/internal/repository"
	"github.com/anime-shed/forgery-inspector-go/internal/storage"
	"github.com/anime-shed/forgery-inspector-go/pkg/models"
)

// ForgeryAnalysisService scores images fetched by URL or uploaded directly
type ForgeryAnalysisService interface {
	AnalyzeURL(ctx context.Context, request models.AnalysisRequest) (*models.AnalysisResponse, error)
	AnalyzeUpload(ctx context.Context, name string, data []byte, profiles, detectors []string) (*models.AnalysisResponse, error)
	Visualize(ctx context.Context, kind string, data []byte) (*Visualization, error)
	Config() models.ConfigResponse
	ValidateImageURL(imageURL string) error
}

// forgeryAnalysisService implements ForgeryAnalysisService over one pipeline
type forgeryAnalysisService struct {
	imageRepo repository.ImageRepository
	pipeline  *pipeline.Pipeline
	events    observer.Subject
}

// NewForgeryAnalysisService creates a new forgery analysis service. events may be nil.
func NewForgeryAnalysisService(
	imageRepository repository.ImageRepository,
	p *pipeline.Pipeline,
	events observer.Subject,
) ForgeryAnalysisService {
	return &forgeryAnalysisService{
		imageRepo: imageRepository,
		pipeline:  p,
		events:    events,
	}
}

// AnalyzeURL fetches the image behind request.URL and runs the pipeline on it
func (s *forgeryAnalysisService) AnalyzeURL(ctx context.Context, request models.AnalysisRequest) (*models.AnalysisResponse, error) {
	opts, err := s.options(request.Profiles, request.Detectors)
	if err != nil {
		return nil, err
	}

	if err := s.ValidateImageURL(request.URL); err != nil {
		return nil, toValidationError(err)
	}

	data, err := s.fetch(ctx, request.URL)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, request.URL, data, opts)
}

// AnalyzeUpload runs the pipeline on bytes the caller already holds
func (s *forgeryAnalysisService) AnalyzeUpload(ctx context.Context, name string, data []byte, profiles, detectors []string) (*models.AnalysisResponse, error) {
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("uploaded image is empty", nil)
	}
	opts, err := s.options(profiles, detectors)
	if err != nil {
		return nil, err
	}
	return s.analyze(ctx, name, data, opts)
}

// Config reports the weights, thresholds and detectors in effect
func (s *forgeryAnalysisService) Config() models.ConfigResponse {
	resp := models.ConfigResponse{
		Weights:    make(map[string]float64),
		Thresholds: make(map[string]float64),
	}
	for name, w := range s.pipeline.Aggregator().Weights() {
		resp.Weights[string(name)] = w
	}
	for p, t := range s.pipeline.Classifier().Thresholds() {
		resp.Thresholds[string(p)] = t
	}
	for _, name := range s.pipeline.Detectors().Names() {
		resp.Detectors = append(resp.Detectors, string(name))
	}
	return resp
}

// ValidateImageURL validates the image URL
func (s *forgeryAnalysisService) ValidateImageURL(imageURL string) error {
	return s.imageRepo.ValidateImageURL(imageURL)
}

func (s *forgeryAnalysisService) options(profiles, detectors []string) (pipeline.AnalysisOptions, error) {
	opts := pipeline.DefaultOptions()

	if len(profiles) > 0 {
		parsed, err := classifier.ParseProfiles(strings.Join(profiles, ","), s.pipeline.Classifier().Profiles())
		if err != nil {
			return opts, apperrors.NewValidationError("invalid profiles", err)
		}
		opts = opts.WithProfiles(parsed...)
	}

	if len(detectors) > 0 {
		criteria, err := pipeline.ParseCriteria(strings.Join(detectors, ","))
		if err != nil {
			return opts, apperrors.NewValidationError("invalid detectors", err)
		}
		opts = opts.WithCriteria(criteria...)
	}
	return opts, nil
}

func (s *forgeryAnalysisService) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	start := time.Now()
	data, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		fetchErr := classifyFetchError(err)
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.ImageFetchFailed,
			Source:         imageURL,
			ProcessingTime: time.Since(start),
			ErrorMessage:   fetchErr.Error(),
		})
		return nil, fetchErr
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageFetched,
		Source:         imageURL,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"bytes": len(data)},
	})
	return data, nil
}

func (s *forgeryAnalysisService) analyze(ctx context.Context, source string, data []byte, opts pipeline.AnalysisOptions) (*models.AnalysisResponse, error) {
	outcome, err := s.pipeline.Analyze(ctx, source, data, opts)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"analysis_id": outcome.ID,
		"source":      source,
		"format":      outcome.Format,
		"final_score": outcome.FinalScore,
	}).Debug("Forgery analysis finished")

	return toResponse(outcome, time.Now()), nil
}

func (s *forgeryAnalysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.events == nil {
		return
	}
	s.events.NotifyObservers(ctx, event)
}

// classifyFetchError maps storage failures onto application error types
func classifyFetchError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, context.DeadlineExceeded):
		return apperrors.NewTimeoutError("image fetch timeout", err)
	case stderrors.Is(err, storage.ErrImageTooLarge):
		return apperrors.NewValidationError("image exceeds size limit", err)
	case stderrors.Is(err, repository.ErrInvalidImageURL), stderrors.Is(err, repository.ErrUnsupportedScheme):
		return apperrors.NewValidationError("invalid image URL", err)
	default:
		return apperrors.NewNetworkError("failed to fetch image", err)
	}
}

func toValidationError(err error) error {
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return apperrors.NewValidationError("invalid image URL", err)
}

func toResponse(o *pipeline.Outcome, now time.Time) *models.AnalysisResponse {
	resp := &models.AnalysisResponse{
		ID:                o.ID,
		Source:            o.Source,
		Timestamp:         now.UTC().Format(time.RFC3339),
		ProcessingTimeSec: o.Duration.Seconds(),
		Format:            string(o.Format),
		FinalScore:        o.FinalScore,
		Detectors:         make(map[string]models.DetectorScore, len(o.Results)),
		Classifications:   make(map[string]string, len(o.Classifications)),
		ForgedProfiles:    o.ForgedProfiles(),
	}
	for name, r := range o.Results {
		resp.Detectors[string(name)] = models.DetectorScore{
			Score:     r.Score,
			Defaulted: r.Defaulted,
			Reason:    string(r.Reason),
		}
	}
	for p, c := range o.Classifications {
		resp.Classifications[string(p)] = string(c)
	}
	if resp.ForgedProfiles == nil {
		resp.ForgedProfiles = []string{}
	}
	return resp
}
