package container

import (
	"fmt"
	"net/http"

	"github.com/anime-shed/forgery-inspector-go/internal/aggregator"
	"github.com/anime-shed/forgery-inspector-go/internal/classifier"
	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/factory"
	"github.com/anime-shed/forgery-inspector-go/internal/logger"
	"github.com/anime-shed/forgery-inspector-go/internal/observer"
	"github.com/anime-shed/forgery-inspector-go/internal/pipeline"
	"github.com/anime-shed/forgery-inspector-go/internal/repository"
	"github.com/anime-shed/forgery-inspector-go/internal/service"
	"github.com/anime-shed/forgery-inspector-go/internal/storage"
	"github.com/anime-shed/forgery-inspector-go/internal/transport"
	"github.com/anime-shed/forgery-inspector-go/pkg/validation"
)

// Core is the analysis engine shared by the HTTP server and the evaluation CLI
type Core struct {
	Settings config.Settings
	Factory  *factory.ComponentFactory
	Pipeline *pipeline.Pipeline
}

// NewCore loads the detector settings document and builds the pipeline over it
func NewCore(cfg *config.Config, events observer.Subject) (*Core, error) {
	doc, err := config.LoadDocument(cfg.ForensicsConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load forensics config: %w", err)
	}
	settings := config.SettingsFromDocument(doc)

	components := factory.NewComponentFactory(cfg, settings)
	detectors, err := components.DetectorFactory.CreateSet()
	if err != nil {
		return nil, fmt.Errorf("failed to create detectors: %w", err)
	}

	p := pipeline.New(
		detectors,
		aggregator.New(settings.Aggregator.Weights),
		classifier.New(settings.Classifier.Thresholds),
		settings.Pipeline,
		events,
	)
	return &Core{Settings: settings, Factory: components, Pipeline: p}, nil
}

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	core            *Core
	events          *observer.EventPublisher
	metrics         *observer.MetricsObserver
	imageRepository repository.ImageRepository
	analysisService service.ForgeryAnalysisService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	events := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	core, err := NewCore(cfg, events)
	if err != nil {
		return nil, err
	}

	// Build dependency graph
	fetchers, validator, err := buildFetchers(cfg, core.Factory.StorageFactory)
	if err != nil {
		return nil, err
	}

	imageRepository := repository.NewImageRepository(validator, fetchers)
	analysisService := service.NewForgeryAnalysisService(imageRepository, core.Pipeline, events)
	handler := transport.NewHandler(analysisService, metrics, cfg)

	logger.WithField("detectors", core.Pipeline.Detectors().Names()).Info("Forgery pipeline ready")

	return &Container{
		config:          cfg,
		core:            core,
		events:          events,
		metrics:         metrics,
		imageRepository: imageRepository,
		analysisService: analysisService,
		handler:         handler,
	}, nil
}

// buildFetchers registers HTTP fetching, plus blob fetching when Azure credentials are set
func buildFetchers(cfg *config.Config, storageFactory factory.StorageFactory) (map[string]storage.ImageFetcher, *validation.URLValidator, error) {
	httpFetcher, err := storageFactory.CreateStorage(factory.HTTPStorage)
	if err != nil {
		return nil, nil, err
	}
	fetchers := map[string]storage.ImageFetcher{
		"http":  httpFetcher,
		"https": httpFetcher,
	}
	validator := validation.NewURLValidator()

	if cfg.AzureEnabled() {
		blobFetcher, err := storageFactory.CreateStorage(factory.AzureStorage)
		if err != nil {
			return nil, nil, err
		}
		fetchers[storage.AzureScheme] = blobFetcher
		validator.AllowScheme(storage.AzureScheme)
	}
	return fetchers, validator, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Metrics returns the metrics observer fed by every pipeline run
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Service returns the forgery analysis service
func (c *Container) Service() service.ForgeryAnalysisService {
	return c.analysisService
}

// Core returns the shared analysis engine
func (c *Container) Core() *Core {
	return c.core
}
