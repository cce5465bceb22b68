package factory

import (
	"fmt"

	"github.com/anime-shed/forgery-inspector-go/internal/config"
	"github.com/anime-shed/forgery-inspector-go/internal/detector"
	"github.com/anime-shed/forgery-inspector-go/internal/storage"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// DetectorFactory creates forensic detectors from settings
type DetectorFactory interface {
	CreateDetector(name detector.Name) (detector.Detector, error)
	CreateSet(names ...detector.Name) (detector.Set, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// detectorFactory implements DetectorFactory
type detectorFactory struct {
	settings config.Settings
}

// NewDetectorFactory creates a detector factory bound to one settings snapshot
func NewDetectorFactory(settings config.Settings) DetectorFactory {
	return &detectorFactory{settings: settings}
}

// CreateDetector creates a detector based on the specified name
func (f *detectorFactory) CreateDetector(name detector.Name) (detector.Detector, error) {
	switch name {
	case detector.Metadata:
		return detector.NewMetadataDetector(f.settings.Metadata), nil
	case detector.ReverseSearch:
		return detector.NewReverseSearchDetector(f.settings.ReverseSearch), nil
	case detector.ELA:
		return detector.NewErrorLevelDetector(f.settings.ELA), nil
	case detector.Statistical:
		return detector.NewStatisticalDetector(f.settings.Statistical), nil
	case detector.CopyMove:
		return detector.NewCopyMoveDetector(f.settings.CopyMove), nil
	case detector.NoiseVariance:
		return detector.NewNoiseVarianceDetector(f.settings.NoiseVariance), nil
	default:
		return nil, fmt.Errorf("unsupported detector: %s", name)
	}
}

// CreateSet creates the named detectors, or the full vocabulary when none are given
func (f *detectorFactory) CreateSet(names ...detector.Name) (detector.Set, error) {
	if len(names) == 0 {
		names = detector.AllNames
	}
	set := make(detector.Set, len(names))
	for _, name := range names {
		d, err := f.CreateDetector(name)
		if err != nil {
			return nil, err
		}
		set[name] = d
	}
	return set, nil
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, f.cfg.MaxRequestBodySize), nil
	case AzureStorage:
		if !f.cfg.AzureEnabled() {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		fetcher, err := storage.NewAzureBlobFetcher(f.cfg.AzureAccountName, f.cfg.AzureAccountKey, f.cfg.MaxRequestBodySize)
		if err != nil {
			return nil, err
		}
		return fetcher, nil
	case LocalStorage:
		return storage.NewFileFetcher(f.cfg.MaxRequestBodySize), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	DetectorFactory DetectorFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config, settings config.Settings) *ComponentFactory {
	return &ComponentFactory{
		DetectorFactory: NewDetectorFactory(settings),
		StorageFactory:  NewStorageFactory(cfg),
	}
}
