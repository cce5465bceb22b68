package repository

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/anime-shed/forgery-inspector-go/internal/logger"
	"github.com/anime-shed/forgery-inspector-go/internal/storage"
)

// StorageImageRepository routes each URL to the fetcher registered for its scheme
type StorageImageRepository struct {
	validator URLValidator
	fetchers  map[string]storage.ImageFetcher
}

// NewImageRepository creates a repository over scheme-keyed fetchers.
// A nil validator accepts any URL a fetcher is registered for.
func NewImageRepository(validator URLValidator, fetchers map[string]storage.ImageFetcher) ImageRepository {
	byScheme := make(map[string]storage.ImageFetcher, len(fetchers))
	for scheme, f := range fetchers {
		byScheme[strings.ToLower(scheme)] = f
	}
	return &StorageImageRepository{
		validator: validator,
		fetchers:  byScheme,
	}
}

// FetchImage validates the URL and downloads it through the matching backend
func (r *StorageImageRepository) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}

	fetcher, err := r.fetcherFor(imageURL)
	if err != nil {
		return nil, err
	}

	logger.WithField("url", imageURL).Debug("Fetching image")
	return fetcher.FetchImage(ctx, imageURL)
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *StorageImageRepository) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return ErrInvalidImageURL
	}
	if r.validator != nil {
		if err := r.validator.ValidateImageURL(imageURL); err != nil {
			return err
		}
	}
	_, err := r.fetcherFor(imageURL)
	return err
}

func (r *StorageImageRepository) fetcherFor(imageURL string) (storage.ImageFetcher, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImageURL, err)
	}
	fetcher, ok := r.fetchers[strings.ToLower(parsed.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, parsed.Scheme)
	}
	return fetcher, nil
}
