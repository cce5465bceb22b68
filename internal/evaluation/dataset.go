// Package evaluation measures pipeline accuracy against labeled image sets.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/forgery-inspector-go/internal/classifier"
	"github.com/anime-shed/forgery-inspector-go/internal/logger"
	"github.com/anime-shed/forgery-inspector-go/internal/storage"
)

// SupportedExtensions are the file suffixes picked up from dataset directories.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff"}

// Sample is one labeled image. Label is the ground truth verdict.
type Sample struct {
	Path  string
	Data  []byte
	Label classifier.Classification
}

// LoadLabeled reads every supported image directly inside forgedDir and
// authenticDir. A missing directory is logged and contributes nothing.
func LoadLabeled(ctx context.Context, fetcher storage.ImageFetcher, forgedDir, authenticDir string) ([]Sample, error) {
	forged, err := loadDir(ctx, fetcher, forgedDir, classifier.Forged)
	if err != nil {
		return nil, err
	}
	authentic, err := loadDir(ctx, fetcher, authenticDir, classifier.Authentic)
	if err != nil {
		return nil, err
	}
	return append(forged, authentic...), nil
}

func loadDir(ctx context.Context, fetcher storage.ImageFetcher, dir string, label classifier.Classification) ([]Sample, error) {
	log := logger.WithFields(logrus.Fields{"dir": dir, "label": label})

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("Dataset directory does not exist")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var samples []Sample
	for _, entry := range entries {
		if entry.IsDir() || !Supported(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := fetcher.FetchImage(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		samples = append(samples, Sample{Path: path, Data: data, Label: label})
	}

	log.WithField("count", len(samples)).Debug("Loaded labeled images")
	return samples, nil
}

// Supported reports whether name carries one of SupportedExtensions, ignoring case.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}
