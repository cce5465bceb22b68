package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
)

// FileFetcher reads images from the local file system. It accepts plain
// paths and file:// URLs.
type FileFetcher struct {
	maxBytes int64
}

func NewFileFetcher(maxBytes int64) *FileFetcher {
	return &FileFetcher{maxBytes: maxBytes}
}

func (f *FileFetcher) FetchImage(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := location
	if u, err := url.Parse(location); err == nil && u.Scheme == "file" {
		path = u.Path
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	return readLimited(file, f.maxBytes)
}
