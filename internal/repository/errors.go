package repository

import "errors"

var (
	// ErrInvalidImageURL indicates an invalid image URL
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrUnsupportedScheme indicates no storage backend serves the URL scheme
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)
