package repository

import "errors"

var (
	// ErrInvalidImageURL indicates an invalid image URL
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrSampleNotFound indicates a sample name outside the catalogue
	ErrSampleNotFound = errors.New("sample not found")

	// ErrSampleUnavailable indicates a catalogued sample the store cannot serve
	ErrSampleUnavailable = errors.New("sample unavailable")
)
