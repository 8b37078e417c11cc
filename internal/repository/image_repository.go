package repository

import (
	"context"
	"fmt"

	"github.com/anime-shed/pancake-waffle-classifier/internal/storage"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/validation"
)

// HTTPImageRepository implements ImageRepository using HTTP storage
type HTTPImageRepository struct {
	fetcher   storage.ImageFetcher
	validator *validation.URLValidator
}

// NewHTTPImageRepository creates a new HTTP-based image repository
func NewHTTPImageRepository(fetcher storage.ImageFetcher, validator *validation.URLValidator) ImageRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &HTTPImageRepository{
		fetcher:   fetcher,
		validator: validator,
	}
}

// FetchImage validates the URL and then retrieves the image
func (r *HTTPImageRepository) FetchImage(ctx context.Context, imageURL string) (*storage.DecodedImage, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}
	return r.fetcher.FetchImage(ctx, imageURL)
}

// ValidateImageURL validates if the provided URL is acceptable
func (r *HTTPImageRepository) ValidateImageURL(imageURL string) error {
	if err := r.validator.ValidateImageURL(imageURL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImageURL, err)
	}
	return nil
}
