package repository

import (
	"context"

	"github.com/anime-shed/pancake-waffle-classifier/internal/storage"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

// ImageRepository defines access to remote images
type ImageRepository interface {
	// FetchImage retrieves and decodes an image from a URL
	FetchImage(ctx context.Context, imageURL string) (*storage.DecodedImage, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// SampleRepository defines access to the bundled sample catalogue
type SampleRepository interface {
	// List returns the catalogue in a stable order
	List() []models.Sample

	// Get looks a sample up by name
	Get(name string) (models.Sample, error)

	// Load fetches and decodes a sample image from the configured store
	Load(ctx context.Context, name string) (models.Sample, *storage.DecodedImage, error)
}
