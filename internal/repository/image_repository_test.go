package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/anime-shed/pancake-waffle-classifier/internal/storage"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/validation"
)

type recordingFetcher struct {
	calls int
}

func (f *recordingFetcher) FetchImage(context.Context, string) (*storage.DecodedImage, error) {
	f.calls++
	return &storage.DecodedImage{Format: "png"}, nil
}

func TestHTTPImageRepository(t *testing.T) {
	fetcher := &recordingFetcher{}
	repo := NewHTTPImageRepository(fetcher, validation.NewURLValidator())

	if _, err := repo.FetchImage(context.Background(), "https://example.com/waffle.png"); err != nil {
		t.Fatalf("FetchImage failed: %v", err)
	}

	_, err := repo.FetchImage(context.Background(), "http://127.0.0.1/waffle.png")
	if !errors.Is(err, ErrInvalidImageURL) {
		t.Errorf("Expected ErrInvalidImageURL, got %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("Expected rejected URLs not to be fetched, got %d calls", fetcher.calls)
	}
}
