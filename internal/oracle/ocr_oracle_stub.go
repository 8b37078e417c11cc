//go:build !cgo

package oracle

import (
	"context"
	"fmt"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

// OCRAvailable reports whether this build links Tesseract
const OCRAvailable = false

// OCROracle is a placeholder in builds without cgo; every call falls back.
type OCROracle struct {
	language string
}

func NewOCROracle(language string) *OCROracle {
	return &OCROracle{language: language}
}

func (o *OCROracle) Name() string {
	return "ocr"
}

func (o *OCROracle) Classify(context.Context, *analyzer.Raster) ([]models.OracleLabel, error) {
	return nil, fmt.Errorf("%w: built without cgo, tesseract not linked", ErrOracleUnavailable)
}

var _ analyzer.Oracle = (*OCROracle)(nil)
