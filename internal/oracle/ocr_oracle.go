//go:build cgo

package oracle

import (
	"context"
	"fmt"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
	"github.com/otiai10/gosseract/v2"
)

// OCRAvailable reports whether this build links Tesseract
const OCRAvailable = true

// OCROracle reads text printed on the image (menus, packaging, captions)
// and reports food keywords it recognises.
type OCROracle struct {
	language string
}

// NewOCROracle creates an OCR oracle for the Tesseract language code
func NewOCROracle(language string) *OCROracle {
	if language == "" {
		language = "eng"
	}
	return &OCROracle{language: language}
}

func (o *OCROracle) Name() string {
	return "ocr"
}

// Classify runs Tesseract in its own goroutine; Tesseract cannot be
// interrupted, so a cancelled ctx abandons the result.
func (o *OCROracle) Classify(ctx context.Context, raster *analyzer.Raster) ([]models.OracleLabel, error) {
	data, err := preprocessForOCR(raster)
	if err != nil {
		return nil, err
	}

	type outcome struct {
		words []recognizedWord
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		words, err := o.recognize(data)
		done <- outcome{words: words, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		return wordLabels(out.words), nil
	}
}

func (o *OCROracle) recognize(data []byte) ([]recognizedWord, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(o.language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	words := make([]recognizedWord, 0, len(boxes))
	for _, box := range boxes {
		words = append(words, recognizedWord{
			text:       box.Word,
			confidence: float64(box.Confidence) / 100.0,
		})
	}
	return words, nil
}

var _ analyzer.Oracle = (*OCROracle)(nil)
