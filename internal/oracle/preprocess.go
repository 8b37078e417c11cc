package oracle

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
)

// ocrContrast is the relative contrast boost applied before recognition
const ocrContrast = 0.4

// preprocessForOCR converts the raster to a high-contrast greyscale PNG
func preprocessForOCR(raster *analyzer.Raster) ([]byte, error) {
	if err := raster.Validate(); err != nil {
		return nil, err
	}
	gray := effect.Grayscale(raster.Image())
	boosted := adjust.Contrast(gray, ocrContrast)

	var buf bytes.Buffer
	if err := png.Encode(&buf, boosted); err != nil {
		return nil, fmt.Errorf("encoding OCR input: %w", err)
	}
	return buf.Bytes(), nil
}
