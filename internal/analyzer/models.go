package analyzer

import (
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

// ClassificationResult and FeatureVector are aliases to the shared models so
// callers outside the analyzer do not need both imports.
type (
	ClassificationResult = models.ClassificationResult
	FeatureVector        = models.FeatureVector
)

// BatchResult is the outcome for one raster of a batch
type BatchResult struct {
	Index  int
	Result ClassificationResult
	Err    error
}

// channelStats holds per-channel samples collected for diagnostics
type channelStats struct {
	r, g, b    []float64
	saturation []float64
	luminance  []float64
}
