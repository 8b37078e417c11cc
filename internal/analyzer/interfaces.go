package analyzer

import (
	"context"

	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

// Classifier defines the main interface for pancake/waffle classification
type Classifier interface {
	// Classify runs the heuristic and, when an oracle is configured, blends
	// its answer in. A slow or failing oracle never fails the call.
	Classify(ctx context.Context, raster *Raster) (ClassificationResult, error)

	// ClassifyHeuristic runs the feature extractor and rule engine only
	ClassifyHeuristic(raster *Raster) (ClassificationResult, error)

	// ClassifyBatch classifies rasters concurrently on the worker pool.
	// A nil classify means Classify.
	ClassifyBatch(ctx context.Context, rasters []*Raster, classify ClassifyFunc) []BatchResult

	// Trace reports how each rule evaluated against a feature vector
	Trace(features FeatureVector) []models.RuleCheck

	Thresholds() Thresholds

	// Lifecycle management
	Close() error
}

// ClassifyFunc classifies one raster; strategies and Classify both fit
type ClassifyFunc func(ctx context.Context, raster *Raster) (ClassificationResult, error)

// FeatureExtractor measures a raster
type FeatureExtractor interface {
	Extract(raster *Raster) (FeatureVector, error)
}

// RuleEngine maps a feature vector to a labelled result
type RuleEngine interface {
	Apply(features FeatureVector) ClassificationResult
	Trace(features FeatureVector) []models.RuleCheck
}

// Blender merges oracle labels into a heuristic result
type Blender interface {
	Blend(heuristic ClassificationResult, labels []models.OracleLabel) ClassificationResult
}

// Oracle is an external labelling service. Implementations must honour ctx.
type Oracle interface {
	Name() string
	Classify(ctx context.Context, raster *Raster) ([]models.OracleLabel, error)
}

// MetricsCalculator handles colour diagnostics
type MetricsCalculator interface {
	Calculate(raster *Raster) models.ImageDiagnostics
}
