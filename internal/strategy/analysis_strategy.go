package strategy

import (
	"context"
	"fmt"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/validation"
)

// ClassificationStrategy defines how a raster is turned into a label
type ClassificationStrategy interface {
	Classify(ctx context.Context, raster *analyzer.Raster) (analyzer.ClassificationResult, error)
	GetStrategyName() string
}

// HeuristicStrategy uses the rule table only and never calls the oracle
type HeuristicStrategy struct {
	classifier analyzer.Classifier
}

// NewHeuristicStrategy creates a new heuristic strategy
func NewHeuristicStrategy(classifier analyzer.Classifier) ClassificationStrategy {
	return &HeuristicStrategy{
		classifier: classifier,
	}
}

// Classify performs heuristic-only classification
func (s *HeuristicStrategy) Classify(ctx context.Context, raster *analyzer.Raster) (analyzer.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return analyzer.ClassificationResult{}, err
	}
	return s.classifier.ClassifyHeuristic(raster)
}

// GetStrategyName returns the strategy name
func (s *HeuristicStrategy) GetStrategyName() string {
	return validation.ModeHeuristic
}

// BlendedStrategy consults the configured oracle and blends its answer in.
// Without an oracle it behaves like HeuristicStrategy.
type BlendedStrategy struct {
	classifier analyzer.Classifier
}

// NewBlendedStrategy creates a new blended strategy
func NewBlendedStrategy(classifier analyzer.Classifier) ClassificationStrategy {
	return &BlendedStrategy{
		classifier: classifier,
	}
}

// Classify performs oracle-assisted classification
func (s *BlendedStrategy) Classify(ctx context.Context, raster *analyzer.Raster) (analyzer.ClassificationResult, error) {
	return s.classifier.Classify(ctx, raster)
}

// GetStrategyName returns the strategy name
func (s *BlendedStrategy) GetStrategyName() string {
	return validation.ModeBlended
}

// Selector picks a strategy by mode name
type Selector struct {
	strategies map[string]ClassificationStrategy
}

// NewSelector registers the heuristic and blended strategies for classifier
func NewSelector(classifier analyzer.Classifier) *Selector {
	return &Selector{
		strategies: map[string]ClassificationStrategy{
			validation.ModeHeuristic: NewHeuristicStrategy(classifier),
			validation.ModeBlended:   NewBlendedStrategy(classifier),
		},
	}
}

// ForMode normalizes mode and returns its strategy
func (s *Selector) ForMode(mode string) (ClassificationStrategy, error) {
	name, err := validation.NormalizeMode(mode)
	if err != nil {
		return nil, err
	}
	strategy, ok := s.strategies[name]
	if !ok {
		return nil, fmt.Errorf("no strategy registered for mode %q", name)
	}
	return strategy, nil
}
