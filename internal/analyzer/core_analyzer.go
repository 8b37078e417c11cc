package analyzer

import (
	"context"
	"fmt"

	"github.com/anime-shed/pancake-waffle-classifier/internal/logger"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
	"github.com/sirupsen/logrus"
)

// coreClassifier implements Classifier and wires the extractor, rule engine,
// blender and optional oracle into one pipeline
type coreClassifier struct {
	options    Options
	workerPool *WorkerPool
	extractor  FeatureExtractor
	rules      RuleEngine
	blender    Blender
}

type oracleAnswer struct {
	labels []models.OracleLabel
	err    error
}

// NewClassifier creates a classifier. Options.Oracle may be nil, in which
// case every call is heuristic-only.
func NewClassifier(options Options) (Classifier, error) {
	if err := options.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	if options.Oracle != nil && options.OracleTimeout <= 0 {
		return nil, fmt.Errorf("oracle timeout must be positive, got %s", options.OracleTimeout)
	}

	workerPool := NewWorkerPool(options.MaxWorkers)
	workerPool.Start()

	return &coreClassifier{
		options:    options,
		workerPool: workerPool,
		extractor:  NewFeatureExtractor(options.Thresholds),
		rules:      NewRuleEngine(options.Thresholds, options.Random),
		blender:    NewBlender(options.Thresholds),
	}, nil
}

// ClassifyHeuristic extracts features and applies the rule table
func (cc *coreClassifier) ClassifyHeuristic(raster *Raster) (ClassificationResult, error) {
	features, err := cc.extractor.Extract(raster)
	if err != nil {
		return ClassificationResult{}, err
	}
	result := cc.rules.Apply(features)
	result.OracleStatus = models.OracleDisabled
	return result, nil
}

// Classify starts the oracle first so it overlaps with feature extraction,
// then waits for it no longer than the oracle timeout.
func (cc *coreClassifier) Classify(ctx context.Context, raster *Raster) (ClassificationResult, error) {
	if err := raster.Validate(); err != nil {
		return ClassificationResult{}, err
	}

	oracle := cc.options.Oracle
	if oracle == nil {
		return cc.ClassifyHeuristic(raster)
	}

	oracleCtx, cancel := context.WithTimeout(ctx, cc.options.OracleTimeout)
	defer cancel()

	answers := make(chan oracleAnswer, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				answers <- oracleAnswer{err: fmt.Errorf("oracle panicked: %v", r)}
			}
		}()
		labels, err := oracle.Classify(oracleCtx, raster)
		answers <- oracleAnswer{labels: labels, err: err}
	}()

	heuristic, err := cc.ClassifyHeuristic(raster)
	if err != nil {
		return ClassificationResult{}, err
	}

	var answer oracleAnswer
	select {
	case answer = <-answers:
	case <-oracleCtx.Done():
		answer.err = oracleCtx.Err()
	}

	if answer.err != nil {
		cc.fallback(oracle.Name(), answer.err)
		heuristic.OracleStatus = models.OracleFallback
		return heuristic, nil
	}

	result := cc.blender.Blend(heuristic, answer.labels)
	if len(answer.labels) == 0 {
		result.OracleStatus = models.OracleNoMatch
	}
	return result, nil
}

func (cc *coreClassifier) fallback(name string, err error) {
	logger.WithFields(logrus.Fields{
		"oracle":  name,
		"timeout": cc.options.OracleTimeout.String(),
	}).WithError(err).Warn("Oracle unavailable, using heuristic result")

	if cc.options.OnOracleFallback != nil {
		cc.options.OnOracleFallback(name, err)
	}
}

// ClassifyBatch classifies each raster on the worker pool with classify, or
// with Classify when classify is nil. Results keep the input order; a
// cancelled ctx marks the remaining rasters with ctx.Err() and a closed
// classifier marks them with ErrPoolClosed.
func (cc *coreClassifier) ClassifyBatch(ctx context.Context, rasters []*Raster, classify ClassifyFunc) []BatchResult {
	if classify == nil {
		classify = cc.Classify
	}
	results := make([]BatchResult, len(rasters))
	done := make(chan struct{}, len(rasters))

	for i, raster := range rasters {
		results[i].Index = i
		err := cc.workerPool.Submit(func() {
			defer func() { done <- struct{}{} }()
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			results[i].Result, results[i].Err = classify(ctx, raster)
		})
		if err != nil {
			results[i].Err = err
			done <- struct{}{}
		}
	}

	for range rasters {
		<-done
	}
	return results
}

// Trace reports how each rule evaluated against features
func (cc *coreClassifier) Trace(features FeatureVector) []models.RuleCheck {
	return cc.rules.Trace(features)
}

func (cc *coreClassifier) Thresholds() Thresholds {
	return cc.options.Thresholds
}

// Close releases resources used by the classifier
func (cc *coreClassifier) Close() error {
	if cc.workerPool != nil {
		cc.workerPool.Close()
	}
	return nil
}
