package analyzer

import (
	"fmt"
	"time"

	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

// Thresholds holds every numeric constant of the feature extractor and the
// rule table. The defaults are the values the classifier ships with; a
// deployment may overlay them from a thresholds file at start-up.
type Thresholds struct {
	// Sampling
	SampleStride int   `yaml:"sample_stride"`
	AlphaCutoff  uint8 `yaml:"alpha_cutoff"`

	// Fine pass
	EdgeContrast  float64 `yaml:"edge_contrast"`
	GridContrast  float64 `yaml:"grid_contrast"`
	GridRunRadius int     `yaml:"grid_run_radius"`

	// Coarse pass
	GridScanStep int     `yaml:"grid_scan_step"`
	BandContrast float64 `yaml:"band_contrast"`
	BandCoverage float64 `yaml:"band_coverage"`
	MinBands     int     `yaml:"min_bands"`

	// Rule table
	GridRatio         float64 `yaml:"grid_ratio"`
	EdgeRatio         float64 `yaml:"edge_ratio"`
	SmoothRatio       float64 `yaml:"smooth_ratio"`
	CircularTolerance float64 `yaml:"circular_tolerance"`
	WideAspect        float64 `yaml:"wide_aspect"`
	TallAspect        float64 `yaml:"tall_aspect"`
	ColorVariation    float64 `yaml:"color_variation"`

	// Output
	MinConfidence float64 `yaml:"min_confidence"`
	MaxConfidence float64 `yaml:"max_confidence"`
	OracleWeight  float64 `yaml:"oracle_weight"`
}

// DefaultThresholds returns the shipped constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SampleStride:      10,
		AlphaCutoff:       128,
		EdgeContrast:      30,
		GridContrast:      20,
		GridRunRadius:     2,
		GridScanStep:      20,
		BandContrast:      50,
		BandCoverage:      0.10,
		MinBands:          3,
		GridRatio:         0.05,
		EdgeRatio:         0.15,
		SmoothRatio:       0.6,
		CircularTolerance: 0.3,
		WideAspect:        1.3,
		TallAspect:        0.7,
		ColorVariation:    50,
		MinConfidence:     0.3,
		MaxConfidence:     0.95,
		OracleWeight:      0.7,
	}
}

// Validate rejects thresholds the extractor cannot run with.
func (t Thresholds) Validate() error {
	switch {
	case t.SampleStride < 1:
		return fmt.Errorf("sample_stride must be >= 1 (got %d)", t.SampleStride)
	case t.GridRunRadius < 1:
		return fmt.Errorf("grid_run_radius must be >= 1 (got %d)", t.GridRunRadius)
	case t.GridScanStep < 1:
		return fmt.Errorf("grid_scan_step must be >= 1 (got %d)", t.GridScanStep)
	case t.MinConfidence < 0 || t.MaxConfidence > 1 || t.MinConfidence > t.MaxConfidence:
		return fmt.Errorf("confidence bounds must satisfy 0 <= min <= max <= 1 (got %.2f..%.2f)", t.MinConfidence, t.MaxConfidence)
	case t.OracleWeight < 0 || t.OracleWeight > 1:
		return fmt.Errorf("oracle_weight must be within [0,1] (got %.2f)", t.OracleWeight)
	case t.TallAspect >= t.WideAspect:
		return fmt.Errorf("tall_aspect must be below wide_aspect (got %.2f >= %.2f)", t.TallAspect, t.WideAspect)
	}
	return nil
}

// Applied reports the thresholds in the shape the detailed response uses.
func (t Thresholds) Applied(oracleTimeout time.Duration) models.AppliedThresholds {
	return models.AppliedThresholds{
		SampleStride:        t.SampleStride,
		AlphaCutoff:         int(t.AlphaCutoff),
		EdgeContrast:        t.EdgeContrast,
		GridContrast:        t.GridContrast,
		GridScanStep:        t.GridScanStep,
		BandContrast:        t.BandContrast,
		BandCoverage:        t.BandCoverage,
		MinBands:            t.MinBands,
		GridRatio:           t.GridRatio,
		EdgeRatio:           t.EdgeRatio,
		SmoothRatio:         t.SmoothRatio,
		CircularTolerance:   t.CircularTolerance,
		WideAspect:          t.WideAspect,
		TallAspect:          t.TallAspect,
		ColorVariation:      t.ColorVariation,
		MinConfidence:       t.MinConfidence,
		MaxConfidence:       t.MaxConfidence,
		OracleWeight:        t.OracleWeight,
		OracleTimeoutMillis: oracleTimeout.Milliseconds(),
	}
}

// Options configures a Classifier
type Options struct {
	Thresholds    Thresholds
	OracleTimeout time.Duration
	MaxWorkers    int

	Oracle Oracle
	Random RandomSource

	// OnOracleFallback is called whenever an oracle answer is discarded
	OnOracleFallback func(oracleName string, err error)
}

// DefaultOptions returns heuristic-only options with the shipped thresholds.
func DefaultOptions() Options {
	return Options{
		Thresholds:    DefaultThresholds(),
		OracleTimeout: 3 * time.Second,
		MaxWorkers:    0, // Use default CPU count
	}
}

// WithThresholds replaces the thresholds
func (opts Options) WithThresholds(t Thresholds) Options {
	opts.Thresholds = t
	return opts
}

// WithOracle enables blending with an external oracle bounded by timeout.
func (opts Options) WithOracle(o Oracle, timeout time.Duration) Options {
	opts.Oracle = o
	if timeout > 0 {
		opts.OracleTimeout = timeout
	}
	return opts
}

// WithRandom injects the jitter source
func (opts Options) WithRandom(r RandomSource) Options {
	opts.Random = r
	return opts
}

// WithMaxWorkers bounds the batch worker pool
func (opts Options) WithMaxWorkers(n int) Options {
	opts.MaxWorkers = n
	return opts
}

// WithFallbackHook registers a callback for discarded oracle answers
func (opts Options) WithFallbackHook(hook func(oracleName string, err error)) Options {
	opts.OnOracleFallback = hook
	return opts
}
