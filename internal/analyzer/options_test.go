package analyzer

import (
	"testing"
	"time"
)

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()

	if th.SampleStride != 10 {
		t.Errorf("Expected SampleStride 10, got %d", th.SampleStride)
	}
	if th.AlphaCutoff != 128 {
		t.Errorf("Expected AlphaCutoff 128, got %d", th.AlphaCutoff)
	}
	if th.EdgeRatio != 0.15 {
		t.Errorf("Expected EdgeRatio 0.15, got %f", th.EdgeRatio)
	}
	if th.MinConfidence != 0.3 || th.MaxConfidence != 0.95 {
		t.Errorf("Expected confidence bounds [0.3,0.95], got [%f,%f]", th.MinConfidence, th.MaxConfidence)
	}
	if err := th.Validate(); err != nil {
		t.Errorf("Expected default thresholds to validate, got %v", err)
	}
}

func TestThresholdsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Thresholds)
	}{
		{"zero stride", func(th *Thresholds) { th.SampleStride = 0 }},
		{"zero run radius", func(th *Thresholds) { th.GridRunRadius = 0 }},
		{"zero scan step", func(th *Thresholds) { th.GridScanStep = 0 }},
		{"inverted confidence", func(th *Thresholds) { th.MinConfidence = 0.9; th.MaxConfidence = 0.5 }},
		{"confidence above one", func(th *Thresholds) { th.MaxConfidence = 1.5 }},
		{"weight above one", func(th *Thresholds) { th.OracleWeight = 1.2 }},
		{"aspect bands crossed", func(th *Thresholds) { th.TallAspect = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.modify(&th)
			if err := th.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestOptionsBuilders(t *testing.T) {
	th := DefaultThresholds()
	th.EdgeRatio = 0.1

	called := false
	opts := DefaultOptions().
		WithThresholds(th).
		WithOracle(&stubOracle{}, 500*time.Millisecond).
		WithRandom(FixedRandom(0.25)).
		WithMaxWorkers(3).
		WithFallbackHook(func(string, error) { called = true })

	if opts.Thresholds.EdgeRatio != 0.1 {
		t.Errorf("Expected EdgeRatio 0.1, got %f", opts.Thresholds.EdgeRatio)
	}
	if opts.OracleTimeout != 500*time.Millisecond {
		t.Errorf("Expected 500ms oracle timeout, got %s", opts.OracleTimeout)
	}
	if opts.Oracle == nil || opts.Random == nil {
		t.Error("Expected oracle and random source to be set")
	}
	if opts.MaxWorkers != 3 {
		t.Errorf("Expected 3 workers, got %d", opts.MaxWorkers)
	}
	opts.OnOracleFallback("x", nil)
	if !called {
		t.Error("Expected fallback hook to be set")
	}

	// Builders return copies
	if DefaultOptions().Oracle != nil {
		t.Error("Expected default options to stay heuristic-only")
	}
}

func TestWithOracle_KeepsTimeoutWhenZero(t *testing.T) {
	opts := DefaultOptions().WithOracle(&stubOracle{}, 0)
	if opts.OracleTimeout != 3*time.Second {
		t.Errorf("Expected default 3s timeout, got %s", opts.OracleTimeout)
	}
}

func TestThresholdsApplied(t *testing.T) {
	applied := DefaultThresholds().Applied(2 * time.Second)
	if applied.SampleStride != 10 || applied.AlphaCutoff != 128 {
		t.Errorf("Unexpected sampling thresholds: %+v", applied)
	}
	if applied.OracleTimeoutMillis != 2000 {
		t.Errorf("Expected 2000ms, got %d", applied.OracleTimeoutMillis)
	}
}
