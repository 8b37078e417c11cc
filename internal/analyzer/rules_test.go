package analyzer

import (
	"image/color"
	"testing"

	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

// sequenceRandom returns values in order and then repeats the last one
type sequenceRandom struct {
	values []float64
	next   int
}

func (s *sequenceRandom) Float64() float64 {
	v := s.values[min(s.next, len(s.values)-1)]
	s.next++
	return v
}

func TestRuleEngine_Table(t *testing.T) {
	tests := []struct {
		name      string
		features  FeatureVector
		wantLabel string
		wantWhy   string
		minConf   float64
		maxConf   float64
	}{
		{
			name:      "grid beats edges",
			features:  FeatureVector{GridRatio: 0.1, EdgeRatio: 0.9, AspectRatio: 1},
			wantLabel: models.LabelWaffle, wantWhy: ReasonGrid, minConf: 0.80, maxConf: 0.95,
		},
		{
			name:      "edges",
			features:  FeatureVector{EdgeRatio: 0.2, SmoothRatio: 0.8, AspectRatio: 1},
			wantLabel: models.LabelWaffle, wantWhy: ReasonEdges, minConf: 0.70, maxConf: 0.90,
		},
		{
			name:      "smooth",
			features:  FeatureVector{EdgeRatio: 0.1, SmoothRatio: 0.7, AspectRatio: 3},
			wantLabel: models.LabelPancake, wantWhy: ReasonSmooth, minConf: 0.70, maxConf: 0.90,
		},
		{
			name:      "circular",
			features:  FeatureVector{SmoothRatio: 0.5, AspectRatio: 1.2},
			wantLabel: models.LabelPancake, wantWhy: ReasonCircular, minConf: 0.60, maxConf: 0.80,
		},
		{
			name:      "wide",
			features:  FeatureVector{SmoothRatio: 0.5, AspectRatio: 3},
			wantLabel: models.LabelWaffle, wantWhy: ReasonRectangular, minConf: 0.60, maxConf: 0.80,
		},
		{
			name:      "tall",
			features:  FeatureVector{SmoothRatio: 0.5, AspectRatio: 0.5},
			wantLabel: models.LabelWaffle, wantWhy: ReasonRectangular, minConf: 0.60, maxConf: 0.80,
		},
		{
			name:      "colour variation",
			features:  FeatureVector{SmoothRatio: 0.2, AspectRatio: 1.3, ColorVariationRatio: 60},
			wantLabel: models.LabelWaffle, wantWhy: ReasonColorVariation, minConf: 0.50, maxConf: 0.80,
		},
	}

	for _, tt := range tests {
		for _, u := range []float64{0, 0.5, 0.999} {
			engine := NewRuleEngine(DefaultThresholds(), FixedRandom(u))
			got := engine.Apply(tt.features)

			if got.Prediction != tt.wantLabel {
				t.Errorf("%s (u=%v): expected %s, got %s", tt.name, u, tt.wantLabel, got.Prediction)
			}
			if len(got.Reasoning) != 1 || got.Reasoning[0] != tt.wantWhy {
				t.Errorf("%s (u=%v): expected reasoning [%q], got %v", tt.name, u, tt.wantWhy, got.Reasoning)
			}
			if got.Confidence < tt.minConf || got.Confidence > tt.maxConf {
				t.Errorf("%s (u=%v): confidence %f outside [%f,%f]", tt.name, u, got.Confidence, tt.minConf, tt.maxConf)
			}
		}
	}
}

func TestRuleEngine_CoinFlip(t *testing.T) {
	// AspectRatio 1.3 sits exactly between both shape rules
	features := FeatureVector{SmoothRatio: 0.1, AspectRatio: 1.3, ColorVariationRatio: 10}

	heads := NewRuleEngine(DefaultThresholds(), &sequenceRandom{values: []float64{0.9, 0.0}}).Apply(features)
	if heads.Prediction != models.LabelPancake || heads.Confidence != 0.40 {
		t.Errorf("Expected Pancake at 0.40, got %s at %f", heads.Prediction, heads.Confidence)
	}

	tails := NewRuleEngine(DefaultThresholds(), &sequenceRandom{values: []float64{0.5, 1.0}}).Apply(features)
	if tails.Prediction != models.LabelWaffle || tails.Confidence != 0.70 {
		t.Errorf("Expected Waffle at 0.70, got %s at %f", tails.Prediction, tails.Confidence)
	}
	if tails.Reasoning[0] != ReasonFallback {
		t.Errorf("Expected fallback reasoning, got %v", tails.Reasoning)
	}
}

func TestRuleEngine_ClampAndRound(t *testing.T) {
	th := DefaultThresholds()
	th.MaxConfidence = 0.85

	got := NewRuleEngine(th, FixedRandom(0.99)).Apply(FeatureVector{GridRatio: 0.5})
	if got.Confidence != 0.85 {
		t.Errorf("Expected clamp to 0.85, got %f", got.Confidence)
	}

	got = NewRuleEngine(DefaultThresholds(), FixedRandom(0.123)).Apply(FeatureVector{GridRatio: 0.5})
	// 0.80 + 0.123*0.15 = 0.81845
	if got.Confidence != 0.82 {
		t.Errorf("Expected rounding to 0.82, got %f", got.Confidence)
	}
}

func TestRuleEngine_Invariants(t *testing.T) {
	engine := NewRuleEngine(DefaultThresholds(), NewSeededRandom(42))
	for i := 0; i < 500; i++ {
		f := float64(i) / 500
		fv := FeatureVector{
			GridRatio:           f * 0.1,
			EdgeRatio:           f * 0.3,
			SmoothRatio:         1 - f,
			ColorVariationRatio: f * 100,
			AspectRatio:         0.2 + f*3,
		}
		got := engine.Apply(fv)
		if got.IsPancake == got.IsWaffle {
			t.Fatalf("flags not exclusive for %+v", fv)
		}
		if (got.Prediction == models.LabelPancake) != got.IsPancake {
			t.Fatalf("prediction %s disagrees with flags", got.Prediction)
		}
		if got.Confidence < 0.30 || got.Confidence > 0.95 {
			t.Fatalf("confidence %f out of range", got.Confidence)
		}
		if got.Features == nil || *got.Features != fv {
			t.Fatalf("expected features to be attached")
		}
	}
}

func TestRuleEngine_Trace(t *testing.T) {
	engine := NewRuleEngine(DefaultThresholds(), FixedRandom(0.5))
	trace := engine.Trace(FeatureVector{GridRatio: 0.1, EdgeRatio: 0.9, AspectRatio: 1})

	if len(trace) != 7 {
		t.Fatalf("Expected 7 trace lines, got %d", len(trace))
	}
	fired := 0
	for _, c := range trace {
		if c.Fired {
			fired++
		}
	}
	if fired != 1 || !trace[0].Fired {
		t.Errorf("Expected only the grid rule to fire, got %+v", trace)
	}
	if !trace[1].Matched || trace[1].Fired {
		t.Errorf("Expected edge rule matched but not fired, got %+v", trace[1])
	}
	if trace[6].Fired {
		t.Error("Expected fallback not to fire")
	}
}

func TestScenarios(t *testing.T) {
	classifier, err := NewClassifier(DefaultOptions().WithRandom(FixedRandom(0.5)))
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	defer classifier.Close()

	grayHalf := createTestRaster(300, 100, color.NRGBA{128, 128, 128, 255})
	for p := 0; p < 300*50; p++ {
		grayHalf.Pix[p*4+3] = 0
	}

	tests := []struct {
		name      string
		raster    *Raster
		wantLabel string
		wantWhy   string
		minConf   float64
		maxConf   float64
	}{
		{"white square", createTestRaster(100, 100, color.NRGBA{255, 255, 255, 255}), models.LabelPancake, ReasonSmooth, 0.70, 0.90},
		{"two pixel stripes", createStripeRaster(100, 100, 2, 0), models.LabelWaffle, ReasonGrid, 0.80, 0.95},
		{"two pixel stripes shifted", createStripeRaster(100, 100, 2, 1), models.LabelWaffle, ReasonGrid, 0.80, 0.95},
		{"wide mid-gray", grayHalf, models.LabelWaffle, ReasonRectangular, 0.60, 0.80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifier.ClassifyHeuristic(tt.raster)
			if err != nil {
				t.Fatalf("ClassifyHeuristic failed: %v", err)
			}
			if got.Prediction != tt.wantLabel || got.Reasoning[0] != tt.wantWhy {
				t.Errorf("Expected %s (%s), got %s %v", tt.wantLabel, tt.wantWhy, got.Prediction, got.Reasoning)
			}
			if got.Confidence < tt.minConf || got.Confidence > tt.maxConf {
				t.Errorf("confidence %f outside [%f,%f]", got.Confidence, tt.minConf, tt.maxConf)
			}
			if got.OracleStatus != models.OracleDisabled {
				t.Errorf("Expected oracle status disabled, got %s", got.OracleStatus)
			}
		})
	}
}
