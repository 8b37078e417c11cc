package analyzer

import (
	"math"

	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

// Reason strings attached to each rule outcome.
const (
	ReasonGrid           = "grid pattern detected"
	ReasonEdges          = "high edge density"
	ReasonSmooth         = "smooth surface detected"
	ReasonCircular       = "circular shape detected"
	ReasonRectangular    = "rectangular shape detected"
	ReasonColorVariation = "high color variation (toppings)"
	ReasonFallback       = "general analysis fallback"
)

// rule is one row of the ordered rule table. base and span give the
// confidence range [base, base+span) drawn with the random source.
type rule struct {
	name   string
	label  string
	reason string
	base   float64
	span   float64
	value  func(FeatureVector) float64
	match  func(FeatureVector) bool
}

// ruleEngine implements RuleEngine
type ruleEngine struct {
	thresholds Thresholds
	rules      []rule
	random     RandomSource
}

// NewRuleEngine builds the rule table from thresholds. A nil random source
// falls back to DefaultRandom.
func NewRuleEngine(thresholds Thresholds, random RandomSource) RuleEngine {
	if random == nil {
		random = DefaultRandom()
	}
	return &ruleEngine{
		thresholds: thresholds,
		rules:      ruleTable(thresholds),
		random:     random,
	}
}

func ruleTable(t Thresholds) []rule {
	aspect := func(f FeatureVector) float64 { return f.AspectRatio }
	return []rule{
		{
			name: "grid_ratio", label: models.LabelWaffle, reason: ReasonGrid, base: 0.80, span: 0.15,
			value: func(f FeatureVector) float64 { return f.GridRatio },
			match: func(f FeatureVector) bool { return f.GridRatio > t.GridRatio },
		},
		{
			name: "edge_ratio", label: models.LabelWaffle, reason: ReasonEdges, base: 0.70, span: 0.20,
			value: func(f FeatureVector) float64 { return f.EdgeRatio },
			match: func(f FeatureVector) bool { return f.EdgeRatio > t.EdgeRatio },
		},
		{
			name: "smooth_ratio", label: models.LabelPancake, reason: ReasonSmooth, base: 0.70, span: 0.20,
			value: func(f FeatureVector) float64 { return f.SmoothRatio },
			match: func(f FeatureVector) bool { return f.SmoothRatio > t.SmoothRatio },
		},
		{
			name: "circular_aspect", label: models.LabelPancake, reason: ReasonCircular, base: 0.60, span: 0.20,
			value: aspect,
			match: func(f FeatureVector) bool { return math.Abs(f.AspectRatio-1) < t.CircularTolerance },
		},
		{
			name: "rectangular_aspect", label: models.LabelWaffle, reason: ReasonRectangular, base: 0.60, span: 0.20,
			value: aspect,
			match: func(f FeatureVector) bool { return f.AspectRatio > t.WideAspect || f.AspectRatio < t.TallAspect },
		},
		{
			name: "color_variation", label: models.LabelWaffle, reason: ReasonColorVariation, base: 0.50, span: 0.30,
			value: func(f FeatureVector) float64 { return f.ColorVariationRatio },
			match: func(f FeatureVector) bool { return f.ColorVariationRatio > t.ColorVariation },
		},
	}
}

// Apply evaluates the rules in priority order; the first match decides the
// label. When none match, a coin flip decides.
func (re *ruleEngine) Apply(features FeatureVector) ClassificationResult {
	var result ClassificationResult

	fired := false
	for _, r := range re.rules {
		if !r.match(features) {
			continue
		}
		result.SetLabel(r.label)
		result.Confidence = r.base + re.random.Float64()*r.span
		result.Reasoning = []string{r.reason}
		fired = true
		break
	}

	if !fired {
		label := models.LabelWaffle
		if re.random.Float64() > 0.5 {
			label = models.LabelPancake
		}
		result.SetLabel(label)
		result.Confidence = 0.40 + re.random.Float64()*0.30
		result.Reasoning = []string{ReasonFallback}
	}

	result.Confidence = finalizeConfidence(result.Confidence, re.thresholds)
	fv := features
	result.Features = &fv
	return result
}

// Trace reports every rule, whether it matched and which one fired.
func (re *ruleEngine) Trace(features FeatureVector) []models.RuleCheck {
	checks := make([]models.RuleCheck, 0, len(re.rules)+1)
	fired := false
	for _, r := range re.rules {
		matched := r.match(features)
		checks = append(checks, models.RuleCheck{
			Rule:    r.name,
			Label:   r.label,
			Value:   r.value(features),
			Matched: matched,
			Fired:   matched && !fired,
		})
		fired = fired || matched
	}
	checks = append(checks, models.RuleCheck{
		Rule:    "fallback",
		Label:   "coin_flip",
		Matched: true,
		Fired:   !fired,
	})
	return checks
}

// finalizeConfidence clamps to the configured bounds and rounds to two
// decimals.
func finalizeConfidence(c float64, t Thresholds) float64 {
	c = math.Max(t.MinConfidence, math.Min(t.MaxConfidence, c))
	return math.Round(c*100) / 100
}
