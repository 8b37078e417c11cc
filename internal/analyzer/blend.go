package analyzer

import (
	"sort"
	"strings"

	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

var (
	foodKeywords = []string{
		"pancake", "waffle", "breakfast", "food", "dough", "batter", "griddle",
		"syrup", "flapjack", "hotcake", "crepe", "flatbread", "grid", "pattern",
		"belgian", "iron", "honeycomb",
	}
	pancakeTerms = []string{"pancake", "flapjack", "hotcake"}
	waffleTerms  = []string{"waffle", "belgian"}
)

// FoodKeywords returns the keywords an oracle label must contain to be
// considered at all.
func FoodKeywords() []string {
	return append([]string(nil), foodKeywords...)
}

// IsFoodLabel reports whether className contains any food keyword.
func IsFoodLabel(className string) bool {
	return containsAny(strings.ToLower(className), foodKeywords)
}

// NamedLabel returns the label className names outright, or "" when it names
// neither or both.
func NamedLabel(className string) string {
	name := strings.ToLower(className)
	pancake, waffle := containsAny(name, pancakeTerms), containsAny(name, waffleTerms)
	switch {
	case pancake && !waffle:
		return models.LabelPancake
	case waffle && !pancake:
		return models.LabelWaffle
	}
	return ""
}

// blender implements Blender
type blender struct {
	thresholds Thresholds
}

// NewBlender creates a blender using the thresholds' oracle weight and
// confidence bounds
func NewBlender(thresholds Thresholds) Blender {
	return &blender{thresholds: thresholds}
}

// Blend merges oracle labels into the heuristic result. Without any labels
// the heuristic result passes through unchanged; without food labels only
// the oracle status is updated.
func (b *blender) Blend(heuristic ClassificationResult, labels []models.OracleLabel) ClassificationResult {
	if len(labels) == 0 {
		return heuristic
	}

	food := filterFoodLabels(labels)
	if len(food) == 0 {
		result := heuristic.Clone()
		result.OracleStatus = models.OracleNoMatch
		return result
	}

	top := food[0]
	result := heuristic.Clone()
	result.OracleStatus = models.OracleUsed

	if label := forcedLabel(top.ClassName); label != "" {
		result.SetLabel(label)
		result.Confidence = finalizeConfidence(top.Probability, b.thresholds)
		result.Reasoning = []string{"external oracle: " + top.ClassName}
		return result
	}

	w := b.thresholds.OracleWeight
	result.Confidence = finalizeConfidence(w*top.Probability+(1-w)*heuristic.Confidence, b.thresholds)
	result.Reasoning = append(result.Reasoning, "blended with external oracle: "+top.ClassName)

	if label, className := unambiguousLabel(food[1:]); label != "" && label != result.Prediction {
		result.SetLabel(label)
		result.Reasoning = append(result.Reasoning, "external oracle override: "+className)
	}
	return result
}

// filterFoodLabels keeps food labels sorted by probability, descending.
func filterFoodLabels(labels []models.OracleLabel) []models.OracleLabel {
	food := make([]models.OracleLabel, 0, len(labels))
	for _, l := range labels {
		if IsFoodLabel(l.ClassName) {
			food = append(food, l)
		}
	}
	sort.SliceStable(food, func(i, j int) bool {
		return food[i].Probability > food[j].Probability
	})
	return food
}

// forcedLabel applies the top-label test: pancake terms are checked first.
func forcedLabel(className string) string {
	name := strings.ToLower(className)
	switch {
	case containsAny(name, pancakeTerms):
		return models.LabelPancake
	case containsAny(name, waffleTerms):
		return models.LabelWaffle
	}
	return ""
}

// unambiguousLabel returns the single label named by the remaining labels,
// together with the most probable className naming it. Labels that name
// nothing are ignored; labels naming both outcomes make it ambiguous.
func unambiguousLabel(labels []models.OracleLabel) (string, string) {
	var label, className string
	for _, l := range labels {
		named := NamedLabel(l.ClassName)
		if named == "" {
			continue
		}
		if label != "" && named != label {
			return "", ""
		}
		if label == "" {
			label, className = named, l.ClassName
		}
	}
	return label, className
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
