package oracle

import (
	"strings"
	"unicode"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
	"github.com/arbovm/levenshtein"
)

// fuzzyMinLength is the shortest word allowed one edit of slack
const fuzzyMinLength = 5

// MatchKeyword maps an OCR word to a food keyword. Words of fuzzyMinLength
// letters or more may be one edit away from the keyword.
func MatchKeyword(word string) (string, bool) {
	w := strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if w == "" {
		return "", false
	}
	w = strings.TrimSuffix(w, "s")

	for _, kw := range analyzer.FoodKeywords() {
		if w == kw {
			return kw, true
		}
	}
	if len(w) < fuzzyMinLength {
		return "", false
	}
	for _, kw := range analyzer.FoodKeywords() {
		if levenshtein.Distance(w, kw) <= 1 {
			return kw, true
		}
	}
	return "", false
}

// wordLabels turns recognised words into labels, keeping the highest
// confidence per keyword.
func wordLabels(words []recognizedWord) []models.OracleLabel {
	best := map[string]float64{}
	var order []string
	for _, w := range words {
		kw, ok := MatchKeyword(w.text)
		if !ok {
			continue
		}
		if _, seen := best[kw]; !seen {
			order = append(order, kw)
		}
		if w.confidence > best[kw] {
			best[kw] = w.confidence
		}
	}

	labels := make([]models.OracleLabel, 0, len(order))
	for _, kw := range order {
		labels = append(labels, models.OracleLabel{ClassName: kw, Probability: best[kw]})
	}
	return labels
}

type recognizedWord struct {
	text       string
	confidence float64
}
