// Package oracle provides external labelling services the classifier can
// blend with. Every oracle honours the context it is given; the classifier
// bounds each call with its oracle timeout.
package oracle

import (
	"context"
	"errors"

	"github.com/anime-shed/pancake-waffle-classifier/internal/analyzer"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

var (
	// ErrOracleUnavailable indicates an oracle that cannot run in this build
	// or deployment
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrBadResponse indicates an oracle answer that could not be understood
	ErrBadResponse = errors.New("bad oracle response")
)

// Static answers every call with the same labels
type Static struct {
	Labels []models.OracleLabel
}

// NewStatic creates a Static oracle
func NewStatic(labels ...models.OracleLabel) *Static {
	return &Static{Labels: labels}
}

func (s *Static) Name() string {
	return "static"
}

func (s *Static) Classify(ctx context.Context, _ *analyzer.Raster) ([]models.OracleLabel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.OracleLabel(nil), s.Labels...), nil
}

var _ analyzer.Oracle = (*Static)(nil)
