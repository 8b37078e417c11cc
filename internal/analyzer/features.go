package analyzer

import (
	"fmt"
	"math"
)

// featureExtractor implements FeatureExtractor
type featureExtractor struct {
	thresholds Thresholds
}

// NewFeatureExtractor creates an extractor bound to the given thresholds
func NewFeatureExtractor(thresholds Thresholds) FeatureExtractor {
	if thresholds.SampleStride < 1 {
		thresholds.SampleStride = 1
	}
	return &featureExtractor{thresholds: thresholds}
}

// Extract walks the raster once at the sampling stride, staggered per row,
// and computes the five ratios, then runs the coarse band scan for
// diagnostics.
func (fe *featureExtractor) Extract(raster *Raster) (FeatureVector, error) {
	if err := raster.Validate(); err != nil {
		return FeatureVector{}, err
	}

	t := fe.thresholds
	w, h := raster.Width, raster.Height
	total := w * h

	var sampled, eligible, edges, smooth, grid int
	var variation float64

	for i := 0; i < total; i += t.SampleStride {
		p := raster.staggered(i)
		sampled++
		if raster.alpha(p) < t.AlphaCutoff {
			continue
		}
		eligible++

		if next := p + t.SampleStride; next < total {
			variation += raster.channelDelta(p, next)
		}

		x, y := p%w, p/w
		if x == 0 || y == 0 || x == w-1 || y == h-1 {
			continue
		}

		lum := raster.luminance(p)
		right := math.Abs(lum - raster.luminance(p+1))
		below := math.Abs(lum - raster.luminance(p+w))
		if right > t.EdgeContrast || below > t.EdgeContrast {
			edges++
			if fe.alternates(raster, x, y) {
				grid++
			}
		} else {
			smooth++
		}
	}

	if eligible == 0 {
		return FeatureVector{}, fmt.Errorf("%w: %d sampled positions, none opaque", ErrEmptyAnalysis, sampled)
	}

	hBands, vBands := fe.scanBands(raster)
	n := float64(sampled)

	return FeatureVector{
		EdgeRatio:           float64(edges) / n,
		GridRatio:           float64(grid) / n,
		SmoothRatio:         float64(smooth) / n,
		ColorVariationRatio: variation / float64(eligible*3),
		AspectRatio:         float64(w) / float64(h),
		SampledPixels:       sampled,
		EligiblePixels:      eligible,
		HorizontalBands:     hBands,
		VerticalBands:       vBands,
		HasGridPattern:      hBands >= t.MinBands && vBands >= t.MinBands,
	}, nil
}

// alternates reports whether the luminance run centred on (x,y) along either
// axis switches at least twice, which is what a regular lattice looks like
// at the pixel scale. An axis is skipped when the run would leave the raster.
func (fe *featureExtractor) alternates(raster *Raster, x, y int) bool {
	radius := fe.thresholds.GridRunRadius
	if x-radius >= 0 && x+radius < raster.Width {
		if fe.transitions(raster, x-radius, y, 1, 0) >= 2 {
			return true
		}
	}
	if y-radius >= 0 && y+radius < raster.Height {
		if fe.transitions(raster, x, y-radius, 0, 1) >= 2 {
			return true
		}
	}
	return false
}

// transitions counts consecutive luminance steps of at least GridContrast in
// a run of 2*radius+1 pixels starting at (x,y) and advancing by (dx,dy).
func (fe *featureExtractor) transitions(raster *Raster, x, y, dx, dy int) int {
	steps := 2 * fe.thresholds.GridRunRadius
	count := 0
	prev := raster.luminanceAt(x, y)
	for i := 0; i < steps; i++ {
		x, y = x+dx, y+dy
		cur := raster.luminanceAt(x, y)
		if math.Abs(cur-prev) >= fe.thresholds.GridContrast {
			count++
		}
		prev = cur
	}
	return count
}

// scanBands counts rows and columns, taken every GridScanStep pixels, in
// which more than BandCoverage of the interior pixels differ sharply from
// their two neighbours along the scan. Alpha is ignored here.
func (fe *featureExtractor) scanBands(raster *Raster) (horizontal, vertical int) {
	t := fe.thresholds
	w, h := raster.Width, raster.Height

	for y := 0; y < h; y += t.GridScanStep {
		strong := 0
		for x := 1; x < w-1; x++ {
			c := raster.luminanceAt(x, y)
			contrast := math.Abs(c-raster.luminanceAt(x-1, y)) + math.Abs(c-raster.luminanceAt(x+1, y))
			if contrast > t.BandContrast {
				strong++
			}
		}
		if float64(strong) > float64(w)*t.BandCoverage {
			horizontal++
		}
	}

	for x := 0; x < w; x += t.GridScanStep {
		strong := 0
		for y := 1; y < h-1; y++ {
			c := raster.luminanceAt(x, y)
			contrast := math.Abs(c-raster.luminanceAt(x, y-1)) + math.Abs(c-raster.luminanceAt(x, y+1))
			if contrast > t.BandContrast {
				strong++
			}
		}
		if float64(strong) > float64(h)*t.BandCoverage {
			vertical++
		}
	}

	return horizontal, vertical
}
