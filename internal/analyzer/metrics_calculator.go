package analyzer

import (
	"runtime"
	"sync"

	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"
)

// metricsCalculator implements MetricsCalculator with Gonum statistics over
// the same sampling grid the feature extractor uses
type metricsCalculator struct {
	stride      int
	alphaCutoff uint8
}

// NewMetricsCalculator creates a diagnostics calculator
func NewMetricsCalculator(thresholds Thresholds) MetricsCalculator {
	stride := thresholds.SampleStride
	if stride < 1 {
		stride = 1
	}
	return &metricsCalculator{stride: stride, alphaCutoff: thresholds.AlphaCutoff}
}

// Calculate computes colour statistics of the opaque sampled pixels. Rows
// are split into strips processed in parallel. An invalid or fully
// transparent raster yields zero statistics.
func (mc *metricsCalculator) Calculate(raster *Raster) models.ImageDiagnostics {
	if raster.Validate() != nil {
		return models.ImageDiagnostics{}
	}
	diag := models.ImageDiagnostics{Width: raster.Width, Height: raster.Height}

	numWorkers := runtime.NumCPU()
	if raster.Height < numWorkers {
		numWorkers = raster.Height
	}
	rowsPerWorker := (raster.Height + numWorkers - 1) / numWorkers // ceil division

	strips := make([]channelStats, numWorkers)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := min(startY+rowsPerWorker, raster.Height)
		wg.Add(1)
		go func(stats *channelStats, startY, endY int) {
			defer wg.Done()
			mc.collect(raster, stats, startY, endY)
		}(&strips[i], startY, endY)
	}
	wg.Wait()

	var all channelStats
	for _, s := range strips {
		all.r = append(all.r, s.r...)
		all.g = append(all.g, s.g...)
		all.b = append(all.b, s.b...)
		all.saturation = append(all.saturation, s.saturation...)
		all.luminance = append(all.luminance, s.luminance...)
	}
	if len(all.r) == 0 {
		return diag
	}

	meanR, meanG, meanB := stat.Mean(all.r, nil), stat.Mean(all.g, nil), stat.Mean(all.b, nil)
	diag.MeanColorHex = colorful.Color{R: meanR / 255, G: meanG / 255, B: meanB / 255}.Hex()
	diag.MeanSaturation = stat.Mean(all.saturation, nil)
	diag.MeanLuminance = stat.Mean(all.luminance, nil)
	if len(all.r) > 1 {
		diag.ChannelStdDev = [3]float64{
			stat.StdDev(all.r, nil),
			stat.StdDev(all.g, nil),
			stat.StdDev(all.b, nil),
		}
	}
	return diag
}

// collect gathers the sampled pixels whose linear index falls in rows
// [startY, endY).
func (mc *metricsCalculator) collect(raster *Raster, stats *channelStats, startY, endY int) {
	first := startY * raster.Width
	if rem := first % mc.stride; rem != 0 {
		first += mc.stride - rem
	}
	last := endY * raster.Width

	for n := first; n < last; n += mc.stride {
		p := raster.staggered(n)
		if raster.alpha(p) < mc.alphaCutoff {
			continue
		}
		i := p * 4
		r, g, b := float64(raster.Pix[i]), float64(raster.Pix[i+1]), float64(raster.Pix[i+2])
		_, s, _ := colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Hsv()

		stats.r = append(stats.r, r)
		stats.g = append(stats.g, g)
		stats.b = append(stats.b, b)
		stats.saturation = append(stats.saturation, s)
		stats.luminance = append(stats.luminance, (r+g+b)/3)
	}
}
