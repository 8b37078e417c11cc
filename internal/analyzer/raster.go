package analyzer

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var (
	// ErrInvalidImage indicates a raster whose dimensions and buffer disagree
	ErrInvalidImage = errors.New("invalid image")

	// ErrEmptyAnalysis indicates that no opaque pixel was sampled
	ErrEmptyAnalysis = errors.New("no opaque pixels to analyze")
)

// Raster is a decoded, non-premultiplied RGBA pixel grid in row-major order.
// The analyzer only reads it.
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// NewRaster validates the dimensions against the buffer and returns a raster.
func NewRaster(width, height int, pix []byte) (*Raster, error) {
	r := &Raster{Width: width, Height: height, Pix: pix}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// RasterFromImage converts any image into a Raster with the same dimensions.
func RasterFromImage(img image.Image) (*Raster, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return NewRaster(b.Dx(), b.Dy(), nrgba.Pix)
}

// Validate checks the raster invariants: at least 2x2 and len(Pix) == W*H*4.
func (r *Raster) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil raster", ErrInvalidImage)
	}
	if r.Width < 2 || r.Height < 2 {
		return fmt.Errorf("%w: raster must be at least 2x2, got %dx%d", ErrInvalidImage, r.Width, r.Height)
	}
	want := r.Width * r.Height * 4
	if want/4/r.Height != r.Width {
		return fmt.Errorf("%w: %dx%d overflows", ErrInvalidImage, r.Width, r.Height)
	}
	if len(r.Pix) != want {
		return fmt.Errorf("%w: buffer holds %d bytes, %dx%d needs %d", ErrInvalidImage, len(r.Pix), r.Width, r.Height, want)
	}
	return nil
}

// Image wraps the pixel buffer as an *image.NRGBA without copying.
func (r *Raster) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// luminance is the (R+G+B)/3 brightness proxy of pixel index p.
func (r *Raster) luminance(p int) float64 {
	i := p * 4
	return (float64(r.Pix[i]) + float64(r.Pix[i+1]) + float64(r.Pix[i+2])) / 3
}

func (r *Raster) luminanceAt(x, y int) float64 {
	return r.luminance(y*r.Width + x)
}

// staggered moves sample index p along its row by the row number, so a
// stride that divides the width still visits every column across rows.
func (r *Raster) staggered(p int) int {
	x, y := p%r.Width, p/r.Width
	return y*r.Width + (x+y)%r.Width
}

func (r *Raster) alpha(p int) uint8 {
	return r.Pix[p*4+3]
}

// channelDelta is |dR|+|dG|+|dB| between pixel indexes p and q.
func (r *Raster) channelDelta(p, q int) float64 {
	i, j := p*4, q*4
	return float64(absDiff(r.Pix[i], r.Pix[j]) + absDiff(r.Pix[i+1], r.Pix[j+1]) + absDiff(r.Pix[i+2], r.Pix[j+2]))
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
