package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

var (
	// ErrDecode indicates bytes that are not a supported image
	ErrDecode = errors.New("unsupported or corrupt image")

	// ErrTooLarge indicates a payload over the configured byte limit
	ErrTooLarge = errors.New("image exceeds size limit")
)

// DecodedImage is an oriented, size-bounded image plus what was learned
// about the original encoding.
type DecodedImage struct {
	Image          image.Image
	Format         string
	OriginalWidth  int
	OriginalHeight int
}

// DecodeImage decodes data honouring EXIF orientation and scales the result
// down so its longest side is at most maxDim. maxDim <= 0 disables scaling.
func DecodeImage(data []byte, maxDim int) (*DecodedImage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if maxDim > 0 {
		b := img.Bounds()
		if b.Dx() > maxDim || b.Dy() > maxDim {
			img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}
	}

	return &DecodedImage{
		Image:          img,
		Format:         format,
		OriginalWidth:  cfg.Width,
		OriginalHeight: cfg.Height,
	}, nil
}

// ReadLimited reads at most limit bytes from r and fails with ErrTooLarge
// when more remain.
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return data, nil
}
