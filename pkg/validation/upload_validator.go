package validation

import (
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/anime-shed/pancake-waffle-classifier/internal/errors"
	"github.com/anime-shed/pancake-waffle-classifier/pkg/models"
)

// Classification modes accepted by the API
const (
	ModeHeuristic = "heuristic"
	ModeBlended   = "blended"
)

var sniffedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/bmp", "image/webp"}

// UploadValidator checks uploaded files before decoding
type UploadValidator struct {
	maxBytes int64
}

// NewUploadValidator creates a validator with the given size limit
func NewUploadValidator(maxBytes int64) *UploadValidator {
	return &UploadValidator{maxBytes: maxBytes}
}

// ValidateUpload checks size and sniffs the leading bytes for an image type
func (v *UploadValidator) ValidateUpload(size int64, head []byte) error {
	if size <= 0 || len(head) == 0 {
		return apperrors.NewValidationError("uploaded file is empty", nil)
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		return apperrors.NewValidationError("uploaded file is too large", nil).
			WithDetails(fmt.Sprintf("%d bytes exceeds the %d byte limit", size, v.maxBytes))
	}
	contentType := http.DetectContentType(head)
	if !contains(sniffedImageTypes, contentType) {
		return apperrors.NewValidationError("uploaded file is not a supported image", nil).
			WithDetails("detected content type " + contentType)
	}
	return nil
}

// NormalizeMode returns the canonical mode, defaulting to blended
func NormalizeMode(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeBlended:
		return ModeBlended, nil
	case ModeHeuristic:
		return ModeHeuristic, nil
	}
	return "", apperrors.NewValidationError("unknown mode", nil).
		WithDetails(fmt.Sprintf("mode %q must be %s or %s", mode, ModeHeuristic, ModeBlended))
}

// ToValidationError converts an error into the structured response form
func ToValidationError(err error, field string) models.ValidationError {
	ve := models.ValidationError{Code: "invalid", Message: err.Error(), Field: field}
	if appErr, ok := apperrors.As(err); ok {
		ve.Code = string(appErr.Type)
		ve.Message = appErr.Message
		if appErr.Details != "" {
			ve.Message += ": " + appErr.Details
		}
	}
	return ve
}
