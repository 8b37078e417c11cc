package validation

import (
	"errors"
	"testing"

	apperrors "github.com/anime-shed/pancake-waffle-classifier/internal/errors"
)

var pngHead = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestValidateUpload(t *testing.T) {
	v := NewUploadValidator(1024)

	tests := []struct {
		name    string
		size    int64
		head    []byte
		wantErr bool
	}{
		{"png", 100, pngHead, false},
		{"jpeg", 100, []byte("\xff\xd8\xff\xe0\x00\x10JFIF"), false},
		{"empty", 0, nil, true},
		{"too large", 2048, pngHead, true},
		{"text", 100, []byte("hello, waffles"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.size, tt.head)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateUpload() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestNormalizeMode(t *testing.T) {
	tests := map[string]string{
		"":           ModeBlended,
		"blended":    ModeBlended,
		" Heuristic": ModeHeuristic,
	}
	for in, want := range tests {
		got, err := NormalizeMode(in)
		if err != nil || got != want {
			t.Errorf("NormalizeMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := NormalizeMode("neural"); err == nil {
		t.Error("Expected unknown mode to fail")
	}
}

func TestToValidationError(t *testing.T) {
	ve := ToValidationError(apperrors.NewValidationError("unknown mode", nil).WithDetails("use heuristic"), "mode")
	if ve.Code != "validation" || ve.Message != "unknown mode: use heuristic" || ve.Field != "mode" {
		t.Errorf("Unexpected %+v", ve)
	}

	plain := ToValidationError(errors.New("boom"), "")
	if plain.Code != "invalid" || plain.Message != "boom" {
		t.Errorf("Unexpected %+v", plain)
	}
}
