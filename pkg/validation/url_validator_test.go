package validation

import (
	"testing"

	apperrors "github.com/anime-shed/pancake-waffle-classifier/internal/errors"
)

func TestValidateImageURL_ValidURLs(t *testing.T) {
	validator := NewURLValidator()

	validURLs := []string{
		"http://example.com/pancakes.jpg",
		"https://example.com/waffle.png",
		"HTTPS://cdn.example.com:8443/path/to/stack.gif",
		"http://93.184.216.34/image.jpg",
	}

	for _, u := range validURLs {
		if err := validator.ValidateImageURL(u); err != nil {
			t.Errorf("Expected valid URL %s to pass validation, got error: %v", u, err)
		}
	}
}

func TestValidateImageURL_Invalid(t *testing.T) {
	validator := NewURLValidator()

	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"bad format", "http://[::1"},
		{"ftp scheme", "ftp://example.com/image.jpg"},
		{"no host", "http:///image.jpg"},
		{"loopback", "http://127.0.0.1/image.jpg"},
		{"localhost", "http://localhost:8080/image.jpg"},
		{"private", "http://192.168.1.1/image.jpg"},
		{"link local", "http://169.254.169.254/latest/meta-data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateImageURL(tt.url)
			if err == nil {
				t.Fatalf("Expected %q to fail validation", tt.url)
			}
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %T", err)
			}
		})
	}
}

func TestValidateImageURL_WithOptions(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, []string{"images.example.com"}, false)

	if err := validator.ValidateImageURL("https://images.example.com/a.jpg"); err != nil {
		t.Errorf("Expected allowed host to pass, got %v", err)
	}
	if err := validator.ValidateImageURL("https://other.example.com/a.jpg"); err == nil {
		t.Error("Expected other host to be rejected")
	}
	if err := validator.ValidateImageURL("http://images.example.com/a.jpg"); err == nil {
		t.Error("Expected http to be rejected")
	}

	private := NewURLValidatorWithOptions([]string{"http"}, nil, true)
	if err := private.ValidateImageURL("http://127.0.0.1:9000/a.png"); err != nil {
		t.Errorf("Expected loopback to pass when private hosts are allowed, got %v", err)
	}
}
