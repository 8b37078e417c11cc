package validation

import (
	"net"
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/pancake-waffle-classifier/internal/errors"
)

// URLValidator decides which remote images the service may fetch
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
	allowPrivate   bool
}

// NewURLValidator accepts http(s) URLs on any public host
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
	}
}

// NewURLValidatorWithOptions restricts schemes and hosts. An empty host list
// allows every host; allowPrivate permits loopback and private addresses.
func NewURLValidatorWithOptions(schemes []string, hosts []string, allowPrivate bool) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
		allowPrivate:   allowPrivate,
	}
}

// ValidateImageURL validates a URL before it is fetched
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !contains(v.allowedSchemes, strings.ToLower(parsedURL.Scheme)) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	host := parsedURL.Hostname()
	if host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if len(v.allowedHosts) > 0 && !contains(v.allowedHosts, strings.ToLower(host)) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	if !v.allowPrivate && isPrivateHost(host) {
		return apperrors.NewValidationError("URL points to a private network address", nil)
	}

	return nil
}

// isPrivateHost only inspects literal addresses and localhost; names are
// not resolved here.
func isPrivateHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
