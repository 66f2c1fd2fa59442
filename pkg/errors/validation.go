package errors

import (
	"math"
	"net/url"
	"strings"
)

// ValidateDimension checks that a viewport dimension is a finite positive number.
func ValidateDimension(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidViewport, "%s must be finite, got %v", name, v)
	}
	if v <= 0 {
		return New(ErrCodeInvalidViewport, "%s must be positive, got %v", name, v)
	}
	return nil
}

// ValidateFraction checks that v lies in the half-open range (lo, hi].
// Ratio settings use it to reject zero-sized and overflowing zones.
func ValidateFraction(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v <= lo || v > hi {
		return New(ErrCodeInvalidRatios, "%s must be in (%g, %g], got %v", name, lo, hi, v)
	}
	return nil
}

// ValidatePositive checks a tuning value that must be strictly positive.
func ValidatePositive(name string, v float64) error {
	if math.IsNaN(v) || v <= 0 {
		return New(ErrCodeInvalidConfig, "%s must be positive, got %v", name, v)
	}
	return nil
}

// ValidateURL validates a telemetry endpoint URL.
// Allowed schemes are http, https, redis, rediss, mongodb and mongodb+srv.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "malformed URL")
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "redis", "rediss", "mongodb", "mongodb+srv":
		return nil
	}
	return New(ErrCodeInvalidInput, "unsupported URL scheme %q", u.Scheme)
}
