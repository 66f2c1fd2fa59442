package errors

import (
	"math"
	"testing"
)

func TestValidateDimension(t *testing.T) {
	tests := []struct {
		name    string
		v       float64
		wantErr bool
	}{
		{name: "positive", v: 1920, wantErr: false},
		{name: "fractional", v: 0.5, wantErr: false},
		{name: "zero", v: 0, wantErr: true},
		{name: "negative", v: -10, wantErr: true},
		{name: "NaN", v: math.NaN(), wantErr: true},
		{name: "infinite", v: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimension("width", tt.v)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDimension(%v) error = %v, wantErr %v", tt.v, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidViewport) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidViewport)
			}
		})
	}
}

func TestValidateFraction(t *testing.T) {
	tests := []struct {
		name    string
		v       float64
		wantErr bool
	}{
		{name: "inside", v: 0.25, wantErr: false},
		{name: "upper bound inclusive", v: 0.5, wantErr: false},
		{name: "lower bound exclusive", v: 0, wantErr: true},
		{name: "above", v: 0.51, wantErr: true},
		{name: "NaN", v: math.NaN(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFraction("edge margin", tt.v, 0, 0.5)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFraction(%v) error = %v, wantErr %v", tt.v, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePositive(t *testing.T) {
	if err := ValidatePositive("max density ratio", 2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidatePositive("max density ratio", 0); !Is(err, ErrCodeInvalidConfig) {
		t.Errorf("zero: got %v, want INVALID_CONFIG", err)
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{url: "redis://localhost:6379/0", wantErr: false},
		{url: "mongodb://localhost:27017", wantErr: false},
		{url: "https://collector:4318/v1/traces", wantErr: false},
		{url: "", wantErr: true},
		{url: "ftp://example.com", wantErr: true},
		{url: "://bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput, ErrCodeInvalidConfig, ErrCodeInvalidViewport,
		ErrCodeInvalidRatios, ErrCodeInvalidStrategy, ErrCodeInvalidTier,
		ErrCodeInvalidFormat, ErrCodeNotFound, ErrCodeDestroyed,
		ErrCodeTelemetry, ErrCodeInternal,
	}
	seen := make(map[Code]bool)
	for _, c := range codes {
		if seen[c] {
			t.Errorf("duplicate error code: %s", c)
		}
		seen[c] = true
	}
}
