package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidViewport, "width must be positive, got %v", -1)

	if err.Code != ErrCodeInvalidViewport {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidViewport)
	}

	if err.Message != "width must be positive, got -1" {
		t.Errorf("Message = %v, want %v", err.Message, "width must be positive, got -1")
	}

	expected := "INVALID_VIEWPORT: width must be positive, got -1"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeTelemetry, cause, "publish failed")

	if err.Code != ErrCodeTelemetry {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeTelemetry)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestFromPanic(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "string value", value: "boom", want: "INTERNAL_ERROR: ratios: boom"},
		{name: "error value", value: errors.New("bad"), want: "INTERNAL_ERROR: ratios: bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromPanic(tt.value, "ratios")
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
			if !Is(err, ErrCodeInternal) {
				t.Error("Is(err, ErrCodeInternal) = false")
			}
		})
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidRatios, "bad"),
			code:     ErrCodeInvalidRatios,
			expected: true,
		},
		{
			name:     "different code",
			err:      New(ErrCodeInvalidRatios, "bad"),
			code:     ErrCodeInvalidConfig,
			expected: false,
		},
		{
			name:     "wrapped with fmt",
			err:      fmtWrap(New(ErrCodeNotFound, "region p1/edge-top")),
			code:     ErrCodeNotFound,
			expected: true,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInternal,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidStrategy, "x")); got != ErrCodeInvalidStrategy {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeInvalidStrategy)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "structured error",
			err:      New(ErrCodeInvalidTier, "unknown tier %q", "ultra"),
			expected: `unknown tier "ultra"`,
		},
		{
			name:     "plain error",
			err:      errors.New("plain message"),
			expected: "plain message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func fmtWrap(err error) error {
	return &wrapper{err}
}

type wrapper struct{ inner error }

func (w *wrapper) Error() string { return "context: " + w.inner.Error() }
func (w *wrapper) Unwrap() error { return w.inner }
