package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeConfiguration, "test message: %s", "value")

	if err.Code != ErrCodeConfiguration {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeConfiguration)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "CONFIGURATION_ERROR: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeIO, cause, "failed to read")

	if err.Code != ErrCodeIO {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeIO)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestErrorContext(t *testing.T) {
	err := New(ErrCodeFormat, "unsupported pixel format").ForImage("home")
	got := WithSheet(err, "icons")

	want := `FORMAT_ERROR: sheet "icons": image "home": unsupported pixel format`
	if got.Error() != want {
		t.Errorf("Error() = %q, want %q", got.Error(), want)
	}
	if SheetOf(got) != "icons" {
		t.Errorf("SheetOf() = %q, want icons", SheetOf(got))
	}

	// ForImage must not mutate the receiver.
	if err.Sheet != "" {
		t.Error("WithSheet mutated the original error")
	}
}

func TestWithSheet(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if WithSheet(nil, "icons") != nil {
			t.Error("WithSheet(nil) should be nil")
		}
	})

	t.Run("keeps existing sheet", func(t *testing.T) {
		err := WithSheet(New(ErrCodeIO, "boom"), "first")
		err = WithSheet(err, "second")
		if SheetOf(err) != "first" {
			t.Errorf("SheetOf() = %q, want first", SheetOf(err))
		}
	})

	t.Run("plain error", func(t *testing.T) {
		err := WithSheet(errors.New("plain"), "icons")
		if !Is(err, ErrCodeInternal) {
			t.Errorf("plain errors should become INTERNAL_ERROR, got %v", err)
		}
		if SheetOf(err) != "icons" {
			t.Errorf("SheetOf() = %q, want icons", SheetOf(err))
		}
	})

	t.Run("fmt wrapped", func(t *testing.T) {
		err := WithSheet(fmt.Errorf("place: %w", New(ErrCodeConfiguration, "no images")), "icons")
		if !Is(err, ErrCodeConfiguration) {
			t.Errorf("code should survive fmt wrapping, got %v", err)
		}
	})
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
			err:      New(ErrCodeConfiguration, "test"),
			code:     ErrCodeConfiguration,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeConfiguration, "test"),
			code:     ErrCodePlacement,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeIO, New(ErrCodeFormat, "inner"), "outer"),
			code:     ErrCodeIO,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("compose: %w", New(ErrCodePlacement, "out of bounds")),
			code:     ErrCodePlacement,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeConfiguration,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeConfiguration,
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
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeFormat, "test"), ErrCodeFormat},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeConfiguration, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	if Join(nil, nil) != nil {
		t.Error("Join of nils should be nil")
	}
	a := WithSheet(New(ErrCodeIO, "read"), "icons")
	joined := Join(nil, a, errors.New("other"))
	if !Is(joined, ErrCodeIO) || SheetOf(joined) != "icons" {
		t.Errorf("joined error lost its code or sheet: %v", joined)
	}
}

func TestIsCanceled(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{context.Canceled, true},
		{fmt.Errorf("build: %w", context.DeadlineExceeded), true},
		{WithSheet(context.Canceled, "icons"), true},
		{New(ErrCodeIO, "read"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsCanceled(tt.err); got != tt.want {
			t.Errorf("IsCanceled(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
