package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidIdentity, "unknown root: %s", "Server")

	if err.Code != ErrCodeInvalidIdentity {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidIdentity)
	}

	if err.Message != "unknown root: Server" {
		t.Errorf("Message = %v, want %v", err.Message, "unknown root: Server")
	}

	expected := "INVALID_IDENTITY: unknown root: Server"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeSerialization, cause, "read document")

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("Wrap() = %T, want *Error", err)
	}
	if e.Code != ErrCodeSerialization {
		t.Errorf("Code = %v, want %v", e.Code, ErrCodeSerialization)
	}
	if e.Cause != cause {
		t.Errorf("Cause = %v, want %v", e.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestWrapDoesNotDoubleWrap(t *testing.T) {
	inner := New(ErrCodeMissingParent, "no parent for /Server/Login/a")
	outer := fmt.Errorf("reconstruct: %w", inner)

	got := Wrap(ErrCodeSerialization, outer, "read document")
	if got != outer {
		t.Errorf("Wrap() = %v, want the original error", got)
	}
	if GetCode(got) != ErrCodeMissingParent {
		t.Errorf("GetCode() = %v, want %v", GetCode(got), ErrCodeMissingParent)
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(ErrCodeInternal, nil, "nothing"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
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
			err:      New(ErrCodeUnsupportedVersion, "test"),
			code:     ErrCodeUnsupportedVersion,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeUnsupportedVersion, "test"),
			code:     ErrCodeUnsupportedUpgrade,
			expected: false,
		},
		{
			name:     "wrapped by fmt",
			err:      fmt.Errorf("outer: %w", New(ErrCodeDuplicatePath, "inner")),
			code:     ErrCodeDuplicatePath,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidInput,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidInput,
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
		{
			name:     "Error type",
			err:      New(ErrCodeNonSerializableType, "test"),
			expected: ErrCodeNonSerializableType,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
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
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}
