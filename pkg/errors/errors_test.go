package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnresolvableType, "no provider for %s", "main.Item")

	if err.Code != ErrCodeUnresolvableType {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnresolvableType)
	}

	if err.Message != "no provider for main.Item" {
		t.Errorf("Message = %v, want %v", err.Message, "no provider for main.Item")
	}

	expected := "UNRESOLVABLE_TYPE: no provider for main.Item"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNetwork, cause, "failed to fetch")

	if err.Code != ErrCodeNetwork {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNetwork)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
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
			err:      New(ErrCodeDeadlock, "cycle detected"),
			code:     ErrCodeDeadlock,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeDeadlock, "cycle detected"),
			code:     ErrCodeNetwork,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeProviderFailure, New(ErrCodeNetwork, "inner"), "outer"),
			code:     ErrCodeProviderFailure,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeDeadlock,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeDeadlock,
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
	if code := GetCode(New(ErrCodeCache, "store failed")); code != ErrCodeCache {
		t.Errorf("GetCode() = %v, want %v", code, ErrCodeCache)
	}

	if code := GetCode(errors.New("plain")); code != "" {
		t.Errorf("GetCode() = %v, want empty", code)
	}

	wrapped := Wrap(ErrCodeTimeout, New(ErrCodeNetwork, "inner"), "outer")
	if code := GetCode(wrapped); code != ErrCodeTimeout {
		t.Errorf("GetCode() = %v, want %v", code, ErrCodeTimeout)
	}
}

func TestUserMessage(t *testing.T) {
	if msg := UserMessage(New(ErrCodeInvalidRule, "rule has no effect")); msg != "rule has no effect" {
		t.Errorf("UserMessage() = %v, want %v", msg, "rule has no effect")
	}

	if msg := UserMessage(errors.New("plain error")); msg != "plain error" {
		t.Errorf("UserMessage() = %v, want %v", msg, "plain error")
	}
}
