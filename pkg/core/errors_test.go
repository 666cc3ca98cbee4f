package core

import (
	"errors"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Type:    ErrTranscription,
		Message: "empty transcript",
	}

	expected := "transcription_error: empty transcript"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestError_WithCode(t *testing.T) {
	err := &Error{
		Type:    ErrAnalysis,
		Message: "quota exceeded",
		Code:    "RESOURCE_EXHAUSTED",
	}

	expected := "analysis_error: quota exceeded (code: RESOURCE_EXHAUSTED)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestError_WithCause(t *testing.T) {
	cause := NewAPIError("upstream error")
	err := NewSynthesisError("tts failed").WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestError_TurnScoped(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{ErrTranscription, true},
		{ErrAnalysis, true},
		{ErrSynthesis, true},
		{ErrConfig, false},
		{ErrModelUnavailable, false},
		{ErrRateLimit, false},
		{ErrAPI, false},
	}

	for _, tt := range tests {
		err := &Error{Type: tt.errType}
		if got := err.TurnScoped(); got != tt.want {
			t.Errorf("TurnScoped() for %v = %v, want %v", tt.errType, got, tt.want)
		}
	}
}

func TestError_Fatal(t *testing.T) {
	if !NewConfigError("missing key").Fatal() {
		t.Error("config error should be fatal")
	}
	if !NewModelUnavailableError("no model").Fatal() {
		t.Error("model unavailable should be fatal")
	}
	if NewTranscriptionError("empty").Fatal() {
		t.Error("transcription error should not be fatal")
	}
}

func TestNewRateLimitError(t *testing.T) {
	err := NewRateLimitError("session recording limit reached", 60)
	if err.Type != ErrRateLimit {
		t.Errorf("Type = %v, want %v", err.Type, ErrRateLimit)
	}
	if err.RetryAfter != 60 {
		t.Errorf("RetryAfter = %d, want 60", err.RetryAfter)
	}
}
