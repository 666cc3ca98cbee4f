package apierror

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/carelingo/carelingo/pkg/core"
	"github.com/carelingo/carelingo/pkg/core/providers/gemini"
)

func TestFromError_StepTimeoutKeepsStepType(t *testing.T) {
	// A per-step deadline arrives as the step's error wrapping ctx.Err();
	// the step classification must survive the mapping.
	cases := []struct {
		name       string
		err        error
		wantType   core.ErrorType
		wantStatus int
	}{
		{
			name:       "transcribe timeout",
			err:        core.NewTranscriptionError("transcription failed").WithCause(context.DeadlineExceeded),
			wantType:   core.ErrTranscription,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "analyze timeout",
			err:        core.NewAnalysisError("analysis failed").WithCause(context.DeadlineExceeded),
			wantType:   core.ErrAnalysis,
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "cancelled mid-turn",
			err:        core.NewTranscriptionError("transcription failed").WithCause(context.Canceled),
			wantType:   core.ErrTranscription,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, status := FromError(tc.err, "req_1")
			if got.Type != tc.wantType {
				t.Fatalf("Type = %v, want %v", got.Type, tc.wantType)
			}
			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d", status, tc.wantStatus)
			}
			if got.RequestID != "req_1" {
				t.Fatalf("RequestID = %q, want req_1", got.RequestID)
			}
		})
	}
}

func TestFromError_RawContextErrors(t *testing.T) {
	got, status := FromError(context.DeadlineExceeded, "req_2")
	if got.Type != core.ErrAPI || status != http.StatusGatewayTimeout {
		t.Fatalf("deadline: type=%v status=%d, want %v/504", got.Type, status, core.ErrAPI)
	}

	got, status = FromError(context.Canceled, "req_2")
	if got.Type != core.ErrAPI || status != http.StatusRequestTimeout {
		t.Fatalf("cancel: type=%v status=%d, want %v/408", got.Type, status, core.ErrAPI)
	}
	if got.Code != "cancelled" {
		t.Fatalf("cancel: Code = %q, want cancelled", got.Code)
	}
}

func TestFromError_CanonicalPassthrough(t *testing.T) {
	in := core.NewRateLimitError("too many requests", 7)
	got, status := FromError(in, "req_3")
	if got.Type != core.ErrRateLimit || status != http.StatusTooManyRequests {
		t.Fatalf("type=%v status=%d", got.Type, status)
	}
	if got.RetryAfter != 7 {
		t.Fatalf("RetryAfter = %d, want 7", got.RetryAfter)
	}
	// The input must not be mutated with the request id.
	if in.RequestID != "" {
		t.Fatalf("input RequestID = %q, want empty", in.RequestID)
	}
}

func TestFromError_ProviderError(t *testing.T) {
	gemErr := &gemini.Error{Type: gemini.ErrRateLimit, Message: "quota", Code: "429"}
	got, status := FromError(gemErr, "req_4")
	if got.Type != core.ErrRateLimit || status != http.StatusTooManyRequests {
		t.Fatalf("type=%v status=%d", got.Type, status)
	}
}

func TestFromError_UnknownErrorIsOpaque(t *testing.T) {
	got, status := FromError(errors.New("pq: connection refused"), "req_5")
	if got.Type != core.ErrAPI || status != http.StatusInternalServerError {
		t.Fatalf("type=%v status=%d", got.Type, status)
	}
	if got.Message != "internal error" {
		t.Fatalf("Message = %q, internals must not leak", got.Message)
	}
}
