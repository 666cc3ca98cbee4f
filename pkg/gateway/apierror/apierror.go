// Package apierror maps canonical errors onto HTTP responses.
package apierror

import (
	"context"
	"errors"
	"net/http"

	"github.com/carelingo/carelingo/pkg/core"
	"github.com/carelingo/carelingo/pkg/core/providers/gemini"
)

type Envelope struct {
	Error *core.Error `json:"error"`
}

func FromError(err error, requestID string) (*core.Error, int) {
	if err == nil {
		return nil, http.StatusOK
	}

	// Already canonical. Checked before the context cases: a per-step
	// timeout arrives as the step's error wrapping ctx.Err(), and the
	// step classification must win over the generic timeout mapping.
	var coreErr *core.Error
	if errors.As(err, &coreErr) && coreErr != nil {
		out := *coreErr
		out.RequestID = requestID
		return &out, statusFromType(coreErr.Type)
	}

	// Raw context timeouts/cancellation.
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.Error{
			Type:      core.ErrAPI,
			Message:   "request timeout",
			RequestID: requestID,
		}, http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return &core.Error{
			Type:      core.ErrAPI,
			Message:   "request cancelled",
			Code:      "cancelled",
			RequestID: requestID,
		}, http.StatusRequestTimeout
	}

	// Raw provider errors that escaped the turn processor.
	var gemErr *gemini.Error
	if errors.As(err, &gemErr) && gemErr != nil {
		return &core.Error{
			Type:      geminiType(gemErr.Type),
			Message:   gemErr.Message,
			Code:      gemErr.Code,
			RequestID: requestID,
		}, statusFromType(geminiType(gemErr.Type))
	}

	// Unknown errors: treat as internal API error (do not leak details by default).
	return &core.Error{
		Type:      core.ErrAPI,
		Message:   "internal error",
		RequestID: requestID,
	}, http.StatusInternalServerError
}

func statusFromType(t core.ErrorType) int {
	switch t {
	case core.ErrInvalidRequest:
		return http.StatusBadRequest
	case core.ErrAuthentication:
		return http.StatusUnauthorized
	case core.ErrNotFound:
		return http.StatusNotFound
	case core.ErrRateLimit:
		return http.StatusTooManyRequests
	case core.ErrModelUnavailable:
		return http.StatusServiceUnavailable
	case core.ErrTranscription:
		// The recording reached us but produced no usable speech.
		return http.StatusUnprocessableEntity
	case core.ErrAnalysis, core.ErrSynthesis:
		return http.StatusBadGateway
	case core.ErrConfig:
		return http.StatusInternalServerError
	case core.ErrAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func geminiType(t gemini.ErrorType) core.ErrorType {
	switch t {
	case gemini.ErrInvalidRequest:
		return core.ErrInvalidRequest
	case gemini.ErrAuthentication, gemini.ErrPermission:
		return core.ErrAuthentication
	case gemini.ErrNotFound:
		return core.ErrNotFound
	case gemini.ErrRateLimit:
		return core.ErrRateLimit
	default:
		return core.ErrAPI
	}
}
