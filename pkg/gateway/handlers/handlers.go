// Package handlers implements the gateway's HTTP endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/carelingo/carelingo/pkg/core"
	"github.com/carelingo/carelingo/pkg/gateway/apierror"
	"github.com/carelingo/carelingo/pkg/gateway/auth"
	"github.com/carelingo/carelingo/pkg/gateway/config"
	"github.com/carelingo/carelingo/pkg/gateway/metrics"
	"github.com/carelingo/carelingo/pkg/gateway/mw"
	"github.com/carelingo/carelingo/pkg/gateway/ratelimit"
	"github.com/carelingo/carelingo/pkg/gateway/sessions"
	"github.com/carelingo/carelingo/pkg/practice"
)

// Handlers bundles the dependencies shared by all endpoints.
type Handlers struct {
	Config    config.Config
	Logger    *slog.Logger
	Gate      *auth.Gate
	Registry  *sessions.Registry
	Limiter   *ratelimit.Limiter
	Metrics   *metrics.Metrics
	Processor *practice.Processor

	// EnsureModel resolves the active model lazily. It returns a
	// model-unavailable error while no candidate is reachable.
	EnsureModel func(ctx context.Context) error
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handlers) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	coreErr, status := apierror.FromError(err, reqID)
	if h.Metrics != nil && coreErr != nil {
		h.Metrics.RecordError(string(coreErr.Type))
	}
	if coreErr != nil && coreErr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(coreErr.RetryAfter))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apierror.Envelope{Error: coreErr})
}

// session resolves the {id} path parameter to a live session, writing a
// not-found error when it is missing.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request, id string) (*sessions.Session, bool) {
	s, ok := h.Registry.Get(id)
	if !ok {
		h.writeErr(w, r, core.NewNotFoundError("session not found"))
		return nil, false
	}
	return s, true
}
