package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/carelingo/carelingo/pkg/core"
	"github.com/carelingo/carelingo/pkg/gateway/apierror"
)

// NotFound keeps unknown routes on the JSON error envelope.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeErr(w, r, core.NewNotFoundError("not found"))
}

// MethodNotAllowed reports a known path hit with the wrong verb.
func (h *Handlers) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusMethodNotAllowed)
	_ = json.NewEncoder(w).Encode(apierror.Envelope{
		Error: core.NewInvalidRequestError("method not allowed"),
	})
}
