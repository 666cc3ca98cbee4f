package handlers

import (
	"net/http"
)

// Health is the liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type readyResponse struct {
	OK            bool   `json:"ok"`
	Model         string `json:"model,omitempty"`
	GateEnabled   bool   `json:"gate_enabled"`
	TTSProvider   string `json:"tts_provider"`
	SessionsAlive int    `json:"sessions_alive"`
	Issue         string `json:"issue,omitempty"`
}

// ActiveModel reports the pinned model name; set by main after resolution.
// Empty means resolution is still deferred.
type ActiveModel interface {
	Model() string
}

// Ready reports readiness: the service is degraded while no model is
// pinned and CARELINGO_REQUIRE_MODEL is set.
func (h *Handlers) Ready(model ActiveModel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyResponse{
			OK:            true,
			GateEnabled:   h.Gate.Enabled(),
			TTSProvider:   h.Config.TTSProvider,
			SessionsAlive: h.Registry.Count(),
		}
		if model != nil {
			resp.Model = model.Model()
		}
		status := http.StatusOK
		if h.Config.RequireModel && resp.Model == "" {
			resp.OK = false
			resp.Issue = "no language model resolved"
			status = http.StatusServiceUnavailable
		}
		h.writeJSON(w, status, resp)
	}
}
