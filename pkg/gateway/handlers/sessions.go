package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carelingo/carelingo/pkg/core"
	"github.com/carelingo/carelingo/pkg/gateway/auth"
	"github.com/carelingo/carelingo/pkg/practice"
)

type sessionResponse struct {
	SessionID     string             `json:"session_id"`
	Scenario      *practice.Scenario `json:"scenario,omitempty"`
	Messages      []core.Message     `json:"messages"`
	Feedback      *core.Feedback     `json:"feedback,omitempty"`
	Turns         int                `json:"turns"`
	MaxRecordings int                `json:"max_recordings"`
	LastError     string             `json:"last_error,omitempty"`
}

func (h *Handlers) sessionSnapshot(id string, state practice.SessionState) sessionResponse {
	msgs := state.Messages
	if msgs == nil {
		msgs = []core.Message{}
	}
	return sessionResponse{
		SessionID:     id,
		Scenario:      state.Scenario,
		Messages:      msgs,
		Feedback:      state.Feedback,
		Turns:         state.Turns,
		MaxRecordings: h.Config.MaxRecordings,
		LastError:     state.LastError,
	}
}

// CreateSession registers a fresh practice session.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.Registry.Create(auth.Authenticated(r.Context()))
	if !ok {
		h.writeErr(w, r, core.NewRateLimitError("session capacity reached, try again later", 60))
		return
	}
	h.writeJSON(w, http.StatusCreated, h.sessionSnapshot(s.ID, s.State()))
}

// GetSession returns a state snapshot.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.sessionSnapshot(s.ID, s.State()))
}

// DeleteSession ends a session and releases its resources.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.Registry.Remove(id) {
		h.writeErr(w, r, core.NewNotFoundError("session not found"))
		return
	}
	h.Limiter.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

type selectScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// SelectScenario starts a fresh conversation in the named scenario.
func (h *Handlers) SelectScenario(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<10))
	if err != nil {
		h.writeErr(w, r, core.NewInvalidRequestError("failed to read request body"))
		return
	}
	var req selectScenarioRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeErr(w, r, core.NewInvalidRequestError("invalid JSON body"))
		return
	}
	if _, found := practice.ScenarioByID(req.ScenarioID); !found {
		h.writeErr(w, r, core.NewInvalidRequestErrorWithParam("unknown scenario", "scenario_id"))
		return
	}

	state := s.Update(func(cur practice.SessionState) practice.SessionState {
		next, _ := cur.SelectScenario(req.ScenarioID)
		return next
	})
	h.writeJSON(w, http.StatusOK, h.sessionSnapshot(s.ID, state))
}

// RetryLastTurn drops the most recent exchange so the learner can try again.
func (h *Handlers) RetryLastTurn(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	state := s.Update(func(cur practice.SessionState) practice.SessionState {
		return cur.RetryLastTurn()
	})
	h.writeJSON(w, http.StatusOK, h.sessionSnapshot(s.ID, state))
}
