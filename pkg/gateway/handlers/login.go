package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/carelingo/carelingo/pkg/core"
)

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string `json:"token,omitempty"`
	GateDisabled bool   `json:"gate_disabled,omitempty"`
}

// Login checks the shared password and mints an access token. With no
// password configured it reports the gate as disabled so clients skip the
// login screen.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if !h.Gate.Enabled() {
		h.writeJSON(w, http.StatusOK, loginResponse{GateDisabled: true})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4<<10))
	if err != nil {
		h.writeErr(w, r, core.NewInvalidRequestError("failed to read request body"))
		return
	}
	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.writeErr(w, r, core.NewInvalidRequestError("invalid JSON body"))
		return
	}

	token, ok := h.Gate.Authenticate(req.Password)
	if !ok {
		h.writeErr(w, r, core.NewAuthenticationError("access denied"))
		return
	}
	h.writeJSON(w, http.StatusOK, loginResponse{Token: token})
}
