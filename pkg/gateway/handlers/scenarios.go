package handlers

import (
	"net/http"

	"github.com/carelingo/carelingo/pkg/practice"
)

type scenariosResponse struct {
	Scenarios []practice.Scenario `json:"scenarios"`
}

// Scenarios lists the scenario catalog in display order.
func (h *Handlers) Scenarios(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, scenariosResponse{Scenarios: practice.Scenarios()})
}
