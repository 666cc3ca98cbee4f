// Package practice implements the language practice domain: the scenario
// catalog, session state with pure reducers, and the turn processor that
// drives one recording through transcription, analysis, and synthesis.
package practice

// Scenario is an immutable roleplay setting. The learner always plays the
// nurse; the model plays the persona described by Role.
type Scenario struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Role        string `json:"role"`
	Goal        string `json:"goal"`
	Context     string `json:"context"` // scene-setting line fed to the roleplay prompt
}

// scenarios is the built-in catalog, in display order.
var scenarios = []Scenario{
	{
		ID:          "admission",
		Title:       "Patient Admission",
		Icon:        "📋",
		Description: "Collect history from an anxious new patient.",
		Role:        "You are Herr Müller. Anxious, speaks only German.",
		Goal:        "Get medical history.",
		Context:     "A hospital ward. Herr Müller was admitted this morning and waits for his intake interview.",
	},
	{
		ID:          "medication",
		Title:       "Medication Refusal",
		Icon:        "💊",
		Description: "Convince a patient to take their pills.",
		Role:        "You are Frau Schneider. You refuse pills.",
		Goal:        "Explain necessity.",
		Context:     "Morning medication round. Frau Schneider has pushed the pill cup away.",
	},
	{
		ID:          "emergency",
		Title:       "Emergency Triage",
		Icon:        "🚨",
		Description: "Handle a collapsed visitor scenario.",
		Role:        "Visitor whose husband collapsed.",
		Goal:        "Get vitals fast.",
		Context:     "The hospital lobby. A visitor's husband has just collapsed next to the reception desk.",
	},
}

// Scenarios returns the catalog in display order. The returned slice is a
// copy; callers may not mutate the catalog.
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// ScenarioByID looks up a scenario by its id.
func ScenarioByID(id string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}
