package practice

import (
	"strings"
	"testing"

	"github.com/carelingo/carelingo/pkg/core"
)

func TestAnalysisSystemPrompt(t *testing.T) {
	scen, _ := ScenarioByID("medication")
	got := analysisSystemPrompt(&scen)

	for _, want := range []string{scen.Role, scen.Goal, scen.Context, "Language: German", "response_text", "better_phrase"} {
		if !strings.Contains(got, want) {
			t.Errorf("system prompt missing %q:\n%s", want, got)
		}
	}
}

func TestAnalysisPrompt_HistoryWindow(t *testing.T) {
	var msgs []core.Message
	for i := 0; i < 10; i++ {
		role := core.RoleUser
		if i%2 == 1 {
			role = core.RoleAssistant
		}
		msgs = append(msgs, core.Message{Role: role, Content: strings.Repeat("m", 1) + string(rune('0'+i))})
	}

	got := analysisPrompt(msgs, "Neue Frage", 6)
	if strings.Contains(got, "m3") {
		t.Errorf("prompt includes message outside window:\n%s", got)
	}
	for _, want := range []string{"m4", "m9", "User: Neue Frage"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q:\n%s", want, got)
		}
	}

	// Window zero drops history entirely.
	got = analysisPrompt(msgs, "Neue Frage", 0)
	if strings.Contains(got, "Conversation so far") {
		t.Errorf("prompt with window 0 includes history:\n%s", got)
	}
	if got != "User: Neue Frage" {
		t.Errorf("prompt = %q, want transcript only", got)
	}
}
