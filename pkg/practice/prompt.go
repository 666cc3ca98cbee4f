package practice

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carelingo/carelingo/pkg/core"
)

// transcribeInstruction is sent alongside the audio payload. The model must
// return only the spoken German text, nothing else.
const transcribeInstruction = "Transcribe this German audio exactly. Output ONLY the German text."

// feedbackSchema constrains the combined roleplay+critique call to the exact
// JSON shape the turn processor parses.
var feedbackSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "response_text": {"type": "string"},
    "feedback": {
      "type": "object",
      "properties": {
        "grammar": {"type": "integer"},
        "politeness": {"type": "integer"},
        "medical": {"type": "integer"},
        "critique": {"type": "string"},
        "better_phrase": {"type": "string"}
      },
      "required": ["grammar", "politeness", "medical", "critique", "better_phrase"]
    }
  },
  "required": ["response_text", "feedback"]
}`)

// analysisSystemPrompt builds the system instruction for one analysis call:
// persona, scene, goal, language, reply length bound, and the output contract.
func analysisSystemPrompt(scen *Scenario) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Roleplay as: %s\n", scen.Role)
	if scen.Context != "" {
		fmt.Fprintf(&sb, "Scene: %s\n", scen.Context)
	}
	fmt.Fprintf(&sb, "Goal: %s\n", scen.Goal)
	sb.WriteString("Language: German.\n")
	sb.WriteString("Stay in character. Keep response_text to at most 2 short sentences (about 20 words).\n")
	sb.WriteString("Output JSON: {\n")
	sb.WriteString(`  "response_text": "German reply",` + "\n")
	sb.WriteString(`  "feedback": {` + "\n")
	sb.WriteString(`    "grammar": (1-10), "politeness": (1-10), "medical": (1-10),` + "\n")
	sb.WriteString(`    "critique": "Short English tip", "better_phrase": "German correction"` + "\n")
	sb.WriteString("  }\n}\n")
	return sb.String()
}

// analysisPrompt builds the user prompt: a truncated history window followed
// by the fresh transcript. window bounds how many prior messages are
// included; zero or negative means no history.
func analysisPrompt(messages []core.Message, transcript string, window int) string {
	var sb strings.Builder

	if window > 0 && len(messages) > 0 {
		start := len(messages) - window
		if start < 0 {
			start = 0
		}
		sb.WriteString("Conversation so far:\n")
		for _, m := range messages[start:] {
			label := "Nurse"
			if m.Role == core.RoleAssistant {
				label = "Patient"
			}
			fmt.Fprintf(&sb, "%s: %s\n", label, m.Content)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "User: %s", transcript)
	return sb.String()
}
