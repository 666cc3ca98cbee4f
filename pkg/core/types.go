package core

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single exchange entry in a practice conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Feedback is the tutor critique attached to the most recent turn. Scores
// are on a 1-10 scale; a zero means the model omitted the score.
type Feedback struct {
	Grammar      int    `json:"grammar"`
	Politeness   int    `json:"politeness"`
	Medical      int    `json:"medical"`
	Critique     string `json:"critique"`
	BetterPhrase string `json:"better_phrase"`
}
