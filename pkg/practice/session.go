package practice

import "github.com/carelingo/carelingo/pkg/core"

// SessionState is the complete state of one practice session. It has value
// semantics: reducers and the turn processor take a state and return a new
// one, never mutating the input. The Messages slice is copied on write.
//
// Invariant: after every completed reducer call Messages holds whole
// user/assistant pairs, so its length is always even.
type SessionState struct {
	Scenario      *Scenario
	Messages      []core.Message
	Feedback      *core.Feedback
	LastAudioID   string
	Turns         int
	Authenticated bool
	LastError     string
}

// NewSessionState returns the initial state: no scenario selected, empty
// conversation.
func NewSessionState() SessionState {
	return SessionState{}
}

// SelectScenario starts a fresh conversation in the given scenario. Any
// prior conversation, feedback, and turn count are discarded. An unknown id
// returns the state unchanged along with false.
func (s SessionState) SelectScenario(id string) (SessionState, bool) {
	scen, ok := ScenarioByID(id)
	if !ok {
		return s, false
	}
	next := s
	next.Scenario = &scen
	next.Messages = nil
	next.Feedback = nil
	next.LastAudioID = ""
	next.Turns = 0
	next.LastError = ""
	return next, true
}

// EndSession returns to the scenario picker, discarding the conversation.
func (s SessionState) EndSession() SessionState {
	next := s
	next.Scenario = nil
	next.Messages = nil
	next.Feedback = nil
	next.LastAudioID = ""
	next.Turns = 0
	next.LastError = ""
	return next
}

// RetryLastTurn removes the most recent user/assistant pair so the learner
// can re-record, clearing feedback and refunding the turn against the
// recording budget. With fewer than two messages it is a no-op.
func (s SessionState) RetryLastTurn() SessionState {
	if len(s.Messages) < 2 {
		return s
	}
	next := s
	next.Messages = append([]core.Message(nil), s.Messages[:len(s.Messages)-2]...)
	next.Feedback = nil
	next.LastAudioID = ""
	if next.Turns > 0 {
		next.Turns--
	}
	return next
}

// commitTurn appends a completed user/assistant exchange and the critique
// that came with it.
func (s SessionState) commitTurn(transcript, reply string, fb *core.Feedback, audioID string) SessionState {
	next := s
	next.Messages = append(append([]core.Message(nil), s.Messages...),
		core.Message{Role: core.RoleUser, Content: transcript},
		core.Message{Role: core.RoleAssistant, Content: reply},
	)
	next.Feedback = fb
	next.LastAudioID = audioID
	next.Turns++
	next.LastError = ""
	return next
}

// withError records a turn-scoped failure without touching the conversation.
func (s SessionState) withError(msg string) SessionState {
	next := s
	next.LastError = msg
	return next
}
