package practice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carelingo/carelingo/pkg/core"
	"github.com/carelingo/carelingo/pkg/core/voice/tts"
)

// TurnState names a phase of turn processing.
type TurnState string

const (
	TurnIdle         TurnState = "idle"
	TurnTranscribing TurnState = "transcribing"
	TurnAnalyzing    TurnState = "analyzing"
	TurnSynthesizing TurnState = "synthesizing"
	TurnComplete     TurnState = "complete"
)

// LanguageModel is the slice of the Gemini client the processor needs.
type LanguageModel interface {
	Transcribe(ctx context.Context, audio []byte, mimeType, instruction string) (string, error)
	GenerateJSON(ctx context.Context, system, prompt string, schema json.RawMessage) (json.RawMessage, error)
}

// TurnInput is one recording submitted for processing. AudioID is the
// client's change-detection id: resubmitting the same id is a no-op.
type TurnInput struct {
	Audio    []byte
	AudioID  string
	MIMEType string
}

// TurnResult is the outcome of a successfully processed turn.
type TurnResult struct {
	Transcript string
	Reply      string
	Feedback   *core.Feedback
	Audio      []byte // synthesized MP3, nil when synthesis failed
	Duplicate  bool   // true when the audio id matched the previous turn
}

// ProgressFunc observes phase transitions during Process.
type ProgressFunc func(state TurnState)

// ProcessorConfig bounds a processor's behavior.
type ProcessorConfig struct {
	MaxRecordings     int           // per-session recording budget
	HistoryWindow     int           // prior messages included in analysis
	Language          string        // synthesis language code
	Voice             string        // synthesis voice, provider specific
	TranscribeTimeout time.Duration // per-call, zero means no bound
	AnalyzeTimeout    time.Duration
	SynthesizeTimeout time.Duration
	Logger            *slog.Logger // synthesis failures are logged here; nil mutes them
}

// Processor runs the turn pipeline: transcribe, analyze, synthesize. It is
// stateless; all session state flows through Process.
type Processor struct {
	model LanguageModel
	tts   tts.Provider // nil disables synthesis
	cfg   ProcessorConfig
}

// NewProcessor creates a turn processor. synth may be nil, which makes
// every turn text-only.
func NewProcessor(model LanguageModel, synth tts.Provider, cfg ProcessorConfig) *Processor {
	if cfg.MaxRecordings <= 0 {
		cfg.MaxRecordings = 20
	}
	if cfg.HistoryWindow < 0 {
		cfg.HistoryWindow = 0
	}
	if cfg.Language == "" {
		cfg.Language = "de"
	}
	return &Processor{model: model, tts: synth, cfg: cfg}
}

// Process runs one recording through the full pipeline against state and
// returns the new state plus the turn result. On a turn-scoped failure the
// conversation is unchanged; only LastError on the returned state is set.
// progress may be nil.
func (p *Processor) Process(ctx context.Context, state SessionState, in TurnInput, progress ProgressFunc) (SessionState, *TurnResult, error) {
	notify := func(ts TurnState) {
		if progress != nil {
			progress(ts)
		}
	}

	if state.Scenario == nil {
		return state, nil, core.NewInvalidRequestError("no scenario selected")
	}
	if len(in.Audio) == 0 {
		return state, nil, core.NewInvalidRequestErrorWithParam("audio payload is empty", "audio")
	}

	// The browser recorder re-delivers the same clip on UI refreshes. A
	// matching id means this exact recording was already processed.
	if in.AudioID != "" && in.AudioID == state.LastAudioID {
		notify(TurnComplete)
		return state, &TurnResult{Duplicate: true}, nil
	}

	if state.Turns >= p.cfg.MaxRecordings {
		return state, nil, core.NewRateLimitError(
			fmt.Sprintf("session recording limit of %d reached", p.cfg.MaxRecordings), 0)
	}

	notify(TurnTranscribing)
	transcript, err := p.transcribe(ctx, in)
	if err != nil {
		notify(TurnIdle)
		return state.withError(err.Error()), nil, err
	}

	notify(TurnAnalyzing)
	reply, fb, err := p.analyze(ctx, state, transcript)
	if err != nil {
		// Discard the whole turn: a transcript without the tutor's reply
		// would leave the learner talking to silence.
		notify(TurnIdle)
		return state.withError(err.Error()), nil, err
	}

	notify(TurnSynthesizing)
	audio := p.synthesize(ctx, reply)

	next := state.commitTurn(transcript, reply, fb, in.AudioID)
	notify(TurnComplete)
	return next, &TurnResult{
		Transcript: transcript,
		Reply:      reply,
		Feedback:   fb,
		Audio:      audio,
	}, nil
}

func (p *Processor) transcribe(ctx context.Context, in TurnInput) (string, error) {
	ctx, cancel := withTimeout(ctx, p.cfg.TranscribeTimeout)
	defer cancel()

	mimeType := in.MIMEType
	if mimeType == "" {
		mimeType = "audio/mp3"
	}

	text, err := p.model.Transcribe(ctx, in.Audio, mimeType, transcribeInstruction)
	if err != nil {
		return "", core.NewTranscriptionError("transcription failed").WithCause(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", core.NewTranscriptionError("no speech detected in recording")
	}
	return text, nil
}

func (p *Processor) analyze(ctx context.Context, state SessionState, transcript string) (string, *core.Feedback, error) {
	ctx, cancel := withTimeout(ctx, p.cfg.AnalyzeTimeout)
	defer cancel()

	raw, err := p.model.GenerateJSON(ctx,
		analysisSystemPrompt(state.Scenario),
		analysisPrompt(state.Messages, transcript, p.cfg.HistoryWindow),
		feedbackSchema,
	)
	if err != nil {
		return "", nil, core.NewAnalysisError("analysis failed").WithCause(err)
	}
	return parseAnalysis(raw)
}

// parseAnalysis validates the model's JSON. The reply text and the feedback
// object are required; individual scores and critique fields are untrusted
// and get clamped or defaulted.
func parseAnalysis(raw json.RawMessage) (string, *core.Feedback, error) {
	var payload struct {
		ResponseText string `json:"response_text"`
		Feedback     *struct {
			Grammar      int    `json:"grammar"`
			Politeness   int    `json:"politeness"`
			Medical      int    `json:"medical"`
			Critique     string `json:"critique"`
			BetterPhrase string `json:"better_phrase"`
		} `json:"feedback"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", nil, core.NewAnalysisError("analysis returned invalid JSON").WithCause(err)
	}

	reply := strings.TrimSpace(payload.ResponseText)
	if reply == "" {
		return "", nil, core.NewAnalysisError("analysis returned no reply text")
	}
	if payload.Feedback == nil {
		return "", nil, core.NewAnalysisError("analysis returned no feedback")
	}

	fb := &core.Feedback{
		Grammar:      clampScore(payload.Feedback.Grammar),
		Politeness:   clampScore(payload.Feedback.Politeness),
		Medical:      clampScore(payload.Feedback.Medical),
		Critique:     strings.TrimSpace(payload.Feedback.Critique),
		BetterPhrase: strings.TrimSpace(payload.Feedback.BetterPhrase),
	}
	return reply, fb, nil
}

// clampScore forces a score into [1,10]. Zero stays zero: it marks a score
// the model omitted entirely.
func clampScore(n int) int {
	if n == 0 {
		return 0
	}
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

// synthesize renders the reply to speech. Failure is not an error: the
// turn commits as text-only and the caller gets nil audio.
func (p *Processor) synthesize(ctx context.Context, reply string) []byte {
	if p.tts == nil {
		return nil
	}
	ctx, cancel := withTimeout(ctx, p.cfg.SynthesizeTimeout)
	defer cancel()

	speech := CleanForSpeech(reply)
	if speech == "" {
		return nil
	}
	out, err := p.tts.Synthesize(ctx, speech, tts.SynthesizeOptions{
		Language: p.cfg.Language,
		Voice:    p.cfg.Voice,
		Format:   "mp3",
	})
	if err != nil {
		p.warnSynthesis(core.NewSynthesisError("speech synthesis failed").WithCause(err))
		return nil
	}
	if out == nil || len(out.Audio) == 0 {
		p.warnSynthesis(core.NewSynthesisError("synthesis returned no audio"))
		return nil
	}
	return out.Audio
}

// warnSynthesis records a degraded (text-only) turn. A persistently failing
// provider shows up here on every turn, which is the operator's signal.
func (p *Processor) warnSynthesis(err *core.Error) {
	if p.cfg.Logger == nil {
		return
	}
	p.cfg.Logger.Warn("turn degraded to text-only", "provider", p.tts.Name(), "error", err)
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
