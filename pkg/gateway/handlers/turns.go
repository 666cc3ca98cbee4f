package handlers

import (
	"encoding/base64"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carelingo/carelingo/pkg/core"
	"github.com/carelingo/carelingo/pkg/gateway/sessions"
	"github.com/carelingo/carelingo/pkg/practice"
)

type turnResponse struct {
	Duplicate  bool           `json:"duplicate,omitempty"`
	Transcript string         `json:"transcript,omitempty"`
	Reply      string         `json:"reply,omitempty"`
	Feedback   *core.Feedback `json:"feedback,omitempty"`
	AudioMP3   string         `json:"audio_mp3,omitempty"` // base64
	Turns      int            `json:"turns"`
}

// ProcessTurn accepts one recording and runs it through the pipeline. The
// audio arrives either as a multipart form (file field "audio", id field
// "audio_id") or as a raw body with the X-Audio-ID header.
func (h *Handlers) ProcessTurn(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if d := h.Limiter.AcquireRequest(s.ID, time.Now()); !d.Allowed {
		if h.Metrics != nil {
			h.Metrics.RecordRateLimitHit("rps")
		}
		h.writeErr(w, r, core.NewRateLimitError("too many requests", d.RetryAfter))
		return
	}

	// One turn at a time per session; a second recording is rejected,
	// not queued.
	turn := h.Limiter.AcquireTurn(s.ID, time.Now())
	if !turn.Allowed {
		if h.Metrics != nil {
			h.Metrics.RecordRateLimitHit("concurrent_turn")
		}
		h.writeErr(w, r, core.NewRateLimitError("a turn is already in progress", turn.RetryAfter))
		return
	}
	defer turn.Permit.Release()

	if h.EnsureModel != nil {
		if err := h.EnsureModel(r.Context()); err != nil {
			h.writeErr(w, r, err)
			return
		}
	}

	input, err := h.readTurnInput(w, r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	state := s.State()
	scenarioID := ""
	if state.Scenario != nil {
		scenarioID = state.Scenario.ID
	}

	start := time.Now()
	phaseStart := start
	progress := func(ts practice.TurnState) {
		now := time.Now()
		if h.Metrics != nil {
			if label := phaseLabel(ts); label != "" {
				h.Metrics.RecordPhase(label, now.Sub(phaseStart))
			}
		}
		phaseStart = now
		s.Publish(sessions.Event{
			Type:  "turn_state",
			State: string(ts),
			Turn:  state.Turns + 1,
		})
	}

	next, result, err := h.Processor.Process(r.Context(), state, input, progress)
	if err != nil {
		s.Update(func(practice.SessionState) practice.SessionState { return next })
		s.Publish(sessions.Event{Type: "turn_error", Error: err.Error()})
		if h.Metrics != nil {
			h.Metrics.RecordTurn(scenarioID, "error", time.Since(start))
		}
		h.writeErr(w, r, err)
		return
	}

	s.Update(func(practice.SessionState) practice.SessionState { return next })
	if h.Metrics != nil && !result.Duplicate {
		h.Metrics.RecordTurn(scenarioID, "ok", time.Since(start))
	}

	resp := turnResponse{
		Duplicate:  result.Duplicate,
		Transcript: result.Transcript,
		Reply:      result.Reply,
		Feedback:   result.Feedback,
		Turns:      next.Turns,
	}
	if len(result.Audio) > 0 {
		resp.AudioMP3 = base64.StdEncoding.EncodeToString(result.Audio)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) readTurnInput(w http.ResponseWriter, r *http.Request) (practice.TurnInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxAudioBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(h.Config.MaxAudioBytes); err != nil {
			return practice.TurnInput{}, core.NewInvalidRequestError("invalid multipart body")
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			return practice.TurnInput{}, core.NewInvalidRequestErrorWithParam("missing audio file", "audio")
		}
		defer file.Close()

		audio, err := io.ReadAll(file)
		if err != nil {
			return practice.TurnInput{}, core.NewInvalidRequestError("failed to read audio file")
		}

		mimeType := header.Header.Get("Content-Type")
		return practice.TurnInput{
			Audio:    audio,
			AudioID:  strings.TrimSpace(r.FormValue("audio_id")),
			MIMEType: mimeType,
		}, nil
	}

	audio, err := io.ReadAll(r.Body)
	if err != nil {
		return practice.TurnInput{}, core.NewInvalidRequestError("failed to read request body")
	}
	return practice.TurnInput{
		Audio:    audio,
		AudioID:  strings.TrimSpace(r.Header.Get("X-Audio-ID")),
		MIMEType: mediaType,
	}, nil
}

// phaseLabel names the phase that just ended when the pipeline moves to ts.
func phaseLabel(ts practice.TurnState) string {
	switch ts {
	case practice.TurnAnalyzing:
		return "transcribe"
	case practice.TurnSynthesizing:
		return "analyze"
	case practice.TurnComplete:
		return "synthesize"
	default:
		return ""
	}
}
