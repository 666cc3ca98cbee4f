// Package tts provides text-to-speech for tutor replies. Synthesis is a
// best-effort step: callers treat a failed synthesis as a text-only turn,
// so providers report errors rather than retrying internally.
package tts

import "context"

// Provider is the interface for text-to-speech services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error)
}

// SynthesizeOptions configures synthesis.
type SynthesizeOptions struct {
	Voice    string  // Voice identifier (provider specific)
	Language string  // BCP-47 language code, e.g. "de"
	Speed    float64 // Speed multiplier (0.6-1.5, default 1.0)
	Format   string  // Output format hint: "mp3" or "pcm"
}

// Synthesis is the result of synthesis.
type Synthesis struct {
	Audio  []byte // Audio data
	Format string // Audio format
}

func getFormat(format string) string {
	if format == "" {
		return "mp3"
	}
	return format
}
