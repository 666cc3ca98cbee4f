package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	googleTranslateDefaultBase = "https://translate.google.com/translate_tts"

	// The translate_tts endpoint rejects long inputs, so text is split
	// into chunks of at most this many runes and the MP3 segments are
	// concatenated. MPEG frames are self-delimiting, so plain
	// concatenation yields a playable file.
	googleTranslateMaxChunk = 200
)

// GoogleTranslateProvider synthesizes speech through the unofficial Google
// Translate TTS endpoint. It needs no API key, which makes it the default
// engine for tutor replies.
type GoogleTranslateProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewGoogleTranslate creates a Google Translate TTS provider.
func NewGoogleTranslate() *GoogleTranslateProvider {
	return &GoogleTranslateProvider{
		baseURL:    googleTranslateDefaultBase,
		httpClient: &http.Client{},
	}
}

// NewGoogleTranslateWithClient creates a provider with a custom HTTP client.
func NewGoogleTranslateWithClient(client *http.Client) *GoogleTranslateProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &GoogleTranslateProvider{
		baseURL:    googleTranslateDefaultBase,
		httpClient: client,
	}
}

// WithBaseURL overrides the endpoint (used in tests).
func (g *GoogleTranslateProvider) WithBaseURL(base string) *GoogleTranslateProvider {
	if g == nil {
		return g
	}
	base = strings.TrimSpace(base)
	if base != "" {
		g.baseURL = base
	}
	return g
}

// Name returns the provider identifier.
func (g *GoogleTranslateProvider) Name() string {
	return "googletranslate"
}

// Synthesize converts text to MP3 audio. Long text is fetched in chunks
// and the segments concatenated in order.
func (g *GoogleTranslateProvider) Synthesize(ctx context.Context, text string, opts SynthesizeOptions) (*Synthesis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}

	lang := strings.TrimSpace(opts.Language)
	if lang == "" {
		lang = "de"
	}

	var audio []byte
	for _, chunk := range splitChunks(text, googleTranslateMaxChunk) {
		segment, err := g.fetchChunk(ctx, chunk, lang)
		if err != nil {
			return nil, err
		}
		audio = append(audio, segment...)
	}

	return &Synthesis{
		Audio:  audio,
		Format: "mp3",
	}, nil
}

func (g *GoogleTranslateProvider) fetchChunk(ctx context.Context, text, lang string) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// The endpoint returns 403 for requests without a browser user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translate_tts returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("translate_tts returned empty audio")
	}
	return body, nil
}

// splitChunks splits text into pieces of at most max runes, preferring to
// break at sentence punctuation and falling back to spaces. A single word
// longer than max is split mid-word rather than dropped.
func splitChunks(text string, max int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var chunks []string
	remaining := []rune(text)
	for len(remaining) > 0 {
		if len(remaining) <= max {
			chunks = append(chunks, strings.TrimSpace(string(remaining)))
			break
		}

		window := remaining[:max]
		cut := lastBreak(window)
		if cut <= 0 {
			cut = max
		}
		chunk := strings.TrimSpace(string(remaining[:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = remaining[cut:]
		for len(remaining) > 0 && remaining[0] == ' ' {
			remaining = remaining[1:]
		}
	}
	return chunks
}

// lastBreak finds the best break position within window: the last sentence
// terminator if any, otherwise the last space. Returns -1 if neither exists.
func lastBreak(window []rune) int {
	lastSpace := -1
	lastStop := -1
	for i, r := range window {
		switch r {
		case '.', '!', '?':
			lastStop = i + 1
		case ' ':
			lastSpace = i
		}
	}
	if lastStop > 0 {
		return lastStop
	}
	return lastSpace
}
