// Package gemini implements a client for the Google Gemini generateContent
// API, covering the three call shapes the practice flow needs: a plain text
// liveness probe, audio transcription, and strict-JSON analysis output.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

const (
	// DefaultBaseURL is the default Gemini API endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultMaxTokens bounds generation output if not specified.
	DefaultMaxTokens = 1024
)

// Client is a Gemini API client bound to an API key. The active model is
// set once by ResolveModel (or WithModel) and reused for every call.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	model string
}

// New creates a new Gemini client.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "gemini"
}

// Model returns the active model name, or "" when none has been resolved.
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

func (c *Client) setModel(name string) {
	c.mu.Lock()
	c.model = name
	c.mu.Unlock()
}

// GenerateText sends a plain text prompt to the named model and returns the
// concatenated text of the first candidate.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	req := &generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt}},
		}},
		GenerationConfig: &genConfig{MaxOutputTokens: intPtr(DefaultMaxTokens)},
	}

	body, err := c.doRequest(ctx, model, req)
	if err != nil {
		return "", err
	}
	return parseText(body)
}

// Transcribe sends an audio payload plus a transcription instruction to the
// active model and returns the raw transcript text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType, instruction string) (string, error) {
	req := &generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: instruction},
				{InlineData: &blob{
					MIMEType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(audio),
				}},
			},
		}},
		GenerationConfig: &genConfig{MaxOutputTokens: intPtr(DefaultMaxTokens)},
	}

	body, err := c.doRequest(ctx, c.Model(), req)
	if err != nil {
		return "", err
	}
	return parseText(body)
}

// GenerateJSON sends a prompt with a system instruction to the active model,
// requesting strict JSON output constrained by schema. It returns the raw
// JSON text of the first candidate; the caller validates the shape.
func (c *Client) GenerateJSON(ctx context.Context, system, prompt string, schema json.RawMessage) (json.RawMessage, error) {
	req := &generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: prompt}},
		}},
		GenerationConfig: &genConfig{
			MaxOutputTokens:    intPtr(DefaultMaxTokens),
			ResponseMIMEType:   "application/json",
			ResponseJSONSchema: schema,
		},
	}
	if strings.TrimSpace(system) != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	body, err := c.doRequest(ctx, c.Model(), req)
	if err != nil {
		return nil, err
	}
	text, err := parseText(body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(text), nil
}

func intPtr(n int) *int { return &n }
