package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// doRequest sends a non-streaming generateContent request for model.
func (c *Client) doRequest(ctx context.Context, model string, req *generateRequest) ([]byte, error) {
	if strings.TrimSpace(model) == "" {
		return nil, &Error{Type: ErrInvalidRequest, Message: "no model resolved"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.generateContentURL(model), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.parseError(resp)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return respBody, nil
}

// generateContentURL builds the endpoint URL for model. Model names may
// arrive with or without the "models/" resource prefix; both are accepted.
func (c *Client) generateContentURL(model string) string {
	name := strings.TrimPrefix(model, "models/")
	return strings.TrimRight(c.baseURL, "/") + "/models/" + url.PathEscape(name) + ":generateContent"
}
