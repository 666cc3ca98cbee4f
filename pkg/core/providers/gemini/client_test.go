package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func textResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"role":  "model",
				"parts": []map[string]any{{"text": text}},
			},
			"finishReason": "STOP",
		}},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestGenerateText(t *testing.T) {
	var gotPath string
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("x-goog-api-key = %q, want %q", got, "test-key")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(textResponse("Pong")))
	}))
	defer srv.Close()

	c := New("test-key", WithBaseURL(srv.URL))
	got, err := c.GenerateText(context.Background(), "gemini-1.5-flash", "Ping")
	if err != nil {
		t.Fatalf("GenerateText() error = %v", err)
	}
	if got != "Pong" {
		t.Errorf("GenerateText() = %q, want %q", got, "Pong")
	}
	if gotPath != "/models/gemini-1.5-flash:generateContent" {
		t.Errorf("path = %q, want %q", gotPath, "/models/gemini-1.5-flash:generateContent")
	}
	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "Ping" {
		t.Errorf("request contents = %+v, want single Ping part", gotBody.Contents)
	}
}

func TestGenerateContentURL_StripsModelsPrefix(t *testing.T) {
	c := New("k", WithBaseURL("https://example.test/v1beta"))
	got := c.generateContentURL("models/gemini-1.5-flash")
	want := "https://example.test/v1beta/models/gemini-1.5-flash:generateContent"
	if got != want {
		t.Errorf("generateContentURL() = %q, want %q", got, want)
	}
}

func TestTranscribe_SendsInlineAudio(t *testing.T) {
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(textResponse("Guten Tag")))
	}))
	defer srv.Close()

	c := New("k", WithBaseURL(srv.URL), WithModel("gemini-1.5-flash"))
	got, err := c.Transcribe(context.Background(), []byte{0x01, 0x02}, "audio/mp3", "Transcribe this.")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got != "Guten Tag" {
		t.Errorf("Transcribe() = %q, want %q", got, "Guten Tag")
	}

	parts := gotBody.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("len(parts) = %d, want 2", len(parts))
	}
	if parts[0].Text != "Transcribe this." {
		t.Errorf("instruction part = %q", parts[0].Text)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != "audio/mp3" {
		t.Errorf("inline data = %+v, want audio/mp3 blob", parts[1].InlineData)
	}
	if parts[1].InlineData.Data != "AQI=" {
		t.Errorf("inline data b64 = %q, want %q", parts[1].InlineData.Data, "AQI=")
	}
}

func TestGenerateJSON_RequestsStrictOutput(t *testing.T) {
	var gotBody generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Write([]byte(textResponse(`{"ok":true}`)))
	}))
	defer srv.Close()

	schema := json.RawMessage(`{"type":"object"}`)
	c := New("k", WithBaseURL(srv.URL), WithModel("gemini-1.5-flash"))
	got, err := c.GenerateJSON(context.Background(), "system text", "user text", schema)
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if string(got) != `{"ok":true}` {
		t.Errorf("GenerateJSON() = %s", got)
	}

	if gotBody.GenerationConfig == nil || gotBody.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Errorf("generation config = %+v, want responseMimeType application/json", gotBody.GenerationConfig)
	}
	if string(gotBody.GenerationConfig.ResponseJSONSchema) != `{"type":"object"}` {
		t.Errorf("response schema = %s", gotBody.GenerationConfig.ResponseJSONSchema)
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "system text" {
		t.Errorf("system instruction = %+v", gotBody.SystemInstruction)
	}
}

func TestDoRequest_NoModel(t *testing.T) {
	c := New("k")
	_, err := c.Transcribe(context.Background(), []byte{1}, "audio/mp3", "x")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *gemini.Error", err)
	}
	if apiErr.Type != ErrInvalidRequest {
		t.Errorf("Type = %v, want %v", apiErr.Type, ErrInvalidRequest)
	}
}

func TestParseError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantType   ErrorType
		wantSubstr string
	}{
		{
			name:     "quota",
			status:   429,
			body:     `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`,
			wantType: ErrRateLimit,
		},
		{
			name:     "bad key",
			status:   400,
			body:     `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`,
			wantType: ErrInvalidRequest,
		},
		{
			name:     "not found model",
			status:   404,
			body:     `{"error":{"code":404,"message":"model not found","status":"NOT_FOUND"}}`,
			wantType: ErrNotFound,
		},
		{
			name:     "overloaded",
			status:   503,
			body:     `{"error":{"code":503,"message":"try later","status":"UNAVAILABLE"}}`,
			wantType: ErrOverloaded,
		},
		{
			name:       "unparseable body",
			status:     502,
			body:       `upstream exploded`,
			wantType:   ErrProvider,
			wantSubstr: "upstream exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New("k", WithBaseURL(srv.URL), WithModel("gemini-1.5-flash"))
			_, err := c.GenerateText(context.Background(), "gemini-1.5-flash", "hi")
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *gemini.Error", err)
			}
			if apiErr.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", apiErr.Type, tt.wantType)
			}
			if tt.wantSubstr != "" && !strings.Contains(apiErr.Message, tt.wantSubstr) {
				t.Errorf("Message = %q, want substring %q", apiErr.Message, tt.wantSubstr)
			}
		})
	}
}

func TestParseText_NoCandidates(t *testing.T) {
	if _, err := parseText([]byte(`{"candidates":[]}`)); err == nil {
		t.Fatal("parseText() error = nil, want no-candidates error")
	}
}
