package config

import (
	"strings"
	"testing"
	"time"
)

var carelingoEnvKeys = []string{
	"CARELINGO_ADDR",
	"GEMINI_API_KEY",
	"APP_PASSWORD",
	"CARELINGO_TOKEN_SECRET",
	"CARELINGO_TOKEN_TTL",
	"CARELINGO_MODEL_CANDIDATES",
	"CARELINGO_REQUIRE_MODEL",
	"CARELINGO_LANGUAGE",
	"CARELINGO_HISTORY_WINDOW",
	"CARELINGO_MAX_RECORDINGS",
	"CARELINGO_MAX_AUDIO_BYTES",
	"CARELINGO_TRANSCRIBE_TIMEOUT",
	"CARELINGO_ANALYZE_TIMEOUT",
	"CARELINGO_SYNTHESIZE_TIMEOUT",
	"CARELINGO_TTS_PROVIDER",
	"CARELINGO_TTS_VOICE",
	"ELEVENLABS_API_KEY",
	"CARELINGO_SESSION_TTL",
	"CARELINGO_MAX_SESSIONS",
	"CARELINGO_RATE_LIMIT_RPS",
	"CARELINGO_RATE_LIMIT_BURST",
	"CARELINGO_CORS_ORIGINS",
	"CARELINGO_WS_WRITE_TIMEOUT",
	"CARELINGO_WS_PING_INTERVAL",
	"CARELINGO_READ_HEADER_TIMEOUT",
	"CARELINGO_READ_TIMEOUT",
	"CARELINGO_SHUTDOWN_GRACE_PERIOD",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range carelingoEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Fatalf("GeminiAPIKey = %q, want test-key", cfg.GeminiAPIKey)
	}
	if cfg.GateEnabled() {
		t.Fatal("GateEnabled() = true, want false with no APP_PASSWORD")
	}
	if cfg.Language != "de" {
		t.Fatalf("Language = %q, want de", cfg.Language)
	}
	if cfg.HistoryWindow != 6 {
		t.Fatalf("HistoryWindow = %d, want 6", cfg.HistoryWindow)
	}
	if cfg.MaxRecordings != 20 {
		t.Fatalf("MaxRecordings = %d, want 20", cfg.MaxRecordings)
	}
	if cfg.MaxAudioBytes != 8<<20 {
		t.Fatalf("MaxAudioBytes = %d, want %d", cfg.MaxAudioBytes, int64(8<<20))
	}
	if cfg.TTSProvider != "googletranslate" {
		t.Fatalf("TTSProvider = %q, want googletranslate", cfg.TTSProvider)
	}
	if len(cfg.ModelCandidates) != 0 {
		t.Fatalf("ModelCandidates = %v, want empty", cfg.ModelCandidates)
	}
	if cfg.RequireModel {
		t.Fatal("RequireModel = true, want false")
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("SessionTTL = %v, want 2h", cfg.SessionTTL)
	}
	if cfg.TranscribeTimeout != 30*time.Second {
		t.Fatalf("TranscribeTimeout = %v, want 30s", cfg.TranscribeTimeout)
	}
	if cfg.ShutdownGracePeriod != 30*time.Second {
		t.Fatalf("ShutdownGracePeriod = %v, want 30s", cfg.ShutdownGracePeriod)
	}
}

func TestLoadFromEnv_RequiresGeminiKey(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromEnv()
	if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("LoadFromEnv() error = %v, want GEMINI_API_KEY error", err)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("APP_PASSWORD", "geheim")
	t.Setenv("CARELINGO_MODEL_CANDIDATES", "model-a, model-b ,")
	t.Setenv("CARELINGO_MAX_RECORDINGS", "5")
	t.Setenv("CARELINGO_TRANSCRIBE_TIMEOUT", "45s")
	t.Setenv("CARELINGO_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CARELINGO_REQUIRE_MODEL", "true")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}

	if !cfg.GateEnabled() {
		t.Fatal("GateEnabled() = false, want true")
	}
	if len(cfg.ModelCandidates) != 2 || cfg.ModelCandidates[0] != "model-a" || cfg.ModelCandidates[1] != "model-b" {
		t.Fatalf("ModelCandidates = %v, want [model-a model-b]", cfg.ModelCandidates)
	}
	if cfg.MaxRecordings != 5 {
		t.Fatalf("MaxRecordings = %d, want 5", cfg.MaxRecordings)
	}
	if cfg.TranscribeTimeout != 45*time.Second {
		t.Fatalf("TranscribeTimeout = %v, want 45s", cfg.TranscribeTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v, want 2 entries", cfg.CORSAllowedOrigins)
	}
	if _, ok := cfg.CORSAllowedOrigins["https://a.example"]; !ok {
		t.Fatal("CORSAllowedOrigins missing https://a.example")
	}
	if !cfg.RequireModel {
		t.Fatal("RequireModel = false, want true")
	}
}

func TestLoadFromEnv_Validation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"zero recordings", "CARELINGO_MAX_RECORDINGS", "0", "CARELINGO_MAX_RECORDINGS"},
		{"negative history", "CARELINGO_HISTORY_WINDOW", "-1", "CARELINGO_HISTORY_WINDOW"},
		{"bad tts provider", "CARELINGO_TTS_PROVIDER", "espeak", "CARELINGO_TTS_PROVIDER"},
		{"zero session ttl", "CARELINGO_SESSION_TTL", "0s", "CARELINGO_SESSION_TTL"},
		{"negative rps", "CARELINGO_RATE_LIMIT_RPS", "-1", "CARELINGO_RATE_LIMIT_RPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("GEMINI_API_KEY", "k")
			t.Setenv(tt.key, tt.val)

			_, err := LoadFromEnv()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("LoadFromEnv() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_ElevenLabsNeedsKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("CARELINGO_TTS_PROVIDER", "elevenlabs")

	_, err := LoadFromEnv()
	if err == nil || !strings.Contains(err.Error(), "ELEVENLABS_API_KEY") {
		t.Fatalf("LoadFromEnv() error = %v, want ELEVENLABS_API_KEY error", err)
	}
}

func TestLoadFromEnv_ElevenLabsNeedsVoice(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("CARELINGO_TTS_PROVIDER", "elevenlabs")
	t.Setenv("ELEVENLABS_API_KEY", "xi")

	_, err := LoadFromEnv()
	if err == nil || !strings.Contains(err.Error(), "CARELINGO_TTS_VOICE") {
		t.Fatalf("LoadFromEnv() error = %v, want CARELINGO_TTS_VOICE error", err)
	}

	t.Setenv("CARELINGO_TTS_VOICE", "voice-1")
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.TTSVoice != "voice-1" {
		t.Fatalf("TTSVoice = %q, want voice-1", cfg.TTSVoice)
	}
}
