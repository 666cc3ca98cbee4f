// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Upstream credentials. GeminiAPIKey is required; APPPassword enables
	// the login gate when set.
	GeminiAPIKey string
	APPPassword  string

	// TokenSecret signs access tokens minted by the gate. Empty means a
	// random per-process secret, which invalidates tokens on restart.
	TokenSecret string
	TokenTTL    time.Duration

	// Model resolution.
	ModelCandidates []string // empty => built-in candidate list
	RequireModel    bool     // fail startup if no candidate is reachable

	// Turn pipeline.
	Language          string
	HistoryWindow     int
	MaxRecordings     int
	MaxAudioBytes     int64
	TranscribeTimeout time.Duration
	AnalyzeTimeout    time.Duration
	SynthesizeTimeout time.Duration

	// TTS.
	TTSProvider      string // "googletranslate" or "elevenlabs"
	TTSVoice         string
	ElevenLabsAPIKey string

	// Sessions.
	SessionTTL  time.Duration
	MaxSessions int

	// In-memory limits (per session).
	LimitRPS   float64
	LimitBurst int

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Event stream.
	WSWriteTimeout time.Duration
	WSPingInterval time.Duration

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("CARELINGO_ADDR", ":8080"),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		APPPassword:         os.Getenv("APP_PASSWORD"),
		TokenSecret:         strings.TrimSpace(os.Getenv("CARELINGO_TOKEN_SECRET")),
		TokenTTL:            envDurationOr("CARELINGO_TOKEN_TTL", 12*time.Hour),
		ModelCandidates:     splitCSV(os.Getenv("CARELINGO_MODEL_CANDIDATES")),
		RequireModel:        envBoolOr("CARELINGO_REQUIRE_MODEL", false),
		Language:            envOr("CARELINGO_LANGUAGE", "de"),
		HistoryWindow:       envIntOr("CARELINGO_HISTORY_WINDOW", 6),
		MaxRecordings:       envIntOr("CARELINGO_MAX_RECORDINGS", 20),
		MaxAudioBytes:       envInt64Or("CARELINGO_MAX_AUDIO_BYTES", 8<<20), // 8 MiB
		TranscribeTimeout:   envDurationOr("CARELINGO_TRANSCRIBE_TIMEOUT", 30*time.Second),
		AnalyzeTimeout:      envDurationOr("CARELINGO_ANALYZE_TIMEOUT", 30*time.Second),
		SynthesizeTimeout:   envDurationOr("CARELINGO_SYNTHESIZE_TIMEOUT", 20*time.Second),
		TTSProvider:         envOr("CARELINGO_TTS_PROVIDER", "googletranslate"),
		TTSVoice:            envOr("CARELINGO_TTS_VOICE", ""),
		ElevenLabsAPIKey:    strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		SessionTTL:          envDurationOr("CARELINGO_SESSION_TTL", 2*time.Hour),
		MaxSessions:         envIntOr("CARELINGO_MAX_SESSIONS", 500),
		LimitRPS:            envFloat64Or("CARELINGO_RATE_LIMIT_RPS", 2.0),
		LimitBurst:          envIntOr("CARELINGO_RATE_LIMIT_BURST", 4),
		CORSAllowedOrigins:  make(map[string]struct{}),
		WSWriteTimeout:      envDurationOr("CARELINGO_WS_WRITE_TIMEOUT", 5*time.Second),
		WSPingInterval:      envDurationOr("CARELINGO_WS_PING_INTERVAL", 20*time.Second),
		ReadHeaderTimeout:   envDurationOr("CARELINGO_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("CARELINGO_READ_TIMEOUT", 60*time.Second),
		ShutdownGracePeriod: envDurationOr("CARELINGO_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	for _, origin := range splitCSV(os.Getenv("CARELINGO_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("GEMINI_API_KEY must be set")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_TOKEN_TTL must be > 0")
	}
	if strings.TrimSpace(cfg.Language) == "" {
		return Config{}, fmt.Errorf("CARELINGO_LANGUAGE must not be empty")
	}
	if cfg.HistoryWindow < 0 {
		return Config{}, fmt.Errorf("CARELINGO_HISTORY_WINDOW must be >= 0")
	}
	if cfg.MaxRecordings <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_MAX_RECORDINGS must be > 0")
	}
	if cfg.MaxAudioBytes <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_MAX_AUDIO_BYTES must be > 0")
	}
	if cfg.TranscribeTimeout <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_TRANSCRIBE_TIMEOUT must be > 0")
	}
	if cfg.AnalyzeTimeout <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_ANALYZE_TIMEOUT must be > 0")
	}
	if cfg.SynthesizeTimeout <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_SYNTHESIZE_TIMEOUT must be > 0")
	}
	switch cfg.TTSProvider {
	case "googletranslate", "elevenlabs", "none":
	default:
		return Config{}, fmt.Errorf("CARELINGO_TTS_PROVIDER must be one of googletranslate|elevenlabs|none")
	}
	if cfg.TTSProvider == "elevenlabs" && cfg.ElevenLabsAPIKey == "" {
		return Config{}, fmt.Errorf("ELEVENLABS_API_KEY must be set when CARELINGO_TTS_PROVIDER=elevenlabs")
	}
	if cfg.TTSProvider == "elevenlabs" && strings.TrimSpace(cfg.TTSVoice) == "" {
		return Config{}, fmt.Errorf("CARELINGO_TTS_VOICE must be set when CARELINGO_TTS_PROVIDER=elevenlabs")
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_SESSION_TTL must be > 0")
	}
	if cfg.MaxSessions <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_MAX_SESSIONS must be > 0")
	}
	if cfg.LimitRPS < 0 {
		return Config{}, fmt.Errorf("CARELINGO_RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.LimitBurst < 0 {
		return Config{}, fmt.Errorf("CARELINGO_RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSPingInterval <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_WS_PING_INTERVAL must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("CARELINGO_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

// GateEnabled reports whether the login gate is active.
func (c Config) GateEnabled() bool {
	return c.APPPassword != ""
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return f
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
