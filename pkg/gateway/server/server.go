// Package server assembles the gateway: configuration, middleware,
// routes, and the turn-processing dependencies behind them.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/carelingo/carelingo/pkg/core/providers/gemini"
	"github.com/carelingo/carelingo/pkg/core/voice/tts"
	"github.com/carelingo/carelingo/pkg/gateway/auth"
	"github.com/carelingo/carelingo/pkg/gateway/config"
	"github.com/carelingo/carelingo/pkg/gateway/handlers"
	"github.com/carelingo/carelingo/pkg/gateway/metrics"
	"github.com/carelingo/carelingo/pkg/gateway/mw"
	"github.com/carelingo/carelingo/pkg/gateway/ratelimit"
	"github.com/carelingo/carelingo/pkg/gateway/sessions"
	"github.com/carelingo/carelingo/pkg/practice"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	router chi.Router

	model    *gemini.Client
	gate     *auth.Gate
	registry *sessions.Registry
	limiter  *ratelimit.Limiter
	metrics  *metrics.Metrics

	resolveMu sync.Mutex
}

func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	gate, err := auth.NewGate(cfg.APPPassword, cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	synth, err := newSynthesizer(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		model:    gemini.New(cfg.GeminiAPIKey),
		gate:     gate,
		registry: sessions.NewRegistry(cfg.SessionTTL, cfg.MaxSessions),
		limiter: ratelimit.New(ratelimit.Config{
			RPS:   cfg.LimitRPS,
			Burst: cfg.LimitBurst,
		}),
		metrics: metrics.New("carelingo"),
	}

	s.registry.OnCreate = s.metrics.RecordSessionStart
	s.registry.OnRemove = s.metrics.RecordSessionEnd

	proc := practice.NewProcessor(s.model, synth, practice.ProcessorConfig{
		MaxRecordings:     cfg.MaxRecordings,
		HistoryWindow:     cfg.HistoryWindow,
		Language:          cfg.Language,
		Voice:             cfg.TTSVoice,
		TranscribeTimeout: cfg.TranscribeTimeout,
		AnalyzeTimeout:    cfg.AnalyzeTimeout,
		SynthesizeTimeout: cfg.SynthesizeTimeout,
		Logger:            logger,
	})

	h := &handlers.Handlers{
		Config:      cfg,
		Logger:      logger,
		Gate:        gate,
		Registry:    s.registry,
		Limiter:     s.limiter,
		Metrics:     s.metrics,
		Processor:   proc,
		EnsureModel: s.ensureModel,
	}

	s.router = routes(h, s.model)
	return s, nil
}

func newSynthesizer(cfg config.Config) (tts.Provider, error) {
	switch cfg.TTSProvider {
	case "googletranslate":
		return tts.NewGoogleTranslate(), nil
	case "elevenlabs":
		return tts.NewElevenLabs(cfg.ElevenLabsAPIKey), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", cfg.TTSProvider)
	}
}

func routes(h *handlers.Handlers, model handlers.ActiveModel) chi.Router {
	r := chi.NewRouter()
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready(model))
	r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Get("/scenarios", h.Scenarios)

		r.Post("/sessions", h.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Post("/scenario", h.SelectScenario)
			r.Post("/turns", h.ProcessTurn)
			r.Post("/retry", h.RetryLastTurn)
			r.Get("/events", h.Events)
		})
	})

	return r
}

// Handler returns the fully wrapped HTTP handler. Middleware order is
// outermost first: request IDs and logging see every request, the gate
// runs after CORS so preflights never need credentials.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = mw.Gate(s.gate, h)
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// ResolveModel probes candidate models and pins the first reachable one.
// Called once at startup; turn handlers retry lazily via ensureModel if
// startup resolution failed and RequireModel is off.
func (s *Server) ResolveModel(ctx context.Context) (string, error) {
	s.resolveMu.Lock()
	defer s.resolveMu.Unlock()
	if name := s.model.Model(); name != "" {
		return name, nil
	}
	return s.model.ResolveModel(ctx, s.logger, s.cfg.ModelCandidates)
}

func (s *Server) ensureModel(ctx context.Context) error {
	if s.model.Model() != "" {
		return nil
	}
	_, err := s.ResolveModel(ctx)
	return err
}

// StartSweeper evicts idle sessions in the background until stop closes.
func (s *Server) StartSweeper(stop <-chan struct{}) {
	interval := s.cfg.SessionTTL / 4
	s.registry.StartSweeper(interval, stop)
}
