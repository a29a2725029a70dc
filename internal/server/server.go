/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/friendsincode/grimnir_timeline/internal/config"
	"github.com/friendsincode/grimnir_timeline/internal/dom"
	"github.com/friendsincode/grimnir_timeline/internal/eventbus"
	"github.com/friendsincode/grimnir_timeline/internal/events"
	"github.com/friendsincode/grimnir_timeline/internal/logbuffer"
	"github.com/friendsincode/grimnir_timeline/internal/telemetry"
	"github.com/friendsincode/grimnir_timeline/internal/timeline"
)

// Server hosts one mounted timeline control over HTTP and websockets.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	bus       *events.Bus
	logBuffer *logbuffer.Buffer
	timeline  *timeline.Controller
	host      *dom.Element

	// ctx is cancelled by Close so long-lived websocket handlers return.
	ctx     context.Context
	cancel  context.CancelFunc
	clients sync.WaitGroup

	// clientsMu orders clients.Add against the Wait in Close.
	clientsMu sync.Mutex
	closed    bool
}

// New creates the timeline controller from opts, mounts it and wires the
// HTTP routes. Callbacks already set on opts keep firing. logBuf may be
// nil, in which case /api/logs reports an empty list.
func New(cfg *config.Config, opts timeline.Options, logBuf *logbuffer.Buffer, logger zerolog.Logger) (*Server, error) {
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("timeline-http"))
	router.Use(telemetry.MetricsMiddleware)
	// Skip timeout for WebSocket connections
	router.Use(func(next http.Handler) http.Handler {
		timeout := middleware.Timeout(30 * time.Second)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, r)
				return
			}
			timeout(next).ServeHTTP(w, r)
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{
		cfg:       cfg,
		logger:    logger,
		router:    router,
		bus:       events.NewBus(),
		logBuffer: logBuf,
		host:      dom.Create("main", "timeline-host", nil),
		ctx:       ctx,
		cancel:    cancel,
	}

	srv.initRedisMirror()

	if err := srv.initTimeline(opts); err != nil {
		_ = srv.Close()
		return nil, err
	}

	srv.configureRoutes()

	srv.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		// WriteTimeout stays 0 for websocket connections; the middleware
		// timeout covers plain routes.
		IdleTimeout: 60 * time.Second,
	}

	return srv, nil
}

// initRedisMirror forwards bus events to Redis when configured. An
// unreachable Redis only disables the mirror.
func (s *Server) initRedisMirror() {
	if s.cfg.RedisAddr == "" {
		return
	}
	mirror, err := eventbus.NewRedisMirror(s.ctx, eventbus.RedisConfig{
		Addr:          s.cfg.RedisAddr,
		Password:      s.cfg.RedisPassword,
		DB:            s.cfg.RedisDB,
		ChannelPrefix: s.cfg.RedisChannelPrefix,
	}, s.bus, s.logger)
	if err != nil {
		s.logger.Warn().Err(err).Msg("redis mirror disabled")
		return
	}
	mirror.Start(s.ctx)
	s.DeferClose(mirror.Close)
}

func (s *Server) initTimeline(opts timeline.Options) error {
	onNextStep := opts.OnNextStep
	onStepChange := opts.OnStepChange
	onPlayback := opts.OnPlaybackChange

	opts.OnNextStep = func(step time.Time) {
		if onNextStep != nil {
			onNextStep(step)
		}
	}
	opts.OnStepChange = func(change timeline.StepChange) {
		telemetry.RecordStep(change.Cause.String(), change.Index)
		s.bus.Publish(events.EventStepChanged, events.Payload{
			"index": change.Index,
			"step":  change.Step,
			"cause": change.Cause.String(),
		})
		if onStepChange != nil {
			onStepChange(change)
		}
	}
	opts.OnPlaybackChange = func(playing bool) {
		telemetry.RecordPlayback(playing)
		s.bus.Publish(events.EventPlaybackChanged, events.Payload{"playing": playing})
		if onPlayback != nil {
			onPlayback(playing)
		}
	}
	opts.Logger = s.logger

	ctrl, err := timeline.New(opts)
	if err != nil {
		return fmt.Errorf("create timeline: %w", err)
	}
	if _, err := ctrl.Mount(s.host); err != nil {
		return fmt.Errorf("mount timeline: %w", err)
	}
	s.timeline = ctrl
	s.DeferClose(func() error {
		ctrl.Unmount()
		return nil
	})

	snap := ctrl.Snapshot()
	telemetry.StepIndex.Set(float64(snap.Index))
	telemetry.RecordPlayback(snap.Playing)
	s.logger.Info().
		Int("steps", snap.Count).
		Bool("playing", snap.Playing).
		Msg("timeline mounted")
	return nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:; frame-ancestors 'none'; base-uri 'self'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

// requestLogger writes one debug line per request through zerolog.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Timeline returns the mounted controller.
func (s *Server) Timeline() *timeline.Controller {
	return s.timeline
}

// LogBuffer returns the buffer served on /api/logs.
func (s *Server) LogBuffer() *logbuffer.Buffer {
	return s.logBuffer
}

// Bus returns the event bus step and playback changes are published on.
func (s *Server) Bus() *events.Bus {
	return s.bus
}

// trackClient registers a websocket client unless the server is closing.
func (s *Server) trackClient() bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if s.closed {
		return false
	}
	s.clients.Add(1)
	return true
}

// Close disconnects websocket clients and releases owned resources in
// reverse order.
func (s *Server) Close() error {
	s.clientsMu.Lock()
	s.closed = true
	s.clientsMu.Unlock()

	s.cancel()
	s.clients.Wait()

	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}
