/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/grimnir_timeline/internal/config"
	"github.com/friendsincode/grimnir_timeline/internal/logbuffer"
	"github.com/friendsincode/grimnir_timeline/internal/logging"
	"github.com/friendsincode/grimnir_timeline/internal/server"
	"github.com/friendsincode/grimnir_timeline/internal/telemetry"
	"github.com/friendsincode/grimnir_timeline/internal/timeline"
	"github.com/friendsincode/grimnir_timeline/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config

	timelineFile string
)

var rootCmd = &cobra.Command{
	Use:           "timeline",
	Version:       version.Get().String(),
	Short:         "Grimnir Timeline - step through time on a timer",
	Long:          "Grimnir Timeline turns a date range into discrete steps, plays through them on a timer and serves the control over HTTP.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the timeline control over HTTP",
	Long:  "Mount the timeline control and serve it with its JSON API, websocket feed and metrics.",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&timelineFile, "file", "f", "", "Timeline definition file (overrides TIMELINE_FILE)")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if timelineFile != "" {
		cfg.TimelineFile = timelineFile
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

// loadTimelineOptions reads the configured definition file.
func loadTimelineOptions() (timeline.Options, error) {
	tf, err := config.LoadTimeline(cfg.TimelineFile)
	if err != nil {
		return timeline.Options{}, err
	}
	opts, err := tf.ToOptions()
	if err != nil {
		return timeline.Options{}, fmt.Errorf("%s: %w", cfg.TimelineFile, err)
	}
	opts.Logger = logger
	return opts, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	// Capture logs for /api/logs next to the normal output.
	logBuf := logbuffer.New(2000)
	logger = logging.SetupWithWriter(cfg.Environment, logbuffer.NewWriter(logBuf, nil))

	opts, err := loadTimelineOptions()
	if err != nil {
		return err
	}
	opts.OnNextStep = func(step time.Time) {
		logger.Info().Time("step", step).Msg("step changed")
	}

	logger.Info().
		Str("file", cfg.TimelineFile).
		Str("version", version.Version).
		Msg("Grimnir Timeline starting")

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "grimnir-timeline",
		ServiceVersion: version.Version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	srv, err := server.New(cfg, opts, logBuf, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	httpServer := srv.HTTPServer()
	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr()).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-serveErr:
		_ = srv.Close()
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info().Msg("shutting down gracefully...")

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close first so websocket handlers return before Shutdown waits.
	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("shutdown cleanup failed")
	}
	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("Grimnir Timeline stopped")
	return nil
}
