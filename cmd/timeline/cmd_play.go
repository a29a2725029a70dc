/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/grimnir_timeline/internal/dom"
	"github.com/friendsincode/grimnir_timeline/internal/timeline"
)

var (
	playTicks    int
	playInterval time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play the timeline headless, logging each step",
	Long: `Mount the timeline without a web host and play through it,
logging every step until interrupted.

Examples:
  # Play until Ctrl-C
  timeline play -f timeline.yaml

  # Stop after 10 steps, overriding the interval
  timeline play -f timeline.yaml --ticks 10 --interval 200ms
`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().IntVar(&playTicks, "ticks", 0, "Stop after this many steps (0 = until interrupted)")
	playCmd.Flags().DurationVar(&playInterval, "interval", 0, "Override the playback interval")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	opts, err := loadTimelineOptions()
	if err != nil {
		return err
	}
	if playInterval > 0 {
		opts.Interval = playInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return playHeadless(ctx, opts, playTicks, logger)
}

// playHeadless mounts the control on a detached element, starts playback
// and blocks until ticks steps were seen or ctx is done.
func playHeadless(ctx context.Context, opts timeline.Options, ticks int, logger zerolog.Logger) error {
	seen := make(chan struct{}, 1)
	count := 0
	opts.OnNextStep = func(step time.Time) {
		count++
		logger.Info().Int("tick", count).Time("step", step).Msg("step")
		if ticks > 0 && count == ticks {
			seen <- struct{}{}
		}
	}
	opts.Logger = logger

	ctrl, err := timeline.New(opts)
	if err != nil {
		return err
	}
	if _, err := ctrl.Mount(dom.Create("main", "", nil)); err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	defer ctrl.Unmount()

	if err := ctrl.Play(); err != nil {
		return fmt.Errorf("play: %w", err)
	}

	msg := "playback finished"
	select {
	case <-ctx.Done():
		msg = "playback interrupted"
	case <-seen:
	}
	// No step callback runs once Pause returns.
	ctrl.Pause()
	logger.Info().Int("ticks", count).Msg(msg)
	return nil
}
