/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/friendsincode/grimnir_timeline/internal/events"
	"github.com/friendsincode/grimnir_timeline/internal/telemetry"
)

const wsWriteTimeout = 5 * time.Second

// WSMessage is pushed to websocket clients.
type WSMessage struct {
	Type string         `json:"type"` // snapshot, step, playback, error
	Data map[string]any `json:"data,omitempty"`
}

// WSCommand is sent by websocket clients.
type WSCommand struct {
	Type  string `json:"type"` // play, pause, toggle, select
	Index int    `json:"index,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.trackClient() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.clients.Done()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	clientID := uuid.NewString()
	logger := s.logger.With().Str("client_id", clientID).Logger()

	telemetry.WebsocketClients.Inc()
	defer telemetry.WebsocketClients.Dec()

	steps := s.bus.Subscribe(events.EventStepChanged)
	defer s.bus.Unsubscribe(events.EventStepChanged, steps)
	playback := s.bus.Subscribe(events.EventPlaybackChanged)
	defer s.bus.Unsubscribe(events.EventPlaybackChanged, playback)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-s.ctx.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Debug().Msg("websocket client connected")
	defer func() { logger.Debug().Msg("websocket client disconnected") }()

	if err := s.writeWS(ctx, conn, WSMessage{Type: "snapshot", Data: s.snapshotData()}); err != nil {
		return
	}

	commands := make(chan WSCommand)
	go func() {
		defer cancel()
		for {
			var cmd WSCommand
			if err := wsjson.Read(ctx, conn, &cmd); err != nil {
				if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
					logger.Debug().Err(err).Msg("websocket read error")
				}
				return
			}
			select {
			case commands <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var msg WSMessage
		select {
		case <-ctx.Done():
			return
		case payload := <-steps:
			msg = WSMessage{Type: "step", Data: payload}
		case payload := <-playback:
			msg = WSMessage{Type: "playback", Data: payload}
		case cmd := <-commands:
			if err := s.runCommand(cmd); err != nil {
				msg = WSMessage{Type: "error", Data: map[string]any{"error": err.Error()}}
			} else {
				continue
			}
		}
		if err := s.writeWS(ctx, conn, msg); err != nil {
			logger.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}

func (s *Server) writeWS(ctx context.Context, conn *websocket.Conn, msg WSMessage) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

func (s *Server) runCommand(cmd WSCommand) error {
	switch cmd.Type {
	case "play":
		return s.timeline.Play()
	case "pause":
		s.timeline.Pause()
		return nil
	case "toggle":
		return s.timeline.Toggle()
	case "select":
		return s.timeline.Select(cmd.Index)
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}

func (s *Server) snapshotData() map[string]any {
	snap := s.timeline.Snapshot()
	return map[string]any{
		"index":   snap.Index,
		"step":    snap.Step,
		"label":   snap.Label,
		"playing": snap.Playing,
		"count":   snap.Count,
	}
}
