/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/grimnir_timeline/internal/dom"
	"github.com/friendsincode/grimnir_timeline/internal/logbuffer"
	"github.com/friendsincode/grimnir_timeline/internal/telemetry"
	"github.com/friendsincode/grimnir_timeline/internal/timeline"
)

// stepView is one generated step in API responses.
type stepView struct {
	Index int       `json:"index"`
	Step  time.Time `json:"step"`
	Label string    `json:"label"`
}

type timelineResponse struct {
	timeline.Snapshot
	State string     `json:"state"`
	Steps []stepView `json:"steps,omitempty"`
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		snap := s.timeline.Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"mounted": snap.Mounted,
			"playing": snap.Playing,
		})
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.router.Get("/", s.handlePage)
	s.router.Get("/control", s.handleControl)
	s.router.Get("/ws", s.handleWS)

	s.router.Route("/api/timeline", func(r chi.Router) {
		r.Get("/", s.handleGetTimeline)
		r.Post("/play", s.handlePlay)
		r.Post("/pause", s.handlePause)
		r.Post("/toggle", s.handleToggle)
		r.Post("/select/{index}", s.handleSelect)
	})

	s.router.Get("/api/logs", s.handleLogs)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	entries := []logbuffer.Entry{}
	if s.logBuffer != nil {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		if found := s.logBuffer.Find(logbuffer.Query{
			Level:     q.Get("level"),
			Component: q.Get("component"),
			Search:    q.Get("search"),
			Limit:     limit,
		}); found != nil {
			entries = found
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	steps := s.timeline.Steps()
	labels := s.timeline.Labels()
	views := make([]stepView, len(steps))
	for i := range steps {
		views[i] = stepView{Index: i, Step: steps[i], Label: labels[i]}
	}
	writeJSON(w, http.StatusOK, s.response(views))
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, "timeline.play", s.timeline.Play)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, "timeline.pause", func() error {
		s.timeline.Pause()
		return nil
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, "timeline.toggle", s.timeline.Toggle)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	s.command(w, r, "timeline.select", func() error {
		return s.timeline.Select(index)
	})
}

// command runs fn inside a span and answers with the resulting snapshot.
func (s *Server) command(w http.ResponseWriter, r *http.Request, name string, fn func() error) {
	_, span := telemetry.StartSpan(r.Context(), name)
	defer span.End()

	if err := fn(); err != nil {
		telemetry.RecordError(span, err)
		writeError(w, statusFor(err), err.Error())
		return
	}
	snap := s.timeline.Snapshot()
	span.SetAttributes(telemetry.StepAttributes(snap.Index, snap.Step)...)
	writeJSON(w, http.StatusOK, s.response(nil))
}

func (s *Server) response(steps []stepView) timelineResponse {
	snap := s.timeline.Snapshot()
	return timelineResponse{Snapshot: snap, State: snap.State.String(), Steps: steps}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, timeline.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, timeline.ErrNotMounted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// renderControl returns the mounted control as HTML.
func (s *Server) renderControl() (string, error) {
	var (
		out string
		err error
	)
	s.timeline.View(func(root *dom.Element) {
		if root == nil {
			return
		}
		out, err = root.HTML()
	})
	return out, err
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	fragment, err := s.renderControl()
	if err != nil {
		s.logger.Error().Err(err).Msg("render control failed")
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(fragment))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	fragment, err := s.renderControl()
	if err != nil {
		s.logger.Error().Err(err).Msg("render control failed")
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	// fragment is produced by the html renderer, which escapes text and
	// attribute values.
	if err := pageTemplate.Execute(w, template.HTML(fragment)); err != nil {
		s.logger.Error().Err(err).Msg("page template failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
