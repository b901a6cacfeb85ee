package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/feriadolabs/feriado/filter"
	"github.com/feriadolabs/feriado/metrics"
	"github.com/feriadolabs/feriado/session"
)

// errorResponse is the uniform JSON error body.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg, detail string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Detail: detail})
}

// sessionFrom resolves the {id} path segment to a live session, writing a 404
// when it does not exist.
func (s *Server) sessionFrom(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.PathValue("id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "session not found", fmt.Sprintf("no session with id %q", id))
		return nil, false
	}
	return sess, true
}

// applyCurrent runs the session's stored selection against the dataset.
func (s *Server) applyCurrent(sess *session.Session) (*filter.View, error) {
	return s.engine.Apply(s.store, sess.Selection())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"holidays":   s.store.NumHolidays(),
		"passengers": s.store.NumPassengers(),
		"countries":  len(s.store.CountryCodes()),
		"years":      s.store.Years(),
	})
}

type sessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	s.logger.Info("session created", "session_id", sess.ID)
	s.writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}
	if err := s.sessions.Delete(r.Context(), sess.ID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to delete session", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type filterResponse struct {
	SessionID string            `json:"session_id"`
	Selection *filter.Selection `json:"selection"`
	Records   int               `json:"records"`
	Holidays  int               `json:"holidays"`
	Empty     bool              `json:"empty"`
}

// handlePutFilters replaces the session's selection wholesale. Invalid
// selections come back as 422 with the offending facet named; the stored
// selection is untouched in that case.
func (s *Server) handlePutFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}

	sel := filter.NewSelection()
	if err := json.NewDecoder(r.Body).Decode(sel); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := sel.Validate(); err != nil {
		var verr *filter.ValidationError
		if errors.As(err, &verr) {
			s.writeError(w, http.StatusUnprocessableEntity, "validation failed", verr.Error())
			return
		}
		s.writeError(w, http.StatusUnprocessableEntity, "validation failed", err.Error())
		return
	}

	view, err := s.applyView(r.Context(), sess, sel)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to apply filters", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, filterResponse{
		SessionID: sess.ID,
		Selection: sel,
		Records:   view.NumPassengers(),
		Holidays:  view.NumHolidays(),
		Empty:     view.Empty(),
	})
}

// applyView applies sel, stores it on the session together with the fresh
// summary, and records the application.
func (s *Server) applyView(ctx context.Context, sess *session.Session, sel *filter.Selection) (*filter.View, error) {
	view, err := s.engine.Apply(s.store, sel)
	if err != nil {
		return nil, err
	}

	summary := metrics.Compute(view)
	sess.SetSelection(sel)
	sess.SetSummary(&summary)

	if s.recorder != nil {
		s.recorder.RecordFilterApplication(ctx, sel.ActiveFacets(), view.Empty())
	}
	s.logger.Info("filters applied",
		"session_id", sess.ID,
		"facets", sel.ActiveFacets(),
		"records", view.NumPassengers(),
		"empty", view.Empty())
	return view, nil
}

type viewResponse struct {
	SessionID string            `json:"session_id"`
	Selection *filter.Selection `json:"selection"`
	Empty     bool              `json:"empty"`
	Message   string            `json:"message,omitempty"`
	Summary   metrics.Summary   `json:"summary"`
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}

	view, err := s.applyCurrent(sess)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to build view", err.Error())
		return
	}

	summary := metrics.Compute(view)
	sess.SetSummary(&summary)

	resp := viewResponse{
		SessionID: sess.ID,
		Selection: sess.Selection(),
		Empty:     view.Empty(),
		Summary:   summary,
	}
	if view.Empty() {
		resp.Message = "no data for selection"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type extendedResponse struct {
	SessionID string           `json:"session_id"`
	Empty     bool             `json:"empty"`
	Extended  metrics.Extended `json:"extended"`
}

func (s *Server) handleExtendedMetrics(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}

	view, err := s.applyCurrent(sess)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to build view", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, extendedResponse{
		SessionID: sess.ID,
		Empty:     view.Empty(),
		Extended:  metrics.ComputeExtended(view),
	})
}

type historyResponse struct {
	SessionID string         `json:"session_id"`
	Turns     []session.Turn `json:"turns"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit", fmt.Sprintf("limit %q is not a non-negative integer", raw))
			return
		}
		limit = n
	}

	turns, err := s.sessions.History().Recent(r.Context(), sess.ID, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to read history", err.Error())
		return
	}
	if turns == nil {
		turns = []session.Turn{}
	}
	s.writeJSON(w, http.StatusOK, historyResponse{SessionID: sess.ID, Turns: turns})
}
