package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/feriadolabs/feriado/classify"
	"github.com/feriadolabs/feriado/llm"
	"github.com/feriadolabs/feriado/metrics"
	"github.com/feriadolabs/feriado/session"
	"github.com/feriadolabs/feriado/workflow"
)

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	SessionID      string                  `json:"session_id"`
	Classification classify.Classification `json:"classification"`
	Result         *workflow.MergedResult  `json:"result"`
	Rendered       string                  `json:"rendered"`
}

// runChat classifies the query, selects and executes the matching template,
// and appends the exchange to the session transcript. onStage, when non-nil,
// observes each stage outcome as it completes.
func (s *Server) runChat(ctx context.Context, sess *session.Session, query string, onStage func(workflow.StageOutcome)) (*chatResponse, error) {
	cls := s.classifier.Classify(query)
	if s.recorder != nil {
		s.recorder.RecordClassification(ctx, string(cls.Type))
	}

	tmpl := workflow.SelectTemplate(cls)
	s.logger.Info("query classified",
		"session_id", sess.ID,
		"type", cls.Type,
		"complexity", cls.Complexity,
		"template", tmpl.Name)

	executor, err := workflow.NewExecutor(&workflow.ExecutorConfig{
		Responders: s.responders,
		OnStage:    onStage,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, err
	}

	req := &workflow.Request{
		Query:   query,
		Topic:   cls.Topic,
		Context: s.chatContext(sess),
	}
	merged := executor.Execute(ctx, tmpl, req)

	if s.recorder != nil {
		for _, o := range merged.Outcomes {
			s.recorder.RecordStage(ctx, string(o.Stage), string(o.Status), o.Elapsed.Seconds())
		}
	}

	rendered := merged.Render()
	history := s.sessions.History()
	if err := history.Append(ctx, sess.ID, session.Turn{Role: llm.RoleUser, Content: query, At: time.Now().UTC()}); err != nil {
		s.logger.Warn("failed to record user turn", "session_id", sess.ID, "error", err)
	}
	if err := history.Append(ctx, sess.ID, session.Turn{Role: llm.RoleAssistant, Content: rendered, At: time.Now().UTC()}); err != nil {
		s.logger.Warn("failed to record assistant turn", "session_id", sess.ID, "error", err)
	}

	return &chatResponse{
		SessionID:      sess.ID,
		Classification: cls,
		Result:         merged,
		Rendered:       rendered,
	}, nil
}

// chatContext summarizes the session's current view for the responders. An
// empty view yields nil so responders can distinguish "no data" from zeros.
func (s *Server) chatContext(sess *session.Session) map[string]any {
	summary := sess.Summary()
	if summary == nil {
		if view, err := s.applyCurrent(sess); err == nil {
			computed := metrics.Compute(view)
			sess.SetSummary(&computed)
			summary = &computed
		}
	}
	if summary == nil || summary.Records == 0 {
		return nil
	}

	ctx := map[string]any{
		"records":          summary.Records,
		"holidays":         summary.Holidays,
		"countries":        summary.Countries,
		"years":            summary.Years,
		"total_passengers": summary.TotalPassengers,
	}
	if summary.MeanMonthly != nil {
		ctx["mean_monthly"] = *summary.MeanMonthly
	}
	if summary.PeakMonth != nil {
		ctx["peak_month"] = *summary.PeakMonth
	}
	if summary.GrowthRatePct != nil {
		ctx["growth_rate_pct"] = *summary.GrowthRatePct
	}
	return ctx
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		s.writeError(w, http.StatusBadRequest, "query is required", "")
		return
	}

	resp, err := s.runChat(r.Context(), sess, req.Query, nil)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "chat failed", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// wsEvent is one frame of the chat stream. Stage frames arrive as stages
// complete; the final result frame carries the merged document.
type wsEvent struct {
	Type           string                   `json:"type"`
	Stage          *workflow.StageOutcome   `json:"stage,omitempty"`
	SessionID      string                   `json:"session_id,omitempty"`
	Classification *classify.Classification `json:"classification,omitempty"`
	Result         *workflow.MergedResult   `json:"result,omitempty"`
	Rendered       string                   `json:"rendered,omitempty"`
	Error          string                   `json:"error,omitempty"`
}

// handleChatWS streams chat execution over a WebSocket. The client sends
// {"query": ...} frames; for each one the server emits a stage frame per
// completed stage and then a result frame. The connection stays open for
// further queries until the client closes it.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFrom(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Warn("websocket upgrade failed", "session_id", sess.ID, "error", err)
		return
	}
	defer conn.Close()

	for {
		var req chatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "session_id", sess.ID, "error", err)
			}
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			s.writeEvent(conn, sess.ID, wsEvent{Type: "error", Error: "query is required"})
			continue
		}

		// Execute runs stages sequentially and invokes the hook inline, so
		// writes to the connection never race.
		onStage := func(o workflow.StageOutcome) {
			s.writeEvent(conn, sess.ID, wsEvent{Type: "stage", Stage: &o})
		}

		resp, err := s.runChat(r.Context(), sess, req.Query, onStage)
		if err != nil {
			s.writeEvent(conn, sess.ID, wsEvent{Type: "error", Error: err.Error()})
			continue
		}
		s.writeEvent(conn, sess.ID, wsEvent{
			Type:           "result",
			SessionID:      resp.SessionID,
			Classification: &resp.Classification,
			Result:         resp.Result,
			Rendered:       resp.Rendered,
		})
	}
}

func (s *Server) writeEvent(conn *websocket.Conn, sessionID string, ev wsEvent) {
	if err := conn.WriteJSON(ev); err != nil {
		s.logger.Warn("websocket write failed", "session_id", sessionID, "error", err)
	}
}
