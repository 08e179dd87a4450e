package server

import (
	"context"
	"net/http"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/runbookqa/internal/assistant"
	"github.com/ziadkadry99/runbookqa/internal/history"
)

type askRequest struct {
	Query               string           `json:"query" validate:"required"`
	ConversationHistory []assistant.Turn `json:"conversation_history" validate:"dive"`
	ConversationID      string           `json:"conversation_id"`
	UserID              string           `json:"user_id"`
	RenderHTML          bool             `json:"render_html"`
	// State is optional; without it the persisted state or the history
	// decides the phase.
	State *assistant.State `json:"state,omitempty"`
}

type askResponse struct {
	assistant.Result
	AnswerHTML     string `json:"answer_html,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.turn(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("query", req.Query).Msg("ask failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// turn answers one query. With a user id and a history store the session
// is loaded (or created), short client histories are enriched from it, and
// both turns plus the next state are saved afterwards.
func (s *Server) turn(ctx context.Context, req askRequest) (*askResponse, error) {
	turns := req.ConversationHistory
	var state assistant.State
	if req.State != nil {
		state = *req.State
	}

	var sess *history.Session
	if s.deps.History != nil && req.UserID != "" {
		var err error
		sess, err = s.deps.History.EnsureSession(ctx, req.ConversationID, req.UserID)
		if err != nil {
			return nil, err
		}
		if req.State == nil && sess.State.Phase != assistant.PhaseNormal {
			state = sess.State
		}
		if req.ConversationID != "" && len(turns) < s.cfg.EnrichBelow {
			msgs, err := s.deps.History.GetMessages(ctx, sess.ID, s.cfg.EnrichLimit)
			if err != nil {
				log.Error().Err(err).Str("session", sess.ID).Msg("enriching history failed")
			} else {
				turns = history.Enrich(turns, history.Turns(msgs), s.cfg.EnrichBelow, s.cfg.EnrichLimit)
			}
		}
	}

	res, err := s.deps.Engine.Answer(ctx, req.Query, turns, state)
	if err != nil {
		return nil, err
	}

	if res.UnansweredQuery != "" && s.deps.Backlog != nil {
		if _, err := s.deps.Backlog.Record(ctx, res.UnansweredQuery); err != nil {
			log.Warn().Err(err).Msg("recording knowledge gap failed")
		}
	}

	resp := &askResponse{Result: *res, ConversationID: req.ConversationID}
	if sess != nil {
		resp.ConversationID = sess.ID
		s.save(ctx, sess.ID, req.Query, res)
	}
	if req.RenderHTML && s.deps.Renderer != nil {
		html, err := s.deps.Renderer.Render(res.Answer)
		if err != nil {
			log.Warn().Err(err).Msg("rendering answer html failed")
		}
		resp.AnswerHTML = html
	}
	return resp, nil
}

// save records a completed exchange. Failures are only logged.
func (s *Server) save(ctx context.Context, sessionID, query string, res *assistant.Result) {
	store := s.deps.History
	if _, err := store.AddMessage(ctx, history.Message{SessionID: sessionID, Role: assistant.RoleUser, Content: query}); err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("saving user message failed")
		return
	}
	_, err := store.AddMessage(ctx, history.Message{
		SessionID:   sessionID,
		Role:        assistant.RoleAssistant,
		Content:     res.Answer,
		Sources:     res.Sources,
		IsRunbook:   res.IsRunbook,
		RunbookType: res.RunbookType,
	})
	if err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("saving assistant message failed")
		return
	}
	if err := store.SaveState(ctx, sessionID, res.State); err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("saving conversation state failed")
	}
}
