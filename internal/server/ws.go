package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/phuslu/log"

	"github.com/ziadkadry99/runbookqa/internal/assistant"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	SessionID  string `json:"session_id"` // empty for unsaved conversations
	UserID     string `json:"user_id"`
	Query      string `json:"query" validate:"required"`
	RenderHTML bool   `json:"render_html"`
}

// wsFrame is the outgoing WebSocket message format.
type wsFrame struct {
	Type string `json:"type"` // "response" or "error"
	*askResponse
	Error string `json:"error,omitempty"`
}

// handleWebSocket serves one conversation per connection. The connection
// carries its own history and state, so clients only send the new query.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var turns []assistant.Turn
	var state *assistant.State
	sessionID := ""

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendFrame(conn, wsFrame{Type: "error", Error: "invalid message format"})
			continue
		}
		if err := check(&req); err != nil {
			s.sendFrame(conn, wsFrame{Type: "error", Error: err.Error()})
			continue
		}
		if req.SessionID != "" {
			sessionID = req.SessionID
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
		resp, err := s.turn(ctx, askRequest{
			Query:               req.Query,
			ConversationHistory: turns,
			ConversationID:      sessionID,
			UserID:              req.UserID,
			RenderHTML:          req.RenderHTML,
			State:               state,
		})
		cancel()
		if err != nil {
			s.sendFrame(conn, wsFrame{Type: "error", Error: err.Error()})
			continue
		}

		turns = append(turns,
			assistant.Turn{Role: assistant.RoleUser, Content: req.Query},
			assistant.Turn{Role: assistant.RoleAssistant, Content: resp.Answer})
		next := resp.State
		state = &next
		sessionID = resp.ConversationID
		s.sendFrame(conn, wsFrame{Type: "response", askResponse: resp})
	}
}

func (s *Server) sendFrame(conn *websocket.Conn, frame wsFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		log.Warn().Err(err).Msg("websocket write failed")
	}
}
