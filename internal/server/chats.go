package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/runbookqa/internal/assistant"
	"github.com/ziadkadry99/runbookqa/internal/history"
)

// chatMessage is the client's wire shape for a stored turn.
type chatMessage struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type chatSummary struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Timestamp string          `json:"timestamp"`
	State     assistant.State `json:"state"`
	Messages  []chatMessage   `json:"messages"`
}

type saveChatRequest struct {
	ID       string        `json:"id" validate:"required"`
	Title    string        `json:"title"`
	Messages []chatMessage `json:"messages"`
	UserID   string        `json:"user_id" validate:"required"`
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusServiceUnavailable, "chat history is not configured")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	sessions, err := s.deps.History.ListSessions(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	chats := make([]chatSummary, 0, len(sessions))
	for _, sess := range sessions {
		msgs, err := s.deps.History.GetMessages(r.Context(), sess.ID, 0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		summary := chatSummary{
			ID:        sess.ID,
			Title:     sess.Title,
			Timestamp: sess.CreatedAt.UTC().Format(time.RFC3339),
			State:     sess.State,
			Messages:  make([]chatMessage, len(msgs)),
		}
		for i, m := range msgs {
			summary.Messages[i] = chatMessage{Sender: string(m.Role), Text: m.Content}
		}
		chats = append(chats, summary)
	}
	writeJSON(w, http.StatusOK, map[string]any{"chats": chats})
}

func (s *Server) handleSaveChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusServiceUnavailable, "chat history is not configured")
		return
	}
	var req saveChatRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msgs := make([]history.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = history.Message{Role: assistant.Role(m.Sender), Content: m.Text}
	}
	_, err := s.deps.History.ReplaceMessages(r.Context(), req.ID, req.UserID, msgs)
	if errors.Is(err, history.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Chat saved"})
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusServiceUnavailable, "chat history is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	n, err := s.deps.History.DeleteSession(r.Context(), id, r.URL.Query().Get("user_id"))
	if errors.Is(err, history.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted_messages": n})
}

func (s *Server) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusServiceUnavailable, "chat history is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := s.deps.History.GetSession(r.Context(), id); err != nil {
		if errors.Is(err, history.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	msgs, err := s.deps.History.GetMessages(r.Context(), id, 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
