// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/middleware"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/session"
	"github.com/personachat/persona-platform/pkg/logger"
)

// ChatHandler handles the chat and group-chat endpoints.
type ChatHandler struct {
	sessions *session.Service
	logger   *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(sessions *session.Service, log *logger.Logger) *ChatHandler {
	return &ChatHandler{sessions: sessions, logger: log}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateID(req.ThreadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.sessions.Chat(ctx, userID, req)
	if err != nil {
		h.logger.Error("chat exchange failed",
			zap.String("thread_id", req.ThreadID),
			zap.Error(err),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GroupChat handles POST /api/v1/group-chat. With content it starts a human
// turn; without content it continues the AI turn for one more cycle.
func (h *ChatHandler) GroupChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req model.GroupChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateID(req.ThreadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateID(req.GroupID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Content != "" {
		if err := middleware.ValidateMessageContent(req.Content); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.sessions.GroupCycle(ctx, userID, req)
	if err != nil {
		h.logger.Error("group chat cycle failed",
			zap.String("thread_id", req.ThreadID),
			zap.String("group_id", req.GroupID),
			zap.Error(err),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
