package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/middleware"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/service"
	"github.com/personachat/persona-platform/pkg/logger"
)

// ThreadHandler handles thread endpoints.
type ThreadHandler struct {
	service *service.ThreadService
	logger  *logger.Logger
}

// NewThreadHandler creates a new thread handler.
func NewThreadHandler(svc *service.ThreadService, log *logger.Logger) *ThreadHandler {
	return &ThreadHandler{service: svc, logger: log}
}

// Create handles POST /api/v1/threads
func (h *ThreadHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.Create(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		h.logger.Error("failed to create thread", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, t)
}

// List handles GET /api/v1/threads
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	threads, err := h.service.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ListThreadsResponse{
		Threads: threads,
		Total:   len(threads),
	})
}

// Get handles GET /api/v1/threads/:id
func (h *ThreadHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.Get(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// Update handles PUT /api/v1/threads/:id
func (h *ThreadHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpdateThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.Rename(ctx, middleware.GetUserID(ctx), id, req.Title)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// Messages handles GET /api/v1/threads/:id/messages
func (h *ThreadHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	messages, err := h.service.Messages(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages: messages,
		Total:    len(messages),
	})
}

// Share handles POST /api/v1/threads/:id/share
func (h *ThreadHandler) Share(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pt, err := h.service.Share(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		h.logger.Error("failed to share thread", zap.String("thread_id", id), zap.Error(err))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ShareThreadResponse{PublicID: pt.ID})
}

// Public handles GET /public/threads/:publicId with no authentication.
func (h *ThreadHandler) Public(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	publicID := chi.URLParam(r, "publicId")

	if err := middleware.ValidateID(publicID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pt, err := h.service.Public(ctx, publicID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pt)
}
