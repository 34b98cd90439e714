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

// GroupHandler handles persona group endpoints.
type GroupHandler struct {
	service *service.GroupService
	logger  *logger.Logger
}

// NewGroupHandler creates a new group handler.
func NewGroupHandler(svc *service.GroupService, log *logger.Logger) *GroupHandler {
	return &GroupHandler{service: svc, logger: log}
}

// Create handles POST /api/v1/groups
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}
	if len(req.PersonaIDs) == 0 {
		writeError(w, http.StatusBadRequest, "group needs at least one persona")
		return
	}

	g, err := h.service.Create(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		h.logger.Error("failed to create group", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, g)
}

// List handles GET /api/v1/groups
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	groups, err := h.service.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, groups)
}

// Get handles GET /api/v1/groups/:id
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	g, err := h.service.Get(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, g)
}
