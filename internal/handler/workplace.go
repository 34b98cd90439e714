package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/middleware"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/service"
	"github.com/personachat/persona-platform/pkg/logger"
)

// WorkplaceHandler handles workplace context endpoints.
type WorkplaceHandler struct {
	service *service.WorkplaceService
	logger  *logger.Logger
}

// NewWorkplaceHandler creates a new workplace handler.
func NewWorkplaceHandler(svc *service.WorkplaceService, log *logger.Logger) *WorkplaceHandler {
	return &WorkplaceHandler{service: svc, logger: log}
}

// Get handles GET /api/v1/workplace
func (h *WorkplaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	wc, err := h.service.Get(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if wc == nil {
		writeError(w, http.StatusNotFound, "workplace context not found")
		return
	}

	writeJSON(w, http.StatusOK, wc)
}

// Save handles PUT /api/v1/workplace
func (h *WorkplaceHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in model.WorkplaceContextInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(in.CompanyName) == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	wc, err := h.service.Save(ctx, middleware.GetUserID(ctx), in)
	if err != nil {
		h.logger.Error("failed to save workplace context", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wc)
}
