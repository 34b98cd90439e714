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

// PersonaHandler handles persona endpoints.
type PersonaHandler struct {
	service *service.PersonaService
	logger  *logger.Logger
}

// NewPersonaHandler creates a new persona handler.
func NewPersonaHandler(svc *service.PersonaService, log *logger.Logger) *PersonaHandler {
	return &PersonaHandler{service: svc, logger: log}
}

// Create handles POST /api/v1/personas
func (h *PersonaHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var in model.PersonaInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidatePersonaName(in.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Create(ctx, userID, in)
	if err != nil {
		h.logger.Error("failed to create persona", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// List handles GET /api/v1/personas
func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	personas, err := h.service.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, personas)
}

// Get handles GET /api/v1/personas/:id
func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Get(ctx, middleware.GetUserID(ctx), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Update handles PUT /api/v1/personas/:id
func (h *PersonaHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in model.PersonaInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidatePersonaName(in.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.service.Update(ctx, middleware.GetUserID(ctx), id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/personas/:id
func (h *PersonaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(ctx, middleware.GetUserID(ctx), id); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GeneratePrompt handles POST /api/v1/personas/generate-prompt
func (h *PersonaHandler) GeneratePrompt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in model.PersonaInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	generated, err := h.service.GeneratePrompt(ctx, in)
	if err != nil {
		h.logger.Error("failed to generate persona prompt", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.GeneratePromptResponse{SystemPrompt: generated})
}
