package service

import (
	"context"

	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/store"
	"github.com/personachat/persona-platform/pkg/logger"
)

// WorkplaceService handles the per-user workplace context.
type WorkplaceService struct {
	store  *store.Memory
	logger *logger.Logger
}

// NewWorkplaceService creates a new workplace service.
func NewWorkplaceService(st *store.Memory, log *logger.Logger) *WorkplaceService {
	return &WorkplaceService{store: st, logger: log}
}

// Get returns the user's workplace context, or nil when none is saved.
func (s *WorkplaceService) Get(ctx context.Context, userID string) (*model.WorkplaceContext, error) {
	return s.store.WorkplaceContext(ctx, userID)
}

// Save creates or replaces the user's workplace context.
func (s *WorkplaceService) Save(ctx context.Context, userID string, in model.WorkplaceContextInput) (*model.WorkplaceContext, error) {
	return s.store.SaveWorkplaceContext(ctx, userID, in)
}
