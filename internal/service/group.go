package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/store"
	"github.com/personachat/persona-platform/pkg/logger"
)

// GroupService handles persona group operations.
type GroupService struct {
	store  *store.Memory
	logger *logger.Logger
}

// NewGroupService creates a new group service.
func NewGroupService(st *store.Memory, log *logger.Logger) *GroupService {
	return &GroupService{store: st, logger: log}
}

// Create stores a new group with its membership.
func (s *GroupService) Create(ctx context.Context, userID string, req model.CreateGroupRequest) (*model.PersonaGroupWithMembers, error) {
	g, err := s.store.CreateGroup(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("group created",
		zap.String("group_id", g.ID),
		zap.String("user_id", userID),
		zap.Int("members", len(g.Members)),
	)

	return g, nil
}

// Get retrieves a group with its members.
func (s *GroupService) Get(ctx context.Context, userID, id string) (*model.PersonaGroupWithMembers, error) {
	return s.store.GetGroup(ctx, userID, id)
}

// List returns the user's groups.
func (s *GroupService) List(ctx context.Context, userID string) ([]model.PersonaGroupWithMembers, error) {
	return s.store.ListGroups(ctx, userID)
}
