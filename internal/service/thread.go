package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/store"
	"github.com/personachat/persona-platform/pkg/logger"
)

// ThreadService handles thread operations and public share snapshots.
type ThreadService struct {
	store  *store.Memory
	logger *logger.Logger
}

// NewThreadService creates a new thread service.
func NewThreadService(st *store.Memory, log *logger.Logger) *ThreadService {
	return &ThreadService{store: st, logger: log}
}

// Create stores a new thread. The persona/group scope is immutable after
// creation.
func (s *ThreadService) Create(ctx context.Context, userID string, req model.CreateThreadRequest) (*model.Thread, error) {
	if req.PersonaID != "" {
		if _, err := s.store.GetPersona(ctx, userID, req.PersonaID); err != nil {
			return nil, err
		}
	}
	if req.GroupID != "" {
		if _, err := s.store.GetGroup(ctx, userID, req.GroupID); err != nil {
			return nil, err
		}
	}

	t, err := s.store.CreateThread(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("thread created",
		zap.String("thread_id", t.ID),
		zap.String("user_id", userID),
		zap.Bool("group", t.IsGroup()),
	)

	return t, nil
}

// Get retrieves a thread by id.
func (s *ThreadService) Get(ctx context.Context, userID, id string) (*model.Thread, error) {
	return s.store.GetThread(ctx, userID, id)
}

// List returns the user's threads.
func (s *ThreadService) List(ctx context.Context, userID string) ([]model.Thread, error) {
	return s.store.ListThreads(ctx, userID)
}

// Rename updates a thread's title.
func (s *ThreadService) Rename(ctx context.Context, userID, id, title string) (*model.Thread, error) {
	if _, err := s.store.GetThread(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := s.store.UpdateThreadTitle(ctx, id, title); err != nil {
		return nil, err
	}
	return s.store.GetThread(ctx, userID, id)
}

// Messages returns a thread's messages in creation order.
func (s *ThreadService) Messages(ctx context.Context, userID, id string) ([]model.Message, error) {
	if _, err := s.store.GetThread(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.MessagesByThread(ctx, id)
}

// Share publishes a read-only snapshot of a persona thread and records the
// public id on the thread. Re-sharing an already shared thread returns the
// existing snapshot.
func (s *ThreadService) Share(ctx context.Context, userID, threadID string) (*model.PublicThread, error) {
	thread, err := s.store.GetThread(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}
	if thread.IsGroup() {
		return nil, apperrors.New("group threads cannot be shared")
	}

	if existing, err := s.store.PublicThreadByThread(ctx, threadID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	// Lookup ignores the soft-delete flag so threads with a since-deleted
	// persona stay shareable.
	persona, err := s.store.PersonaForSnapshot(ctx, userID, thread.PersonaID)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.MessagesByThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	pt, err := s.store.PublishThread(ctx, &model.PublicThread{
		ThreadID: threadID,
		Title:    thread.Title,
		PersonaDetails: model.PersonaDetails{
			Name:       persona.Name,
			Title:      persona.Title,
			Age:        persona.Age,
			Industry:   persona.Industry,
			Experience: persona.Experience,
		},
		Messages:  messages,
		CreatedBy: userID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.SetThreadPublicID(ctx, threadID, pt.ID); err != nil {
		return nil, err
	}

	s.logger.Info("thread shared",
		zap.String("thread_id", threadID),
		zap.String("public_id", pt.ID),
	)

	return pt, nil
}

// Public retrieves a published snapshot by its public id. No authentication
// is required to read a snapshot.
func (s *ThreadService) Public(ctx context.Context, publicID string) (*model.PublicThread, error) {
	return s.store.GetPublicThread(ctx, publicID)
}
