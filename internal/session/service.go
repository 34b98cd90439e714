// Package session drives conversations end to end: the single-persona chat
// flow, the one-cycle group-chat entry point behind POST /group-chat, and
// the in-process controller that loops orchestrator cycles for a group
// thread until control returns to the human.
package session

import (
	"context"

	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/orchestrator"
	"github.com/personachat/persona-platform/pkg/logger"
	"github.com/personachat/persona-platform/pkg/metrics"
)

// Store is the persistence surface the session layer needs.
type Store interface {
	GetThread(ctx context.Context, userID, id string) (*model.Thread, error)
	GetPersona(ctx context.Context, userID, id string) (*model.Persona, error)
	MessagesByThread(ctx context.Context, threadID string) ([]model.Message, error)
	InsertMessage(ctx context.Context, threadID, sender, content string) (*model.Message, error)
	UpdateThreadTitle(ctx context.Context, threadID, title string) error
	WorkplaceContext(ctx context.Context, userID string) (*model.WorkplaceContext, error)
}

// Turner runs one orchestrator cycle.
type Turner interface {
	Turn(ctx context.Context, in orchestrator.TurnInput) (*orchestrator.Result, error)
}

// Service exposes the chat operations consumed by the HTTP layer.
type Service struct {
	store     Store
	turner    Turner
	chat      *Chat
	publisher orchestrator.Publisher
	logger    *logger.Logger
}

// NewService creates the session service. publisher may be nil.
func NewService(store Store, turner Turner, chat *Chat, publisher orchestrator.Publisher, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		turner:    turner,
		chat:      chat,
		publisher: publisher,
		logger:    log,
	}
}

// Chat runs one single-persona exchange.
func (s *Service) Chat(ctx context.Context, userID string, req model.SendMessageRequest) (*model.SendMessageResponse, error) {
	return s.chat.Send(ctx, userID, req.ThreadID, req.Content)
}

// GroupCycle runs exactly one orchestrator cycle against a group thread.
// When content is present it is the start of a human turn: the user message
// is persisted first, unconditionally, before the orchestrator runs. An
// empty content marks a continuation cycle following an AI turn.
func (s *Service) GroupCycle(ctx context.Context, userID string, req model.GroupChatRequest) (*model.GroupChatResponse, error) {
	thread, err := s.store.GetThread(ctx, userID, req.ThreadID)
	if err != nil {
		return nil, err
	}
	if !thread.IsGroup() || thread.GroupID != req.GroupID {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "group thread")
	}

	if req.Content != "" {
		userMsg, err := s.store.InsertMessage(ctx, req.ThreadID, model.SenderUser, req.Content)
		if err != nil {
			return nil, apperrors.Wrapf(apperrors.ErrPersistenceFailure, "%v", err)
		}
		metrics.MessagesTotal.WithLabelValues(model.SenderUser).Inc()
		s.publish(ctx, userMsg)
	}

	res, err := s.turner.Turn(ctx, orchestrator.TurnInput{
		UserID:     userID,
		ThreadID:   req.ThreadID,
		GroupID:    req.GroupID,
		NewContent: req.Content,
	})
	if err != nil {
		return nil, err
	}

	return &model.GroupChatResponse{
		Message:           res.Message,
		ShouldWaitForUser: res.ShouldWaitForUser,
		Reason:            res.Reason,
	}, nil
}

func (s *Service) publish(ctx context.Context, msg *model.Message) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.PublishMessage(ctx, msg); err != nil {
		s.logger.Warn("failed to publish message",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}
}
