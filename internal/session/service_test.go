package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/session"
	"github.com/personachat/persona-platform/pkg/logger"
)

func seedGroupThread(store *fakeStore) {
	store.threads["thread-1"] = &model.Thread{
		ID:      "thread-1",
		UserID:  "user-1",
		GroupID: "group-1",
	}
}

func newService(store *fakeStore, turner *fakeTurner) *session.Service {
	chat := session.NewChat(store, &fakeGateway{}, nil, logger.NewNop())
	return session.NewService(store, turner, chat, nil, logger.NewNop())
}

func TestGroupCyclePersistsUserMessageFirst(t *testing.T) {
	store := newFakeStore()
	seedGroupThread(store)
	turner := &fakeTurner{store: store, results: []fakeTurnResult{
		personaTurn("Alice", "on it"),
	}}

	svc := newService(store, turner)
	resp, err := svc.GroupCycle(context.Background(), "user-1", model.GroupChatRequest{
		ThreadID: "thread-1",
		GroupID:  "group-1",
		Content:  "what do you think?",
	})

	require.NoError(t, err)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "Alice", resp.Message.Sender)
	assert.False(t, resp.ShouldWaitForUser)

	// Messages are ordered user first, then the persona reply.
	require.Len(t, store.messages, 2)
	assert.Equal(t, model.SenderUser, store.messages[0].Sender)
	assert.Equal(t, "what do you think?", store.messages[0].Content)

	require.Len(t, turner.inputs, 1)
	assert.Equal(t, "what do you think?", turner.inputs[0].NewContent)
}

func TestGroupCycleContinuationInsertsNothing(t *testing.T) {
	store := newFakeStore()
	seedGroupThread(store)
	store.messages = []model.Message{
		{ID: "m1", ThreadID: "thread-1", Sender: model.SenderUser, Content: "earlier"},
	}
	turner := &fakeTurner{store: store, results: []fakeTurnResult{
		waitTurn("your turn"),
	}}

	svc := newService(store, turner)
	resp, err := svc.GroupCycle(context.Background(), "user-1", model.GroupChatRequest{
		ThreadID: "thread-1",
		GroupID:  "group-1",
	})

	require.NoError(t, err)
	assert.True(t, resp.ShouldWaitForUser)
	assert.Equal(t, "your turn", resp.Reason)
	assert.Len(t, store.messages, 1, "a continuation cycle must not insert a user message")
}

func TestGroupCycleRejectsPersonaThread(t *testing.T) {
	store := newFakeStore()
	store.threads["thread-1"] = &model.Thread{
		ID:        "thread-1",
		UserID:    "user-1",
		PersonaID: "persona-1",
	}

	svc := newService(store, &fakeTurner{store: store})
	_, err := svc.GroupCycle(context.Background(), "user-1", model.GroupChatRequest{
		ThreadID: "thread-1",
		GroupID:  "group-1",
		Content:  "hi",
	})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Empty(t, store.messages)
}

func TestGroupCycleRejectsMismatchedGroup(t *testing.T) {
	store := newFakeStore()
	seedGroupThread(store)

	svc := newService(store, &fakeTurner{store: store})
	_, err := svc.GroupCycle(context.Background(), "user-1", model.GroupChatRequest{
		ThreadID: "thread-1",
		GroupID:  "some-other-group",
		Content:  "hi",
	})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
