package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/llm"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/session"
	"github.com/personachat/persona-platform/pkg/logger"
)

type generateCall struct {
	system  string
	history []llm.ChatMessage
}

type fakeGateway struct {
	responses []string
	errs      []error
	calls     []generateCall
}

func (g *fakeGateway) Generate(ctx context.Context, systemPrompt string, history []llm.ChatMessage) (string, error) {
	i := len(g.calls)
	g.calls = append(g.calls, generateCall{system: systemPrompt, history: history})
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", errors.New("unexpected generate call")
}

func seedPersonaThread(store *fakeStore) {
	store.personas["persona-1"] = &model.Persona{
		ID:           "persona-1",
		UserID:       "user-1",
		Name:         "Alice",
		SystemPrompt: "You are Alice.",
	}
	store.threads["thread-1"] = &model.Thread{
		ID:        "thread-1",
		UserID:    "user-1",
		PersonaID: "persona-1",
		Title:     "New Chat",
	}
}

func TestChatFirstExchangeGeneratesTitle(t *testing.T) {
	store := newFakeStore()
	seedPersonaThread(store)
	gw := &fakeGateway{responses: []string{
		"Spreadsheets, mostly. It's painful.",
		"Budget Tracking Pains",
	}}

	chat := session.NewChat(store, gw, nil, logger.NewNop())
	resp, err := chat.Send(context.Background(), "user-1", "thread-1", "how do you budget?")

	require.NoError(t, err)
	require.NotNil(t, resp.Message)
	assert.Equal(t, "Alice", resp.Message.Sender)
	assert.Equal(t, "Budget Tracking Pains", resp.UpdatedTitle)
	assert.Equal(t, "Budget Tracking Pains", store.titles["thread-1"])

	require.Len(t, gw.calls, 2)
	assert.Equal(t, "You are Alice.", gw.calls[0].system)
	assert.Empty(t, gw.calls[1].system, "the title prompt is a plain user turn")
	assert.Contains(t, gw.calls[1].history[0].Content, "how do you budget?")
}

func TestChatTitleFailureIsSwallowed(t *testing.T) {
	store := newFakeStore()
	seedPersonaThread(store)
	gw := &fakeGateway{
		responses: []string{"a reply", ""},
		errs:      []error{nil, errors.New("title model down")},
	}

	chat := session.NewChat(store, gw, nil, logger.NewNop())
	resp, err := chat.Send(context.Background(), "user-1", "thread-1", "hello")

	require.NoError(t, err, "title failure never fails the exchange")
	assert.Empty(t, resp.UpdatedTitle)
	assert.Empty(t, store.titles)
}

func TestChatNoTitleAfterFirstExchange(t *testing.T) {
	store := newFakeStore()
	seedPersonaThread(store)
	store.messages = []model.Message{
		{ID: "m1", ThreadID: "thread-1", Sender: model.SenderUser, Content: "earlier"},
		{ID: "m2", ThreadID: "thread-1", Sender: "Alice", Content: "before"},
	}
	gw := &fakeGateway{responses: []string{"another reply"}}

	chat := session.NewChat(store, gw, nil, logger.NewNop())
	resp, err := chat.Send(context.Background(), "user-1", "thread-1", "again")

	require.NoError(t, err)
	assert.Empty(t, resp.UpdatedTitle)
	assert.Len(t, gw.calls, 1, "no title call on later exchanges")
}

func TestChatRejectsGroupThreads(t *testing.T) {
	store := newFakeStore()
	store.threads["thread-1"] = &model.Thread{
		ID:      "thread-1",
		UserID:  "user-1",
		GroupID: "group-1",
	}
	gw := &fakeGateway{}

	chat := session.NewChat(store, gw, nil, logger.NewNop())
	_, err := chat.Send(context.Background(), "user-1", "thread-1", "hi")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.Empty(t, gw.calls)
}

func TestChatEmptyReply(t *testing.T) {
	store := newFakeStore()
	seedPersonaThread(store)
	gw := &fakeGateway{responses: []string{"  \n "}}

	chat := session.NewChat(store, gw, nil, logger.NewNop())
	_, err := chat.Send(context.Background(), "user-1", "thread-1", "hi")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrEmptyGeneration))

	// Only the user message made it into the thread.
	require.Len(t, store.messages, 1)
	assert.Equal(t, model.SenderUser, store.messages[0].Sender)
}

func TestChatAppliesWorkplaceContext(t *testing.T) {
	store := newFakeStore()
	seedPersonaThread(store)
	store.wc = &model.WorkplaceContext{
		CompanyName: "Acme",
		ProductName: "Paymaster",
	}
	gw := &fakeGateway{responses: []string{"sure", "Title"}}

	chat := session.NewChat(store, gw, nil, logger.NewNop())
	_, err := chat.Send(context.Background(), "user-1", "thread-1", "hi")

	require.NoError(t, err)
	require.NotEmpty(t, gw.calls)
	assert.Contains(t, gw.calls[0].system, "Company: Acme")
	assert.Contains(t, gw.calls[0].system, "Original Persona Instructions:")
	assert.Contains(t, gw.calls[0].system, "You are Alice.")
}
