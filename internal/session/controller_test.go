package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/orchestrator"
	"github.com/personachat/persona-platform/internal/session"
	"github.com/personachat/persona-platform/pkg/logger"
)

type fakeStore struct {
	threads  map[string]*model.Thread
	personas map[string]*model.Persona
	wc       *model.WorkplaceContext
	messages []model.Message
	titles   map[string]string
	titleErr error
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		threads:  make(map[string]*model.Thread),
		personas: make(map[string]*model.Persona),
		titles:   make(map[string]string),
	}
}

func (s *fakeStore) GetThread(ctx context.Context, userID, id string) (*model.Thread, error) {
	t, ok := s.threads[id]
	if !ok {
		return nil, errors.New("thread not found")
	}
	return t, nil
}

func (s *fakeStore) GetPersona(ctx context.Context, userID, id string) (*model.Persona, error) {
	p, ok := s.personas[id]
	if !ok {
		return nil, errors.New("persona not found")
	}
	return p, nil
}

func (s *fakeStore) MessagesByThread(ctx context.Context, threadID string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range s.messages {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeStore) InsertMessage(ctx context.Context, threadID, sender, content string) (*model.Message, error) {
	s.nextID++
	msg := model.Message{
		ID:        fmt.Sprintf("msg-%d", s.nextID),
		ThreadID:  threadID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, msg)
	return &msg, nil
}

func (s *fakeStore) UpdateThreadTitle(ctx context.Context, threadID, title string) error {
	if s.titleErr != nil {
		return s.titleErr
	}
	s.titles[threadID] = title
	return nil
}

func (s *fakeStore) WorkplaceContext(ctx context.Context, userID string) (*model.WorkplaceContext, error) {
	return s.wc, nil
}

// fakeTurner replays scripted orchestrator results and records its inputs.
type fakeTurner struct {
	store   *fakeStore
	results []fakeTurnResult
	inputs  []orchestrator.TurnInput
}

type fakeTurnResult struct {
	speaker string
	content string
	wait    bool
	reason  string
	err     error
}

func (f *fakeTurner) Turn(ctx context.Context, in orchestrator.TurnInput) (*orchestrator.Result, error) {
	i := len(f.inputs)
	f.inputs = append(f.inputs, in)
	if i >= len(f.results) {
		return nil, errors.New("unexpected turn")
	}

	r := f.results[i]
	if r.err != nil {
		return nil, r.err
	}
	if r.wait {
		return &orchestrator.Result{ShouldWaitForUser: true, Reason: r.reason}, nil
	}

	msg, err := f.store.InsertMessage(ctx, in.ThreadID, r.speaker, r.content)
	if err != nil {
		return nil, err
	}
	return &orchestrator.Result{Message: msg, Reason: r.reason}, nil
}

func personaTurn(speaker, content string) fakeTurnResult {
	return fakeTurnResult{speaker: speaker, content: content, reason: speaker + "'s turn"}
}

func waitTurn(reason string) fakeTurnResult {
	return fakeTurnResult{wait: true, reason: reason}
}

func newController(store *fakeStore, turner *fakeTurner) *session.Controller {
	return session.NewController(store, turner, nil, logger.NewNop(), "user-1", "thread-1", "group-1")
}

func TestControllerHandsBackOnWaitDecision(t *testing.T) {
	store := newFakeStore()
	turner := &fakeTurner{store: store, results: []fakeTurnResult{
		personaTurn("Alice", "my two cents"),
		waitTurn("your move"),
	}}

	c := newController(store, turner)
	require.NoError(t, c.Send(context.Background(), "thoughts?"))

	assert.Equal(t, session.StateWaitingForUser, c.State())
	assert.Equal(t, "your move", c.Reason())
	assert.Zero(t, c.AITurns(), "the counter resets on hand-back")

	transcript := c.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, model.SenderUser, transcript[0].Sender)
	assert.Equal(t, "Alice", transcript[1].Sender)
}

func TestControllerEnforcesTurnBound(t *testing.T) {
	store := newFakeStore()
	turner := &fakeTurner{store: store, results: []fakeTurnResult{
		personaTurn("Alice", "first"),
		personaTurn("Bob", "second"),
		personaTurn("Alice", "third"),
		personaTurn("Bob", "never reached"),
	}}

	c := newController(store, turner)
	require.NoError(t, c.Send(context.Background(), "go"))

	assert.Equal(t, session.StateWaitingForUser, c.State())
	assert.Equal(t, session.TurnLimitReason, c.Reason())
	assert.Zero(t, c.AITurns())
	assert.Len(t, turner.inputs, session.MaxConsecutiveAITurns)
	assert.Len(t, c.Transcript(), 1+session.MaxConsecutiveAITurns)
}

func TestControllerBoundResetsBetweenSends(t *testing.T) {
	store := newFakeStore()
	turner := &fakeTurner{store: store, results: []fakeTurnResult{
		personaTurn("Alice", "a1"),
		personaTurn("Bob", "b1"),
		personaTurn("Alice", "a2"),
		// second send starts with a fresh budget
		personaTurn("Bob", "b2"),
		waitTurn("back to you"),
	}}

	c := newController(store, turner)
	require.NoError(t, c.Send(context.Background(), "first"))
	require.NoError(t, c.Send(context.Background(), "second"))

	assert.Equal(t, session.StateWaitingForUser, c.State())
	assert.Equal(t, "back to you", c.Reason())
	assert.Len(t, turner.inputs, 5)
}

func TestControllerContinuationCarriesNoContent(t *testing.T) {
	store := newFakeStore()
	turner := &fakeTurner{store: store, results: []fakeTurnResult{
		personaTurn("Alice", "reply"),
		waitTurn("done"),
	}}

	c := newController(store, turner)
	require.NoError(t, c.Send(context.Background(), "hello everyone"))

	require.Len(t, turner.inputs, 2)
	assert.Equal(t, "hello everyone", turner.inputs[0].NewContent)
	assert.Empty(t, turner.inputs[1].NewContent, "continuation cycles carry no fresh content")
}

func TestControllerErrorState(t *testing.T) {
	store := newFakeStore()
	turnErr := errors.New("decision exploded")
	turner := &fakeTurner{store: store, results: []fakeTurnResult{{err: turnErr}}}

	c := newController(store, turner)
	err := c.Send(context.Background(), "hi")

	require.ErrorIs(t, err, turnErr)
	assert.Equal(t, session.StateErrored, c.State())
	assert.ErrorIs(t, c.Err(), turnErr)
	assert.Zero(t, c.AITurns())

	// The user message was persisted before the cycle failed.
	require.Len(t, store.messages, 1)
	assert.Equal(t, model.SenderUser, store.messages[0].Sender)
}

func TestControllerDeduplicatesPushAndDirect(t *testing.T) {
	store := newFakeStore()
	turner := &fakeTurner{store: store, results: []fakeTurnResult{
		personaTurn("Alice", "reply"),
		waitTurn("done"),
	}}

	c := newController(store, turner)
	require.NoError(t, c.Send(context.Background(), "hi"))

	transcript := c.Transcript()
	require.Len(t, transcript, 2)

	// Replaying both messages over the push channel must not duplicate them.
	c.OnPush(transcript[0])
	c.OnPush(transcript[1])
	assert.Len(t, c.Transcript(), 2)
}

func TestControllerIgnoresForeignThreadPush(t *testing.T) {
	store := newFakeStore()
	c := newController(store, &fakeTurner{store: store})

	c.OnPush(model.Message{ID: "x", ThreadID: "other-thread", Sender: "Alice", Content: "hi"})
	assert.Empty(t, c.Transcript())
}

func TestControllerSingleMemberGroupStillDecides(t *testing.T) {
	store := newFakeStore()
	turner := &fakeTurner{store: store, results: []fakeTurnResult{
		personaTurn("Alice", "just me here"),
		waitTurn("all yours"),
	}}

	c := newController(store, turner)
	require.NoError(t, c.Send(context.Background(), "anyone?"))

	require.GreaterOrEqual(t, len(turner.inputs), 1, "a one-member group still goes through the decision cycle")
	assert.Equal(t, session.StateWaitingForUser, c.State())
}
