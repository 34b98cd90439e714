package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/llm"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/service"
	"github.com/personachat/persona-platform/internal/store"
	"github.com/personachat/persona-platform/pkg/logger"
)

type fakeLLM struct {
	last    *llm.CompletionRequest
	content string
	err     error
}

func (c *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.last = req
	if c.err != nil {
		return nil, c.err
	}
	return &llm.CompletionResponse{Content: c.content}, nil
}

func (c *fakeLLM) Name() string { return "fake" }

func (c *fakeLLM) Models() []string { return nil }

func TestGeneratePrompt(t *testing.T) {
	client := &fakeLLM{content: `<persona_analysis>
thinking
</persona_analysis>

<system_prompt>
You are Dana, a 34-year-old Operations Lead.
</system_prompt>`}

	svc := service.NewPersonaService(store.NewMemory(), client, logger.NewNop())
	got, err := svc.GeneratePrompt(context.Background(), model.PersonaInput{
		Name: "Dana", Title: "Operations Lead", Age: 34,
	})

	require.NoError(t, err)
	assert.Equal(t, "You are Dana, a 34-year-old Operations Lead.", got)

	require.NotNil(t, client.last)
	assert.Equal(t, 2048, client.last.MaxTokens)
	assert.Equal(t, 0.7, client.last.Temperature)
	assert.Contains(t, client.last.Messages[0].Content, "Name: Dana")
}

func TestGeneratePromptMissingTag(t *testing.T) {
	client := &fakeLLM{content: "just prose, no tags"}
	svc := service.NewPersonaService(store.NewMemory(), client, logger.NewNop())

	_, err := svc.GeneratePrompt(context.Background(), model.PersonaInput{Name: "Dana"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrEmptyGeneration))
}

func TestGeneratePromptProviderError(t *testing.T) {
	client := &fakeLLM{err: errors.New("timeout")}
	svc := service.NewPersonaService(store.NewMemory(), client, logger.NewNop())

	_, err := svc.GeneratePrompt(context.Background(), model.PersonaInput{Name: "Dana"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrGenerationFailure))
}

func TestGeneratePromptWithoutClient(t *testing.T) {
	svc := service.NewPersonaService(store.NewMemory(), nil, logger.NewNop())

	_, err := svc.GeneratePrompt(context.Background(), model.PersonaInput{Name: "Dana"})
	assert.Error(t, err)
}

func TestDeletePersonaKeepsHistory(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	svc := service.NewPersonaService(mem, nil, logger.NewNop())

	p, err := svc.Create(ctx, "user-1", model.PersonaInput{Name: "Dana"})
	require.NoError(t, err)

	thread, err := mem.CreateThread(ctx, "user-1", model.CreateThreadRequest{
		Title:     "history",
		PersonaID: p.ID,
	})
	require.NoError(t, err)
	_, err = mem.InsertMessage(ctx, thread.ID, "Dana", "still here")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "user-1", p.ID))

	// The persona is gone from listings but its messages survive.
	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	msgs, err := mem.MessagesByThread(ctx, thread.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}
