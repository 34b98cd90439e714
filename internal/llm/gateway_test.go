package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/llm"
)

type fakeClient struct {
	last    *llm.CompletionRequest
	content string
	err     error
}

func (c *fakeClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.last = req
	if c.err != nil {
		return nil, c.err
	}
	return &llm.CompletionResponse{Content: c.content}, nil
}

func (c *fakeClient) Name() string { return "fake" }

func (c *fakeClient) Models() []string { return nil }

func TestGatewayFixedSampling(t *testing.T) {
	client := &fakeClient{content: "hi"}
	gw := llm.NewGateway(client, "some-model")

	_, err := gw.Generate(context.Background(), "be brief", []llm.ChatMessage{
		{Role: llm.RoleUser, Content: "hello"},
	})

	require.NoError(t, err)
	require.NotNil(t, client.last)
	assert.Equal(t, "some-model", client.last.Model)
	assert.Equal(t, "be brief", client.last.System)
	assert.Equal(t, 200, client.last.MaxTokens)
	assert.Equal(t, 0.8, client.last.Temperature)
}

func TestGatewayFiltersSystemRoles(t *testing.T) {
	client := &fakeClient{content: "ok"}
	gw := llm.NewGateway(client, "")

	_, err := gw.Generate(context.Background(), "", []llm.ChatMessage{
		{Role: llm.RoleSystem, Content: "sneaky system turn"},
		{Role: llm.RoleUser, Content: "question"},
		{Role: "tool", Content: "tool output"},
		{Role: llm.RoleAssistant, Content: "answer"},
	})

	require.NoError(t, err)
	require.NotNil(t, client.last)
	require.Len(t, client.last.Messages, 2)
	assert.Equal(t, llm.RoleUser, client.last.Messages[0].Role)
	assert.Equal(t, llm.RoleAssistant, client.last.Messages[1].Role)
}

func TestGatewayWrapsProviderErrors(t *testing.T) {
	client := &fakeClient{err: errors.New("connection reset")}
	gw := llm.NewGateway(client, "")

	_, err := gw.Generate(context.Background(), "", []llm.ChatMessage{
		{Role: llm.RoleUser, Content: "hello"},
	})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrGenerationFailure))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGatewayReturnsContentVerbatim(t *testing.T) {
	client := &fakeClient{content: "  raw content  "}
	gw := llm.NewGateway(client, "")

	got, err := gw.Generate(context.Background(), "", []llm.ChatMessage{
		{Role: llm.RoleUser, Content: "hello"},
	})

	require.NoError(t, err)
	assert.Equal(t, "  raw content  ", got, "the gateway does not trim; emptiness checks belong to callers")
}
