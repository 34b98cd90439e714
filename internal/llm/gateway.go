package llm

import (
	"context"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/pkg/metrics"
)

// Sampling configuration shared by every generation in this service. Persona
// replies are deliberately short and slightly warm; the values are not
// tunable per call.
const (
	generationMaxTokens   = 200
	generationTemperature = 0.8
)

// Gateway wraps a provider client as a plain text-in/text-out capability
// over a role-tagged transcript. It knows nothing about personas, threads,
// or groups, performs no retries, and produces no streamed output.
type Gateway struct {
	client Client
	model  string
}

// NewGateway creates a gateway over the given provider client. An empty
// model selects the provider default.
func NewGateway(client Client, model string) *Gateway {
	return &Gateway{client: client, model: model}
}

// Generate runs one completion with the fixed sampling configuration.
// System-tagged history entries are dropped; only user and assistant turns
// are forwarded. Any provider or transport error is returned as a single
// generation failure.
func (g *Gateway) Generate(ctx context.Context, systemPrompt string, history []ChatMessage) (string, error) {
	filtered := make([]ChatMessage, 0, len(history))
	for _, msg := range history {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			continue
		}
		filtered = append(filtered, msg)
	}

	resp, err := g.client.Complete(ctx, &CompletionRequest{
		Model:       g.model,
		System:      systemPrompt,
		Messages:    filtered,
		MaxTokens:   generationMaxTokens,
		Temperature: generationTemperature,
	})
	if err != nil {
		metrics.RecordLLMRequest(g.client.Name(), "error", 0)
		return "", apperrors.Wrapf(apperrors.ErrGenerationFailure, "%v", err)
	}

	metrics.RecordLLMRequest(g.client.Name(), "success", float64(resp.LatencyMs)/1000.0)
	return resp.Content, nil
}
