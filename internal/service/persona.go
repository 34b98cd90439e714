// Package service provides business logic for the persona platform.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/llm"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/prompt"
	"github.com/personachat/persona-platform/internal/store"
	"github.com/personachat/persona-platform/pkg/logger"
)

// PersonaService handles persona CRUD and system-prompt generation.
type PersonaService struct {
	store     *store.Memory
	llmClient llm.Client
	logger    *logger.Logger
}

// NewPersonaService creates a new persona service. llmClient may be nil;
// prompt generation is then unavailable.
func NewPersonaService(st *store.Memory, llmClient llm.Client, log *logger.Logger) *PersonaService {
	return &PersonaService{
		store:     st,
		llmClient: llmClient,
		logger:    log,
	}
}

// Create stores a new persona.
func (s *PersonaService) Create(ctx context.Context, userID string, in model.PersonaInput) (*model.Persona, error) {
	p, err := s.store.CreatePersona(ctx, userID, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info("persona created",
		zap.String("persona_id", p.ID),
		zap.String("user_id", userID),
	)

	return p, nil
}

// Get retrieves a persona by id.
func (s *PersonaService) Get(ctx context.Context, userID, id string) (*model.Persona, error) {
	return s.store.GetPersona(ctx, userID, id)
}

// List returns the user's personas.
func (s *PersonaService) List(ctx context.Context, userID string) ([]model.Persona, error) {
	return s.store.ListPersonas(ctx, userID)
}

// Update applies an explicit edit to a persona.
func (s *PersonaService) Update(ctx context.Context, userID, id string, in model.PersonaInput) (*model.Persona, error) {
	return s.store.UpdatePersona(ctx, userID, id, in)
}

// Delete soft-deletes a persona, preserving historical threads.
func (s *PersonaService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeletePersona(ctx, userID, id)
}

// GeneratePrompt asks the model to write a persona system prompt from
// biographical attributes. The prompt-engineering template wraps its output
// in a system_prompt tag that is stripped here.
func (s *PersonaService) GeneratePrompt(ctx context.Context, in model.PersonaInput) (string, error) {
	if s.llmClient == nil {
		return "", apperrors.New("prompt generation unavailable: no LLM configured")
	}

	resp, err := s.llmClient.Complete(ctx, &llm.CompletionRequest{
		System: prompt.PersonaGenerationSystemPrompt,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: prompt.PersonaGeneration(in)},
		},
		MaxTokens:   2048,
		Temperature: 0.7,
	})
	if err != nil {
		return "", apperrors.Wrapf(apperrors.ErrGenerationFailure, "%v", err)
	}

	generated := prompt.ExtractSystemPrompt(resp.Content)
	if generated == "" {
		return "", apperrors.Wrap(apperrors.ErrEmptyGeneration, "no system prompt in response")
	}

	return generated, nil
}
