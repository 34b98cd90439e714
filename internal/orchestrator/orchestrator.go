// Package orchestrator implements group-chat turn-taking: after any message
// lands in a group thread, it decides who speaks next and, on an AI turn,
// drives the persona's generation and persistence.
//
// The decision and the generation are two independent model calls. Turn
// selection is a cheap structured classification; persona voice is an
// open-ended generation. Keeping them separate lets the two prompts and
// their failure handling evolve independently and keeps the decision output
// machine-parseable.
package orchestrator

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/llm"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/prompt"
	"github.com/personachat/persona-platform/pkg/logger"
	"github.com/personachat/persona-platform/pkg/metrics"
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	GroupRoster(ctx context.Context, groupID string) ([]model.Persona, error)
	MessagesByThread(ctx context.Context, threadID string) ([]model.Message, error)
	InsertMessage(ctx context.Context, threadID, sender, content string) (*model.Message, error)
	WorkplaceContext(ctx context.Context, userID string) (*model.WorkplaceContext, error)
}

// Gateway is the language-model capability the orchestrator drives.
type Gateway interface {
	Generate(ctx context.Context, systemPrompt string, history []llm.ChatMessage) (string, error)
}

// Publisher pushes persisted messages onto the realtime channel. Publishing
// is best-effort; a failed push never fails the turn.
type Publisher interface {
	PublishMessage(ctx context.Context, msg *model.Message) (uint64, error)
}

// TurnInput describes one orchestrator invocation. NewContent carries the
// freshly submitted user text, already persisted by the caller; it is empty
// on a recursive continuation, in which case the newest message is the last
// entry of the history.
type TurnInput struct {
	UserID     string
	ThreadID   string
	GroupID    string
	NewContent string
}

// Result is the outcome of one turn cycle. Either ShouldWaitForUser is set
// and no message was generated, or Message holds the persisted persona
// reply.
type Result struct {
	Message           *model.Message
	ShouldWaitForUser bool
	Reason            string
}

// Orchestrator decides and executes group-chat turns.
type Orchestrator struct {
	store     Store
	gateway   Gateway
	publisher Publisher
	logger    *logger.Logger
}

// New creates an orchestrator. publisher may be nil when no realtime
// channel is wired.
func New(store Store, gateway Gateway, publisher Publisher, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		logger:    log,
	}
}

// decisionPersona is the roster entry serialized into the decision payload.
type decisionPersona struct {
	Name         string `json:"name"`
	Personality  string `json:"personality"`
	Experience   string `json:"experience"`
	SystemPrompt string `json:"system_prompt"`
}

// decisionMessage is the history entry serialized into the decision payload.
type decisionMessage struct {
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	ID        string `json:"id"`
	ThreadID  string `json:"thread_id"`
	CreatedAt string `json:"created_at"`
}

type decisionPayload struct {
	Personas       []decisionPersona `json:"personas"`
	MessageHistory []decisionMessage `json:"messageHistory"`
	NewMessage     *decisionMessage  `json:"newMessage"`
}

// Turn runs one decision cycle and, when a persona is chosen, its
// generation. The caller has already persisted any new user message; the
// fetched history therefore always contains the newest message.
func (o *Orchestrator) Turn(ctx context.Context, in TurnInput) (*Result, error) {
	roster, err := o.store.GroupRoster(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	history, err := o.store.MessagesByThread(ctx, in.ThreadID)
	if err != nil {
		return nil, err
	}

	decision, err := o.decide(ctx, roster, history, in.NewContent)
	if err != nil {
		// Only a malformed decision is labeled invalid; a transport failure
		// on the decision call is a gateway error, not a bad decision.
		if apperrors.Is(err, apperrors.ErrInvalidOrchestratorResponse) {
			metrics.OrchestratorDecisionsTotal.WithLabelValues(metrics.DecisionInvalid).Inc()
		}
		return nil, err
	}

	o.logger.Info("orchestrator decision",
		zap.String("thread_id", in.ThreadID),
		zap.String("responder", decision.Responder),
		zap.String("reason", decision.Reason),
	)

	if decision.WaitsForUser() {
		metrics.OrchestratorDecisionsTotal.WithLabelValues(metrics.DecisionWaitForUser).Inc()
		return &Result{ShouldWaitForUser: true, Reason: decision.Reason}, nil
	}

	// Resolve by exact name match. The orchestrator never invents senders
	// and never substitutes when the named persona is missing.
	var speaker *model.Persona
	for i := range roster {
		if roster[i].Name == decision.Responder {
			speaker = &roster[i]
			break
		}
	}
	if speaker == nil {
		metrics.OrchestratorDecisionsTotal.WithLabelValues(metrics.DecisionInvalid).Inc()
		return nil, apperrors.Wrapf(apperrors.ErrUnknownResponder, "%q is not in the group", decision.Responder)
	}
	metrics.OrchestratorDecisionsTotal.WithLabelValues(metrics.DecisionPersonaTurn).Inc()

	msg, err := o.generate(ctx, in, speaker, history)
	if err != nil {
		return nil, err
	}

	return &Result{Message: msg, Reason: decision.Reason}, nil
}

// decide serializes the roster, history, and newest message as the sole
// user turn of a single-message transcript and parses the strict JSON
// decision. Parse failure is fatal for this invocation; there is no retry
// and no default responder.
func (o *Orchestrator) decide(ctx context.Context, roster []model.Persona, history []model.Message, newContent string) (*model.Decision, error) {
	payload := decisionPayload{
		Personas:       make([]decisionPersona, 0, len(roster)),
		MessageHistory: make([]decisionMessage, 0, len(history)),
	}
	for _, p := range roster {
		payload.Personas = append(payload.Personas, decisionPersona{
			Name:         p.Name,
			Personality:  p.Personality,
			Experience:   p.Experience,
			SystemPrompt: p.SystemPrompt,
		})
	}
	for _, m := range history {
		payload.MessageHistory = append(payload.MessageHistory, toDecisionMessage(m))
	}

	if newContent != "" {
		// The freshly persisted user message is presented separately, not
		// duplicated inside the history.
		if n := len(payload.MessageHistory); n > 0 {
			last := payload.MessageHistory[n-1]
			if last.Sender == model.SenderUser && last.Content == newContent {
				payload.MessageHistory = payload.MessageHistory[:n-1]
				payload.NewMessage = &last
			}
		}
		if payload.NewMessage == nil {
			payload.NewMessage = &decisionMessage{Sender: model.SenderUser, Content: newContent}
		}
	} else if n := len(payload.MessageHistory); n > 0 {
		payload.NewMessage = &payload.MessageHistory[n-1]
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to serialize decision payload")
	}

	response, err := o.gateway.Generate(ctx, prompt.OrchestratorSystemPrompt, []llm.ChatMessage{
		{Role: llm.RoleUser, Content: string(raw)},
	})
	if err != nil {
		return nil, err
	}

	return parseDecision(response)
}

// parseDecision enforces the decision wire contract: a single JSON object
// with exactly the responder and reason keys, and no prose around it.
func parseDecision(raw string) (*model.Decision, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()

	var d model.Decision
	if err := dec.Decode(&d); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidOrchestratorResponse, "%v", err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidOrchestratorResponse, "trailing content %v", tok)
	}
	if d.Responder == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidOrchestratorResponse, "missing responder")
	}

	return &d, nil
}

// generate produces and persists the chosen persona's reply over the full
// transcript.
func (o *Orchestrator) generate(ctx context.Context, in TurnInput, speaker *model.Persona, history []model.Message) (*model.Message, error) {
	wc, err := o.store.WorkplaceContext(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	systemPrompt := prompt.ComposePersona(speaker.Name, speaker.SystemPrompt, wc)

	transcript := make([]llm.ChatMessage, 0, len(history))
	for _, m := range history {
		role := llm.RoleAssistant
		if m.FromUser() {
			role = llm.RoleUser
		}
		transcript = append(transcript, llm.ChatMessage{Role: role, Content: m.Content})
	}

	text, err := o.gateway.Generate(ctx, systemPrompt, transcript)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Wrapf(apperrors.ErrEmptyGeneration, "persona %s", speaker.Name)
	}

	msg, err := o.store.InsertMessage(ctx, in.ThreadID, speaker.Name, text)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrPersistenceFailure, "%v", err)
	}
	metrics.MessagesTotal.WithLabelValues("persona").Inc()

	if o.publisher != nil {
		if _, err := o.publisher.PublishMessage(ctx, msg); err != nil {
			o.logger.Warn("failed to publish persona message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return msg, nil
}

func toDecisionMessage(m model.Message) decisionMessage {
	return decisionMessage{
		Sender:    m.Sender,
		Content:   m.Content,
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		CreatedAt: m.CreatedAt.Format(time.RFC3339Nano),
	}
}
