package session

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/llm"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/orchestrator"
	"github.com/personachat/persona-platform/internal/prompt"
	"github.com/personachat/persona-platform/pkg/logger"
	"github.com/personachat/persona-platform/pkg/metrics"
)

// Gateway is the text generation capability used by the chat flow.
type Gateway interface {
	Generate(ctx context.Context, systemPrompt string, history []llm.ChatMessage) (string, error)
}

// Chat is the single-persona conversation flow: persist the human message,
// generate one reply, persist it. No decision step, no recursion.
type Chat struct {
	store     Store
	gateway   Gateway
	publisher orchestrator.Publisher
	logger    *logger.Logger
}

// NewChat creates the single-persona chat flow. publisher may be nil.
func NewChat(store Store, gateway Gateway, publisher orchestrator.Publisher, log *logger.Logger) *Chat {
	return &Chat{
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		logger:    log,
	}
}

// Send runs one exchange with the thread's persona. On the first AI reply
// in a thread a one-shot title generation may rename the thread;
// title failure is cosmetic and never blocks the exchange.
func (c *Chat) Send(ctx context.Context, userID, threadID, content string) (*model.SendMessageResponse, error) {
	thread, err := c.store.GetThread(ctx, userID, threadID)
	if err != nil {
		return nil, err
	}
	if thread.IsGroup() {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "persona thread")
	}

	persona, err := c.store.GetPersona(ctx, userID, thread.PersonaID)
	if err != nil {
		return nil, err
	}

	wc, err := c.store.WorkplaceContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	userMsg, err := c.store.InsertMessage(ctx, threadID, model.SenderUser, content)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrPersistenceFailure, "%v", err)
	}
	metrics.MessagesTotal.WithLabelValues(model.SenderUser).Inc()
	c.publish(ctx, userMsg)

	history, err := c.store.MessagesByThread(ctx, threadID)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrPersistenceFailure, "%v", err)
	}

	systemPrompt := prompt.ComposePersona(persona.Name, persona.SystemPrompt, wc)

	transcript := make([]llm.ChatMessage, 0, len(history))
	for _, m := range history {
		role := llm.RoleAssistant
		if m.FromUser() {
			role = llm.RoleUser
		}
		transcript = append(transcript, llm.ChatMessage{Role: role, Content: m.Content})
	}

	text, err := c.gateway.Generate(ctx, systemPrompt, transcript)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.Wrapf(apperrors.ErrEmptyGeneration, "persona %s", persona.Name)
	}

	reply, err := c.store.InsertMessage(ctx, threadID, persona.Name, text)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrPersistenceFailure, "%v", err)
	}
	metrics.MessagesTotal.WithLabelValues("persona").Inc()
	c.publish(ctx, reply)

	resp := &model.SendMessageResponse{Message: reply}

	// First AI reply in a two-message thread triggers a one-shot title.
	if len(history) == 1 {
		if title := c.generateTitle(ctx, threadID, content, text); title != "" {
			resp.UpdatedTitle = title
		}
	}

	return resp, nil
}

// generateTitle names the thread after its opening exchange. Best-effort:
// failures are logged and swallowed.
func (c *Chat) generateTitle(ctx context.Context, threadID, firstUserMessage, firstReply string) string {
	text, err := c.gateway.Generate(ctx, "", []llm.ChatMessage{
		{Role: llm.RoleUser, Content: prompt.ThreadTitle(firstUserMessage, firstReply)},
	})
	if err != nil {
		metrics.TitleGenerationsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("title generation failed", zap.String("thread_id", threadID), zap.Error(err))
		return ""
	}

	title := strings.TrimSpace(text)
	if title == "" {
		metrics.TitleGenerationsTotal.WithLabelValues("empty").Inc()
		return ""
	}

	if err := c.store.UpdateThreadTitle(ctx, threadID, title); err != nil {
		metrics.TitleGenerationsTotal.WithLabelValues("error").Inc()
		c.logger.Warn("failed to persist thread title", zap.String("thread_id", threadID), zap.Error(err))
		return ""
	}

	metrics.TitleGenerationsTotal.WithLabelValues("success").Inc()
	return title
}

func (c *Chat) publish(ctx context.Context, msg *model.Message) {
	if c.publisher == nil {
		return
	}
	if _, err := c.publisher.PublishMessage(ctx, msg); err != nil {
		c.logger.Warn("failed to publish message",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}
}
