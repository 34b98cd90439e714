package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/orchestrator"
	"github.com/personachat/persona-platform/pkg/logger"
	"github.com/personachat/persona-platform/pkg/metrics"
)

// State names a controller phase.
type State string

const (
	StateIdle                 State = "idle"
	StateAwaitingOrchestrator State = "awaiting_orchestrator"
	StateAwaitingGeneration   State = "awaiting_generation"
	StateWaitingForUser       State = "waiting_for_user"
	StateErrored              State = "errored"
)

// MaxConsecutiveAITurns bounds how many AI turns may follow one human
// message. The bound is a backpressure valve against runaway multi-persona
// cross-talk, not an error condition.
const MaxConsecutiveAITurns = 3

// TurnLimitReason explains a forced hand-back when the bound is reached.
const TurnLimitReason = "The personas have gone back and forth a few times - jump back in and steer the conversation."

// Controller is the client-visible control loop for one group thread. It
// invokes the orchestrator repeatedly after a human message, tracks the
// consecutive-AI-turn counter, and merges messages arriving over the
// realtime push channel with direct orchestrator results so the same
// message is never recorded twice.
//
// All orchestration for one thread happens strictly sequentially; Send does
// not return until control is back with the human or the turn failed.
type Controller struct {
	mu sync.Mutex

	store     Store
	turner    Turner
	publisher orchestrator.Publisher
	logger    *logger.Logger

	userID   string
	threadID string
	groupID  string

	state      State
	aiTurns    int
	reason     string
	lastErr    error
	transcript []model.Message
	seen       map[string]bool
}

// NewController creates a controller bound to one group thread.
func NewController(store Store, turner Turner, publisher orchestrator.Publisher, log *logger.Logger, userID, threadID, groupID string) *Controller {
	return &Controller{
		store:     store,
		turner:    turner,
		publisher: publisher,
		logger:    log,
		userID:    userID,
		threadID:  threadID,
		groupID:   groupID,
		state:     StateIdle,
		seen:      make(map[string]bool),
	}
}

// State returns the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reason returns the explanation attached to the last hand-back or bound.
func (c *Controller) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Err returns the error that moved the controller into StateErrored.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// AITurns returns the consecutive-AI-turn counter.
func (c *Controller) AITurns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aiTurns
}

// Transcript returns the rendered transcript, push and direct deliveries
// merged.
func (c *Controller) Transcript() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Message(nil), c.transcript...)
}

// OnPush merges a message delivered over the realtime channel. Delivery is
// idempotent by message identity: a message that already arrived via the
// direct path is dropped, and vice versa.
func (c *Controller) OnPush(msg model.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.append(msg)
}

// append records a message exactly once. Callers hold c.mu.
func (c *Controller) append(msg model.Message) bool {
	if msg.ThreadID != c.threadID || c.seen[msg.ID] {
		return false
	}
	c.seen[msg.ID] = true
	c.transcript = append(c.transcript, msg)
	return true
}

// Send submits a human message and drives orchestrator cycles until control
// returns to the human, the turn bound is reached, or an error surfaces.
// The continuation is an explicit loop with a counter, checked once per
// iteration.
func (c *Controller) Send(ctx context.Context, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Persist the human message first, unconditionally.
	userMsg, err := c.store.InsertMessage(ctx, c.threadID, model.SenderUser, content)
	if err != nil {
		return c.fail(apperrors.Wrapf(apperrors.ErrPersistenceFailure, "%v", err))
	}
	metrics.MessagesTotal.WithLabelValues(model.SenderUser).Inc()
	c.append(*userMsg)
	if c.publisher != nil {
		if _, err := c.publisher.PublishMessage(ctx, userMsg); err != nil {
			c.logger.Warn("failed to publish user message", zap.Error(err))
		}
	}

	newContent := content
	for {
		c.state = StateAwaitingOrchestrator
		res, err := c.turner.Turn(ctx, orchestrator.TurnInput{
			UserID:     c.userID,
			ThreadID:   c.threadID,
			GroupID:    c.groupID,
			NewContent: newContent,
		})
		if err != nil {
			return c.fail(err)
		}
		newContent = ""

		if res.ShouldWaitForUser {
			c.waitForUser(res.Reason)
			return nil
		}

		c.state = StateAwaitingGeneration
		if res.Message != nil {
			c.append(*res.Message)
		}
		c.aiTurns++

		if c.aiTurns >= MaxConsecutiveAITurns {
			c.waitForUser(TurnLimitReason)
			return nil
		}
	}
}

// waitForUser moves to the terminal hand-back state and resets the counter.
// Callers hold c.mu.
func (c *Controller) waitForUser(reason string) {
	metrics.OrchestratorTurnDepth.Observe(float64(c.aiTurns))
	c.state = StateWaitingForUser
	c.reason = reason
	c.aiTurns = 0
	c.lastErr = nil
}

// fail surfaces an error, resets the counter, and leaves the thread
// consistent. Callers hold c.mu.
func (c *Controller) fail(err error) error {
	c.state = StateErrored
	c.lastErr = err
	c.aiTurns = 0
	c.logger.Error("group chat turn failed",
		zap.String("thread_id", c.threadID),
		zap.Error(err),
	)
	return err
}
