package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/personachat/persona-platform/internal/middleware"
	"github.com/personachat/persona-platform/internal/model"
	"github.com/personachat/persona-platform/internal/nats"
	"github.com/personachat/persona-platform/internal/service"
	"github.com/personachat/persona-platform/pkg/logger"
	"github.com/personachat/persona-platform/pkg/metrics"
)

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	threadService *service.ThreadService
	stream        *nats.ThreadStream
	logger        *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(
	threadSvc *service.ThreadService,
	stream *nats.ThreadStream,
	log *logger.Logger,
) *StreamHandler {
	return &StreamHandler{
		threadService: threadSvc,
		stream:        stream,
		logger:        log,
	}
}

// ReplayCompleteEvent marks the end of message replay.
type ReplayCompleteEvent struct {
	LastSequence uint64 `json:"last_sequence"`
	MessageCount int    `json:"message_count"`
}

const replayBatchSize = 50

// Stream handles GET /api/v1/threads/:id/stream
// Supports ?after_sequence=N for resuming from a specific point.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	threadID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Verify the thread exists and belongs to the caller
	if _, err := h.threadService.Get(ctx, userID, threadID); err != nil {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}

	// Parse after_sequence query param for replay
	var afterSequence uint64
	if seqStr := r.URL.Query().Get("after_sequence"); seqStr != "" {
		seq, err := strconv.ParseUint(seqStr, 10, 64)
		if err == nil {
			afterSequence = seq
		}
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Track active connection
	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	done := ctx.Done()

	// Send initial connection event
	sendSSEEvent(w, flusher, "connected", map[string]string{
		"thread_id": threadID,
	})

	// Subscribe before replay so nothing published during the replay
	// window is missed. Duplicates are filtered by sequence below.
	live, err := h.stream.Subscribe(ctx, threadID)
	if err != nil {
		h.logger.Error("failed to subscribe to thread",
			zap.String("thread_id", threadID), zap.Error(err))
		sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
			Code:    "subscribe_error",
			Message: "Failed to subscribe to thread",
		})
		return
	}

	// Replay missed messages; replays everything when after_sequence is 0
	var lastSequence uint64
	var totalReplayed int

	for {
		messages, last, hasMore, err := h.stream.Replay(ctx, threadID, afterSequence, replayBatchSize)
		if err != nil {
			h.logger.Error("failed to replay messages",
				zap.String("thread_id", threadID), zap.Error(err))
			sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
				Code:    "replay_error",
				Message: "Failed to replay messages",
			})
			break
		}

		for _, msg := range messages {
			select {
			case <-done:
				return
			default:
			}

			sendSSEEvent(w, flusher, "message", msg)
			totalReplayed++
		}

		if last > lastSequence {
			lastSequence = last
		}

		if hasMore {
			afterSequence = lastSequence
		} else {
			break
		}
	}

	// Send replay complete event
	sendSSEEvent(w, flusher, "replay_complete", &ReplayCompleteEvent{
		LastSequence: lastSequence,
		MessageCount: totalReplayed,
	})

	h.logger.Info("message replay complete",
		zap.String("thread_id", threadID),
		zap.Int("messages_replayed", totalReplayed),
		zap.Uint64("last_sequence", lastSequence),
	)

	// Heartbeat keeps intermediaries from closing the idle connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			h.logger.Info("SSE client disconnected", zap.String("thread_id", threadID))
			return

		case msg := <-live:
			// Skip anything already delivered during replay
			if msg.Sequence != 0 && msg.Sequence <= lastSequence {
				continue
			}
			if msg.Sequence > lastSequence {
				lastSequence = msg.Sequence
			}
			sendSSEEvent(w, flusher, "message", msg)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now(),
			})
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
