package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/personachat/persona-platform/internal/model"
)

const (
	// StreamName is the name of the thread message stream.
	StreamName = "PERSONA_THREADS"

	// SubjectPrefix is the prefix for all thread subjects.
	SubjectPrefix = "thread"
)

// ThreadStream publishes persisted messages onto JetStream and serves them
// back for realtime delivery and replay. The store stays authoritative;
// the stream is the push channel.
type ThreadStream struct {
	client *Client
}

// NewThreadStream creates a stream manager over the given client.
func NewThreadStream(client *Client) *ThreadStream {
	return &ThreadStream{client: client}
}

// EnsureStream ensures the thread stream exists with proper configuration.
func (m *ThreadStream) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Persona thread messages",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject for a thread message.
func MessageSubject(threadID string) string {
	return fmt.Sprintf("%s.%s.msg", SubjectPrefix, threadID)
}

// PublishMessage publishes a persisted message to the thread's subject.
func (m *ThreadStream) PublishMessage(ctx context.Context, msg *model.Message) (uint64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, MessageSubject(msg.ThreadID), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish message: %w", err)
	}

	return ack.Sequence, nil
}

// Replay fetches up to limit messages for a thread after the given stream
// sequence.
func (m *ThreadStream) Replay(ctx context.Context, threadID string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error) {
	js := m.client.JetStream()

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: MessageSubject(threadID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := js.CreateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return collectBatch(batch, limit)
}

// collectBatch decodes a fetched batch. hasMore is computed from the number
// of fetched entries, not the number that decoded, so an undecodable entry
// cannot end replay early. Undecodable entries still advance the resume
// sequence and are not refetched.
func collectBatch(batch jetstream.MessageBatch, limit int) ([]model.Message, uint64, bool, error) {
	var messages []model.Message
	var lastSequence uint64
	fetched := 0

	for msg := range batch.Messages() {
		fetched++
		message, ok := decodeStreamMessage(msg)
		if message.Sequence > lastSequence {
			lastSequence = message.Sequence
		}
		if !ok {
			continue
		}
		messages = append(messages, message)
	}

	if batch.Error() != nil && batch.Error() != context.DeadlineExceeded {
		return nil, 0, false, fmt.Errorf("batch error: %w", batch.Error())
	}

	return messages, lastSequence, fetched == limit, nil
}

// decodeStreamMessage unmarshals a stream entry and stamps its stream
// sequence. The sequence is stamped even when the body does not decode.
func decodeStreamMessage(msg jetstream.Msg) (model.Message, bool) {
	var message model.Message
	ok := json.Unmarshal(msg.Data(), &message) == nil
	if meta, err := msg.Metadata(); err == nil {
		message.Sequence = meta.Sequence.Stream
	}
	return message, ok
}

// Subscribe delivers live messages for a thread onto the returned channel
// until ctx is cancelled. Consumption starts at new messages only; replay
// is handled separately. The channel is never closed; readers must exit on
// ctx cancellation.
func (m *ThreadStream) Subscribe(ctx context.Context, threadID string) (<-chan model.Message, error) {
	js := m.client.JetStream()

	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject: MessageSubject(threadID),
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	ch := make(chan model.Message, 16)

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		message, ok := decodeStreamMessage(msg)
		if !ok {
			return
		}
		forward(ctx, ch, message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to consume: %w", err)
	}

	// ch stays open. Stop does not wait for an in-flight callback, and
	// closing here would turn a callback blocked in forward into a send on
	// a closed channel.
	go func() {
		<-ctx.Done()
		cc.Stop()
	}()

	return ch, nil
}

// forward hands a message to the subscriber channel, giving up once ctx is
// cancelled and the reader is gone.
func forward(ctx context.Context, ch chan<- model.Message, message model.Message) {
	select {
	case ch <- message:
	case <-ctx.Done():
	}
}
