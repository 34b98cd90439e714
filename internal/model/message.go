package model

import (
	"time"
)

// SenderUser is the literal sender tag for human messages. AI messages carry
// the persona's display name as the sender, never a generic assistant role.
const SenderUser = "user"

// Message is an immutable entry in a thread, ordered by creation timestamp
// with insertion order breaking ties.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	// JetStream metadata, populated when delivered over the event stream.
	Sequence uint64 `json:"sequence,omitempty"`
}

// FromUser reports whether the message was sent by the human.
func (m *Message) FromUser() bool {
	return m.Sender == SenderUser
}

// SendMessageRequest is the request body for POST /chat.
type SendMessageRequest struct {
	ThreadID string `json:"thread_id"`
	Content  string `json:"content"`
}

// SendMessageResponse is the response after a single-persona exchange.
type SendMessageResponse struct {
	Message      *Message `json:"message"`
	UpdatedTitle string   `json:"updated_title,omitempty"`
}

// GroupChatRequest is the request body for POST /group-chat. Content is
// empty on a continuation cycle that follows an AI turn.
type GroupChatRequest struct {
	ThreadID string `json:"thread_id"`
	GroupID  string `json:"group_id"`
	Content  string `json:"content,omitempty"`
}

// GroupChatResponse is the outcome of one orchestrator cycle.
type GroupChatResponse struct {
	Message           *Message `json:"message,omitempty"`
	ShouldWaitForUser bool     `json:"should_wait_for_user"`
	Reason            string   `json:"reason"`
}

// ListMessagesResponse is the response for listing a thread's messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
	Total    int       `json:"total"`
}
