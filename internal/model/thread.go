package model

import (
	"time"
)

// Thread is a single conversation scoped to exactly one persona or one
// persona group. The scope reference is immutable after creation.
type Thread struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PersonaID string    `json:"persona_id,omitempty"`
	GroupID   string    `json:"group_id,omitempty"`
	Title     string    `json:"title"`
	PublicID  string    `json:"public_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsGroup reports whether the thread is scoped to a persona group.
func (t *Thread) IsGroup() bool {
	return t.GroupID != ""
}

// CreateThreadRequest is the request to create a thread. Exactly one of
// persona_id and group_id must be set.
type CreateThreadRequest struct {
	PersonaID string `json:"persona_id,omitempty"`
	GroupID   string `json:"group_id,omitempty"`
	Title     string `json:"title"`
}

// UpdateThreadRequest is the request to rename a thread.
type UpdateThreadRequest struct {
	Title string `json:"title"`
}

// ListThreadsResponse is the response for listing threads.
type ListThreadsResponse struct {
	Threads []Thread `json:"threads"`
	Total   int      `json:"total"`
}
