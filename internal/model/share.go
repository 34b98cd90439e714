package model

import (
	"time"
)

// PersonaDetails is the snapshot of persona attributes embedded in a public
// thread. Only display-safe fields are copied.
type PersonaDetails struct {
	Name       string `json:"name"`
	Title      string `json:"title"`
	Age        int    `json:"age"`
	Industry   string `json:"industry"`
	Experience string `json:"experience"`
}

// PublicThread is a read-only snapshot of a thread published for sharing.
// The shape is enforced here at the serialization boundary rather than
// stored as an open map.
type PublicThread struct {
	ID             string         `json:"id"`
	ThreadID       string         `json:"thread_id"`
	Title          string         `json:"title"`
	PersonaDetails PersonaDetails `json:"persona_details"`
	Messages       []Message      `json:"messages"`
	CreatedBy      string         `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ShareThreadResponse is the response after publishing a thread.
type ShareThreadResponse struct {
	PublicID string `json:"public_id"`
}
