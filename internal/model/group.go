package model

import (
	"time"
)

// PersonaGroup is a named set of personas sharing group threads. Members are
// unordered; speaking order is decided per turn by the orchestrator.
type PersonaGroup struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PersonaGroupWithMembers is a group joined with its member personas.
type PersonaGroupWithMembers struct {
	PersonaGroup
	Members []Persona `json:"members"`
}

// CreateGroupRequest is the request to create a persona group.
type CreateGroupRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	PersonaIDs  []string `json:"persona_ids"`
}
