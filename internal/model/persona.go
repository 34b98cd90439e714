// Package model defines data structures for the persona feedback platform.
package model

import (
	"time"
)

// Persona represents a simulated customer profile. The system prompt is
// produced by a prompt-generation step and remains editable afterwards.
type Persona struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Title        string    `json:"title"`
	Age          int       `json:"age"`
	Industry     string    `json:"industry"`
	Experience   string    `json:"experience"`
	PainPoints   string    `json:"pain_points"`
	Values       string    `json:"values"`
	Personality  string    `json:"personality"`
	SystemPrompt string    `json:"system_prompt"`
	IsDeleted    bool      `json:"is_deleted,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PersonaInput carries the biographical attributes used to create a persona
// or to generate its system prompt.
type PersonaInput struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	Age          int    `json:"age"`
	Industry     string `json:"industry"`
	Experience   string `json:"experience"`
	PainPoints   string `json:"pain_points"`
	Values       string `json:"values"`
	Personality  string `json:"personality"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// GeneratePromptResponse is the response of the persona prompt generation endpoint.
type GeneratePromptResponse struct {
	SystemPrompt string `json:"system_prompt"`
}
