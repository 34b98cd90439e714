package model

import (
	"time"
)

// WorkplaceContext supplies company and product metadata that the prompt
// composer injects into persona prompts. At most one exists per user, and
// its absence never fails a downstream operation.
type WorkplaceContext struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	CompanyName    string    `json:"company_name"`
	ProductName    string    `json:"product_name"`
	Description    string    `json:"description"`
	Industry       string    `json:"industry"`
	TargetAudience string    `json:"target_audience"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// WorkplaceContextInput is the request to save workplace context.
type WorkplaceContextInput struct {
	CompanyName    string `json:"company_name"`
	ProductName    string `json:"product_name"`
	Description    string `json:"description"`
	Industry       string `json:"industry"`
	TargetAudience string `json:"target_audience"`
}
