package stalls

import "time"

// Stall lifecycle statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
)

type Stall struct {
	ID          int       `json:"stall_id"`
	VendorID    int       `json:"user_id"`
	Name        string    `json:"stall_name"`
	Description string    `json:"stall_description"`
	Category    string    `json:"category"`
	Address     string    `json:"stall_address"`
	City        string    `json:"stall_city"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewStall is the create/update payload for a vendor's stall.
type NewStall struct {
	Name        string `json:"stall_name" validate:"required,max=100"`
	Description string `json:"stall_description"`
	Category    string `json:"category" validate:"required,max=100"`
	Address     string `json:"stall_address" validate:"required"`
	City        string `json:"stall_city"`
}
