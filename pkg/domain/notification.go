package domain

import (
	"strings"
	"time"
)

// Notification is an append-only activity log entry
type Notification struct {
	ID           string    `json:"id"`
	Notification string    `json:"notification"`
	UserID       string    `json:"user_id"`
	GarageID     string    `json:"garage_id"`
	SubAccountID *string   `json:"sub_account_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FormatActivity builds the text stored for an activity: "<name> | <parts...>"
func FormatActivity(actorName string, parts ...string) string {
	return strings.Join(append([]string{actorName}, parts...), " | ")
}
