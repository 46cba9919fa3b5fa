package domain

import "time"

// SubscriptionStatus mirrors the billing provider's subscription states
type SubscriptionStatus string

const (
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Subscription binds a garage to a billing plan. A garage has at most one.
type Subscription struct {
	ID        string             `json:"id"`
	GarageID  string             `json:"garage_id"`
	Plan      string             `json:"plan"`
	Status    SubscriptionStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
