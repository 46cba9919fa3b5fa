package storage

import (
	"context"
	"io"
	"time"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/domain"
)

// UserStore persists console users
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*auth.User, error)
	CreateUser(ctx context.Context, user *auth.User) error
	// UpsertUserByEmail creates the user, or updates the role of the user
	// holding the same email, and returns the stored row.
	UpsertUserByEmail(ctx context.Context, user *auth.User) (*auth.User, error)
	// LinkUserToGarage attaches the user with the given email to a garage.
	// Returns ErrNotFound when no user holds that email.
	LinkUserToGarage(ctx context.Context, email, garageID string, now time.Time) error
	// FindFirstUserBySubAccount returns the earliest member of the garage
	// owning the sub-account.
	FindFirstUserBySubAccount(ctx context.Context, subAccountID string) (*auth.User, error)
	ListGarageUsers(ctx context.Context, garageID string) ([]*auth.User, error)
}

// InvitationStore persists invitations. Email is unique across invitations.
type InvitationStore interface {
	FindPendingInvitationByEmail(ctx context.Context, email string) (*domain.Invitation, error)
	CreateInvitation(ctx context.Context, inv *domain.Invitation) error
	ListInvitations(ctx context.Context, garageID string) ([]*domain.Invitation, error)
	DeleteInvitationByEmail(ctx context.Context, email string) error
}

// GarageStore persists garages and their sidebar navigation
type GarageStore interface {
	GarageExists(ctx context.Context, id string) (bool, error)
	GetGarage(ctx context.Context, id string) (*domain.Garage, error)
	InsertGarage(ctx context.Context, garage *domain.Garage) error
	// UpdateGarage overwrites the mutable fields of an existing garage.
	// ID and CreatedAt are never changed.
	UpdateGarage(ctx context.Context, garage *domain.Garage) error
	UpdateGarageFields(ctx context.Context, id string, update domain.GarageUpdate, now time.Time) error
	// DeleteGarage removes the garage and everything it owns
	DeleteGarage(ctx context.Context, id string) error
	ListSidebarOptions(ctx context.Context, garageID string) ([]*domain.SidebarOption, error)
	// SeedSidebarOptions inserts options in order. Each option must name
	// exactly one owner.
	SeedSidebarOptions(ctx context.Context, opts []*domain.SidebarOption) error
}

// SubAccountStore persists sub-accounts
type SubAccountStore interface {
	FindSubAccountByID(ctx context.Context, id string) (*domain.SubAccount, error)
	CreateSubAccount(ctx context.Context, sub *domain.SubAccount) error
	ListSubAccounts(ctx context.Context, garageID string) ([]*domain.SubAccount, error)
	ListSubAccountSidebarOptions(ctx context.Context, subAccountID string) ([]*domain.SidebarOption, error)
}

// NotificationStore persists the activity log
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
	// ListNotifications returns the newest notifications of a garage first
	ListNotifications(ctx context.Context, garageID string, limit int) ([]*domain.Notification, error)
}

// SubscriptionStore persists billing subscriptions
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, sub *domain.Subscription) error
	GetSubscription(ctx context.Context, garageID string) (*domain.Subscription, error)
}

// Store is the full relational store
type Store interface {
	UserStore
	InvitationStore
	GarageStore
	SubAccountStore
	NotificationStore
	SubscriptionStore

	// RunInTx runs fn against a transaction-bound Store. The transaction
	// commits when fn returns nil and rolls back otherwise. Calling RunInTx
	// on a transaction-bound Store joins the outer transaction.
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	// Ping checks connectivity with the backend
	Ping(ctx context.Context) error
}

// ObjectStore stores binary assets by key
type ObjectStore interface {
	PutObject(ctx context.Context, key string, content io.Reader, contentType string) error
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteObject(ctx context.Context, key string) error
}
