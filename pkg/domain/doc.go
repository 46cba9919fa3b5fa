// Package domain holds the persisted entities of the garage console: garages,
// sub-accounts, sidebar options, invitations, notifications and subscriptions.
//
// The types carry no behaviour beyond small value helpers. Services in
// pkg/garages, pkg/provisioning and pkg/notifications operate on them, and
// pkg/storage persists them.
package domain
