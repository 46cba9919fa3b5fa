// Package notifications records the per-garage activity log.
//
// Every entry names the user who performed the action and is scoped to a
// garage, optionally narrowed to one of its sub-accounts. The text is
// "<user name> | <description>".
package notifications
