// Package provisioning resolves which garage a signed-in identity belongs to.
//
// The identity is always passed in explicitly. When a pending invitation
// exists for its email the invitation is accepted: the user row, the
// "Joined" activity entry, the identity provider role claim and the
// invitation deletion happen in a single store transaction, so a failure in
// any step leaves the invitation pending and no user behind.
//
// Invitations for the GARAGE_OWNER role are never accepted here; owners are
// created through InitUser and the garage creation flow.
package provisioning
