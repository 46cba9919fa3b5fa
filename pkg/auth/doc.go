// Package auth defines the people-facing types of the garage console: users,
// their roles, and the identities reported by the external identity provider.
//
// # Roles
//
// Every user holds exactly one role:
//
//   - GARAGE_OWNER: created only by the "new garage" path, full control
//   - GARAGE_ADMIN: manages the garage, its team and sub-accounts
//   - SUBACCOUNT_USER: works inside the sub-accounts of a garage
//   - SUBACCOUNT_GUEST: read-only access to sub-accounts
//
// # Identities
//
// An Identity is what the identity provider vouches for after sign-in. Its
// email is the join key to the persisted User:
//
//	identity := &auth.Identity{
//		ID:          "user_2bXk",
//		Email:       "alice@example.com",
//		DisplayName: auth.DisplayName("Alice", "Liddell"),
//	}
//
// Identities are always passed explicitly to the services that need them.
// Nothing in this module looks up a "current user" from ambient state.
package auth
