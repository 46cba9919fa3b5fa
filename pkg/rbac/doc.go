// Package rbac decides what a console user may do inside a garage.
//
// # Overview
//
// Every user holds exactly one role, stored on the user row, and belongs to
// at most one garage. Permissions are fixed per role:
//
//	GARAGE_OWNER      every permission
//	GARAGE_ADMIN      everything except garage:delete and billing:update
//	SUBACCOUNT_USER   read the garage and its sub-accounts
//	SUBACCOUNT_GUEST  read the garage
//
// A permission only applies to the garage the user belongs to.
//
// # Checking permissions
//
//	checker := rbac.NewChecker(store)
//	user, err := checker.Require(ctx, identity, garageID, rbac.PermissionGarageWrite)
//	if errors.Is(err, rbac.ErrPermissionDenied) { ... }
//
// # HTTP middleware
//
//	router.Handle("/api/v1/garages/{garage_id}",
//		rbac.NewPermissionMiddleware(checker).RequirePermission(rbac.PermissionGarageDelete)(handler))
//
// # Related Packages
//
//   - pkg/middleware: identity and garage scope middleware
//   - pkg/garages: service-level permission checks
package rbac
