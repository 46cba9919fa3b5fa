// Package garages implements the garage settings operations of the console.
//
// # Garages
//
// UpsertGarage is keyed by the caller's garage id: an unknown id creates the
// garage with its six sidebar entries and links the requesting user, who must
// not already belong to a garage. A known id overwrites the mutable fields
// only. The company email is contact data and never selects a user.
//
//	g, err := svc.UpsertGarage(ctx, identity, &domain.Garage{
//		ID:           garageID,
//		Name:         "Acme Motors",
//		CompanyEmail: "owner@acme.test",
//	}, plan)
//	if errors.Is(err, garages.ErrMissingRequiredField) {
//		// 400
//	}
//
// Store failures are returned as ErrCouldNotCreateGarage,
// ErrCouldNotUpdateGarage or ErrCouldNotDeleteGarage wrapping the storage
// error, so both errors.Is(err, garages.ErrCouldNotCreateGarage) and
// errors.Is(err, storage.ErrConflict) hold.
//
// # Activity
//
// Goal updates and sub-account creation append to the activity log after the
// change is stored. The log entry is best-effort.
//
// # Permissions
//
// Every write is checked with pkg/rbac against the caller's user row.
package garages
