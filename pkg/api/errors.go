package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/billing"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/garages"
	"github.com/platinummonkey/garage/pkg/httputil"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/rbac"
	"github.com/platinummonkey/garage/pkg/storage"
)

// coarseErrors are the only messages shown for store failures
var coarseErrors = []error{
	garages.ErrCouldNotCreateGarage,
	garages.ErrCouldNotDeleteGarage,
	garages.ErrCouldNotUpdateGarage,
}

// writeServiceError maps a service error onto a status code. Store causes
// never reach the client; fallback is shown when no coarse error applies.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	message := fallback
	for _, coarse := range coarseErrors {
		if errors.Is(err, coarse) {
			message = coarse.Error()
			break
		}
	}

	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		httputil.WriteUnauthorized(w, "Authentication required")
	case errors.Is(err, rbac.ErrPermissionDenied):
		httputil.WriteForbidden(w, "Insufficient permissions")
	case errors.Is(err, garages.ErrPlanLimitReached):
		httputil.WriteForbidden(w, garages.ErrPlanLimitReached.Error())
	case isValidationError(err):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, billing.ErrNoSubscription):
		httputil.WriteNotFoundError(w, billing.ErrNoSubscription.Error())
	case errors.Is(err, storage.ErrNotFound):
		httputil.WriteNotFoundError(w, message)
	case errors.Is(err, storage.ErrConflict):
		httputil.WriteConflict(w, message)
	case errors.Is(err, storage.ErrUnavailable), errors.Is(err, garages.ErrNoObjectStore):
		observability.FromContext(r.Context()).WithError(err).Error("Dependency unavailable")
		httputil.WriteServiceUnavailable(w, message)
	default:
		observability.FromContext(r.Context()).WithError(err).Error("Request failed")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, message)
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		garages.ErrMissingRequiredField,
		garages.ErrInvalidLogo,
		domain.ErrUnknownField,
		domain.ErrInvalidValue,
		billing.ErrUnknownPlan,
		auth.ErrInvalidRole,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
