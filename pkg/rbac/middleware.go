package rbac

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/contextkeys"
	"github.com/platinummonkey/garage/pkg/httputil"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/storage"
)

// GarageIDVar is the mux path variable holding the garage id
const GarageIDVar = "garage_id"

// PermissionMiddleware provides middleware for permission checking
type PermissionMiddleware struct {
	checker *Checker
}

// NewPermissionMiddleware creates a new permission middleware
func NewPermissionMiddleware(checker *Checker) *PermissionMiddleware {
	return &PermissionMiddleware{checker: checker}
}

// RequirePermission creates middleware that requires perm on the garage
// named by the {garage_id} path variable
func (pm *PermissionMiddleware) RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := contextkeys.Identity(r.Context())
			garageID := mux.Vars(r)[GarageIDVar]
			if garageID == "" {
				httputil.WriteBadRequest(w, "garage id required")
				return
			}

			_, err := pm.checker.Require(r.Context(), identity, garageID, perm)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, auth.ErrNotAuthenticated):
				httputil.WriteUnauthorized(w, "Authentication required")
			case errors.Is(err, ErrPermissionDenied):
				observability.FromContext(r.Context()).WithError(err).Info("Permission denied")
				httputil.WriteForbidden(w, "Insufficient permissions")
			case errors.Is(err, storage.ErrUnavailable):
				observability.FromContext(r.Context()).WithError(err).Error("Permission check failed")
				httputil.WriteServiceUnavailable(w, "Permission check failed")
			default:
				observability.FromContext(r.Context()).WithError(err).Error("Permission check failed")
				httputil.WriteInternalError(w)
			}
		})
	}
}
