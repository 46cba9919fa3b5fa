package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/garage/pkg/contextkeys"
	"github.com/platinummonkey/garage/pkg/httputil"
	"github.com/platinummonkey/garage/pkg/observability"
)

// GarageIDVar is the route variable naming the garage
const GarageIDVar = "garage_id"

// GarageFinder reports whether a garage exists
type GarageFinder interface {
	GarageExists(ctx context.Context, id string) (bool, error)
}

// GarageScopeMiddleware adds the garage of the route to the request context.
// Routes without a garage_id variable pass through untouched.
func GarageScopeMiddleware(garages GarageFinder, logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			garageID, ok := mux.Vars(r)[GarageIDVar]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if garageID == "" {
				httputil.WriteBadRequest(w, "invalid garage id")
				return
			}

			exists, err := garages.GarageExists(r.Context(), garageID)
			if err != nil {
				logger.WithContext(r.Context()).WithError(err).WithField("garage_id", garageID).Error("Failed to look up garage")
				httputil.WriteServiceUnavailable(w, "garage lookup unavailable")
				return
			}
			if !exists {
				httputil.WriteNotFoundError(w, "garage not found")
				return
			}

			ctx := contextkeys.WithGarageID(r.Context(), garageID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
