package middleware

import (
	"net/http"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/contextkeys"
	"github.com/platinummonkey/garage/pkg/httputil"
	"github.com/platinummonkey/garage/pkg/identity"
	"github.com/platinummonkey/garage/pkg/observability"
)

// IdentityMiddleware resolves the signed-in identity of each request
type IdentityMiddleware struct {
	provider identity.Provider
	logger   *observability.Logger
	optional bool // If true, allow requests without an identity
}

// NewIdentityMiddleware creates a new identity middleware
func NewIdentityMiddleware(provider identity.Provider, logger *observability.Logger, optional bool) *IdentityMiddleware {
	return &IdentityMiddleware{
		provider: provider,
		logger:   logger,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with identity resolution. A presented but
// invalid credential is always rejected.
func (m *IdentityMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.provider.CurrentIdentity(r)
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("Rejected credential")
			httputil.WriteUnauthorized(w, "invalid or expired credential")
			return
		}

		if id == nil {
			if m.optional {
				next.ServeHTTP(w, r)
				return
			}
			httputil.WriteUnauthorized(w, auth.ErrNotAuthenticated.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(contextkeys.WithIdentity(r.Context(), id)))
	})
}

// CurrentIdentity returns the identity stored by IdentityMiddleware
func CurrentIdentity(r *http.Request) *auth.Identity {
	id, _ := contextkeys.Identity(r.Context())
	return id
}

// RequireIdentity rejects requests that reached it without an identity
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentIdentity(r) == nil {
			httputil.WriteUnauthorized(w, auth.ErrNotAuthenticated.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
