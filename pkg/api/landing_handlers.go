package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/httputil"
	"github.com/platinummonkey/garage/pkg/middleware"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/provisioning"
	"github.com/platinummonkey/garage/pkg/routing"
)

// Resolver resolves the garage of a signed-in identity
type Resolver interface {
	ResolveGarageForIdentity(ctx context.Context, id *auth.Identity) provisioning.Resolution
	InitUser(ctx context.Context, id *auth.Identity, role auth.Role) (*auth.User, error)
}

// LandingHandlers serves the garage landing page, where invitations are
// accepted and visitors are routed to their garage
type LandingHandlers struct {
	resolver   Resolver
	signInPath string
	logger     *observability.Logger
}

// NewLandingHandlers creates a new LandingHandlers. An empty signInPath
// means routing.DefaultSignInPath.
func NewLandingHandlers(resolver Resolver, signInPath string, logger *observability.Logger) *LandingHandlers {
	return &LandingHandlers{resolver: resolver, signInPath: signInPath, logger: logger}
}

// RegisterRoutes registers landing routes
func (h *LandingHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/garage", h.Landing).Methods(http.MethodGet)
	router.Handle("/garage/users", middleware.RequireIdentity(http.HandlerFunc(h.InitUser))).Methods(http.MethodPost)
}

// Landing handles GET /garage. Browsers are redirected; clients asking for
// JSON get the destination itself.
func (h *LandingHandlers) Landing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := middleware.CurrentIdentity(r)
	res := h.resolver.ResolveGarageForIdentity(ctx, id)
	if res.Err != nil {
		h.logger.WithContext(ctx).WithError(res.Err).Warn("Garage resolution failed")
	}

	params := routing.ParamsFromQuery(r.URL.Query())
	params.SignInPath = h.signInPath
	if res.User == nil && id != nil {
		params.Email = id.NormalizedEmail()
	}
	dest := routing.Decide(res, res.User, params)

	switch {
	case dest.Kind == routing.KindRedirect && !wantsJSON(r):
		http.Redirect(w, r, dest.Location, http.StatusFound)
	case dest.Kind == routing.KindUnauthorized:
		httputil.WriteJSON(w, http.StatusForbidden, dest)
	default:
		httputil.WriteSuccess(w, dest)
	}
}

// InitUser handles POST /garage/users, the first step of creating a garage
func (h *LandingHandlers) InitUser(w http.ResponseWriter, r *http.Request) {
	var req InitUserRequest
	if r.ContentLength != 0 && !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	role := auth.RoleGarageOwner
	if strings.TrimSpace(req.Role) != "" {
		parsed, err := auth.ParseRole(req.Role)
		if err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		role = parsed
	}

	user, err := h.resolver.InitUser(r.Context(), middleware.CurrentIdentity(r), role)
	if err != nil {
		writeServiceError(w, r, err, "failed to initialise user")
		return
	}
	httputil.WriteCreated(w, user)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
