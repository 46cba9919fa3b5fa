package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/garage/pkg/billing"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/httputil"
	"github.com/platinummonkey/garage/pkg/middleware"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/rbac"
)

// BillingHandlers handles billing-related HTTP requests
type BillingHandlers struct {
	billingService *billing.Service
	permissions    *rbac.PermissionMiddleware
	scope          func(http.Handler) http.Handler
}

// NewBillingHandlers creates a new BillingHandlers
func NewBillingHandlers(billingService *billing.Service, checker *rbac.Checker, finder middleware.GarageFinder, logger *observability.Logger) *BillingHandlers {
	return &BillingHandlers{
		billingService: billingService,
		permissions:    rbac.NewPermissionMiddleware(checker),
		scope:          middleware.GarageScopeMiddleware(finder, logger),
	}
}

// RegisterRoutes registers billing routes
func (h *BillingHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/plans", h.ListPlans).Methods(http.MethodGet)

	router.Handle("/api/v1/garages/{garage_id}/subscription", h.guard(rbac.PermissionGarageRead, h.GetSubscription)).Methods(http.MethodGet)
	router.Handle("/api/v1/garages/{garage_id}/subscription", h.guard(rbac.PermissionBillingUpdate, h.ChangePlan)).Methods(http.MethodPut)
	router.Handle("/api/v1/garages/{garage_id}/subscription/cancel", h.guard(rbac.PermissionBillingUpdate, h.CancelSubscription)).Methods(http.MethodPost)
	router.Handle("/api/v1/garages/{garage_id}/subscription/reactivate", h.guard(rbac.PermissionBillingUpdate, h.ReactivateSubscription)).Methods(http.MethodPost)
}

func (h *BillingHandlers) guard(perm rbac.Permission, fn http.HandlerFunc) http.Handler {
	return middleware.RequireIdentity(h.scope(h.permissions.RequirePermission(perm)(fn)))
}

// ListPlans handles GET /api/v1/plans
func (h *BillingHandlers) ListPlans(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, billing.Plans())
}

// GetSubscription handles GET /api/v1/garages/{garage_id}/subscription
func (h *BillingHandlers) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.billingService.GetSubscription(r.Context(), mux.Vars(r)[middleware.GarageIDVar])
	h.writeSubscription(w, r, sub, err, "failed to get subscription")
}

// ChangePlan handles PUT /api/v1/garages/{garage_id}/subscription
func (h *BillingHandlers) ChangePlan(w http.ResponseWriter, r *http.Request) {
	var req ChangePlanRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	plan, err := billing.ParsePlan(req.Plan)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if plan == nil {
		httputil.WriteBadRequest(w, "plan is required")
		return
	}

	sub, err := h.billingService.ChangePlan(r.Context(), mux.Vars(r)[middleware.GarageIDVar], *plan)
	h.writeSubscription(w, r, sub, err, "failed to change plan")
}

// CancelSubscription handles POST /api/v1/garages/{garage_id}/subscription/cancel
func (h *BillingHandlers) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.billingService.CancelSubscription(r.Context(), mux.Vars(r)[middleware.GarageIDVar])
	h.writeSubscription(w, r, sub, err, "failed to cancel subscription")
}

// ReactivateSubscription handles POST /api/v1/garages/{garage_id}/subscription/reactivate
func (h *BillingHandlers) ReactivateSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.billingService.ReactivateSubscription(r.Context(), mux.Vars(r)[middleware.GarageIDVar])
	h.writeSubscription(w, r, sub, err, "failed to reactivate subscription")
}

func (h *BillingHandlers) writeSubscription(w http.ResponseWriter, r *http.Request, sub *domain.Subscription, err error, fallback string) {
	if err != nil {
		writeServiceError(w, r, err, fallback)
		return
	}
	httputil.WriteSuccess(w, newSubscriptionResponse(sub))
}
