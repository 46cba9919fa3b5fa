package api

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/billing"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/garages"
	"github.com/platinummonkey/garage/pkg/httputil"
	"github.com/platinummonkey/garage/pkg/middleware"
	"github.com/platinummonkey/garage/pkg/notifications"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/rbac"
	"github.com/platinummonkey/garage/pkg/storage"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// GarageHandlers handles garage-related HTTP requests
type GarageHandlers struct {
	service     *garages.Service
	activity    *notifications.ActivityLogger
	permissions *rbac.PermissionMiddleware
	scope       func(http.Handler) http.Handler
	logger      *observability.Logger
}

// NewGarageHandlers creates a new GarageHandlers
func NewGarageHandlers(service *garages.Service, activity *notifications.ActivityLogger, finder middleware.GarageFinder, logger *observability.Logger) *GarageHandlers {
	return &GarageHandlers{
		service:     service,
		activity:    activity,
		permissions: rbac.NewPermissionMiddleware(service.Checker()),
		scope:       middleware.GarageScopeMiddleware(finder, logger),
		logger:      logger,
	}
}

// RegisterRoutes registers garage routes
func (h *GarageHandlers) RegisterRoutes(router *mux.Router) {
	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Upsert creates unknown garages, so it is not scoped
	v1.Handle("/garages/{garage_id}", middleware.RequireIdentity(http.HandlerFunc(h.UpsertGarage))).Methods(http.MethodPut)

	v1.Handle("/garages/{garage_id}", h.read(rbac.PermissionGarageRead, h.GetGarage)).Methods(http.MethodGet)
	v1.Handle("/garages/{garage_id}", h.write(h.UpdateGarageDetails)).Methods(http.MethodPatch)
	v1.Handle("/garages/{garage_id}", h.write(h.DeleteGarage)).Methods(http.MethodDelete)
	v1.Handle("/garages/{garage_id}/goal", h.write(h.UpdateGoal)).Methods(http.MethodPatch)
	v1.Handle("/garages/{garage_id}/fields/{field}", h.write(h.UpdateGarageField)).Methods(http.MethodPatch)

	// Logo
	v1.Handle("/garages/{garage_id}/logo", h.write(h.SetGarageLogo)).Methods(http.MethodPut)
	v1.Handle("/garages/{garage_id}/logo", h.read(rbac.PermissionGarageRead, h.GetGarageLogo)).Methods(http.MethodGet)

	// Sub-accounts
	v1.Handle("/garages/{garage_id}/subaccounts", h.read(rbac.PermissionSubAccountRead, h.ListSubAccounts)).Methods(http.MethodGet)
	v1.Handle("/garages/{garage_id}/subaccounts", h.write(h.CreateSubAccount)).Methods(http.MethodPost)
	v1.Handle("/garages/{garage_id}/subaccounts/{sub_account_id}", h.read(rbac.PermissionSubAccountRead, h.GetSubAccount)).Methods(http.MethodGet)

	// Team
	v1.Handle("/garages/{garage_id}/members", h.read(rbac.PermissionTeamRead, h.ListMembers)).Methods(http.MethodGet)
	v1.Handle("/garages/{garage_id}/invitations", h.read(rbac.PermissionTeamRead, h.ListInvitations)).Methods(http.MethodGet)
	v1.Handle("/garages/{garage_id}/invitations", h.write(h.SendInvitation)).Methods(http.MethodPost)

	// Activity
	v1.Handle("/garages/{garage_id}/notifications", h.read(rbac.PermissionNotificationRead, h.ListNotifications)).Methods(http.MethodGet)
}

// read wraps a handler with identity, garage scope and a permission check
func (h *GarageHandlers) read(perm rbac.Permission, fn http.HandlerFunc) http.Handler {
	return middleware.RequireIdentity(h.scope(h.permissions.RequirePermission(perm)(fn)))
}

// write wraps a handler whose service call checks permissions itself
func (h *GarageHandlers) write(fn http.HandlerFunc) http.Handler {
	return middleware.RequireIdentity(h.scope(fn))
}

// UpsertGarage handles PUT /api/v1/garages/{garage_id}
func (h *GarageHandlers) UpsertGarage(w http.ResponseWriter, r *http.Request) {
	garageID, ok := httputil.ParsePathStringOrError(w, r, middleware.GarageIDVar)
	if !ok {
		return
	}

	var req UpsertGarageRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	plan, err := billing.ParsePlan(req.Plan)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	g, err := h.service.UpsertGarage(r.Context(), middleware.CurrentIdentity(r), req.garage(garageID), plan)
	if err != nil {
		writeServiceError(w, r, err, garages.ErrCouldNotCreateGarage.Error())
		return
	}
	httputil.WriteSuccess(w, g)
}

// GetGarage handles GET /api/v1/garages/{garage_id}
func (h *GarageHandlers) GetGarage(w http.ResponseWriter, r *http.Request) {
	g, err := h.service.GetGarage(r.Context(), mux.Vars(r)[middleware.GarageIDVar])
	if err != nil {
		writeServiceError(w, r, err, "failed to get garage")
		return
	}
	httputil.WriteSuccess(w, g)
}

// UpdateGarageDetails handles PATCH /api/v1/garages/{garage_id}
func (h *GarageHandlers) UpdateGarageDetails(w http.ResponseWriter, r *http.Request) {
	var update domain.GarageUpdate
	if !httputil.ParseJSONOrError(w, r, &update) {
		return
	}

	g, err := h.service.UpdateGarageDetails(r.Context(), middleware.CurrentIdentity(r), mux.Vars(r)[middleware.GarageIDVar], update)
	if err != nil {
		writeServiceError(w, r, err, garages.ErrCouldNotUpdateGarage.Error())
		return
	}
	httputil.WriteSuccess(w, g)
}

// UpdateGarageField handles PATCH /api/v1/garages/{garage_id}/fields/{field}
func (h *GarageHandlers) UpdateGarageField(w http.ResponseWriter, r *http.Request) {
	var req UpdateFieldRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	vars := mux.Vars(r)
	g, err := h.service.UpdateGarageField(r.Context(), middleware.CurrentIdentity(r), vars[middleware.GarageIDVar], vars["field"], req.Value)
	if err != nil {
		writeServiceError(w, r, err, garages.ErrCouldNotUpdateGarage.Error())
		return
	}
	httputil.WriteSuccess(w, g)
}

// UpdateGoal handles PATCH /api/v1/garages/{garage_id}/goal
func (h *GarageHandlers) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req UpdateGoalRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	g, err := h.service.UpdateGoal(r.Context(), middleware.CurrentIdentity(r), mux.Vars(r)[middleware.GarageIDVar], req.Goal)
	if err != nil {
		writeServiceError(w, r, err, garages.ErrCouldNotUpdateGarage.Error())
		return
	}
	httputil.WriteSuccess(w, g)
}

// DeleteGarage handles DELETE /api/v1/garages/{garage_id}
func (h *GarageHandlers) DeleteGarage(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteGarage(r.Context(), middleware.CurrentIdentity(r), mux.Vars(r)[middleware.GarageIDVar]); err != nil {
		writeServiceError(w, r, err, garages.ErrCouldNotDeleteGarage.Error())
		return
	}
	httputil.WriteNoContent(w)
}

// SetGarageLogo handles PUT /api/v1/garages/{garage_id}/logo. The body is
// the image itself.
func (h *GarageHandlers) SetGarageLogo(w http.ResponseWriter, r *http.Request) {
	filename := httputil.ParseQueryString(r, "filename", "logo")
	contentType := r.Header.Get("Content-Type")

	g, err := h.service.SetGarageLogo(r.Context(), middleware.CurrentIdentity(r), mux.Vars(r)[middleware.GarageIDVar], filename, contentType, r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.WriteErrorMessage(w, http.StatusRequestEntityTooLarge, "logo too large")
			return
		}
		writeServiceError(w, r, err, garages.ErrCouldNotUpdateGarage.Error())
		return
	}
	httputil.WriteSuccess(w, g)
}

// GetGarageLogo handles GET /api/v1/garages/{garage_id}/logo
func (h *GarageHandlers) GetGarageLogo(w http.ResponseWriter, r *http.Request) {
	logo, err := h.service.OpenGarageLogo(r.Context(), mux.Vars(r)[middleware.GarageIDVar])
	if err != nil {
		writeServiceError(w, r, err, "failed to read logo")
		return
	}
	defer logo.Close()

	body := bufio.NewReader(logo)
	head, _ := body.Peek(512)
	w.Header().Set("Content-Type", http.DetectContentType(head))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		observability.FromContext(r.Context()).WithError(err).Warn("Failed to stream logo")
	}
}

// ListSubAccounts handles GET /api/v1/garages/{garage_id}/subaccounts
func (h *GarageHandlers) ListSubAccounts(w http.ResponseWriter, r *http.Request) {
	subAccounts, err := h.service.ListSubAccounts(r.Context(), mux.Vars(r)[middleware.GarageIDVar])
	if err != nil {
		writeServiceError(w, r, err, "failed to list sub-accounts")
		return
	}
	httputil.WriteSuccess(w, subAccounts)
}

// CreateSubAccount handles POST /api/v1/garages/{garage_id}/subaccounts
func (h *GarageHandlers) CreateSubAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateSubAccountRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	sa, err := h.service.CreateSubAccount(r.Context(), middleware.CurrentIdentity(r), req.subAccount(mux.Vars(r)[middleware.GarageIDVar]))
	if err != nil {
		writeServiceError(w, r, err, "failed to create sub-account")
		return
	}
	httputil.WriteCreated(w, sa)
}

// GetSubAccount handles GET /api/v1/garages/{garage_id}/subaccounts/{sub_account_id}
func (h *GarageHandlers) GetSubAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sa, err := h.service.FindSubAccountByID(r.Context(), vars["sub_account_id"])
	if err != nil {
		writeServiceError(w, r, err, "failed to get sub-account")
		return
	}
	// Sub-accounts of other garages are hidden
	if sa.GarageID != vars[middleware.GarageIDVar] {
		httputil.WriteNotFoundError(w, "sub-account not found")
		return
	}
	httputil.WriteSuccess(w, sa)
}

// ListMembers handles GET /api/v1/garages/{garage_id}/members
func (h *GarageHandlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context(), mux.Vars(r)[middleware.GarageIDVar])
	if err != nil {
		writeServiceError(w, r, err, "failed to list members")
		return
	}
	httputil.WriteSuccess(w, members)
}

// ListInvitations handles GET /api/v1/garages/{garage_id}/invitations
func (h *GarageHandlers) ListInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.service.ListInvitations(r.Context(), mux.Vars(r)[middleware.GarageIDVar])
	if err != nil {
		writeServiceError(w, r, err, "failed to list invitations")
		return
	}
	httputil.WriteSuccess(w, invitations)
}

// SendInvitation handles POST /api/v1/garages/{garage_id}/invitations
func (h *GarageHandlers) SendInvitation(w http.ResponseWriter, r *http.Request) {
	var req SendInvitationRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	var role auth.Role
	if strings.TrimSpace(req.Role) != "" {
		parsed, err := auth.ParseRole(req.Role)
		if err != nil {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		role = parsed
	}

	inv, err := h.service.SendInvitation(r.Context(), middleware.CurrentIdentity(r), mux.Vars(r)[middleware.GarageIDVar], req.Email, role)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			httputil.WriteConflict(w, "email already invited or a member")
			return
		}
		writeServiceError(w, r, err, "failed to send invitation")
		return
	}
	httputil.WriteCreated(w, inv)
}

// ListNotifications handles GET /api/v1/garages/{garage_id}/notifications
func (h *GarageHandlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.ParseQueryInt(r, "limit", defaultNotificationLimit)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if limit <= 0 || limit > maxNotificationLimit {
		limit = defaultNotificationLimit
	}

	list, err := h.activity.List(r.Context(), mux.Vars(r)[middleware.GarageIDVar], limit)
	if err != nil {
		writeServiceError(w, r, err, "failed to list notifications")
		return
	}
	httputil.WriteSuccess(w, list)
}
