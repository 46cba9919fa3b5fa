package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// AuthEndpoints is the browser sign-in flow of the identity provider
type AuthEndpoints interface {
	HandleLogin(w http.ResponseWriter, r *http.Request)
	HandleCallback(w http.ResponseWriter, r *http.Request)
	HandleLogout(w http.ResponseWriter, r *http.Request)
}

// AuthHandlers exposes the sign-in flow
type AuthHandlers struct {
	endpoints AuthEndpoints
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(endpoints AuthEndpoints) *AuthHandlers {
	return &AuthHandlers{endpoints: endpoints}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", h.endpoints.HandleLogin).Methods(http.MethodGet)
	router.HandleFunc("/auth/callback", h.endpoints.HandleCallback).Methods(http.MethodGet)
	router.HandleFunc("/auth/logout", h.endpoints.HandleLogout).Methods(http.MethodPost)
	router.HandleFunc("/garage/sign-in", h.endpoints.HandleLogin).Methods(http.MethodGet)
}
