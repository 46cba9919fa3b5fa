package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Server represents our API server
type Server struct {
	router *mux.Router
}

// NewServer creates a new API server. Middlewares run, in order, on every
// matched route.
func NewServer(middlewares ...mux.MiddlewareFunc) *Server {
	router := mux.NewRouter()
	router.Use(middlewares...)
	return &Server{router: router}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar
func (s *Server) RegisterRoutes(registrars ...RouteRegistrar) {
	for _, registrar := range registrars {
		registrar.RegisterRoutes(s.router)
	}
}
