package api

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/opshub-io/opshub/pkg/audit"
	"github.com/opshub-io/opshub/pkg/auth"
	"github.com/opshub-io/opshub/pkg/httputil"
	"github.com/opshub-io/opshub/pkg/middleware"
	"github.com/opshub-io/opshub/pkg/observability"
)

// Server holds the API handlers and their dependencies
type Server struct {
	db       *sql.DB
	router   *mux.Router
	auth     *auth.Service
	authn    *middleware.Authenticator
	recorder *audit.Recorder
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewServer creates the API server and registers all routes. metrics may be
// nil when metrics are disabled.
func NewServer(db *sql.DB, authService *auth.Service, recorder *audit.Recorder, logger *observability.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		db:       db,
		router:   mux.NewRouter(),
		auth:     authService,
		authn:    middleware.NewAuthenticator(authService, logger, metrics),
		recorder: recorder,
		logger:   logger,
		metrics:  metrics,
	}
	s.setupRoutes()
	return s
}

// Router returns the configured HTTP handler
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.RecoveryMiddleware(s.logger))
	s.router.Use(httputil.LoggingMiddleware(s.logger))
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}

	// public
	s.router.HandleFunc("/auth/login", s.Login).Methods("POST")

	// everything under /api/v1 requires a valid bearer token
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.Use(s.authn.Authenticate)

	writers := []auth.Role{auth.RoleAdmin, auth.RoleManager, auth.RoleAgent}

	// users: reads for any authenticated role, mutations admin-only
	api.HandleFunc("/users", s.ListUsers).Methods("GET")
	api.HandleFunc("/users/{id}", s.GetUser).Methods("GET")
	api.Handle("/users", s.gated(s.CreateUser, auth.RoleAdmin)).Methods("POST")
	api.Handle("/users/{id}", s.gated(s.UpdateUser, auth.RoleAdmin)).Methods("PUT")
	api.Handle("/users/{id}", s.gated(s.DeleteUser, auth.RoleAdmin)).Methods("DELETE")

	// projects
	api.HandleFunc("/projects", s.ListProjects).Methods("GET")
	api.HandleFunc("/projects/{id}", s.GetProject).Methods("GET")
	api.Handle("/projects", s.gated(s.CreateProject, writers...)).Methods("POST")
	api.Handle("/projects/{id}", s.gated(s.UpdateProject, writers...)).Methods("PUT")
	api.Handle("/projects/{id}", s.gated(s.DeleteProject, writers...)).Methods("DELETE")

	// tickets
	api.HandleFunc("/tickets", s.ListTickets).Methods("GET")
	api.HandleFunc("/tickets/{id}", s.GetTicket).Methods("GET")
	api.Handle("/tickets", s.gated(s.CreateTicket, writers...)).Methods("POST")
	api.Handle("/tickets/{id}", s.gated(s.UpdateTicket, writers...)).Methods("PUT")
	api.Handle("/tickets/{id}", s.gated(s.DeleteTicket, writers...)).Methods("DELETE")

	// audit trail is append-only: create and read, no update or delete
	api.HandleFunc("/audit-logs", s.ListAuditLogs).Methods("GET")
	api.Handle("/audit-logs", s.gated(s.CreateAuditLog, auth.RoleAdmin, auth.RoleManager)).Methods("POST")
	api.HandleFunc("/audit-logs/{id}", s.GetAuditLog).Methods("GET")
}

// gated wraps a handler func with a role gate
func (s *Server) gated(handler http.HandlerFunc, roles ...auth.Role) http.Handler {
	return s.authn.RequireRoles(roles...)(handler)
}

// actorID returns the authenticated user's ID for audit attribution
func actorID(r *http.Request) *int64 {
	if user := middleware.GetUser(r.Context()); user != nil {
		id := user.ID
		return &id
	}
	return nil
}
