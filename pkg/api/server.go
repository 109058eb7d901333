package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/taskhub/pkg/audit"
	"github.com/platinummonkey/taskhub/pkg/auth"
	"github.com/platinummonkey/taskhub/pkg/authz"
	"github.com/platinummonkey/taskhub/pkg/httputil"
	"github.com/platinummonkey/taskhub/pkg/middleware"
	"github.com/platinummonkey/taskhub/pkg/observability"
	"github.com/platinummonkey/taskhub/pkg/store"
)

const maxRequestBody = 1 << 20

// ServerConfig carries the dependencies for the HTTP server
type ServerConfig struct {
	Store         *store.Store
	TokenIssuer   *auth.TokenIssuer
	Authenticator *auth.Authenticator
	Authorizer    *authz.Authorizer
	Audit         audit.Recorder
	Metrics       *observability.Metrics
	Logger        *observability.Logger

	// LoginLimiter rate limits the login endpoint. Nil disables it.
	LoginLimiter *middleware.RateLimiter

	// CORSAllowedOrigins enables CORS handling when non-empty.
	CORSAllowedOrigins []string
}

// Server is the HTTP API server
type Server struct {
	router  *mux.Router
	handler http.Handler
}

// NewServer builds the router with all handlers and middleware
func NewServer(cfg ServerConfig) *Server {
	deps := handlerDeps{
		audit:   cfg.Audit,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
	}

	authHandlers := NewAuthHandlers(cfg.Store, cfg.TokenIssuer, deps)
	userHandlers := NewUserHandlers(cfg.Store, deps)
	projectHandlers := NewProjectHandlers(cfg.Store, cfg.Authorizer, deps)
	memberHandlers := NewMemberHandlers(cfg.Store, cfg.Authorizer, deps)

	router := mux.NewRouter()
	router.Use(httputil.RequestIDMiddleware)
	router.Use(httputil.LoggingMiddleware(cfg.Logger))
	router.Use(func(next http.Handler) http.Handler {
		return observability.RecoverPanic(cfg.Logger, next)
	})
	router.Use(cfg.Metrics.HTTPMetricsMiddleware)
	router.Use(httputil.ContentTypeMiddleware)
	router.Use(httputil.MaxBytesMiddleware(maxRequestBody))

	// Public routes
	router.HandleFunc("/auth/register", authHandlers.Register).Methods("POST")
	login := http.Handler(http.HandlerFunc(authHandlers.Login))
	if cfg.LoginLimiter != nil {
		login = cfg.LoginLimiter.Handler(login)
	}
	router.Handle("/auth/login", login).Methods("POST")
	router.HandleFunc("/auth/logout", authHandlers.Logout).Methods("POST")

	// Authenticated routes
	authMW := middleware.NewAuthMiddleware(cfg.Authenticator, cfg.Audit, cfg.Metrics)
	authed := router.PathPrefix("/").Subrouter()
	authed.Use(authMW.Handler)

	authed.HandleFunc("/auth/me", authHandlers.Me).Methods("GET")
	authed.HandleFunc("/users", userHandlers.ListUsers).Methods("GET")

	authed.HandleFunc("/projects", projectHandlers.ListProjects).Methods("GET")
	authed.HandleFunc("/projects", projectHandlers.CreateProject).Methods("POST")
	authed.HandleFunc("/projects/{id}", projectHandlers.GetProject).Methods("GET")
	authed.HandleFunc("/projects/{id}", projectHandlers.UpdateProject).Methods("PUT")
	authed.HandleFunc("/projects/{id}", projectHandlers.DeleteProject).Methods("DELETE")

	authed.HandleFunc("/projects/{id}/users", memberHandlers.ListMembers).Methods("GET")
	authed.HandleFunc("/projects/{id}/users", memberHandlers.AssignMember).Methods("POST")
	authed.HandleFunc("/projects/{id}/users/{userId}", memberHandlers.ChangeMemberRole).Methods("PUT")
	authed.HandleFunc("/projects/{id}/users/{userId}", memberHandlers.RemoveMember).Methods("DELETE")

	// CORS wraps outside the router so preflight requests are answered
	// even when no route matches.
	var handler http.Handler = router
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = httputil.CORSMiddleware(cfg.CORSAllowedOrigins)(handler)
	}

	return &Server{
		router:  router,
		handler: otelhttp.NewHandler(handler, "taskhub-api"),
	}
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Router returns the underlying mux router, used in tests
func (s *Server) Router() *mux.Router {
	return s.router
}
