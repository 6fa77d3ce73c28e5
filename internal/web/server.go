package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/conorfennell/lingodeck/internal/auth"
	"github.com/conorfennell/lingodeck/internal/catalog"
	"github.com/conorfennell/lingodeck/internal/review"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CatalogSyncer refreshes the catalog source on demand.
type CatalogSyncer interface {
	RunOnce(ctx context.Context) error
}

// Deps are the collaborators a Server routes requests to.
type Deps struct {
	DB        Pinger
	Auth      *auth.Service
	Catalog   catalog.Provider
	Scheduler *review.Scheduler
	Selector  *review.Selector
	Tracker   *review.Tracker
	Logger    *slog.Logger
	// CatalogSync is nil when the catalog is not synced from git.
	CatalogSync CatalogSyncer
	// SecureCookies marks the session cookie Secure; enable behind TLS.
	SecureCookies bool
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	Deps
	router *mux.Router
	now    func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{
		Deps:   deps,
		router: mux.NewRouter(),
		now:    time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.Use(recoverPanics(s.Logger), requestID, accessLog(s.Logger))
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	api.HandleFunc("/register", s.handleRegister()).Methods(http.MethodPost)
	api.HandleFunc("/login", s.handleLogin()).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.handleLogout()).Methods(http.MethodPost)

	gated := api.NewRoute().Subrouter()
	gated.Use(s.Auth.Middleware)
	gated.HandleFunc("/me", s.handleMe()).Methods(http.MethodGet)

	// Deck browsing and study position
	gated.HandleFunc("/sets", s.handleListSets()).Methods(http.MethodGet)
	gated.HandleFunc("/sets/{setId}", s.handleGetSet()).Methods(http.MethodGet)
	gated.HandleFunc("/sets/{setId}/position", s.handleGetPosition()).Methods(http.MethodGet)
	gated.HandleFunc("/sets/{setId}/position", s.handleSetPosition()).Methods(http.MethodPut)
	gated.HandleFunc("/sets/{setId}/position/reset", s.handleResetPosition()).Methods(http.MethodPost)

	// Spaced-repetition review
	gated.HandleFunc("/review", s.handleRecordRating()).Methods(http.MethodPost)
	gated.HandleFunc("/review/due", s.handleDueCards()).Methods(http.MethodGet)

	gated.HandleFunc("/topics", s.handleTopics()).Methods(http.MethodGet)
	gated.HandleFunc("/catalog/sync", s.handleCatalogSync()).Methods(http.MethodPost)
}
