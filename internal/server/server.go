package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hongminglow/budget-be/internal/auth"
	"github.com/hongminglow/budget-be/internal/config"
	"github.com/hongminglow/budget-be/internal/http/handlers"
	"github.com/hongminglow/budget-be/internal/middleware"
	"github.com/hongminglow/budget-be/internal/services"
	"github.com/hongminglow/budget-be/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	handler http.Handler
}

// New wires up services, middleware and routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, revoked auth.RevocationList, log *zap.Logger) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	accounts := services.NewAccounts(store, auth.NewBcryptHasher(cfg.BcryptCost), tokens, revoked, log)
	budgets := services.NewBudgets(store, store, log)

	health := handlers.NewHealthHandler(time.Now())
	authHandler := handlers.NewAuthHandler(accounts, log)
	budgetHandler := handlers.NewBudgetHandler(budgets, log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	health.Register(r)
	r.Route("/api", func(r chi.Router) {
		authHandler.RegisterPublic(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticated(accounts, log))
			authHandler.RegisterProtected(r)
			budgetHandler.Register(r)
		})
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, handler: r}
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
