// Package http wires the chi router, middleware stack and handlers into the
// service's HTTP surface.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sparktechagency/Mobile-Repair/internal/config"
	"github.com/sparktechagency/Mobile-Repair/internal/domain"
	"github.com/sparktechagency/Mobile-Repair/internal/platform/observability/logging"
	"github.com/sparktechagency/Mobile-Repair/internal/transport/http/handlers"
	custommw "github.com/sparktechagency/Mobile-Repair/internal/transport/http/middleware"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Auth          *handlers.AuthHandler
	Orders        *handlers.OrderHandler
	Users         *handlers.UserHandler
	Stats         *handlers.StatsHandler
	Notifications *handlers.NotificationHandler
	Health        *HealthServer
}

// Server is the HTTP server
type Server struct {
	server   *http.Server
	router   *chi.Mux
	handlers Handlers
	verifier custommw.TokenVerifier
	config   config.ServerConfig
	service  config.ObservabilityConfig
	logger   logging.Logger
}

// NewServer creates the HTTP server with all routes configured
func NewServer(cfg config.ServerConfig, obs config.ObservabilityConfig, h Handlers, verifier custommw.TokenVerifier, logger logging.Logger) *Server {
	s := &Server{
		handlers: h,
		verifier: verifier,
		config:   cfg,
		service:  obs,
		logger:   logger,
	}

	s.setupRoutes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router = chi.NewRouter()

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(30 * time.Second))

	s.router.Use(custommw.Logging(s.logger))
	s.router.Use(custommw.Tracing(s.service.ServiceName))
	s.router.Use(custommw.CORS([]string{"*"}))

	s.router.Get("/health", s.handlers.Health.HandleHealthCheck)
	s.router.Get("/ready", s.handlers.Health.HandleReadinessCheck)
	s.router.Get("/live", s.handlers.Health.HandleLivenessCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Public surface: client submissions and auth
		r.Post("/auth/register", s.handlers.Auth.Register)
		r.Post("/auth/login", s.handlers.Auth.Login)
		r.Post("/orders", s.handlers.Orders.Create)

		// Everything else requires a token
		r.Group(func(r chi.Router) {
			r.Use(custommw.Auth(s.verifier))

			s.setupOrderRoutes(r)
			s.setupTechnicianRoutes(r)
			s.setupAdminRoutes(r)
			s.setupNotificationRoutes(r)
		})
	})
}

func (s *Server) setupOrderRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.With(requireAdmin()).Get("/", s.handlers.Orders.ListAll)
		r.Get("/pending", s.handlers.Orders.ListPending)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handlers.Orders.Get)
			r.With(requireAdmin()).Delete("/", s.handlers.Orders.Delete)
			r.With(requireTechnician()).Post("/accept", s.handlers.Orders.Accept)
			r.With(requireTechnician()).Post("/complete", s.handlers.Orders.Complete)
		})
	})
}

func (s *Server) setupTechnicianRoutes(r chi.Router) {
	r.Route("/technicians", func(r chi.Router) {
		r.With(requireAdmin()).Get("/", s.handlers.Users.ListTechnicians)
		r.With(requireAdmin()).Get("/pending", s.handlers.Users.ListPendingTechnicians)

		r.Route("/me", func(r chi.Router) {
			r.Use(requireTechnician())
			r.Get("/orders", s.handlers.Orders.MyOrders)
			r.Get("/orders/counts", s.handlers.Stats.MyCounts)
			r.Get("/dashboard", s.handlers.Stats.MyDashboard)
			r.Get("/stats/monthly", s.handlers.Stats.MyMonthlyStats)
		})
	})
}

func (s *Server) setupAdminRoutes(r chi.Router) {
	r.Get("/users/me", s.handlers.Users.Me)

	r.Route("/users/{id}", func(r chi.Router) {
		r.Use(requireAdmin())
		r.Patch("/verify", s.handlers.Users.Verify)
		r.Patch("/decline", s.handlers.Users.Decline)
		r.Patch("/block", s.handlers.Users.Block)
		r.Delete("/", s.handlers.Users.Delete)
	})

	r.Route("/stats", func(r chi.Router) {
		r.Use(requireAdmin())
		r.Get("/totals", s.handlers.Stats.PlatformTotals)
		r.Get("/monthly", s.handlers.Stats.MonthlyPlatformTotals)
	})
}

func (s *Server) setupNotificationRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Get("/me", s.handlers.Notifications.ListMine)
		r.Get("/me/unread", s.handlers.Notifications.UnreadCount)
		r.Patch("/read-all", s.handlers.Notifications.MarkAllRead)
		r.Patch("/{id}/read", s.handlers.Notifications.MarkRead)
		r.Delete("/{id}", s.handlers.Notifications.Delete)
	})
}

func requireAdmin() func(http.Handler) http.Handler {
	return custommw.RequireRoles(domain.RoleAdmin, domain.RoleSuperAdmin)
}

func requireTechnician() func(http.Handler) http.Handler {
	return custommw.RequireRoles(domain.RoleTechnician)
}

// Start begins serving and blocks until the listener fails or closes
func (s *Server) Start() error {
	s.logger.Info(nil, "HTTP server starting", map[string]interface{}{
		"addr": s.server.Addr,
	})

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "HTTP server shutting down")
	return s.server.Shutdown(ctx)
}
