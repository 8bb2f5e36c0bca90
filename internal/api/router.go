package api

import (
	"log/slog"

	"github.com/Nathan-Yinka/Project-management-application/internal/api/handlers"
	"github.com/Nathan-Yinka/Project-management-application/internal/api/middleware"
	"github.com/Nathan-Yinka/Project-management-application/internal/auth"
	"github.com/Nathan-Yinka/Project-management-application/internal/authz"
	"github.com/Nathan-Yinka/Project-management-application/internal/orgs"
	"github.com/Nathan-Yinka/Project-management-application/internal/projects"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	AsynqClient    *asynq.Client
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize services
	gate := authz.NewGate(cfg.DB)
	orgService := orgs.NewService(cfg.DB, cfg.AsynqClient, cfg.Logger)
	projectService := projects.NewService(cfg.DB, cfg.Logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService)
	orgHandler := handlers.NewOrganizationHandler(orgService, gate)
	projectHandler := handlers.NewProjectHandler(projectService, orgService, gate)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Public auth endpoints
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTService))

		r.Get("/auth/me", authHandler.Me)

		r.Route("/organization", func(r chi.Router) {
			r.Get("/", orgHandler.List)
			r.Post("/", orgHandler.Create)
			r.Post("/add_member", orgHandler.AddMember)
			r.Post("/remove-member", orgHandler.RemoveMember)
			r.Post("/change-role", orgHandler.ChangeRole)
			r.Post("/leave-organization", orgHandler.Leave)
			r.Get("/{id}", orgHandler.Detail)
			r.Get("/{id}/users", orgHandler.Users)
			r.Get("/{id}/non-users", orgHandler.NonUsers)
		})

		r.Route("/project", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Post("/", projectHandler.Create)
			r.Patch("/update-status/{projectID}", projectHandler.UpdateStatus)
			r.Post("/{projectID}/add-comment", projectHandler.AddComment)
			r.Get("/{id}", projectHandler.Get)
			r.Put("/{id}", projectHandler.Update)
			r.Patch("/{id}", projectHandler.Update)
			r.Delete("/{id}", projectHandler.Delete)
		})
	})

	return &Router{r}
}
