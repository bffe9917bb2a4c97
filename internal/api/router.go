package api

import (
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dofus-graal/auth-manager/internal/api/handler"
	"github.com/dofus-graal/auth-manager/internal/api/middleware"
	"github.com/dofus-graal/auth-manager/internal/core/ports"
	"github.com/dofus-graal/auth-manager/internal/core/service"
	"github.com/dofus-graal/auth-manager/internal/infrastructure/config"
	"github.com/dofus-graal/auth-manager/internal/infrastructure/db/postgres"
	"github.com/dofus-graal/auth-manager/internal/infrastructure/db/redis"
	"github.com/dofus-graal/auth-manager/internal/password"
	"github.com/dofus-graal/auth-manager/internal/token"
)

// authRateLimit bounds unauthenticated hits on the /auth group per source IP
// inside the limiter window. Deliberately loose: the per-account throttle in
// the core is the real defence, this only blunts bulk stuffing.
const authRateLimit = 30

// NewRouter builds the Echo instance with all routes registered. The
// attemptSink is constructed by the caller because its workers are tied to
// the process lifecycle, not the router's.
func NewRouter(db *sqlx.DB, rdb *redisclient.Client, attemptSink ports.AttemptSink, cfg *config.Config, log zerolog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("auth"))

	// --- Core dependencies ---
	signer, err := token.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.AccessTTL)
	if err != nil {
		return nil, err
	}
	hasher := password.NewHasher(cfg.Password.BcryptCost)

	userRepo := postgres.NewUserRepository(db)
	tokenRepo := postgres.NewRefreshTokenRepository(db)
	attemptRepo := postgres.NewLoginAttemptRepository(db)

	tracker := service.NewLoginTracker(attemptSink, attemptRepo, cfg.Login.MaxFailures, cfg.Login.Window, log)
	authService := service.NewAuthService(userRepo, tokenRepo, tracker, hasher, signer, cfg.JWT.RefreshTTL, log)

	authHandler := handler.NewAuthHandler(authService, cfg.JWT.RefreshTTL, cfg.IsProduction())
	userHandler := handler.NewUserHandler(authService)
	requireAuth := middleware.Auth(signer)

	// --- Auth routes (IP rate limited at the edge) ---
	ipLimiter := redis.NewLimiter(rdb, authRateLimit, cfg.Login.Window)
	auth := e.Group("/auth", middleware.RateLimitByIP(ipLimiter, "auth", log))
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)

	// --- User routes (bearer token required) ---
	users := e.Group("/users", requireAuth)
	users.GET("/me", userHandler.Me)
	users.GET("/:id", userHandler.Get)
	users.DELETE("/:id", userHandler.Delete)
	users.POST("/:id/change-password", userHandler.ChangePassword)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, nil
}
