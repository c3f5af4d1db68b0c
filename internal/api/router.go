package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/app"
	iauth "github.com/visadesk-io/visadesk/internal/auth"
	"github.com/visadesk-io/visadesk/internal/handlers"
	"github.com/visadesk-io/visadesk/internal/middleware"
	"github.com/visadesk-io/visadesk/internal/storage"
	"github.com/visadesk-io/visadesk/internal/sweep"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, engine *sweep.Engine, blobs storage.BlobStore) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if engine == nil {
		return nil, fmt.Errorf("sweep engine must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())

	// Health endpoint (public)
	r.GET("/health", handlers.Health(db))

	notificationHandler, err := handlers.NewNotificationHandler(db)
	if err != nil {
		return nil, err
	}

	authHandler, err := handlers.NewAuthHandler(db, jwt, notificationHandler.Service())
	if err != nil {
		return nil, err
	}

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
	}

	sweepHandler, err := handlers.NewSweepHandler(engine, db, cfg.Sweep.CronSecret)
	if err != nil {
		return nil, err
	}

	// Cron trigger authorises via the shared secret, not a user session.
	r.GET("/api/visa-sweep/run", sweepHandler.RunCron)

	// Protected routes
	requireAuth := middleware.Auth(jwt)
	requireAdmin := middleware.RequireAdmin()

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)

	if err := registerEmployeeRoutes(api, db, blobs, requireAdmin); err != nil {
		return nil, err
	}
	registerNotificationRoutes(api, notificationHandler)
	registerSweepRoutes(api, sweepHandler, requireAdmin)

	if err := registerUserRoutes(api, db, notificationHandler.Service(), requireAdmin); err != nil {
		return nil, err
	}

	dashboardHandler, err := handlers.NewDashboardHandler(db)
	if err != nil {
		return nil, err
	}
	api.GET("/dashboard", dashboardHandler.Summary)

	// Metrics endpoint
	if cfg.Monitoring.Prometheus.Enabled {
		r.GET(cfg.Monitoring.Prometheus.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
