// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vision-studio/storefront-backend/internal/config"
	"github.com/vision-studio/storefront-backend/internal/domain/analytics"
	"github.com/vision-studio/storefront-backend/internal/domain/cart"
	"github.com/vision-studio/storefront-backend/internal/domain/catalog"
	"github.com/vision-studio/storefront-backend/internal/domain/checkout"
	"github.com/vision-studio/storefront-backend/internal/domain/order"
	"github.com/vision-studio/storefront-backend/internal/domain/user"
	"github.com/vision-studio/storefront-backend/internal/infrastructure/crm"
	"github.com/vision-studio/storefront-backend/internal/interfaces/http/handlers"
	"github.com/vision-studio/storefront-backend/internal/interfaces/http/middleware"
	"github.com/vision-studio/storefront-backend/internal/interfaces/http/routes"
	"github.com/vision-studio/storefront-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	gin         *gin.Engine
	httpServer  *http.Server
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger
	monitor     *cart.Monitor
	startedAt   time.Time
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *logrus.Logger) *Server {
	return &Server{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		log:         log,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	s.gin = gin.New()
	s.startedAt = time.Now()

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.log.Infof("🚀 HTTP Server starting on port %s", s.config.Server.Port)
	s.log.Infof("🌐 API Base URL: http://localhost:%s/api/v1", s.config.Server.Port)
	s.log.Infof("📊 Health Check: http://localhost:%s/health", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server and the abandoned-cart monitor
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("🛑 Shutting down HTTP server...")

	if s.monitor != nil {
		s.monitor.Stop()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("✅ HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures all middleware for the server
func (s *Server) setupMiddleware() {
	// Recovery middleware - recover from panics
	s.gin.Use(gin.Recovery())

	// Custom logger middleware
	s.gin.Use(middleware.Logger(s.log))

	// Request ID middleware
	s.gin.Use(middleware.RequestID())

	// Prometheus metrics middleware
	s.gin.Use(middleware.Monitoring())

	// CORS middleware
	s.gin.Use(middleware.CORS(s.config))

	// Security headers middleware
	s.gin.Use(middleware.SecurityHeaders())

	// Rate limiting middleware
	s.gin.Use(middleware.RateLimit(s.config, s.redisClient))

	// Timeout middleware
	s.gin.Use(middleware.Timeout(30 * time.Second))
}

// setupRoutes wires services, handlers and routes. Services are built once
// here: the abandoned-cart monitor holds timers and must be a singleton.
func (s *Server) setupRoutes() {
	// Health and metrics endpoints (no auth required)
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)
	s.gin.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Shared collaborators
	tracker := analytics.NewTracker(s.db, s.log)
	crmClient := crm.NewClient(s.config, s.log)

	// Domain services
	catalogService := catalog.NewService(s.db, s.config)
	analyticsService := analytics.NewService(s.db, s.config)
	userService := user.NewService(s.db, s.redisClient, s.config)

	cartStore := cart.NewRedisStore(s.redisClient, s.config)
	cartService := cart.NewService(cartStore, catalogService, tracker, s.config, s.log)
	s.monitor = cart.NewMonitor(cartStore, tracker, crmClient, s.config.Cart.AbandonWindow, s.log)
	cartService.AttachMonitor(s.monitor)

	var crmSubmitter order.Submitter
	if crmClient.Enabled() {
		crmSubmitter = order.NewCRMSubmitter(crmClient)
	}
	orderService := order.NewService(s.db, crmSubmitter, order.NewLocalSubmitter(), s.config, s.log)

	sessionStore := checkout.NewRedisSessionStore(s.redisClient, s.config)
	checkoutService := checkout.NewService(sessionStore, cartService, orderService, s.monitor, tracker, s.config, s.log)

	h := &routes.Handlers{
		Auth:     handlers.NewAuthHandler(userService, s.config),
		Catalog:  handlers.NewCatalogHandler(catalogService, tracker, s.config),
		Cart:     handlers.NewCartHandler(cartService, s.config),
		Checkout: handlers.NewCheckoutHandler(checkoutService, s.config),
		Order:    handlers.NewOrderHandler(orderService, s.config),
		Admin:    handlers.NewAdminHandler(analyticsService, orderService, crmClient, pdf.NewService(), s.config),
	}

	// API v1 routes
	apiV1 := s.gin.Group("/api/v1")
	routes.SetupRoutes(apiV1, h, s.config)

	// Root endpoint with API overview in development
	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message":     s.config.App.Name,
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
				"metrics":     "/metrics",
				"endpoints": gin.H{
					"auth":     "/api/v1/auth",
					"products": "/api/v1/products",
					"packages": "/api/v1/packages",
					"cart":     "/api/v1/cart",
					"checkout": "/api/v1/checkout",
					"orders":   "/api/v1/orders",
					"admin":    "/api/v1/admin",
				},
			})
		})
	}
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database connection error",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database ping failed",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "redis ping failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck handles readiness check requests
func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).String(),
	})
}
