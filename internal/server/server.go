// Package server
//
// @title Absenced API
// @version 1.0
// @description UK citizenship absence tracking service API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/absenced-dev/absenced/internal/auth"
	"github.com/absenced-dev/absenced/internal/authclient"
	"github.com/absenced-dev/absenced/internal/authstate"
	"github.com/absenced-dev/absenced/internal/caddy"
	"github.com/absenced-dev/absenced/internal/config"
	"github.com/absenced-dev/absenced/internal/eligibility"
	"github.com/absenced-dev/absenced/internal/models"
	"github.com/absenced-dev/absenced/internal/policy"
	"github.com/absenced-dev/absenced/internal/tasks"
	"github.com/absenced-dev/absenced/internal/trips"
)

// Server represents the HTTP server
type Server struct {
	router             *gin.Engine
	db                 *gorm.DB
	config             *config.Config
	logger             zerolog.Logger
	validator          *validator.Validate
	asynqClient        *asynq.Client
	authClient         *authclient.Client
	broadcaster        *authstate.Broadcaster
	tripsService       *trips.Service
	eligibilityService *eligibility.Service
	caddyService       *caddy.Service
	version            string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, err
	}

	// The provider signs access tokens with the project JWT secret; all
	// session checks verify locally against it.
	auth.Initialize(cfg.Auth.JWTSecret)

	// Initialize validator
	validate := validator.New()

	// Register custom validators
	validate.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})

	// Load absence policies (built-in defaults plus optional overrides)
	policies, err := policy.Load(cfg.Eligibility.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load policies: %w", err)
	}
	if _, err := policies.Get(cfg.Eligibility.DefaultPolicy); err != nil {
		return nil, fmt.Errorf("invalid default policy: %w", err)
	}

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	// Client for the hosted auth provider (OAuth redirects, magic links,
	// user lookups, sign-out)
	authClient := authclient.New(cfg.Auth.URL, cfg.Auth.AnonKey, zlog)

	// Initialize domain services
	tripsService := trips.NewService(db, zlog)
	eligibilityService := eligibility.NewService(db, tripsService, policies, cfg.Eligibility.DefaultPolicy, zlog)

	// Initialize Caddy service for TLS configuration
	caddyService, err := caddy.NewService(zlog)
	if err != nil {
		zlog.Warn().Err(err).Msg("Failed to initialize Caddy service - TLS configuration will be disabled")
		caddyService = nil
	}

	// Create server
	server := &Server{
		db:                 db,
		config:             cfg,
		logger:             zlog,
		validator:          validate,
		asynqClient:        asynqClient,
		authClient:         authClient,
		broadcaster:        authstate.NewBroadcaster(),
		tripsService:       tripsService,
		eligibilityService: eligibilityService,
		caddyService:       caddyService,
		version:            version,
	}

	server.subscribeAuthListeners()

	// Setup router
	server.setupRouter()

	return server, nil
}

// subscribeAuthListeners wires the in-process auth-state subscribers: an
// audit log line for every change, and a fresh eligibility recompute each
// time someone signs in.
func (s *Server) subscribeAuthListeners() {
	s.broadcaster.Subscribe(func(event authstate.Event) {
		s.logger.Info().
			Str("event", string(event.Type)).
			Str("user_id", event.UserID).
			Str("email", event.Email).
			Msg("Auth state changed")
	})

	s.broadcaster.Subscribe(func(event authstate.Event) {
		if event.Type != authstate.EventSignedIn {
			return
		}
		task, err := tasks.NewEligibilityRecomputeTask(event.UserID, "")
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", event.UserID).Msg("Failed to create recompute task")
			return
		}
		if _, err := s.asynqClient.Enqueue(task, asynq.Timeout(5*time.Minute)); err != nil {
			s.logger.Error().Err(err).Str("user_id", event.UserID).Msg("Failed to enqueue recompute task")
		}
	})
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns      = 8         // Reduced for SQLite efficiency
		maxIdleConns      = 4         // Reduced proportionally
		connMaxLifetime   = 300       // 5 minutes
		busyTimeout       = 5000      // 5 seconds
		cacheSize         = 10000     // 10MB
		mmapSize          = 134217728 // 128MB
		walAutocheckpoint = 1000      // WAL auto-checkpoint pages
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool settings
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply SQLite pragmas directly (connection string pragmas may not work with all drivers)
	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",                                      // Enable WAL mode for better concurrency
		"PRAGMA synchronous=NORMAL",                                    // Faster than FULL, still safe with WAL
		fmt.Sprintf("PRAGMA wal_autocheckpoint=%d", walAutocheckpoint), // Auto-checkpoint WAL file
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		fmt.Sprintf("PRAGMA cache_size=-%d", cacheSize),
		"PRAGMA foreign_keys=1",
		"PRAGMA temp_store=2",
		fmt.Sprintf("PRAGMA mmap_size=%d", mmapSize),
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.SetHTMLTemplate(buildTemplates())

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.config.Server.SiteURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public pages and auth endpoints (no session required)
	s.router.GET("/", s.indexPage)
	s.router.GET("/login", s.loginPage)
	s.router.GET("/privacy", s.privacyPage)
	s.router.GET("/auth/google", s.startGoogleSignIn)
	s.router.POST("/auth/otp", s.sendMagicLink)
	s.router.GET("/auth/callback", s.authCallback)
	s.router.POST("/auth/logout", s.logout)
	s.router.GET("/auth/config", s.getAuthProviderConfig)

	// Browser pages (session cookie required, redirect to login otherwise)
	web := s.router.Group("/")
	web.Use(WebAuthMiddleware(s.db, s.logger))
	{
		web.GET("/dashboard", s.dashboardPage)
		web.POST("/trips", s.createTripForm)
		web.POST("/trips/:id/delete", s.deleteTripForm)
	}

	// Authenticated API routes (session cookie or Bearer token)
	api := s.router.Group("/api")
	api.Use(SessionAuthMiddleware(s.db, s.logger))
	{
		// Auth endpoints
		api.GET("/auth/me", s.getCurrentUser)

		// Trip management
		api.GET("/trips", s.listTrips)
		api.POST("/trips", s.createTrip)
		api.DELETE("/trips/:id", s.deleteTrip)

		// Eligibility
		api.GET("/summary", s.getSummary)
		api.GET("/earliest", s.getEarliest)
		api.POST("/recompute", s.recompute)
		api.GET("/policies", s.listPolicies)
		api.GET("/snapshots/latest", s.getLatestSnapshot)

		// System information
		api.GET("/system/info", s.getSystemInfo)
		api.GET("/system/latest-version", s.getLatestVersion)
		api.POST("/system/update", s.updateServer)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "absenced-api",
	})
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Broadcaster exposes the auth-state broadcaster, mainly for tests.
func (s *Server) Broadcaster() *authstate.Broadcaster {
	return s.broadcaster
}

// Start starts the HTTP server
func (s *Server) Start() error {
	port := ":" + s.config.Server.Port

	// Front the app with Caddy when a domain is configured
	if s.config.Server.Domain != "" && s.caddyService != nil {
		err := s.caddyService.GenerateAndReload(caddy.Config{
			Domain:           s.config.Server.Domain,
			LetsEncryptEmail: s.config.Server.LetsEncryptEmail,
			UpstreamPort:     s.config.Server.Port,
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to configure Caddy - continuing without TLS fronting")
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create HTTP server with production timeouts
	srv := &http.Server{
		Addr:              port,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       300 * time.Second, // 5 minutes
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Str("port", port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	// Close Asynq client
	if err := s.asynqClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing Asynq client")
	}
	s.logger.Info().Msg("Asynq client closed successfully")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	s.logger.Info().Msg("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		s.logger.Info().Msg("Closing database connection...")
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		} else {
			s.logger.Info().Msg("Database closed successfully")
		}
	}

	return nil
}
