package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/railline/train-booking-backend/internal/config"
	"github.com/railline/train-booking-backend/internal/database"
	"github.com/railline/train-booking-backend/internal/handlers"
	"github.com/railline/train-booking-backend/internal/middleware"
	"github.com/railline/train-booking-backend/internal/services"
	"github.com/railline/train-booking-backend/pkg/jwt"
	"github.com/railline/train-booking-backend/pkg/payment"
	"github.com/sirupsen/logrus"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Railline Train Booking Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	userRepo := database.NewUserRepository(db.DB)
	trainRepo := database.NewTrainRepository(db.DB)
	tripRepo := database.NewTripRepository(db.DB)
	bookingRepo := database.NewBookingRepository(db.DB)
	auditRepo := database.NewAuditLogRepository(db.DB)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	var gateway services.PaymentGateway
	if cfg.Payment.SecretKey != "" {
		gateway = payment.NewPaystackClient(cfg.Payment.SecretKey, cfg.Payment.BaseURL, cfg.Payment.CallbackURL)
		logger.Info("Paystack payment gateway enabled")
	} else {
		logger.Warn("No payment secret key configured, running with payment verification disabled")
	}

	auditService := services.NewAuditService(auditRepo, logger)
	allocator := services.NewSeatAllocator()
	authService := services.NewAuthService(userRepo, jwtService, cfg.Security.BcryptCost, logger)
	tripService := services.NewTripService(tripRepo, trainRepo, bookingRepo, cfg.Booking.MinScheduleGap, logger)
	trainService := services.NewTrainService(trainRepo, tripRepo, logger)
	bookingService := services.NewBookingService(userRepo, tripRepo, bookingRepo, allocator, gateway, auditService, logger)

	// Start the trip expiry sweep
	cronService := services.NewCronService(tripService, cfg.Booking.ExpirySweepSpec, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger)
	tripHandler := handlers.NewTripHandler(tripService, bookingService, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	trainHandler := handlers.NewTrainHandler(trainService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// Trip browsing (public)
		trips := v1.Group("/trips")
		{
			trips.GET("", tripHandler.ListAvailable)
			trips.GET("/:id", tripHandler.Get)
			trips.GET("/:id/seats", tripHandler.GetAvailableSeats)
		}

		// Booking routes (protected)
		bookings := v1.Group("/bookings")
		bookings.Use(middleware.AuthMiddleware(jwtService))
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("", bookingHandler.List)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
		}

		// Payment routes (protected)
		payments := v1.Group("/payments")
		payments.Use(middleware.AuthMiddleware(jwtService))
		{
			payments.POST("/initialize", bookingHandler.InitializePayment)
		}

		// Admin routes (protected, admin role required)
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService))
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.POST("/trains", trainHandler.Create)
			admin.GET("/trains", trainHandler.List)
			admin.GET("/trains/:id", trainHandler.Get)
			admin.PUT("/trains/:id", trainHandler.Update)
			admin.DELETE("/trains/:id", trainHandler.Delete)

			admin.POST("/trips", tripHandler.Create)
			admin.GET("/trips", tripHandler.ListAll)
			admin.GET("/trips/:id/bookings", tripHandler.ListBookings)
			admin.PUT("/trips/:id", tripHandler.Update)
			admin.DELETE("/trips/:id", tripHandler.Delete)

			admin.POST("/trips/expire-sweep", func(c *gin.Context) {
				n, err := tripService.MarkExpiredTrips()
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"message": "expiry sweep completed", "expired": n})
			})
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	logger.Info("Stopping cron service...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userID, exists := c.Get(middleware.ContextUserID); exists {
			fields["user_id"] = userID
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("Request failed with errors")
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
