package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aureliahotels/booking-backend/internal/config"
	"github.com/aureliahotels/booking-backend/internal/database"
	"github.com/aureliahotels/booking-backend/internal/handlers"
	"github.com/aureliahotels/booking-backend/internal/middleware"
	"github.com/aureliahotels/booking-backend/internal/services"
	"github.com/aureliahotels/booking-backend/pkg/jwt"
	"github.com/aureliahotels/booking-backend/pkg/mailer"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
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

	logger.Info("Starting Aurelia Hotels Booking Backend")
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

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Optional Redis availability cache
	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cache.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable, availability caching disabled")
			cache = nil
		} else {
			logger.Info("Redis availability cache enabled")
		}
		cancel()
	}

	// Repositories
	hotelRepo := database.NewHotelRepository(db.DB)
	guestRepo := database.NewGuestRepository(db.DB)
	bookingRepo := database.NewBookingRepository(db.DB)
	availabilityRepo := database.NewAvailabilityRepository(db.DB)
	paymentRepo := database.NewPaymentRepository(db.DB)
	adminUserRepo := database.NewAdminUserRepository(db.DB)

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.TokenExpiry)

	var mailGateway mailer.Mailer
	if cfg.SMTP.Host != "" {
		mailGateway = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		logger.Info("SMTP mailer initialized")
	} else {
		logger.Info("SMTP not configured, booking email disabled")
	}
	notificationService := services.NewNotificationService(mailGateway, logger)

	availabilityService := services.NewAvailabilityService(availabilityRepo, cache, cfg.Redis.CacheTTL, logger)
	bookingService := services.NewBookingService(
		bookingRepo,
		availabilityRepo,
		availabilityService,
		hotelRepo,
		guestRepo,
		notificationService,
		cfg.Booking,
		logger,
	)

	stripeGateway := services.NewStripeGateway(cfg.Stripe, logger)
	paymentService := services.NewPaymentService(paymentRepo, bookingRepo, bookingService, stripeGateway, cfg.Booking, logger)
	adminAuthService := services.NewAdminAuthService(adminUserRepo, jwtService, logger)

	// Background jobs
	holdExpirationService := services.NewHoldExpirationService(availabilityRepo, bookingService, cfg.Booking.SweepInterval, logger)
	holdExpirationService.Start()

	cronService := services.NewCronService(bookingService, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	logger.Info("Services initialized")

	// Handlers
	hotelHandler := handlers.NewHotelHandler(hotelRepo, logger)
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	adminAuthHandler := handlers.NewAdminAuthHandler(adminAuthService, logger)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")
	{
		// Property catalogue (public)
		v1.GET("/hotels", hotelHandler.List)
		v1.GET("/hotels/:slug", hotelHandler.Get)

		// Availability (public read)
		v1.GET("/availability", availabilityHandler.GetRange)

		// Booking lifecycle (public)
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.Create)
			bookings.GET("/:id", bookingHandler.Get)
			bookings.GET("/code/:code", bookingHandler.GetByCode)
			bookings.POST("/:id/cancel", bookingHandler.Cancel)
		}

		// Payments (public; webhook is signature-verified)
		payments := v1.Group("/payments")
		{
			payments.POST("/intent", paymentHandler.CreateIntent)
			payments.POST("/confirm", paymentHandler.ConfirmIntent)
			payments.POST("/webhook", paymentHandler.Webhook)
			payments.GET("/:intent_id", paymentHandler.GetIntent)
		}

		// Admin (token protected)
		v1.POST("/admin/auth/login", adminAuthHandler.Login)

		admin := v1.Group("/admin")
		admin.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			admin.GET("/bookings", bookingHandler.List)
			admin.PATCH("/bookings/:id/status", bookingHandler.UpdateStatus)
			admin.POST("/availability", availabilityHandler.Adjust)
			admin.PUT("/rate-plans", hotelHandler.UpsertRatePlan)
			admin.POST("/payments/refund", paymentHandler.Refund)

			// Background job management
			admin.POST("/jobs/complete-stays", func(c *gin.Context) {
				cronService.RunCompleteDueStaysNow()
				c.JSON(http.StatusOK, gin.H{"message": "Stay completion triggered"})
			})
			admin.POST("/jobs/sweep-holds", func(c *gin.Context) {
				holdExpirationService.RunOnce()
				c.JSON(http.StatusOK, gin.H{"message": "Hold sweep triggered"})
			})
			admin.GET("/jobs/status", func(c *gin.Context) {
				c.JSON(http.StatusOK, cronService.GetJobStatus())
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

	holdExpirationService.Stop()
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// healthCheckHandler reports process and database health
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
