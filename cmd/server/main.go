package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/blogpulse/backend/internal/cache"
	"github.com/blogpulse/backend/internal/database"
	"github.com/blogpulse/backend/internal/handlers"
	"github.com/blogpulse/backend/internal/logger"
	"github.com/blogpulse/backend/internal/metrics"
	"github.com/blogpulse/backend/internal/middleware"
	"github.com/blogpulse/backend/internal/telemetry"
	"github.com/blogpulse/backend/internal/util"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Structured logging
	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== BlogPulse API starting ===")

	// Prometheus metrics
	metrics.Initialize()

	// OpenTelemetry tracing (optional)
	tracerProvider, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "blogpulse-api",
		Environment:  getEnv("ENVIRONMENT", "development"),
		OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4318"),
		Enabled:      os.Getenv("TRACING_ENABLED") == "true",
		SamplingRate: util.ParseFloat(os.Getenv("TRACE_SAMPLING_RATE"), 1.0),
	})
	if err != nil {
		logger.Log.Warn("Tracing disabled, tracer init failed", zap.Error(err))
	}

	// Database
	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	// Redis is optional: caches and throttles degrade without it
	redisClient, err := cache.NewRedisClient(
		os.Getenv("REDIS_HOST"),
		os.Getenv("REDIS_PORT"),
		os.Getenv("REDIS_PASSWORD"),
	)
	if err != nil {
		logger.Log.Warn("Redis unavailable, running with local fallbacks", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	addressSalt := os.Getenv("ADDRESS_HASH_SALT")
	if addressSalt == "" {
		logger.Log.Fatal("ADDRESS_HASH_SALT environment variable is required")
	}

	h := handlers.NewHandlers(database.DB, redisClient, addressSalt)

	// Gin router
	if getEnv("ENVIRONMENT", "development") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for browser clients
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{getEnv("CORS_ORIGIN", "*")}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"}
	r.Use(cors.New(corsConfig))

	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if tracerProvider != nil {
		r.Use(middleware.TracingMiddleware("blogpulse-api"))
	}
	r.Use(middleware.RateLimit())

	// Probes and scrape endpoint at the root, exempt from rate limiting
	r.GET("/health", handlers.Health)
	r.GET("/ready", handlers.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		posts := api.Group("/posts")
		{
			posts.GET("", h.ListPosts)
			posts.GET("/:slug", h.GetPost)

			posts.POST("/:slug/like", h.LikePost)
			posts.DELETE("/:slug/unlike", h.UnlikePost)
			posts.GET("/:slug/likes", h.GetLikes)

			posts.POST("/:slug/comments", h.CreateComment)
			posts.GET("/:slug/comments", h.ListComments)
		}

		newsletter := api.Group("/newsletter")
		{
			newsletter.POST("/subscribe", h.Subscribe)
			newsletter.POST("/unsubscribe", h.Unsubscribe)
			newsletter.GET("/status", h.SubscriptionStatus)
		}

		feedback := api.Group("/feedback")
		{
			feedback.POST("", h.SubmitFeedback)
			feedback.GET("/stats", h.GetFeedbackStats)
			feedback.GET("/recent", h.GetRecentFeedback)
		}

		analytics := api.Group("/analytics")
		{
			analytics.POST("/track", h.TrackEvent)
			analytics.POST("/session", h.StartSession)
			analytics.POST("/session/end", h.EndSession)
			analytics.GET("/dashboard", h.GetDashboard)
		}
	}

	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Info("📝 BlogPulse API listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("Server forced to shutdown", err)
	}

	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Warn("Tracer shutdown warning", zap.Error(err))
		}
	}

	logger.Log.Info("Server exited")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
