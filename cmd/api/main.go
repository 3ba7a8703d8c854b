package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbadabili/Real-Estate-App-sub000/internal/cache"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/config"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/database"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/handlers"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/middleware"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/models"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/services"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/telemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

// @title Real Estate API
// @version 1.0.0
// @description Property listing marketplace API
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Initialize OpenTelemetry tracer and meter
	ctx := context.Background()
	tracerShutdown, err := telemetry.InitTracer(ctx, "realestate-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Printf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	meterShutdown, err := telemetry.InitMeter(ctx, "realestate-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Printf("Failed to initialize metrics: %v", err)
	}
	defer func() {
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Error shutting down metrics: %v", err)
		}
	}()

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	poolCtx, cancelPool := context.WithCancel(ctx)
	defer cancelPool()
	go database.StartConnectionPoolMetricsCollector(poolCtx, db, 15*time.Second)

	// The property query cache is constructed once here and injected; it is
	// process-local, so replicas converge within the configured TTL.
	propertyCache := cache.New[[]models.Property](
		cfg.CacheMaxEntries,
		time.Duration(cfg.CacheDefaultTTLSec)*time.Second,
	)
	propertyService := services.NewPropertyService(db, propertyCache,
		time.Duration(cfg.PropertyCacheTTLSec)*time.Second)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Real Estate API",
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","status":${status},"latency":"${latency}","ip":"${ip}","method":"${method}","path":"${path}","user_agent":"${ua}","error":"${error}"}` + "\n",
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	}))
	app.Use(telemetry.New(telemetry.Config{
		ServiceName: "realestate-api",
	}))
	app.Use(middleware.PrometheusMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowHeaders:     "Accept, Accept-Encoding, Authorization, Content-Type, Origin, User-Agent, X-Requested-With",
		AllowCredentials: false,
		ExposeHeaders:    "Content-Length, Content-Type",
		MaxAge:           86400,
	}))

	setupRoutes(app, db, cfg, propertyService, propertyCache)

	port := cfg.ServerPort
	if port == "" {
		port = "3000"
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRoutes(app *fiber.App, db *database.DB, cfg *config.Config,
	propertyService *services.PropertyService, propertyCache *cache.Store[[]models.Property]) {

	// Health check endpoints for k8s probes
	app.Get("/healthz", handlers.HealthCheck)
	app.Get("/v1/healthz", handlers.HealthCheck)
	app.Get("/v1/readiness", handlers.ReadinessCheck(db))
	app.Get("/v1/liveness", handlers.LivenessCheck)

	// Prometheus scrape endpoint, internal network only
	app.Get("/metrics", middleware.InternalOnly(), middleware.PrometheusHandler())

	// API v1 group
	v1 := app.Group("/v1")

	properties := v1.Group("/properties")
	handlers.SetupPropertyRoutes(properties, propertyService, cfg)

	internal := v1.Group("/internal", middleware.InternalOnly())
	internal.Get("/cache-stats", handlers.CacheStats(propertyCache))
}
