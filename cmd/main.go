package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mealwise/internal/agents"
	"mealwise/internal/api"
	"mealwise/internal/config"
	"mealwise/internal/costs"
	"mealwise/internal/database"
	"mealwise/internal/monitoring"
	"mealwise/internal/providers"
	"mealwise/internal/resilience"
	"mealwise/internal/security"
	"mealwise/internal/usda"
)

var (
	port        = flag.Int("port", 8080, "API server port")
	metricsPort = flag.Int("metrics-port", 9090, "Metrics server port")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize LLM provider
	model, err := providers.NewOpenAIProvider(cfg.OpenAIKey, cfg.Model.Name)
	if err != nil {
		log.Fatalf("Failed to initialize OpenAI provider: %v", err)
	}
	model.SetMaxTokens(cfg.Model.MaxTokens)
	model.SetTemperature(cfg.Model.Temperature)

	// Initialize storage: database when configured, JSON files always
	// as the fallback layer.
	store := buildStore(cfg)
	defer database.CloseDB()

	// Resilience and budget wiring
	breakers := resilience.NewRegistry()
	costController := costs.NewController(cfg.Limits.DailyCostLimit, cfg.Limits.RequestLimitPerHour, database.GetDB)

	// Content filter
	filter := security.NewContentFilter(
		providers.NewModerationClient(cfg.OpenAIKey),
		cfg.Features.ContentFilter,
	)

	// Monitoring
	collector := monitoring.NewMetricsCollector()
	monitor := monitoring.NewMonitor()
	health := monitoring.NewHealthChecker(cfg.OpenAIKey, database.Available, func() float64 {
		return costController.GetSummary().DailyPercent
	})

	// Agent pipeline
	coordinator := agents.NewCoordinator(model, breakers)

	// API server
	server := api.NewServer(
		cfg,
		store,
		coordinator,
		filter,
		costController,
		breakers,
		health,
		monitor,
		collector,
		usda.NewClient(cfg.USDAAPIKey),
	)

	// Start metrics server
	if cfg.Features.Monitoring {
		go startMetricsServer(*metricsPort, collector)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: server.Router(),
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting %s (%s) on port %d", cfg.AppName, cfg.Environment, *port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

// buildStore assembles the layered profile store. The database layer is
// optional: when the connection fails the service keeps running on the
// JSON file store and health reports degraded.
func buildStore(cfg *config.Config) database.ProfileStore {
	jsonStore := database.NewJSONStore(cfg.Storage.ProfilesDir)

	if cfg.DatabaseURL == "" {
		log.Println("No database configured, using JSON file storage")
		return jsonStore
	}

	if err := database.InitDB(cfg.DatabaseURL); err != nil {
		log.Printf("Database unavailable (%v), falling back to JSON file storage", err)
		return jsonStore
	}
	if err := database.Migrate(database.GetDB()); err != nil {
		log.Printf("Database migration failed (%v), falling back to JSON file storage", err)
		return jsonStore
	}

	log.Println("Database connected, JSON files kept as backup")
	return database.NewLayeredStore(database.NewDBStore(database.GetDB()), jsonStore)
}

func startMetricsServer(port int, collector *monitoring.MetricsCollector) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(collector.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
