// Package api exposes the meal recommendation service over HTTP.
package api

import (
	"github.com/gin-gonic/gin"

	"mealwise/internal/agents"
	"mealwise/internal/config"
	"mealwise/internal/costs"
	"mealwise/internal/database"
	"mealwise/internal/monitoring"
	"mealwise/internal/resilience"
	"mealwise/internal/security"
	"mealwise/internal/usda"
)

// Server handles meal recommendation requests
type Server struct {
	cfg         *config.Config
	router      *gin.Engine
	store       database.ProfileStore
	coordinator *agents.Coordinator
	filter      *security.ContentFilter
	costs       *costs.Controller
	breakers    *resilience.Registry
	health      *monitoring.HealthChecker
	monitor     *monitoring.Monitor
	collector   *monitoring.MetricsCollector
	usda        *usda.Client
}

// NewServer creates a new API server instance
func NewServer(
	cfg *config.Config,
	store database.ProfileStore,
	coordinator *agents.Coordinator,
	filter *security.ContentFilter,
	costController *costs.Controller,
	breakers *resilience.Registry,
	health *monitoring.HealthChecker,
	monitor *monitoring.Monitor,
	collector *monitoring.MetricsCollector,
	usdaClient *usda.Client,
) *Server {
	server := &Server{
		cfg:         cfg,
		router:      gin.Default(),
		store:       store,
		coordinator: coordinator,
		filter:      filter,
		costs:       costController,
		breakers:    breakers,
		health:      health,
		monitor:     monitor,
		collector:   collector,
		usda:        usdaClient,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api/v1")
	{
		api.GET("/profiles", s.handleListProfiles)
		api.POST("/profiles", s.handleCreateProfile)
		api.GET("/profiles/:name", s.handleGetProfile)
		api.DELETE("/profiles/:name", s.handleDeleteProfile)
		api.POST("/profiles/:name/meals", s.handleLogMeal)
		api.PUT("/profiles/:name/meals/rating", s.handleRateLastMeal)
		api.GET("/profiles/:name/insights", s.handleInsights)

		api.POST("/recommend", s.handleRecommend)

		api.GET("/usda/search", s.handleUSDASearch)
		api.GET("/usda/compare", s.handleUSDACompare)
		api.POST("/usda/verify", s.handleUSDAVerify)
	}

	// Operational endpoints require a token when a JWT secret is set.
	admin := s.router.Group("/api/v1")
	if s.cfg.JWTSecret != "" {
		admin.Use(AuthMiddleware(s.cfg.JWTSecret))
	}
	{
		admin.GET("/usage", s.handleUsage)
		admin.GET("/metrics", s.handleMetrics)
		admin.GET("/breakers", s.handleBreakers)
		admin.POST("/breakers/:name/reset", s.handleResetBreaker)
	}
}

// Router returns the Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}
