package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mealwise/internal/agents"
	"mealwise/internal/costs"
	"mealwise/internal/database"
	"mealwise/internal/models"
	"mealwise/internal/resilience"
	"mealwise/internal/security"
)

// RecommendRequest is the structured input to the recommendation pipeline
type RecommendRequest struct {
	ProfileName  string   `json:"profile_name"`
	Restaurant   string   `json:"restaurant"`
	Calories     int      `json:"calories"`
	Restrictions []string `json:"restrictions"`
	Notes        string   `json:"notes"`
}

// RecommendResponse carries the pipeline output and session summary
type RecommendResponse struct {
	Response string          `json:"response"`
	Session  *agents.Session `json:"session"`
}

// CreateProfileRequest creates a named user profile
type CreateProfileRequest struct {
	Name                string   `json:"name"`
	CalorieTarget       int      `json:"calorie_target"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
}

// LogMealRequest records a tracked meal on a profile
type LogMealRequest struct {
	Restaurant string  `json:"restaurant"`
	Calories   int     `json:"calories"`
	Protein    float64 `json:"protein"`
	Sodium     float64 `json:"sodium"`
	Rating     int     `json:"rating"`
	Notes      string  `json:"notes"`
}

// apiError pairs an HTTP status with an error message so the HTTP and
// WebSocket paths can share the recommendation flow.
type apiError struct {
	Status  int
	Message string
}

// handleHealth returns component health; unhealthy maps to 503
func (s *Server) handleHealth(c *gin.Context) {
	report := s.health.Check()
	status := http.StatusOK
	if report.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// handleRecommend runs the full recommendation pipeline
func (s *Server) handleRecommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	response, session, apiErr := s.runRecommendation(c.Request.Context(), &req, s.agentProgressRecorder())
	s.recordRequestMetrics("recommendation", time.Since(start), apiErr == nil)

	if apiErr != nil {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
		return
	}

	c.JSON(http.StatusOK, RecommendResponse{Response: response, Session: session})
}

// runRecommendation validates, filters, budget-gates, and runs the
// pipeline. Shared between the HTTP handler and the WebSocket path.
func (s *Server) runRecommendation(ctx context.Context, req *RecommendRequest, progress agents.ProgressFunc) (string, *agents.Session, *apiError) {
	restaurant, err := security.ValidateRestaurantName(req.Restaurant)
	if err != nil {
		return "", nil, &apiError{http.StatusBadRequest, err.Error()}
	}
	if err := security.ValidateCalorieTarget(req.Calories); err != nil {
		return "", nil, &apiError{http.StatusBadRequest, err.Error()}
	}
	restrictions, err := security.ValidateDietaryRestrictions(req.Restrictions)
	if err != nil {
		return "", nil, &apiError{http.StatusBadRequest, err.Error()}
	}
	notes, err := security.ValidateText(req.Notes, "notes", security.MaxTextLength, true)
	if err != nil {
		return "", nil, &apiError{http.StatusBadRequest, err.Error()}
	}

	var profile *models.Profile
	if req.ProfileName != "" {
		name, err := security.ValidateProfileName(req.ProfileName)
		if err != nil {
			return "", nil, &apiError{http.StatusBadRequest, err.Error()}
		}
		profile, err = s.store.Load(name)
		if err != nil {
			if errors.Is(err, database.ErrProfileNotFound) {
				return "", nil, &apiError{http.StatusNotFound, "profile not found: " + name}
			}
			return "", nil, &apiError{http.StatusInternalServerError, "failed to load profile"}
		}
	}

	goal := agents.FormatGoal(restaurant, req.Calories, restrictions, notes)

	if err := s.filter.CheckInput(ctx, goal); err != nil {
		var flagged *security.FlaggedError
		if errors.As(err, &flagged) {
			return "", nil, &apiError{http.StatusBadRequest, flagged.Error()}
		}
		return "", nil, &apiError{http.StatusInternalServerError, "content filter error"}
	}

	// Rough pre-flight estimate: four agent calls, each seeing the goal
	// plus prompt overhead and producing up to the token cap.
	inputEstimate := 4 * (len(goal)/4 + 500)
	outputEstimate := 4 * s.cfg.Model.MaxTokens
	estimated := s.costs.EstimateCost(s.cfg.Model.Name, inputEstimate, outputEstimate)
	if ok, reason := s.costs.CanMakeRequest(estimated); !ok {
		return "", nil, &apiError{http.StatusTooManyRequests, reason}
	}

	response, session := s.coordinator.ProcessRequest(ctx, goal, profile, progress)

	s.costs.LogUsage(costs.UsageRecord{
		Model:        s.cfg.Model.Name,
		InputTokens:  session.InputTokens,
		OutputTokens: session.OutputTokens,
		RequestType:  "recommendation",
		ProfileName:  req.ProfileName,
		Success:      len(session.Errors) == 0,
	})
	actualCost := s.costs.EstimateCost(s.cfg.Model.Name, session.InputTokens, session.OutputTokens)
	s.collector.RecordAPIUsage(s.cfg.Model.Name, actualCost, session.TokensUsed)
	s.monitor.RecordPipelineResult(len(session.AgentsUsed), session.TokensUsed, session.FallbackTriggered)

	return response, session, nil
}

// agentProgressRecorder feeds per-agent timings into the collector
func (s *Server) agentProgressRecorder() agents.ProgressFunc {
	starts := make(map[agents.AgentRole]time.Time)
	return func(role agents.AgentRole, done bool, err error) {
		if !done {
			starts[role] = time.Now()
			return
		}
		s.collector.RecordAgentRun(string(role), time.Since(starts[role]).Seconds(), err == nil)
	}
}

func (s *Server) recordRequestMetrics(requestType string, duration time.Duration, success bool) {
	s.collector.RecordRequest(requestType, duration.Seconds())
	s.monitor.RecordRequest(requestType, duration, success)
	for name, status := range s.breakers.Status() {
		s.collector.RecordBreakerState(name, breakerStateValue(status.State))
	}
}

func breakerStateValue(state resilience.State) float64 {
	switch state {
	case resilience.StateOpen:
		return 2
	case resilience.StateHalfOpen:
		return 1
	default:
		return 0
	}
}

// handleListProfiles returns all known profile names
func (s *Server) handleListProfiles(c *gin.Context) {
	names, err := s.store.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list profiles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": names})
}

// handleCreateProfile creates a new user profile
func (s *Server) handleCreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name, err := security.ValidateProfileName(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := s.store.Load(name); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "profile already exists: " + name})
		return
	}

	profile := models.NewProfile(name)
	if req.CalorieTarget != 0 {
		if err := security.ValidateCalorieTarget(req.CalorieTarget); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		profile.DefaultCalorieTarget = req.CalorieTarget
	}
	if len(req.DietaryRestrictions) > 0 {
		restrictions, err := security.ValidateDietaryRestrictions(req.DietaryRestrictions)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		profile.DietaryRestrictions = restrictions
	}

	if err := s.store.Save(profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// handleGetProfile returns a profile with its meal history
func (s *Server) handleGetProfile(c *gin.Context) {
	profile, apiErr := s.loadProfile(c.Param("name"))
	if apiErr != nil {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// handleDeleteProfile removes a profile
func (s *Server) handleDeleteProfile(c *gin.Context) {
	name, err := security.ValidateProfileName(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.Delete(name); err != nil {
		if errors.Is(err, database.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found: " + name})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// handleLogMeal appends a meal to the profile's history
func (s *Server) handleLogMeal(c *gin.Context) {
	var req LogMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restaurant, err := security.ValidateRestaurantName(req.Restaurant)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Rating != 0 {
		if err := security.ValidateRating(req.Rating); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	notes, err := security.ValidateText(req.Notes, "notes", security.MaxTextLength, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, apiErr := s.loadProfile(c.Param("name"))
	if apiErr != nil {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
		return
	}

	profile.AddMeal(models.MealEntry{
		Restaurant: restaurant,
		Calories:   req.Calories,
		Protein:    req.Protein,
		Sodium:     req.Sodium,
		Rating:     req.Rating,
		Notes:      notes,
	})

	if err := s.store.Save(profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// handleRateLastMeal updates the rating on the most recent meal
func (s *Server) handleRateLastMeal(c *gin.Context) {
	var req struct {
		Rating int `json:"rating"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := security.ValidateRating(req.Rating); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, apiErr := s.loadProfile(c.Param("name"))
	if apiErr != nil {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
		return
	}
	if len(profile.MealHistory) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no meals tracked yet"})
		return
	}

	profile.MealHistory[len(profile.MealHistory)-1].Rating = req.Rating
	profile.RecalculateStats()

	if err := s.store.Save(profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// handleInsights runs only the profile manager agent
func (s *Server) handleInsights(c *gin.Context) {
	profile, apiErr := s.loadProfile(c.Param("name"))
	if apiErr != nil {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
		return
	}

	if profile.TotalMealsTracked < agents.MinMealsForInsights {
		c.JSON(http.StatusOK, gin.H{
			"insights": "",
			"message":  "Track at least 3 meals to unlock personalized insights.",
		})
		return
	}

	start := time.Now()
	insights, usage, err := s.coordinator.Insights(c.Request.Context(), profile)
	s.recordRequestMetrics("insights", time.Since(start), err == nil)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "insights temporarily unavailable"})
		return
	}

	s.costs.LogUsage(costs.UsageRecord{
		Model:        s.cfg.Model.Name,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		RequestType:  "insights",
		ProfileName:  profile.Name,
		Success:      true,
	})

	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

// handleUsage returns the budget summary
func (s *Server) handleUsage(c *gin.Context) {
	c.JSON(http.StatusOK, s.costs.GetSummary())
}

// handleMetrics returns current in-process metrics
func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.GetMetrics())
}

// handleBreakers returns circuit breaker status
func (s *Server) handleBreakers(c *gin.Context) {
	c.JSON(http.StatusOK, s.breakers.Status())
}

// handleResetBreaker manually closes a circuit breaker
func (s *Server) handleResetBreaker(c *gin.Context) {
	name := c.Param("name")
	s.breakers.Get(name).Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset", "breaker": name})
}

// handleUSDASearch looks up foods in the USDA database
func (s *Server) handleUSDASearch(c *gin.Context) {
	query, err := security.ValidateText(c.Query("q"), "query", security.MaxTextLength, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "5"))

	foods, err := s.usda.Search(c.Request.Context(), query, pageSize)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "USDA lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"foods": foods})
}

// handleUSDACompare compares two food items
func (s *Server) handleUSDACompare(c *gin.Context) {
	item1, err := security.ValidateText(c.Query("item1"), "item1", security.MaxTextLength, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item2, err := security.ValidateText(c.Query("item2"), "item2", security.MaxTextLength, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comparison, err := s.usda.Compare(c.Request.Context(), item1, item2)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "USDA lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comparison": comparison})
}

// handleUSDAVerify checks a calorie claim against USDA data
func (s *Server) handleUSDAVerify(c *gin.Context) {
	var req struct {
		Food            string `json:"food"`
		ClaimedCalories int    `json:"claimed_calories"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	food, err := security.ValidateText(req.Food, "food", security.MaxTextLength, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verification, err := s.usda.VerifyCalories(c.Request.Context(), food, req.ClaimedCalories)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "USDA lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"verification": verification})
}

func (s *Server) loadProfile(rawName string) (*models.Profile, *apiError) {
	name, err := security.ValidateProfileName(rawName)
	if err != nil {
		return nil, &apiError{http.StatusBadRequest, err.Error()}
	}
	profile, err := s.store.Load(name)
	if err != nil {
		if errors.Is(err, database.ErrProfileNotFound) {
			return nil, &apiError{http.StatusNotFound, "profile not found: " + name}
		}
		return nil, &apiError{http.StatusInternalServerError, "failed to load profile"}
	}
	return profile, nil
}
