package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"mealwise/internal/agents"
	"mealwise/internal/config"
	"mealwise/internal/costs"
	"mealwise/internal/database"
	"mealwise/internal/models"
	"mealwise/internal/monitoring"
	"mealwise/internal/providers"
	"mealwise/internal/resilience"
	"mealwise/internal/security"
	"mealwise/internal/usda"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubProvider always answers with the same text.
type stubProvider struct {
	response string
}

func (p *stubProvider) Complete(ctx context.Context, system, user string) (string, providers.Usage, error) {
	return p.response, providers.Usage{InputTokens: 100, OutputTokens: 50}, nil
}

func (p *stubProvider) SetTemperature(temp float64) {}
func (p *stubProvider) SetMaxTokens(tokens int)     {}
func (p *stubProvider) ModelName() string           { return "stub" }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("ENVIRONMENT", "")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.OpenAIKey = "sk-test"

	store := database.NewJSONStore(t.TempDir())
	breakers := resilience.NewRegistry()
	coordinator := agents.NewCoordinator(&stubProvider{response: "pipeline result"}, breakers)
	filter := security.NewContentFilter(nil, false)
	ctrl := costs.NewController(cfg.Limits.DailyCostLimit, cfg.Limits.RequestLimitPerHour, database.GetDB)
	health := monitoring.NewHealthChecker(cfg.OpenAIKey,
		func() bool { return false },
		func() float64 { return ctrl.GetSummary().DailyPercent })

	return NewServer(cfg, store, coordinator, filter, ctrl, breakers,
		health, monitoring.NewMonitor(), monitoring.NewMetricsCollector(), usda.NewClient(""))
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server.Router(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var report monitoring.HealthReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	// Database is down in tests, so overall status degrades.
	if report.Status != monitoring.StatusDegraded {
		t.Errorf("status = %q, want degraded", report.Status)
	}
	if report.Version != monitoring.Version {
		t.Errorf("version = %q", report.Version)
	}
}

func TestProfileLifecycle(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	// Create.
	w := doJSON(t, router, http.MethodPost, "/api/v1/profiles", CreateProfileRequest{
		Name:                "alice",
		CalorieTarget:       1500,
		DietaryRestrictions: []string{"vegetarian"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	// Duplicate create conflicts.
	w = doJSON(t, router, http.MethodPost, "/api/v1/profiles", CreateProfileRequest{Name: "alice"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", w.Code)
	}

	// Get.
	w = doJSON(t, router, http.MethodGet, "/api/v1/profiles/alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var profile models.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if profile.DefaultCalorieTarget != 1500 {
		t.Errorf("DefaultCalorieTarget = %d, want 1500", profile.DefaultCalorieTarget)
	}
	if len(profile.DietaryRestrictions) != 1 || profile.DietaryRestrictions[0] != "vegetarian" {
		t.Errorf("DietaryRestrictions = %v", profile.DietaryRestrictions)
	}

	// List.
	w = doJSON(t, router, http.MethodGet, "/api/v1/profiles", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "alice") {
		t.Errorf("list body = %s", w.Body.String())
	}

	// Delete.
	w = doJSON(t, router, http.MethodDelete, "/api/v1/profiles/alice", nil)
	if w.Code != http.StatusOK {
		t.Errorf("delete status = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/v1/profiles/alice", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get-after-delete status = %d, want 404", w.Code)
	}
}

func TestCreateProfileRejectsBadName(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server.Router(), http.MethodPost, "/api/v1/profiles", CreateProfileRequest{
		Name: "alice; DROP TABLE users",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLogMealAndRate(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	doJSON(t, router, http.MethodPost, "/api/v1/profiles", CreateProfileRequest{Name: "bob"})

	w := doJSON(t, router, http.MethodPost, "/api/v1/profiles/bob/meals", LogMealRequest{
		Restaurant: "Chipotle",
		Calories:   700,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("log meal status = %d, body = %s", w.Code, w.Body.String())
	}

	var profile models.Profile
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if profile.TotalMealsTracked != 1 {
		t.Errorf("TotalMealsTracked = %d, want 1", profile.TotalMealsTracked)
	}

	// Rate the meal just logged.
	w = doJSON(t, router, http.MethodPut, "/api/v1/profiles/bob/meals/rating", map[string]int{"rating": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("rate status = %d, body = %s", w.Code, w.Body.String())
	}
	if err := json.Unmarshal(w.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if len(profile.MealHistory) != 1 || profile.MealHistory[0].Rating != 5 {
		t.Errorf("MealHistory = %+v", profile.MealHistory)
	}
	if profile.AvgMealRating != 5 {
		t.Errorf("AvgMealRating = %v, want 5", profile.AvgMealRating)
	}
}

func TestRateWithoutMeals(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	doJSON(t, router, http.MethodPost, "/api/v1/profiles", CreateProfileRequest{Name: "carol"})

	w := doJSON(t, router, http.MethodPut, "/api/v1/profiles/carol/meals/rating", map[string]int{"rating": 3})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRecommendHappyPath(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server.Router(), http.MethodPost, "/api/v1/recommend", RecommendRequest{
		Restaurant: "Chipotle",
		Calories:   600,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp RecommendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response != "pipeline result" {
		t.Errorf("response = %q", resp.Response)
	}
	if resp.Session == nil || len(resp.Session.AgentsUsed) != 3 {
		t.Errorf("session = %+v", resp.Session)
	}
}

func TestRecommendValidation(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	cases := []struct {
		name string
		req  RecommendRequest
	}{
		{"calories too low", RecommendRequest{Restaurant: "Chipotle", Calories: 100}},
		{"calories too high", RecommendRequest{Restaurant: "Chipotle", Calories: 9000}},
		{"empty restaurant", RecommendRequest{Calories: 600}},
		{"injection in restaurant", RecommendRequest{Restaurant: "x'; DROP TABLE--", Calories: 600}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v1/recommend", tc.req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestRecommendUnknownProfile(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server.Router(), http.MethodPost, "/api/v1/recommend", RecommendRequest{
		ProfileName: "nobody",
		Restaurant:  "Chipotle",
		Calories:    600,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRecommendOverBudget(t *testing.T) {
	server := newTestServer(t)
	// Exhaust the daily budget before the request.
	server.costs.LogUsage(costs.UsageRecord{
		Model:        "gpt-4",
		InputTokens:  1_000_000,
		OutputTokens: 1_000_000,
		RequestType:  "recommendation",
		Success:      true,
	})

	w := doJSON(t, server.Router(), http.MethodPost, "/api/v1/recommend", RecommendRequest{
		Restaurant: "Chipotle",
		Calories:   600,
	})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

func TestInsightsUnderMinimum(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	doJSON(t, router, http.MethodPost, "/api/v1/profiles", CreateProfileRequest{Name: "dave"})

	w := doJSON(t, router, http.MethodGet, "/api/v1/profiles/dave/insights", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Track at least 3 meals") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestInsightsWithHistory(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	doJSON(t, router, http.MethodPost, "/api/v1/profiles", CreateProfileRequest{Name: "erin"})
	for i := 0; i < 3; i++ {
		doJSON(t, router, http.MethodPost, "/api/v1/profiles/erin/meals", LogMealRequest{
			Restaurant: "Sweetgreen",
			Calories:   500,
			Rating:     4,
		})
	}

	w := doJSON(t, router, http.MethodGet, "/api/v1/profiles/erin/insights", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "pipeline result") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestUsageEndpointOpenWithoutSecret(t *testing.T) {
	server := newTestServer(t)

	w := doJSON(t, server.Router(), http.MethodGet, "/api/v1/usage", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var summary costs.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.DailyLimit != 1.00 {
		t.Errorf("DailyLimit = %v, want 1.00", summary.DailyLimit)
	}
}

func TestAdminEndpointsRequireTokenWithSecret(t *testing.T) {
	server := newTestServer(t)
	server.cfg.JWTSecret = "top-secret"
	// Routes are bound at construction, so rebuild with the secret set.
	server = NewServer(server.cfg, server.store, server.coordinator, server.filter,
		server.costs, server.breakers, server.health, server.monitor, server.collector, server.usda)

	w := doJSON(t, server.Router(), http.MethodGet, "/api/v1/usage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestBreakerEndpoints(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	server.breakers.Get("openai_api")

	w := doJSON(t, router, http.MethodGet, "/api/v1/breakers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("breakers status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "openai_api") {
		t.Errorf("body = %s", w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/breakers/openai_api/reset", nil)
	if w.Code != http.StatusOK {
		t.Errorf("reset status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"reset"`) {
		t.Errorf("reset body = %s", w.Body.String())
	}
}
