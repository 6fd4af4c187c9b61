package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// ApiClient handles API requests to the Mealwise API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	UseMock    bool
}

// NewApiClient creates a new API client
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("MEALWISE_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := &ApiClient{
		httpClient: &http.Client{
			// Recommendations run a multi-step LLM pipeline
			Timeout: time.Second * 120,
		},
		BaseURL: baseURL,
		UseMock: false, // Default to trying the real server first
	}

	// Verify connectivity - if server is not available, use mock data
	if !client.ping() {
		fmt.Printf("Warning: API server at %s is not available. Using mock data.\n", baseURL)
		client.UseMock = true
	}

	return client
}

// ping checks if the API server is available
func (c *ApiClient) ping() bool {
	resp, err := http.Get(c.BaseURL + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API health check failed with status code: %d", resp.StatusCode)
	}

	return true, nil
}

// Profile mirrors the server's profile payload
type Profile struct {
	Name                  string      `json:"name"`
	DefaultCalorieTarget  int         `json:"default_calorie_target"`
	DietaryRestrictions   []string    `json:"dietary_restrictions"`
	FavoriteRestaurants   []string    `json:"favorite_restaurants"`
	TotalMealsTracked     int         `json:"total_meals_tracked"`
	AvgMealCalories       float64     `json:"avg_meal_calories"`
	AvgMealRating         float64     `json:"avg_meal_rating"`
	MostVisitedRestaurant string      `json:"most_visited_restaurant"`
	MealHistory           []MealEntry `json:"meal_history"`
}

// MealEntry is one tracked meal
type MealEntry struct {
	Restaurant string    `json:"restaurant"`
	Calories   int       `json:"calories"`
	Rating     int       `json:"rating,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	LoggedAt   time.Time `json:"logged_at"`
}

// RecommendRequest is the structured recommendation input
type RecommendRequest struct {
	ProfileName  string   `json:"profile_name,omitempty"`
	Restaurant   string   `json:"restaurant"`
	Calories     int      `json:"calories"`
	Restrictions []string `json:"restrictions,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// Session summarizes one pipeline run
type Session struct {
	ID                string   `json:"id"`
	AgentsUsed        []string `json:"agents_used"`
	Errors            []string `json:"errors"`
	FallbackTriggered bool     `json:"fallback_triggered"`
	TokensUsed        int      `json:"tokens_used"`
}

// RecommendResponse carries the pipeline output
type RecommendResponse struct {
	Response string   `json:"response"`
	Session  *Session `json:"session"`
}

// UsageSummary reports budget consumption
type UsageSummary struct {
	DailyUsage     float64 `json:"daily_usage"`
	DailyLimit     float64 `json:"daily_limit"`
	DailyPercent   float64 `json:"daily_percent"`
	MonthlyUsage   float64 `json:"monthly_usage"`
	MonthlyLimit   float64 `json:"monthly_limit"`
	MonthlyPercent float64 `json:"monthly_percent"`
}

// ListProfiles retrieves all profile names
func (c *ApiClient) ListProfiles() ([]string, error) {
	if c.UseMock {
		return []string{"demo"}, nil
	}

	resp, err := c.httpClient.Get(c.BaseURL + "/api/v1/profiles")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list profiles with status code: %d", resp.StatusCode)
	}

	var payload struct {
		Profiles []string `json:"profiles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Profiles, nil
}

// GetProfile retrieves a profile with its meal history
func (c *ApiClient) GetProfile(name string) (*Profile, error) {
	if c.UseMock {
		return c.mockProfile(name), nil
	}

	resp, err := c.httpClient.Get(c.BaseURL + "/api/v1/profiles/" + name)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get profile with status code: %d", resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateProfile creates a new profile
func (c *ApiClient) CreateProfile(name string, calorieTarget int) error {
	if c.UseMock {
		return nil
	}

	data, err := json.Marshal(map[string]interface{}{
		"name":           name,
		"calorie_target": calorieTarget,
	})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.BaseURL+"/api/v1/profiles", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to create profile: %s", string(body))
	}
	return nil
}

// LogMeal records a meal on a profile
func (c *ApiClient) LogMeal(profileName string, meal MealEntry) error {
	if c.UseMock {
		return nil
	}

	data, err := json.Marshal(meal)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(
		c.BaseURL+"/api/v1/profiles/"+profileName+"/meals",
		"application/json",
		bytes.NewBuffer(data),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to log meal: %s", string(body))
	}
	return nil
}

// GetInsights asks the profile manager agent for eating-pattern insights
func (c *ApiClient) GetInsights(profileName string) (string, error) {
	if c.UseMock {
		return "Track more meals to unlock personalized insights.", nil
	}

	resp, err := c.httpClient.Get(c.BaseURL + "/api/v1/profiles/" + profileName + "/insights")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Insights string `json:"insights"`
		Message  string `json:"message"`
		Error    string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get insights: %s", payload.Error)
	}
	if payload.Insights == "" {
		return payload.Message, nil
	}
	return payload.Insights, nil
}

// Recommend runs the recommendation pipeline
func (c *ApiClient) Recommend(req *RecommendRequest) (*RecommendResponse, error) {
	if c.UseMock {
		return c.mockRecommendation(req), nil
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(c.BaseURL+"/api/v1/recommend", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Error string `json:"error"`
		}
		body, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			return nil, fmt.Errorf("%s", payload.Error)
		}
		return nil, fmt.Errorf("recommendation failed with status code: %d", resp.StatusCode)
	}

	var result RecommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUsage retrieves the budget summary
func (c *ApiClient) GetUsage() (*UsageSummary, error) {
	if c.UseMock {
		return &UsageSummary{DailyLimit: 1.00, MonthlyLimit: 30.00}, nil
	}

	resp, err := c.httpClient.Get(c.BaseURL + "/api/v1/usage")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get usage with status code: %d", resp.StatusCode)
	}

	var summary UsageSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Mock data generators

func (c *ApiClient) mockProfile(name string) *Profile {
	return &Profile{
		Name:                  name,
		DefaultCalorieTarget:  1200,
		DietaryRestrictions:   []string{"low-sodium"},
		TotalMealsTracked:     3,
		AvgMealCalories:       840.0,
		AvgMealRating:         4.0,
		MostVisitedRestaurant: "Chipotle",
		MealHistory: []MealEntry{
			{Restaurant: "Chipotle", Calories: 750, Rating: 4, LoggedAt: time.Now().Add(-48 * time.Hour)},
			{Restaurant: "Subway", Calories: 620, Rating: 3, LoggedAt: time.Now().Add(-24 * time.Hour)},
			{Restaurant: "Chipotle", Calories: 1150, Rating: 5, Notes: "Burrito bowl", LoggedAt: time.Now().Add(-2 * time.Hour)},
		},
	}
}

func (c *ApiClient) mockRecommendation(req *RecommendRequest) *RecommendResponse {
	return &RecommendResponse{
		Response: fmt.Sprintf(
			"Mock recommendation for a %d calorie meal from %s:\n\n"+
				"1. Grilled chicken bowl (~%d cal)\n"+
				"2. Side salad with vinaigrette\n\n"+
				"Start the API server for real recommendations.",
			req.Calories, req.Restaurant, req.Calories-150,
		),
		Session: &Session{
			ID:         "mock",
			AgentsUsed: []string{"Nutritionist Agent", "Restaurant Agent", "Coordinator Agent"},
		},
	}
}
