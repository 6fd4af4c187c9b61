package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
)

// DefaultCalorieTarget is used when a profile does not set its own target.
const DefaultCalorieTarget = 1200

// MaxMealHistory caps how many meals a profile keeps.
const MaxMealHistory = 30

// StringSlice represents a slice of strings that can be stored in the database
type StringSlice []string

// Value converts the slice to a JSON string for storage
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan converts the database value back to a slice
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for StringSlice")
	}
}

// Profile represents a user profile with preferences, meal history, and
// aggregate statistics derived from that history.
type Profile struct {
	gorm.Model
	Name                    string      `gorm:"unique_index" json:"name"`
	DefaultCalorieTarget    int         `json:"default_calorie_target"`
	DietaryRestrictions     StringSlice `gorm:"type:text" json:"dietary_restrictions"`
	FavoriteRestaurants     StringSlice `gorm:"type:text" json:"favorite_restaurants"`
	DislikedItems           StringSlice `gorm:"type:text" json:"disliked_items"`
	PreferredCookingMethods StringSlice `gorm:"type:text" json:"preferred_cooking_methods"`
	TotalMealsTracked       int         `json:"total_meals_tracked"`
	AvgMealCalories         float64     `json:"avg_meal_calories"`
	AvgMealRating           float64     `json:"avg_meal_rating"`
	MostVisitedRestaurant   string      `json:"most_visited_restaurant"`
	// Transient field assembled from the meal_entries table (ignored by GORM)
	MealHistory []MealEntry `gorm:"-" json:"meal_history"`
}

// TableName sets the table name for Profile
func (Profile) TableName() string {
	return "user_profiles"
}

// MealEntry represents a single logged meal belonging to a profile.
type MealEntry struct {
	gorm.Model
	ProfileID  uint      `json:"-"`
	Restaurant string    `json:"restaurant"`
	Calories   int       `json:"calories"`
	Protein    float64   `json:"protein,omitempty"`
	Sodium     float64   `json:"sodium,omitempty"`
	Rating     int       `json:"rating,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	LoggedAt   time.Time `json:"logged_at"`
}

// TableName sets the table name for MealEntry
func (MealEntry) TableName() string {
	return "meal_entries"
}

// NewProfile creates a profile with default preferences and empty history.
func NewProfile(name string) *Profile {
	return &Profile{
		Name:                    name,
		DefaultCalorieTarget:    DefaultCalorieTarget,
		DietaryRestrictions:     StringSlice{},
		FavoriteRestaurants:     StringSlice{},
		DislikedItems:           StringSlice{},
		PreferredCookingMethods: StringSlice{},
		MealHistory:             []MealEntry{},
	}
}

// AddMeal appends a meal to the profile's history, trims the history to the
// most recent MaxMealHistory entries, and recomputes statistics.
func (p *Profile) AddMeal(meal MealEntry) {
	if meal.LoggedAt.IsZero() {
		meal.LoggedAt = time.Now()
	}

	p.MealHistory = append(p.MealHistory, meal)
	if len(p.MealHistory) > MaxMealHistory {
		p.MealHistory = p.MealHistory[len(p.MealHistory)-MaxMealHistory:]
	}

	p.RecalculateStats()
}

// RecalculateStats recomputes the aggregate statistics from the meal history.
func (p *Profile) RecalculateStats() {
	meals := p.MealHistory
	p.TotalMealsTracked = len(meals)

	if len(meals) == 0 {
		return
	}

	totalCalories := 0
	for _, m := range meals {
		totalCalories += m.Calories
	}
	p.AvgMealCalories = roundTo(float64(totalCalories)/float64(len(meals)), 1)

	// Most visited restaurant
	visits := make(map[string]int)
	for _, m := range meals {
		if m.Restaurant != "" {
			visits[m.Restaurant]++
		}
	}
	best, bestCount := "", 0
	for r, n := range visits {
		if n > bestCount || (n == bestCount && r < best) {
			best, bestCount = r, n
		}
	}
	p.MostVisitedRestaurant = best

	// Average rating over rated meals only
	ratingSum, rated := 0, 0
	for _, m := range meals {
		if m.Rating > 0 {
			ratingSum += m.Rating
			rated++
		}
	}
	if rated > 0 {
		p.AvgMealRating = roundTo(float64(ratingSum)/float64(rated), 1)
	}
}

// TodaysMeals returns meals logged on the given day.
func (p *Profile) TodaysMeals(now time.Time) []MealEntry {
	var todays []MealEntry
	y, m, d := now.Date()
	for _, meal := range p.MealHistory {
		my, mm, md := meal.LoggedAt.Date()
		if my == y && mm == m && md == d {
			todays = append(todays, meal)
		}
	}
	return todays
}

// RecentMeals returns up to count of the most recent meals, oldest first.
func (p *Profile) RecentMeals(count int) []MealEntry {
	meals := p.MealHistory
	if len(meals) > count {
		return meals[len(meals)-count:]
	}
	return meals
}

// Summary generates a human-readable summary of the profile.
func (p *Profile) Summary() string {
	var b strings.Builder

	b.WriteString("**Profile Summary:**\n")
	fmt.Fprintf(&b, "- Default calorie target: %d cal\n", p.DefaultCalorieTarget)
	fmt.Fprintf(&b, "- Dietary restrictions: %s\n", orNone(p.DietaryRestrictions, "None"))
	fmt.Fprintf(&b, "- Favorite restaurants: %s\n", orNone(firstN(p.FavoriteRestaurants, 3), "None yet"))
	fmt.Fprintf(&b, "- Total meals tracked: %d\n", p.TotalMealsTracked)
	fmt.Fprintf(&b, "- Average calories per meal: %.1f cal\n", p.AvgMealCalories)
	if p.AvgMealRating > 0 {
		fmt.Fprintf(&b, "- Average meal rating: %.1f/5\n", p.AvgMealRating)
	} else {
		b.WriteString("- Average meal rating: N/A\n")
	}
	if p.MostVisitedRestaurant != "" {
		fmt.Fprintf(&b, "- Most visited: %s\n", p.MostVisitedRestaurant)
	} else {
		b.WriteString("- Most visited: N/A\n")
	}

	return strings.TrimSpace(b.String())
}

func orNone(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func roundTo(v float64, places int) float64 {
	shift := 1.0
	for i := 0; i < places; i++ {
		shift *= 10
	}
	if v >= 0 {
		return float64(int64(v*shift+0.5)) / shift
	}
	return float64(int64(v*shift-0.5)) / shift
}
