package agents

import (
	"context"
	"fmt"
	"strings"

	"mealwise/internal/models"
	"mealwise/internal/providers"
	"mealwise/internal/resilience"
)

// MinMealsForInsights is how many tracked meals a profile needs before
// the profile manager runs.
const MinMealsForInsights = 3

// ProfileManager analyzes behavior patterns in a profile's meal history
// and produces personalization insights for the other agents.
type ProfileManager struct {
	agent *Agent
}

// NewProfileManager creates the profile manager agent.
func NewProfileManager(model providers.Provider, breaker *resilience.CircuitBreaker, retrier *resilience.Retrier) *ProfileManager {
	return &ProfileManager{
		agent: NewAgent(RoleProfileManager, profileManagerPrompt, model, breaker, retrier),
	}
}

// Analyze produces insights for the given profile.
func (p *ProfileManager) Analyze(ctx context.Context, profile *models.Profile) (string, providers.Usage, error) {
	if profile == nil {
		return "No profile data available. Create a profile to get personalized insights.", providers.Usage{}, nil
	}
	return p.agent.Run(ctx, p.buildRequest(profile))
}

func (p *ProfileManager) buildRequest(profile *models.Profile) string {
	var b strings.Builder

	b.WriteString("## User Profile Data\n\n")

	b.WriteString("### Current Preferences\n")
	fmt.Fprintf(&b, "- Default calorie target: %d\n", profile.DefaultCalorieTarget)
	fmt.Fprintf(&b, "- Dietary restrictions: %s\n", orText(profile.DietaryRestrictions, "None"))
	fmt.Fprintf(&b, "- Favorite restaurants: %s\n", orText(profile.FavoriteRestaurants, "None yet"))
	fmt.Fprintf(&b, "- Disliked items: %s\n", orText(profile.DislikedItems, "None specified"))
	fmt.Fprintf(&b, "- Preferred cooking: %s\n\n", orText(profile.PreferredCookingMethods, "Not specified"))

	b.WriteString("### Statistics\n")
	fmt.Fprintf(&b, "- Total meals tracked: %d\n", profile.TotalMealsTracked)
	fmt.Fprintf(&b, "- Average calories: %.1f cal\n", profile.AvgMealCalories)
	fmt.Fprintf(&b, "- Most visited: %s\n", orDefault(profile.MostVisitedRestaurant, "N/A"))
	if profile.AvgMealRating > 0 {
		fmt.Fprintf(&b, "- Average rating: %.1f/5 stars\n\n", profile.AvgMealRating)
	} else {
		b.WriteString("- Average rating: N/A\n\n")
	}

	meals := profile.MealHistory
	if len(meals) == 0 {
		b.WriteString("### Meal History\nNo meals logged yet.\n\n")
	} else {
		fmt.Fprintf(&b, "### Meal History (%d meals)\n\n", len(meals))

		var high, low []models.MealEntry
		for _, m := range meals {
			switch {
			case m.Rating >= 4:
				high = append(high, m)
			case m.Rating >= 1 && m.Rating <= 2:
				low = append(low, m)
			}
		}

		if len(high) > 0 {
			b.WriteString("**High Ratings (4-5 stars):**\n")
			for _, m := range high {
				fmt.Fprintf(&b, "- %s, %d cal, %d stars\n", m.Restaurant, m.Calories, m.Rating)
			}
			b.WriteString("\n")
		}
		if len(low) > 0 {
			b.WriteString("**Low Ratings (1-2 stars):**\n")
			for _, m := range low {
				fmt.Fprintf(&b, "- %s, %d cal, %d stars\n", m.Restaurant, m.Calories, m.Rating)
			}
			b.WriteString("\n")
		}

		b.WriteString("**Chronological History:**\n")
		recent := meals
		if len(recent) > 15 {
			recent = recent[len(recent)-15:]
		}
		for i, m := range recent {
			fmt.Fprintf(&b, "%d. %s, %d cal, %d stars\n", i+1, m.Restaurant, m.Calories, m.Rating)
		}
		b.WriteString("\n")
	}

	b.WriteString(`## Task
Analyze this user's profile and meal history. Provide:
1. Detected preferences based on ratings and patterns
2. Assessment of recommendation accuracy
3. Specific suggestions for profile updates
4. Personalized tips for better meal choices

Be specific and reference actual data from their history.
`)

	return b.String()
}

func orText(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
