package agents

import (
	"context"
	"fmt"
	"strings"

	"mealwise/internal/models"
	"mealwise/internal/providers"
	"mealwise/internal/resilience"
)

// Restaurant recommends specific menu items based on the nutritionist's
// guidance and the user's preferences.
type Restaurant struct {
	agent *Agent
}

// NewRestaurant creates the restaurant expert agent.
func NewRestaurant(model providers.Provider, breaker *resilience.CircuitBreaker, retrier *resilience.Retrier) *Restaurant {
	return &Restaurant{
		agent: NewAgent(RoleRestaurant, restaurantPrompt, model, breaker, retrier),
	}
}

// Recommend produces menu recommendations grounded on the nutritional
// analysis.
func (r *Restaurant) Recommend(ctx context.Context, userGoal, analysis string, profile *models.Profile, insights string) (string, providers.Usage, error) {
	return r.agent.Run(ctx, r.buildRequest(userGoal, analysis, profile, insights))
}

func (r *Restaurant) buildRequest(userGoal, analysis string, profile *models.Profile, insights string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## User Request\n%s\n\n", userGoal)

	if insights != "" {
		fmt.Fprintf(&b, "## Profile Insights (from Profile Manager)\n%s\n\n", insights)
	}

	fmt.Fprintf(&b, "## Nutritional Guidance\n%s\n\n", analysis)

	if profile != nil {
		b.WriteString(preferenceContext(profile))
	}

	b.WriteString("\nProvide 2-3 specific menu recommendations with exact items and nutritional breakdowns.")
	return b.String()
}

// preferenceContext summarizes favorites, dislikes, and rating history
// so recommendations track what the user actually enjoys.
func preferenceContext(profile *models.Profile) string {
	var b strings.Builder

	b.WriteString("## User Preferences\n")

	if len(profile.FavoriteRestaurants) > 0 {
		favs := profile.FavoriteRestaurants
		if len(favs) > 5 {
			favs = favs[:5]
		}
		fmt.Fprintf(&b, "**Favorite Restaurants**: %s\n", strings.Join(favs, ", "))
	}
	if len(profile.PreferredCookingMethods) > 0 {
		fmt.Fprintf(&b, "**Preferred Cooking**: %s\n", strings.Join(profile.PreferredCookingMethods, ", "))
	}
	if len(profile.DislikedItems) > 0 {
		fmt.Fprintf(&b, "**AVOID THESE**: %s\n", strings.Join(profile.DislikedItems, ", "))
	}

	recent := profile.RecentMeals(10)

	var highlyRated []models.MealEntry
	for _, m := range recent {
		if m.Rating >= 4 {
			highlyRated = append(highlyRated, m)
		}
	}
	if len(highlyRated) > 0 {
		if len(highlyRated) > 3 {
			highlyRated = highlyRated[len(highlyRated)-3:]
		}
		b.WriteString("\n**User's Highly Rated Meals** (reference these for similar suggestions):\n")
		for _, m := range highlyRated {
			fmt.Fprintf(&b, "- %s: %d stars (%d cal)\n", m.Restaurant, m.Rating, m.Calories)
		}
	}

	var poorlyRated []models.MealEntry
	for _, m := range recent {
		if m.Rating >= 1 && m.Rating <= 2 {
			poorlyRated = append(poorlyRated, m)
		}
	}
	if len(poorlyRated) > 0 {
		if len(poorlyRated) > 2 {
			poorlyRated = poorlyRated[len(poorlyRated)-2:]
		}
		b.WriteString("\n**User Did Not Enjoy** (avoid similar items):\n")
		for _, m := range poorlyRated {
			fmt.Fprintf(&b, "- %s: %d stars\n", m.Restaurant, m.Rating)
		}
	}

	return b.String()
}
