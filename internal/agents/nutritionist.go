package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mealwise/internal/models"
	"mealwise/internal/providers"
	"mealwise/internal/resilience"
)

// Nutritionist analyzes dietary requirements and produces nutritional
// guidance for a meal request.
type Nutritionist struct {
	agent *Agent
}

// NewNutritionist creates the nutritionist agent.
func NewNutritionist(model providers.Provider, breaker *resilience.CircuitBreaker, retrier *resilience.Retrier) *Nutritionist {
	return &Nutritionist{
		agent: NewAgent(RoleNutritionist, nutritionistPrompt, model, breaker, retrier),
	}
}

// Analyze produces a nutritional analysis of the request, enriched with
// profile context and any profile-manager insights.
func (n *Nutritionist) Analyze(ctx context.Context, userGoal string, profile *models.Profile, insights string) (string, providers.Usage, error) {
	return n.agent.Run(ctx, n.buildRequest(userGoal, profile, insights))
}

func (n *Nutritionist) buildRequest(userGoal string, profile *models.Profile, insights string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## User Request\n%s\n\n", userGoal)

	if insights != "" {
		fmt.Fprintf(&b, "## Profile Insights\n%s\n\n", insights)
	}

	if profile != nil {
		b.WriteString(nutritionContext(profile))
	}

	b.WriteString("\nProvide a detailed nutritional analysis for this request.")
	return b.String()
}

// nutritionContext summarizes the parts of a profile the nutritionist
// cares about: restrictions, stats, today's intake, and recent favorites.
func nutritionContext(profile *models.Profile) string {
	var b strings.Builder

	b.WriteString("## User Profile Context\n")

	if len(profile.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "**Known Restrictions**: %s\n", strings.Join(profile.DietaryRestrictions, ", "))
	}
	if len(profile.DislikedItems) > 0 {
		fmt.Fprintf(&b, "**Dislikes**: %s\n", strings.Join(profile.DislikedItems, ", "))
	}

	if profile.TotalMealsTracked > 0 {
		fmt.Fprintf(&b, "**Total Meals Tracked**: %d\n", profile.TotalMealsTracked)
		fmt.Fprintf(&b, "**Average Meal Calories**: %.1f cal\n", profile.AvgMealCalories)
		if profile.AvgMealRating > 0 {
			fmt.Fprintf(&b, "**Average Rating**: %.1f/5\n", profile.AvgMealRating)
		}
	}

	if todays := profile.TodaysMeals(time.Now()); len(todays) > 0 {
		total := 0
		for _, m := range todays {
			total += m.Calories
		}
		fmt.Fprintf(&b, "\n**Today's Intake**: %d meal(s), %d calories already logged\n", len(todays), total)
	}

	recent := profile.RecentMeals(5)
	var favorites []models.MealEntry
	for _, m := range recent {
		if m.Rating >= 4 {
			favorites = append(favorites, m)
		}
	}
	if len(favorites) > 0 {
		b.WriteString("\n**Recent Favorites** (4+ stars):\n")
		for _, m := range favorites {
			fmt.Fprintf(&b, "- %s, %d cal, %d stars\n", m.Restaurant, m.Calories, m.Rating)
		}
	}

	return b.String()
}
