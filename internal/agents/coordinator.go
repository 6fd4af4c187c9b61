package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"mealwise/internal/models"
	"mealwise/internal/providers"
	"mealwise/internal/resilience"
)

// ProgressFunc receives pipeline progress events: the agent about to run
// and, once it finishes, whether it succeeded.
type ProgressFunc func(role AgentRole, done bool, err error)

// Coordinator orchestrates the sequential agent pipeline:
// profile manager → nutritionist → restaurant → coordinator. Each step
// degrades independently; a wholesale failure falls back to a single
// nutrition agent.
type Coordinator struct {
	profileManager *ProfileManager
	nutritionist   *Nutritionist
	restaurant     *Restaurant
	combiner       *Agent
	fallback       *Agent
}

// NewCoordinator builds the full pipeline sharing one breaker and retry
// policy across agents, since they all talk to the same endpoint.
func NewCoordinator(model providers.Provider, breakers *resilience.Registry) *Coordinator {
	retrier := resilience.NewRetrier()
	breaker := breakers.Get("openai_api")

	return &Coordinator{
		profileManager: NewProfileManager(model, breaker, retrier),
		nutritionist:   NewNutritionist(model, breaker, retrier),
		restaurant:     NewRestaurant(model, breaker, retrier),
		combiner:       NewAgent(RoleCoordinator, coordinatorPrompt, model, breaker, retrier),
		fallback:       NewAgent(RoleNutritionist, fallbackPrompt, model, breaker, retrier),
	}
}

// ProcessRequest runs the pipeline for a user goal. It always returns a
// response string; degraded steps are noted in the session rather than
// failing the request. progress may be nil.
func (c *Coordinator) ProcessRequest(ctx context.Context, userGoal string, profile *models.Profile, progress ProgressFunc) (string, *Session) {
	if progress == nil {
		progress = func(AgentRole, bool, error) {}
	}

	session := &Session{
		ID:       uuid.NewString(),
		UserGoal: userGoal,
	}

	// Step 1: profile insights, only with sufficient history.
	insights := ""
	if profile != nil && profile.TotalMealsTracked >= MinMealsForInsights {
		insights = c.profileInsights(ctx, profile, session, progress)
	}

	// Step 2: nutritional analysis.
	analysis := c.nutritionalAnalysis(ctx, userGoal, profile, insights, session, progress)

	// Step 3: restaurant recommendations.
	recommendations := c.restaurantRecommendations(ctx, userGoal, analysis, profile, insights, session, progress)

	// If both specialists failed the pipeline is not producing anything
	// useful; fall back to the single-agent path.
	if analysis == "" && recommendations == "" {
		session.FallbackTriggered = true
		return c.fallbackResponse(ctx, userGoal, profile, session), session
	}

	// Step 4: combine through the coordinator.
	final := c.coordinateResponse(ctx, userGoal, analysis, recommendations, insights, profile, session, progress)
	return final, session
}

// Insights runs only the profile manager, used by the insights endpoint.
func (c *Coordinator) Insights(ctx context.Context, profile *models.Profile) (string, providers.Usage, error) {
	return c.profileManager.Analyze(ctx, profile)
}

func (c *Coordinator) profileInsights(ctx context.Context, profile *models.Profile, session *Session, progress ProgressFunc) string {
	progress(RoleProfileManager, false, nil)
	insights, usage, err := c.profileManager.Analyze(ctx, profile)
	session.recordUsage(usage)
	progress(RoleProfileManager, true, err)

	if err != nil {
		session.recordError(fmt.Sprintf("Profile Manager Agent error: %v", err))
		return ""
	}
	session.recordAgent(RoleProfileManager)
	return insights
}

func (c *Coordinator) nutritionalAnalysis(ctx context.Context, userGoal string, profile *models.Profile, insights string, session *Session, progress ProgressFunc) string {
	progress(RoleNutritionist, false, nil)
	analysis, usage, err := c.nutritionist.Analyze(ctx, userGoal, profile, insights)
	session.recordUsage(usage)
	progress(RoleNutritionist, true, err)

	if err != nil {
		session.recordError(fmt.Sprintf("Nutritionist Agent error: %v", err))
		return ""
	}
	session.recordAgent(RoleNutritionist)
	return analysis
}

func (c *Coordinator) restaurantRecommendations(ctx context.Context, userGoal, analysis string, profile *models.Profile, insights string, session *Session, progress ProgressFunc) string {
	guidance := analysis
	if guidance == "" {
		guidance = "Nutritional analysis unavailable."
	}

	progress(RoleRestaurant, false, nil)
	recommendations, usage, err := c.restaurant.Recommend(ctx, userGoal, guidance, profile, insights)
	session.recordUsage(usage)
	progress(RoleRestaurant, true, err)

	if err != nil {
		session.recordError(fmt.Sprintf("Restaurant Agent error: %v", err))
		return ""
	}
	session.recordAgent(RoleRestaurant)
	return recommendations
}

func (c *Coordinator) coordinateResponse(ctx context.Context, userGoal, analysis, recommendations, insights string, profile *models.Profile, session *Session, progress ProgressFunc) string {
	if analysis == "" {
		analysis = "Nutritional analysis unavailable."
	}
	if recommendations == "" {
		recommendations = "Restaurant recommendations unavailable."
	}

	request := c.buildCoordinationRequest(userGoal, analysis, recommendations, insights, profile)

	progress(RoleCoordinator, false, nil)
	final, usage, err := c.combiner.Run(ctx, request)
	session.recordUsage(usage)
	progress(RoleCoordinator, true, err)

	if err != nil {
		// Coordination failed; return the specialists' outputs directly.
		session.recordError(fmt.Sprintf("Coordinator error: %v", err))
		combined := analysis + "\n\n---\n\n" + recommendations
		if insights != "" {
			combined = "## Your Preferences\n" + insights + "\n\n---\n\n" + combined
		}
		return combined
	}

	session.recordAgent(RoleCoordinator)
	return final
}

func (c *Coordinator) buildCoordinationRequest(userGoal, analysis, recommendations, insights string, profile *models.Profile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Original User Request\n%s\n", userGoal)

	if insights != "" {
		fmt.Fprintf(&b, "\n## Profile Insights (from Profile Manager Agent)\n%s\n", insights)
	}

	fmt.Fprintf(&b, "\n## Nutritional Analysis (from Nutritionist Agent)\n%s\n", analysis)
	fmt.Fprintf(&b, "\n## Restaurant Recommendations (from Restaurant Agent)\n%s\n", recommendations)

	if profile != nil && profile.TotalMealsTracked > 0 {
		b.WriteString("\n## User Context Available\n")
		fmt.Fprintf(&b, "- User has tracked %d meals\n", profile.TotalMealsTracked)
		if profile.AvgMealRating > 0 {
			fmt.Fprintf(&b, "- Average rating: %.1f/5\n", profile.AvgMealRating)
		}
	}

	b.WriteString(`

Please combine these analyses into a cohesive, user-friendly response. Include:
1. A brief acknowledgment of their request and context (reference profile insights if available)
2. The nutritional guidance
3. The specific restaurant recommendations
4. Any final tips or encouragement based on their preferences
`)

	return b.String()
}

// fallbackResponse answers with the single nutrition agent when the
// multi-agent pipeline failed wholesale.
func (c *Coordinator) fallbackResponse(ctx context.Context, userGoal string, profile *models.Profile, session *Session) string {
	log.Printf("Multi-agent pipeline failed, using single-agent fallback")

	request := userGoal
	if profile != nil {
		request = "## User Request\n" + userGoal + "\n\n" + nutritionContext(profile)
	}

	response, usage, err := c.fallback.Run(ctx, request)
	session.recordUsage(usage)
	if err != nil {
		session.recordError(fmt.Sprintf("fallback agent error: %v", err))
		return "An error occurred while processing your request. Please try again or contact support if the issue persists."
	}

	return "*Using simplified single-agent mode due to technical issues*\n\n" + response
}
