package agents

import (
	"fmt"
	"strings"
)

// FormatGoal assembles the natural-language goal sent into the pipeline
// from the structured request fields.
func FormatGoal(restaurant string, calories int, restrictions []string, notes string) string {
	goal := fmt.Sprintf("I want a %d calorie meal from %s.", calories, strings.ToLower(restaurant))

	if len(restrictions) > 0 {
		goal += " I have dietary restrictions: " + strings.Join(restrictions, ", ") + "."
	} else {
		goal += " I have no dietary restrictions."
	}

	if notes = strings.TrimSpace(notes); notes != "" {
		goal += " Additional preferences: " + notes + "."
	}

	return goal
}
