package security

import (
	"context"
	"log"

	"mealwise/internal/providers"
)

// RejectionMessage is shown to users whose input failed moderation.
const RejectionMessage = "Your request contains content that doesn't meet our guidelines. " +
	"Please rephrase your request focusing on dietary preferences and meal requirements."

// Moderator checks text against a hosted moderation endpoint.
type Moderator interface {
	Check(ctx context.Context, text string) (*providers.ModerationResult, error)
}

// ContentFilter screens user input through a moderation endpoint. When
// the endpoint is unreachable the filter fails open: recommendations
// keep working during a moderation outage.
type ContentFilter struct {
	moderator Moderator
	enabled   bool
}

// NewContentFilter creates a content filter. A nil moderator or
// enabled=false produces a filter that allows everything.
func NewContentFilter(moderator Moderator, enabled bool) *ContentFilter {
	return &ContentFilter{moderator: moderator, enabled: enabled && moderator != nil}
}

// CheckInput returns nil when the text may be processed and an error
// carrying the user-facing rejection message otherwise.
func (f *ContentFilter) CheckInput(ctx context.Context, text string) error {
	if !f.enabled {
		return nil
	}

	result, err := f.moderator.Check(ctx, text)
	if err != nil {
		// Fail open on endpoint errors
		log.Printf("Content moderation error, allowing input: %v", err)
		return nil
	}

	if result.Flagged {
		log.Printf("User input blocked by moderation: %v", result.Categories)
		return &FlaggedError{Categories: result.Categories}
	}
	return nil
}

// FlaggedError indicates that input was rejected by moderation.
type FlaggedError struct {
	Categories []string
}

func (e *FlaggedError) Error() string {
	return RejectionMessage
}
