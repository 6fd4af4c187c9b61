package security

import (
	"context"
	"errors"
	"testing"

	"mealwise/internal/providers"
)

type fakeModerator struct {
	result *providers.ModerationResult
	err    error
	calls  int
}

func (f *fakeModerator) Check(ctx context.Context, text string) (*providers.ModerationResult, error) {
	f.calls++
	return f.result, f.err
}

func TestFilterDisabledAllowsEverything(t *testing.T) {
	mod := &fakeModerator{result: &providers.ModerationResult{Flagged: true}}
	f := NewContentFilter(mod, false)

	if err := f.CheckInput(context.Background(), "anything"); err != nil {
		t.Fatalf("Expected disabled filter to allow input, got %v", err)
	}
	if mod.calls != 0 {
		t.Errorf("Expected moderator not to be called when disabled, got %d calls", mod.calls)
	}
}

func TestFilterNilModeratorAllowsEverything(t *testing.T) {
	f := NewContentFilter(nil, true)
	if err := f.CheckInput(context.Background(), "anything"); err != nil {
		t.Fatalf("Expected filter without moderator to allow input, got %v", err)
	}
}

func TestFilterAllowsCleanInput(t *testing.T) {
	mod := &fakeModerator{result: &providers.ModerationResult{Flagged: false}}
	f := NewContentFilter(mod, true)

	if err := f.CheckInput(context.Background(), "a 600 calorie meal from Subway"); err != nil {
		t.Fatalf("Expected clean input to pass, got %v", err)
	}
	if mod.calls != 1 {
		t.Errorf("Expected one moderation call, got %d", mod.calls)
	}
}

func TestFilterBlocksFlaggedInput(t *testing.T) {
	mod := &fakeModerator{result: &providers.ModerationResult{
		Flagged:    true,
		Categories: []string{"harassment"},
	}}
	f := NewContentFilter(mod, true)

	err := f.CheckInput(context.Background(), "bad input")
	if err == nil {
		t.Fatal("Expected flagged input to be rejected")
	}

	var flagged *FlaggedError
	if !errors.As(err, &flagged) {
		t.Fatalf("Expected FlaggedError, got %T", err)
	}
	if err.Error() != RejectionMessage {
		t.Errorf("Expected the user-facing rejection message, got %q", err.Error())
	}
	if len(flagged.Categories) != 1 || flagged.Categories[0] != "harassment" {
		t.Errorf("Expected categories carried on the error, got %v", flagged.Categories)
	}
}

func TestFilterFailsOpenOnModerationError(t *testing.T) {
	mod := &fakeModerator{err: errors.New("endpoint down")}
	f := NewContentFilter(mod, true)

	if err := f.CheckInput(context.Background(), "anything"); err != nil {
		t.Fatalf("Expected fail-open on moderation error, got %v", err)
	}
}
