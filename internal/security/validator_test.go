package security

import (
	"strings"
	"testing"
)

func TestValidateTextBasics(t *testing.T) {
	got, err := ValidateText("  chicken bowl  ", "notes", MaxTextLength, false)
	if err != nil {
		t.Fatalf("Expected valid text, got %v", err)
	}
	if got != "chicken bowl" {
		t.Errorf("Expected trimmed text, got %q", got)
	}

	if _, err := ValidateText("", "notes", MaxTextLength, false); err == nil {
		t.Error("Expected error for empty required text")
	}
	if got, err := ValidateText("", "notes", MaxTextLength, true); err != nil || got != "" {
		t.Errorf("Expected empty text allowed, got %q, %v", got, err)
	}
}

func TestValidateTextLength(t *testing.T) {
	long := strings.Repeat("a", MaxTextLength+1)
	if _, err := ValidateText(long, "notes", MaxTextLength, false); err == nil {
		t.Error("Expected error for text over the length limit")
	}
}

func TestValidateTextRejectsSQLInjection(t *testing.T) {
	cases := []string{
		"1 UNION SELECT password FROM users",
		"x; DROP TABLE user_profiles",
		"value -- comment",
		"EXEC sp_something",
	}
	for _, input := range cases {
		if _, err := ValidateText(input, "notes", MaxTextLength, false); err == nil {
			t.Errorf("Expected %q to be rejected", input)
		}
	}
}

func TestValidateTextRejectsXSS(t *testing.T) {
	cases := []string{
		"<script>alert(1)</script>",
		"javascript:alert(1)",
		"<img onerror=alert(1)>",
		"<iframe src=evil>",
	}
	for _, input := range cases {
		if _, err := ValidateText(input, "notes", MaxTextLength, false); err == nil {
			t.Errorf("Expected %q to be rejected", input)
		}
	}
}

func TestValidateTextStripsControlChars(t *testing.T) {
	got, err := ValidateText("hello\x00world\x1f", "notes", MaxTextLength, false)
	if err != nil {
		t.Fatalf("Expected valid text, got %v", err)
	}
	if got != "helloworld" {
		t.Errorf("Expected control characters stripped, got %q", got)
	}
}

func TestValidateRestaurantName(t *testing.T) {
	valid := []string{"McDonald's", "Chick-fil-A", "P.F. Chang's", "Five Guys", "Ben & Jerry's"}
	for _, name := range valid {
		if _, err := ValidateRestaurantName(name); err != nil {
			t.Errorf("Expected %q to be valid, got %v", name, err)
		}
	}

	invalid := []string{"Taco<Bell>", "name;rm -rf", ""}
	for _, name := range invalid {
		if _, err := ValidateRestaurantName(name); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}

func TestValidateProfileName(t *testing.T) {
	if _, err := ValidateProfileName("alice_smith-2"); err != nil {
		t.Errorf("Expected valid profile name, got %v", err)
	}
	if _, err := ValidateProfileName("alice's"); err == nil {
		t.Error("Expected apostrophe to be rejected in profile names")
	}
	if _, err := ValidateProfileName(strings.Repeat("a", MaxProfileNameLength+1)); err == nil {
		t.Error("Expected over-length profile name to be rejected")
	}
}

func TestValidateCalorieTarget(t *testing.T) {
	if err := ValidateCalorieTarget(1200); err != nil {
		t.Errorf("Expected 1200 to be valid, got %v", err)
	}
	if err := ValidateCalorieTarget(MinCalorieTarget - 1); err == nil {
		t.Error("Expected value below minimum to be rejected")
	}
	if err := ValidateCalorieTarget(MaxCalorieTarget + 1); err == nil {
		t.Error("Expected value above maximum to be rejected")
	}
}

func TestValidateRating(t *testing.T) {
	for rating := MinRating; rating <= MaxRating; rating++ {
		if err := ValidateRating(rating); err != nil {
			t.Errorf("Expected rating %d to be valid, got %v", rating, err)
		}
	}
	if err := ValidateRating(0); err == nil {
		t.Error("Expected rating 0 to be rejected")
	}
	if err := ValidateRating(6); err == nil {
		t.Error("Expected rating 6 to be rejected")
	}
}

func TestValidateDietaryRestrictions(t *testing.T) {
	got, err := ValidateDietaryRestrictions([]string{"vegetarian", "", "  low-sodium "})
	if err != nil {
		t.Fatalf("Expected valid restrictions, got %v", err)
	}
	if len(got) != 2 || got[0] != "vegetarian" || got[1] != "low-sodium" {
		t.Errorf("Expected cleaned restrictions, got %v", got)
	}

	tooMany := make([]string, MaxRestrictions+1)
	for i := range tooMany {
		tooMany[i] = "r"
	}
	if _, err := ValidateDietaryRestrictions(tooMany); err == nil {
		t.Errorf("Expected more than %d restrictions to be rejected", MaxRestrictions)
	}

	if _, err := ValidateDietaryRestrictions([]string{"x -- y"}); err == nil {
		t.Error("Expected injection pattern in a restriction to be rejected")
	}
}
