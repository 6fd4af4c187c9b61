package security

import (
	"fmt"
	"log"
	"regexp"
	"strings"
)

// Maximum input lengths
const (
	MaxTextLength        = 1000
	MaxRestaurantLength  = 100
	MaxProfileNameLength = 50
	MaxRestrictionLength = 100
	MaxRestrictions      = 10
)

// Calorie and rating bounds
const (
	MinCalorieTarget = 300
	MaxCalorieTarget = 5000
	MinRating        = 1
	MaxRating        = 5
)

var sqlInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bUNION\b.*\bSELECT\b`),
	regexp.MustCompile(`(?i)\bDROP\b.*\bTABLE\b`),
	regexp.MustCompile(`(?i)\bINSERT\b.*\bINTO\b`),
	regexp.MustCompile(`(?i)\bDELETE\b.*\bFROM\b`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`(?i)\bEXEC\b|\bEXECUTE\b`),
}

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)<object`),
	regexp.MustCompile(`(?i)<embed`),
}

var (
	restaurantNameRe = regexp.MustCompile(`^[a-zA-Z0-9\s\-'&.]+$`)
	profileNameRe    = regexp.MustCompile(`^[a-zA-Z0-9\s_-]+$`)
	controlCharRe    = regexp.MustCompile("[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]")
)

// ValidateText validates and sanitizes free-form text input. It returns
// the sanitized text or an error describing the violation.
func ValidateText(text, fieldName string, maxLength int, allowEmpty bool) (string, error) {
	if text == "" {
		if allowEmpty {
			return "", nil
		}
		return "", fmt.Errorf("%s cannot be empty", fieldName)
	}

	if maxLength <= 0 {
		maxLength = MaxTextLength
	}
	if len(text) > maxLength {
		return "", fmt.Errorf("%s exceeds maximum length of %d characters", fieldName, maxLength)
	}

	for _, pattern := range sqlInjectionPatterns {
		if pattern.MatchString(text) {
			log.Printf("SQL injection attempt detected in %s: %s", fieldName, truncate(text, 50))
			return "", fmt.Errorf("invalid characters detected in %s", fieldName)
		}
	}

	for _, pattern := range xssPatterns {
		if pattern.MatchString(text) {
			log.Printf("XSS attempt detected in %s: %s", fieldName, truncate(text, 50))
			return "", fmt.Errorf("invalid characters detected in %s", fieldName)
		}
	}

	sanitized := controlCharRe.ReplaceAllString(text, "")
	return strings.TrimSpace(sanitized), nil
}

// ValidateRestaurantName validates a restaurant name.
func ValidateRestaurantName(name string) (string, error) {
	sanitized, err := ValidateText(name, "restaurant name", MaxRestaurantLength, false)
	if err != nil {
		return "", err
	}
	if !restaurantNameRe.MatchString(sanitized) {
		return "", fmt.Errorf("restaurant name contains invalid characters")
	}
	return sanitized, nil
}

// ValidateProfileName validates a profile name.
func ValidateProfileName(name string) (string, error) {
	sanitized, err := ValidateText(name, "profile name", MaxProfileNameLength, false)
	if err != nil {
		return "", err
	}
	if !profileNameRe.MatchString(sanitized) {
		return "", fmt.Errorf("profile name can only contain letters, numbers, spaces, hyphens, and underscores")
	}
	return sanitized, nil
}

// ValidateCalorieTarget checks a calorie target is within sane bounds.
func ValidateCalorieTarget(calories int) error {
	if calories < MinCalorieTarget {
		return fmt.Errorf("calorie target must be at least %d", MinCalorieTarget)
	}
	if calories > MaxCalorieTarget {
		return fmt.Errorf("calorie target must be at most %d", MaxCalorieTarget)
	}
	return nil
}

// ValidateRating checks a meal rating is 1-5.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

// ValidateDietaryRestrictions validates and sanitizes a restriction list.
func ValidateDietaryRestrictions(restrictions []string) ([]string, error) {
	sanitized := make([]string, 0, len(restrictions))
	for _, r := range restrictions {
		clean, err := ValidateText(r, "dietary restriction", MaxRestrictionLength, true)
		if err != nil {
			return nil, err
		}
		if clean != "" {
			sanitized = append(sanitized, clean)
		}
	}

	if len(sanitized) > MaxRestrictions {
		return nil, fmt.Errorf("maximum %d dietary restrictions allowed", MaxRestrictions)
	}
	return sanitized, nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
