package database

import (
	"fmt"
	"sort"

	"github.com/jinzhu/gorm"

	"mealwise/internal/models"
)

// ProfileStore persists user profiles and their meal history.
type ProfileStore interface {
	Save(profile *models.Profile) error
	Load(name string) (*models.Profile, error)
	List() ([]string, error)
	Delete(name string) error
}

// ErrProfileNotFound is returned when a profile does not exist in a store.
var ErrProfileNotFound = fmt.Errorf("profile not found")

// DBStore persists profiles to the relational database.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore creates a database-backed profile store.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// Save upserts the profile row and replaces its meal history.
func (s *DBStore) Save(profile *models.Profile) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var existing models.Profile
	err := tx.Where("name = ?", profile.Name).First(&existing).Error
	switch {
	case err == nil:
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		if err := tx.Save(profile).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to update profile: %w", err)
		}
	case gorm.IsRecordNotFoundError(err):
		if err := tx.Create(profile).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to create profile: %w", err)
		}
	default:
		tx.Rollback()
		return fmt.Errorf("failed to look up profile: %w", err)
	}

	// Replace the meal history wholesale; the profile object is the
	// source of truth for the capped history.
	if err := tx.Unscoped().Where("profile_id = ?", profile.ID).Delete(&models.MealEntry{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear meal history: %w", err)
	}
	for i := range profile.MealHistory {
		meal := profile.MealHistory[i]
		meal.ID = 0
		meal.ProfileID = profile.ID
		if err := tx.Create(&meal).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save meal entry: %w", err)
		}
	}

	return tx.Commit().Error
}

// Load retrieves a profile and its most recent meals in chronological order.
func (s *DBStore) Load(name string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.Where("name = ?", name).First(&profile).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var meals []models.MealEntry
	err = s.db.Where("profile_id = ?", profile.ID).
		Order("logged_at desc").
		Limit(models.MaxMealHistory).
		Find(&meals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load meal history: %w", err)
	}

	// Reverse to chronological order
	for i, j := 0, len(meals)-1; i < j; i, j = i+1, j-1 {
		meals[i], meals[j] = meals[j], meals[i]
	}
	profile.MealHistory = meals

	return &profile, nil
}

// List returns all profile names.
func (s *DBStore) List() ([]string, error) {
	var profiles []models.Profile
	if err := s.db.Select("name").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	return names, nil
}

// Delete removes a profile and its meal history.
func (s *DBStore) Delete(name string) error {
	var profile models.Profile
	err := s.db.Where("name = ?", name).First(&profile).Error
	if gorm.IsRecordNotFoundError(err) {
		return ErrProfileNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up profile: %w", err)
	}

	if err := s.db.Unscoped().Where("profile_id = ?", profile.ID).Delete(&models.MealEntry{}).Error; err != nil {
		return fmt.Errorf("failed to delete meal history: %w", err)
	}
	if err := s.db.Unscoped().Delete(&profile).Error; err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// LayeredStore tries the database first and falls back to JSON files.
// Saves that reach the database are mirrored to JSON as a backup.
type LayeredStore struct {
	primary  ProfileStore
	fallback ProfileStore
}

// NewLayeredStore builds a store with database-first semantics. primary
// may be nil when no database is configured.
func NewLayeredStore(primary, fallback ProfileStore) *LayeredStore {
	return &LayeredStore{primary: primary, fallback: fallback}
}

// Save writes to the database when available and always mirrors to the
// JSON fallback so a later database outage loses nothing.
func (s *LayeredStore) Save(profile *models.Profile) error {
	if s.primary != nil {
		if err := s.primary.Save(profile); err == nil {
			// Mirror to JSON as backup; a mirror failure is not fatal.
			_ = s.fallback.Save(profile)
			return nil
		}
	}
	return s.fallback.Save(profile)
}

// Load reads from the database, falling back to JSON.
func (s *LayeredStore) Load(name string) (*models.Profile, error) {
	if s.primary != nil {
		if profile, err := s.primary.Load(name); err == nil {
			return profile, nil
		}
	}
	return s.fallback.Load(name)
}

// List merges names from both stores, deduplicated and sorted.
func (s *LayeredStore) List() ([]string, error) {
	seen := make(map[string]bool)

	if s.primary != nil {
		if names, err := s.primary.List(); err == nil {
			for _, n := range names {
				seen[n] = true
			}
		}
	}

	names, err := s.fallback.List()
	if err != nil && len(seen) == 0 {
		return nil, err
	}
	for _, n := range names {
		seen[n] = true
	}

	merged := make([]string, 0, len(seen))
	for n := range seen {
		merged = append(merged, n)
	}
	sort.Strings(merged)
	return merged, nil
}

// Delete removes the profile from both stores.
func (s *LayeredStore) Delete(name string) error {
	var primaryErr error
	if s.primary != nil {
		primaryErr = s.primary.Delete(name)
	}
	fallbackErr := s.fallback.Delete(name)

	if primaryErr == nil || fallbackErr == nil {
		return nil
	}
	return fallbackErr
}
