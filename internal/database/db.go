package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"mealwise/internal/models"
)

var db *gorm.DB

// InitDB initializes the database connection. A URL starting with
// "postgres" opens a PostgreSQL connection; anything else is treated as a
// SQLite path for development and tests. An empty URL leaves the service
// on JSON-file storage only.
func InitDB(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("no database URL configured")
	}

	dialect := "sqlite3"
	if strings.HasPrefix(databaseURL, "postgres") {
		dialect = "postgres"
	}

	var err error
	db, err = gorm.Open(dialect, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	db.DB().SetMaxIdleConns(10)
	db.DB().SetMaxOpenConns(100)
	db.DB().SetConnMaxLifetime(time.Hour)

	return nil
}

// Migrate creates and updates all required tables.
func Migrate(db *gorm.DB) error {
	result := db.AutoMigrate(
		&models.Profile{},
		&models.MealEntry{},
		&models.APIUsage{},
		&models.ErrorLog{},
		&models.SystemMetric{},
	)
	return result.Error
}

// GetDB returns the database instance, or nil when no database is
// configured.
func GetDB() *gorm.DB {
	return db
}

// SetDB replaces the database instance. Used by tests.
func SetDB(d *gorm.DB) {
	db = d
}

// Available reports whether a database connection exists and responds.
func Available() bool {
	if db == nil {
		return false
	}
	return db.DB().Ping() == nil
}

// CloseDB closes the database connection
func CloseDB() error {
	if db != nil {
		return db.Close()
	}
	return nil
}
