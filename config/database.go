package config

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDatabase opens the PostgreSQL connection. The URL comes from the
// loaded configuration, or straight from the environment when Load has not
// run yet.
func ConnectDatabase() error {
	databaseURL := ""
	if appConfig != nil {
		databaseURL = appConfig.DatabaseURL
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	log.Println("Database connection established successfully")
	return nil
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	return DB
}

// SetDB swaps the instance, used by tests.
func SetDB(db *gorm.DB) {
	DB = db
}
