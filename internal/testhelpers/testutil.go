// Package testhelpers provides database setup and fixture helpers for tests.
// Most tests run against an in-memory sqlite database; tests that need real
// postgres behavior use the containerized helper in database.go.
package testhelpers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mealmatchy/backend/internal/database"
	"github.com/mealmatchy/backend/internal/models"
)

// SetupTestDB creates an in-memory sqlite database with the full schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_fk=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// CreateTestUser inserts a user and returns it.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := &models.User{
		Name:         "Test User",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "not-a-real-hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestMenu inserts an approved menu with the given price and
// ingredient names.
func CreateTestMenu(t *testing.T, db *gorm.DB, name string, price int, ingredients ...string) *models.Menu {
	t.Helper()

	menu := &models.Menu{
		Name:           name,
		RestaurantName: "Test Kitchen",
		Price:          price,
		Status:         models.MenuStatusApproved,
	}
	for _, ing := range ingredients {
		menu.Ingredients = append(menu.Ingredients, models.MenuIngredient{Name: ing})
	}
	if err := db.Create(menu).Error; err != nil {
		t.Fatalf("failed to create test menu: %v", err)
	}
	return menu
}

// CreateTestIngredient inserts an ingredient with an explicit price per gram.
func CreateTestIngredient(t *testing.T, db *gorm.DB, name string, pricePerGram string) *models.Ingredient {
	t.Helper()

	ppg, err := decimal.NewFromString(pricePerGram)
	if err != nil {
		t.Fatalf("invalid price per gram %q: %v", pricePerGram, err)
	}
	ingredient := &models.Ingredient{
		Name:         name,
		PricePerGram: ppg,
	}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("failed to create test ingredient: %v", err)
	}
	return ingredient
}

// Date builds a normalized calendar date for test fixtures.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
