// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/winterarc/models"
)

// OpenTestDB opens an in-memory SQLite database and migrates every model.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	// every pooled connection to :memory: would see its own empty database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// CreateUser inserts a profile with the given coins, streak and last activity day.
func CreateUser(t *testing.T, db *gorm.DB, name string, coins, streak int, lastDay string) models.User {
	t.Helper()

	email := name + "@example.com"
	u := models.User{
		Email:         email,
		Provider:      "local",
		ProviderID:    email,
		DisplayName:   name,
		TotalCoins:    coins,
		CurrentStreak: streak,
	}
	if lastDay != "" {
		d := lastDay
		u.LastActivityDate = &d
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}
