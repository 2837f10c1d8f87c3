package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"kasa/internal/database"
	"kasa/internal/logger"
	"kasa/internal/models"
)

// defaultPaymentMethods is the reference set every fresh install starts with.
var defaultPaymentMethods = []string{
	"Nakit",
	"IBAN",
	"EFT",
	"Havale",
	"Kredi Kartı",
	"POS",
	"Çek",
	"Senet",
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Seed error: %v", err)
	}
}

func run() error {
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	db := dbManager.DB()

	if err := seedPaymentMethods(db); err != nil {
		return err
	}
	if err := seedAdmin(db); err != nil {
		return err
	}

	logger.Get().Info("Seed completed successfully")
	return nil
}

// seedPaymentMethods inserts the default payment methods, skipping any
// that already exist so the command is safe to rerun.
func seedPaymentMethods(db *gorm.DB) error {
	for _, name := range defaultPaymentMethods {
		pm := models.PaymentMethod{Name: name, IsActive: true}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&pm).Error
		if err != nil {
			return fmt.Errorf("failed to seed payment method %q: %w", name, err)
		}
	}
	logger.Get().Infof("Seeded %d payment methods", len(defaultPaymentMethods))
	return nil
}

// seedAdmin creates the initial admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD. Skipped when the account already exists or the
// variables are unset.
func seedAdmin(db *gorm.DB) error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Get().Info("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin account")
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("lower(email) = lower(?)", email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}
	if count > 0 {
		logger.Get().Infof("Admin account %s already exists, skipping", email)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		Email:    strings.ToLower(email),
		Password: string(hash),
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	logger.Get().Infof("Created admin account %s", email)
	return nil
}
