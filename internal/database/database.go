package database

import (
	"log"
	"time"

	"github.com/cbadabili/Real-Estate-App-sub000/internal/config"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
}

func Connect(cfg *config.Config) (*DB, error) {
	logLevel := logger.Silent
	if cfg.ServerEnv == "development" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(&MetricsPlugin{}); err != nil {
		log.Printf("Failed to register metrics plugin: %v", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	return &DB{db}, nil
}

// Migrate runs AutoMigrate for all models. The geom column type is a PostGIS
// geometry; AutoMigrate warnings against an existing schema are non-fatal.
func Migrate(db *DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Property{},
	)
	if err != nil {
		log.Printf("AutoMigrate warning (non-fatal): %v", err)
	}
	return nil
}
