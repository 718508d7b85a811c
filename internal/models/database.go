package models

import (
	"fmt"

	"github.com/bandhall/bandhall/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	DB = db
	return nil
}

func AutoMigrate() error {
	return MigrateAll(DB)
}

// MigrateAll migrates every table on the given connection. Split out so
// tests can migrate an in-memory database.
func MigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Band{},
		&Member{},
		&Proposal{},
		&Vote{},
		&Project{},
		&Task{},
		&Comment{},
		&Discussion{},
		&ActivityLogEntry{},
		&AIUsageLog{},
		&BandImage{},
		&BandDocument{},
		&RefreshToken{},
		&LLMConfig{},
		&SystemConfig{},
		&SystemLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData creates default system config rows if they do not exist.
func SeedDefaultData() error {
	defaultConfigs := []SystemConfig{
		{Key: "log_retention_days", Value: "30", Type: "int", Group: "system", Label: "System Log Retention Days"},
		{Key: "default_voting_period_hours", Value: "72", Type: "int", Group: "governance", Label: "Default Voting Period (hours)"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		DB.Model(&SystemConfig{}).Where("config_key = ?", cfg.Key).Count(&count)
		if count == 0 {
			if err := DB.Create(&cfg).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
