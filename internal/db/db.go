// Package db opens and migrates the bot database. Production deployments
// run against MySQL; local development and tests use SQLite.
package db

import (
	"fmt"

	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Shepard/bardbot-sub001/internal/config"
	"github.com/Shepard/bardbot-sub001/internal/models"
)

// DSN builds a MySQL DSN from the database config.
func DSN(dc config.DatabaseConfig) string {
	cfg := mysql.NewConfig()
	cfg.User = dc.User
	cfg.Passwd = dc.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", dc.Host, dc.Port)
	cfg.DBName = dc.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// Connect opens a GORM connection for the configured driver.
func Connect(dc config.DatabaseConfig) (*gorm.DB, error) {
	gc := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	var (
		gdb *gorm.DB
		err error
	)
	switch dc.Driver {
	case "sqlite":
		gdb, err = gorm.Open(sqlite.Open(dc.Path), gc)
	case "mysql":
		gdb, err = gorm.Open(gormmysql.Open(DSN(dc)), gc)
	default:
		return nil, fmt.Errorf("db: unknown driver %q", dc.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("db: connect (%s): %w", dc.Driver, err)
	}
	return gdb, nil
}

// AllModels returns every GORM model for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Story{},
		&models.StorySuggestion{},
		&models.StorySession{},
		&models.GuildConfig{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
