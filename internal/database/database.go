package database

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"kalprint/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// NewConnection opens the sqlite database file, creating the parent
// directory if needed. Foreign keys are enabled and a busy timeout guards
// against the bot and the dashboard writing at the same moment.
func NewConnection(cfg config.Database, logger *zap.Logger) (*sqlx.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", cfg.Path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		logger.Error("failed to open database", zap.Error(err), zap.String("path", cfg.Path))
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// sqlite allows a single writer; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", zap.Error(err))
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("connected to database", zap.String("path", cfg.Path))
	return db, nil
}

// Migrate applies the embedded schema migrations. The first migration
// creates all tables and seeds the default catalog and settings, so a fresh
// database file is usable immediately.
func Migrate(db *sqlx.DB, logger *zap.Logger) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		logger.Error("failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database migrations applied")
	return nil
}
