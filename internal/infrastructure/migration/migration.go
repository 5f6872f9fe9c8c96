package migration

import (
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"signet/internal/shared/logger"
)

// Runner applies SQL migrations with goose against the live connection.
type Runner struct {
	scriptsPath string
	logger      logger.Interface
}

func NewRunner(scriptsPath string) *Runner {
	return &Runner{
		scriptsPath: scriptsPath,
		logger:      logger.NewLogger().With("component", "migration"),
	}
}

// Up applies all pending migrations.
func (r *Runner) Up(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	currentVersion, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	r.logger.Infow("starting migration",
		"scripts_path", r.scriptsPath,
		"version", currentVersion)

	if err := goose.Up(sqlDB, r.scriptsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	finalVersion, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("failed to get final version: %w", err)
	}

	r.logger.Infow("migration completed",
		"from_version", currentVersion,
		"to_version", finalVersion)

	return nil
}

// Down rolls back the given number of migrations, one at a time.
func (r *Runner) Down(db *gorm.DB, steps int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := goose.SetDialect("mysql"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	for i := 0; i < steps; i++ {
		if err := goose.Down(sqlDB, r.scriptsPath); err != nil {
			return fmt.Errorf("failed to run down migration: %w", err)
		}
	}

	r.logger.Infow("down migration completed", "steps", steps)
	return nil
}

// Version reports the current schema version.
func (r *Runner) Version(db *gorm.DB) (int64, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return 0, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := goose.SetDialect("mysql"); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	version, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return 0, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}
