package postgres

import (
	"context"
	"fmt"

	"event-ticketing/internal/infrastructure/database/postgres/migrations"
	"event-ticketing/internal/logger"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// RunMigrations applies every pending migration embedded in the binary.
func (d *DB) RunMigrations(ctx context.Context) error {
	sqlDB, err := d.SQLDB()
	if err != nil {
		return fmt.Errorf("error getting sql.DB: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	logger.Info("Database migrations applied",
		zap.Int64("version", version),
		logger.Event("migrations_applied"),
	)
	return nil
}
