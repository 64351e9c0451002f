package database

import (
	"context"
	"fmt"

	"weather-dashboard/migrations"
	"weather-dashboard/pkg/logging"
)

// Migrate applies the embedded migration scripts in one transaction
func (d *DB) Migrate(ctx context.Context, dir migrations.Direction) error {
	names, scripts, err := migrations.Scripts(dir)
	if err != nil {
		return err
	}

	tx, err := d.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, script := range scripts {
		if _, err := tx.ExecContext(ctx, script); err != nil {
			return fmt.Errorf("failed to apply %s: %w", names[i], err)
		}
		d.logger.Info(ctx, "[DB_MIGRATE] Migration applied", logging.Fields{
			"file":      names[i],
			"direction": string(dir),
		})
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
