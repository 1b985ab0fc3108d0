package testutils

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	seasonmigrations "github.com/Black-And-White-Club/pitwall/app/modules/season/infrastructure/repositories/migrations"
)

// RunMigrations creates the migration tables and applies the season migrations.
func RunMigrations(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, seasonmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run season migrations: %w", err)
	}
	if group.IsZero() {
		log.Println("No season migrations to run")
	} else {
		log.Printf("Ran season migrations group #%d", group.ID)
	}
	return nil
}

// RollbackMigrations undoes the last migration group.
func RollbackMigrations(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, seasonmigrations.Migrations)
	if _, err := migrator.Rollback(ctx); err != nil {
		return fmt.Errorf("failed to roll back season migrations: %w", err)
	}
	return nil
}

// TruncateTables truncates the named tables.
func TruncateTables(ctx context.Context, db *bun.DB, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	quoted := make([]string, len(tables))
	for i, table := range tables {
		quoted[i] = fmt.Sprintf("%q", table)
	}
	query := "TRUNCATE TABLE " + strings.Join(quoted, ", ") + " CASCADE"
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables %v: %w", tables, err)
	}
	return nil
}
