package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type schemaMigration struct {
	Version string `gorm:"primaryKey"`
}

// RunMigrations applies the embedded SQL files in name order. Each file runs
// in its own transaction and is recorded in schema_migrations.
func RunMigrations(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	db = db.WithContext(ctx)
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`).Error; err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	var applied []schemaMigration
	if err := db.Table("schema_migrations").Find(&applied).Error; err != nil {
		return fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, m := range applied {
		done[m.Version] = true
	}

	for _, name := range names {
		if done[name] {
			continue
		}
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return err
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(body)).Error; err != nil {
				return err
			}
			return tx.Table("schema_migrations").Create(&schemaMigration{Version: name}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
		log.Info("Applied migration", zap.String("version", name))
	}
	return nil
}
