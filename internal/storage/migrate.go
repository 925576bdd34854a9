package storage

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/termiplan/termiplan/libs/db"
	"github.com/termiplan/termiplan/migrations"
)

// Migrate applies pending goose migrations from the embedded set.
func Migrate(ctx context.Context, pool *db.Pool) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(migrations.FS)

	sqlDB := pool.StdDB()
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
