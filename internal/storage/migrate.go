package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// ErrMigrationsUnsupported is returned for stores whose schema we cannot reach.
var ErrMigrationsUnsupported = errors.New("migrations not supported for this store")

// Migrate applies the bundled schema for SQL-backed stores.
func Migrate(ctx context.Context, store MessageStore) error {
	s, ok := store.(*SQLStore)
	if !ok {
		return ErrMigrationsUnsupported
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(s.dialect.name); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.DB, "migrations/"+s.dialect.name); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
