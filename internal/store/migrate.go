package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/orbitclash/server/internal/store/migrations"
)

var gooseOnce sync.Once

// Migrate applies every pending migration embedded in internal/store/migrations.
func Migrate(ctx context.Context, s *SQLiteStore) error {
	var dialectErr error
	gooseOnce.Do(func() {
		goose.SetBaseFS(migrations.FS)
		dialectErr = goose.SetDialect("sqlite3")
	})
	if dialectErr != nil {
		return fmt.Errorf("setting goose dialect: %w", dialectErr)
	}

	if err := goose.UpContext(ctx, s.DB(), "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
