// Package migrate applies embedded SQL migrations.
package migrate

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/and161185/taskkeeper/migrations"
)

// seams for tests
var (
	openDB         = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }
	gooseUpContext = goose.UpContext
	gooseDown      = goose.DownContext
)

func prepare(dsn string) (*sql.DB, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Up runs all pending migrations from the embedded filesystem.
func Up(ctx context.Context, dsn string) error {
	db, err := prepare(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return gooseUpContext(ctx, db, ".")
}

// Down rolls back the latest migration.
func Down(ctx context.Context, dsn string) error {
	db, err := prepare(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return gooseDown(ctx, db, ".")
}
