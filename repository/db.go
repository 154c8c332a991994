package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-authz"
	"github.com/goliatone/go-errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSQLiteDSN is an in process database shared by every connection
const DefaultSQLiteDSN = "file:authz?mode=memory&cache=shared"

// Open connects to the database for driver and registers the auth models.
// The connection is verified with a ping bounded by ctx.
func Open(ctx context.Context, driver, dsn string) (*bun.DB, error) {
	var db *bun.DB

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		if dsn == "" {
			dsn = DefaultSQLiteDSN
		}
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open sqlite database")
		}
		// a single connection keeps the shared in memory database alive
		// and serialises writers
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres, "pgx":
		if dsn == "" {
			return nil, errors.New("postgres driver requires a DSN", errors.CategoryBadInput).
				WithTextCode("DSN_REQUIRED")
		}
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open postgres database")
		}
		sqldb.SetConnMaxIdleTime(5 * time.Minute)
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, errors.New(fmt.Sprintf("unsupported database driver %q", driver), errors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_DRIVER").
			WithMetadata(map[string]any{"driver": driver})
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CategoryInternal, "database ping failed")
	}

	auth.RegisterModels(db)

	return db, nil
}

func newMigrator(db *bun.DB) (*migrate.Migrator, error) {
	dir, err := auth.MigrationsDir()
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load migrations")
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(dir); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to discover migrations")
	}

	return migrate.NewMigrator(db, migrations), nil
}

// Migrate applies every pending migration and returns the names applied
func Migrate(ctx context.Context, db *bun.DB) ([]string, error) {
	migrator, err := newMigrator(db)
	if err != nil {
		return nil, err
	}

	if err := migrator.Init(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to init migration tables")
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "migration failed")
	}

	return migrationNames(group), nil
}

// Rollback reverts the last applied migration group
func Rollback(ctx context.Context, db *bun.DB) ([]string, error) {
	migrator, err := newMigrator(db)
	if err != nil {
		return nil, err
	}

	group, err := migrator.Rollback(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "rollback failed")
	}

	return migrationNames(group), nil
}

func migrationNames(group *migrate.MigrationGroup) []string {
	names := []string{}
	if group == nil || group.IsZero() {
		return names
	}
	for _, m := range group.Migrations {
		names = append(names, m.Name)
	}
	return names
}
