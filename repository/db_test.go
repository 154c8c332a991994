package repository_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-authz"
	"github.com/goliatone/go-authz/repository"
	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())

	db, err := repository.Open(ctx, repository.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	applied, err := repository.Migrate(ctx, db)
	require.NoError(t, err)
	assert.Len(t, applied, 2)

	again, err := repository.Migrate(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, again)

	for _, table := range []string{"users", "roles", "permissions", "user_roles", "role_permissions"} {
		var count int
		err := db.NewSelect().TableExpr(table).ColumnExpr("COUNT(*)").Scan(ctx, &count)
		assert.NoError(t, err, table)
		assert.Zero(t, count, table)
	}

	manager := auth.NewRepositoryManager(db)
	require.NoError(t, manager.Validate())

	exists, err := manager.Users().UsernameExists(ctx, "janedoe")
	require.NoError(t, err)
	assert.False(t, exists)

	reverted, err := repository.Rollback(ctx, db)
	require.NoError(t, err)
	assert.Len(t, reverted, 2)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := repository.Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, "UNSUPPORTED_DRIVER", richErr.TextCode)
	assert.Equal(t, errors.CategoryBadInput, richErr.Category)
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := repository.Open(context.Background(), repository.DriverPostgres, "")
	require.Error(t, err)
}
