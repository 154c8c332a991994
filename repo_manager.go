package auth

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// RepositoryManager groups the users and roles repositories behind
// one transaction boundary
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
	Roles() Roles
}

type repositoryManager struct {
	db    *bun.DB
	users Users
	roles Roles
}

// NewRepositoryManager registers the models on db and builds both
// repositories. A nil db yields a manager that fails Validate.
func NewRepositoryManager(db *bun.DB) RepositoryManager {
	m := &repositoryManager{db: db}
	if db != nil {
		RegisterModels(db)
		m.users = NewUsersRepository(db)
		m.roles = NewRolesRepository(db)
	}
	return m
}

// Validate reports every missing dependency at once
func (m *repositoryManager) Validate() error {
	missing := map[string]any{}
	if m.db == nil {
		missing["db"] = "not initialized"
	}
	if m.users == nil {
		missing["users"] = "not initialized"
	}
	if m.roles == nil {
		missing["roles"] = "not initialized"
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.New("credential store is not ready", errors.CategoryInternal).
		WithTextCode("STORE_NOT_READY").
		WithMetadata(missing)
}

// MustValidate panics when Validate fails, meant for process startup
func (m *repositoryManager) MustValidate() {
	if err := m.Validate(); err != nil {
		panic(err)
	}
}

// RunInTx runs f inside a transaction unless ctx is already done
func (m *repositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.db.RunInTx(ctx, opts, f)
}

func (m *repositoryManager) Users() Users { return m.users }

func (m *repositoryManager) Roles() Roles { return m.roles }
