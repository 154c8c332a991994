package auth

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// RepositoryStore adapts a RepositoryManager to CredentialStore
type RepositoryStore struct {
	repo RepositoryManager
}

var _ CredentialStore = (*RepositoryStore)(nil)

func NewRepositoryStore(repo RepositoryManager) *RepositoryStore {
	return &RepositoryStore{repo: repo}
}

func (s *RepositoryStore) FindUserByID(ctx context.Context, id string) (*User, error) {
	return s.repo.Users().GetWithRoles(ctx, id)
}

func (s *RepositoryStore) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.Users().GetByUsername(ctx, username)
}

func (s *RepositoryStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.repo.Users().UsernameExists(ctx, username)
}

func (s *RepositoryStore) PermissionNamesOf(ctx context.Context, roleNames []string) ([]string, error) {
	return s.repo.Roles().PermissionNamesOf(ctx, roleNames)
}

// IsRecordNotFound reports lookups that matched nothing
func IsRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err) {
		return true
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Category == errors.CategoryNotFound
	}
	return false
}
