package auth

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Roles manages roles, permissions and the links between them and users
type Roles interface {
	PermissionNamesOf(ctx context.Context, roleNames []string) ([]string, error)
	PermissionNamesOfTx(ctx context.Context, tx bun.IDB, roleNames []string) ([]string, error)
	GetRole(ctx context.Context, name string) (*Role, error)
	CreateRole(ctx context.Context, name, description string) (*Role, error)
	CreatePermission(ctx context.Context, name, description string) (*Permission, error)
	GrantPermission(ctx context.Context, roleName, permissionName string) error
	AssignRole(ctx context.Context, userID, roleName string) error
	UnassignRole(ctx context.Context, userID, roleName string) error
}

type roles struct {
	db *bun.DB
}

var _ Roles = (*roles)(nil)

func NewRolesRepository(db *bun.DB) Roles {
	return &roles{db: db}
}

func (r *roles) PermissionNamesOf(ctx context.Context, roleNames []string) ([]string, error) {
	return r.PermissionNamesOfTx(ctx, r.db, roleNames)
}

// PermissionNamesOfTx returns the sorted union of permissions granted
// to any of roleNames
func (r *roles) PermissionNamesOfTx(ctx context.Context, tx bun.IDB, roleNames []string) ([]string, error) {
	names := []string{}
	if len(roleNames) == 0 {
		return names, nil
	}

	err := tx.NewSelect().
		Model((*RolePermission)(nil)).
		ColumnExpr("DISTINCT ?TableAlias.permission_name").
		Where("?TableAlias.role_name IN (?)", bun.In(roleNames)).
		OrderExpr("?TableAlias.permission_name ASC").
		Scan(ctx, &names)

	if err != nil && !stderrors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return dedupe(names), nil
}

func (r *roles) GetRole(ctx context.Context, name string) (*Role, error) {
	record := &Role{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Permissions").
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"role": name,
				})
		}
		return nil, err
	}
	return record, nil
}

func (r *roles) CreateRole(ctx context.Context, name, description string) (*Role, error) {
	if name == "" {
		return nil, NewValidationError("name", "Role name is required.")
	}

	now := time.Now().UTC()
	record := &Role{
		Name:        name,
		Description: optionalString(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create role").
			WithMetadata(map[string]any{
				"role": name,
			})
	}
	return record, nil
}

func (r *roles) CreatePermission(ctx context.Context, name, description string) (*Permission, error) {
	if name == "" {
		return nil, NewValidationError("name", "Permission name is required.")
	}

	now := time.Now().UTC()
	record := &Permission{
		Name:        name,
		Description: optionalString(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create permission").
			WithMetadata(map[string]any{
				"permission": name,
			})
	}
	return record, nil
}

func (r *roles) GrantPermission(ctx context.Context, roleName, permissionName string) error {
	link := &RolePermission{
		RoleName:       roleName,
		PermissionName: permissionName,
	}

	_, err := r.db.NewInsert().
		Model(link).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryConflict, "could not grant permission").
			WithMetadata(map[string]any{
				"role":       roleName,
				"permission": permissionName,
			})
	}
	return nil
}

func (r *roles) AssignRole(ctx context.Context, userID, roleName string) error {
	uid, err := parseUserID(userID)
	if err != nil {
		return err
	}

	link := &UserRole{
		UserID:   uid,
		RoleName: roleName,
	}

	_, err = r.db.NewInsert().
		Model(link).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryConflict, "could not assign role").
			WithMetadata(map[string]any{
				"user_id": userID,
				"role":    roleName,
			})
	}
	return nil
}

func (r *roles) UnassignRole(ctx context.Context, userID, roleName string) error {
	uid, err := parseUserID(userID)
	if err != nil {
		return err
	}

	res, err := r.db.NewDelete().
		Model((*UserRole)(nil)).
		Where("user_id = ?", uid).
		Where("role_name = ?", roleName).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res, map[string]any{
		"user_id": userID,
		"role":    roleName,
	})
}

func expectAffected(res sql.Result, meta map[string]any) error {
	if res == nil {
		return repository.NewRecordNotFound().WithMetadata(meta)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.NewRecordNotFound().WithMetadata(meta)
	}
	return nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
