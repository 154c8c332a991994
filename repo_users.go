package auth

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the user repository
type Users interface {
	repository.Repository[*User]

	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)
	GetWithRoles(ctx context.Context, id string) (*User, error)
	GetWithRolesTx(ctx context.Context, tx bun.IDB, id string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UsernameExistsTx(ctx context.Context, tx bun.IDB, username string) (bool, error)
	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	SetActive(ctx context.Context, id string, active bool) error
	SetActiveTx(ctx context.Context, tx bun.IDB, id string, active bool) error
	Remove(ctx context.Context, id string) error
	RemoveTx(ctx context.Context, tx bun.IDB, id string) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

// GetByUsernameTx is an exact, case sensitive match
func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.username = ?", username).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"username": username,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetWithRoles(ctx context.Context, id string) (*User, error) {
	return a.GetWithRolesTx(ctx, a.db, id)
}

// GetWithRolesTx loads the user and its roles in one call
func (a *users) GetWithRolesTx(ctx context.Context, tx bun.IDB, id string) (*User, error) {
	uid, err := parseUserID(id)
	if err != nil {
		return nil, err
	}

	record := &User{}
	err = tx.NewSelect().
		Model(record).
		Relation("Roles").
		Where("?TableAlias.id = ?", uid).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) UsernameExists(ctx context.Context, username string) (bool, error) {
	return a.UsernameExistsTx(ctx, a.db, username)
}

func (a *users) UsernameExistsTx(ctx context.Context, tx bun.IDB, username string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.username = ?", username).
		Exists(ctx)
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	user.IsActive = false
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) SetActive(ctx context.Context, id string, active bool) error {
	return a.SetActiveTx(ctx, a.db, id, active)
}

func (a *users) SetActiveTx(ctx context.Context, tx bun.IDB, id string, active bool) error {
	uid, err := parseUserID(id)
	if err != nil {
		return err
	}

	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("is_active = ?", active).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", uid).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res, map[string]any{"id": id})
}

func (a *users) Remove(ctx context.Context, id string) error {
	return a.RemoveTx(ctx, a.db, id)
}

// RemoveTx deletes the user and its role assignments
func (a *users) RemoveTx(ctx context.Context, tx bun.IDB, id string) error {
	uid, err := parseUserID(id)
	if err != nil {
		return err
	}

	if _, err := tx.NewDelete().
		Model((*UserRole)(nil)).
		Where("user_id = ?", uid).
		Exec(ctx); err != nil {
		return err
	}

	res, err := tx.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", uid).
		Exec(ctx)
	if err != nil {
		return err
	}
	return expectAffected(res, map[string]any{"id": id})
}

// parseUserID treats ids that can't be parsed as missing records
func parseUserID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return uuid.Nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id,
			})
	}
	return uid, nil
}
