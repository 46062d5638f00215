package users

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samanbooks/samanbooks/pkg/binder"
	"github.com/samanbooks/samanbooks/pkg/errcodes"
	"github.com/samanbooks/samanbooks/pkg/models"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for password hashes. Tests lower it.
var BcryptCost = 12

type RetrieveUserOptions struct {
	ID       *uuid.UUID
	Username *string
	Email    *string
}

type Service struct {
	db     *bun.DB
	binder *binder.Binder
}

func NewService(db *bun.DB) *Service {
	return &Service{db, binder.New()}
}

// CreateUser stores a new user with a bcrypt hash of the password.
// Usernames are unique ignoring case.
func (svc *Service) CreateUser(ctx context.Context, opts CreateUserOptions) (*models.User, error) {
	if err := svc.binder.Bind(ctx, &opts); err != nil {
		return nil, err
	}

	exists, err := svc.db.NewSelect().
		Model((*models.User)(nil)).
		Where("username = ? COLLATE NOCASE", opts.Username).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.ValidationError("Username already exists.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), BcryptCost)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     opts.Username,
		Email:        opts.Email,
		PasswordHash: string(hash),
		Role:         opts.Role,
	}
	_, err = svc.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, errcodes.PersistenceFailed("User", err)
	}
	return user, nil
}

func (svc *Service) RetrieveUser(ctx context.Context, opts RetrieveUserOptions) (*models.User, error) {
	user := &models.User{}

	q := svc.db.
		NewSelect().
		Model(user)

	switch {
	case opts.ID != nil:
		q = q.Where("u.id = ?", *opts.ID)
	case opts.Username != nil:
		q = q.Where("u.username = ? COLLATE NOCASE", *opts.Username)
	case opts.Email != nil:
		q = q.Where("u.email = ? COLLATE NOCASE", strings.TrimSpace(*opts.Email)).Order("u.created_at ASC").Limit(1)
	default:
		return nil, errcodes.ValidationError("An ID, username or email is required to retrieve a user.")
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// UpdateUser applies opts to the user with the given ID. A new password is
// stored as a bcrypt hash and a new username must still be unique.
func (svc *Service) UpdateUser(ctx context.Context, id uuid.UUID, opts UpdateUserOptions) (*models.User, error) {
	if err := svc.binder.Bind(ctx, &opts); err != nil {
		return nil, err
	}

	user, err := svc.RetrieveUser(ctx, RetrieveUserOptions{ID: &id})
	if err != nil {
		return nil, err
	}

	var columns []string
	if opts.Username != nil && *opts.Username != user.Username {
		exists, err := svc.db.NewSelect().
			Model((*models.User)(nil)).
			Where("username = ? COLLATE NOCASE", *opts.Username).
			Where("id != ?", user.ID).
			Exists(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if exists {
			return nil, errcodes.ValidationError("Username already exists.")
		}
		user.Username = *opts.Username
		columns = append(columns, "username")
	}
	if opts.Email != nil {
		email := strings.TrimSpace(*opts.Email)
		if email == "" {
			user.Email = nil
		} else {
			user.Email = &email
		}
		columns = append(columns, "email")
	}
	if opts.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*opts.Password), BcryptCost)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		user.PasswordHash = string(hash)
		columns = append(columns, "password_hash")
	}
	if opts.Role != nil && *opts.Role != user.Role {
		user.Role = *opts.Role
		columns = append(columns, "role")
	}
	if len(columns) == 0 {
		return user, nil
	}

	user.UpdatedAt = time.Now()
	columns = append(columns, "updated_at")
	_, err = svc.db.
		NewUpdate().
		Model(user).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errcodes.PersistenceFailed("User", err)
	}
	return user, nil
}

func (svc *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := svc.db.
		NewSelect().
		Model(&users).
		Order("u.username ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return users, nil
}

// CheckPassword returns the user when username and password match, and a
// not_found error otherwise so callers can't tell which one was wrong.
func (svc *Service) CheckPassword(ctx context.Context, username, password string) (*models.User, error) {
	user, err := svc.RetrieveUser(ctx, RetrieveUserOptions{Username: &username})
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errcodes.NotFound("User")
	}
	return user, nil
}

func (svc *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.User)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("User")
	}
	return nil
}
