// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/stratadmin/internal/app/system/apperr"
	"github.com/dalemusser/stratadmin/internal/app/system/normalize"
	"github.com/dalemusser/stratadmin/internal/app/system/pgdb"
	"github.com/dalemusser/stratadmin/internal/domain/models"
	"github.com/jackc/pgx/v5"
)

const selectUser = `SELECT id, email, COALESCE(name, ''), password, "createdAt", "updatedAt" FROM users`

// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
var ErrDuplicateEmail = apperr.Invalid("A user with this email already exists")

type Store struct {
	q pgdb.Querier
}

func New(q pgdb.Querier) *Store {
	return &Store{q: q}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Password, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return &u, nil
}

// GetByID loads a user by id.
func (s *Store) GetByID(ctx context.Context, id int) (*models.User, error) {
	return scanUser(s.q.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

// GetByEmail looks up a user by email, ignoring case.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.q.QueryRow(ctx, selectUser+` WHERE email = $1`, normalize.Email(email)))
}

// Create inserts a new user. password must already be a bcrypt hash (or
// models.OktaManagedPassword).
func (s *Store) Create(ctx context.Context, email, name, password string) (*models.User, error) {
	email = normalize.Email(email)
	if email == "" {
		return nil, apperr.Invalid("Email required")
	}
	u, err := scanUser(s.q.QueryRow(ctx, `
		INSERT INTO users (email, name, password) VALUES ($1, $2, $3)
		RETURNING id, email, COALESCE(name, ''), password, "createdAt", "updatedAt"`,
		email, normalize.Name(name), password))
	if err != nil {
		if pgdb.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// UpdateName changes the display name of a user.
func (s *Store) UpdateName(ctx context.Context, id int, name string) (*models.User, error) {
	return scanUser(s.q.QueryRow(ctx, `
		UPDATE users SET name = $2, "updatedAt" = now() WHERE id = $1
		RETURNING id, email, COALESCE(name, ''), password, "createdAt", "updatedAt"`,
		id, normalize.Name(name)))
}

// FindOrCreateOkta returns the user for an identity-provider sign-in. A new
// user gets models.OktaManagedPassword; an existing user's name is refreshed
// when the provider reports a different non-empty one. created reports
// whether the user was inserted.
func (s *Store) FindOrCreateOkta(ctx context.Context, email, name string) (u *models.User, created bool, err error) {
	name = normalize.Name(name)
	u, err = s.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if name != "" && name != u.Name {
			u, err = s.UpdateName(ctx, u.ID, name)
			if err != nil {
				return nil, false, fmt.Errorf("refresh user name: %w", err)
			}
		}
		return u, false, nil
	case !apperr.IsNotFound(err):
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	if name == "" {
		name = normalize.Email(email)
	}
	u, err = s.Create(ctx, email, name, models.OktaManagedPassword)
	if errors.Is(err, ErrDuplicateEmail) {
		// lost a race with a concurrent first sign-in
		u, err = s.GetByEmail(ctx, email)
		return u, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

// Upsert creates the user or replaces the name and password of an existing
// one. Used by seeding.
func (s *Store) Upsert(ctx context.Context, email, name, password string) (*models.User, error) {
	return scanUser(s.q.QueryRow(ctx, `
		INSERT INTO users (email, name, password) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, password = EXCLUDED.password, "updatedAt" = now()
		RETURNING id, email, COALESCE(name, ''), password, "createdAt", "updatedAt"`,
		normalize.Email(email), normalize.Name(name), password))
}

// Count returns the number of users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
