package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"chubank/internal/core"
	"chubank/internal/storage"
)

func scanUser(row scanner) (*core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsActive, &u.IsLocked, &u.FailedLoginAttempts, &u.LastLoginAt, &u.LockedUntil,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

const userColumns = `id, username, email, password_hash, first_name, last_name,
	is_active, is_locked, failed_login_attempts, last_login_at, locked_until,
	created_at, updated_at`

// CreateUser inserts a new user. A duplicate username or email surfaces as
// storage.ErrUserExists.
func (r *Repo) CreateUser(ctx context.Context, u *core.User) error {
	const q = `INSERT INTO users (id, username, email, password_hash, first_name, last_name,
		is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, q, u.ID, u.Username, u.Email, u.PasswordHash,
		u.FirstName, u.LastName, u.IsActive, u.CreatedAt, u.UpdatedAt)
	return mapPgError(err)
}

func (r *Repo) GetUserByID(ctx context.Context, id uuid.UUID) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(r.db.QueryRow(ctx, q, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateUser persists mutable user state (lockout counters, timestamps).
func (r *Repo) UpdateUser(ctx context.Context, u *core.User) error {
	const q = `UPDATE users SET email = $2, first_name = $3, last_name = $4, is_active = $5,
		is_locked = $6, failed_login_attempts = $7, last_login_at = $8, locked_until = $9,
		updated_at = $10
		WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, u.ID, u.Email, u.FirstName, u.LastName, u.IsActive,
		u.IsLocked, u.FailedLoginAttempts, u.LastLoginAt, u.LockedUntil, u.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}
	return nil
}
