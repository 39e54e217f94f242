package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"chubank/internal/storage"
)

// Ensure the repo satisfies the full storage contract.
var _ storage.Storage = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// mapPgError translates driver errors into the storage sentinels the
// engines branch on. Anything unrecognized passes through unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return storage.ErrConflict
		case pgUniqueViolation:
			return storage.ErrUserExists
		}
	}
	return err
}
