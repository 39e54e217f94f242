package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"chubank/internal/core"
	"chubank/internal/storage"
)

func scanAccount(row scanner) (*core.Account, error) {
	var a core.Account
	if err := row.Scan(&a.ID, &a.AccountNumber, &a.HolderName, &a.Balance, &a.InitialBalance, &a.CreatedAt, &a.IsActive); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a new account with its seeded balance.
func (r *Repo) CreateAccount(ctx context.Context, acc *core.Account) error {
	const q = `INSERT INTO accounts (id, account_number, holder_name, balance, initial_balance, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, q, acc.ID, acc.AccountNumber, acc.HolderName, acc.Balance, acc.InitialBalance, acc.CreatedAt, acc.IsActive)
	return mapPgError(err)
}

// GetAccount retrieves an account by id.
func (r *Repo) GetAccount(ctx context.Context, id uuid.UUID) (*core.Account, error) {
	const q = `SELECT id, account_number, holder_name, balance, initial_balance, created_at, is_active
		FROM accounts WHERE id = $1`
	acc, err := scanAccount(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// GetAccountByNumber retrieves an account by its human-facing number.
func (r *Repo) GetAccountByNumber(ctx context.Context, number string) (*core.Account, error) {
	const q = `SELECT id, account_number, holder_name, balance, initial_balance, created_at, is_active
		FROM accounts WHERE account_number = $1`
	acc, err := scanAccount(r.db.QueryRow(ctx, q, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// ListAccounts returns all accounts.
func (r *Repo) ListAccounts(ctx context.Context) ([]*core.Account, error) {
	const q = `SELECT id, account_number, holder_name, balance, initial_balance, created_at, is_active
		FROM accounts ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// UpdateAccount persists identity and status fields. Balances are not
// updated here; only the transactional Transfer path may move money.
func (r *Repo) UpdateAccount(ctx context.Context, acc *core.Account) error {
	const q = `UPDATE accounts SET holder_name = $2, is_active = $3 WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, acc.ID, acc.HolderName, acc.IsActive)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}
	return nil
}
