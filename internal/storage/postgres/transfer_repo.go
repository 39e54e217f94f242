package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"chubank/internal/core"
	"chubank/internal/storage"
)

func scanTransfer(row scanner) (*core.Transfer, error) {
	var (
		t    core.Transfer
		desc *string
	)
	if err := row.Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &t.Amount, &desc, &t.TransferDate, &t.CreatedAt); err != nil {
		return nil, err
	}
	if desc != nil {
		t.Description = *desc
	}
	return &t, nil
}

// Transfer moves amount between two accounts and appends the log entry as a
// single database transaction. Both account rows are locked in id order so
// concurrent transfers over a shared account serialize instead of deadlocking,
// and the funds check runs under that lock.
func (r *Repo) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, description string, transferDate time.Time) (*core.Transfer, error) {
	if fromID == toID {
		return nil, core.ErrSameAccount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, core.ErrInvalidAmount
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	// Lock order: lower id first.
	first, second := fromID, toID
	if second.String() < first.String() {
		first, second = second, first
	}

	const lock = `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`

	balances := make(map[uuid.UUID]decimal.Decimal, 2)
	for _, id := range []uuid.UUID{first, second} {
		var bal decimal.Decimal
		if err := tx.QueryRow(ctx, lock, id).Scan(&bal); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, storage.ErrAccountNotFound
			}
			return nil, mapPgError(err)
		}
		balances[id] = bal
	}

	if balances[fromID].LessThan(amount) {
		return nil, storage.ErrInsufficientFunds
	}

	const debit = `UPDATE accounts SET balance = balance - $1 WHERE id = $2`
	if _, err := tx.Exec(ctx, debit, amount, fromID); err != nil {
		return nil, mapPgError(err)
	}

	const credit = `UPDATE accounts SET balance = balance + $1 WHERE id = $2`
	if _, err := tx.Exec(ctx, credit, amount, toID); err != nil {
		return nil, mapPgError(err)
	}

	transfer := &core.Transfer{
		ID:            uuid.New(),
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		Description:   description,
		TransferDate:  core.DateOnly(transferDate),
		CreatedAt:     time.Now().UTC(),
	}

	const ins = `INSERT INTO transfers (id, from_account_id, to_account_id, amount, description, transfer_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.Exec(ctx, ins, transfer.ID, transfer.FromAccountID, transfer.ToAccountID,
		transfer.Amount, nullIfEmpty(transfer.Description), transfer.TransferDate, transfer.CreatedAt); err != nil {
		return nil, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapPgError(err)
	}
	return transfer, nil
}

// RecordTransfer appends a transfer without touching balances. The atomic
// Transfer path is the normal writer; this exists for backfills and tests.
func (r *Repo) RecordTransfer(ctx context.Context, t *core.Transfer) error {
	const ins = `INSERT INTO transfers (id, from_account_id, to_account_id, amount, description, transfer_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, ins, t.ID, t.FromAccountID, t.ToAccountID,
		t.Amount, nullIfEmpty(t.Description), t.TransferDate, t.CreatedAt)
	return mapPgError(err)
}

// GetTransfer retrieves a single transfer by id.
func (r *Repo) GetTransfer(ctx context.Context, id uuid.UUID) (*core.Transfer, error) {
	const q = `SELECT id, from_account_id, to_account_id, amount, description, transfer_date, created_at
		FROM transfers WHERE id = $1`
	t, err := scanTransfer(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrTransferNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListTransfersByAccount returns every transfer where the account is either
// party, optionally bounded by posting date (inclusive on both ends), in
// deterministic replay order.
func (r *Repo) ListTransfersByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*core.Transfer, error) {
	q := `SELECT id, from_account_id, to_account_id, amount, description, transfer_date, created_at
		FROM transfers WHERE (from_account_id = $1 OR to_account_id = $1)`
	args := []any{accountID}

	if from != nil {
		args = append(args, core.DateOnly(*from))
		q += fmt.Sprintf(" AND transfer_date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, core.DateOnly(*to))
		q += fmt.Sprintf(" AND transfer_date <= $%d", len(args))
	}
	q += " ORDER BY transfer_date, created_at, id"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*core.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
