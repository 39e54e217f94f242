package core

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrSameAccount   = errors.New("source and destination accounts are the same")
	ErrInvalidAmount = errors.New("amount must be greater than zero")
)

// Transfer is one committed movement of money between two accounts.
// The transfer log is append-only: a transfer is never edited or deleted.
type Transfer struct {
	ID            uuid.UUID       `json:"id"`
	FromAccountID uuid.UUID       `json:"from_account_id"`
	ToAccountID   uuid.UUID       `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
	TransferDate  time.Time       `json:"transfer_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Validate checks the request-independent invariants of a transfer.
func (t *Transfer) Validate() error {
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}

// DateOnly truncates t to a UTC calendar date, the granularity at which
// transfers are posted.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
