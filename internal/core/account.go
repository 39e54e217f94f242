package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a customer account. The balance is only ever mutated by the
// transfer engine; accounts are never deleted, only deactivated.
//
// InitialBalance is the immutable creation seed. The invariant
// Balance == InitialBalance + signed sum of committed transfers holds at all
// times; statements rely on it to replay the opening balance.
type Account struct {
	ID             uuid.UUID       `json:"id"`
	AccountNumber  string          `json:"account_number"`
	HolderName     string          `json:"holder_name"`
	Balance        decimal.Decimal `json:"balance"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	CreatedAt      time.Time       `json:"created_at"`
	IsActive       bool            `json:"is_active"`
}
