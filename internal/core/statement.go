package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryDebit  EntryType = "DEBIT"
	EntryCredit EntryType = "CREDIT"
)

// StatementEntry is one transfer as seen from the statement account's side:
// a signed amount and the running balance after applying it.
type StatementEntry struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Balance     decimal.Decimal `json:"balance"`
	Type        EntryType       `json:"type"`
}

// Statement is a derived, replayable view of an account over a date window.
// It is never a source of truth; it can always be rebuilt from the transfer log.
type Statement struct {
	ID             uuid.UUID        `json:"id"`
	AccountNumber  string           `json:"account_number"`
	StartDate      time.Time        `json:"start_date"`
	EndDate        time.Time        `json:"end_date"`
	OpeningBalance decimal.Decimal  `json:"opening_balance"`
	ClosingBalance decimal.Decimal  `json:"closing_balance"`
	Entries        []StatementEntry `json:"entries"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
