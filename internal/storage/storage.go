package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chubank/internal/core"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrTransferNotFound  = errors.New("transfer not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("username or email already exists")

	// ErrConflict is retryable: a competing mutation invalidated this
	// operation's view of an account.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrUnavailable means durable storage could not be reached.
	ErrUnavailable = errors.New("storage unavailable")
)

// AccountStore persists account records.
type AccountStore interface {
	CreateAccount(ctx context.Context, acc *core.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*core.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (*core.Account, error)
	ListAccounts(ctx context.Context) ([]*core.Account, error)
	UpdateAccount(ctx context.Context, acc *core.Account) error
}

// TransferLog persists the append-only transfer history. Listings are
// ordered by transfer date ascending, then creation time, then id, so that
// replaying them is deterministic.
type TransferLog interface {
	RecordTransfer(ctx context.Context, t *core.Transfer) error
	GetTransfer(ctx context.Context, id uuid.UUID) (*core.Transfer, error)
	ListTransfersByAccount(ctx context.Context, accountID uuid.UUID, from, to *time.Time) ([]*core.Transfer, error)
}

// UserStore persists API users.
type UserStore interface {
	CreateUser(ctx context.Context, u *core.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*core.User, error)
	GetUserByUsername(ctx context.Context, username string) (*core.User, error)
	UpdateUser(ctx context.Context, u *core.User) error
}

// Storage is the full persistence contract. Transfer is the one atomic
// operation: debit the source, credit the destination, and append the log
// entry in a single transaction, or change nothing at all. Implementations
// must serialize transfers touching a common account and re-check funds
// under whatever lock that serialization uses, returning ErrInsufficientFunds
// when the source cannot cover the amount and ErrConflict when a concurrent
// transfer forces a retry.
type Storage interface {
	AccountStore
	TransferLog
	UserStore

	Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, description string, transferDate time.Time) (*core.Transfer, error)
}
