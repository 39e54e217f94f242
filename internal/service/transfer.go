package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chubank/internal/cache"
	"chubank/internal/calendar"
	"chubank/internal/core"
	"chubank/internal/storage"
)

const transferMaxRetries = 3

// TransferService executes inter-account money movements. It is the only
// writer of the transfer log and the only mutator of account balances.
type TransferService struct {
	store    storage.Storage
	calendar calendar.Calendar
	cache    cache.Cache
	logger   *slog.Logger
}

func NewTransferService(store storage.Storage, cal calendar.Calendar, c cache.Cache, logger *slog.Logger) *TransferService {
	return &TransferService{store: store, calendar: cal, cache: c, logger: logger}
}

// CreateTransfer validates and applies one transfer. Validation order: the
// posting day must be a business day, the source account must exist, the
// destination must exist, and the source must cover the amount. The balance
// mutations and the log append commit in one storage transaction; on a
// concurrency conflict the engine retries a bounded number of times.
//
// Amount positivity, differing account numbers, and description length are
// the caller's responsibility; storage re-checks the structural invariants.
func (s *TransferService) CreateTransfer(ctx context.Context, fromNumber, toNumber string, amount decimal.Decimal, description string) (*core.Transfer, error) {
	today := core.DateOnly(time.Now())

	businessDay, err := s.calendar.IsBusinessDay(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	if !businessDay {
		return nil, ErrNotBusinessDay
	}

	from, err := s.store.GetAccountByNumber(ctx, fromNumber)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, ErrSourceAccountNotFound
		}
		return nil, err
	}

	to, err := s.store.GetAccountByNumber(ctx, toNumber)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			return nil, ErrDestinationAccountNotFound
		}
		return nil, err
	}

	// Fail fast on an obviously short balance. The authoritative check
	// happens again inside the storage transaction under the row lock.
	if from.Balance.LessThan(amount) {
		return nil, storage.ErrInsufficientFunds
	}

	var transfer *core.Transfer
	for attempt := 1; ; attempt++ {
		transfer, err = s.store.Transfer(ctx, from.ID, to.ID, amount, description, today)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrConflict) {
			return nil, err
		}
		if attempt >= transferMaxRetries {
			return nil, fmt.Errorf("%w: %v", ErrTransferConflict, err)
		}
		s.logger.Warn("transfer conflicted, retrying",
			"from", fromNumber, "to", toNumber, "attempt", attempt)
	}

	// Cached views of both accounts are stale now. Cache errors are
	// absorbed: the cache is advisory.
	for _, id := range []string{accountCacheKey(from.ID), accountCacheKey(to.ID)} {
		if err := s.cache.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to invalidate account cache", "key", id, "err", err)
		}
	}

	s.logger.Info("transfer completed",
		"transfer_id", transfer.ID, "from", fromNumber, "to", toNumber, "amount", amount)
	return transfer, nil
}

// GetTransfer returns a single transfer by id.
func (s *TransferService) GetTransfer(ctx context.Context, id uuid.UUID) (*core.Transfer, error) {
	return s.store.GetTransfer(ctx, id)
}
